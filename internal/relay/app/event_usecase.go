package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dsneed123/another-social-media-app/internal/relay/domain"
	"github.com/dsneed123/another-social-media-app/internal/relay/repository"
	"github.com/dsneed123/another-social-media-app/pkg/logger"

	"go.uber.org/zap"
)

// EventUseCase applies one inbound client frame against the stores and fans
// the resulting frames out through the registry. One call per frame; the
// websocket read loop serializes calls per connection, so all frames produced
// by one inbound event are fanned out before the next event of that
// connection is processed.
//
// Any storage failure aborts only the frame being processed. Nothing here
// tears down the connection.
type EventUseCase struct {
	registry *ConnectionRegistry
	msgRepo  repository.MessageRepository
	roomRepo repository.RoomRepository
	userRepo repository.UserRepository
	presence repository.PresenceRepository
}

// NewEventUseCase init the protocol handler
func NewEventUseCase(
	registry *ConnectionRegistry,
	msgRepo repository.MessageRepository,
	roomRepo repository.RoomRepository,
	userRepo repository.UserRepository,
	presence repository.PresenceRepository,
) *EventUseCase {
	return &EventUseCase{
		registry: registry,
		msgRepo:  msgRepo,
		roomRepo: roomRepo,
		userRepo: userRepo,
		presence: presence,
	}
}

// Handle decodes and dispatches one inbound frame from userID. A malformed
// frame is answered with a non-fatal error frame to the sender.
func (uc *EventUseCase) Handle(ctx context.Context, userID string, raw []byte) {
	// Any inbound frame counts as activity, so the online TTL is refreshed
	// before the frame is applied. Best effort: presence is advisory.
	if err := uc.presence.SetOnline(ctx, userID); err != nil {
		logger.Log.Warn("failed to refresh online presence", zap.String("userID", userID), zap.Error(err))
	}

	var ev domain.ClientEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		logger.Log.Error("failed to parse client frame", zap.String("userID", userID), zap.Error(err))
		uc.sendError(userID, "malformed frame")
		return
	}

	switch ev.Type {
	case domain.EventSendMessage:
		uc.handleSendMessage(ctx, userID, &ev)
	case domain.EventTypingStart:
		uc.handleTyping(ctx, userID, ev.ChatRoomID, true)
	case domain.EventTypingStop:
		uc.handleTyping(ctx, userID, ev.ChatRoomID, false)
	case domain.EventMarkRead:
		uc.handleMarkRead(ctx, userID, ev.MessageID)
	case domain.EventMarkViewed:
		uc.handleMarkViewed(ctx, userID, ev.MessageID)
	default:
		uc.sendError(userID, "unknown event type")
	}
}

// sendError pushes an error frame to the sender's own channel. The sender is
// connected by construction, but a race with teardown is harmless.
func (uc *EventUseCase) sendError(userID, msg string) {
	payload := domain.Encode(domain.ErrorEvent{Type: domain.EventError, Message: msg})
	uc.registry.Route(userID, payload)
}

// fanOut delivers the payload to every member of the room. Members without a
// routable channel are handed to offline instead, when given.
func (uc *EventUseCase) fanOut(ctx context.Context, roomID string, payload []byte, offline func(memberID string)) {
	// Membership is looked up per event on purpose: caching it on the
	// connection would silently exclude members joining mid-conversation.
	members, err := uc.roomRepo.MemberIDs(ctx, roomID)
	if err != nil {
		logger.Log.Error("failed to fetch chat members", zap.String("roomID", roomID), zap.Error(err))
		return
	}

	for _, memberID := range members {
		if uc.registry.Route(memberID, payload) {
			continue
		}
		if offline != nil {
			offline(memberID)
		}
	}
}

func (uc *EventUseCase) handleSendMessage(ctx context.Context, userID string, ev *domain.ClientEvent) {
	if ev.ChatRoomID == "" {
		uc.sendError(userID, "send_message requires chat_room_id")
		return
	}
	switch ev.MessageType {
	case domain.MessageTypeText, domain.MessageTypeImage, domain.MessageTypeVideo:
	default:
		uc.sendError(userID, "unsupported message type")
		return
	}

	var expiresAt *time.Time
	if ev.ExpiresInSeconds != nil {
		t := time.Now().UTC().Add(time.Duration(*ev.ExpiresInSeconds) * time.Second)
		expiresAt = &t
	}

	msgID, createdAt, err := uc.msgRepo.Insert(ctx, &domain.NewMessage{
		ChatRoomID:  ev.ChatRoomID,
		SenderID:    userID,
		MessageType: ev.MessageType,
		Content:     ev.Content,
		MediaURL:    ev.MediaURL,
		ViewOnce:    ev.ViewOnce,
		ExpiresAt:   expiresAt,
	})
	if err != nil {
		logger.Log.Error("failed to insert message", zap.String("userID", userID), zap.Error(err))
		return
	}

	username, err := uc.userRepo.GetUsername(ctx, userID)
	if err != nil {
		logger.Log.Error("failed to fetch sender username", zap.String("userID", userID), zap.Error(err))
		return
	}

	if err := uc.roomRepo.TouchActivity(ctx, ev.ChatRoomID); err != nil {
		logger.Log.Warn("failed to bump room activity", zap.String("roomID", ev.ChatRoomID), zap.Error(err))
	}

	payload := domain.Encode(domain.NewMessageEvent{
		Type:           domain.EventNewMessage,
		ID:             msgID,
		ChatRoomID:     ev.ChatRoomID,
		SenderID:       userID,
		SenderUsername: username,
		MessageType:    ev.MessageType,
		Content:        ev.Content,
		MediaURL:       ev.MediaURL,
		ViewOnce:       ev.ViewOnce,
		CreatedAt:      createdAt.UTC().Format(domain.TimeLayout),
	})

	uc.fanOut(ctx, ev.ChatRoomID, payload, func(memberID string) {
		// Offline members reconcile by re-fetching history; the counter is
		// the only thing queued for them.
		if _, err := uc.presence.IncrementUnread(ctx, memberID, ev.ChatRoomID); err != nil {
			logger.Log.Error("failed to increment unread",
				zap.String("memberID", memberID),
				zap.String("roomID", ev.ChatRoomID),
				zap.Error(err),
			)
		}
	})
}

func (uc *EventUseCase) handleTyping(ctx context.Context, userID, roomID string, start bool) {
	if roomID == "" {
		uc.sendError(userID, "typing event requires chat_room_id")
		return
	}

	if start {
		if err := uc.presence.SetTyping(ctx, userID, roomID); err != nil {
			logger.Log.Error("failed to set typing marker", zap.String("userID", userID), zap.Error(err))
			return
		}

		username, err := uc.userRepo.GetUsername(ctx, userID)
		if err != nil {
			logger.Log.Error("failed to fetch username for typing", zap.String("userID", userID), zap.Error(err))
			return
		}

		payload := domain.Encode(domain.UserTypingEvent{
			Type:       domain.EventUserTyping,
			ChatRoomID: roomID,
			UserID:     userID,
			Username:   username,
		})
		// Sender included so its other devices echo the indicator.
		uc.fanOut(ctx, roomID, payload, nil)
		return
	}

	if err := uc.presence.ClearTyping(ctx, userID, roomID); err != nil {
		logger.Log.Error("failed to clear typing marker", zap.String("userID", userID), zap.Error(err))
		return
	}

	payload := domain.Encode(domain.UserStoppedTypingEvent{
		Type:       domain.EventUserStoppedTyping,
		ChatRoomID: roomID,
		UserID:     userID,
	})
	uc.fanOut(ctx, roomID, payload, nil)
}

func (uc *EventUseCase) handleMarkRead(ctx context.Context, userID, messageID string) {
	if messageID == "" {
		uc.sendError(userID, "mark_read requires message_id")
		return
	}

	readAt, err := uc.msgRepo.InsertRead(ctx, messageID, userID)
	if err != nil {
		logger.Log.Error("failed to insert read receipt", zap.String("messageID", messageID), zap.Error(err))
		return
	}
	if readAt == nil {
		// Duplicate receipt: no counter reset, no second notification.
		return
	}

	meta, err := uc.msgRepo.Meta(ctx, messageID)
	if err != nil {
		logger.Log.Error("failed to fetch message meta", zap.String("messageID", messageID), zap.Error(err))
		return
	}

	if err := uc.presence.ClearUnread(ctx, userID, meta.ChatRoomID); err != nil {
		logger.Log.Error("failed to clear unread",
			zap.String("userID", userID),
			zap.String("roomID", meta.ChatRoomID),
			zap.Error(err),
		)
	}

	payload := domain.Encode(domain.MessageReadEvent{
		Type:      domain.EventMessageRead,
		MessageID: messageID,
		UserID:    userID,
		ReadAt:    readAt.UTC().Format(domain.TimeLayout),
	})
	uc.registry.Route(meta.SenderID, payload)
}

func (uc *EventUseCase) handleMarkViewed(ctx context.Context, userID, messageID string) {
	if messageID == "" {
		uc.sendError(userID, "mark_viewed requires message_id")
		return
	}

	viewedAt, err := uc.msgRepo.InsertView(ctx, messageID, userID)
	if err != nil {
		logger.Log.Error("failed to insert view receipt", zap.String("messageID", messageID), zap.Error(err))
		return
	}
	if viewedAt == nil {
		return
	}

	meta, err := uc.msgRepo.Meta(ctx, messageID)
	if err != nil {
		logger.Log.Error("failed to fetch message meta", zap.String("messageID", messageID), zap.Error(err))
		return
	}

	payload := domain.Encode(domain.MessageViewedEvent{
		Type:      domain.EventMessageViewed,
		MessageID: messageID,
		UserID:    userID,
		ViewedAt:  viewedAt.UTC().Format(domain.TimeLayout),
	})
	uc.registry.Route(meta.SenderID, payload)

	if !meta.ViewOnce {
		return
	}

	// A save exemption from the viewer keeps the message alive.
	saved, err := uc.msgRepo.IsSaved(ctx, messageID, userID)
	if err != nil {
		logger.Log.Error("failed to check save exemption", zap.String("messageID", messageID), zap.Error(err))
		return
	}
	if saved {
		return
	}

	if err := uc.msgRepo.SoftDelete(ctx, messageID); err != nil {
		logger.Log.Error("failed to soft delete viewed message", zap.String("messageID", messageID), zap.Error(err))
		return
	}

	expired := domain.Encode(domain.MessageExpiredEvent{
		Type:      domain.EventMessageExpired,
		MessageID: messageID,
	})
	uc.fanOut(ctx, meta.ChatRoomID, expired, nil)
}
