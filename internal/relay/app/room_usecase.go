package app

import (
	"context"
	"strings"
	"time"

	"github.com/dsneed123/another-social-media-app/internal/relay/domain"
	"github.com/dsneed123/another-social-media-app/internal/relay/repository"
	"github.com/dsneed123/another-social-media-app/pkg"
	errprocess "github.com/dsneed123/another-social-media-app/pkg/err"
	"github.com/dsneed123/another-social-media-app/pkg/logger"

	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// RoomUseCase covers everything clients reach over REST: creating and listing
// conversations, paging history, save exemptions, and the presence snapshots.
type RoomUseCase struct {
	roomRepo repository.RoomRepository
	msgRepo  repository.MessageRepository
	userRepo repository.UserRepository
	presence repository.PresenceRepository
}

// NewRoomUseCase create RoomUseCase
func NewRoomUseCase(
	roomRepo repository.RoomRepository,
	msgRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	presence repository.PresenceRepository,
) *RoomUseCase {
	return &RoomUseCase{
		roomRepo: roomRepo,
		msgRepo:  msgRepo,
		userRepo: userRepo,
		presence: presence,
	}
}

// CreateChat creates a conversation. A direct chat between the same two users
// is deduplicated: the existing room comes back instead of a second one.
// Group chats are always created fresh and require a name.
func (uc *RoomUseCase) CreateChat(ctx context.Context, creatorID string, memberIDs []string, isGroup bool, name *string) (*domain.ChatRoomDetail, error) {
	members := dedupeMembers(creatorID, memberIDs)

	if !isGroup {
		if len(members) != 2 {
			return nil, errprocess.Set("direct chat requires exactly one other member")
		}
		existing, err := uc.roomRepo.FindDirectRoom(ctx, members[0], members[1])
		if err != nil {
			return nil, err
		}
		if existing != "" {
			return uc.roomDetail(ctx, existing, creatorID)
		}
	} else if name == nil || strings.TrimSpace(*name) == "" {
		return nil, errprocess.Set("group chat requires a name")
	}

	room, err := uc.roomRepo.Create(ctx, isGroup, name, creatorID)
	if err != nil {
		return nil, err
	}
	for _, memberID := range members {
		if err := uc.roomRepo.AddMember(ctx, room.ID, memberID); err != nil {
			return nil, err
		}
	}
	return uc.roomDetail(ctx, room.ID, creatorID)
}

// GetUserChats lists the viewer's conversations, most recently active first.
func (uc *RoomUseCase) GetUserChats(ctx context.Context, viewerID string) ([]domain.ChatRoomDetail, error) {
	rooms, err := uc.roomRepo.FindRoomsByUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	details := make([]domain.ChatRoomDetail, 0, len(rooms))
	for _, room := range rooms {
		detail, err := uc.buildDetail(ctx, &room, viewerID)
		if err != nil {
			// One broken room should not blank the whole list.
			logger.Log.Error("failed to build chat detail", zap.String("roomID", room.ID), zap.Error(err))
			continue
		}
		details = append(details, *detail)
	}
	return details, nil
}

// GetMessages pages room history backwards from beforeMessageID (or from now).
// The viewer must be a member. Limit is clamped to the server's window.
func (uc *RoomUseCase) GetMessages(ctx context.Context, viewerID, roomID string, beforeMessageID *string, limit int64) ([]domain.MessageHistory, error) {
	if err := uc.requireMembership(ctx, roomID, viewerID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	var before *time.Time
	if beforeMessageID != nil && *beforeMessageID != "" {
		ts, err := uc.msgRepo.CreatedAt(ctx, *beforeMessageID)
		if err != nil {
			return nil, errprocess.Set("unknown cursor message")
		}
		before = &ts
	}

	return uc.msgRepo.FindMessages(ctx, roomID, viewerID, before, limit)
}

// SaveMessage records a save exemption: a saved view-once message survives
// viewing and the reaper's view-once pass.
func (uc *RoomUseCase) SaveMessage(ctx context.Context, viewerID, messageID string) error {
	meta, err := uc.msgRepo.Meta(ctx, messageID)
	if err != nil {
		return err
	}
	if err := uc.requireMembership(ctx, meta.ChatRoomID, viewerID); err != nil {
		return err
	}
	return uc.msgRepo.InsertSave(ctx, messageID, viewerID)
}

// UnsaveMessage drops the viewer's save exemption. Removing a save that does
// not exist is a no-op.
func (uc *RoomUseCase) UnsaveMessage(ctx context.Context, viewerID, messageID string) error {
	return uc.msgRepo.DeleteSave(ctx, messageID, viewerID)
}

// UnreadSummary returns the per-room unread counters across all of the
// viewer's conversations. Rooms with a zero counter are omitted.
func (uc *RoomUseCase) UnreadSummary(ctx context.Context, viewerID string) ([]domain.RoomUnread, error) {
	rooms, err := uc.roomRepo.FindRoomsByUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	summary := make([]domain.RoomUnread, 0, len(rooms))
	for _, room := range rooms {
		count, err := uc.presence.GetUnread(ctx, viewerID, room.ID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			summary = append(summary, domain.RoomUnread{RoomID: room.ID, UnreadCount: count})
		}
	}
	return summary, nil
}

// TypingUsers snapshots who is typing in the room right now. Stale markers
// fall out on their own through the key TTL.
func (uc *RoomUseCase) TypingUsers(ctx context.Context, viewerID, roomID string) ([]string, error) {
	if err := uc.requireMembership(ctx, roomID, viewerID); err != nil {
		return nil, err
	}
	return uc.presence.GetTypingUsers(ctx, roomID)
}

// Presence exposes another user's presence record, nil when never seen.
func (uc *RoomUseCase) Presence(ctx context.Context, userID string) (*domain.UserPresence, error) {
	return uc.presence.GetPresence(ctx, userID)
}

func (uc *RoomUseCase) requireMembership(ctx context.Context, roomID, userID string) error {
	memberIDs, err := uc.roomRepo.MemberIDs(ctx, roomID)
	if err != nil {
		return err
	}
	if !pkg.Contains(memberIDs, userID) {
		return errprocess.Set("not a member of this chat")
	}
	return nil
}

func (uc *RoomUseCase) roomDetail(ctx context.Context, roomID, viewerID string) (*domain.ChatRoomDetail, error) {
	room, err := uc.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, errprocess.Set("chat room not found")
	}
	return uc.buildDetail(ctx, room, viewerID)
}

// buildDetail assembles the client view of a room. Direct chats carry no
// stored name, so the display name is the other member's username.
func (uc *RoomUseCase) buildDetail(ctx context.Context, room *domain.ChatRoom, viewerID string) (*domain.ChatRoomDetail, error) {
	members, err := uc.roomRepo.Members(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	name := room.Name
	if !room.IsGroup {
		for _, m := range members {
			if m.UserID != viewerID {
				display := m.Username
				name = &display
				break
			}
		}
	}

	last, err := uc.msgRepo.LastMessage(ctx, room.ID, viewerID)
	if err != nil {
		return nil, err
	}

	return &domain.ChatRoomDetail{
		ID:          room.ID,
		Name:        name,
		IsGroup:     room.IsGroup,
		CreatedAt:   room.CreatedAt,
		Members:     members,
		LastMessage: last,
	}, nil
}

// dedupeMembers ensures the creator is included exactly once and drops
// duplicate ids while keeping request order.
func dedupeMembers(creatorID string, memberIDs []string) []string {
	seen := map[string]bool{creatorID: true}
	members := []string{creatorID}
	for _, id := range memberIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, id)
	}
	return members
}
