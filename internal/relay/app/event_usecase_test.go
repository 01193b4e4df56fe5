package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dsneed123/another-social-media-app/internal/relay/domain"
	"github.com/dsneed123/another-social-media-app/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type eventFixture struct {
	registry *ConnectionRegistry
	msgRepo  *MockMessageRepository
	roomRepo *MockRoomRepository
	userRepo *MockUserRepository
	presence *MockPresenceRepository
	uc       *EventUseCase
}

func newEventFixture() *eventFixture {
	logger.SetNewNop()
	f := &eventFixture{
		registry: NewConnectionRegistry(),
		msgRepo:  new(MockMessageRepository),
		roomRepo: new(MockRoomRepository),
		userRepo: new(MockUserRepository),
		presence: new(MockPresenceRepository),
	}
	// Every inbound frame refreshes the online TTL.
	f.presence.On("SetOnline", mock.Anything, mock.Anything).Return(nil)
	f.uc = NewEventUseCase(f.registry, f.msgRepo, f.roomRepo, f.userRepo, f.presence)
	return f
}

// connect registers a live subscriber for the user and returns its channel.
func (f *eventFixture) connect(userID string) <-chan []byte {
	ch, _ := f.registry.Subscribe(userID)
	return ch
}

func decodeFrame(t *testing.T, payload []byte) map[string]interface{} {
	t.Helper()
	var frame map[string]interface{}
	assert.NoError(t, json.Unmarshal(payload, &frame))
	return frame
}

func clientFrame(t *testing.T, fields map[string]interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(fields)
	assert.NoError(t, err)
	return b
}

func TestEventUseCase_SendMessageFanOut(t *testing.T) {
	ctx := context.Background()
	f := newEventFixture()

	roomID := uuid.New().String()
	senderID := uuid.New().String()
	onlineID := uuid.New().String()
	offlineID := uuid.New().String()
	msgID := uuid.New().String()
	createdAt := time.Now().UTC()

	senderCh := f.connect(senderID)
	onlineCh := f.connect(onlineID)

	f.msgRepo.On("Insert", ctx, mock.Anything).Return(msgID, createdAt, nil)
	f.userRepo.On("GetUsername", ctx, senderID).Return("alice", nil)
	f.roomRepo.On("TouchActivity", ctx, roomID).Return(nil)
	f.roomRepo.On("MemberIDs", ctx, roomID).Return([]string{senderID, onlineID, offlineID}, nil)
	f.presence.On("IncrementUnread", ctx, offlineID, roomID).Return(int64(1), nil)

	f.uc.Handle(ctx, senderID, clientFrame(t, map[string]interface{}{
		"type":         "send_message",
		"chat_room_id": roomID,
		"content":      "hello",
		"message_type": "text",
	}))

	for _, ch := range []<-chan []byte{senderCh, onlineCh} {
		frame := decodeFrame(t, <-ch)
		assert.Equal(t, "new_message", frame["type"])
		assert.Equal(t, msgID, frame["id"])
		assert.Equal(t, "alice", frame["sender_username"])
		assert.Equal(t, "hello", frame["content"])
	}

	f.msgRepo.AssertExpectations(t)
	f.presence.AssertExpectations(t)
}

func TestEventUseCase_SendMessageStorageFailure(t *testing.T) {
	ctx := context.Background()
	f := newEventFixture()

	roomID := uuid.New().String()
	senderID := uuid.New().String()
	senderCh := f.connect(senderID)

	f.msgRepo.On("Insert", ctx, mock.Anything).Return("", time.Time{}, errors.New("db down"))

	f.uc.Handle(ctx, senderID, clientFrame(t, map[string]interface{}{
		"type":         "send_message",
		"chat_room_id": roomID,
		"content":      "hello",
		"message_type": "text",
	}))

	// No fan-out and no partial frames for this event.
	assert.Len(t, senderCh, 0)
	f.roomRepo.AssertNotCalled(t, "MemberIDs", ctx, roomID)
}

func TestEventUseCase_TypingStartAndStop(t *testing.T) {
	ctx := context.Background()
	f := newEventFixture()

	roomID := uuid.New().String()
	typistID := uuid.New().String()
	peerID := uuid.New().String()
	peerCh := f.connect(peerID)

	f.presence.On("SetTyping", ctx, typistID, roomID).Return(nil)
	f.presence.On("ClearTyping", ctx, typistID, roomID).Return(nil)
	f.userRepo.On("GetUsername", ctx, typistID).Return("bob", nil)
	f.roomRepo.On("MemberIDs", ctx, roomID).Return([]string{typistID, peerID}, nil)

	f.uc.Handle(ctx, typistID, clientFrame(t, map[string]interface{}{
		"type":         "typing_start",
		"chat_room_id": roomID,
	}))
	f.uc.Handle(ctx, typistID, clientFrame(t, map[string]interface{}{
		"type":         "typing_stop",
		"chat_room_id": roomID,
	}))

	start := decodeFrame(t, <-peerCh)
	assert.Equal(t, "user_typing", start["type"])
	assert.Equal(t, "bob", start["username"])

	stop := decodeFrame(t, <-peerCh)
	assert.Equal(t, "user_stopped_typing", stop["type"])
	assert.Equal(t, typistID, stop["user_id"])

	f.presence.AssertExpectations(t)
}

func TestEventUseCase_MarkRead(t *testing.T) {
	ctx := context.Background()
	f := newEventFixture()

	roomID := uuid.New().String()
	senderID := uuid.New().String()
	readerID := uuid.New().String()
	msgID := uuid.New().String()
	readAt := time.Now().UTC()

	senderCh := f.connect(senderID)
	readerCh := f.connect(readerID)

	f.msgRepo.On("InsertRead", ctx, msgID, readerID).Return(&readAt, nil)
	f.msgRepo.On("Meta", ctx, msgID).Return(&domain.MessageMeta{
		ID: msgID, ChatRoomID: roomID, SenderID: senderID,
	}, nil)
	f.presence.On("ClearUnread", ctx, readerID, roomID).Return(nil)

	f.uc.Handle(ctx, readerID, clientFrame(t, map[string]interface{}{
		"type":       "mark_read",
		"message_id": msgID,
	}))

	// The receipt notification goes to the sender only.
	frame := decodeFrame(t, <-senderCh)
	assert.Equal(t, "message_read", frame["type"])
	assert.Equal(t, readerID, frame["user_id"])
	assert.Len(t, readerCh, 0)

	f.presence.AssertExpectations(t)
}

func TestEventUseCase_DuplicateReadReceipt(t *testing.T) {
	ctx := context.Background()
	f := newEventFixture()

	readerID := uuid.New().String()
	msgID := uuid.New().String()

	f.msgRepo.On("InsertRead", ctx, msgID, readerID).Return(nil, nil)

	f.uc.Handle(ctx, readerID, clientFrame(t, map[string]interface{}{
		"type":       "mark_read",
		"message_id": msgID,
	}))

	f.msgRepo.AssertNotCalled(t, "Meta", ctx, msgID)
	f.presence.AssertNotCalled(t, "ClearUnread", ctx, readerID, mock.Anything)
}

func TestEventUseCase_MarkViewedDeletesViewOnce(t *testing.T) {
	ctx := context.Background()
	f := newEventFixture()

	roomID := uuid.New().String()
	senderID := uuid.New().String()
	viewerID := uuid.New().String()
	msgID := uuid.New().String()
	viewedAt := time.Now().UTC()

	senderCh := f.connect(senderID)
	viewerCh := f.connect(viewerID)

	f.msgRepo.On("InsertView", ctx, msgID, viewerID).Return(&viewedAt, nil)
	f.msgRepo.On("Meta", ctx, msgID).Return(&domain.MessageMeta{
		ID: msgID, ChatRoomID: roomID, SenderID: senderID, ViewOnce: true,
	}, nil)
	f.msgRepo.On("IsSaved", ctx, msgID, viewerID).Return(false, nil)
	f.msgRepo.On("SoftDelete", ctx, msgID).Return(nil)
	f.roomRepo.On("MemberIDs", ctx, roomID).Return([]string{senderID, viewerID}, nil)

	f.uc.Handle(ctx, viewerID, clientFrame(t, map[string]interface{}{
		"type":       "mark_viewed",
		"message_id": msgID,
	}))

	viewed := decodeFrame(t, <-senderCh)
	assert.Equal(t, "message_viewed", viewed["type"])

	expiredSender := decodeFrame(t, <-senderCh)
	expiredViewer := decodeFrame(t, <-viewerCh)
	assert.Equal(t, "message_expired", expiredSender["type"])
	assert.Equal(t, "message_expired", expiredViewer["type"])
	assert.Equal(t, msgID, expiredViewer["message_id"])

	f.msgRepo.AssertExpectations(t)
}

func TestEventUseCase_MarkViewedSavedMessageSurvives(t *testing.T) {
	ctx := context.Background()
	f := newEventFixture()

	roomID := uuid.New().String()
	senderID := uuid.New().String()
	viewerID := uuid.New().String()
	msgID := uuid.New().String()
	viewedAt := time.Now().UTC()

	f.connect(senderID)

	f.msgRepo.On("InsertView", ctx, msgID, viewerID).Return(&viewedAt, nil)
	f.msgRepo.On("Meta", ctx, msgID).Return(&domain.MessageMeta{
		ID: msgID, ChatRoomID: roomID, SenderID: senderID, ViewOnce: true,
	}, nil)
	f.msgRepo.On("IsSaved", ctx, msgID, viewerID).Return(true, nil)

	f.uc.Handle(ctx, viewerID, clientFrame(t, map[string]interface{}{
		"type":       "mark_viewed",
		"message_id": msgID,
	}))

	f.msgRepo.AssertNotCalled(t, "SoftDelete", ctx, msgID)
}

func TestEventUseCase_MarkViewedNonViewOnce(t *testing.T) {
	ctx := context.Background()
	f := newEventFixture()

	roomID := uuid.New().String()
	senderID := uuid.New().String()
	viewerID := uuid.New().String()
	msgID := uuid.New().String()
	viewedAt := time.Now().UTC()

	f.msgRepo.On("InsertView", ctx, msgID, viewerID).Return(&viewedAt, nil)
	f.msgRepo.On("Meta", ctx, msgID).Return(&domain.MessageMeta{
		ID: msgID, ChatRoomID: roomID, SenderID: senderID, ViewOnce: false,
	}, nil)

	f.uc.Handle(ctx, viewerID, clientFrame(t, map[string]interface{}{
		"type":       "mark_viewed",
		"message_id": msgID,
	}))

	f.msgRepo.AssertNotCalled(t, "IsSaved", ctx, msgID, viewerID)
	f.msgRepo.AssertNotCalled(t, "SoftDelete", ctx, msgID)
}

func TestEventUseCase_SendMessageRejectsUnknownType(t *testing.T) {
	ctx := context.Background()
	f := newEventFixture()

	senderID := uuid.New().String()
	senderCh := f.connect(senderID)

	f.uc.Handle(ctx, senderID, clientFrame(t, map[string]interface{}{
		"type":         "send_message",
		"chat_room_id": uuid.New().String(),
		"message_type": "hologram",
	}))

	frame := decodeFrame(t, <-senderCh)
	assert.Equal(t, "error", frame["type"])
	f.msgRepo.AssertNotCalled(t, "Insert", ctx, mock.Anything)
}

func TestEventUseCase_MalformedFrame(t *testing.T) {
	ctx := context.Background()
	f := newEventFixture()

	senderID := uuid.New().String()
	senderCh := f.connect(senderID)

	f.uc.Handle(ctx, senderID, []byte("{not json"))

	frame := decodeFrame(t, <-senderCh)
	assert.Equal(t, "error", frame["type"])
}

func TestEventUseCase_ActivityRefreshesOnlinePresence(t *testing.T) {
	ctx := context.Background()
	f := newEventFixture()

	roomID := uuid.New().String()
	typistID := uuid.New().String()

	f.presence.On("SetTyping", ctx, typistID, roomID).Return(nil)
	f.userRepo.On("GetUsername", ctx, typistID).Return("bob", nil)
	f.roomRepo.On("MemberIDs", ctx, roomID).Return([]string{typistID}, nil)

	f.uc.Handle(ctx, typistID, clientFrame(t, map[string]interface{}{
		"type":         "typing_start",
		"chat_room_id": roomID,
	}))

	// The online TTL is bumped on every inbound frame, even non-message ones.
	f.presence.AssertCalled(t, "SetOnline", ctx, typistID)
}

func TestEventUseCase_UnknownEventType(t *testing.T) {
	ctx := context.Background()
	f := newEventFixture()

	senderID := uuid.New().String()
	senderCh := f.connect(senderID)

	f.uc.Handle(ctx, senderID, clientFrame(t, map[string]interface{}{
		"type": "teleport",
	}))

	frame := decodeFrame(t, <-senderCh)
	assert.Equal(t, "error", frame["type"])
}
