package app

import (
	"context"
	"io"
	"time"

	"github.com/dsneed123/another-social-media-app/internal/relay/domain"

	"github.com/stretchr/testify/mock"
)

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Insert mock insert message
func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.NewMessage) (string, time.Time, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// Meta mock fetch message meta
func (m *MockMessageRepository) Meta(ctx context.Context, messageID string) (*domain.MessageMeta, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.MessageMeta), args.Error(1)
	}
	return nil, args.Error(1)
}

// InsertRead mock insert read receipt
func (m *MockMessageRepository) InsertRead(ctx context.Context, messageID, userID string) (*time.Time, error) {
	args := m.Called(ctx, messageID, userID)
	if args.Get(0) != nil {
		return args.Get(0).(*time.Time), args.Error(1)
	}
	return nil, args.Error(1)
}

// InsertView mock insert view receipt
func (m *MockMessageRepository) InsertView(ctx context.Context, messageID, userID string) (*time.Time, error) {
	args := m.Called(ctx, messageID, userID)
	if args.Get(0) != nil {
		return args.Get(0).(*time.Time), args.Error(1)
	}
	return nil, args.Error(1)
}

// InsertSave mock insert save exemption
func (m *MockMessageRepository) InsertSave(ctx context.Context, messageID, userID string) error {
	args := m.Called(ctx, messageID, userID)
	return args.Error(0)
}

// DeleteSave mock delete save exemption
func (m *MockMessageRepository) DeleteSave(ctx context.Context, messageID, userID string) error {
	args := m.Called(ctx, messageID, userID)
	return args.Error(0)
}

// IsSaved mock save exemption lookup
func (m *MockMessageRepository) IsSaved(ctx context.Context, messageID, userID string) (bool, error) {
	args := m.Called(ctx, messageID, userID)
	return args.Bool(0), args.Error(1)
}

// SoftDelete mock soft delete message
func (m *MockMessageRepository) SoftDelete(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

// FindExpired mock list expired messages
func (m *MockMessageRepository) FindExpired(ctx context.Context) ([]domain.ExpiredMessage, error) {
	args := m.Called(ctx)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ExpiredMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindViewedViewOnce mock list viewed view-once messages
func (m *MockMessageRepository) FindViewedViewOnce(ctx context.Context) ([]domain.ExpiredMessage, error) {
	args := m.Called(ctx)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ExpiredMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindMessages mock room history read
func (m *MockMessageRepository) FindMessages(ctx context.Context, roomID, viewerID string, before *time.Time, limit int64) ([]domain.MessageHistory, error) {
	args := m.Called(ctx, roomID, viewerID, before, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.MessageHistory), args.Error(1)
	}
	return nil, args.Error(1)
}

// CreatedAt mock cursor lookup
func (m *MockMessageRepository) CreatedAt(ctx context.Context, messageID string) (time.Time, error) {
	args := m.Called(ctx, messageID)
	return args.Get(0).(time.Time), args.Error(1)
}

// LastMessage mock newest live message lookup
func (m *MockMessageRepository) LastMessage(ctx context.Context, roomID, viewerID string) (*domain.MessageHistory, error) {
	args := m.Called(ctx, roomID, viewerID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.MessageHistory), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRoomRepository Mock RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

// Create mock create room
func (m *MockRoomRepository) Create(ctx context.Context, isGroup bool, name *string, createdBy string) (*domain.ChatRoom, error) {
	args := m.Called(ctx, isGroup, name, createdBy)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatRoom), args.Error(1)
	}
	return nil, args.Error(1)
}

// AddMember mock add member
func (m *MockRoomRepository) AddMember(ctx context.Context, roomID, userID string) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}

// FindDirectRoom mock direct room lookup
func (m *MockRoomRepository) FindDirectRoom(ctx context.Context, userA, userB string) (string, error) {
	args := m.Called(ctx, userA, userB)
	return args.String(0), args.Error(1)
}

// FindByID mock find room by id
func (m *MockRoomRepository) FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatRoom), args.Error(1)
	}
	return nil, args.Error(1)
}

// Members mock member rows lookup
func (m *MockRoomRepository) Members(ctx context.Context, roomID string) ([]domain.ChatMember, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChatMember), args.Error(1)
	}
	return nil, args.Error(1)
}

// MemberIDs mock member id lookup
func (m *MockRoomRepository) MemberIDs(ctx context.Context, roomID string) ([]string, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) != nil {
		return args.Get(0).([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindRoomsByUser mock rooms of a user
func (m *MockRoomRepository) FindRoomsByUser(ctx context.Context, userID string) ([]domain.ChatRoom, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChatRoom), args.Error(1)
	}
	return nil, args.Error(1)
}

// TouchActivity mock bump room activity
func (m *MockRoomRepository) TouchActivity(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

// MockUserRepository Mock UserRepository
type MockUserRepository struct {
	mock.Mock
}

// GetUsername mock username lookup
func (m *MockUserRepository) GetUsername(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

// MockPresenceRepository Mock PresenceRepository
type MockPresenceRepository struct {
	mock.Mock
}

// SetOnline mock set online
func (m *MockPresenceRepository) SetOnline(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// SetOffline mock set offline
func (m *MockPresenceRepository) SetOffline(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// GetPresence mock presence lookup
func (m *MockPresenceRepository) GetPresence(ctx context.Context, userID string) (*domain.UserPresence, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.UserPresence), args.Error(1)
	}
	return nil, args.Error(1)
}

// SetTyping mock set typing marker
func (m *MockPresenceRepository) SetTyping(ctx context.Context, userID, roomID string) error {
	args := m.Called(ctx, userID, roomID)
	return args.Error(0)
}

// ClearTyping mock clear typing marker
func (m *MockPresenceRepository) ClearTyping(ctx context.Context, userID, roomID string) error {
	args := m.Called(ctx, userID, roomID)
	return args.Error(0)
}

// GetTypingUsers mock typing snapshot
func (m *MockPresenceRepository) GetTypingUsers(ctx context.Context, roomID string) ([]string, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) != nil {
		return args.Get(0).([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

// IncrementUnread mock unread increment
func (m *MockPresenceRepository) IncrementUnread(ctx context.Context, userID, roomID string) (int64, error) {
	args := m.Called(ctx, userID, roomID)
	return args.Get(0).(int64), args.Error(1)
}

// ClearUnread mock unread reset
func (m *MockPresenceRepository) ClearUnread(ctx context.Context, userID, roomID string) error {
	args := m.Called(ctx, userID, roomID)
	return args.Error(0)
}

// GetUnread mock unread counter lookup
func (m *MockPresenceRepository) GetUnread(ctx context.Context, userID, roomID string) (int64, error) {
	args := m.Called(ctx, userID, roomID)
	return args.Get(0).(int64), args.Error(1)
}

// TrackConnection mock track connection id
func (m *MockPresenceRepository) TrackConnection(ctx context.Context, userID, connectionID string) error {
	args := m.Called(ctx, userID, connectionID)
	return args.Error(0)
}

// UntrackConnection mock untrack connection id
func (m *MockPresenceRepository) UntrackConnection(ctx context.Context, userID, connectionID string) error {
	args := m.Called(ctx, userID, connectionID)
	return args.Error(0)
}

// GetConnections mock connection ids lookup
func (m *MockPresenceRepository) GetConnections(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMediaAssetRepo Mock MediaAssetRepo
type MockMediaAssetRepo struct {
	mock.Mock
}

// AutoMigrate mock migrate
func (m *MockMediaAssetRepo) AutoMigrate() error {
	args := m.Called()
	return args.Error(0)
}

// Create mock create asset row
func (m *MockMediaAssetRepo) Create(asset *domain.MediaAsset) error {
	args := m.Called(asset)
	return args.Error(0)
}

// GetByKey mock asset lookup
func (m *MockMediaAssetRepo) GetByKey(objectKey string) (*domain.MediaAsset, error) {
	args := m.Called(objectKey)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.MediaAsset), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindExpired mock expired asset rows
func (m *MockMediaAssetRepo) FindExpired(now time.Time) ([]domain.MediaAsset, error) {
	args := m.Called(now)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.MediaAsset), args.Error(1)
	}
	return nil, args.Error(1)
}

// Delete mock delete asset row
func (m *MockMediaAssetRepo) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockObjectStore Mock object storage
type MockObjectStore struct {
	mock.Mock
}

// RemoveObject mock object delete
func (m *MockObjectStore) RemoveObject(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)
	return args.Error(0)
}

// UploadObject mock object upload
func (m *MockObjectStore) UploadObject(ctx context.Context, objectName, contentType string, reader io.Reader) error {
	args := m.Called(ctx, objectName, contentType, reader)
	return args.Error(0)
}

// PresignGetURL mock presigned url
func (m *MockObjectStore) PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.String(0), args.Error(1)
}
