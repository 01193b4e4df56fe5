package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dsneed123/another-social-media-app/internal/relay/domain"
	"github.com/dsneed123/another-social-media-app/pkg/database"

	"github.com/go-redis/redis/v8"
)

// PresenceRepository definition transient online/typing/unread state.
// Every write carries a TTL; an absent key reads as offline with no typing
// state and a zero unread counter.
type PresenceRepository interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
	GetPresence(ctx context.Context, userID string) (*domain.UserPresence, error)

	SetTyping(ctx context.Context, userID, roomID string) error
	ClearTyping(ctx context.Context, userID, roomID string) error
	GetTypingUsers(ctx context.Context, roomID string) ([]string, error)

	IncrementUnread(ctx context.Context, userID, roomID string) (int64, error)
	ClearUnread(ctx context.Context, userID, roomID string) error
	GetUnread(ctx context.Context, userID, roomID string) (int64, error)

	TrackConnection(ctx context.Context, userID, connectionID string) error
	UntrackConnection(ctx context.Context, userID, connectionID string) error
	GetConnections(ctx context.Context, userID string) ([]string, error)
}

type presenceRepository struct {
	client   *redis.Client
	presence database.RedisRepository[domain.UserPresence]
}

// NewPresenceRepository create a PresenceRepository over a pooled client
func NewPresenceRepository(client *redis.Client) PresenceRepository {
	return &presenceRepository{
		client:   client,
		presence: database.NewRedisRepository[domain.UserPresence](client),
	}
}

func presenceKey(userID string) string {
	return fmt.Sprintf("presence:user:%s", userID)
}

func typingKey(roomID, userID string) string {
	return fmt.Sprintf("typing:%s:%s", roomID, userID)
}

func unreadKey(userID, roomID string) string {
	return fmt.Sprintf("unread:%s:%s", userID, roomID)
}

func connectionsKey(userID string) string {
	return fmt.Sprintf("ws_connections:%s", userID)
}

func (r *presenceRepository) SetOnline(ctx context.Context, userID string) error {
	record := domain.UserPresence{
		UserID:   userID,
		Online:   true,
		LastSeen: time.Now().UTC(),
	}
	return r.presence.Set(ctx, presenceKey(userID), record, domain.PresenceOnlineTTL)
}

func (r *presenceRepository) SetOffline(ctx context.Context, userID string) error {
	record := domain.UserPresence{
		UserID:   userID,
		Online:   false,
		LastSeen: time.Now().UTC(),
	}
	return r.presence.Set(ctx, presenceKey(userID), record, domain.PresenceOfflineTTL)
}

func (r *presenceRepository) GetPresence(ctx context.Context, userID string) (*domain.UserPresence, error) {
	record, err := r.presence.Get(ctx, presenceKey(userID))
	if err != nil {
		if err.Error() == database.ErrRedisNil {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *presenceRepository) SetTyping(ctx context.Context, userID, roomID string) error {
	return r.client.Set(ctx, typingKey(roomID, userID), "1", domain.TypingTTL).Err()
}

func (r *presenceRepository) ClearTyping(ctx context.Context, userID, roomID string) error {
	return r.client.Del(ctx, typingKey(roomID, userID)).Err()
}

func (r *presenceRepository) GetTypingUsers(ctx context.Context, roomID string) ([]string, error) {
	pattern := fmt.Sprintf("typing:%s:*", roomID)
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, err
	}

	var userIDs []string
	for _, key := range keys {
		parts := strings.Split(key, ":")
		if len(parts) == 3 {
			userIDs = append(userIDs, parts[2])
		}
	}
	return userIDs, nil
}

func (r *presenceRepository) IncrementUnread(ctx context.Context, userID, roomID string) (int64, error) {
	return r.client.Incr(ctx, unreadKey(userID, roomID)).Result()
}

func (r *presenceRepository) ClearUnread(ctx context.Context, userID, roomID string) error {
	return r.client.Del(ctx, unreadKey(userID, roomID)).Err()
}

func (r *presenceRepository) GetUnread(ctx context.Context, userID, roomID string) (int64, error) {
	count, err := r.client.Get(ctx, unreadKey(userID, roomID)).Int64()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *presenceRepository) TrackConnection(ctx context.Context, userID, connectionID string) error {
	return r.client.SAdd(ctx, connectionsKey(userID), connectionID).Err()
}

func (r *presenceRepository) UntrackConnection(ctx context.Context, userID, connectionID string) error {
	return r.client.SRem(ctx, connectionsKey(userID), connectionID).Err()
}

func (r *presenceRepository) GetConnections(ctx context.Context, userID string) ([]string, error) {
	return r.client.SMembers(ctx, connectionsKey(userID)).Result()
}
