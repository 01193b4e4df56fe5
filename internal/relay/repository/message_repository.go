package repository

import (
	"context"
	"time"

	"github.com/dsneed123/another-social-media-app/internal/relay/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// MessageRepository definition durable message access
type MessageRepository interface {
	// Insert stores a message and returns the generated id and timestamp.
	Insert(ctx context.Context, msg *domain.NewMessage) (string, time.Time, error)
	// Meta returns sender/room/deletion-trigger fields for one message.
	Meta(ctx context.Context, messageID string) (*domain.MessageMeta, error)
	// InsertRead records a read receipt. Returns nil time on duplicate (no-op).
	InsertRead(ctx context.Context, messageID, userID string) (*time.Time, error)
	// InsertView records a view receipt. Returns nil time on duplicate (no-op).
	InsertView(ctx context.Context, messageID, userID string) (*time.Time, error)
	// InsertSave records a save exemption, idempotent.
	InsertSave(ctx context.Context, messageID, userID string) error
	// DeleteSave drops the save exemption, safe when absent.
	DeleteSave(ctx context.Context, messageID, userID string) error
	// IsSaved reports whether (message, user) carries a save exemption.
	IsSaved(ctx context.Context, messageID, userID string) (bool, error)
	// SoftDelete excludes the message from all further reads, idempotent.
	SoftDelete(ctx context.Context, messageID string) error
	// FindExpired lists live messages whose absolute expiry has passed.
	FindExpired(ctx context.Context) ([]domain.ExpiredMessage, error)
	// FindViewedViewOnce lists live view-once messages that carry a view
	// receipt and no save exemption from any member.
	FindViewedViewOnce(ctx context.Context) ([]domain.ExpiredMessage, error)
	// FindMessages reads live history for a room, newest first, annotated
	// with the viewer's receipt state.
	FindMessages(ctx context.Context, roomID, viewerID string, before *time.Time, limit int64) ([]domain.MessageHistory, error)
	// CreatedAt resolves the pagination cursor for a message id.
	CreatedAt(ctx context.Context, messageID string) (time.Time, error)
	// LastMessage returns the newest live message of a room, or nil.
	LastMessage(ctx context.Context, roomID, viewerID string) (*domain.MessageHistory, error)
}

type messageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository create a MessageRepository
func NewMessageRepository(db *pgxpool.Pool) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Insert(ctx context.Context, msg *domain.NewMessage) (string, time.Time, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO messages (chat_room_id, sender_id, message_type, content, media_url, view_once, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		msg.ChatRoomID, msg.SenderID, msg.MessageType, msg.Content, msg.MediaURL, msg.ViewOnce, msg.ExpiresAt,
	)

	var id string
	var createdAt time.Time
	if err := row.Scan(&id, &createdAt); err != nil {
		return "", time.Time{}, err
	}
	return id, createdAt, nil
}

func (r *messageRepository) Meta(ctx context.Context, messageID string) (*domain.MessageMeta, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, chat_room_id, sender_id, view_once, media_url
		FROM messages WHERE id = $1`,
		messageID,
	)

	var m domain.MessageMeta
	if err := row.Scan(&m.ID, &m.ChatRoomID, &m.SenderID, &m.ViewOnce, &m.MediaURL); err != nil {
		return nil, err
	}
	return &m, nil
}

// insertReceipt shares the upsert-or-no-op shape of read and view receipts:
// one row per (message, user), duplicates return no timestamp.
func (r *messageRepository) insertReceipt(ctx context.Context, table, tsColumn, messageID, userID string) (*time.Time, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO `+table+` (message_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (message_id, user_id) DO NOTHING
		RETURNING `+tsColumn,
		messageID, userID,
	)

	var ts time.Time
	if err := row.Scan(&ts); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &ts, nil
}

func (r *messageRepository) InsertRead(ctx context.Context, messageID, userID string) (*time.Time, error) {
	return r.insertReceipt(ctx, "message_reads", "read_at", messageID, userID)
}

func (r *messageRepository) InsertView(ctx context.Context, messageID, userID string) (*time.Time, error) {
	return r.insertReceipt(ctx, "message_views", "viewed_at", messageID, userID)
}

func (r *messageRepository) InsertSave(ctx context.Context, messageID, userID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO saved_messages (message_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (message_id, user_id) DO NOTHING`,
		messageID, userID,
	)
	return err
}

func (r *messageRepository) DeleteSave(ctx context.Context, messageID, userID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM saved_messages WHERE message_id = $1 AND user_id = $2`,
		messageID, userID,
	)
	return err
}

func (r *messageRepository) IsSaved(ctx context.Context, messageID, userID string) (bool, error) {
	row := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM saved_messages WHERE message_id = $1 AND user_id = $2)`,
		messageID, userID,
	)
	var saved bool
	if err := row.Scan(&saved); err != nil {
		return false, err
	}
	return saved, nil
}

func (r *messageRepository) SoftDelete(ctx context.Context, messageID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE messages SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		messageID,
	)
	return err
}

func (r *messageRepository) FindExpired(ctx context.Context) ([]domain.ExpiredMessage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, media_url
		FROM messages
		WHERE expires_at IS NOT NULL
		  AND expires_at < NOW()
		  AND deleted_at IS NULL`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanExpired(rows)
}

func (r *messageRepository) FindViewedViewOnce(ctx context.Context) ([]domain.ExpiredMessage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT m.id, m.media_url
		FROM messages m
		JOIN message_views mv ON m.id = mv.message_id
		WHERE m.view_once = TRUE
		  AND m.deleted_at IS NULL
		  AND NOT EXISTS (SELECT 1 FROM saved_messages sm WHERE sm.message_id = m.id)`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanExpired(rows)
}

func scanExpired(rows pgx.Rows) ([]domain.ExpiredMessage, error) {
	var out []domain.ExpiredMessage
	for rows.Next() {
		var m domain.ExpiredMessage
		if err := rows.Scan(&m.ID, &m.MediaURL); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const historyColumns = `
	m.id, m.chat_room_id, m.sender_id, u.username,
	m.message_type, m.content, m.media_url, m.media_thumbnail_url,
	m.view_once, m.expires_at, m.created_at,
	EXISTS(SELECT 1 FROM message_views  WHERE message_id = m.id AND user_id = $2) AS is_viewed,
	EXISTS(SELECT 1 FROM message_reads  WHERE message_id = m.id AND user_id = $2) AS is_read,
	EXISTS(SELECT 1 FROM saved_messages WHERE message_id = m.id AND user_id = $2) AS is_saved`

func scanHistory(rows pgx.Rows) ([]domain.MessageHistory, error) {
	var out []domain.MessageHistory
	for rows.Next() {
		var m domain.MessageHistory
		if err := rows.Scan(
			&m.ID, &m.ChatRoomID, &m.SenderID, &m.SenderUsername,
			&m.MessageType, &m.Content, &m.MediaURL, &m.MediaThumbnailURL,
			&m.ViewOnce, &m.ExpiresAt, &m.CreatedAt,
			&m.IsViewed, &m.IsRead, &m.IsSaved,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *messageRepository) FindMessages(ctx context.Context, roomID, viewerID string, before *time.Time, limit int64) ([]domain.MessageHistory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+historyColumns+`
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.chat_room_id = $1 AND m.deleted_at IS NULL
		  AND ($3::timestamptz IS NULL OR m.created_at < $3)
		ORDER BY m.created_at DESC
		LIMIT $4`,
		roomID, viewerID, before, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHistory(rows)
}

func (r *messageRepository) CreatedAt(ctx context.Context, messageID string) (time.Time, error) {
	var createdAt time.Time
	err := r.db.QueryRow(ctx,
		`SELECT created_at FROM messages WHERE id = $1`, messageID,
	).Scan(&createdAt)
	return createdAt, err
}

func (r *messageRepository) LastMessage(ctx context.Context, roomID, viewerID string) (*domain.MessageHistory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+historyColumns+`
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.chat_room_id = $1 AND m.deleted_at IS NULL
		ORDER BY m.created_at DESC
		LIMIT 1`,
		roomID, viewerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs, err := scanHistory(rows)
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return &msgs[0], nil
}
