package repository

import (
	"context"

	"github.com/dsneed123/another-social-media-app/internal/relay/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// RoomRepository definition chat room and membership access
type RoomRepository interface {
	// Create inserts a room. Name is stored for group chats only.
	Create(ctx context.Context, isGroup bool, name *string, createdBy string) (*domain.ChatRoom, error)
	// AddMember joins a user to a room, idempotent.
	AddMember(ctx context.Context, roomID, userID string) error
	// FindDirectRoom returns the existing direct room between the unordered
	// pair, or empty string when none exists.
	FindDirectRoom(ctx context.Context, userA, userB string) (string, error)
	// FindByID returns one room or nil.
	FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error)
	// Members lists a room's memberships with usernames.
	Members(ctx context.Context, roomID string) ([]domain.ChatMember, error)
	// MemberIDs lists a room's member ids, the fan-out set.
	MemberIDs(ctx context.Context, roomID string) ([]string, error)
	// FindRoomsByUser lists the rooms a user belongs to, most recently
	// active first.
	FindRoomsByUser(ctx context.Context, userID string) ([]domain.ChatRoom, error)
	// TouchActivity bumps updated_at so room listings sort by activity.
	TouchActivity(ctx context.Context, roomID string) error
}

type roomRepository struct {
	db *pgxpool.Pool
}

// NewRoomRepository create a RoomRepository
func NewRoomRepository(db *pgxpool.Pool) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(ctx context.Context, isGroup bool, name *string, createdBy string) (*domain.ChatRoom, error) {
	if !isGroup {
		name = nil
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO chat_rooms (is_group, name, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, name, is_group, created_by, created_at, updated_at`,
		isGroup, name, createdBy,
	)

	var room domain.ChatRoom
	if err := row.Scan(&room.ID, &room.Name, &room.IsGroup, &room.CreatedBy, &room.CreatedAt, &room.UpdatedAt); err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) AddMember(ctx context.Context, roomID, userID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO chat_members (chat_room_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (chat_room_id, user_id) DO NOTHING`,
		roomID, userID,
	)
	return err
}

func (r *roomRepository) FindDirectRoom(ctx context.Context, userA, userB string) (string, error) {
	// A direct room between the pair is a non-group room whose member set is
	// exactly the two users, regardless of order.
	row := r.db.QueryRow(ctx, `
		SELECT cr.id
		FROM chat_rooms cr
		JOIN chat_members a ON a.chat_room_id = cr.id AND a.user_id = $1
		JOIN chat_members b ON b.chat_room_id = cr.id AND b.user_id = $2
		WHERE cr.is_group = FALSE
		LIMIT 1`,
		userA, userB,
	)

	var id string
	if err := row.Scan(&id); err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return id, nil
}

func (r *roomRepository) FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, is_group, created_by, created_at, updated_at
		FROM chat_rooms WHERE id = $1`,
		roomID,
	)

	var room domain.ChatRoom
	if err := row.Scan(&room.ID, &room.Name, &room.IsGroup, &room.CreatedBy, &room.CreatedAt, &room.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) Members(ctx context.Context, roomID string) ([]domain.ChatMember, error) {
	rows, err := r.db.Query(ctx, `
		SELECT cm.user_id, u.username, cm.joined_at
		FROM chat_members cm
		JOIN users u ON cm.user_id = u.id
		WHERE cm.chat_room_id = $1`,
		roomID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.ChatMember
	for rows.Next() {
		var m domain.ChatMember
		if err := rows.Scan(&m.UserID, &m.Username, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *roomRepository) MemberIDs(ctx context.Context, roomID string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id FROM chat_members WHERE chat_room_id = $1`,
		roomID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *roomRepository) FindRoomsByUser(ctx context.Context, userID string) ([]domain.ChatRoom, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT cr.id, cr.name, cr.is_group, cr.created_by, cr.created_at, cr.updated_at
		FROM chat_rooms cr
		JOIN chat_members cm ON cr.id = cm.chat_room_id
		WHERE cm.user_id = $1
		ORDER BY cr.updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []domain.ChatRoom
	for rows.Next() {
		var room domain.ChatRoom
		if err := rows.Scan(&room.ID, &room.Name, &room.IsGroup, &room.CreatedBy, &room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *roomRepository) TouchActivity(ctx context.Context, roomID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE chat_rooms SET updated_at = NOW() WHERE id = $1`,
		roomID,
	)
	return err
}
