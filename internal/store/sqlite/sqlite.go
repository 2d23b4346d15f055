package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/unalone/chat-service/internal/store"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and applies embedded
// migrations. Pass ":memory:" for an ephemeral database.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	goose.SetBaseFS(migrationFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveMessage persists a new message, assigning its id and creation time.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO messages (id, room_key, room_kind, author_id, author_name, author_avatar, body, created_at, edited)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
	`
	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		msg.RoomKey,
		msg.RoomKind,
		msg.AuthorID,
		msg.AuthorName,
		msg.AuthorAvatar,
		msg.Body,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetMessage retrieves a message by id.
func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*store.Message, error) {
	query := `
		SELECT id, room_key, room_kind, author_id, author_name, author_avatar, body, created_at, edited
		FROM messages
		WHERE id = ?
	`
	var msg store.Message
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID,
		&msg.RoomKey,
		&msg.RoomKind,
		&msg.AuthorID,
		&msg.AuthorName,
		&msg.AuthorAvatar,
		&msg.Body,
		&msg.CreatedAt,
		&msg.Edited,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query message: %w", err)
	}

	return &msg, nil
}

// UpdateMessageBody overwrites the message body in place and sets the edited flag.
func (s *SQLiteStore) UpdateMessageBody(ctx context.Context, id, body string) error {
	query := `
		UPDATE messages
		SET body = ?, edited = 1
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, body, id)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteMessage removes a message. No tombstone is kept.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListMessages retrieves up to limit messages for a room, newest first.
func (s *SQLiteStore) ListMessages(ctx context.Context, roomKey string, kind store.RoomKind, limit, offset int) ([]*store.Message, error) {
	query := `
		SELECT id, room_key, room_kind, author_id, author_name, author_avatar, body, created_at, edited
		FROM messages
		WHERE room_key = ? AND room_kind = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, query, roomKey, kind, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.RoomKey,
			&msg.RoomKind,
			&msg.AuthorID,
			&msg.AuthorName,
			&msg.AuthorAvatar,
			&msg.Body,
			&msg.CreatedAt,
			&msg.Edited,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}
