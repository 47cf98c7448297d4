package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/clairehq/claire/internal/chat"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSession returns the user's chat session, creating one on first use.
// The insert is conflict-safe so concurrent first messages share a session.
func (s *Store) EnsureSession(ctx context.Context, userID int64) (*chat.Session, error) {
	var session chat.Session

	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, created_at
		FROM chat_session
		WHERE user_id = $1
	`, userID).Scan(&session.ID, &session.UserID, &session.Name, &session.CreatedAt)
	if err == nil {
		return &session, nil
	}

	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("getting session: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO chat_session (id, user_id, name, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, name, created_at
	`, uuid.NewString(), userID, "Chat with Claire").
		Scan(&session.ID, &session.UserID, &session.Name, &session.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	return &session, nil
}

func (s *Store) Messages(ctx context.Context, sessionID string) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, created_at
		FROM chat_message
		WHERE session_id = $1
		ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var msgs []chat.Message

	for rows.Next() {
		var msg chat.Message
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}

		msgs = append(msgs, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	return msgs, nil
}

func (s *Store) Append(ctx context.Context, sessionID string, msgs []chat.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, msg := range msgs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO chat_message (session_id, role, content, created_at)
			VALUES ($1, $2, $3, NOW())
		`, sessionID, msg.Role, msg.Content)
		if err != nil {
			return fmt.Errorf("inserting message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing messages: %w", err)
	}

	return nil
}

func (s *Store) Clear(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_message WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("clearing messages: %w", err)
	}

	return nil
}
