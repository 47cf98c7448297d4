package chat

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/clairehq/claire/internal/transaction"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=chat
type Repository interface {
	// EnsureSession returns the user's session, creating it on first use.
	EnsureSession(ctx context.Context, userID int64) (*Session, error)
	Messages(ctx context.Context, sessionID string) ([]Message, error)
	Append(ctx context.Context, sessionID string, msgs []Message) error
	Clear(ctx context.Context, sessionID string) error
}

// Transactions is the slice of the transaction service the agent reads.
type Transactions interface {
	List(ctx context.Context, filter transaction.Filter) ([]*transaction.Transaction, error)
}

// Responder generates assistant replies.
type Responder interface {
	Respond(ctx context.Context, userID int64, history []Message) (string, error)
	Stream(ctx context.Context, userID int64, history []Message) iter.Seq2[string, error]
}

type Service struct {
	repo      Repository
	responder Responder
}

func NewService(repo Repository, responder Responder) *Service {
	return &Service{repo: repo, responder: responder}
}

func validate(msgs []Message) error {
	if len(msgs) == 0 {
		return ErrEmptyMessage
	}

	for _, msg := range msgs {
		if strings.TrimSpace(msg.Content) == "" {
			return ErrEmptyMessage
		}

		if !msg.Role.Valid() {
			return ErrBadRole
		}
	}

	return nil
}

// Chat appends the incoming messages, produces a full assistant reply, and
// returns the updated history.
func (s *Service) Chat(ctx context.Context, userID int64, msgs []Message) ([]Message, error) {
	if err := validate(msgs); err != nil {
		return nil, err
	}

	session, err := s.repo.EnsureSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ensuring session: %w", err)
	}

	if err := s.repo.Append(ctx, session.ID, msgs); err != nil {
		return nil, fmt.Errorf("storing messages: %w", err)
	}

	history, err := s.repo.Messages(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	reply, err := s.responder.Respond(ctx, userID, history)
	if err != nil {
		return nil, err
	}

	assistant := Message{SessionID: session.ID, Role: RoleAssistant, Content: reply}
	if err := s.repo.Append(ctx, session.ID, []Message{assistant}); err != nil {
		return nil, fmt.Errorf("storing reply: %w", err)
	}

	return append(history, assistant), nil
}

// ChatStream yields assistant reply chunks. The accumulated reply is
// persisted once the stream ends, even if the client went away mid-stream.
func (s *Service) ChatStream(ctx context.Context, userID int64, msgs []Message) (iter.Seq2[string, error], error) {
	if err := validate(msgs); err != nil {
		return nil, err
	}

	session, err := s.repo.EnsureSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ensuring session: %w", err)
	}

	if err := s.repo.Append(ctx, session.ID, msgs); err != nil {
		return nil, fmt.Errorf("storing messages: %w", err)
	}

	history, err := s.repo.Messages(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	return func(yield func(string, error) bool) {
		var full strings.Builder

		defer func() {
			if full.Len() == 0 {
				return
			}

			assistant := Message{SessionID: session.ID, Role: RoleAssistant, Content: full.String()}
			// Persist with a fresh context so a dropped client still
			// keeps the partial reply in history.
			if err := s.repo.Append(context.WithoutCancel(ctx), session.ID, []Message{assistant}); err != nil {
				slog.Warn("failed to store streamed reply", "session_id", session.ID, "error", err)
			}
		}()

		for chunk, err := range s.responder.Stream(ctx, userID, history) {
			if err != nil {
				yield("", err)
				return
			}

			full.WriteString(chunk)

			if !yield(chunk, nil) {
				return
			}
		}
	}, nil
}

// History returns the session's messages, oldest first.
func (s *Service) History(ctx context.Context, userID int64) ([]Message, error) {
	session, err := s.repo.EnsureSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ensuring session: %w", err)
	}

	return s.repo.Messages(ctx, session.ID)
}

// Clear wipes the session's history.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	session, err := s.repo.EnsureSession(ctx, userID)
	if err != nil {
		return fmt.Errorf("ensuring session: %w", err)
	}

	return s.repo.Clear(ctx, session.ID)
}
