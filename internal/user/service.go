package user

import (
	"context"
	"errors"
	"fmt"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=user
type Repository interface {
	GetByClerkID(ctx context.Context, clerkID string) (*User, error)
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetOrCreate resolves the account for a verified identity. Unknown subjects
// get a fresh account; when the token carries no email address a placeholder
// derived from the subject ID is stored instead.
func (s *Service) GetOrCreate(ctx context.Context, clerkID, email string) (*User, error) {
	u, err := s.repo.GetByClerkID(ctx, clerkID)
	if err == nil {
		return u, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if email == "" {
		email = clerkID + "@clerk.user"
	}

	u = &User{ClerkID: clerkID, Email: email}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return u, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}
