package repository

import (
	"context"

	"ridehail/internal/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// Create adds a new user. Returns ErrConflict if the email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// AddRole grants a role to a user. Granting a held role is a no-op.
	AddRole(ctx context.Context, id string, role domain.Role) error
}

// RiderRepository defines the persistence operations for rider profiles.
type RiderRepository interface {
	Create(ctx context.Context, rider *domain.Rider) error
	GetByID(ctx context.Context, id string) (*domain.Rider, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Rider, error)
	UpdateRating(ctx context.Context, id string, rating float64) error
}
