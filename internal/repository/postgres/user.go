package postgres

import (
	"context"

	"github.com/lib/pq"

	"ridehail/internal/domain"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	q Querier
}

// Create adds a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, name, email, roles, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query, user.ID, user.Name, user.Email, pq.Array(rolesToStrings(user.Roles)), user.CreatedAt)
	return mapWriteError(err)
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, name, email, roles, created_at FROM users WHERE id = $1`
	return scanUser(r.q.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, name, email, roles, created_at FROM users WHERE email = $1`
	return scanUser(r.q.QueryRowContext(ctx, query, email))
}

// AddRole grants a role to a user.
func (r *UserRepository) AddRole(ctx context.Context, id string, role domain.Role) error {
	query := `
		UPDATE users
		SET roles = CASE WHEN $1 = ANY(roles) THEN roles ELSE array_append(roles, $1) END
		WHERE id = $2
	`
	result, err := r.q.ExecContext(ctx, query, string(role), id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var roles []string
	if err := row.Scan(&user.ID, &user.Name, &user.Email, pq.Array(&roles), &user.CreatedAt); err != nil {
		return nil, mapReadError(err)
	}
	for _, role := range roles {
		user.Roles = append(user.Roles, domain.Role(role))
	}
	return &user, nil
}

func rolesToStrings(roles []domain.Role) []string {
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		out = append(out, string(role))
	}
	return out
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// RiderRepository implements repository.RiderRepository using PostgreSQL.
type RiderRepository struct {
	q Querier
}

// Create adds a new rider profile.
func (r *RiderRepository) Create(ctx context.Context, rider *domain.Rider) error {
	query := `INSERT INTO riders (id, user_id, rating) VALUES ($1, $2, $3)`
	_, err := r.q.ExecContext(ctx, query, rider.ID, rider.UserID, rider.Rating)
	return mapWriteError(err)
}

// GetByID retrieves a rider by ID.
func (r *RiderRepository) GetByID(ctx context.Context, id string) (*domain.Rider, error) {
	query := `SELECT id, user_id, rating FROM riders WHERE id = $1`
	return scanRider(r.q.QueryRowContext(ctx, query, id))
}

// GetByUserID retrieves the rider profile of a user.
func (r *RiderRepository) GetByUserID(ctx context.Context, userID string) (*domain.Rider, error) {
	query := `SELECT id, user_id, rating FROM riders WHERE user_id = $1`
	return scanRider(r.q.QueryRowContext(ctx, query, userID))
}

// UpdateRating stores a recomputed average rating.
func (r *RiderRepository) UpdateRating(ctx context.Context, id string, rating float64) error {
	result, err := r.q.ExecContext(ctx, `UPDATE riders SET rating = $1 WHERE id = $2`, rating, id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

func scanRider(row rowScanner) (*domain.Rider, error) {
	var rider domain.Rider
	if err := row.Scan(&rider.ID, &rider.UserID, &rider.Rating); err != nil {
		return nil, mapReadError(err)
	}
	return &rider, nil
}
