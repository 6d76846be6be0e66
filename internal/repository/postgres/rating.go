package postgres

import (
	"context"

	"ridehail/internal/domain"
)

// RatingRepository is a PostgreSQL implementation of repository.RatingRepository.
type RatingRepository struct {
	q Querier
}

// Create persists a rating.
func (r *RatingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	query := `
		INSERT INTO ratings (id, ride_id, rater_role, ratee_id, score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q.ExecContext(ctx, query,
		rating.ID,
		rating.RideID,
		rating.RaterRole,
		rating.RateeID,
		rating.Score,
		rating.CreatedAt,
	)
	return mapWriteError(err)
}

// Average returns the mean score received by a profile.
func (r *RatingRepository) Average(ctx context.Context, rateeID string) (float64, int, error) {
	query := `SELECT COALESCE(AVG(score), 0)::float8, count(*) FROM ratings WHERE ratee_id = $1`
	var avg float64
	var count int
	if err := r.q.QueryRowContext(ctx, query, rateeID).Scan(&avg, &count); err != nil {
		return 0, 0, err
	}
	return avg, count, nil
}
