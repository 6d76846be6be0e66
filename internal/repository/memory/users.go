package memory

import (
	"context"
	"slices"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

type userRepository struct {
	v *view
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.users[user.ID]; ok {
			return repository.ErrConflict
		}
		for _, u := range st.users {
			if u.Email == user.Email {
				return repository.ErrConflict
			}
		}
		stored := *user
		stored.Roles = slices.Clone(user.Roles)
		st.users[user.ID] = stored
		st.track(user.ID)
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.v.do(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = copyUser(u)
		return nil
	})
	return out, err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var out *domain.User
	err := r.v.do(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				out = copyUser(u)
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *userRepository) AddRole(ctx context.Context, id string, role domain.Role) error {
	return r.v.do(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		if !slices.Contains(u.Roles, role) {
			u.Roles = append(slices.Clone(u.Roles), role)
			st.users[id] = u
		}
		return nil
	})
}

func copyUser(u domain.User) *domain.User {
	u.Roles = slices.Clone(u.Roles)
	return &u
}

type riderRepository struct {
	v *view
}

func (r *riderRepository) Create(ctx context.Context, rider *domain.Rider) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.riders[rider.ID]; ok {
			return repository.ErrConflict
		}
		for _, existing := range st.riders {
			if existing.UserID == rider.UserID {
				return repository.ErrConflict
			}
		}
		st.riders[rider.ID] = *rider
		st.track(rider.ID)
		return nil
	})
}

func (r *riderRepository) GetByID(ctx context.Context, id string) (*domain.Rider, error) {
	var out *domain.Rider
	err := r.v.do(func(st *state) error {
		rider, ok := st.riders[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &rider
		return nil
	})
	return out, err
}

func (r *riderRepository) GetByUserID(ctx context.Context, userID string) (*domain.Rider, error) {
	var out *domain.Rider
	err := r.v.do(func(st *state) error {
		for _, rider := range st.riders {
			if rider.UserID == userID {
				out = &rider
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *riderRepository) UpdateRating(ctx context.Context, id string, rating float64) error {
	return r.v.do(func(st *state) error {
		rider, ok := st.riders[id]
		if !ok {
			return repository.ErrNotFound
		}
		rider.Rating = rating
		st.riders[id] = rider
		return nil
	})
}
