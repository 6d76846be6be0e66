package memory

import (
	"context"
	"sort"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

type driverRepository struct {
	v *view
}

func (r *driverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.drivers[driver.ID]; ok {
			return repository.ErrConflict
		}
		for _, existing := range st.drivers {
			if existing.UserID == driver.UserID {
				return repository.ErrConflict
			}
		}
		st.drivers[driver.ID] = *driver
		st.track(driver.ID)
		return nil
	})
}

func (r *driverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	var out *domain.Driver
	err := r.v.do(func(st *state) error {
		d, ok := st.drivers[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &d
		return nil
	})
	return out, err
}

func (r *driverRepository) GetByUserID(ctx context.Context, userID string) (*domain.Driver, error) {
	var out *domain.Driver
	err := r.v.do(func(st *state) error {
		for _, d := range st.drivers {
			if d.UserID == userID {
				out = &d
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *driverRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Driver, error) {
	var out []*domain.Driver
	err := r.v.do(func(st *state) error {
		for _, id := range ids {
			if d, ok := st.drivers[id]; ok {
				out = append(out, &d)
			}
		}
		return nil
	})
	return out, err
}

func (r *driverRepository) ListAvailableNear(ctx context.Context, p domain.Point, radiusKm float64, limit int) ([]*domain.Driver, error) {
	type candidate struct {
		driver domain.Driver
		distKm float64
	}
	var candidates []candidate
	_ = r.v.do(func(st *state) error {
		for _, d := range st.drivers {
			if !d.Available {
				continue
			}
			if dist := p.HaversineKm(d.Location); dist <= radiusKm {
				candidates = append(candidates, candidate{driver: d, distKm: dist})
			}
		}
		return nil
	})

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distKm != candidates[j].distKm {
			return candidates[i].distKm < candidates[j].distKm
		}
		return candidates[i].driver.ID < candidates[j].driver.ID
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]*domain.Driver, 0, len(candidates))
	for _, c := range candidates {
		d := c.driver
		out = append(out, &d)
	}
	return out, nil
}

func (r *driverRepository) ClaimAvailability(ctx context.Context, id string) (bool, error) {
	claimed := false
	err := r.v.do(func(st *state) error {
		d, ok := st.drivers[id]
		if !ok || !d.Available {
			return nil
		}
		d.Available = false
		d.UpdatedAt = time.Now()
		st.drivers[id] = d
		claimed = true
		return nil
	})
	return claimed, err
}

func (r *driverRepository) SetAvailable(ctx context.Context, id string, available bool) error {
	return r.update(id, func(d *domain.Driver) {
		d.Available = available
		d.UpdatedAt = time.Now()
	})
}

func (r *driverRepository) UpdateLocation(ctx context.Context, id string, p domain.Point, at time.Time) error {
	return r.update(id, func(d *domain.Driver) {
		d.Location = p
		d.UpdatedAt = at
	})
}

func (r *driverRepository) UpdateRating(ctx context.Context, id string, rating float64) error {
	return r.update(id, func(d *domain.Driver) {
		d.Rating = rating
	})
}

func (r *driverRepository) update(id string, mutate func(d *domain.Driver)) error {
	return r.v.do(func(st *state) error {
		d, ok := st.drivers[id]
		if !ok {
			return repository.ErrNotFound
		}
		mutate(&d)
		st.drivers[id] = d
		return nil
	})
}
