package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// OnboardingService registers riders and promotes users to drivers.
type OnboardingService struct {
	store repository.Store
	now   func() time.Time
}

// NewOnboardingService creates a new OnboardingService.
func NewOnboardingService(store repository.Store) *OnboardingService {
	return &OnboardingService{store: store, now: time.Now}
}

// SignUpRequest contains the parameters for registering a rider.
type SignUpRequest struct {
	Name  string
	Email string
}

// SignUpResponse contains the created account.
type SignUpResponse struct {
	User   *domain.User
	Rider  *domain.Rider
	Wallet *domain.Wallet
}

// SignUp creates a user with the RIDER role, its rider profile and an empty
// wallet, all or nothing.
func (s *OnboardingService) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	now := s.now()
	resp := &SignUpResponse{
		User: &domain.User{
			ID:        uuid.New().String(),
			Name:      name,
			Email:     email,
			Roles:     []domain.Role{domain.RoleRider},
			CreatedAt: now,
		},
	}
	resp.Rider = &domain.Rider{
		ID:     uuid.New().String(),
		UserID: resp.User.ID,
		Rating: 0,
	}
	resp.Wallet = &domain.Wallet{
		ID:        uuid.New().String(),
		UserID:    resp.User.ID,
		Balance:   decimal.Zero,
		UpdatedAt: now,
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Users.GetByEmail(ctx, email); err == nil {
			return ErrDuplicateUser
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if err := repos.Users.Create(ctx, resp.User); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrDuplicateUser
			}
			return err
		}
		if err := repos.Riders.Create(ctx, resp.Rider); err != nil {
			return err
		}
		return repos.Wallets.Create(ctx, resp.Wallet)
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// OnboardDriverRequest contains the parameters for onboarding a driver.
type OnboardDriverRequest struct {
	UserID    string
	VehicleID string
}

// OnboardDriver creates an available driver profile for an existing user
// and grants the DRIVER role. The user gets a wallet if it has none.
func (s *OnboardingService) OnboardDriver(ctx context.Context, req OnboardDriverRequest) (*domain.Driver, error) {
	if req.UserID == "" {
		return nil, ErrInvalidActor
	}
	vehicleID := strings.TrimSpace(req.VehicleID)
	if vehicleID == "" {
		return nil, ErrInvalidVehicleID
	}

	now := s.now()
	driver := &domain.Driver{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		Rating:    0,
		Available: true,
		VehicleID: vehicleID,
		UpdatedAt: now,
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		user, err := repos.Users.GetByID(ctx, req.UserID)
		if err != nil {
			return notFound(err, ErrUserNotFound)
		}
		if user.HasRole(domain.RoleDriver) {
			return ErrAlreadyDriver
		}

		if err := repos.Drivers.Create(ctx, driver); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrAlreadyDriver
			}
			return err
		}
		if err := repos.Users.AddRole(ctx, user.ID, domain.RoleDriver); err != nil {
			return err
		}

		if _, err := repos.Wallets.GetByUserID(ctx, user.ID); errors.Is(err, repository.ErrNotFound) {
			return repos.Wallets.Create(ctx, &domain.Wallet{
				ID:        uuid.New().String(),
				UserID:    user.ID,
				Balance:   decimal.Zero,
				UpdatedAt: now,
			})
		} else if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return driver, nil
}
