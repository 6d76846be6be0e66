package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

// UserHandler handles sign-up and driver onboarding.
type UserHandler struct {
	onboardingService *service.OnboardingService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(onboardingService *service.OnboardingService) *UserHandler {
	return &UserHandler{onboardingService: onboardingService}
}

// SignUpBody is the HTTP request body for user registration.
type SignUpBody struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SignUpResponse is the HTTP response for user registration.
type SignUpResponse struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Email   string         `json:"email"`
	Roles   []string       `json:"roles"`
	RiderID string         `json:"rider_id"`
	Wallet  WalletResponse `json:"wallet"`
}

// OnboardDriverBody is the HTTP request body for becoming a driver.
type OnboardDriverBody struct {
	VehicleID string `json:"vehicle_id"`
}

// SignUp handles POST /v1/users
func (h *UserHandler) SignUp(c *gin.Context) {
	var body SignUpBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c)
		return
	}

	resp, err := h.onboardingService.SignUp(c.Request.Context(), service.SignUpRequest{
		Name:  body.Name,
		Email: body.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, SignUpResponse{
		ID:      resp.User.ID,
		Name:    resp.User.Name,
		Email:   resp.User.Email,
		Roles:   roleNames(resp.User.Roles),
		RiderID: resp.Rider.ID,
		Wallet:  walletResponse(resp.Wallet),
	})
}

// OnboardDriver handles POST /v1/drivers
func (h *UserHandler) OnboardDriver(c *gin.Context) {
	principal, ok := actor(c)
	if !ok {
		return
	}

	var body OnboardDriverBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c)
		return
	}

	driver, err := h.onboardingService.OnboardDriver(c.Request.Context(), service.OnboardDriverRequest{
		UserID:    principal.UserID,
		VehicleID: body.VehicleID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, driverResponse(driver))
}

func roleNames(roles []domain.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}
