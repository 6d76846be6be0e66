package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/service"
)

// DriverHandler handles HTTP requests made by drivers.
type DriverHandler struct {
	driverService *service.DriverService
	ratingService *service.RatingService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService, ratingService *service.RatingService) *DriverHandler {
	return &DriverHandler{
		driverService: driverService,
		ratingService: ratingService,
	}
}

// StartRideBody is the HTTP request body for starting a ride.
type StartRideBody struct {
	OTP string `json:"otp" binding:"required"`
}

// RideSettlementResponse is returned by the start and end endpoints.
// SettlementPending is set when the ride ended but payment could not settle;
// the payment can be retried later.
type RideSettlementResponse struct {
	Ride              RideResponse          `json:"ride"`
	Payment           *PaymentResponse      `json:"payment,omitempty"`
	Transactions      []TransactionResponse `json:"transactions,omitempty"`
	SettlementPending bool                  `json:"settlement_pending,omitempty"`
	SettlementError   string                `json:"settlement_error,omitempty"`
}

// AcceptRide handles POST /v1/driver/ride-requests/:id/accept
func (h *DriverHandler) AcceptRide(c *gin.Context) {
	principal, ok := actor(c)
	if !ok {
		return
	}

	ride, err := h.driverService.AcceptRide(c.Request.Context(), service.AcceptRideRequest{
		Actor:         principal,
		RideRequestID: c.Param("id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, rideResponse(ride, false))
}

// StartRide handles POST /v1/driver/rides/:id/start
func (h *DriverHandler) StartRide(c *gin.Context) {
	principal, ok := actor(c)
	if !ok {
		return
	}

	var body StartRideBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c)
		return
	}

	resp, err := h.driverService.StartRide(c.Request.Context(), service.StartRideRequest{
		Actor:  principal,
		RideID: c.Param("id"),
		OTP:    body.OTP,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, RideSettlementResponse{
		Ride:    rideResponse(resp.Ride, false),
		Payment: paymentResponse(resp.Payment),
	})
}

// EndRide handles POST /v1/driver/rides/:id/end
func (h *DriverHandler) EndRide(c *gin.Context) {
	principal, ok := actor(c)
	if !ok {
		return
	}

	resp, err := h.driverService.EndRide(c.Request.Context(), service.EndRideRequest{
		Actor:  principal,
		RideID: c.Param("id"),
	})
	if err != nil && !(settlementPending(err) && resp != nil) {
		respondError(c, err)
		return
	}

	out := RideSettlementResponse{
		Ride:         rideResponse(resp.Ride, false),
		Payment:      paymentResponse(resp.Payment),
		Transactions: transactionResponses(resp.Transactions),
	}
	if err != nil {
		out.SettlementPending = true
		out.SettlementError = err.Error()
		respondJSON(c, http.StatusAccepted, out)
		return
	}

	respondJSON(c, http.StatusOK, out)
}

// CancelRide handles POST /v1/driver/rides/:id/cancel
func (h *DriverHandler) CancelRide(c *gin.Context) {
	principal, ok := actor(c)
	if !ok {
		return
	}

	ride, err := h.driverService.CancelRide(c.Request.Context(), service.DriverCancelRideRequest{
		Actor:  principal,
		RideID: c.Param("id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, rideResponse(ride, false))
}

// UpdateLocation handles PUT /v1/driver/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	principal, ok := actor(c)
	if !ok {
		return
	}

	var body PointDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c)
		return
	}

	driver, err := h.driverService.UpdateLocation(c.Request.Context(), service.UpdateLocationRequest{
		Actor:    principal,
		Location: body.toDomain(),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, driverResponse(driver))
}

// ListRides handles GET /v1/driver/rides
func (h *DriverHandler) ListRides(c *gin.Context) {
	principal, ok := actor(c)
	if !ok {
		return
	}

	rides, err := h.driverService.ListRides(c.Request.Context(), principal, pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, rideResponses(rides, false))
}

// GetRide handles GET /v1/driver/rides/:id
func (h *DriverHandler) GetRide(c *gin.Context) {
	principal, ok := actor(c)
	if !ok {
		return
	}

	ride, err := h.driverService.GetRide(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, rideResponse(ride, false))
}

// RateRider handles POST /v1/driver/rides/:id/rating
func (h *DriverHandler) RateRider(c *gin.Context) {
	principal, ok := actor(c)
	if !ok {
		return
	}

	var body RateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c)
		return
	}

	rating, err := h.ratingService.RateRider(c.Request.Context(), service.RateRequest{
		Actor:  principal,
		RideID: c.Param("id"),
		Score:  body.Score,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, ratingResponse(rating))
}
