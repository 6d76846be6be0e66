package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

// RiderHandler handles HTTP requests made by riders.
type RiderHandler struct {
	riderService  *service.RiderService
	ratingService *service.RatingService
}

// NewRiderHandler creates a new RiderHandler.
func NewRiderHandler(riderService *service.RiderService, ratingService *service.RatingService) *RiderHandler {
	return &RiderHandler{
		riderService:  riderService,
		ratingService: ratingService,
	}
}

// CreateRideRequestBody is the HTTP request body for requesting a ride.
type CreateRideRequestBody struct {
	Pickup        PointDTO `json:"pickup"`
	Dropoff       PointDTO `json:"dropoff"`
	PaymentMethod string   `json:"payment_method" binding:"required"`
}

// CreateRideRequestResponse is the HTTP response for a new ride request.
type CreateRideRequestResponse struct {
	RideRequest    RideRequestResponse `json:"ride_request"`
	FarePolicy     string              `json:"fare_policy"`
	MatchingPolicy string              `json:"matching_policy"`
	CandidateIDs   []string            `json:"candidate_driver_ids"`
}

// RateBody is the HTTP request body for rating the other side of a ride.
type RateBody struct {
	Score int `json:"score" binding:"required"`
}

// RatingResponse is the HTTP response for a submitted rating.
type RatingResponse struct {
	ID        string `json:"id"`
	RideID    string `json:"ride_id"`
	RaterRole string `json:"rater_role"`
	RateeID   string `json:"ratee_id"`
	Score     int    `json:"score"`
}

func ratingResponse(r *domain.Rating) RatingResponse {
	return RatingResponse{
		ID:        r.ID,
		RideID:    r.RideID,
		RaterRole: string(r.RaterRole),
		RateeID:   r.RateeID,
		Score:     r.Score,
	}
}

// RequestRide handles POST /v1/ride-requests
func (h *RiderHandler) RequestRide(c *gin.Context) {
	principal, ok := actor(c)
	if !ok {
		return
	}

	var body CreateRideRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c)
		return
	}

	resp, err := h.riderService.RequestRide(c.Request.Context(), service.RequestRideRequest{
		Actor:         principal,
		Pickup:        body.Pickup.toDomain(),
		Dropoff:       body.Dropoff.toDomain(),
		PaymentMethod: domain.PaymentMethod(body.PaymentMethod),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	ids := make([]string, 0, len(resp.Candidates))
	for _, d := range resp.Candidates {
		ids = append(ids, d.ID)
	}

	respondJSON(c, http.StatusCreated, CreateRideRequestResponse{
		RideRequest:    rideRequestResponse(resp.RideRequest),
		FarePolicy:     string(resp.FarePolicy),
		MatchingPolicy: string(resp.MatchingPolicy),
		CandidateIDs:   ids,
	})
}

// ListRideRequests handles GET /v1/ride-requests
func (h *RiderHandler) ListRideRequests(c *gin.Context) {
	principal, ok := actor(c)
	if !ok {
		return
	}

	requests, err := h.riderService.ListRideRequests(c.Request.Context(), principal, pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]RideRequestResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, rideRequestResponse(r))
	}
	respondJSON(c, http.StatusOK, out)
}

// CancelRideRequest handles POST /v1/ride-requests/:id/cancel
func (h *RiderHandler) CancelRideRequest(c *gin.Context) {
	principal, ok := actor(c)
	if !ok {
		return
	}

	req, err := h.riderService.CancelRideRequest(c.Request.Context(), service.CancelRideRequestRequest{
		Actor:         principal,
		RideRequestID: c.Param("id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, rideRequestResponse(req))
}

// ListRides handles GET /v1/rider/rides
func (h *RiderHandler) ListRides(c *gin.Context) {
	principal, ok := actor(c)
	if !ok {
		return
	}

	rides, err := h.riderService.ListRides(c.Request.Context(), principal, pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, rideResponses(rides, true))
}

// GetRide handles GET /v1/rider/rides/:id
func (h *RiderHandler) GetRide(c *gin.Context) {
	principal, ok := actor(c)
	if !ok {
		return
	}

	ride, err := h.riderService.GetRide(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, rideResponse(ride, true))
}

// CancelRide handles POST /v1/rider/rides/:id/cancel
func (h *RiderHandler) CancelRide(c *gin.Context) {
	principal, ok := actor(c)
	if !ok {
		return
	}

	ride, err := h.riderService.CancelRide(c.Request.Context(), service.RiderCancelRideRequest{
		Actor:  principal,
		RideID: c.Param("id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, rideResponse(ride, false))
}

// RateDriver handles POST /v1/rider/rides/:id/rating
func (h *RiderHandler) RateDriver(c *gin.Context) {
	principal, ok := actor(c)
	if !ok {
		return
	}

	var body RateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c)
		return
	}

	rating, err := h.ratingService.RateDriver(c.Request.Context(), service.RateRequest{
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
