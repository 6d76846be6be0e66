package handler

import (
	"time"

	"ridehail/internal/domain"
)

const timeLayout = time.RFC3339

// PointDTO is a coordinate on the wire.
type PointDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p PointDTO) toDomain() domain.Point {
	return domain.Point{Lat: p.Lat, Lng: p.Lng}
}

func pointDTO(p domain.Point) PointDTO {
	return PointDTO{Lat: p.Lat, Lng: p.Lng}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// RideRequestResponse is the HTTP representation of a ride request.
type RideRequestResponse struct {
	ID              string   `json:"id"`
	RiderID         string   `json:"rider_id"`
	Pickup          PointDTO `json:"pickup"`
	Dropoff         PointDTO `json:"dropoff"`
	PaymentMethod   string   `json:"payment_method"`
	Status          string   `json:"status"`
	Fare            string   `json:"fare"`
	DistanceKm      float64  `json:"distance_km"`
	SurgeMultiplier float64  `json:"surge_multiplier"`
	RequestedAt     string   `json:"requested_at"`
}

func rideRequestResponse(r *domain.RideRequest) RideRequestResponse {
	return RideRequestResponse{
		ID:              r.ID,
		RiderID:         r.RiderID,
		Pickup:          pointDTO(r.Pickup),
		Dropoff:         pointDTO(r.Dropoff),
		PaymentMethod:   string(r.PaymentMethod),
		Status:          string(r.Status),
		Fare:            r.Fare.StringFixed(2),
		DistanceKm:      r.DistanceKm,
		SurgeMultiplier: r.SurgeMultiplier,
		RequestedAt:     formatTime(r.RequestedAt),
	}
}

// RideResponse is the HTTP representation of a ride. OTP is only filled for
// the rider, who reads it out to the driver.
type RideResponse struct {
	ID            string   `json:"id"`
	RideRequestID string   `json:"ride_request_id"`
	RiderID       string   `json:"rider_id"`
	DriverID      string   `json:"driver_id"`
	Pickup        PointDTO `json:"pickup"`
	Dropoff       PointDTO `json:"dropoff"`
	PaymentMethod string   `json:"payment_method"`
	Status        string   `json:"status"`
	OTP           string   `json:"otp,omitempty"`
	Fare          string   `json:"fare"`
	CreatedAt     string   `json:"created_at"`
	StartedAt     string   `json:"started_at,omitempty"`
	EndedAt       string   `json:"ended_at,omitempty"`
	CancelledAt   string   `json:"cancelled_at,omitempty"`
	CancelledBy   string   `json:"cancelled_by,omitempty"`
}

func rideResponse(r *domain.Ride, withOTP bool) RideResponse {
	resp := RideResponse{
		ID:            r.ID,
		RideRequestID: r.RideRequestID,
		RiderID:       r.RiderID,
		DriverID:      r.DriverID,
		Pickup:        pointDTO(r.Pickup),
		Dropoff:       pointDTO(r.Dropoff),
		PaymentMethod: string(r.PaymentMethod),
		Status:        string(r.Status),
		Fare:          r.Fare.StringFixed(2),
		CreatedAt:     formatTime(r.CreatedAt),
		StartedAt:     formatTime(r.StartedAt),
		EndedAt:       formatTime(r.EndedAt),
		CancelledAt:   formatTime(r.CancelledAt),
		CancelledBy:   string(r.CancelledBy),
	}
	if withOTP {
		resp.OTP = r.OTP
	}
	return resp
}

func rideResponses(rides []*domain.Ride, withOTP bool) []RideResponse {
	out := make([]RideResponse, 0, len(rides))
	for _, r := range rides {
		out = append(out, rideResponse(r, withOTP))
	}
	return out
}

// PaymentResponse is the HTTP representation of a payment.
type PaymentResponse struct {
	ID          string `json:"id"`
	RideID      string `json:"ride_id"`
	Method      string `json:"method"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	ConfirmedAt string `json:"confirmed_at,omitempty"`
}

func paymentResponse(p *domain.Payment) *PaymentResponse {
	if p == nil {
		return nil
	}
	return &PaymentResponse{
		ID:          p.ID,
		RideID:      p.RideID,
		Method:      string(p.Method),
		Amount:      p.Amount.StringFixed(2),
		Status:      string(p.Status),
		CreatedAt:   formatTime(p.CreatedAt),
		ConfirmedAt: formatTime(p.ConfirmedAt),
	}
}

// TransactionResponse is the HTTP representation of a wallet entry.
type TransactionResponse struct {
	ID            string `json:"id"`
	WalletID      string `json:"wallet_id"`
	Amount        string `json:"amount"`
	Type          string `json:"type"`
	Method        string `json:"method"`
	RideID        string `json:"ride_id,omitempty"`
	TransactionID string `json:"transaction_id"`
	BalanceAfter  string `json:"balance_after"`
	CreatedAt     string `json:"created_at"`
}

func transactionResponse(t *domain.WalletTransaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		WalletID:      t.WalletID,
		Amount:        t.Amount.StringFixed(2),
		Type:          string(t.Type),
		Method:        string(t.Method),
		RideID:        t.RideID,
		TransactionID: t.TransactionID,
		BalanceAfter:  t.BalanceAfter.StringFixed(2),
		CreatedAt:     formatTime(t.CreatedAt),
	}
}

func transactionResponses(txns []*domain.WalletTransaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, transactionResponse(t))
	}
	return out
}

// DriverResponse is the HTTP representation of a driver.
type DriverResponse struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id"`
	Rating    float64  `json:"rating"`
	Available bool     `json:"available"`
	Location  PointDTO `json:"location"`
	VehicleID string   `json:"vehicle_id"`
}

func driverResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:        d.ID,
		UserID:    d.UserID,
		Rating:    d.Rating,
		Available: d.Available,
		Location:  pointDTO(d.Location),
		VehicleID: d.VehicleID,
	}
}

// WalletResponse is the HTTP representation of a wallet.
type WalletResponse struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	Balance string `json:"balance"`
}

func walletResponse(w *domain.Wallet) WalletResponse {
	return WalletResponse{ID: w.ID, UserID: w.UserID, Balance: w.Balance.StringFixed(2)}
}
