package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/service"
)

// PaymentHandler handles HTTP requests for ride payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// SettlementResponse is the HTTP response for a settlement attempt.
type SettlementResponse struct {
	Payment        *PaymentResponse      `json:"payment"`
	Transactions   []TransactionResponse `json:"transactions"`
	AlreadySettled bool                  `json:"already_settled"`
}

// GetPayment handles GET /v1/rides/:id/payment
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	principal, ok := actor(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, paymentResponse(payment))
}

// RetrySettlement handles POST /v1/rides/:id/payment/settle
func (h *PaymentHandler) RetrySettlement(c *gin.Context) {
	principal, ok := actor(c)
	if !ok {
		return
	}

	settlement, err := h.paymentService.RetrySettlement(c.Request.Context(), service.RetrySettlementRequest{
		Actor:  principal,
		RideID: c.Param("id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, SettlementResponse{
		Payment:        paymentResponse(settlement.Payment),
		Transactions:   transactionResponses(settlement.Transactions),
		AlreadySettled: settlement.AlreadySettled,
	})
}
