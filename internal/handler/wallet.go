package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"ridehail/internal/service"
)

// WalletHandler handles HTTP requests for the caller's wallet.
type WalletHandler struct {
	walletService *service.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletService *service.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// AddMoneyBody is the HTTP request body for a wallet top-up. Amount is a
// decimal string such as "250.00".
type AddMoneyBody struct {
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transaction_id"`
}

// GetWallet handles GET /v1/wallet
func (h *WalletHandler) GetWallet(c *gin.Context) {
	principal, ok := actor(c)
	if !ok {
		return
	}

	wallet, err := h.walletService.GetWallet(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, walletResponse(wallet))
}

// AddMoney handles POST /v1/wallet/top-ups
func (h *WalletHandler) AddMoney(c *gin.Context) {
	principal, ok := actor(c)
	if !ok {
		return
	}

	var body AddMoneyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c)
		return
	}

	txn, err := h.walletService.AddMoney(c.Request.Context(), service.AddMoneyRequest{
		Actor:         principal,
		Amount:        body.Amount,
		TransactionID: body.TransactionID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, transactionResponse(txn))
}

// ListTransactions handles GET /v1/wallet/transactions
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	principal, ok := actor(c)
	if !ok {
		return
	}

	txns, err := h.walletService.ListTransactions(c.Request.Context(), principal, pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, transactionResponses(txns))
}
