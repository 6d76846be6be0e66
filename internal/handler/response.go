package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/middleware"
	"ridehail/internal/repository"
	"ridehail/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

var errInvalidBody = errors.New("invalid request body")

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(code, ErrorResponse{Error: "internal error"})
		return
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondBadRequest rejects a body that failed to bind.
func respondBadRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: errInvalidBody.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps error kinds to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, middleware.ErrMissingPrincipal):
		return http.StatusUnauthorized

	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidOtp):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden

	case errors.Is(err, domain.ErrInvalidStateTransition),
		errors.Is(err, domain.ErrDuplicateUser),
		errors.Is(err, domain.ErrDriverNotAvailable),
		errors.Is(err, repository.ErrConflict):
		return http.StatusConflict

	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity

	case errors.Is(err, domain.ErrDistanceUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// actor resolves the calling principal, writing a 401 when absent.
func actor(c *gin.Context) (domain.Principal, bool) {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		respondError(c, err)
		return domain.Principal{}, false
	}
	return p, true
}

// pageFromQuery reads limit and offset query parameters. Bad values fall back
// to the defaults.
func pageFromQuery(c *gin.Context) repository.Page {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return repository.Page{Limit: limit, Offset: offset}.Normalize()
}

// settlementPending reports whether err only signals a failed settlement.
func settlementPending(err error) bool {
	return errors.Is(err, service.ErrSettlementFailed)
}
