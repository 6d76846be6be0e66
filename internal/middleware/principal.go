package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
)

// UserIDHeader carries the authenticated user's ID, set by the upstream gateway.
const UserIDHeader = "X-User-ID"

const principalKey = "principal"

// ErrMissingPrincipal is returned when a request carries no user identity.
var ErrMissingPrincipal = errors.New("missing user identity")

// PrincipalMiddleware copies the caller identity from the request header into
// the gin context. Requests without the header pass through; handlers that
// need an actor reject them.
func PrincipalMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := strings.TrimSpace(c.GetHeader(UserIDHeader)); id != "" {
			c.Set(principalKey, domain.Principal{UserID: id})
		}
		c.Next()
	}
}

// PrincipalFrom returns the caller identity stored by PrincipalMiddleware.
func PrincipalFrom(c *gin.Context) (domain.Principal, error) {
	v, ok := c.Get(principalKey)
	if !ok {
		return domain.Principal{}, ErrMissingPrincipal
	}
	p, ok := v.(domain.Principal)
	if !ok || p.UserID == "" {
		return domain.Principal{}, ErrMissingPrincipal
	}
	return p, nil
}
