package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour

	// inFlightTTL bounds how long a crashed request can block its key.
	inFlightTTL = 30 * time.Second

	// maxIdempotentBody caps the body buffered for fingerprinting.
	maxIdempotentBody = 1 << 20
)

// idempotencyRecord is what Redis holds for one key. An in-flight record has
// no response yet.
type idempotencyRecord struct {
	Fingerprint string `json:"fingerprint"`
	InFlight    bool   `json:"in_flight"`
	StatusCode  int    `json:"status_code,omitempty"`
	Body        []byte `json:"body,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// responseWriter wraps gin.ResponseWriter to capture the response.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware makes retried mutations safe. The first request with
// an Idempotency-Key reserves it; a concurrent duplicate gets 409, a finished
// one replays the stored response, and reusing the key for a different body
// gets 422. Keys are scoped by caller, method and route. Server errors release
// the key so the client can retry. A nil client disables the middleware, and
// Redis failures let requests through unprotected.
func IdempotencyMiddleware(client redis.Cmdable) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if client == nil || key == "" || !isMutation(c.Request.Method) {
			c.Next()
			return
		}

		fingerprint, err := fingerprintBody(c.Writer, c.Request)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
				return
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable request body"})
			return
		}

		ctx := c.Request.Context()
		cacheKey := idempotencyCacheKey(c, key)

		reserved, existing, err := reserve(ctx, client, cacheKey, fingerprint)
		if err != nil {
			c.Next()
			return
		}
		if !reserved {
			replay(c, existing, fingerprint)
			return
		}

		w := &responseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w
		c.Next()

		// The reservation must be settled even if the client went away.
		ctx = context.WithoutCancel(ctx)
		if w.Status() >= http.StatusInternalServerError {
			_ = client.Del(ctx, cacheKey).Err()
			return
		}
		_ = store(ctx, client, cacheKey, idempotencyRecord{
			Fingerprint: fingerprint,
			StatusCode:  w.Status(),
			Body:        w.body.Bytes(),
			ContentType: w.Header().Get("Content-Type"),
		}, idempotencyTTL)
	}
}

func isMutation(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

func idempotencyCacheKey(c *gin.Context, key string) string {
	user := c.GetHeader(UserIDHeader)
	return "idempotency:" + user + ":" + c.Request.Method + ":" + c.FullPath() + ":" + key
}

// fingerprintBody hashes the request body and rewinds it for the handler.
// Bodies over maxIdempotentBody fail with *http.MaxBytesError.
func fingerprintBody(w http.ResponseWriter, r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIdempotentBody))
	if err != nil {
		return "", err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

// reserve claims cacheKey for this request. When the key is already taken it
// returns the record found there.
func reserve(ctx context.Context, client redis.Cmdable, cacheKey, fingerprint string) (bool, *idempotencyRecord, error) {
	data, err := json.Marshal(idempotencyRecord{Fingerprint: fingerprint, InFlight: true})
	if err != nil {
		return false, nil, err
	}

	ok, err := client.SetNX(ctx, cacheKey, data, inFlightTTL).Result()
	if err != nil {
		return false, nil, err
	}
	if ok {
		return true, nil, nil
	}

	raw, err := client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between the two calls; let the client retry.
		return false, &idempotencyRecord{Fingerprint: fingerprint, InFlight: true}, nil
	}
	if err != nil {
		return false, nil, err
	}

	var existing idempotencyRecord
	if err := json.Unmarshal(raw, &existing); err != nil {
		return false, nil, err
	}
	return false, &existing, nil
}

func replay(c *gin.Context, existing *idempotencyRecord, fingerprint string) {
	switch {
	case existing.Fingerprint != fingerprint:
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "idempotency key reused with a different request"})
	case existing.InFlight:
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "a request with this idempotency key is in progress"})
	default:
		contentType := existing.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		c.Data(existing.StatusCode, contentType, existing.Body)
		c.Abort()
	}
}

func store(ctx context.Context, client redis.Cmdable, cacheKey string, record idempotencyRecord, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return client.Set(ctx, cacheKey, data, ttl).Err()
}
