package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ledger-service/internal/core/ports"
	"ledger-service/pkg/apperror"
	"ledger-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	HeaderRequestID = "X-Request-ID"

	// Query parameter accepted when no Authorization header is sent.
	QueryToken = "token"

	// Context keys
	CtxUsername     = "username"
	CtxSessionToken = "session_token"
	CtxResourceID   = "resource_id"
)

// SessionAuth resolves the bearer token to an account and stores the
// username under CtxUsername. Missing or unknown tokens are rejected with 401.
func SessionAuth(authSvc ports.AuthService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Abort(c, apperror.ErrUnauthenticated())
			return
		}

		username, err := authSvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, apperror.ErrUnauthenticated()) {
				log.Error().Err(err).Msg("session lookup failed")
			}
			response.Abort(c, err)
			return
		}

		c.Set(CtxUsername, username)
		c.Set(CtxSessionToken, token)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	return c.Query(QueryToken)
}

// Username returns the authenticated username set by SessionAuth.
func Username(c *gin.Context) (string, bool) {
	username := c.GetString(CtxUsername)
	return username, username != ""
}

// RequestID propagates X-Request-ID or assigns a fresh one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.New().String()
		}
		c.Set(response.RequestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("request_id", c.GetString(response.RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Str("username", c.GetString(CtxUsername)).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				response.Abort(c, apperror.InternalError(fmt.Errorf("panic: %v", r)))
			}
		}()
		c.Next()
	}
}
