package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const requestContextKey = "auth_request_context"

// HeaderRequestID is echoed back so callers can correlate audit records.
const HeaderRequestID = "X-Request-ID"

// AuthMiddleware validates bearer tokens and builds the request context.
// Identity only: what an actor may do is decided elsewhere.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	requestID := c.Get(HeaderRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(HeaderRequestID, requestID)

	c.Locals(requestContextKey, domain.RequestContext{
		Actor:     claims.Actor(),
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		RequestID: requestID,
	})
	return c.Next()
}

// RequestContextFrom retrieves the request context stored by Handle.
func RequestContextFrom(c *fiber.Ctx) (domain.RequestContext, bool) {
	rc, ok := c.Locals(requestContextKey).(domain.RequestContext)
	return rc, ok
}
