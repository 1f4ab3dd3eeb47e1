package auth

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/ticketdesk/ticketdesk/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller as the gateway reported
// it: the platform user id plus their role ids.
type Principal struct {
	ActorID string
	Roles   []string
}

// Middleware validates bearer tokens and loads principals.
type Middleware struct {
	tokens *TokenVerifier
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenVerifier) *Middleware {
	return &Middleware{tokens: tokens}
}

// Handle enforces an actor token on protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewDomainError(apperrors.CodeAccessDenied,
			"missing authorization header", http.StatusUnauthorized, nil)
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewDomainError(apperrors.CodeAccessDenied,
			"invalid authorization header", http.StatusUnauthorized, nil)
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewDomainError(apperrors.CodeAccessDenied,
			"invalid token", http.StatusUnauthorized, nil)
	}

	c.Locals(principalKey, &Principal{ActorID: claims.ActorID, Roles: claims.Roles})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	principal, ok := c.Locals(principalKey).(*Principal)
	return principal, ok
}

// RequireActor ensures an authenticated actor is present.
func RequireActor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}
