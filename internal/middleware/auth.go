package middleware

import (
	"net/http"

	"agri-supply/internal/models"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// Context keys the handlers read.
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
	contextToken    = "user"
)

// Claims is the token payload issued by the identity service. Subject carries the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWT verifies an HS256 token from the Authorization header or the token cookie and
// exposes the caller's id and role on the echo context.
func JWT(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(secret),
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		ContextKey:    contextToken,
		TokenLookup:   "header:Authorization:Bearer ,cookie:token",
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(Claims)
		},
		SuccessHandler: func(c echo.Context) {
			token, ok := c.Get(contextToken).(*jwt.Token)
			if !ok {
				return
			}
			if claims, ok := token.Claims.(*Claims); ok {
				c.Set(ContextUserID, claims.Subject)
				c.Set(ContextUserRole, claims.Role)
			}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: models.ErrInvalidToken.Error()})
		},
	})
}

// RequireRole rejects callers whose role is not among roles. It must run after JWT.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextUserRole).(string)
			userID, _ := c.Get(ContextUserID).(string)
			if userID == "" || !allowed[role] {
				return c.JSON(http.StatusForbidden, models.ErrorResponse{Message: models.ErrForbidden.Error()})
			}
			return next(c)
		}
	}
}
