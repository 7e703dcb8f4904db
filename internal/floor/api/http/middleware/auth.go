package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"whos-got-my-order/internal/floor/domain/models"
)

const (
	ctxActorID   = "actor_id"
	ctxActorRole = "actor_role"
)

// IssueToken signs an HS256 access token carrying the staff id and role.
func IssueToken(secret string, staff models.Staff, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  staff.ID,
		"role": string(staff.Role),
		"exp":  time.Now().Add(ttl).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// JWTAuth validates a Bearer token and stores the actor's id and role in the
// request context for handlers to read via Actor.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			sub, _ := claims["sub"].(string)
			roleStr, _ := claims["role"].(string)
			role, err := models.ParseRole(roleStr)
			if sub == "" || err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			c.Set(ctxActorID, sub)
			c.Set(ctxActorRole, role)
			return next(c)
		}
	}
}

// RequireRole aborts with 403 unless the actor's role is in the allowed set.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ctxActorRole).(models.Role)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// Actor returns the authenticated staff id and role set by JWTAuth.
func Actor(c echo.Context) (string, models.Role) {
	id, _ := c.Get(ctxActorID).(string)
	role, _ := c.Get(ctxActorRole).(models.Role)
	return id, role
}
