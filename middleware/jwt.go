package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/paladarnegro/plantel/models"
)

// TokenCookie carries the session token for browser requests.
const TokenCookie = "token"

const (
	claimsKey     = "claims"
	sessionErrKey = "session_error"
	profileKey    = "profile"
)

// Claims extends jwt.RegisteredClaims with the signed-in user.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

// NewToken signs a session token for the user valid for ttl.
func NewToken(key []byte, userID uuid.UUID, email string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func parseToken(raw string, key []byte) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !tkn.Valid || claims.UserID == uuid.Nil {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// tokenFrom prefers the Authorization header (with or without "Bearer ")
// over the session cookie.
func tokenFrom(c echo.Context) string {
	if h := strings.TrimSpace(c.Request().Header.Get("Authorization")); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if ck, err := c.Cookie(TokenCookie); err == nil {
		return ck.Value
	}
	return ""
}

// Session parses the request token, if any, and stores its claims on the
// context. It never rejects a request; RequireLogin and RequireAdmin do.
func Session(key []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFrom(c)
			if raw == "" {
				return next(c)
			}
			claims, err := parseToken(raw, key)
			if err != nil {
				zap.L().Debug("rejected session token", zap.Error(err))
				c.Set(sessionErrKey, true)
				return next(c)
			}
			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// ClaimsFrom returns the claims stored by Session.
func ClaimsFrom(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(claimsKey).(*Claims)
	return claims, ok
}

// ProfileFrom returns the profile loaded by RequireAdmin.
func ProfileFrom(c echo.Context) (*models.Profile, bool) {
	p, ok := c.Get(profileKey).(*models.Profile)
	return p, ok
}

// ProfileFinder looks up a user's profile; a nil profile means none exists.
type ProfileFinder interface {
	ProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

func requireSession(c echo.Context) (*Claims, error) {
	if bad, _ := c.Get(sessionErrKey).(bool); bad {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Error de sesión")
	}
	claims, ok := ClaimsFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "No autorizado – debes iniciar sesión")
	}
	return claims, nil
}

// RequireLogin rejects requests without a valid session.
func RequireLogin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := requireSession(c); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// RequireAdmin lets through sessions whose profile has the admin flag.
func RequireAdmin(profiles ProfileFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := requireSession(c)
			if err != nil {
				return err
			}

			profile, err := profiles.ProfileByID(c.Request().Context(), claims.UserID)
			if err != nil {
				zap.L().Error("profile lookup failed", zap.Stringer("user", claims.UserID), zap.Error(err))
				return echo.NewHTTPError(http.StatusInternalServerError, "Error interno")
			}
			if profile == nil {
				return echo.NewHTTPError(http.StatusForbidden, "Usuario no registrado")
			}
			if !profile.IsAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "Acceso denegado – permisos de admin requeridos")
			}

			c.Set(profileKey, profile)
			return next(c)
		}
	}
}
