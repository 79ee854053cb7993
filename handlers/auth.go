package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	mw "github.com/paladarnegro/plantel/middleware"
	"github.com/paladarnegro/plantel/web"
)

const sessionTTL = 30 * 24 * time.Hour

type credentials struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

var errBadCredentials = echo.NewHTTPError(http.StatusUnauthorized, "Email o contraseña incorrectos")

// HashPassword validates a new password and returns its bcrypt hash.
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is required")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// signIn checks the credentials, sets the session cookie and returns the token.
func (h *Handler) signIn(c echo.Context, creds credentials) (string, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" || creds.Password == "" {
		return "", errBadCredentials
	}

	user, err := h.accounts.UserByEmail(c.Request().Context(), email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		return "", errBadCredentials
	}

	token, expiresAt, err := mw.NewToken(h.jwtKey, user.ID, user.Email, sessionTTL)
	if err != nil {
		return "", err
	}
	c.SetCookie(&http.Cookie{
		Name:     mw.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	zap.L().Info("signed in", zap.String("email", user.Email))
	return token, nil
}

func (h *Handler) clearSession(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     mw.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Signin validates credentials and returns a JWT token valid for 30 days.
func (h *Handler) Signin(c echo.Context) error {
	var creds credentials
	if err := c.Bind(&creds); err != nil {
		return errBadBody
	}
	token, err := h.signIn(c, creds)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

// Signout drops the session cookie.
func (h *Handler) Signout(c echo.Context) error {
	h.clearSession(c)
	return c.NoContent(http.StatusNoContent)
}

// Me describes the current session.
func (h *Handler) Me(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"email": s.Email, "isAdmin": s.IsAdmin})
}

// sessionOf reads the session from the context without touching storage.
// IsAdmin is only known once RequireAdmin has loaded the profile.
func sessionOf(c echo.Context) *web.Session {
	claims, ok := mw.ClaimsFrom(c)
	if !ok {
		return nil
	}
	s := &web.Session{Email: claims.Email}
	if p, ok := mw.ProfileFrom(c); ok {
		s.IsAdmin = p.IsAdmin
	}
	return s
}

// session resolves the current user and their admin flag. It returns nil
// for anonymous requests.
func (h *Handler) session(c echo.Context) (*web.Session, error) {
	s := sessionOf(c)
	if s == nil || s.IsAdmin {
		return s, nil
	}
	claims, _ := mw.ClaimsFrom(c)
	profile, err := h.accounts.ProfileByID(c.Request().Context(), claims.UserID)
	if err != nil {
		return nil, err
	}
	s.IsAdmin = profile != nil && profile.IsAdmin
	return s, nil
}
