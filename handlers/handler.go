package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	mw "github.com/paladarnegro/plantel/middleware"
	"github.com/paladarnegro/plantel/models"
	"github.com/paladarnegro/plantel/notify"
	"github.com/paladarnegro/plantel/roster"
)

// Accounts looks up sign-in identities and their profiles.
// Both lookups return nil, nil when nothing matches.
type Accounts interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	mw.ProfileFinder
}

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	svc          *roster.Service
	accounts     Accounts
	notifier     notify.Notifier
	jwtKey       []byte
	cookieSecure bool
	now          func() time.Time
}

// New creates a Handler. A nil notifier disables roster notifications.
func New(svc *roster.Service, accounts Accounts, notifier notify.Notifier, jwtKey []byte, cookieSecure bool) *Handler {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Handler{
		svc:          svc,
		accounts:     accounts,
		notifier:     notifier,
		jwtKey:       jwtKey,
		cookieSecure: cookieSecure,
		now:          time.Now,
	}
}

// notify sends text and only logs a failure; roster writes never fail on it.
func (h *Handler) notify(ctx context.Context, text string) {
	if err := h.notifier.Notify(ctx, text); err != nil {
		zap.L().Warn("roster notification failed", zap.Error(err))
	}
}
