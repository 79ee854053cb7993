package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paladarnegro/plantel/models"
)

type recordingSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (r *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		r.sent = append(r.sent, msg)
	}
	return tgbotapi.Message{}, r.err
}

func TestTelegramNotify(t *testing.T) {
	rec := &recordingSender{}
	tg := &Telegram{bot: rec, chatID: -42}

	require.NoError(t, tg.Notify(context.Background(), "hola"))
	require.Len(t, rec.sent, 1)
	assert.Equal(t, int64(-42), rec.sent[0].ChatID)
	assert.Equal(t, "hola", rec.sent[0].Text)

	rec.err = errors.New("boom")
	assert.ErrorContains(t, tg.Notify(context.Background(), "x"), "boom")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tg.Notify(ctx, "late"), context.Canceled)
	assert.Len(t, rec.sent, 2)
}

func TestMessages(t *testing.T) {
	p := &models.Player{
		Name:     "Santiago",
		Surname:  "Montiel",
		Birthday: time.Date(2008, time.April, 12, 0, 0, 0, 0, time.UTC),
		Categories: []models.Category{
			{ID: 2, Name: "cuarta"},
			{ID: 3, Name: "quinta"},
		},
	}
	assert.Equal(t, "Nuevo jugador: Santiago Montiel (12/04/2008) – cuarta, quinta", PlayerCreated(p))

	p.Categories = nil
	assert.Equal(t, "Jugador actualizado: Santiago Montiel – sin categoría", PlayerUpdated(p))
	assert.Equal(t, "Jugador #7 eliminado", PlayerDeleted(7))
}
