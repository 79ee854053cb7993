// Package notify tells the coaching staff about roster changes.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/paladarnegro/plantel/models"
)

// Notifier delivers a roster message. Delivery failures are reported but
// callers treat them as non-fatal.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Nop discards every message.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }

func PlayerCreated(p *models.Player) string {
	return fmt.Sprintf("Nuevo jugador: %s %s (%s) – %s",
		p.Name, p.Surname, p.Birthday.Format("02/01/2006"), categoryList(p))
}

func PlayerUpdated(p *models.Player) string {
	return fmt.Sprintf("Jugador actualizado: %s %s – %s", p.Name, p.Surname, categoryList(p))
}

func PlayerDeleted(id int) string {
	return fmt.Sprintf("Jugador #%d eliminado", id)
}

func categoryList(p *models.Player) string {
	names := p.CategoryNames()
	if len(names) == 0 {
		return "sin categoría"
	}
	return strings.Join(names, ", ")
}
