package roster

import (
	"errors"
	"strings"
)

var (
	ErrPlayerNotFound   = errors.New("jugador no encontrado")
	ErrCategoryNotFound = errors.New("categoría no encontrada")
	ErrAgentNotFound    = errors.New("representante no encontrado")
)

// ValidationError is returned when client input is rejected before touching storage.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) error { return &ValidationError{Msg: msg} }

// MissingCategoriesError lists requested category names that don't exist.
type MissingCategoriesError struct {
	Names []string
}

func (e *MissingCategoriesError) Error() string {
	return "Categorías no encontradas: " + strings.Join(e.Names, ", ")
}
