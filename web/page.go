package web

import (
	"errors"
)

// Paths are the page routes exposed to templates.
const (
	Home         = "/"
	Login        = "/login"
	Logout       = "/logout"
	Year         = "/year/:year"
	Category     = "/category/:cat"
	Players      = "/players"
	Player       = "/players/:id"
	PlayerEdit   = "/players/:id/edit"
	PlayerDelete = "/players/:id/delete"
)

// Session is the signed-in user as shown on pages.
type Session struct {
	Email   string
	IsAdmin bool
}

// Page is the data every template receives.
type Page struct {
	Title  string
	User   *Session
	Errors []string
	Data   map[string]any
}

func NewPage(title string) Page {
	return Page{
		Title: title,
		Data:  make(map[string]any),
	}
}

func (p Page) WithUser(user *Session) Page {
	p.User = user
	return p
}

func (p Page) With(key string, value any) Page {
	if p.Data == nil {
		p.Data = make(map[string]any)
	}
	p.Data[key] = value
	return p
}

type multierr interface {
	Unwrap() []error
}

func unwrap(err error) []error {
	var merr multierr
	if errors.As(err, &merr) {
		var errs []error
		for _, err := range merr.Unwrap() {
			errs = append(errs, unwrap(err)...)
		}
		return errs
	}
	return []error{err}
}

// WithErrors flattens joined errors into one message each.
func (p Page) WithErrors(err error) Page {
	if err == nil {
		return p
	}
	for _, err := range unwrap(err) {
		p.Errors = append(p.Errors, err.Error())
	}
	return p
}
