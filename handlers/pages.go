package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/paladarnegro/plantel/notify"
	"github.com/paladarnegro/plantel/roster"
	"github.com/paladarnegro/plantel/web"
)

// Birth years shown on the home page, newest first.
const (
	firstYear = 2018
	lastYear  = 2003
)

func homeYears() []int {
	years := make([]int, 0, firstYear-lastYear+1)
	for y := firstYear; y >= lastYear; y-- {
		years = append(years, y)
	}
	return years
}

// page starts a page for the current session.
func (h *Handler) page(c echo.Context, title string) (web.Page, error) {
	s, err := h.session(c)
	if err != nil {
		return web.Page{}, err
	}
	return web.NewPage(title).WithUser(s), nil
}

// formData adds what the player form needs: agents and categories.
func (h *Handler) formData(c echo.Context, p web.Page) (web.Page, error) {
	ctx := c.Request().Context()
	cats, err := h.svc.ListCategories(ctx)
	if err != nil {
		return p, err
	}
	p = p.With("Categories", cats)
	if p.User == nil || !p.User.IsAdmin {
		return p, nil
	}
	agents, err := h.svc.ListAgents(ctx)
	if err != nil {
		return p, err
	}
	return p.With("Agents", agents), nil
}

func (h *Handler) renderHome(c echo.Context, failure error) error {
	p, err := h.page(c, "Inicio")
	if err != nil {
		return err
	}
	if p, err = h.formData(c, p); err != nil {
		return err
	}
	p = p.With("Years", homeYears())
	if failure != nil {
		status, msg := statusAndMessage(failure)
		return c.Render(status, "home", p.WithErrors(errors.New(msg)))
	}
	return c.Render(http.StatusOK, "home", p)
}

// HomePage shows the year and category tiles and, for admins, the add form.
func (h *Handler) HomePage(c echo.Context) error {
	return h.renderHome(c, nil)
}

func (h *Handler) renderPlayers(c echo.Context, heading string, list func() ([]playerData, error)) error {
	p, err := h.page(c, heading)
	if err != nil {
		return err
	}
	p = p.With("Heading", heading)
	players, err := list()
	if err != nil {
		status, msg := statusAndMessage(err)
		return c.Render(status, "players", p.With("Players", []playerData{}).WithErrors(errors.New(msg)))
	}
	return c.Render(http.StatusOK, "players", p.With("Players", players))
}

// YearPage lists the players born in a year.
func (h *Handler) YearPage(c echo.Context) error {
	year := c.Param("year")
	return h.renderPlayers(c, "Jugadores nacidos en "+year, func() ([]playerData, error) {
		players, err := h.svc.PlayersByYear(c.Request().Context(), year)
		if err != nil {
			return nil, err
		}
		return h.playerList(players), nil
	})
}

// CategoryPage lists the players of a category.
func (h *Handler) CategoryPage(c echo.Context) error {
	cat := c.Param("cat")
	return h.renderPlayers(c, "Categoría "+web.Title(cat), func() ([]playerData, error) {
		players, err := h.svc.PlayersByCategory(c.Request().Context(), cat)
		if err != nil {
			return nil, err
		}
		return h.playerList(players), nil
	})
}

// PlayerPage shows one player.
func (h *Handler) PlayerPage(c echo.Context) error {
	id, err := playerID(c)
	if err != nil {
		return err
	}
	pl, err := h.svc.GetPlayer(c.Request().Context(), id)
	if err != nil {
		return rosterError(err)
	}
	data := newPlayerData(pl, h.now())
	p, err := h.page(c, data.Name+" "+data.Surname)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "player", p.With("Player", data))
}

func (h *Handler) renderEdit(c echo.Context, id int, failure error) error {
	pl, err := h.svc.GetPlayer(c.Request().Context(), id)
	if err != nil {
		return rosterError(err)
	}
	data := newPlayerData(pl, h.now())
	p, err := h.page(c, "Editar jugador")
	if err != nil {
		return err
	}
	if p, err = h.formData(c, p.With("Player", data)); err != nil {
		return err
	}
	if failure != nil {
		status, msg := statusAndMessage(failure)
		return c.Render(status, "edit", p.WithErrors(errors.New(msg)))
	}
	return c.Render(http.StatusOK, "edit", p)
}

// EditPage shows the edit form for a player.
func (h *Handler) EditPage(c echo.Context) error {
	id, err := playerID(c)
	if err != nil {
		return err
	}
	return h.renderEdit(c, id, nil)
}

// formString returns the trimmed value of key, or nil when the form does
// not carry the field.
func formString(c echo.Context, key string) *string {
	form, err := c.FormParams()
	if err != nil {
		return nil
	}
	if _, ok := form[key]; !ok {
		return nil
	}
	v := strings.TrimSpace(form.Get(key))
	return &v
}

func formInt(c echo.Context, key string) (*int, error) {
	v := formString(c, key)
	if v == nil || *v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(*v)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s debe ser un número", key))
	}
	return &n, nil
}

func formCategories(c echo.Context) []string {
	form, err := c.FormParams()
	if err != nil {
		return nil
	}
	return form["categories"]
}

// UpdateForm applies the edit form. Category checkboxes replace the set
// only when at least one is ticked.
func (h *Handler) UpdateForm(c echo.Context) error {
	id, err := playerID(c)
	if err != nil {
		return err
	}
	in := roster.UpdateInput{
		Name:        formString(c, "name"),
		Surname:     formString(c, "surname"),
		Description: formString(c, "description"),
		Birthday:    formString(c, "birthday"),
	}
	if in.Position, err = formInt(c, "position"); err != nil {
		return h.renderEdit(c, id, err)
	}
	if in.AgentID, err = formInt(c, "agent_id"); err != nil {
		return h.renderEdit(c, id, err)
	}
	if cats := formCategories(c); len(cats) > 0 {
		in.Categories = &cats
	}

	ctx := c.Request().Context()
	p, err := h.svc.UpdatePlayer(ctx, id, in)
	if err != nil {
		if errors.Is(err, roster.ErrPlayerNotFound) {
			return rosterError(err)
		}
		return h.renderEdit(c, id, err)
	}
	h.notify(ctx, notify.PlayerUpdated(p))
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/players/%d", p.ID))
}

// CreateForm adds a player from the home page form.
func (h *Handler) CreateForm(c echo.Context) error {
	in := roster.CreateInput{
		Categories: formCategories(c),
	}
	if v := formString(c, "name"); v != nil {
		in.Name = *v
	}
	if v := formString(c, "surname"); v != nil {
		in.Surname = *v
	}
	if v := formString(c, "description"); v != nil {
		in.Description = *v
	}
	if v := formString(c, "birthday"); v != nil {
		in.Birthday = *v
	}
	position, err := formInt(c, "position")
	if err != nil {
		return h.renderHome(c, err)
	}
	if position != nil {
		in.Position = *position
	}
	if in.AgentID, err = formInt(c, "agent_id"); err != nil {
		return h.renderHome(c, err)
	}

	ctx := c.Request().Context()
	p, err := h.svc.CreatePlayer(ctx, in)
	if err != nil {
		return h.renderHome(c, err)
	}
	h.notify(ctx, notify.PlayerCreated(p))
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/players/%d", p.ID))
}

// DeleteForm removes a player and goes back home.
func (h *Handler) DeleteForm(c echo.Context) error {
	id, err := playerID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.DeletePlayer(ctx, id); err != nil {
		return rosterError(err)
	}
	h.notify(ctx, notify.PlayerDeleted(id))
	return c.Redirect(http.StatusSeeOther, web.Home)
}

// LoginForm signs in from the home page.
func (h *Handler) LoginForm(c echo.Context) error {
	creds := credentials{
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
	}
	if _, err := h.signIn(c, creds); err != nil {
		return h.renderHome(c, err)
	}
	return c.Redirect(http.StatusSeeOther, web.Home)
}

// LogoutForm drops the session and goes back home.
func (h *Handler) LogoutForm(c echo.Context) error {
	h.clearSession(c)
	return c.Redirect(http.StatusSeeOther, web.Home)
}
