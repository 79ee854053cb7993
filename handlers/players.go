package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/paladarnegro/plantel/models"
	"github.com/paladarnegro/plantel/notify"
	"github.com/paladarnegro/plantel/roster"
)

// playerData is a player as returned by the API and shown on pages.
type playerData struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Surname     string   `json:"surname"`
	Position    int      `json:"position"`
	Description string   `json:"description"`
	Birthday    string   `json:"birthday"`
	Age         int      `json:"age"`
	AgentID     *int     `json:"agent_id,omitempty"`
	AgentName   string   `json:"agentName,omitempty"`
	Categories  []string `json:"categories"`
}

func newPlayerData(p *models.Player, now time.Time) playerData {
	return playerData{
		ID:          p.ID,
		Name:        p.Name,
		Surname:     p.Surname,
		Position:    p.Position,
		Description: p.Description,
		Birthday:    p.Birthday.Format(roster.DateLayout),
		Age:         roster.Age(p.Birthday, now),
		AgentID:     p.AgentID,
		AgentName:   p.AgentName(),
		Categories:  p.CategoryNames(),
	}
}

func (h *Handler) playerList(players []models.Player) []playerData {
	now := h.now()
	out := make([]playerData, 0, len(players))
	for i := range players {
		out = append(out, newPlayerData(&players[i], now))
	}
	return out
}

// positionValue accepts a JSON number or a numeric string such as "4".
type positionValue int

var errBadPosition = errors.New("position debe ser un número")

func (p *positionValue) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if s == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
		if s == "" {
			*p = 0
			return nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return errBadPosition
	}
	*p = positionValue(n)
	return nil
}

func (p *positionValue) intPtr() *int {
	if p == nil {
		return nil
	}
	n := int(*p)
	return &n
}

type createRequest struct {
	Name        string          `json:"name"`
	Surname     string          `json:"surname"`
	Position    positionValue   `json:"position"`
	Description string          `json:"description"`
	Birthday    string          `json:"birthday"`
	AgentID     *int            `json:"agent_id"`
	Categories  json.RawMessage `json:"categories"`
}

type updateRequest struct {
	Name        *string         `json:"name"`
	Surname     *string         `json:"surname"`
	Position    *positionValue  `json:"position"`
	Description *string         `json:"description"`
	Birthday    *string         `json:"birthday"`
	AgentID     *int            `json:"agent_id"`
	Categories  json.RawMessage `json:"categories"`
}

type playerResponse struct {
	Message string      `json:"message"`
	Player  *playerData `json:"player,omitempty"`
}

var errBadBody = echo.NewHTTPError(http.StatusBadRequest, "Cuerpo de solicitud inválido")

// bindError keeps the position message and reports anything else as a bad body.
func bindError(err error) error {
	if errors.Is(err, errBadPosition) {
		return echo.NewHTTPError(http.StatusBadRequest, errBadPosition.Error())
	}
	return errBadBody
}

// categoryNames decodes a categories value. A missing or null value yields
// nil, false; anything other than an array of strings is rejected.
func categoryNames(raw json.RawMessage) ([]string, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false, nil
	}
	names := []string{}
	if raw[0] != '[' || json.Unmarshal(raw, &names) != nil {
		return nil, false, echo.NewHTTPError(http.StatusBadRequest, "categories debe ser un array")
	}
	return names, true, nil
}

func playerID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "ID de jugador inválido")
	}
	return id, nil
}

// ListAgents returns every agent by name.
func (h *Handler) ListAgents(c echo.Context) error {
	agents, err := h.svc.ListAgents(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, agents)
}

// ListCategories returns the squad categories in seed order.
func (h *Handler) ListCategories(c echo.Context) error {
	cats, err := h.svc.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cats)
}

// CreatePlayer stores a new player with at least one category.
func (h *Handler) CreatePlayer(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	// A non-array categories value counts as missing.
	names, _, _ := categoryNames(req.Categories)

	ctx := c.Request().Context()
	p, err := h.svc.CreatePlayer(ctx, roster.CreateInput{
		Name:        req.Name,
		Surname:     req.Surname,
		Position:    int(req.Position),
		Description: req.Description,
		Birthday:    req.Birthday,
		Categories:  names,
		AgentID:     req.AgentID,
	})
	if err != nil {
		return rosterError(err)
	}
	h.notify(ctx, notify.PlayerCreated(p))

	data := newPlayerData(p, h.now())
	return c.JSON(http.StatusCreated, playerResponse{Message: "Jugador creado exitosamente", Player: &data})
}

// GetPlayer returns one player with categories and agent.
func (h *Handler) GetPlayer(c echo.Context) error {
	id, err := playerID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.GetPlayer(c.Request().Context(), id)
	if err != nil {
		return rosterError(err)
	}
	return c.JSON(http.StatusOK, newPlayerData(p, h.now()))
}

// UpdatePlayer applies a partial update. An id in the body is ignored.
func (h *Handler) UpdatePlayer(c echo.Context) error {
	id, err := playerID(c)
	if err != nil {
		return err
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	in := roster.UpdateInput{
		Name:        req.Name,
		Surname:     req.Surname,
		Position:    req.Position.intPtr(),
		Description: req.Description,
		Birthday:    req.Birthday,
		AgentID:     req.AgentID,
	}
	names, present, err := categoryNames(req.Categories)
	if err != nil {
		return err
	}
	if present {
		in.Categories = &names
	}

	ctx := c.Request().Context()
	p, err := h.svc.UpdatePlayer(ctx, id, in)
	if err != nil {
		return rosterError(err)
	}
	h.notify(ctx, notify.PlayerUpdated(p))

	data := newPlayerData(p, h.now())
	return c.JSON(http.StatusOK, playerResponse{Message: "Jugador actualizado exitosamente", Player: &data})
}

// DeletePlayer removes a player and its category links.
func (h *Handler) DeletePlayer(c echo.Context) error {
	id, err := playerID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.DeletePlayer(ctx, id); err != nil {
		return rosterError(err)
	}
	h.notify(ctx, notify.PlayerDeleted(id))
	return c.JSON(http.StatusOK, playerResponse{Message: "Jugador eliminado exitosamente"})
}

// PlayersByCategory lists the players of a squad category.
func (h *Handler) PlayersByCategory(c echo.Context) error {
	players, err := h.svc.PlayersByCategory(c.Request().Context(), c.Param("cat"))
	if err != nil {
		return rosterError(err)
	}
	return c.JSON(http.StatusOK, h.playerList(players))
}

// PlayersByYear lists the players born in a calendar year.
func (h *Handler) PlayersByYear(c echo.Context) error {
	players, err := h.svc.PlayersByYear(c.Request().Context(), c.Param("year"))
	if err != nil {
		return rosterError(err)
	}
	return c.JSON(http.StatusOK, h.playerList(players))
}
