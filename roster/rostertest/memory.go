// Package rostertest provides an in-memory roster.Repository for tests.
package rostertest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paladarnegro/plantel/models"
	"github.com/paladarnegro/plantel/roster"
)

// Memory is a roster.Repository and account store backed by maps.
// Set Fail[method] to make that method return the error.
type Memory struct {
	mu sync.Mutex

	agents     map[int]models.Agent
	categories map[int]models.Category
	players    map[int]models.Player
	links      map[int][]int
	users      map[string]models.User
	profiles   map[uuid.UUID]models.Profile
	nextID     int

	Fail map[string]error
}

var _ roster.Repository = (*Memory)(nil)

// New returns a store seeded with models.DefaultCategories.
func New() *Memory {
	m := &Memory{
		agents:     map[int]models.Agent{},
		categories: map[int]models.Category{},
		players:    map[int]models.Player{},
		links:      map[int][]int{},
		users:      map[string]models.User{},
		profiles:   map[uuid.UUID]models.Profile{},
		Fail:       map[string]error{},
	}
	for i, name := range models.DefaultCategories {
		m.categories[i+1] = models.Category{ID: i + 1, Name: name}
	}
	m.nextID = 100
	return m
}

func (m *Memory) id() int {
	m.nextID++
	return m.nextID
}

func (m *Memory) fail(method string) error {
	return m.Fail[method]
}

// AddAgent stores an agent and returns its ID.
func (m *Memory) AddAgent(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.agents[id] = models.Agent{ID: id, Name: name}
	return id
}

// AddPlayer stores p linked to the named categories and returns its ID.
func (m *Memory) AddPlayer(p models.Player, categories ...string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	m.players[p.ID] = p
	for _, name := range categories {
		for _, c := range m.categories {
			if c.Name == name {
				m.links[p.ID] = append(m.links[p.ID], c.ID)
			}
		}
	}
	return p.ID
}

// AddUser stores a user with an already hashed password and, if withProfile, a profile.
func (m *Memory) AddUser(email, hash string, withProfile, admin bool) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := models.User{ID: uuid.New(), Email: email, Password: hash}
	m.users[strings.ToLower(email)] = u
	if withProfile {
		m.profiles[u.ID] = models.Profile{ID: u.ID, IsAdmin: admin}
	}
	return u.ID
}

// CategoryNames returns the stored links of a player, bypassing Fail.
func (m *Memory) CategoryNames(playerID int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.loadLocked(m.players[playerID])
	return p.CategoryNames()
}

func (m *Memory) ListAgents(ctx context.Context) ([]models.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListAgents"); err != nil {
		return nil, err
	}
	out := make([]models.Agent, 0, len(m.agents))
	for _, a := range m.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) GetAgent(ctx context.Context, id int) (*models.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.agents[id]
	if !ok {
		return nil, roster.ErrAgentNotFound
	}
	return &a, nil
}

func (m *Memory) ListCategories(ctx context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListCategories"); err != nil {
		return nil, err
	}
	return m.sortedCategoriesLocked(nil), nil
}

func (m *Memory) CategoryByName(ctx context.Context, name string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, roster.ErrCategoryNotFound
}

func (m *Memory) CategoriesByName(ctx context.Context, names []string) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CategoriesByName"); err != nil {
		return nil, err
	}
	want := map[string]bool{}
	for _, n := range names {
		want[n] = true
	}
	return m.sortedCategoriesLocked(func(c models.Category) bool { return want[c.Name] }), nil
}

func (m *Memory) InsertPlayer(ctx context.Context, p *models.Player, categoryIDs []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("InsertPlayer"); err != nil {
		return err
	}
	p.ID = m.id()
	m.players[p.ID] = *p
	m.links[p.ID] = append([]int(nil), categoryIDs...)
	return nil
}

func (m *Memory) UpdatePlayer(ctx context.Context, id int, ch roster.Changes) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdatePlayer"); err != nil {
		return err
	}
	p, ok := m.players[id]
	if !ok {
		return roster.ErrPlayerNotFound
	}
	if ch.Name != nil {
		p.Name = *ch.Name
	}
	if ch.Surname != nil {
		p.Surname = *ch.Surname
	}
	if ch.Position != nil {
		p.Position = *ch.Position
	}
	if ch.Description != nil {
		p.Description = *ch.Description
	}
	if ch.Birthday != nil {
		p.Birthday = *ch.Birthday
	}
	if ch.AgentID != nil {
		v := *ch.AgentID
		p.AgentID = &v
	}
	m.players[id] = p
	if ch.ReplaceCategories {
		m.links[id] = append([]int(nil), ch.CategoryIDs...)
	}
	return nil
}

func (m *Memory) DeletePlayer(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeletePlayer"); err != nil {
		return err
	}
	if _, ok := m.players[id]; !ok {
		return roster.ErrPlayerNotFound
	}
	delete(m.players, id)
	delete(m.links, id)
	return nil
}

func (m *Memory) GetPlayer(ctx context.Context, id int) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetPlayer"); err != nil {
		return nil, err
	}
	p, ok := m.players[id]
	if !ok {
		return nil, roster.ErrPlayerNotFound
	}
	loaded := m.loadLocked(p)
	return &loaded, nil
}

func (m *Memory) PlayersByCategory(ctx context.Context, categoryID int) ([]models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("PlayersByCategory"); err != nil {
		return nil, err
	}
	return m.playersLocked(func(p models.Player) bool {
		for _, id := range m.links[p.ID] {
			if id == categoryID {
				return true
			}
		}
		return false
	}), nil
}

func (m *Memory) PlayersBornBetween(ctx context.Context, from, to time.Time) ([]models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("PlayersBornBetween"); err != nil {
		return nil, err
	}
	return m.playersLocked(func(p models.Player) bool {
		return !p.Birthday.Before(from) && !p.Birthday.After(to)
	}), nil
}

func (m *Memory) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UserByEmail"); err != nil {
		return nil, err
	}
	u, ok := m.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *Memory) ProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ProfileByID"); err != nil {
		return nil, err
	}
	p, ok := m.profiles[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) sortedCategoriesLocked(keep func(models.Category) bool) []models.Category {
	out := []models.Category{}
	for _, c := range m.categories {
		if keep == nil || keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) loadLocked(p models.Player) models.Player {
	linked := map[int]bool{}
	for _, id := range m.links[p.ID] {
		linked[id] = true
	}
	p.Categories = m.sortedCategoriesLocked(func(c models.Category) bool { return linked[c.ID] })
	p.Agent = nil
	if p.AgentID != nil {
		if a, ok := m.agents[*p.AgentID]; ok {
			p.Agent = &a
		}
	}
	return p
}

func (m *Memory) playersLocked(keep func(models.Player) bool) []models.Player {
	out := []models.Player{}
	for _, p := range m.players {
		if keep(p) {
			out = append(out, m.loadLocked(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Surname != out[j].Surname {
			return out[i].Surname < out[j].Surname
		}
		return out[i].Name < out[j].Name
	})
	return out
}
