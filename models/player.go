package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Player is a youth squad player.
type Player struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID          int       `bun:"id,pk,autoincrement" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Surname     string    `bun:"surname,notnull" json:"surname"`
	Position    int       `bun:"position,notnull" json:"position"`
	Description string    `bun:"description,notnull" json:"description"`
	Birthday    time.Time `bun:"birthday,notnull,type:date" json:"birthday"`
	AgentID     *int      `bun:"agent_id" json:"agent_id,omitempty"`

	Agent      *Agent     `bun:"rel:belongs-to,join:agent_id=id" json:"-"`
	Categories []Category `bun:"m2m:player_categories,join:Player=Category" json:"-"`
}

// CategoryNames returns the names of the loaded categories in order.
func (p *Player) CategoryNames() []string {
	names := make([]string, 0, len(p.Categories))
	for _, c := range p.Categories {
		names = append(names, c.Name)
	}
	return names
}

// AgentName is empty when the player has no agent or it wasn't loaded.
func (p *Player) AgentName() string {
	if p.Agent == nil {
		return ""
	}
	return p.Agent.Name
}
