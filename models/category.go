package models

import "github.com/uptrace/bun"

// Category is a squad division such as "cuarta".
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:c"`

	ID   int    `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,notnull,unique" json:"name"`
}

// PlayerCategory links players and categories.
type PlayerCategory struct {
	bun.BaseModel `bun:"table:player_categories,alias:pc"`

	PlayerID   int       `bun:"player_id,pk"`
	Player     *Player   `bun:"rel:belongs-to,join:player_id=id"`
	CategoryID int       `bun:"category_id,pk"`
	Category   *Category `bun:"rel:belongs-to,join:category_id=id"`
}

// DefaultCategories is the seed set, in display order.
var DefaultCategories = []string{
	"reserva",
	"cuarta",
	"quinta",
	"sexta",
	"septima",
	"octava",
	"novena",
	"decima",
}
