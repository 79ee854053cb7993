package models

import "github.com/uptrace/bun"

// Agent is an external representative of one or more players.
type Agent struct {
	bun.BaseModel `bun:"table:agents,alias:a"`

	ID   int    `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,notnull,unique" json:"name"`
}
