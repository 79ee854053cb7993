package models

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is a sign-in identity with a bcrypt-hashed password.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID       uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Email    string    `bun:"email,notnull,unique" json:"email"`
	Password string    `bun:"password,notnull" json:"-"`
}

// Profile carries the authorization flags of a User. Its ID matches User.ID.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:pr"`

	ID      uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	IsAdmin bool      `bun:"is_admin,notnull,default:false" json:"is_admin"`
}
