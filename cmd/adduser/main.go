// cmd/adduser/main.go
// Creates or updates a user and its profile.
//
// Usage:
//
//	go run ./cmd/adduser -email dt@club.com -password secreto -admin
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/paladarnegro/plantel/config"
	bundb "github.com/paladarnegro/plantel/db"
	"github.com/paladarnegro/plantel/handlers"
	"github.com/paladarnegro/plantel/models"
)

func main() {
	email := flag.String("email", "", "email (required)")
	password := flag.String("password", "", "plain-text password (required)")
	admin := flag.Bool("admin", false, "grant write access to the roster")
	flag.Parse()

	addr := strings.ToLower(strings.TrimSpace(*email))
	if addr == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}

	hash, err := handlers.HashPassword(*password)
	if err != nil {
		log.Fatal("bcrypt:", err)
	}

	cfg := config.LoadDB()
	db := bundb.Setup(cfg)
	defer db.Close()

	ctx := context.Background()
	if err := bundb.CreateTables(ctx, db); err != nil {
		log.Fatal("create tables:", err)
	}

	user := &models.User{
		ID:       uuid.New(),
		Email:    addr,
		Password: hash,
	}
	if err := bundb.NewStore(db).SaveUser(ctx, user, *admin); err != nil {
		log.Fatal("save user:", err)
	}

	fmt.Printf("user %q saved (id %s, admin %t)\n", addr, user.ID, *admin)
}
