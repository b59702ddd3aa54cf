// Command devtoken signs a bearer token with JWT_SECRET for local testing.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"tapandbuy/internal/auth"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")

	userID := flag.String("user", "", "user id (a random one when empty)")
	admin := flag.Bool("admin", false, "grant the admin role")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}

	id := uuid.New()
	if *userID != "" {
		parsed, err := uuid.Parse(*userID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid user id: %v\n", err)
			os.Exit(1)
		}
		id = parsed
	}

	user := auth.User{ID: id}
	if *admin {
		user.Role = auth.RoleAdmin
	}

	token, err := auth.NewVerifier(secret).Sign(user, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
