// Command tokengen mints a bearer token for local calls against the API.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func main() {
	kind := flag.String("kind", string(domain.ActorKindAdminHelpdesk), "actor kind")
	id := flag.String("id", "admin-local", "actor id")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	token, expires, err := tokens.GenerateToken(domain.Actor{Kind: domain.ActorKind(*kind), ID: *id})
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}
	fmt.Println(token)
	log.Printf("expires at %s", expires.Format(time.RFC3339))
}
