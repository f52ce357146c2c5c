// Command devtoken mints a JWT accepted by the API, signed with JWT_SECRET.
// Login is served elsewhere; this exists for local testing.
//
//	go run ./cmd/devtoken -user 65f0c0ffee0000000000abcd -ttl 2h
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"campusevents/config"
	"campusevents/internal/adapters/auth"
)

func main() {
	userID := flag.String("user", "", "user id placed in the token subject (required)")
	email := flag.String("email", "", "email claim")
	roles := flag.String("roles", "", "comma-separated roles claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if *userID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var roleList []string
	for _, r := range strings.Split(*roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roleList = append(roleList, r)
		}
	}

	token, err := auth.NewJWTIssuer(cfg.JWTSecret).Issue(*userID, *email, roleList, *ttl)
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}
	fmt.Println(token)
}
