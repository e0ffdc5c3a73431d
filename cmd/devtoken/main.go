// Command devtoken mints a bearer token for local testing against the API.
//
//	go run ./cmd/devtoken -user 2
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/01moynul/taptosell-orders/internal/auth"
	"github.com/01moynul/taptosell-orders/internal/config"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	userID := flag.Int64("user", 0, "user ID to put in the token subject")
	ttl := flag.Duration("ttl", auth.DefaultTokenTTL, "token lifetime")
	flag.Parse()

	if *userID <= 0 {
		logger.Fatal().Msg("-user must be a positive user ID")
	}

	cf, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	tok, err := auth.GenerateToken([]byte(cf.JWTSecret), *userID, *ttl)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to sign token")
	}
	fmt.Println(tok)
}
