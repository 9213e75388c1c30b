// Command issuetoken mints a merchant bearer token for the order API.
//
// The key is read from AUTH_KEY; without it a new key is generated and
// printed so the server can be started with it.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/MikeRez0/paygate/internal/adapter/auth"
	"github.com/MikeRez0/paygate/internal/adapter/config"
	"github.com/caarlos0/env/v6"
)

func main() {
	var conf config.Auth
	if err := env.Parse(&conf); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %s\n", err)
		os.Exit(1)
	}

	merchant := flag.String("merchant", "", "Merchant id put into the token subject")
	ttl := flag.Duration("ttl", conf.TokenTTL, "Token lifetime")
	flag.Parse()

	if *merchant == "" {
		fmt.Fprintln(os.Stderr, "-merchant is required")
		os.Exit(2)
	}
	conf.TokenTTL = *ttl

	generated := conf.KeyHex == ""
	tokens, err := auth.New(&conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token service error: %s\n", err)
		os.Exit(1)
	}

	token, err := tokens.CreateToken(*merchant)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token error: %s\n", err)
		os.Exit(1)
	}

	if generated {
		fmt.Printf("AUTH_KEY=%s\n", tokens.KeyHex())
	}
	fmt.Printf("token=%s\n", token)
	fmt.Printf("expires=%s\n", time.Now().Add(conf.TokenTTL).UTC().Format(time.RFC3339))
}
