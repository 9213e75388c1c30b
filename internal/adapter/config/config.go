package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Database *Database
	HTTP     *HTTP
	App      *App
	Auth     *Auth
	Webhook  *Webhook
	Card     *Card
	Wallet   *Wallet
	Regional *Regional
	Redis    *Redis
	Rabbit   *Rabbit
}

const AppModeProduction = "PROD"
const AppModeDevelop = "DEV"

const (
	RefreshFallbackStale = "stale"
	RefreshFallbackFail  = "fail"
)

type App struct {
	LogLevel string `env:"LOG_LEVEL"`
	Mode     string `env:"APP_MODE"`
}

type Database struct {
	DSN string `env:"DATABASE_URI"`
}

type HTTP struct {
	HostString string `env:"RUN_ADDRESS"`
}

type Auth struct {
	// KeyHex is a hex encoded V4 symmetric key; empty means a random key per process.
	KeyHex   string        `env:"AUTH_KEY"`
	TokenTTL time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"720h"`
}

type Webhook struct {
	StrictVerify    bool   `env:"WEBHOOK_STRICT_VERIFY"`
	RefreshFallback string `env:"REFRESH_FALLBACK"`
}

type Card struct {
	BaseURL       string        `env:"CARD_BASE_URL" envDefault:"https://api.stripe.com"`
	SecretKey     string        `env:"CARD_SECRET_KEY"`
	WebhookSecret string        `env:"CARD_WEBHOOK_SECRET"`
	Timeout       time.Duration `env:"CARD_TIMEOUT" envDefault:"15s"`
}

type Wallet struct {
	Env       string        `env:"WALLET_ENV" envDefault:"sandbox"`
	BaseURL   string        `env:"WALLET_BASE_URL"`
	ClientID  string        `env:"WALLET_CLIENT_ID"`
	Secret    string        `env:"WALLET_SECRET"`
	WebhookID string        `env:"WALLET_WEBHOOK_ID"`
	ReturnURL string        `env:"WALLET_RETURN_URL" envDefault:"https://example.com/success"`
	CancelURL string        `env:"WALLET_CANCEL_URL" envDefault:"https://example.com/cancel"`
	Timeout   time.Duration `env:"WALLET_TIMEOUT" envDefault:"15s"`
}

type Regional struct {
	BaseURL       string        `env:"REGIONAL_BASE_URL" envDefault:"https://api.tropipay.com"`
	APIKey        string        `env:"REGIONAL_API_KEY"`
	WebhookSecret string        `env:"REGIONAL_WEBHOOK_SECRET"`
	Timeout       time.Duration `env:"REGIONAL_TIMEOUT" envDefault:"15s"`
}

type Redis struct {
	URL string `env:"REDIS_URL"`
}

type Rabbit struct {
	URL      string `env:"RABBIT_URL"`
	Exchange string `env:"RABBIT_EXCHANGE" envDefault:"payments.order_status"`
}

func NewConfig() (*Config, error) {
	return NewConfigFromArgs(os.Args[1:])
}

func NewConfigFromArgs(args []string) (*Config, error) {
	var db Database
	var http HTTP
	var app App
	var webhook Webhook

	fs := flag.NewFlagSet("paygate", flag.ContinueOnError)
	fs.StringVar(&db.DSN, "d", "", "Database string")
	fs.StringVar(&http.HostString, "a", `localhost:8080`, "HTTP server endpoint")
	fs.StringVar(&app.LogLevel, "l", `info`, "Log level")
	fs.StringVar(&app.Mode, "m", AppModeDevelop, "PROD / DEV")
	fs.BoolVar(&webhook.StrictVerify, "strict", false, "Drop webhook events that fail verification")
	fs.StringVar(&webhook.RefreshFallback, "fallback", RefreshFallbackStale,
		"Reused order refresh failure policy: stale / fail")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	config := Config{
		Database: &db,
		HTTP:     &http,
		App:      &app,
		Webhook:  &webhook,
		Auth:     &Auth{},
		Card:     &Card{},
		Wallet:   &Wallet{},
		Regional: &Regional{},
		Redis:    &Redis{},
		Rabbit:   &Rabbit{},
	}

	sections := []struct {
		name string
		v    any
	}{
		{"database", config.Database},
		{"http", config.HTTP},
		{"app", config.App},
		{"webhook", config.Webhook},
		{"auth", config.Auth},
		{"card", config.Card},
		{"wallet", config.Wallet},
		{"regional", config.Regional},
		{"redis", config.Redis},
		{"rabbit", config.Rabbit},
	}
	for _, s := range sections {
		if err := env.Parse(s.v); err != nil {
			return nil, fmt.Errorf("error parsing env %s config: %w", s.name, err)
		}
	}

	switch webhook.RefreshFallback {
	case RefreshFallbackStale, RefreshFallbackFail:
	default:
		return nil, fmt.Errorf("unknown refresh fallback %q", webhook.RefreshFallback)
	}

	return &config, nil
}
