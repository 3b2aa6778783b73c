// Package config handles the parsing and validation of application configuration
// from command-line arguments, environment variables and an optional .env file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/bz2vsr/battlezone-combat-commander/internal/logger"
	"github.com/bz2vsr/battlezone-combat-commander/internal/vars"
)

// Config represents the complete application flags configuration.
type Config struct {
	Server    Server        `group:"Server Options" env-namespace:"BZCC"`
	Storage   Storage       `group:"Storage Options" namespace:"db" env-namespace:"BZCC_DB"`
	Relay     Relay         `group:"Relay Options" namespace:"relay" env-namespace:"BZCC_RELAY"`
	Enrich    Enrich        `group:"Enrichment Options" namespace:"enrich" env-namespace:"BZCC_ENRICH"`
	RateLimit RateLimit     `group:"Rate Limit Options" namespace:"rate-limit" env-namespace:"BZCC_RATE_LIMIT"`
	Logger    logger.Config `group:"Logger Options" namespace:"log" env-namespace:"BZCC_LOG"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// Server holds web server configuration for the read API.
type Server struct {
	Address    string        `short:"l" long:"address" env:"LISTEN_ADDRESS" description:"Server listen address" default:":8080"`
	MaxAge     time.Duration `long:"session-max-age" env:"SESSION_MAX_AGE" description:"Max age for sessions listed as current" default:"2m"`
	TrustProxy bool          `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
}

// Storage holds database and one-shot maintenance configuration.
type Storage struct {
	Path           string        `short:"d" long:"path" env:"PATH" description:"Path to SQLite database" default:"bzcc.db"`
	PruneSnapshots time.Duration `long:"prune-snapshots" env:"PRUNE_SNAPSHOTS" description:"Delete snapshots older than duration and exit"`
	PruneEnded     time.Duration `long:"prune-ended" env:"PRUNE_ENDED" description:"Delete sessions ended longer than duration ago and exit"`
	GenerateCount  int           `long:"gen-fake-data" hidden:"true"`
}

// Relay holds configuration for the upstream lobby list endpoint.
type Relay struct {
	URL      string        `short:"u" long:"url" env:"URL" description:"Relay lobby list URL"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Poll interval" default:"5s"`
	Timeout  time.Duration `long:"timeout" env:"TIMEOUT" description:"Fetch timeout" default:"8s"`
	Grace    time.Duration `long:"grace" env:"GRACE" description:"Mark sessions ended after this long without a sighting" default:"2m"`
}

// Enrich holds configuration for the best-effort metadata collaborators.
// An empty base URL or API key disables the corresponding lookup.
type Enrich struct {
	GetdataBase string        `long:"getdata-base" env:"GETDATA_BASE" description:"Base URL of the map/mod getdata endpoint"`
	SteamAPIKey string        `long:"steam-api-key" env:"STEAM_API_KEY" description:"Steam Web API key for profile lookups"`
	Timeout     time.Duration `long:"timeout" env:"TIMEOUT" description:"Lookup timeout" default:"8s"`
}

// RateLimit holds API rate limiting configuration.
type RateLimit struct {
	HardLimitCount int           `long:"hard-count" env:"HARD_COUNT" description:"Hard IP limit: requests count" default:"30"`
	HardLimitWin   time.Duration `long:"hard-window" env:"HARD_WINDOW" description:"Hard IP limit: window duration" default:"1m"`
	SteamPerSec    float64       `long:"steam-per-sec" env:"STEAM_PER_SEC" description:"Outbound Steam API requests per second" default:"1"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	// Local/dev convenience, same as the reference deployment
	_ = godotenv.Load()

	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	if cfg.Relay.URL == "" && cfg.Storage.GenerateCount == 0 &&
		cfg.Storage.PruneSnapshots == 0 && cfg.Storage.PruneEnded == 0 {
		fmt.Fprintln(os.Stderr,
			"Required flag `-u, --relay-url' or environment variable `BZCC_RELAY_URL` was not specified!")
		os.Exit(1)
	}

	return &cfg
}
