// Package config resolves the server's settings from flags, environment
// variables and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Defaults used when neither a flag nor an environment variable is set.
const (
	DefaultDB   = "premik.sqlite3"
	DefaultAddr = ":8080"
)

// DotenvFile is the optional file of environment defaults.
const DotenvFile = ".env"

// Environment variables read before flags are parsed.
const (
	EnvDB   = "PREMIK_DB"
	EnvAddr = "PREMIK_ADDR"
	EnvLog  = "PREMIK_LOG"
)

// Config holds the resolved server settings.
type Config struct {
	DBPath  string
	Addr    string
	LogPath string
}

const usage = `Usage: premik [flags]

Flags:
  -d, -db <path>          SQLite database path (default: premik.sqlite3, env PREMIK_DB)
  -a, -addr <host:port>   listen address (default: :8080, env PREMIK_ADDR)
  -l, -log <path>         log file path (default: none, env PREMIK_LOG)
  -h, -help               show this help and exit

A .env file in the working directory is loaded if present.
`

// Load reads the optional .env file and parses args. Flags override the
// environment, which overrides the defaults. flag.ErrHelp is returned
// when help was requested.
func Load(args []string, out io.Writer) (*Config, error) {
	if err := loadDotenv(DotenvFile); err != nil {
		return nil, err
	}
	return Parse(args, os.Getenv, out)
}

// loadDotenv loads path into the environment without overriding variables
// already set. A missing file is not an error; a malformed one is.
func loadDotenv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

// Parse resolves settings from args with defaults taken from getenv.
func Parse(args []string, getenv func(string) string, out io.Writer) (*Config, error) {
	fs := flag.NewFlagSet("premik", flag.ContinueOnError)
	fs.SetOutput(out)

	cfg := &Config{}

	dbDefault := envOr(getenv, EnvDB, DefaultDB)
	fs.StringVar(&cfg.DBPath, "db", dbDefault, "")
	fs.StringVar(&cfg.DBPath, "d", dbDefault, "")

	addrDefault := envOr(getenv, EnvAddr, DefaultAddr)
	fs.StringVar(&cfg.Addr, "addr", addrDefault, "")
	fs.StringVar(&cfg.Addr, "a", addrDefault, "")

	logDefault := envOr(getenv, EnvLog, "")
	fs.StringVar(&cfg.LogPath, "log", logDefault, "")
	fs.StringVar(&cfg.LogPath, "l", logDefault, "")

	fs.Usage = func() {
		fmt.Fprint(out, usage)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	return cfg, nil
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}
