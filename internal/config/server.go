package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultPort   = 8080
	defaultDBPath = "data/cheathub.db"
)

// Server holds the API server settings. They come from the environment,
// optionally seeded from a .env file.
type Server struct {
	Port      int
	DBPath    string
	JWTSecret string
	LogLevel  slog.Level
}

// LoadServer reads envFile (when it exists) into the environment without
// overriding variables that are already set, then parses:
//
//	PORT        default 8080
//	DB_PATH     default data/cheathub.db
//	JWT_SECRET  required
//	LOG_LEVEL   debug|info|warn|error, default info
func LoadServer(envFile string) (Server, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Server{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Server{Port: defaultPort, DBPath: defaultDBPath, LogLevel: slog.LevelInfo}

	if raw := strings.TrimSpace(os.Getenv("PORT")); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Server{}, fmt.Errorf("invalid PORT value %q", raw)
		}
		cfg.Port = port
	}

	if raw := strings.TrimSpace(os.Getenv("DB_PATH")); raw != "" {
		cfg.DBPath = raw
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return Server{}, errors.New("JWT_SECRET must be set")
	}

	if raw := strings.TrimSpace(os.Getenv("LOG_LEVEL")); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			return Server{}, fmt.Errorf("invalid LOG_LEVEL value %q", raw)
		}
	}

	return cfg, nil
}
