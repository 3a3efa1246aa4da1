package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultClientPath = "~/.config/cheathub/config.toml"
	defaultAPIURL     = "http://127.0.0.1:8080"
	defaultTimeout    = 10 * time.Second

	// TokenEnv overrides the token stored in the config file.
	TokenEnv = "CHEATHUB_TOKEN"
)

// Client is the CLI's view of the world: where the API lives and who we are.
type Client struct {
	APIURL   string
	Username string
	Token    string
	Timeout  time.Duration

	// Path is the file the values were read from (or would be written to).
	Path string
}

type rawClient struct {
	APIURL         string `toml:"api_url"`
	Username       string `toml:"username,omitempty"`
	Token          string `toml:"token,omitempty"`
	TimeoutSeconds int    `toml:"timeout_seconds,omitempty"`
}

// LoadClient reads the client config at path (the default location when
// empty). A missing file yields defaults.
func LoadClient(path string) (Client, error) {
	resolved, err := resolvePath(path, defaultClientPath)
	if err != nil {
		return Client{}, err
	}

	cfg := Client{APIURL: defaultAPIURL, Timeout: defaultTimeout, Path: resolved}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.applyEnv()
			return cfg, nil
		}
		return Client{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Client{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawClient
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Client{}, fmt.Errorf("parse config: %w", err)
	}

	if u := strings.TrimRight(strings.TrimSpace(raw.APIURL), "/"); u != "" {
		cfg.APIURL = u
	}
	cfg.Username = strings.TrimSpace(raw.Username)
	cfg.Token = strings.TrimSpace(raw.Token)
	if raw.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(raw.TimeoutSeconds) * time.Second
	}
	cfg.applyEnv()

	return cfg, nil
}

func (c *Client) applyEnv() {
	if token := strings.TrimSpace(os.Getenv(TokenEnv)); token != "" {
		c.Token = token
	}
}

// Anonymous reports whether there is no logged-in user.
func (c Client) Anonymous() bool {
	return c.Username == "" || c.Token == ""
}

// Save writes the config back to c.Path with owner-only permissions,
// since it holds a bearer token.
func (c Client) Save() error {
	if c.Path == "" {
		return errors.New("config: no path to save to")
	}

	raw := rawClient{
		APIURL:         c.APIURL,
		Username:       c.Username,
		Token:          c.Token,
		TimeoutSeconds: int(c.Timeout / time.Second),
	}
	bytes, err := toml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.Path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(c.Path, bytes, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func resolvePath(path, fallback string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(fallback)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
