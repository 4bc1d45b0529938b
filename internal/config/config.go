package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Provider names accepted in the fetch section.
const (
	ProviderGmail = "gmail"
	ProviderIMAP  = "imap"
)

// Environment variables consulted for secrets.
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvIMAPPassword = "BEACON_IMAP_PASSWORD"
)

// Fetch controls which mailbox is read and how much of it.
type Fetch struct {
	// Provider selects the mail source: "gmail" or "imap".
	Provider string `toml:"provider"`

	// Account is the named Google account (gmail provider only).
	Account string `toml:"account"`

	// Query is the Gmail search query (gmail provider only).
	Query string `toml:"query"`

	// MaxMessages caps how many messages a single run fetches.
	MaxMessages int `toml:"max_messages"`
}

// IMAP holds the IMAP connection settings. The password comes from
// BEACON_IMAP_PASSWORD, never from the file.
type IMAP struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Mailbox  string `toml:"mailbox"`
}

// LLM configures the analysis model. The API key comes from GEMINI_API_KEY.
type LLM struct {
	Enabled   bool   `toml:"enabled"`
	Model     string `toml:"model"`
	BatchSize int    `toml:"batch_size"`

	// MaxRetries bounds retry attempts per batch on transient failures.
	MaxRetries int `toml:"max_retries"`

	// RequestsPerMinute is the client-side rate limit for batch calls.
	RequestsPerMinute int `toml:"requests_per_minute"`

	// ExcerptChars bounds how much of each message body goes into the
	// prompt.
	ExcerptChars int `toml:"excerpt_chars"`
}

// Store configures the local SQLite cache.
type Store struct {
	// Path is the database file location.
	Path string `toml:"path"`

	// TTLHours is how long an analyzed message stays deduplicated.
	TTLHours int `toml:"ttl_hours"`
}

// Server configures the HTTP digest server.
type Server struct {
	Bind        string `toml:"bind"`
	MetricsBind string `toml:"metrics_bind"`
}

// Config is the root configuration object.
type Config struct {
	Fetch  Fetch  `toml:"fetch"`
	IMAP   IMAP   `toml:"imap"`
	LLM    LLM    `toml:"llm"`
	Store  Store  `toml:"store"`
	Server Server `toml:"server"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Fetch: Fetch{
			Provider:    ProviderGmail,
			Account:     "default",
			Query:       "in:inbox newer_than:7d",
			MaxMessages: 100,
		},
		IMAP: IMAP{
			Port:    993,
			Mailbox: "INBOX",
		},
		LLM: LLM{
			Enabled:           true,
			Model:             "gemini-2.0-flash",
			BatchSize:         8,
			MaxRetries:        3,
			RequestsPerMinute: 10,
			ExcerptChars:      2000,
		},
		Store: Store{
			Path:     filepath.Join(dataDir(), "beacon.db"),
			TTLHours: 7 * 24,
		},
		Server: Server{
			Bind:        "127.0.0.1:8484",
			MetricsBind: ":9090",
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "beacon", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "beacon", "config.toml")
}

// Load reads the config file at path, layering it over the defaults.
// A missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	switch c.Fetch.Provider {
	case ProviderGmail, ProviderIMAP:
	default:
		return fmt.Errorf("fetch.provider must be %q or %q, got %q",
			ProviderGmail, ProviderIMAP, c.Fetch.Provider)
	}

	if c.Fetch.MaxMessages <= 0 {
		return fmt.Errorf("fetch.max_messages must be positive, got %d", c.Fetch.MaxMessages)
	}

	if c.Fetch.Provider == ProviderIMAP {
		if c.IMAP.Host == "" {
			return fmt.Errorf("imap.host is required when fetch.provider is %q", ProviderIMAP)
		}
		if c.IMAP.Username == "" {
			return fmt.Errorf("imap.username is required when fetch.provider is %q", ProviderIMAP)
		}
		if c.IMAP.Port <= 0 || c.IMAP.Port > 65535 {
			return fmt.Errorf("imap.port must be in 1..65535, got %d", c.IMAP.Port)
		}
	}

	if c.LLM.Enabled {
		if c.LLM.BatchSize <= 0 {
			return fmt.Errorf("llm.batch_size must be positive, got %d", c.LLM.BatchSize)
		}
		if c.LLM.RequestsPerMinute <= 0 {
			return fmt.Errorf("llm.requests_per_minute must be positive, got %d", c.LLM.RequestsPerMinute)
		}
		if c.LLM.MaxRetries < 0 {
			return fmt.Errorf("llm.max_retries must not be negative, got %d", c.LLM.MaxRetries)
		}
	}

	if c.Store.TTLHours <= 0 {
		return fmt.Errorf("store.ttl_hours must be positive, got %d", c.Store.TTLHours)
	}

	return nil
}

// GeminiAPIKey returns the Gemini API key from the environment.
func (c *Config) GeminiAPIKey() string {
	return os.Getenv(EnvGeminiAPIKey)
}

// IMAPPassword returns the IMAP password from the environment.
func (c *Config) IMAPPassword() string {
	return os.Getenv(EnvIMAPPassword)
}

// TTL returns the dedup window as a duration.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.Store.TTLHours) * time.Hour
}

// EnsureStoreDir creates the directory holding the SQLite database.
func (c *Config) EnsureStoreDir() error {
	dir := filepath.Dir(c.Store.Path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create store directory %s: %w", dir, err)
	}
	return nil
}

func dataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "beacon")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "beacon")
}
