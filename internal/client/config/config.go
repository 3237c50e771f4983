package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/cryptox"
)

// Config holds runtime settings for the zkvault CLI.
//
// Fields:
//   - DatabasePath: sqlite file holding records and, without a server, the profile.
//   - User: profile name; one salt and canary per user.
//   - ServerEndpointAddr: host:port of the profile service; empty keeps the
//     profile in the local database.
//   - IdleTimeout: auto-lock after this long without activity.
type Config struct {
	DatabasePath            string
	User                    string
	ServerEndpointAddr      string
	PBKDF2Iterations        int
	IdleTimeout             time.Duration
	UnlockAttemptsPerMinute int
	MinPassphraseScore      int
	LogLevel                string
	LogFormat               string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = defaultDatabasePath()
	c.User = defaultUser()
	c.ServerEndpointAddr = ""
	c.PBKDF2Iterations = cryptox.DefaultIterations
	c.IdleTimeout = 30 * time.Minute
	c.UnlockAttemptsPerMinute = 5
	c.MinPassphraseScore = 3
	c.LogLevel = "warn"
	c.LogFormat = "text"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file (if present) and command-line flags (if present). Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate reports settings the CLI cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database path is empty"))
	}
	if c.User == "" {
		errs = append(errs, errors.New("user is empty"))
	}
	if c.PBKDF2Iterations < cryptox.MinIterations || c.PBKDF2Iterations > cryptox.MaxIterations {
		errs = append(errs, fmt.Errorf("pbkdf2 iterations %d not in [%d, %d]",
			c.PBKDF2Iterations, cryptox.MinIterations, cryptox.MaxIterations))
	}
	if c.IdleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("idle timeout must be positive, got %s", c.IdleTimeout))
	}
	if c.MinPassphraseScore < 0 || c.MinPassphraseScore > 4 {
		errs = append(errs, fmt.Errorf("min passphrase score %d not in [0, 4]", c.MinPassphraseScore))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "zkvault.db"
	}
	return filepath.Join(home, ".zkvault", "vault.db")
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "default"
}
