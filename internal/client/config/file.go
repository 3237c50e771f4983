package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dmitrijs2005/zkvault/internal/flagx"
	"github.com/dmitrijs2005/zkvault/internal/timex"
)

// FileConfig is a DTO used only for decoding config files. Zero values mean
// "not set" and leave the current Config value alone.
type FileConfig struct {
	DatabasePath            string         `json:"database_path" toml:"database_path"`
	User                    string         `json:"user" toml:"user"`
	ServerEndpointAddr      *string        `json:"server_endpoint_addr" toml:"server_endpoint_addr"`
	PBKDF2Iterations        int            `json:"pbkdf2_iterations" toml:"pbkdf2_iterations"`
	IdleTimeout             timex.Duration `json:"idle_timeout" toml:"idle_timeout"`
	UnlockAttemptsPerMinute *int           `json:"unlock_attempts_per_minute" toml:"unlock_attempts_per_minute"`
	MinPassphraseScore      *int           `json:"min_passphrase_score" toml:"min_passphrase_score"`
	LogLevel                string         `json:"log_level" toml:"log_level"`
	LogFormat               string         `json:"log_format" toml:"log_format"`
}

// parseFile overlays cfg with values from the file named by -c or -config.
// Files ending in .toml are decoded as TOML, anything else as JSON. Panics on
// read or decode errors.
func parseFile(cfg *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc FileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &fc)
	} else {
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(cfg)
}

func (fc FileConfig) apply(cfg *Config) {
	if fc.DatabasePath != "" {
		cfg.DatabasePath = fc.DatabasePath
	}
	if fc.User != "" {
		cfg.User = fc.User
	}
	if fc.ServerEndpointAddr != nil {
		cfg.ServerEndpointAddr = *fc.ServerEndpointAddr
	}
	if fc.PBKDF2Iterations != 0 {
		cfg.PBKDF2Iterations = fc.PBKDF2Iterations
	}
	if fc.IdleTimeout.Duration != 0 {
		cfg.IdleTimeout = fc.IdleTimeout.Duration
	}
	if fc.UnlockAttemptsPerMinute != nil {
		cfg.UnlockAttemptsPerMinute = *fc.UnlockAttemptsPerMinute
	}
	if fc.MinPassphraseScore != nil {
		cfg.MinPassphraseScore = *fc.MinPassphraseScore
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.LogFormat != "" {
		cfg.LogFormat = fc.LogFormat
	}
}
