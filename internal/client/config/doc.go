// Package config loads runtime configuration for the zkvault CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. A .toml suffix selects
//     TOML; anything else is read as JSON.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Durations in files use timex.Duration, so "15m" and integer nanoseconds
// both work:
//
//	{
//	  "database_path": "/home/alice/.zkvault/vault.db",
//	  "user": "alice",
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "idle_timeout": "15m"
//	}
//
// or in TOML:
//
//	user = "alice"
//	idle_timeout = "15m"
//	unlock_attempts_per_minute = 3
//
// Environment variables are not read, except USER for the default profile.
package config
