package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/zkvault/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
//	-d string     path to the local database
//	-u string     profile user name
//	-a string     address:port of the profile service ("" = local profile)
//	-k int        PBKDF2 iterations
//	-t duration   idle auto-lock timeout, e.g. 15m
//	-r int        unlock attempts per minute (0 = unlimited)
//	-l string     log level
//
// Only these flags are looked at; see flagx.FilterArgs.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-u", "-a", "-k", "-t", "-r", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local database")
	fs.StringVar(&cfg.User, "u", cfg.User, "profile user name")
	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the profile service")
	fs.IntVar(&cfg.PBKDF2Iterations, "k", cfg.PBKDF2Iterations, "pbkdf2 iterations")
	fs.DurationVar(&cfg.IdleTimeout, "t", cfg.IdleTimeout, "idle auto-lock timeout")
	fs.IntVar(&cfg.UnlockAttemptsPerMinute, "r", cfg.UnlockAttemptsPerMinute, "unlock attempts per minute")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
