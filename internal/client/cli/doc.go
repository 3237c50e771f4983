// Package cli provides the interactive zkvault command-line client.
//
// It wires configuration, the local database, the profile store (local or
// remote), the session, the auto-lock monitor, and a REPL. The vault starts
// locked; "unlock" runs first-time setup when no passphrase exists yet.
//
// Commands: help, status, unlock, lock, set, get, list, delete, export,
// import, exit. Every command counts as keyboard activity for auto-lock.
// On unix, SIGTSTP and SIGHUP lock the vault immediately.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
