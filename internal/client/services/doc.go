// Package services contains the application services the zkvault CLI talks
// to: AuthService (passphrase setup, throttled unlock, lock) and
// RecordService (encrypted fields and their import/export).
//
// Both sit on top of a *session.Session, so no service ever holds the key.
package services
