// Package records persists encrypted fields in the client's SQLite database.
// Rows hold only base64 IV and ciphertext; plaintext is never written.
package records
