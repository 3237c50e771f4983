// Package client contains the client-side plumbing below the session core.
//
// It provides:
//  1. InitDatabase / RunMigrations: opens the local SQLite database, applies
//     the embedded goose migrations and returns the repositories built on it.
//  2. ProfileClient and its gRPC implementation GRPCClient, used when the
//     salt and canary record live on a zkvault server instead of locally.
//
// gRPC status codes are mapped to sentinel errors that callers match with
// errors.Is: ErrUnavailable, ErrAlreadyExists, ErrInvalidRequest.
package client
