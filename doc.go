// Package authkit is the authentication and authorization core of the
// PME 360 platform: JWT access tokens, rotating refresh tokens persisted in
// Redis, bcrypt password handling, and request-level guards over the
// resolved identity.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authkit is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (Identity, TokenPair, UserRecord). The host application
// owns user persistence (through [UserProvider]) and HTTP routing; the
// engine owns token issuance, verification, refresh rotation, and password
// policy. Guards in the middleware subpackage read only the request-scoped
// identity and never touch Redis or the database.
//
// # Session model
//
// Exactly one refresh token is valid per user at any time. Issuing a new
// pair (login, refresh, register) supersedes the previous refresh token;
// password change and reset invalidate it outright. Rotation is a single
// atomic Redis compare-and-swap, so concurrent refresh calls with the same
// token produce exactly one winner.
package authkit
