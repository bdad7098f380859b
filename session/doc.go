// Package session is the Redis-backed store for refresh-token and
// password-reset state.
//
// The store keeps exactly one entry per user per concern: the SHA-256 hash
// of the currently valid refresh token under refresh_token:{userID}, and
// the hash of an outstanding reset challenge under password_reset:{userID}.
// Rotation is a single Lua compare-and-swap, so two concurrent refresh
// calls presenting the same token produce exactly one winner. TTLs are set
// by the caller to match the signed token expiry.
package session
