// Package middleware provides net/http gates and guards over the
// authkit engine.
//
// RequireAuth and OptionalAuth resolve the Authorization header into a
// request-scoped [authkit.Identity]; the guards are pure predicates over
// that identity and never touch Redis or the database. Failures follow a
// uniform discipline: 401 for "who are you" (missing or invalid token),
// 403 for "you are known but not allowed" (unverified, wrong profile
// type, not the owner).
package middleware
