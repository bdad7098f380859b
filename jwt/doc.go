// Package jwt issues and verifies the platform's signed bearer tokens.
//
// Access and refresh tokens are signed with distinct HS256 secrets so that
// one kind can never be presented in place of the other. Verification is
// null-returning by contract: callers branch on the ok flag, never on an
// error value, for expired, malformed, or wrongly signed tokens alike.
package jwt
