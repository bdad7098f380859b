// Package password handles one-way hashing and policy checks for user
// passwords: bcrypt hashing and verification, strength scoring against the
// platform's rule set, and temporary-password generation.
package password
