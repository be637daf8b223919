// Package auth issues and verifies bearer tokens and hashes user passwords.
package auth
