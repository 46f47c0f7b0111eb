// Package domain contains core concepts of the chat relay.
// This file defines User identities and related invariants.
// No runtime, network, or storage logic should be added here.
package domain

import "time"

// User is an account identified by its unique username.
// The username is immutable once created; the credential itself is opaque to
// the relay core and only ever handled as a hash.
type User struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
