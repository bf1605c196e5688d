// Package auth carries the verified caller identity into every engine call.
// Verification itself belongs to the transport (for the bot, Telegram vouches
// for the sender); the engine only checks the capability it is handed.
package auth

import "errors"

// ErrUnverified is returned by Verifier implementations that cannot vouch for a caller.
var ErrUnverified = errors.New("caller identity not verified")

// Caller is a verified player identity.
type Caller struct {
	PlayerID int64
	Username string
	verified bool
}

// Verified builds a caller a transport has already authenticated.
func Verified(playerID int64, username string) Caller {
	return Caller{PlayerID: playerID, Username: username, verified: playerID > 0}
}

// IsVerified reports whether the caller was produced by a Verifier.
func (c Caller) IsVerified() bool {
	return c.verified && c.PlayerID > 0
}

// Controls reports whether the caller is the given owner.
func (c Caller) Controls(owner int64) bool {
	return c.IsVerified() && c.PlayerID == owner
}

// Verifier turns transport credentials into a Caller.
type Verifier interface {
	Verify(playerID int64, username string) (Caller, error)
}

// PlatformVerifier trusts identities the hosting platform has already authenticated.
type PlatformVerifier struct{}

// Verify implements Verifier.
func (PlatformVerifier) Verify(playerID int64, username string) (Caller, error) {
	if playerID <= 0 {
		return Caller{}, ErrUnverified
	}
	return Verified(playerID, username), nil
}
