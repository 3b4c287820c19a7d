package uasc

import (
	"crypto/rand"
	"fmt"
	"time"
)

// ChannelToken is the short-lived symmetric-key bundle identified by
// TokenId and rotated by RenewSecureChannel (spec.md §4.4, "Token").
type ChannelToken struct {
	ChannelId       uint32
	TokenId         uint32
	CreatedAt       time.Time
	RevisedLifetime time.Duration
}

// DueForRenewal reports whether this token has reached 75% of its revised
// lifetime, the point at which the local side issues an OPN-Renew.
func (t ChannelToken) DueForRenewal(now time.Time) bool {
	if t.RevisedLifetime <= 0 {
		return false
	}
	threshold := t.CreatedAt.Add(t.RevisedLifetime * 3 / 4)
	return !now.Before(threshold)
}

// SecurityMaterial is the per-direction key tuple derived by PSHA.
type SecurityMaterial struct {
	SigningKey    []byte
	EncryptingKey []byte
	IV            []byte
}

// NewNonce generates a cryptographically random nonce of the size the
// policy's profile requires. Policy None has a zero nonce size and returns
// nil, matching the OPN-with-None-mode wire shape (a -1-length byte string).
func NewNonce(profile PolicyProfile) ([]byte, error) {
	if profile.NonceSize == 0 {
		return nil, nil
	}
	nonce := make([]byte, profile.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("uasc: generate nonce: %w", err)
	}
	return nonce, nil
}

// deriveDirectionalMaterial computes the local and remote SecurityMaterial
// for a channel open/renewal, per spec.md §4.4's key-derivation rule:
// local uses secret=remoteNonce/seed=localNonce, remote uses the reverse.
func deriveDirectionalMaterial(profile PolicyProfile, localNonce, remoteNonce []byte) (local, remote SecurityMaterial) {
	if !profile.Encrypt {
		return SecurityMaterial{}, SecurityMaterial{}
	}
	local = deriveSecurityMaterial(profile, remoteNonce, localNonce)
	remote = deriveSecurityMaterial(profile, localNonce, remoteNonce)
	return local, remote
}
