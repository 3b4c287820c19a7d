package uasc

import (
	"crypto/hmac"
	"hash"
)

// psha implements the P_SHA-n pseudo-random function (spec.md §4.4):
//
//	A(0) = seed
//	A(i) = HMAC(secret, A(i-1))
//	P_SHA(secret, seed) = HMAC(secret, A(1) || seed) || HMAC(secret, A(2) || seed) || ...
//
// length bytes of output are produced, truncating the final HMAC block.
func psha(profile PolicyProfile, secret, seed []byte, length int) []byte {
	newHash := func() hash.Hash { return profile.Hash().New() }
	mac := hmac.New(newHash, secret)

	a := seed
	out := make([]byte, 0, length+mac.Size())
	for len(out) < length {
		a = hmacSum(mac, a)
		out = append(out, hmacSum(mac, append(append([]byte{}, a...), seed...))...)
	}
	return out[:length]
}

func hmacSum(mac hash.Hash, data []byte) []byte {
	mac.Reset()
	mac.Write(data)
	return mac.Sum(nil)
}

// deriveSecurityMaterial splits P_SHA(secret, seed) into signingKey,
// encryptingKey, and iv per the policy's declared sizes.
func deriveSecurityMaterial(profile PolicyProfile, secret, seed []byte) SecurityMaterial {
	total := profile.SignatureSize + profile.SymmetricKeySize + profile.BlockSize
	block := psha(profile, secret, seed, total)

	return SecurityMaterial{
		SigningKey:    block[0:profile.SignatureSize],
		EncryptingKey: block[profile.SignatureSize : profile.SignatureSize+profile.SymmetricKeySize],
		IV:            block[profile.SignatureSize+profile.SymmetricKeySize:],
	}
}
