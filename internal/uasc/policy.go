package uasc

import (
	"crypto"
	_ "crypto/sha1" // register crypto.SHA1 for PolicyProfile.Hash().New()
	_ "crypto/sha256" // register crypto.SHA256 for PolicyProfile.Hash().New()
	"fmt"
)

// SecurityMode selects whether chunks are signed, signed and encrypted, or
// sent as plain text (spec.md §4.4).
type SecurityMode int

const (
	ModeInvalid SecurityMode = iota
	ModeNone
	ModeSign
	ModeSignAndEncrypt
)

func (m SecurityMode) String() string {
	switch m {
	case ModeNone:
		return "None"
	case ModeSign:
		return "Sign"
	case ModeSignAndEncrypt:
		return "SignAndEncrypt"
	default:
		return "Invalid"
	}
}

// RSAPadding names the asymmetric padding scheme a policy uses for
// encryption. OPN signing in this package always uses PKCS1v15.
type RSAPadding int

const (
	PaddingNone RSAPadding = iota
	PaddingPKCS1v15
	PaddingOAEPSha1
	PaddingOAEPSha256
)

// PolicyProfile bundles every algorithm choice a security policy URI
// implies: the symmetric cipher and MAC for MSG/CLO, the asymmetric padding
// for OPN, and the sizes PSHA must produce.
type PolicyProfile struct {
	URI string

	// Symmetric parameters (used once a channel is opened).
	SymmetricKeySize int // signing/encrypting key size in bytes
	BlockSize        int // cipher block size in bytes (16 for AES, 1 for no encryption)
	SignatureSize    int // HMAC output size in bytes
	NonceSize        int // 16 or 32 bytes per spec.md §4.4

	// Hash used both for PSHA and for HMAC signing.
	Hash func() crypto.Hash

	// Asymmetric parameters (used only for OPN signing/encryption).
	AsymmetricSignaturePadding  RSAPadding // PKCS1v15 (PaddingNone for policy None)
	AsymmetricEncryptionPadding RSAPadding // PKCS1v15 or OAEP(-SHA1/256)

	// Encrypt reports whether MSG/CLO bodies are encrypted at all; false
	// only for policy None.
	Encrypt bool
}

func (p PolicyProfile) String() string { return p.URI }

const policyURIPrefix = "http://opcfoundation.org/UA/SecurityPolicy#"

var (
	PolicyNone = PolicyProfile{
		URI:                         policyURIPrefix + "None",
		SymmetricKeySize:            0,
		BlockSize:                   1,
		SignatureSize:               0,
		NonceSize:                   0,
		Hash:                        func() crypto.Hash { return crypto.SHA1 },
		AsymmetricSignaturePadding:  PaddingNone,
		AsymmetricEncryptionPadding: PaddingNone,
		Encrypt:                     false,
	}

	PolicyBasic128Rsa15 = PolicyProfile{
		URI:                         policyURIPrefix + "Basic128Rsa15",
		SymmetricKeySize:            16,
		BlockSize:                   16,
		SignatureSize:               20, // HMAC-SHA1
		NonceSize:                   16,
		Hash:                        func() crypto.Hash { return crypto.SHA1 },
		AsymmetricSignaturePadding:  PaddingPKCS1v15,
		AsymmetricEncryptionPadding: PaddingPKCS1v15,
		Encrypt:                     true,
	}

	PolicyBasic256 = PolicyProfile{
		URI:                         policyURIPrefix + "Basic256",
		SymmetricKeySize:            32,
		BlockSize:                   16,
		SignatureSize:               20, // HMAC-SHA1
		NonceSize:                   32,
		Hash:                        func() crypto.Hash { return crypto.SHA1 },
		AsymmetricSignaturePadding:  PaddingPKCS1v15,
		AsymmetricEncryptionPadding: PaddingOAEPSha1,
		Encrypt:                     true,
	}

	PolicyBasic256Sha256 = PolicyProfile{
		URI:                         policyURIPrefix + "Basic256Sha256",
		SymmetricKeySize:            32,
		BlockSize:                   16,
		SignatureSize:               32, // HMAC-SHA256
		NonceSize:                   32,
		Hash:                        func() crypto.Hash { return crypto.SHA256 },
		AsymmetricSignaturePadding:  PaddingPKCS1v15,
		AsymmetricEncryptionPadding: PaddingOAEPSha1,
		Encrypt:                     true,
	}

	PolicyAes128Sha256RsaOaep = PolicyProfile{
		URI:                         policyURIPrefix + "Aes128_Sha256_RsaOaep",
		SymmetricKeySize:            16,
		BlockSize:                   16,
		SignatureSize:               32, // HMAC-SHA256
		NonceSize:                   32,
		Hash:                        func() crypto.Hash { return crypto.SHA256 },
		AsymmetricSignaturePadding:  PaddingPKCS1v15,
		AsymmetricEncryptionPadding: PaddingOAEPSha256,
		Encrypt:                     true,
	}

	PolicyAes256Sha256RsaPss = PolicyProfile{
		URI:                         policyURIPrefix + "Aes256_Sha256_RsaPss",
		SymmetricKeySize:            32,
		BlockSize:                   16,
		SignatureSize:               32, // HMAC-SHA256
		NonceSize:                   32,
		Hash:                        func() crypto.Hash { return crypto.SHA256 },
		AsymmetricSignaturePadding:  PaddingPKCS1v15, // spec note (c): PSS only actively exercised at the session layer
		AsymmetricEncryptionPadding: PaddingOAEPSha256,
		Encrypt:                     true,
	}
)

var policiesByURI = map[string]PolicyProfile{
	PolicyNone.URI:                PolicyNone,
	PolicyBasic128Rsa15.URI:       PolicyBasic128Rsa15,
	PolicyBasic256.URI:            PolicyBasic256,
	PolicyBasic256Sha256.URI:      PolicyBasic256Sha256,
	PolicyAes128Sha256RsaOaep.URI: PolicyAes128Sha256RsaOaep,
	PolicyAes256Sha256RsaPss.URI:  PolicyAes256Sha256RsaPss,
}

// ProfileForURI resolves a security policy URI to its profile. The bare
// policy name ("None", "Basic256Sha256", ...) is also accepted as a
// convenience for configuration files.
func ProfileForURI(uri string) (PolicyProfile, error) {
	if p, ok := policiesByURI[uri]; ok {
		return p, nil
	}
	if p, ok := policiesByURI[policyURIPrefix+uri]; ok {
		return p, nil
	}
	return PolicyProfile{}, fmt.Errorf("%w: %s", ErrSecurityPolicyRejected, uri)
}
