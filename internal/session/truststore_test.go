package session

import (
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/go-opcua/internal/config"
)

func TestFileTrustStoreGeneratesSelfSignedCertWhenUnconfigured(t *testing.T) {
	store := NewTrustStore(config.SecurityConfig{})

	certDER, key, err := store.LocalCertificateAndKey("urn:go-opcua:test")
	require.NoError(t, err)
	require.NotNil(t, key)

	cert, err := x509.ParseCertificate(certDER)
	require.NoError(t, err)
	assert.Equal(t, "go-opcua client", cert.Subject.CommonName)
}

func TestFileTrustStoreCachesSelfSignedCertAcrossCalls(t *testing.T) {
	store := NewTrustStore(config.SecurityConfig{})

	first, _, err := store.LocalCertificateAndKey("urn:go-opcua:test")
	require.NoError(t, err)
	second, _, err := store.LocalCertificateAndKey("urn:go-opcua:test")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFileTrustStoreSkipCertValidationTrustsAnything(t *testing.T) {
	store := NewTrustStore(config.SecurityConfig{SkipCertValidation: true})
	assert.NoError(t, store.ValidateRemoteCertificate([]byte("not even a certificate")))
}

func TestFileTrustStoreValidatesAgainstTrustedCertsDir(t *testing.T) {
	dir := t.TempDir()
	certDER, _, err := generateSelfSignedCertificate("urn:go-opcua:peer")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "peer.der"), certDER, 0o600))

	store := NewTrustStore(config.SecurityConfig{TrustedCertsDir: dir})

	assert.NoError(t, store.ValidateRemoteCertificate(certDER))
	assert.Error(t, store.ValidateRemoteCertificate([]byte("unrelated bytes")))
}

func TestFileTrustStoreRejectsWhenNoTrustedCertsDirConfigured(t *testing.T) {
	store := NewTrustStore(config.SecurityConfig{})
	err := store.ValidateRemoteCertificate([]byte("irrelevant"))
	assert.Error(t, err)
}

func TestCertBytesEqual(t *testing.T) {
	assert.True(t, certBytesEqual([]byte("abc"), []byte("abc")))
	assert.False(t, certBytesEqual([]byte("abc"), []byte("abd")))
	assert.False(t, certBytesEqual([]byte("abc"), []byte("ab")))
}
