package session

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rcarmo/go-opcua/internal/config"
	"github.com/rcarmo/go-opcua/internal/logging"
)

// TrustStore is the certificate/trust collaborator spec.md §6 describes:
// it supplies the client's own application instance certificate and private
// key, and decides whether a server certificate offered during the
// handshake is acceptable.
type TrustStore interface {
	// LocalCertificateAndKey returns the client's DER-encoded certificate and
	// matching RSA private key for the given application URI. A nil
	// certificate/key pair is valid for SecurityMode None.
	LocalCertificateAndKey(applicationURI string) ([]byte, *rsa.PrivateKey, error)

	// ValidateRemoteCertificate reports whether certDER is acceptable. Policy
	// None never calls this.
	ValidateRemoteCertificate(certDER []byte) error
}

// fileTrustStore loads the client certificate/key from the files
// config.SecurityConfig names, falling back to an in-memory self-signed
// certificate when none are configured (mirroring the teacher's
// config-first-then-generate fallback in StartTLS: try what was configured,
// degrade gracefully rather than fail the handshake over missing material).
// Remote certificate validation either trusts everything
// (SkipCertValidation) or checks the offered DER bytes against every
// .der/.crt file under TrustedCertsDir.
type fileTrustStore struct {
	cfg config.SecurityConfig

	selfSignedCertDER []byte
	selfSignedKey     *rsa.PrivateKey
}

// NewTrustStore builds a TrustStore backed by cfg. This is the seam
// spec.md §6 names; a caller embedding this client in a larger application
// can supply its own TrustStore implementation instead.
func NewTrustStore(cfg config.SecurityConfig) TrustStore {
	return &fileTrustStore{cfg: cfg}
}

func (s *fileTrustStore) LocalCertificateAndKey(applicationURI string) ([]byte, *rsa.PrivateKey, error) {
	if s.cfg.ClientCertFile != "" && s.cfg.ClientKeyFile != "" {
		pair, err := tls.LoadX509KeyPair(s.cfg.ClientCertFile, s.cfg.ClientKeyFile)
		if err != nil {
			return nil, nil, fmt.Errorf("load client certificate: %w", err)
		}
		key, ok := pair.PrivateKey.(*rsa.PrivateKey)
		if !ok {
			return nil, nil, fmt.Errorf("client private key is not RSA")
		}
		return pair.Certificate[0], key, nil
	}

	if s.selfSignedCertDER != nil {
		return s.selfSignedCertDER, s.selfSignedKey, nil
	}

	logging.Warn("session: no client certificate configured, generating a self-signed one for %s", applicationURI)
	certDER, key, err := generateSelfSignedCertificate(applicationURI)
	if err != nil {
		return nil, nil, fmt.Errorf("generate self-signed certificate: %w", err)
	}
	s.selfSignedCertDER = certDER
	s.selfSignedKey = key
	return certDER, key, nil
}

func (s *fileTrustStore) ValidateRemoteCertificate(certDER []byte) error {
	if s.cfg.SkipCertValidation {
		return nil
	}
	if s.cfg.TrustedCertsDir == "" {
		return fmt.Errorf("%w: no trusted certificate directory configured", ErrServerSignatureBad)
	}

	entries, err := os.ReadDir(s.cfg.TrustedCertsDir)
	if err != nil {
		return fmt.Errorf("read trusted certificate directory: %w", err)
	}
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if ext != ".der" && ext != ".crt" {
			continue
		}
		trusted, err := os.ReadFile(filepath.Join(s.cfg.TrustedCertsDir, entry.Name()))
		if err != nil {
			continue
		}
		if certBytesEqual(trusted, certDER) {
			return nil
		}
	}
	return fmt.Errorf("%w: server certificate not found in %s", ErrCertificateMismatch, s.cfg.TrustedCertsDir)
}

func certBytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// generateSelfSignedCertificate builds a throwaway 2048-bit RSA application
// instance certificate, good enough to open a channel in a lab or CI
// environment where no provisioned identity exists yet.
func generateSelfSignedCertificate(applicationURI string) ([]byte, *rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, err
	}

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return nil, nil, err
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "go-opcua client"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
		URIs:         parseURI(applicationURI),
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, err
	}
	return der, key, nil
}

// parseURI returns a single-element URI SAN list, or none if applicationURI
// doesn't parse — a malformed application URI shouldn't block certificate
// generation, only leave the SAN off.
func parseURI(applicationURI string) []*url.URL {
	u, err := url.Parse(applicationURI)
	if err != nil {
		return nil
	}
	return []*url.URL{u}
}
