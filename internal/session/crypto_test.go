package session

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/go-opcua/internal/uasc"
)

func mustGenerateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestSignSessionDataPKCS1v15RoundTrip(t *testing.T) {
	key := mustGenerateKey(t)
	profile := uasc.PolicyBasic256Sha256
	data := []byte("client certificate || client nonce")

	sig, err := signSessionData(key, profile, data)
	require.NoError(t, err)

	err = verifySessionSignature(&key.PublicKey, profile, data, sig)
	assert.NoError(t, err)
}

func TestSignSessionDataRSAPSSRoundTrip(t *testing.T) {
	key := mustGenerateKey(t)
	profile := uasc.PolicyAes256Sha256RsaPss
	data := []byte("server certificate || server nonce")

	sig, err := signSessionData(key, profile, data)
	require.NoError(t, err)

	err = verifySessionSignature(&key.PublicKey, profile, data, sig)
	assert.NoError(t, err)
}

func TestVerifySessionSignatureRejectsTamperedData(t *testing.T) {
	key := mustGenerateKey(t)
	profile := uasc.PolicyBasic256Sha256

	sig, err := signSessionData(key, profile, []byte("original"))
	require.NoError(t, err)

	err = verifySessionSignature(&key.PublicKey, profile, []byte("tampered"), sig)
	assert.ErrorIs(t, err, ErrServerSignatureBad)
}

func TestEncryptIdentitySecretRoundTripsAcrossMultipleBlocks(t *testing.T) {
	key := mustGenerateKey(t)
	plaintext := framedSecret(make([]byte, 400), make([]byte, 32))

	encrypted, err := encryptIdentitySecret(&key.PublicKey, uasc.PaddingOAEPSha256, plaintext)
	require.NoError(t, err)
	assert.NotEmpty(t, encrypted)

	maxPlain := maxPlaintextBlock(&key.PublicKey, uasc.PaddingOAEPSha256)
	wantBlocks := (len(plaintext) + maxPlain - 1) / maxPlain
	assert.Equal(t, wantBlocks*key.Size(), len(encrypted))
}

func TestFramedSecretLayout(t *testing.T) {
	secret := []byte("hunter2")
	nonce := []byte{1, 2, 3}

	framed := framedSecret(secret, nonce)

	require.Len(t, framed, 4+len(secret)+len(nonce))
	assert.Equal(t, byte(len(secret)+len(nonce)), framed[0])
	assert.Equal(t, secret, framed[4:4+len(secret)])
	assert.Equal(t, nonce, framed[4+len(secret):])
}

func TestSignatureAlgorithmURISelectsPSSForAes256Profile(t *testing.T) {
	assert.Equal(t, signatureAlgorithmRsaPss256, signatureAlgorithmURI(uasc.PolicyAes256Sha256RsaPss))
	assert.Equal(t, signatureAlgorithmRsaSha256, signatureAlgorithmURI(uasc.PolicyBasic256Sha256))
	assert.Equal(t, signatureAlgorithmRsaSha1, signatureAlgorithmURI(uasc.PolicyBasic128Rsa15))
}

func TestEncryptionAlgorithmURI(t *testing.T) {
	assert.Equal(t, encryptionAlgorithmRsaOaep, encryptionAlgorithmURI(uasc.PaddingOAEPSha1))
	assert.Equal(t, encryptionAlgorithmRsaOaep256, encryptionAlgorithmURI(uasc.PaddingOAEPSha256))
	assert.Equal(t, encryptionAlgorithmRsa15, encryptionAlgorithmURI(uasc.PaddingPKCS1v15))
}
