package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestEncryptDecrypt(t *testing.T) {
	sealed, err := Encrypt([]byte("oauth-token-secret"), testKey)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "oauth-token-secret")

	plain, err := Decrypt(sealed, testKey)
	require.NoError(t, err)
	assert.Equal(t, "oauth-token-secret", plain)
}

func TestEncrypt_FreshNonce(t *testing.T) {
	a, err := Encrypt([]byte("same"), testKey)
	require.NoError(t, err)
	b, err := Encrypt([]byte("same"), testKey)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecrypt_WrongKey(t *testing.T) {
	sealed, err := Encrypt([]byte("secret"), testKey)
	require.NoError(t, err)

	_, err = Decrypt(sealed, []byte("fedcba9876543210fedcba9876543210"))
	assert.Error(t, err)
}

func TestDecrypt_Malformed(t *testing.T) {
	_, err := Decrypt("not base64!", testKey)
	assert.Error(t, err)

	_, err = Decrypt("AAAA", testKey)
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestEncrypt_BadKeyLength(t *testing.T) {
	_, err := Encrypt([]byte("secret"), []byte("short"))
	assert.Error(t, err)
}
