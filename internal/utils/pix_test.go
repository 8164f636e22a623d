package utils

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey, _ = hex.DecodeString("a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6")

func TestEncryptDecryptRoundTrip(t *testing.T) {
	for _, key := range []string{"maria@example.com", "+5511999998888", "123e4567-e89b-12d3-a456-426614174000", "0123456789abcdef"} {
		enc, err := Encrypt(key, testKey)
		require.NoError(t, err)
		assert.NotContains(t, enc, key)

		dec, err := Decrypt(enc, testKey)
		require.NoError(t, err)
		assert.Equal(t, key, dec)
	}
}

func TestEncryptUsesRandomIV(t *testing.T) {
	a, err := Encrypt("same", testKey)
	require.NoError(t, err)
	b, err := Encrypt("same", testKey)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEncryptRejectsBadInput(t *testing.T) {
	_, err := Encrypt("", testKey)
	assert.Error(t, err)
	_, err = Encrypt("data", []byte("short"))
	assert.Error(t, err)
	_, err = Decrypt("zz", testKey)
	assert.Error(t, err)
	_, err = Decrypt("00ff", testKey)
	assert.Error(t, err)
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	enc, err := Encrypt("maria@example.com", testKey)
	require.NoError(t, err)

	other := make([]byte, 32)
	dec, err := Decrypt(enc, other)
	if err == nil {
		assert.NotEqual(t, "maria@example.com", dec)
	}
}

func TestMaskPixKey(t *testing.T) {
	assert.Equal(t, "m****@example.com", MaskPixKey(" Maria@Example.com "))
	assert.Equal(t, "+55*********88", MaskPixKey("+5511999998888"))
	assert.Equal(t, "****", MaskPixKey("abcd"))
}
