package secretcrypt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	require.NoError(t, Initialize("unit-test-passphrase"))

	token, err := Encrypt("wifi-password-123")
	require.NoError(t, err)
	assert.NotEqual(t, "wifi-password-123", token)

	plaintext, err := Decrypt(token)
	require.NoError(t, err)
	assert.Equal(t, "wifi-password-123", plaintext)
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	require.NoError(t, Initialize("unit-test-passphrase"))

	first, err := Encrypt("same-value")
	require.NoError(t, err)
	second, err := Encrypt("same-value")
	require.NoError(t, err)

	// Random nonce per call; equal tokens would leak equality of values.
	assert.NotEqual(t, first, second)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	require.NoError(t, Initialize("unit-test-passphrase"))

	for _, token := range []string{"", "not-base64!!", "QUJD", "QUJDREVGR0hJSktMTU5PUA=="} {
		_, err := Decrypt(token)
		require.Error(t, err, token)
		assert.EqualError(t, err, "failed to decrypt secret")
	}
}

func TestDecryptRejectsTamperedToken(t *testing.T) {
	require.NoError(t, Initialize("unit-test-passphrase"))

	token, err := Encrypt("sensitive")
	require.NoError(t, err)

	tampered := []byte(token)
	if tampered[len(tampered)-1] == 'A' {
		tampered[len(tampered)-1] = 'B'
	} else {
		tampered[len(tampered)-1] = 'A'
	}

	_, err = Decrypt(string(tampered))
	require.Error(t, err)
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	require.NoError(t, Initialize("first-passphrase"))
	token, err := Encrypt("sensitive")
	require.NoError(t, err)

	require.NoError(t, Initialize("second-passphrase"))
	_, err = Decrypt(token)
	require.Error(t, err)
	assert.EqualError(t, err, "failed to decrypt secret")
}
