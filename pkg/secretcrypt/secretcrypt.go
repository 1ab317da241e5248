package secretcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
)

// Secret values (Wi-Fi passwords, credentials) are stored encrypted with
// AES-256-GCM. The key is derived from the configured passphrase so
// operators only have to manage one string.

var gcm cipher.AEAD

// Initialize derives the encryption key from the passphrase
func Initialize(passphrase string) error {
	key := sha256.Sum256([]byte(passphrase))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return err
	}
	gcm, err = cipher.NewGCM(block)
	return err
}

// Encrypt encrypts a plaintext value into a base64 token
func Encrypt(value string) (string, error) {
	if gcm == nil {
		return "", errors.New("encryption key not initialized")
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(value), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt decrypts a token produced by Encrypt
func Decrypt(token string) (string, error) {
	if gcm == nil {
		return "", errors.New("encryption key not initialized")
	}

	sealed, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", errors.New("failed to decrypt secret")
	}
	if len(sealed) < gcm.NonceSize() {
		return "", errors.New("failed to decrypt secret")
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.New("failed to decrypt secret")
	}

	return string(plaintext), nil
}
