package password

import (
	"crypto/rand"
	"math/big"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// PolicyMessage explains the password policy to API clients
const PolicyMessage = "Password must have at least 12 characters, 1 uppercase, 1 lowercase, 1 digit and 1 special character."

const specialChars = "!@#$%^&*()-_=+[]{}<>?"

const (
	lowerChars = "abcdefghijklmnopqrstuvwxyz"
	upperChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars = "0123456789"
)

// Hash hashes a plaintext password with bcrypt
func Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether the plaintext matches the stored bcrypt hash
func Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// ValidatePolicy reports whether the password satisfies the policy
func ValidatePolicy(candidate string) bool {
	if len(candidate) < 12 {
		return false
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	return hasUpper && hasLower && hasDigit && hasSpecial
}

// GenerateTemporary generates a random password satisfying the policy
func GenerateTemporary(length int) (string, error) {
	if length < 12 {
		length = 12
	}

	alphabet := lowerChars + upperChars + digitChars + specialChars

	// One character from each required class, the rest from the full
	// alphabet, then shuffled.
	chars := make([]byte, 0, length)
	for _, class := range []string{upperChars, lowerChars, digitChars, specialChars} {
		ch, err := randomChar(class)
		if err != nil {
			return "", err
		}
		chars = append(chars, ch)
	}
	for len(chars) < length {
		ch, err := randomChar(alphabet)
		if err != nil {
			return "", err
		}
		chars = append(chars, ch)
	}

	for i := len(chars) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		chars[i], chars[j.Int64()] = chars[j.Int64()], chars[i]
	}

	return string(chars), nil
}

func randomChar(alphabet string) (byte, error) {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, err
	}
	return alphabet[idx.Int64()], nil
}
