package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("Correct-Horse-42")
	require.NoError(t, err)
	assert.NotEqual(t, "Correct-Horse-42", hash)

	assert.True(t, Verify("Correct-Horse-42", hash))
	assert.False(t, Verify("wrong-password", hash))
}

func TestValidatePolicy(t *testing.T) {
	cases := []struct {
		name     string
		password string
		valid    bool
	}{
		{"meets policy", "Str0ng-Passw0rd!", true},
		{"too short", "Sh0rt-pw!", false},
		{"no uppercase", "all-lower-case-42", false},
		{"no lowercase", "ALL-UPPER-CASE-42", false},
		{"no digit", "No-Digits-Here!!", false},
		{"no special", "NoSpecialChar42x", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, ValidatePolicy(tc.password))
		})
	}
}

func TestGenerateTemporary(t *testing.T) {
	generated, err := GenerateTemporary(16)
	require.NoError(t, err)
	assert.Len(t, generated, 16)
	assert.True(t, ValidatePolicy(generated), "generated password %q must satisfy the policy", generated)

	// Short lengths are raised to the policy minimum.
	short, err := GenerateTemporary(4)
	require.NoError(t, err)
	assert.Len(t, short, 12)
	assert.True(t, ValidatePolicy(short))

	other, err := GenerateTemporary(16)
	require.NoError(t, err)
	assert.NotEqual(t, generated, other)
}
