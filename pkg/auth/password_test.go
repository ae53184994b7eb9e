package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	for _, algorithm := range []string{AlgorithmBcrypt, AlgorithmArgon2id} {
		t.Run(algorithm, func(t *testing.T) {
			h := NewPasswordHasher(algorithm, bcrypt.MinCost)

			hash, err := h.Hash("Passw0rd")
			require.NoError(t, err)
			assert.NotEqual(t, "Passw0rd", hash)

			assert.True(t, h.Verify("Passw0rd", hash))
			assert.False(t, h.Verify("Passw0rd!", hash))
			assert.False(t, h.Verify("", hash))
		})
	}
}

func TestPasswordHasher_Salted(t *testing.T) {
	h := NewPasswordHasher(AlgorithmBcrypt, bcrypt.MinCost)

	first, err := h.Hash("same-secret-1")
	require.NoError(t, err)
	second, err := h.Hash("same-secret-1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("same-secret-1", first))
	assert.True(t, h.Verify("same-secret-1", second))
}

func TestPasswordHasher_VerifiesAcrossAlgorithms(t *testing.T) {
	argon := NewPasswordHasher(AlgorithmArgon2id, 0)
	bc := NewPasswordHasher(AlgorithmBcrypt, bcrypt.MinCost)

	argonHash, err := argon.Hash("Passw0rd")
	require.NoError(t, err)
	bcryptHash, err := bc.Hash("Passw0rd")
	require.NoError(t, err)

	assert.True(t, bc.Verify("Passw0rd", argonHash))
	assert.True(t, argon.Verify("Passw0rd", bcryptHash))
}

func TestPasswordHasher_MalformedHash(t *testing.T) {
	h := NewPasswordHasher(AlgorithmBcrypt, bcrypt.MinCost)

	assert.False(t, h.Verify("Passw0rd", ""))
	assert.False(t, h.Verify("Passw0rd", "not-a-hash"))
	assert.False(t, h.Verify("Passw0rd", "$argon2id$garbage"))
}

func TestPasswordHasher_RejectsOverlongBcryptInput(t *testing.T) {
	h := NewPasswordHasher(AlgorithmBcrypt, bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("a1", 37))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestPasswordStamp(t *testing.T) {
	assert.Equal(t, PasswordStamp("hash-a"), PasswordStamp("hash-a"))
	assert.NotEqual(t, PasswordStamp("hash-a"), PasswordStamp("hash-b"))
	assert.Len(t, PasswordStamp("hash-a"), 16)
}
