package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"

	argon2idPrefix = "$argon2id$"
	bcryptMaxBytes = 72
)

var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// Hasher hashes passwords with a salted, adaptive algorithm.
// Verify never errors: a mismatch or a malformed hash is simply false.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

type PasswordHasher struct {
	algorithm   string
	bcryptCost  int
	argonParams *argon2id.Params
}

// NewPasswordHasher returns a hasher writing hashes with algorithm.
// Verification accepts both bcrypt and argon2id hashes so stored
// credentials survive an algorithm switch.
func NewPasswordHasher(algorithm string, bcryptCost int) *PasswordHasher {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if algorithm != AlgorithmArgon2id {
		algorithm = AlgorithmBcrypt
	}
	return &PasswordHasher{
		algorithm:   algorithm,
		bcryptCost:  bcryptCost,
		argonParams: argon2id.DefaultParams,
	}
}

func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	if h.algorithm == AlgorithmArgon2id {
		return argon2id.CreateHash(plaintext, h.argonParams)
	}
	// bcrypt ignores everything past 72 bytes; refuse rather than truncate.
	if len(plaintext) > bcryptMaxBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *PasswordHasher) Verify(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	if strings.HasPrefix(hash, argon2idPrefix) {
		ok, err := argon2id.ComparePasswordAndHash(plaintext, hash)
		return err == nil && ok
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// PasswordStamp fingerprints a stored hash. Reset tokens carry the stamp of
// the hash they were issued against, so changing the password voids them.
func PasswordStamp(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return hex.EncodeToString(sum[:8])
}
