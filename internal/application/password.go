package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrInvalidPasswordHash is returned for stored hashes that are not argon2id PHC strings.
	ErrInvalidPasswordHash = errors.New("application: invalid password hash")
	// ErrIncompatiblePasswordVersion is returned for hashes from another argon2 revision.
	ErrIncompatiblePasswordVersion = errors.New("application: incompatible password hash version")
)

// MinPasswordLength is the shortest password accepted when creating accounts.
const MinPasswordLength = 8

// Argon2idParams tunes the argon2id key derivation.
type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2idParams are used for every account created through UserService.
var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

const phcPrefix = "$argon2id$"

// HashPassword hashes password with DefaultArgon2idParams.
func HashPassword(password string) (string, error) {
	return CreatePasswordHash(password, DefaultArgon2idParams)
}

// CreatePasswordHash derives an argon2id hash encoded as
// $argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<key>.
func CreatePasswordHash(password string, params Argon2idParams) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	enc := base64.RawStdEncoding
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		phcPrefix, argon2.Version, params.Memory, params.Iterations, params.Parallelism,
		enc.EncodeToString(salt), enc.EncodeToString(key)), nil
}

// VerifyPassword reports ErrInvalidCredentials when password does not derive
// the key stored in hashedPassword.
func VerifyPassword(hashedPassword, password string) error {
	stored, err := parsePHC(hashedPassword)
	if err != nil {
		return err
	}
	key := argon2.IDKey([]byte(password), stored.salt, stored.params.Iterations, stored.params.Memory, stored.params.Parallelism, stored.params.KeyLength)
	if subtle.ConstantTimeCompare(stored.key, key) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

type phcHash struct {
	params Argon2idParams
	salt   []byte
	key    []byte
}

func parsePHC(encoded string) (phcHash, error) {
	var out phcHash
	if !strings.HasPrefix(encoded, phcPrefix) {
		return out, ErrInvalidPasswordHash
	}
	fields := strings.Split(strings.TrimPrefix(encoded, phcPrefix), "$")
	if len(fields) != 4 {
		return out, ErrInvalidPasswordHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[0], "v=%d", &version); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidPasswordHash, err)
	}
	if version != argon2.Version {
		return out, ErrIncompatiblePasswordVersion
	}
	if _, err := fmt.Sscanf(fields[1], "m=%d,t=%d,p=%d", &out.params.Memory, &out.params.Iterations, &out.params.Parallelism); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidPasswordHash, err)
	}

	enc := base64.RawStdEncoding
	var err error
	if out.salt, err = enc.DecodeString(fields[2]); err != nil {
		return out, fmt.Errorf("%w: salt: %v", ErrInvalidPasswordHash, err)
	}
	if out.key, err = enc.DecodeString(fields[3]); err != nil {
		return out, fmt.Errorf("%w: key: %v", ErrInvalidPasswordHash, err)
	}
	if len(out.key) == 0 {
		return out, ErrInvalidPasswordHash
	}
	out.params.SaltLength = uint32(len(out.salt))
	out.params.KeyLength = uint32(len(out.key))
	return out, nil
}
