package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Memory-hard on purpose; tune with care.
const (
	argonIterations uint32 = 2
	argonMemoryKiB  uint32 = 64 * 1024
	argonLanes      uint8  = 2
	argonTagLen     uint32 = 32
	argonSaltLen           = 16
)

// HashPassword derives an argon2id hash and encodes it in the standard
// $argon2id$ format so parameters travel with the hash.
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	tag := argon2.IDKey([]byte(password), salt, argonIterations, argonMemoryKiB, argonLanes, argonTagLen)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argonMemoryKiB, argonIterations, argonLanes,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(tag)), nil
}

// VerifyPassword re-derives the hash with the parameters embedded in encoded
// and compares in constant time. A malformed encoding is an error, a
// mismatched password is (false, nil).
func VerifyPassword(encoded, password string) (bool, error) {
	params, salt, want, err := parseArgon2Hash(encoded)
	if err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(password), salt, params.iterations, params.memoryKiB, params.lanes, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

type argon2Params struct {
	memoryKiB  uint32
	iterations uint32
	lanes      uint8
}

func parseArgon2Hash(encoded string) (argon2Params, []byte, []byte, error) {
	var p argon2Params
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" || parts[2] != "v=19" {
		return p, nil, nil, fmt.Errorf("malformed argon2id hash")
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memoryKiB, &p.iterations, &p.lanes); err != nil {
		return p, nil, nil, fmt.Errorf("malformed argon2id parameters")
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("malformed argon2id salt")
	}
	tag, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(tag) == 0 {
		return p, nil, nil, fmt.Errorf("malformed argon2id tag")
	}
	return p, salt, tag, nil
}
