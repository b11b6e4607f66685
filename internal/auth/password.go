package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id cost settings. 64 MiB, 3 passes, single lane.
const (
	hashIterations  = 3
	hashMemoryKiB   = 64 * 1024
	hashParallelism = 1
	hashLength      = 32
	saltLength      = 16
)

// HashPassword derives an Argon2id hash from the plaintext and encodes it
// as a self-describing PHC string ($argon2id$v=19$m=...,t=...,p=...$salt$hash),
// so cost settings can change without invalidating stored credentials.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	derived := argon2.IDKey([]byte(password), salt, hashIterations, hashMemoryKiB, hashParallelism, hashLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		hashMemoryKiB, hashIterations, hashParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(derived),
	)
	return encoded, nil
}

// VerifyPassword reports whether the plaintext matches the stored PHC hash.
// The stored hash's own cost settings drive the re-derivation, and the
// comparison is constant-time.
func VerifyPassword(password, stored string) (bool, error) {
	salt, want, cost, err := parsePHC(stored)
	if err != nil {
		return false, err
	}

	got := argon2.IDKey([]byte(password), salt, cost.iterations, cost.memoryKiB, cost.parallelism, uint32(len(want)))

	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

type hashCost struct {
	iterations  uint32
	memoryKiB   uint32
	parallelism uint8
}

func parsePHC(stored string) (salt, hash []byte, cost hashCost, err error) {
	fields := strings.Split(stored, "$")
	if len(fields) != 6 {
		return nil, nil, cost, fmt.Errorf("malformed password hash")
	}
	if fields[1] != "argon2id" {
		return nil, nil, cost, fmt.Errorf("unsupported hash algorithm %q", fields[1])
	}

	var version int
	if _, scanErr := fmt.Sscanf(fields[2], "v=%d", &version); scanErr != nil {
		return nil, nil, cost, fmt.Errorf("parsing hash version: %w", scanErr)
	}
	if _, scanErr := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &cost.memoryKiB, &cost.iterations, &cost.parallelism); scanErr != nil {
		return nil, nil, cost, fmt.Errorf("parsing hash cost: %w", scanErr)
	}

	if salt, err = base64.RawStdEncoding.DecodeString(fields[4]); err != nil {
		return nil, nil, cost, fmt.Errorf("decoding salt: %w", err)
	}
	if hash, err = base64.RawStdEncoding.DecodeString(fields[5]); err != nil {
		return nil, nil, cost, fmt.Errorf("decoding hash: %w", err)
	}

	return salt, hash, cost, nil
}
