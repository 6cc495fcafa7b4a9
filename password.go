package sessionkit

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters. N is the CPU/memory cost (must be a power of two),
// r the block size, p the parallelism. 2^15/8/1 targets tens of
// milliseconds on current server hardware.
const (
	scryptN       = 1 << 15
	scryptR       = 8
	scryptP       = 1
	scryptKeyLen  = 32
	scryptSaltLen = 16
)

// PasswordHasher hashes and verifies passwords with scrypt. The salt and
// cost parameters are embedded in the encoded hash, so stored hashes remain
// verifiable after the defaults change.
type PasswordHasher struct {
	// N overrides the cost parameter. Tests use a low power of two to keep
	// hashing fast; zero means the package default.
	N int
}

func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{}
}

func (h *PasswordHasher) cost() int {
	if h.N > 0 {
		return h.N
	}
	return scryptN
}

// Hash derives an scrypt hash of plaintext with a fresh random salt. The
// output is self-contained: "scrypt$N$r$p$<salt>$<key>", hex-encoded parts.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, scryptSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := scrypt.Key([]byte(plaintext), salt, h.cost(), scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return fmt.Sprintf("scrypt$%d$%d$%d$%s$%s",
		h.cost(), scryptR, scryptP,
		hex.EncodeToString(salt), hex.EncodeToString(key)), nil
}

// Verify reports whether plaintext matches the encoded hash. A malformed or
// corrupt hash verifies as false rather than erroring, so callers treat
// "no match" and "corrupt record" identically as invalid credentials.
func (h *PasswordHasher) Verify(hash, plaintext string) bool {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[0] != "scrypt" {
		return false
	}

	n, err1 := strconv.Atoi(parts[1])
	r, err2 := strconv.Atoi(parts[2])
	p, err3 := strconv.Atoi(parts[3])
	salt, err4 := hex.DecodeString(parts[4])
	want, err5 := hex.DecodeString(parts[5])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		return false
	}
	if n <= 1 || len(salt) == 0 || len(want) == 0 {
		return false
	}

	got, err := scrypt.Key([]byte(plaintext), salt, n, r, p, len(want))
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}
