package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMismatch is returned when a password does not match the stored hash.
	ErrMismatch = errors.New("cryptox: password does not match")

	// ErrCorruptCredential is returned when the stored hash cannot be parsed.
	// Callers must treat it as a failed verification.
	ErrCorruptCredential = errors.New("cryptox: corrupt credential")
)

// Hasher produces and verifies salted one-way password hashes. New hashes are
// always Argon2id in PHC format, legacy bcrypt hashes are still accepted on
// verification.
type Hasher struct {
	// Pepper is a server-side secret appended to every password before
	// hashing. It only applies to Argon2id hashes.
	Pepper string
}

// NewHasher returns a Hasher using the given pepper.
func NewHasher(pepper string) *Hasher {
	return &Hasher{Pepper: pepper}
}

// Hash generates a PHC-format Argon2id hash string including salt and parameters.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	sum := argon2.IDKey(
		[]byte(password+h.Pepper),
		salt,
		iterations,
		memory,
		parallelism,
		keyLength,
	)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// Verify compares a plaintext password against a stored hash in constant
// time. It returns nil on match, ErrMismatch on a wrong password and
// ErrCorruptCredential when the stored value is not a hash we understand.
func (h *Hasher) Verify(password, encodedHash string) error {
	if isBcrypt(encodedHash) {
		return verifyBcrypt(password, encodedHash)
	}

	params, salt, expected, err := decodeArgon2id(encodedHash)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptCredential, err)
	}

	computed := argon2.IDKey(
		[]byte(password+h.Pepper),
		salt,
		params.iterations,
		params.memory,
		params.parallelism,
		uint32(len(expected)), // #nosec G115 - hash length is bounded by the decoder
	)

	if subtle.ConstantTimeCompare(computed, expected) == 1 {
		return nil
	}
	return ErrMismatch
}

// Matches reports whether password matches encodedHash. Any error, a
// corrupt stored hash included, is a denial.
func (h *Hasher) Matches(password, encodedHash string) bool {
	return h.Verify(password, encodedHash) == nil
}

// NeedsRehash reports whether encodedHash was produced by an older scheme
// and should be replaced with a fresh Argon2id hash after a successful login.
func (h *Hasher) NeedsRehash(encodedHash string) bool {
	if isBcrypt(encodedHash) {
		return true
	}
	params, _, _, err := decodeArgon2id(encodedHash)
	if err != nil {
		return false
	}
	return params.memory != memory || params.iterations != iterations || params.parallelism != parallelism
}

// Upper bounds for stored parameters, so that a corrupt hash cannot make
// verification allocate unbounded memory or spin.
const (
	maxMemory        = 1 << 20 // KiB
	maxIterations    = 10
	maxParallelism   = 16
	maxEncodedLength = 64
)

type argon2Params struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
}

// decodeArgon2id parses $argon2id$v=19$m=X,t=Y,p=Z$salt$hash.
func decodeArgon2id(encodedHash string) (argon2Params, []byte, []byte, error) {
	var p argon2Params

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return p, nil, nil, errors.New("expected 6 parts")
	}
	if parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, errors.New("not argon2id")
	}
	if parts[2] != "v=19" {
		return p, nil, nil, errors.New("wrong version")
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return p, nil, nil, fmt.Errorf("failed to parse parameters: %w", err)
	}
	if p.memory == 0 || p.iterations == 0 || p.parallelism == 0 {
		return p, nil, nil, errors.New("zero parameter")
	}
	if p.memory > maxMemory || p.iterations > maxIterations || p.parallelism > maxParallelism {
		return p, nil, nil, errors.New("parameter out of range")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	sum, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, fmt.Errorf("failed to decode hash: %w", err)
	}
	if len(salt) == 0 || len(sum) == 0 {
		return p, nil, nil, errors.New("empty salt or hash")
	}
	if len(salt) > maxEncodedLength || len(sum) > maxEncodedLength {
		return p, nil, nil, errors.New("salt or hash too long")
	}

	return p, salt, sum, nil
}

func isBcrypt(encodedHash string) bool {
	return strings.HasPrefix(encodedHash, "$2a$") ||
		strings.HasPrefix(encodedHash, "$2b$") ||
		strings.HasPrefix(encodedHash, "$2y$")
}

// verifyBcrypt checks hashes written before the move to Argon2id. They were
// produced without a pepper.
func verifyBcrypt(password, encodedHash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword),
		errors.Is(err, bcrypt.ErrPasswordTooLong):
		return ErrMismatch
	default:
		return fmt.Errorf("%w: %v", ErrCorruptCredential, err)
	}
}

// GeneratePassword returns a random 16 character alphanumeric password.
func GeneratePassword() (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 16
	password := make([]byte, length)
	for i := range password {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random password: %w", err)
		}
		password[i] = charset[n.Int64()]
	}
	return string(password), nil
}
