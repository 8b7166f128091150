package jwtx

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired is returned for a correctly signed token whose exp has passed.
	ErrExpired = errors.New("jwtx: token expired")

	// ErrInvalid covers everything else: bad signature, wrong algorithm,
	// truncated or malformed input, missing subject.
	ErrInvalid = errors.New("jwtx: invalid token")

	ErrUnsupportedAlgorithm = errors.New("jwtx: unsupported algorithm")
	ErrEmptySecret          = errors.New("jwtx: empty secret")
)

// Codec issues and verifies HMAC-signed session tokens. The algorithm and
// secret are fixed for the lifetime of the Codec.
type Codec struct {
	method *jwt.SigningMethodHMAC
	secret []byte
	now    func() time.Time
}

// Option customises a Codec.
type Option func(*Codec)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec returns a Codec for one of HS256, HS384 or HS512.
func NewCodec(algorithm string, secret []byte, opts ...Option) (*Codec, error) {
	var method *jwt.SigningMethodHMAC
	switch strings.ToUpper(strings.TrimSpace(algorithm)) {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	c := &Codec{
		method: method,
		secret: append([]byte(nil), secret...),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Algorithm returns the JWS alg header value used by this codec.
func (c *Codec) Algorithm() string { return c.method.Alg() }

// Issue signs a token for subject that expires ttl from now.
func (c *Codec) Issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("jwtx: empty subject")
	}
	claims := NewSessionClaims(subject, ttl, c.now())
	token, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return token, nil
}

// Verify checks signature, algorithm and expiry and returns the subject.
func (c *Codec) Verify(token string) (string, error) {
	claims, err := c.Parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IsValid reports whether token would pass Verify.
func (c *Codec) IsValid(token string) bool {
	_, err := c.Parse(token)
	return err == nil
}

// Parse is Verify returning the full claim set.
func (c *Codec) Parse(token string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	var claims Claims
	parsed, err := parser.ParseWithClaims(strings.TrimSpace(token), &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		// jwt/v5 checks the signature before claims, so an expired error
		// always comes from a token we signed.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalid)
	}
	return claims, nil
}

// Wellformed reports whether token looks like a compact JWS: three
// non-empty base64url segments. It does not verify anything.
func Wellformed(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for _, r := range p {
			if !isBase64URL(r) {
				return false
			}
		}
	}
	return true
}

func isBase64URL(r rune) bool {
	return (r >= 'A' && r <= 'Z') ||
		(r >= 'a' && r <= 'z') ||
		(r >= '0' && r <= '9') ||
		r == '-' || r == '_'
}
