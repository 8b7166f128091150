package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/epicevents/internal/auth/policy"
	"github.com/aussiebroadwan/epicevents/pkg/jwtx"
)

// InitCodec builds the session token codec from the configured algorithm and
// secret. Nothing derived from the secret is logged.
func InitCodec(cfg Config, logger *slog.Logger, opts ...jwtx.Option) (*jwtx.Codec, error) {
	codec, err := jwtx.NewCodec(cfg.Algorithm, []byte(cfg.SecretKey), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}

	logger.Debug("token codec ready",
		"algorithm", codec.Algorithm(),
		"ttl", cfg.TokenTTL,
	)
	return codec, nil
}

// InitPolicy returns the embedded permission table, or the one in
// cfg.PolicyFile when set.
func InitPolicy(cfg Config, logger *slog.Logger) (*policy.Policy, error) {
	if cfg.PolicyFile == "" {
		return policy.Default(), nil
	}

	p, err := policy.LoadFile(cfg.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load permission table: %w", err)
	}
	logger.Info("permission table loaded", "path", cfg.PolicyFile, "departments", p.Departments())
	return p, nil
}
