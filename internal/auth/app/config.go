package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	SecretKey string        // Required: HMAC secret for session tokens
	Algorithm string        // Optional: HS256, HS384 or HS512 (default: HS256)
	TokenTTL  time.Duration // Optional: session lifetime (default: 30m)

	TokenFile    string // Optional: persisted session token (default: .epicevents/token)
	DatabaseFile string // Optional: path to SQLite database file (default: ./epicevents.db)
	PepperFile   string // Optional: path to file containing pepper for password hashing (default: .epicevents/pepper)
	PolicyFile   string // Optional: YAML permission table, embedded table when empty

	LoginAttemptsPerMinute int // Optional: per employee number (default: 5)

	SentryDSN string // Optional: unexpected errors are also sent to Sentry when set

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: warn)
	LogFormat string // Log format (json, text) (default: text)
}

const envPrefix = "EPIC"

func setDefaults(v *viper.Viper) {
	v.SetDefault("secret_key", "")
	v.SetDefault("token_algorithm", "HS256")
	v.SetDefault("token_ttl", "30m")
	v.SetDefault("token_file", ".epicevents/token")
	v.SetDefault("database_file", "epicevents.db")
	v.SetDefault("pepper_file", ".epicevents/pepper")
	v.SetDefault("policy_file", "")
	v.SetDefault("login_attempts_per_minute", 5)
	v.SetDefault("sentry_dsn", "")
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")
}

// LoadConfig reads the configuration from EPIC_* environment variables and,
// when path is not empty, from that config file. Environment wins over the
// file.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	ttl, err := parseDuration(v.GetString("token_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("token_ttl: %w", err)
	}

	cfg := Config{
		SecretKey:              v.GetString("secret_key"),
		Algorithm:              strings.ToUpper(strings.TrimSpace(v.GetString("token_algorithm"))),
		TokenTTL:               ttl,
		TokenFile:              v.GetString("token_file"),
		DatabaseFile:           v.GetString("database_file"),
		PepperFile:             v.GetString("pepper_file"),
		PolicyFile:             v.GetString("policy_file"),
		LoginAttemptsPerMinute: v.GetInt("login_attempts_per_minute"),
		SentryDSN:              v.GetString("sentry_dsn"),
		Env:                    v.GetString("env"),
		LogLevel:               v.GetString("log_level"),
		LogFormat:              v.GetString("log_format"),
	}
	return cfg, nil
}

// Validate reports every setting that would make the application unusable.
func (c Config) Validate() error {
	var errs []error
	if c.SecretKey == "" {
		errs = append(errs, fmt.Errorf("secret key is required (set %s_SECRET_KEY)", envPrefix))
	}
	switch c.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("unsupported token algorithm %q", c.Algorithm))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	if c.TokenFile == "" {
		errs = append(errs, errors.New("token file is required"))
	}
	if c.DatabaseFile == "" {
		errs = append(errs, errors.New("database file is required"))
	}
	if c.LoginAttemptsPerMinute <= 0 {
		errs = append(errs, errors.New("login attempts per minute must be positive"))
	}
	return errors.Join(errs...)
}

// parseDuration accepts a Go duration ("45m", "1h") or a bare number of
// minutes.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if minutes, err := strconv.Atoi(s); err == nil {
		return time.Duration(minutes) * time.Minute, nil
	}
	return 0, fmt.Errorf("invalid duration %q", s)
}
