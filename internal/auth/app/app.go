package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/aussiebroadwan/epicevents/internal/auth/guard"
	"github.com/aussiebroadwan/epicevents/internal/auth/policy"
	"github.com/aussiebroadwan/epicevents/internal/auth/service"
	"github.com/aussiebroadwan/epicevents/internal/auth/session"
	"github.com/aussiebroadwan/epicevents/internal/auth/store"
	"github.com/aussiebroadwan/epicevents/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/epicevents/internal/auth/tokenstore"
	"github.com/aussiebroadwan/epicevents/pkg/cryptox"
	"github.com/aussiebroadwan/epicevents/pkg/jwtx"
	"github.com/aussiebroadwan/epicevents/pkg/slogx"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// Options are the parts of the wiring that tests or the CLI replace.
type Options struct {
	LogOutput io.Writer        // default: stderr
	Clock     func() time.Time // default: time.Now
}

// Application holds every long lived component of one CLI invocation.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	codec  *jwtx.Codec
	hasher *cryptox.Hasher
	policy *policy.Policy
	sentry *guard.SentryReporter

	Session   *session.State
	Auth      *service.AuthService
	Bootstrap *service.BootstrapService
	Users     service.UserOperations
	Guard     *guard.Guard
}

// New creates a new Application with all dependencies initialized. The
// caller must Close it.
func New(cfg Config, opts Options) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "epicevents",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Output:  opts.LogOutput,
		}),
		Session: session.New(),
	}

	pepper, err := cryptox.LoadOrGeneratePepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewHasher(pepper)

	var codecOpts []jwtx.Option
	if opts.Clock != nil {
		codecOpts = append(codecOpts, jwtx.WithClock(opts.Clock))
	}
	if app.codec, err = InitCodec(cfg, app.logger, codecOpts...); err != nil {
		return nil, err
	}
	if app.policy, err = InitPolicy(cfg, app.logger); err != nil {
		return nil, err
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	return app, nil
}

// Context returns ctx carrying the application logger.
func (app *Application) Context(ctx context.Context) context.Context {
	return slogx.WithContext(ctx, app.logger)
}

func (app *Application) Logger() *slog.Logger   { return app.logger }
func (app *Application) Policy() *policy.Policy { return app.policy }
func (app *Application) Config() Config         { return app.cfg }

// Close flushes error reports and releases the database. The stored token
// stays on disk.
func (app *Application) Close() error {
	if app.sentry != nil {
		app.sentry.Flush(2 * time.Second)
	}
	if app.db == nil {
		return nil
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

// initDatabase opens the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(sqlite.FileDSN(app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Debug("database migrations applied", "path", app.cfg.DatabaseFile)
	return app.checkDepartments()
}

// checkDepartments warns about stored departments that only get the default
// row of the permission table.
func (app *Application) checkDepartments() error {
	depts, err := app.db.Departments().ListDepartments(context.Background())
	if err != nil {
		_ = app.db.Close()
		return fmt.Errorf("failed to list departments: %w", err)
	}
	for _, d := range depts {
		if !app.policy.HasRow(d.String()) {
			app.logger.Warn("department has no permission row, default row applies", "department", d.String())
		}
	}
	return nil
}

// initReporter picks where guard failures go: the log, plus Sentry when a
// DSN is configured.
func (app *Application) initReporter() (guard.Reporter, error) {
	logReporter := guard.LogReporter{Logger: app.logger}
	if app.cfg.SentryDSN == "" {
		return logReporter, nil
	}

	r, err := guard.NewSentryReporter(sentry.ClientOptions{
		Dsn:         app.cfg.SentryDSN,
		Environment: app.cfg.Env,
		Release:     "epicevents@" + BuildVersion,
	}, logReporter)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize error reporting: %w", err)
	}
	app.sentry = r
	app.logger.Debug("sentry error reporting enabled")
	return r, nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	reporter, err := app.initReporter()
	if err != nil {
		return err
	}

	app.Auth = &service.AuthService{
		Users:    app.db.Users(),
		Hasher:   app.hasher,
		Codec:    app.codec,
		Tokens:   tokenstore.NewFile(app.cfg.TokenFile),
		TTL:      app.cfg.TokenTTL,
		Throttle: service.NewLoginThrottle(app.cfg.LoginAttemptsPerMinute, time.Minute),
		Upgrader: app.db.Users(),
	}
	app.Bootstrap = &service.BootstrapService{
		Store:  app.db,
		Hasher: app.hasher,
	}

	app.Guard = guard.New(app.Auth, app.policy, reporter)
	app.Users = service.NewUserService(app.db, app.hasher).Operations(app.Guard)
	return nil
}
