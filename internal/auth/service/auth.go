package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/epicevents/internal/auth/domain"
	"github.com/aussiebroadwan/epicevents/internal/auth/session"
	"github.com/aussiebroadwan/epicevents/internal/auth/store"
	"github.com/aussiebroadwan/epicevents/pkg/cryptox"
	"github.com/aussiebroadwan/epicevents/pkg/jwtx"
	"github.com/aussiebroadwan/epicevents/pkg/slogx"
)

// TokenStore is the single persisted session token slot.
type TokenStore interface {
	Save(token string) error
	Load() (token string, ok bool, err error)
	Delete() error
}

// PasswordUpgrader rewrites a stored hash. Used to move legacy bcrypt hashes
// to argon2id after a successful login.
type PasswordUpgrader interface {
	UpdatePasswordHash(ctx context.Context, id string, newHash string) error
}

// AuthService turns credentials into session tokens and tokens back into users.
type AuthService struct {
	Users    store.Directory
	Hasher   *cryptox.Hasher
	Codec    *jwtx.Codec
	Tokens   TokenStore
	TTL      time.Duration    // defaults to jwtx.DefaultSessionTTL
	Throttle *LoginThrottle   // optional
	Upgrader PasswordUpgrader // optional
}

func (s *AuthService) ttl() time.Duration {
	if s.TTL == 0 {
		return jwtx.DefaultSessionTTL
	}
	return s.TTL
}

// Login checks the password of employeeNumber and, on success, issues a new
// token, persists it (replacing any previous one) and records the identity in
// sess when sess is non-nil. Failed logins leave the stored token and sess
// untouched.
func (s *AuthService) Login(
	ctx context.Context,
	sess *session.State,
	employeeNumber, password string,
) (string, error) {
	l := slogx.FromContext(ctx)
	employeeNumber = strings.TrimSpace(employeeNumber)

	if s.Throttle != nil && !s.Throttle.Allow(employeeNumber) {
		l.Warn("login throttled", slog.String("employee_number", employeeNumber))
		return "", domain.ErrTooManyAttempts
	}

	cred, err := s.Users.FindByEmployeeNumber(ctx, employeeNumber)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("login failed: unknown employee number", slog.String("employee_number", employeeNumber))
			s.chargeFailure(employeeNumber)
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup credential: %w", err)
	}

	if err := s.Hasher.Verify(password, cred.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrCorruptCredential) {
			l.Warn("stored password hash is unreadable", slog.String("user_id", cred.UserID))
		} else {
			l.Info("login failed: wrong password", slog.String("user_id", cred.UserID))
		}
		s.chargeFailure(employeeNumber)
		return "", domain.ErrInvalidCredentials
	}

	dept, _, err := s.DepartmentOf(ctx, cred.UserID)
	if err != nil {
		return "", err
	}

	token, err := s.Codec.Issue(cred.UserID, s.ttl())
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	if err := s.Tokens.Save(token); err != nil {
		return "", fmt.Errorf("persist token: %w", err)
	}
	if sess != nil {
		sess.Set(session.Identity{UserID: cred.UserID, Department: dept, Token: token})
	}
	if s.Throttle != nil {
		s.Throttle.Reset(employeeNumber)
	}

	s.upgradeHash(ctx, cred, password)

	l.Info("login succeeded",
		slog.String("user_id", cred.UserID),
		slog.String("department", dept),
		slog.String("token_fp", cryptox.FingerprintToken(token)),
	)
	return token, nil
}

func (s *AuthService) chargeFailure(employeeNumber string) {
	if s.Throttle != nil {
		s.Throttle.Fail(employeeNumber)
	}
}

// upgradeHash is best effort: a failure only means we try again next login.
func (s *AuthService) upgradeHash(ctx context.Context, cred domain.Credential, password string) {
	if s.Upgrader == nil || !s.Hasher.NeedsRehash(cred.PasswordHash) {
		return
	}
	l := slogx.FromContext(ctx)

	hash, err := s.Hasher.Hash(password)
	if err == nil {
		err = s.Upgrader.UpdatePasswordHash(ctx, cred.UserID, hash)
	}
	if err != nil {
		l.Warn("password rehash failed", slog.String("user_id", cred.UserID), slog.Any("error", err))
		return
	}
	l.Info("password hash upgraded", slog.String("user_id", cred.UserID))
}

// Logout forgets the stored token and clears sess. It does not need a valid
// token and is safe to call repeatedly.
func (s *AuthService) Logout(ctx context.Context, sess *session.State) error {
	if sess != nil && sess.Clear() {
		slogx.FromContext(ctx).Info("logged out")
	}
	if err := s.Tokens.Delete(); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// ResolveUser verifies token and loads its subject. Token problems come back
// as jwtx.ErrExpired or jwtx.ErrInvalid; a valid token whose user has since
// been deleted is domain.ErrUserNotFound.
func (s *AuthService) ResolveUser(ctx context.Context, token string) (domain.User, error) {
	userID, err := s.Codec.Verify(token)
	if err != nil {
		return domain.User{}, err
	}

	u, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

// DepartmentOf returns the department name of userID. ok is false when the
// user or its department link is missing.
func (s *AuthService) DepartmentOf(ctx context.Context, userID string) (string, bool, error) {
	name, err := s.Users.DepartmentNameOf(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lookup department: %w", err)
	}
	return name, true, nil
}

// Restore rebuilds sess from the persisted token, typically at start-up. A
// stored token that is expired, invalid or whose user is gone is deleted.
func (s *AuthService) Restore(ctx context.Context, sess *session.State) (session.Identity, error) {
	l := slogx.FromContext(ctx)

	token, ok, err := s.Tokens.Load()
	if err != nil {
		return session.Identity{}, fmt.Errorf("load token: %w", err)
	}
	if !ok {
		sess.Clear()
		return session.Identity{}, domain.ErrNoSession
	}

	u, err := s.ResolveUser(ctx, token)
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) || errors.Is(err, jwtx.ErrInvalid) || errors.Is(err, domain.ErrUserNotFound) {
			l.Info("discarding stored token", slog.Any("reason", err))
			sess.Clear()
			if derr := s.Tokens.Delete(); derr != nil {
				l.Warn("failed to delete stored token", slog.Any("error", derr))
			}
		}
		return session.Identity{}, err
	}

	dept, _, err := s.DepartmentOf(ctx, u.ID)
	if err != nil {
		return session.Identity{}, err
	}

	id := session.Identity{UserID: u.ID, Department: dept, Token: token}
	sess.Set(id)
	return id, nil
}

// Check is the expiry poll run before every interactive step. It reports
// whether sess still holds a valid token, clearing sess and the stored slot
// when it does not.
func (s *AuthService) Check(ctx context.Context, sess *session.State) bool {
	id, ok := sess.Current()
	if !ok {
		return false
	}
	if s.Codec.IsValid(id.Token) {
		return true
	}

	slogx.FromContext(ctx).Info("session expired", slog.String("user_id", id.UserID))
	sess.Clear()
	if err := s.Tokens.Delete(); err != nil {
		slogx.FromContext(ctx).Warn("failed to delete stored token", slog.Any("error", err))
	}
	return false
}
