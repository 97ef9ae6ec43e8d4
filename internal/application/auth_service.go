package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/example/room-booking/internal/logging"
)

// CredentialStore looks up accounts for login and session resolution.
type CredentialStore interface {
	GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
	GetUser(ctx context.Context, id string) (User, error)
}

// SessionRepository persists issued sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// DefaultSessionTTL applies when no positive lifetime is configured.
const DefaultSessionTTL = 12 * time.Hour

// AuthService turns credentials into sessions and sessions into principals.
// Every reservation operation runs on behalf of the principal it resolves.
type AuthService struct {
	credentials CredentialStore
	sessions    SessionRepository
	verify      PasswordVerifier
	newToken    func() string
	now         func() time.Time
	ttl         time.Duration
	logger      *slog.Logger
}

// NewAuthService constructs an AuthService without a dedicated logger.
func NewAuthService(credentials CredentialStore, sessions SessionRepository, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(credentials, sessions, verify, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService. tokenGenerator mints
// both the session id and the bearer token; verify defaults to argon2id.
func NewAuthServiceWithLogger(credentials CredentialStore, sessions SessionRepository, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &AuthService{
		credentials: credentials,
		sessions:    sessions,
		verify:      verify,
		newToken:    tokenGenerator,
		now:         now,
		ttl:         sessionTTL,
		logger:      logging.OrDefault(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return logging.Scoped(ctx, s.logger, "service", "AuthService", operation, attrs...)
}

func (s *AuthService) ready() error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.credentials == nil || s.sessions == nil {
		return fmt.Errorf("auth service not configured")
	}
	return nil
}

// Authenticate checks email and password and issues a session. Unknown
// emails and wrong passwords both report ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	ctx, span := startSpan(ctx, "AuthService.Authenticate")
	defer func() { endSpan(span, err) }()

	email := strings.ToLower(strings.TrimSpace(params.Email))
	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "login rejected", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "login succeeded", "user_id", result.User.ID, "session_id", result.Session.ID)
	}()

	if email == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var creds UserCredentials
	if creds, err = s.credentials.GetUserCredentialsByEmail(ctx, email); err != nil {
		err = replaceNotFound(err, ErrInvalidCredentials)
		return
	}
	switch {
	case creds.Disabled:
		err = ErrAccountDisabled
		return
	case s.verify(creds.PasswordHash, params.Password) != nil:
		err = ErrInvalidCredentials
		return
	}

	var session Session
	if session, err = s.issueSession(ctx, creds.User.ID, params.Fingerprint); err != nil {
		return
	}
	result = AuthenticateResult{User: creds.User, Session: session}
	return
}

// issueSession sweeps expired rows and stores a fresh session for userID.
func (s *AuthService) issueSession(ctx context.Context, userID, fingerprint string) (Session, error) {
	now := s.now()
	if err := s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		return Session{}, err
	}

	id, token := s.newToken(), s.newToken()
	if id == "" || token == "" {
		return Session{}, fmt.Errorf("token generator returned an empty value")
	}
	return s.sessions.CreateSession(ctx, Session{
		ID:          id,
		UserID:      userID,
		Token:       token,
		Fingerprint: strings.TrimSpace(fingerprint),
		ExpiresAt:   now.Add(s.ttl),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// RevokeSession ends the session identified by token. Revoking twice keeps
// the first revocation time.
func (s *AuthService) RevokeSession(ctx context.Context, token string) (err error) {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	ctx, span := startSpan(ctx, "AuthService.RevokeSession")
	defer func() { endSpan(span, err) }()

	logger := s.loggerWith(ctx, "RevokeSession")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session revoked")
	}()

	token = strings.TrimSpace(token)
	if token == "" {
		err = ErrInvalidCredentials
		return
	}

	now := s.now()
	if _, err = s.sessions.RevokeSession(ctx, token, now); err != nil {
		err = replaceNotFound(err, ErrInvalidCredentials)
		return
	}
	err = s.sessions.DeleteExpiredSessions(ctx, now)
	return
}

// ValidateSession resolves token into the principal that owns it.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if err = s.ready(); err != nil {
		return
	}

	ctx, span := startSpan(ctx, "AuthService.ValidateSession")
	defer func() { endSpan(span, err) }()

	logger := s.loggerWith(ctx, "ValidateSession")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "session rejected", "error", err, "error_kind", ErrorKind(err))
			return
		}
		span.SetAttributes(attribute.String("booking.principal_id", principal.UserID))
		logger.DebugContext(ctx, "session validated", "principal_id", principal.UserID)
	}()

	token = strings.TrimSpace(token)
	if token == "" {
		err = ErrUnauthorized
		return
	}

	var session Session
	if session, err = s.sessions.GetSession(ctx, token); err != nil {
		err = replaceNotFound(err, ErrUnauthorized)
		return
	}
	if err = sessionState(session, s.now()); err != nil {
		return
	}

	var user User
	if user, err = s.credentials.GetUser(ctx, session.UserID); err != nil {
		err = replaceNotFound(err, ErrUnauthorized)
		return
	}
	principal = Principal{UserID: user.ID, IsAdmin: user.IsAdmin}
	return
}

// sessionState reports why session can no longer be used at now, or nil.
func sessionState(session Session, now time.Time) error {
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		return ErrSessionRevoked
	}
	if !session.ExpiresAt.After(now) {
		return ErrSessionExpired
	}
	return nil
}

func replaceNotFound(err, replacement error) error {
	if errors.Is(err, ErrNotFound) {
		return replacement
	}
	return err
}
