package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func plainVerifier(hashed, password string) error {
	if hashed != password {
		return errors.New("mismatch")
	}
	return nil
}

func sequence(values ...string) func() string {
	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		if len(values) == 0 {
			return "fallback"
		}
		v := values[0]
		values = values[1:]
		return v
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	t.Run("issues sessions for valid credentials", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
		creds := &credentialStoreStub{
			credentials: UserCredentials{
				User:         User{ID: "user-1", Email: "user@example.com"},
				PasswordHash: "secret",
			},
		}
		repo := newSessionRepositoryStub()
		svc := NewAuthService(creds, repo, plainVerifier, sequence("session-id", "session-token"), func() time.Time { return now }, time.Hour)

		result, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "User@example.com", Password: "secret", Fingerprint: " device "})
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if result.Session.Token != "session-token" || result.Session.ID != "session-id" {
			t.Fatalf("unexpected session: %+v", result.Session)
		}
		if result.Session.Fingerprint != "device" {
			t.Fatalf("expected fingerprint to be trimmed, got %q", result.Session.Fingerprint)
		}
		if !result.Session.ExpiresAt.Equal(now.Add(time.Hour)) {
			t.Fatalf("unexpected expiry %v", result.Session.ExpiresAt)
		}
		if creds.lastEmail != "user@example.com" {
			t.Fatalf("expected normalized email lookup, got %q", creds.lastEmail)
		}
		if len(repo.deleteCalls) != 1 || !repo.deleteCalls[0].Equal(now) {
			t.Fatalf("expected DeleteExpiredSessions to be called with now, got %#v", repo.deleteCalls)
		}
	})

	t.Run("verifies argon2id hashes by default", func(t *testing.T) {
		t.Parallel()

		hash, err := CreatePasswordHash("correct horse", Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16})
		if err != nil {
			t.Fatalf("CreatePasswordHash: %v", err)
		}
		creds := &credentialStoreStub{credentials: UserCredentials{User: User{ID: "user-1"}, PasswordHash: hash}}
		svc := NewAuthService(creds, newSessionRepositoryStub(), nil, sequence("id", "token"), time.Now, time.Hour)

		if _, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "a@example.com", Password: "correct horse"}); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if _, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "a@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("rejects disabled accounts", func(t *testing.T) {
		t.Parallel()

		creds := &credentialStoreStub{credentials: UserCredentials{User: User{ID: "user"}, PasswordHash: "secret", Disabled: true}}
		svc := NewAuthService(creds, newSessionRepositoryStub(), plainVerifier, nil, time.Now, time.Hour)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "user@example.com", Password: "secret"})
		if !errors.Is(err, ErrAccountDisabled) {
			t.Fatalf("expected ErrAccountDisabled, got %v", err)
		}
	})

	t.Run("unknown email maps to invalid credentials", func(t *testing.T) {
		t.Parallel()

		creds := &credentialStoreStub{err: ErrNotFound}
		svc := NewAuthService(creds, newSessionRepositoryStub(), plainVerifier, nil, time.Now, time.Hour)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "ghost@example.com", Password: "x"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("propagates repository failures", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("boom")
		creds := &credentialStoreStub{credentials: UserCredentials{User: User{ID: "user"}, PasswordHash: "secret"}}
		repo := newSessionRepositoryStub()
		repo.createErr = expected
		svc := NewAuthService(creds, repo, plainVerifier, sequence("id", "token"), time.Now, time.Hour)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "user@example.com", Password: "secret"})
		if !errors.Is(err, expected) {
			t.Fatalf("expected error %v, got %v", expected, err)
		}
	})
}

func TestAuthService_RevokeSession(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	repo := newSessionRepositoryStub()
	repo.seed(Session{ID: "s1", UserID: "user-1", Token: "tok", ExpiresAt: now.Add(time.Hour)})
	svc := NewAuthService(&credentialStoreStub{}, repo, plainVerifier, nil, func() time.Time { return now }, time.Hour)

	if err := svc.RevokeSession(context.Background(), " tok "); err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if got := repo.sessions["tok"]; got.RevokedAt == nil || !got.RevokedAt.Equal(now) {
		t.Fatalf("expected revocation timestamp, got %+v", got)
	}
	if err := svc.RevokeSession(context.Background(), "missing"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown token, got %v", err)
	}
	if err := svc.RevokeSession(context.Background(), ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty token, got %v", err)
	}
}

func TestAuthService_ValidateSession(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	revokedAt := now.Add(-time.Minute)

	creds := &credentialStoreStub{users: map[string]User{
		"user-1": {ID: "user-1"},
		"admin":  {ID: "admin", IsAdmin: true},
	}}
	repo := newSessionRepositoryStub()
	repo.seed(Session{Token: "active", UserID: "user-1", ExpiresAt: now.Add(time.Hour)})
	repo.seed(Session{Token: "admin", UserID: "admin", ExpiresAt: now.Add(time.Hour)})
	repo.seed(Session{Token: "expired", UserID: "user-1", ExpiresAt: now})
	repo.seed(Session{Token: "revoked", UserID: "user-1", ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt})
	repo.seed(Session{Token: "orphan", UserID: "deleted", ExpiresAt: now.Add(time.Hour)})

	svc := NewAuthService(creds, repo, plainVerifier, nil, func() time.Time { return now }, time.Hour)

	cases := []struct {
		token   string
		want    Principal
		wantErr error
	}{
		{token: "active", want: Principal{UserID: "user-1"}},
		{token: "admin", want: Principal{UserID: "admin", IsAdmin: true}},
		{token: "expired", wantErr: ErrSessionExpired},
		{token: "revoked", wantErr: ErrSessionRevoked},
		{token: "orphan", wantErr: ErrUnauthorized},
		{token: "unknown", wantErr: ErrUnauthorized},
		{token: "", wantErr: ErrUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.token, func(t *testing.T) {
			got, err := svc.ValidateSession(context.Background(), tc.token)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateSession failed: %v", err)
			}
			if got != tc.want {
				t.Fatalf("principal = %+v, want %+v", got, tc.want)
			}
		})
	}
}

type credentialStoreStub struct {
	mu          sync.Mutex
	credentials UserCredentials
	users       map[string]User
	err         error
	lastEmail   string
}

func (c *credentialStoreStub) GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastEmail = email
	if c.err != nil {
		return UserCredentials{}, c.err
	}
	return c.credentials, nil
}

func (c *credentialStoreStub) GetUser(ctx context.Context, id string) (User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if user, ok := c.users[id]; ok {
		return user, nil
	}
	if c.credentials.User.ID == id && id != "" {
		return c.credentials.User, nil
	}
	return User{}, ErrNotFound
}

type sessionRepositoryStub struct {
	mu          sync.Mutex
	sessions    map[string]Session
	createErr   error
	deleteErr   error
	deleteCalls []time.Time
}

func newSessionRepositoryStub() *sessionRepositoryStub {
	return &sessionRepositoryStub{sessions: make(map[string]Session)}
}

func (s *sessionRepositoryStub) seed(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
}

func (s *sessionRepositoryStub) CreateSession(ctx context.Context, session Session) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return Session{}, s.createErr
	}
	s.sessions[session.Token] = session
	return session, nil
}

func (s *sessionRepositoryStub) GetSession(ctx context.Context, token string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

func (s *sessionRepositoryStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.sessions[token] = session
	return session, nil
}

func (s *sessionRepositoryStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls = append(s.deleteCalls, reference)
	return s.deleteErr
}
