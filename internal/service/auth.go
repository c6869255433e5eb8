// Package service provides the application state stores.
//
// AuthStore owns the signed-in identity. HydrationStore owns the goal, intake
// and reminders of that identity. Both serialize their mutations, persist
// before swapping in new state, and notify subscribers after each completed
// mutation in mutation order. Subscribers must not mutate the store that is
// notifying them from inside the callback.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aquatrack/aquatrack/internal/auth"
	"github.com/aquatrack/aquatrack/internal/metrics"
	"github.com/aquatrack/aquatrack/internal/model"
	"github.com/aquatrack/aquatrack/internal/storage"
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// AuthStore tracks who is signed in.
type AuthStore struct {
	storage storage.Storage
	tokens  *auth.TokenIssuer
	hasher  PasswordHasher
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time

	op sync.Mutex // serializes mutations and their notifications

	mu    sync.RWMutex
	state model.AuthState
	token string

	listeners listeners[model.AuthState]
}

// NewAuthStore creates an AuthStore in the loading state. Call Restore to
// leave it.
func NewAuthStore(st storage.Storage, tokens *auth.TokenIssuer, logger *slog.Logger, recorder metrics.Recorder) *AuthStore {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthStore{
		storage: st,
		tokens:  tokens,
		hasher:  auth.NewHasher(auth.DefaultParams),
		logger:  logger.With("component", "auth"),
		metrics: recorder,
		now:     time.Now,
		state:   model.AuthState{Loading: true},
	}
}

// SetPasswordHasher replaces the hasher. Intended for tests.
func (s *AuthStore) SetPasswordHasher(h PasswordHasher) {
	s.hasher = h
}

// SetClock replaces the time source. Intended for tests.
func (s *AuthStore) SetClock(now func() time.Time) {
	s.now = now
}

// Snapshot returns the current authentication state.
func (s *AuthStore) Snapshot() model.AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *AuthStore) snapshotLocked() model.AuthState {
	out := s.state
	if s.state.User != nil {
		u := *s.state.User
		out.User = &u
	}
	return out
}

// IsAuthenticated reports whether a user is signed in.
func (s *AuthStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAuthenticated
}

// Loading reports whether an authentication operation is in progress.
func (s *AuthStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Loading
}

// Subscribe registers fn to receive the state after every change.
// The returned function unsubscribes.
func (s *AuthStore) Subscribe(fn func(model.AuthState)) func() {
	return s.listeners.add(fn)
}

// setState swaps in next and notifies subscribers. Callers hold s.op.
func (s *AuthStore) setState(next model.AuthState, token string) {
	s.mu.Lock()
	s.state = next
	s.token = token
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.listeners.emit(snap)
}

// Restore re-authenticates from the persisted session, if any.
// A missing, unreadable or invalid session leaves the store unauthenticated.
func (s *AuthStore) Restore(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	var sess model.Session
	err := storage.GetJSON(ctx, s.storage, storage.SessionKey, &sess)
	if errors.Is(err, storage.ErrNotFound) {
		s.setState(model.AuthState{}, "")
		return nil
	}
	if err != nil {
		s.setState(model.AuthState{Error: "failed to restore session"}, "")
		return fmt.Errorf("restore session: %w", err)
	}

	user, err := s.userForSession(ctx, sess)
	if err != nil {
		s.logger.Warn("session_discarded", "reason", err.Error())
		if delErr := s.storage.Delete(ctx, storage.SessionKey); delErr != nil {
			s.logger.Error("session_delete_failed", "error", delErr)
		}
		s.setState(model.AuthState{}, "")
		return nil
	}

	s.setState(model.AuthState{User: user, IsAuthenticated: true}, sess.Token)
	s.logger.Info("session_restored", "user_id", user.ID)
	return nil
}

func (s *AuthStore) userForSession(ctx context.Context, sess model.Session) (*model.User, error) {
	userID, err := s.tokens.Parse(sess.Token)
	if err != nil {
		return nil, err
	}
	if userID != sess.UserID {
		return nil, model.ErrInvalidSession
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, cred := range users {
		if cred.User.ID == userID {
			u := cred.User
			return &u, nil
		}
	}
	return nil, model.ErrInvalidSession
}

// Register creates an account. It does not sign the user in.
func (s *AuthStore) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)

	if email == "" || password == "" || name == "" {
		return nil, model.ErrMissingFields
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, model.ErrInvalidEmail
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrValidation, err)
	}

	s.op.Lock()
	defer s.op.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	if _, exists := users[email]; exists {
		return nil, model.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := model.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      name,
		CreatedAt: s.now().UTC(),
	}
	users[email] = model.Credential{User: user, PasswordHash: hash}

	if err := storage.SetJSON(ctx, s.storage, storage.UsersKey, users); err != nil {
		return nil, err
	}

	s.metrics.IncUserRegistered()
	s.logger.Info("user_registered", "user_id", user.ID)
	return &user, nil
}

// Login verifies credentials and starts a session.
// On failure a signed-out store ends unauthenticated with an error message.
// A failed attempt never ends an existing session.
func (s *AuthStore) Login(ctx context.Context, email, password string) (model.Session, error) {
	s.op.Lock()
	defer s.op.Unlock()

	signedIn := s.IsAuthenticated()
	fail := func(err error) (model.Session, error) {
		if signedIn {
			s.metrics.IncLogin(metrics.LoginFailure)
			s.logger.Warn("login_failed", "session_kept", true, "error", err)
		} else {
			s.failLogin(ctx, err)
		}
		return model.Session{}, err
	}

	if !signedIn {
		s.setState(model.AuthState{Loading: true}, "")
	}

	user, err := s.authenticate(ctx, normalizeEmail(email), password)
	if err != nil {
		return fail(err)
	}

	token, issuedAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return fail(err)
	}

	sess := model.Session{UserID: user.ID, Token: token, IssuedAt: issuedAt}
	if err := storage.SetJSON(ctx, s.storage, storage.SessionKey, sess); err != nil {
		return fail(err)
	}

	s.setState(model.AuthState{User: user, IsAuthenticated: true}, token)
	s.metrics.IncLogin(metrics.LoginSuccess)
	s.logger.Info("user_logged_in", "user_id", user.ID)
	return sess, nil
}

func (s *AuthStore) authenticate(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, model.ErrInvalidCredentials
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	cred, ok := users[email]
	if !ok {
		return nil, model.ErrInvalidCredentials
	}

	match, err := s.hasher.Verify(password, cred.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !match {
		return nil, model.ErrInvalidCredentials
	}

	u := cred.User
	return &u, nil
}

func (s *AuthStore) failLogin(ctx context.Context, err error) {
	msg := "login failed"
	if errors.Is(err, model.ErrAuth) {
		msg = "invalid email or password"
	}

	if delErr := s.storage.Delete(ctx, storage.SessionKey); delErr != nil {
		s.logger.Error("session_delete_failed", "error", delErr)
	}

	s.setState(model.AuthState{Error: msg}, "")
	s.metrics.IncLogin(metrics.LoginFailure)
	s.logger.Warn("login_failed", "error", err)
}

// Logout ends the session. In-memory state is always cleared; the returned
// error only reports a failure to delete the persisted session.
func (s *AuthStore) Logout(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	userID := ""
	if snap := s.Snapshot(); snap.User != nil {
		userID = snap.User.ID
	}

	err := s.storage.Delete(ctx, storage.SessionKey)

	s.setState(model.AuthState{}, "")
	s.metrics.IncLogout()
	s.logger.Info("user_logged_out", "user_id", userID)

	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// VerifyToken returns the signed-in user when token is the active session
// token and is still valid.
func (s *AuthStore) VerifyToken(token string) (*model.User, error) {
	s.mu.RLock()
	active := s.token
	snap := s.snapshotLocked()
	s.mu.RUnlock()

	if !snap.IsAuthenticated || active == "" || token == "" {
		return nil, model.ErrInvalidSession
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(active)) != 1 {
		return nil, model.ErrInvalidSession
	}
	if _, err := s.tokens.Parse(token); err != nil {
		return nil, model.ErrInvalidSession
	}
	return snap.User, nil
}

func (s *AuthStore) loadUsers(ctx context.Context) (map[string]model.Credential, error) {
	users := make(map[string]model.Credential)
	err := storage.GetJSON(ctx, s.storage, storage.UsersKey, &users)
	if errors.Is(err, storage.ErrNotFound) {
		return users, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if users == nil {
		users = make(map[string]model.Credential)
	}
	return users, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
