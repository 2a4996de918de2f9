// Package session holds the authenticated identity and its bearer token.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"youdo/internal/kv"
	"youdo/internal/logging"
	"youdo/internal/service"
)

// ErrNotLoggedIn is returned by operations that need a session.
var ErrNotLoggedIn = errors.New("not logged in")

// Session is a token and the user it belongs to.
type Session struct {
	Token string
	User  service.User
}

// Event is delivered to subscribers when the session changes.
type Event int

const (
	// EventLogin follows a successful login, register or restore.
	EventLogin Event = iota + 1

	// EventLogout follows an explicit logout.
	EventLogout

	// EventExpired follows the remote rejecting the token.
	EventExpired
)

func (e Event) String() string {
	switch e {
	case EventLogin:
		return "login"
	case EventLogout:
		return "logout"
	case EventExpired:
		return "expired"
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// Store holds the current session. Token and user are installed and
// cleared together under one lock.
type Store struct {
	auth   service.Authenticator
	kv     kv.Store
	logger *slog.Logger

	mu         sync.RWMutex
	current    *Session
	generation uint64
	expired    bool

	subMu     sync.Mutex
	subs      map[int]func(Event)
	nextSubID int
}

// New creates an empty Store. Call Restore to load a persisted session.
func New(auth service.Authenticator, store kv.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{
		auth:   auth,
		kv:     store,
		logger: logger.With("component", "session"),
		subs:   make(map[int]func(Event)),
	}
}

// SetAuthenticator replaces the remote used by Login and Register.
// The remote client usually needs the Store as its credentials, so the
// two are wired after construction.
func (s *Store) SetAuthenticator(auth service.Authenticator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = auth
}

// Restore loads a persisted session without contacting the remote.
// A token without a user (or the reverse) is discarded.
func (s *Store) Restore() (bool, error) {
	token, hasToken, err := s.kv.Get(kv.KeyToken)
	if err != nil {
		return false, fmt.Errorf("failed to read session: %w", err)
	}
	rawUser, hasUser, err := s.kv.Get(kv.KeyUser)
	if err != nil {
		return false, fmt.Errorf("failed to read session: %w", err)
	}

	var user service.User
	valid := hasToken && hasUser && token != ""
	if valid {
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			valid = false
		}
	}
	if !valid {
		if hasToken || hasUser {
			s.logger.Warn("discarding incomplete persisted session")
			if err := s.kv.Delete(kv.KeyToken, kv.KeyUser); err != nil {
				return false, fmt.Errorf("failed to clear session: %w", err)
			}
		}
		return false, nil
	}

	s.install(Session{Token: token, User: user})
	s.logger.Debug("session restored", "user_id", user.ID)
	s.notify(EventLogin)
	return true, nil
}

// Login authenticates with email and password. On failure the previous
// session, if any, is kept.
func (s *Store) Login(ctx context.Context, email, password string) (Session, error) {
	req := service.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := service.Validate(req); err != nil {
		return Session{}, err
	}
	auth := s.authenticator()
	if auth == nil {
		return Session{}, errors.New("no authenticator configured")
	}
	data, err := auth.Login(ctx, req)
	if err != nil {
		return Session{}, err
	}
	return s.accept(data)
}

// Register creates an account and logs into it. On failure the previous
// session, if any, is kept.
func (s *Store) Register(ctx context.Context, name, email, password string) (Session, error) {
	req := service.RegisterRequest{
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := service.Validate(req); err != nil {
		return Session{}, err
	}
	auth := s.authenticator()
	if auth == nil {
		return Session{}, errors.New("no authenticator configured")
	}
	data, err := auth.Register(ctx, req)
	if err != nil {
		return Session{}, err
	}
	return s.accept(data)
}

// Logout clears the session in memory and on disk.
func (s *Store) Logout() error {
	return s.clear(EventLogout)
}

// Expire clears the session after the remote rejected its token.
func (s *Store) Expire() error {
	return s.clear(EventExpired)
}

// Current returns the active session.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// Active reports whether a session is installed.
func (s *Store) Active() bool {
	_, ok := s.Current()
	return ok
}

// Expired reports whether the last clear was caused by token rejection.
func (s *Store) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expired
}

// Generation changes on every install and clear. Work started under one
// generation must not be applied under another.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// BearerToken implements service.Credentials.
func (s *Store) BearerToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Claims describes what the token says about itself.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Claims decodes the token without verifying its signature. Tokens that
// are not JWTs yield ok == false.
func (s *Store) Claims() (Claims, bool) {
	token := s.BearerToken()
	if token == "" {
		return Claims{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Claims{}, false
	}

	var out Claims
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	return out, true
}

// Subscribe registers fn for session events and returns a function that
// unregisters it. fn runs synchronously after the change is applied.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) authenticator() service.Authenticator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auth
}

func (s *Store) accept(data service.AuthData) (Session, error) {
	if data.Token == "" {
		return Session{}, &service.DecodeError{Err: errors.New("auth response without token")}
	}
	sess := Session{Token: data.Token, User: data.User}

	rawUser, err := json.Marshal(data.User)
	if err != nil {
		return Session{}, fmt.Errorf("failed to encode user: %w", err)
	}

	prev := s.snapshotKeys()
	if err := s.persist(sess.Token, string(rawUser)); err != nil {
		if rerr := s.restoreKeys(prev); rerr != nil {
			s.logger.Warn("failed to restore previous session", "error", rerr)
		}
		return Session{}, fmt.Errorf("failed to save session: %w", err)
	}

	s.install(sess)
	s.logger.Info("logged in", "user_id", sess.User.ID)
	s.notify(EventLogin)
	return sess, nil
}

func (s *Store) persist(token, rawUser string) error {
	if err := s.kv.Set(kv.KeyToken, token); err != nil {
		return err
	}
	return s.kv.Set(kv.KeyUser, rawUser)
}

// storedKey is a persisted value and whether it was present.
type storedKey struct {
	key   string
	value string
	ok    bool
}

func (s *Store) snapshotKeys() []storedKey {
	keys := []storedKey{{key: kv.KeyToken}, {key: kv.KeyUser}}
	for i := range keys {
		keys[i].value, keys[i].ok, _ = s.kv.Get(keys[i].key)
	}
	return keys
}

func (s *Store) restoreKeys(keys []storedKey) error {
	var errs []error
	for _, k := range keys {
		if k.ok {
			errs = append(errs, s.kv.Set(k.key, k.value))
		} else {
			errs = append(errs, s.kv.Delete(k.key))
		}
	}
	return errors.Join(errs...)
}

func (s *Store) install(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &sess
	s.expired = false
	s.generation++
}

func (s *Store) clear(ev Event) error {
	s.mu.Lock()
	had := s.current != nil
	s.current = nil
	s.expired = ev == EventExpired
	s.generation++
	s.mu.Unlock()

	err := s.kv.Delete(kv.KeyToken, kv.KeyUser)
	if err != nil {
		err = fmt.Errorf("failed to clear session: %w", err)
	}

	if had {
		s.logger.Info("session cleared", "reason", ev.String())
	}
	s.notify(ev)
	return err
}

func (s *Store) notify(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
