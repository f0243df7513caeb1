package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coinvest/coinvest/internal/apiclient"
	"github.com/coinvest/coinvest/internal/securestore"
)

// ErrNotAuthenticated is returned when no usable session is stored.
var ErrNotAuthenticated = errors.New("auth: not authenticated")

// Clearer is local state dropped together with the session.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Session is the persisted login. It is the token source of the API client,
// so a 401 clears it through Clear as well.
type Session struct {
	store    *securestore.Store
	logger   *slog.Logger
	now      func() time.Time
	clearers []Clearer
	notify   apiclient.AuthStateNotifier
}

// NewSession wraps the secure store. clearers are wiped whenever the
// session is, whether by logout, a 401 or token expiry.
func NewSession(store *securestore.Store, logger *slog.Logger, clearers ...Clearer) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{store: store, logger: logger, now: time.Now, clearers: clearers}
}

// NotifyExpiry makes Token broadcast authenticated=false through n when it
// drops an expired or unreadable session.
func (s *Session) NotifyExpiry(n apiclient.AuthStateNotifier) {
	s.notify = n
}

// Token returns the stored bearer token. An expired JWT is wiped and
// reported as no token.
func (s *Session) Token(ctx context.Context) (string, error) {
	token, err := s.store.Token(ctx)
	if err != nil {
		if errors.Is(err, securestore.ErrCorrupt) {
			s.logger.Warn("dropping unreadable session", "error", err)
			return "", s.drop(ctx)
		}
		return "", err
	}
	if token != "" && TokenExpired(token, s.now()) {
		s.logger.Info("stored token expired")
		return "", s.drop(ctx)
	}
	return token, nil
}

func (s *Session) drop(ctx context.Context) error {
	err := s.Clear(ctx)
	if s.notify != nil {
		s.notify.AuthStateChanged(ctx, false)
	}
	return err
}

// Save persists token and user.
func (s *Session) Save(ctx context.Context, token string, user User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.store.SaveSession(ctx, token, raw)
}

// SaveUser replaces the stored user, keeping the token.
func (s *Session) SaveUser(ctx context.Context, user User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.store.Put(ctx, securestore.KeyUserData, raw)
}

// User returns the stored user or ErrNotAuthenticated.
func (s *Session) User(ctx context.Context) (User, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return User{}, err
	}
	if token == "" {
		return User{}, ErrNotAuthenticated
	}
	raw, err := s.store.User(ctx)
	if err != nil {
		return User{}, err
	}
	if raw == nil {
		return User{}, ErrNotAuthenticated
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return User{}, fmt.Errorf("decode user: %w", err)
	}
	return u, nil
}

// Authenticated reports whether a usable token is stored.
func (s *Session) Authenticated(ctx context.Context) bool {
	token, err := s.Token(ctx)
	return err == nil && token != ""
}

// Clear wipes the token, the user record and every clearer.
func (s *Session) Clear(ctx context.Context) error {
	var errs []error
	if err := s.store.Clear(ctx); err != nil {
		errs = append(errs, err)
	}
	for _, c := range s.clearers {
		if err := c.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Broadcaster fans auth state changes out to subscribers.
type Broadcaster struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(authenticated bool)
}

// NewBroadcaster returns an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]func(bool))}
}

// Subscribe registers fn and returns a function removing it.
func (b *Broadcaster) Subscribe(fn func(authenticated bool)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// AuthStateChanged notifies every subscriber.
func (b *Broadcaster) AuthStateChanged(_ context.Context, authenticated bool) {
	b.mu.RLock()
	fns := make([]func(bool), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()
	for _, fn := range fns {
		fn(authenticated)
	}
}
