package mining

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coinvest/coinvest/internal/apiclient"
)

// API is the subset of the HTTP client the service needs.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// SnapshotStore persists the last reconciled state.
type SnapshotStore interface {
	LoadMining(ctx context.Context) (*State, error)
	SaveMining(ctx context.Context, state State) error
}

// Service talks to the /mining endpoints and keeps the cached snapshot in
// step with the server.
type Service struct {
	api    API
	store  SnapshotStore
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires the mining service. store may be nil.
func NewService(api API, store SnapshotStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, store: store, logger: logger, now: time.Now}
}

// Status fetches the server status and reconciles it. When the server
// cannot be reached the cached snapshot is returned marked stale.
func (s *Service) Status(ctx context.Context) (State, error) {
	var server ServerStatus
	err := s.api.Get(ctx, "/mining/status", &server)
	if err != nil {
		if cached, ok := s.offline(ctx, err); ok {
			return cached, nil
		}
		return State{}, fmt.Errorf("mining status: %w", err)
	}
	return s.reconcile(ctx, server)
}

// Start begins a new session.
func (s *Service) Start(ctx context.Context) (State, error) {
	return s.post(ctx, "/mining/start")
}

// Stop ends the current session early.
func (s *Service) Stop(ctx context.Context) (State, error) {
	return s.post(ctx, "/mining/stop")
}

// ClaimRewards collects the reward of a completed session.
func (s *Service) ClaimRewards(ctx context.Context) (State, error) {
	return s.post(ctx, "/mining/claim-rewards")
}

// Cached returns the last persisted snapshot re-derived at the current
// time, or nil when nothing is cached.
func (s *Service) Cached(ctx context.Context) *State {
	if s.store == nil {
		return nil
	}
	cached, err := s.store.LoadMining(ctx)
	if err != nil {
		s.logger.Warn("load mining snapshot", "error", err)
		return nil
	}
	if cached == nil {
		return nil
	}
	st := Derive(*cached, s.now())
	st.Stale = true
	return &st
}

func (s *Service) post(ctx context.Context, path string) (State, error) {
	var server ServerStatus
	if err := s.api.Post(ctx, path, struct{}{}, &server); err != nil {
		return State{}, fmt.Errorf("mining %s: %w", path, err)
	}
	return s.reconcile(ctx, server)
}

func (s *Service) reconcile(ctx context.Context, server ServerStatus) (State, error) {
	var cached *State
	if s.store != nil {
		c, err := s.store.LoadMining(ctx)
		if err != nil {
			s.logger.Warn("load mining snapshot", "error", err)
		}
		cached = c
	}

	st, err := Reconcile(server, cached, s.now())
	if err != nil {
		return State{}, err
	}

	if s.store != nil {
		if err := s.store.SaveMining(ctx, st); err != nil {
			s.logger.Warn("save mining snapshot", "error", err)
		}
	}
	return st, nil
}

func (s *Service) offline(ctx context.Context, cause error) (State, bool) {
	switch apiclient.KindOf(cause) {
	case apiclient.KindNetwork, apiclient.KindServer:
	default:
		return State{}, false
	}
	cached := s.Cached(ctx)
	if cached == nil {
		return State{}, false
	}
	return *cached, true
}
