package mining

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/coinvest/coinvest/internal/apiclient"
	"github.com/coinvest/coinvest/internal/logging"
)

type fakeAPI struct {
	status ServerStatus
	err    error
	paths  []string
}

func (f *fakeAPI) Get(_ context.Context, path string, out any) error {
	f.paths = append(f.paths, "GET "+path)
	return f.fill(out)
}

func (f *fakeAPI) Post(_ context.Context, path string, _, out any) error {
	f.paths = append(f.paths, "POST "+path)
	return f.fill(out)
}

func (f *fakeAPI) fill(out any) error {
	if f.err != nil {
		return f.err
	}
	raw, _ := json.Marshal(f.status)
	return json.Unmarshal(raw, out)
}

type memSnapshots struct {
	state *State
	saves int
}

func (m *memSnapshots) LoadMining(context.Context) (*State, error) {
	if m.state == nil {
		return nil, nil
	}
	cp := *m.state
	return &cp, nil
}

func (m *memSnapshots) SaveMining(_ context.Context, st State) error {
	m.state = &st
	m.saves++
	return nil
}

func TestServicePersistsReconciledState(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(-time.Hour)
	api := &fakeAPI{status: ServerStatus{SessionID: 4, Status: "active", StartedAt: &start}}
	store := &memSnapshots{}

	svc := NewService(api, store, logging.Discard())
	svc.now = func() time.Time { return now }

	st, err := svc.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if st.Phase != PhaseRunning || store.saves != 1 || store.state.SessionID != 4 {
		t.Fatalf("unexpected state %+v saves=%d", st, store.saves)
	}
	if api.paths[0] != "POST /mining/start" {
		t.Fatalf("unexpected call %v", api.paths)
	}
}

func TestServiceFallsBackToStaleSnapshotOffline(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(-2 * time.Hour)
	store := &memSnapshots{state: &State{Phase: PhaseRunning, StartAt: &start}}
	api := &fakeAPI{err: &apiclient.Error{Kind: apiclient.KindNetwork, Message: "offline"}}

	svc := NewService(api, store, logging.Discard())
	svc.now = func() time.Time { return now }

	st, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !st.Stale || st.Remaining() != 22*time.Hour {
		t.Fatalf("expected stale derived snapshot, got %+v", st)
	}
	if store.saves != 0 {
		t.Fatal("offline snapshots must not be persisted")
	}
}

func TestServiceDoesNotMaskAuthFailures(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	store := &memSnapshots{state: &State{Phase: PhaseRunning, StartAt: &start}}
	api := &fakeAPI{err: &apiclient.Error{Kind: apiclient.KindUnauthorized}}

	_, err := NewService(api, store, logging.Discard()).Status(context.Background())
	if apiclient.KindOf(err) != apiclient.KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceRejectsUnknownStatus(t *testing.T) {
	api := &fakeAPI{status: ServerStatus{Status: "melting"}}
	store := &memSnapshots{}

	_, err := NewService(api, store, logging.Discard()).Status(context.Background())
	if !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
	if store.saves != 0 {
		t.Fatal("rejected status must not be persisted")
	}
}
