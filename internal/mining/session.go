// Package mining models the 24 hour mining session and keeps the local
// view of it consistent with the server.
package mining

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SessionDuration is the fixed length of a mining session.
const SessionDuration = 24 * time.Hour

// Phase is the lifecycle position of a session.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseStarting  Phase = "starting"
	PhaseRunning   Phase = "running"
	PhaseCompleted Phase = "completed"
)

// ErrUnknownStatus is returned for server status strings outside the known set.
var ErrUnknownStatus = errors.New("mining: unknown server status")

var phaseByStatus = map[string]Phase{
	"active":      PhaseRunning,
	"running":     PhaseRunning,
	"mining":      PhaseRunning,
	"in_progress": PhaseRunning,
	"starting":    PhaseStarting,
	"pending":     PhaseStarting,
	"queued":      PhaseStarting,
	"completed":   PhaseCompleted,
	"complete":    PhaseCompleted,
	"finished":    PhaseCompleted,
	"ready":       PhaseCompleted,
	"claimable":   PhaseCompleted,
	"idle":        PhaseIdle,
	"inactive":    PhaseIdle,
	"stopped":     PhaseIdle,
	"claimed":     PhaseIdle,
	"none":        PhaseIdle,
	"":            PhaseIdle,
}

// ParsePhase maps a server status string to a Phase, ignoring case and
// surrounding space.
func ParsePhase(status string) (Phase, error) {
	p, ok := phaseByStatus[strings.ToLower(strings.TrimSpace(status))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	return p, nil
}

// NormalizeServerProgress01 turns a server progress value into a fraction.
// The server sends either a fraction or a percentage; anything outside
// [0,1] is read as a percentage. A bare 1 is ambiguous and is read as
// 100%.
func NormalizeServerProgress01(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 || v > 1 {
		v /= 100
	}
	return math.Min(1, math.Max(0, v))
}

// ServerStatus is the payload of every /mining endpoint.
type ServerStatus struct {
	SessionID     int64           `json:"session_id,omitempty"`
	Status        string          `json:"status"`
	StartedAt     *time.Time      `json:"started_at,omitempty"`
	Progress      *float64        `json:"progress,omitempty"`
	Reward        decimal.Decimal `json:"reward"`
	RewardClaimed bool            `json:"reward_claimed"`
}

// State is the reconciled view shown to the user and cached on device.
type State struct {
	SessionID        int64           `json:"session_id,omitempty"`
	Phase            Phase           `json:"phase"`
	StartAt          *time.Time      `json:"start_at,omitempty"`
	Progress         float64         `json:"progress"`
	RemainingSeconds int64           `json:"remaining_seconds"`
	Reward           decimal.Decimal `json:"reward"`
	RewardClaimed    bool            `json:"reward_claimed"`
	SyncedAt         time.Time       `json:"synced_at"`
	Stale            bool            `json:"stale"`
}

// Remaining returns the time left in the session.
func (s State) Remaining() time.Duration {
	return time.Duration(s.RemainingSeconds) * time.Second
}

// CanClaim reports whether a finished reward is waiting.
func (s State) CanClaim() bool {
	return s.Phase == PhaseCompleted && !s.RewardClaimed
}

// Derive recomputes progress, remaining time and phase of s at now.
func Derive(s State, now time.Time) State {
	switch s.Phase {
	case PhaseRunning:
		if s.StartAt != nil {
			elapsed := now.Sub(*s.StartAt)
			if elapsed < 0 {
				elapsed = 0
			}
			s.Progress = math.Min(1, elapsed.Seconds()/SessionDuration.Seconds())
			s.RemainingSeconds = int64(math.Ceil(math.Max(0, (SessionDuration - elapsed).Seconds())))
		} else {
			s.Progress = math.Min(1, math.Max(0, s.Progress))
			s.RemainingSeconds = int64(math.Ceil((1 - s.Progress) * SessionDuration.Seconds()))
		}
		if s.Progress >= 1 {
			s.Phase = PhaseCompleted
			s.Progress, s.RemainingSeconds = 1, 0
			if s.RewardClaimed {
				s.Phase, s.Progress = PhaseIdle, 0
			}
		}
	case PhaseCompleted:
		s.Progress, s.RemainingSeconds = 1, 0
		if s.RewardClaimed {
			s.Phase, s.Progress = PhaseIdle, 0
		}
	case PhaseStarting:
		s.Progress = 0
		s.RemainingSeconds = int64(SessionDuration.Seconds())
	default:
		s.Phase = PhaseIdle
		s.Progress, s.RemainingSeconds = 0, 0
	}
	return s
}

// progressTolerance is how far a cached start may drift from the progress
// the server reports before the server value is used instead.
const progressTolerance = 0.02

// Reconcile merges a server status with the cached snapshot. The server
// decides phase and reward state. The start time comes from the server,
// then from a cached snapshot of the same running session that agrees with
// any reported progress, then from the reported progress.
func Reconcile(server ServerStatus, cached *State, now time.Time) (State, error) {
	phase, err := ParsePhase(server.Status)
	if err != nil {
		return State{}, err
	}

	st := State{
		SessionID:     server.SessionID,
		Phase:         phase,
		Reward:        server.Reward,
		RewardClaimed: server.RewardClaimed,
		SyncedAt:      now,
	}
	if server.Progress != nil {
		st.Progress = NormalizeServerProgress01(*server.Progress)
	}

	active := phase == PhaseRunning || phase == PhaseCompleted
	switch {
	case server.StartedAt != nil:
		start := *server.StartedAt
		st.StartAt = &start
	case active && sameSession(server, cached) && agreesWithProgress(*cached.StartAt, st.Progress, server.Progress != nil, now):
		start := *cached.StartAt
		st.StartAt = &start
	case active && server.Progress != nil:
		start := now.Add(-time.Duration(st.Progress * float64(SessionDuration)))
		st.StartAt = &start
	}

	return Derive(st, now), nil
}

func sameSession(server ServerStatus, cached *State) bool {
	if cached == nil || cached.StartAt == nil || cached.Phase != PhaseRunning {
		return false
	}
	return server.SessionID != 0 && server.SessionID == cached.SessionID
}

func agreesWithProgress(start time.Time, progress float64, reported bool, now time.Time) bool {
	if !reported {
		return true
	}
	elapsed := math.Max(0, now.Sub(start).Seconds())
	local := math.Min(1, elapsed/SessionDuration.Seconds())
	return math.Abs(local-progress) <= progressTolerance
}
