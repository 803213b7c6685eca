// Package voting submits a visitor's vote for a feature and classifies the
// service's answer as accepted, rejected, or never delivered.
package voting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kingrea/roadmap/internal/api"
)

// ErrInFlight is returned when a vote for the same feature is still
// outstanding and the in-flight guard is on.
var ErrInFlight = errors.New("voting: vote already in progress")

// RejectedError carries the service's refusal. Message is shown to the
// visitor verbatim; when the service sent none, the status is named instead.
type RejectedError struct {
	FeatureID string
	Status    string
	Message   string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("vote rejected (%s)", e.Status)
	}
	return e.Message
}

// TransportError means no verdict was obtained: the request failed or the
// response could not be decoded.
type TransportError struct {
	FeatureID string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("voting: submit %s: %v", e.FeatureID, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IdentitySource resolves the session identifier sent with each vote.
type IdentitySource interface {
	SessionID() (string, error)
}

// Poster delivers a vote to the service. *api.Client satisfies it.
type Poster interface {
	PostVote(ctx context.Context, vote api.VoteRequest) (api.VoteResponse, error)
}

// Journal is the diagnostic channel. It matches logbook.Logbook.
type Journal interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Submitter sends votes for one session.
type Submitter struct {
	poster  Poster
	ids     IdentitySource
	journal Journal
	scope   func(sessionID string) Journal
	guard   bool

	mu       sync.Mutex
	inflight map[string]int
}

// Option customizes a Submitter.
type Option func(*Submitter)

// WithJournal records outcomes and transport failures.
func WithJournal(j Journal) Option {
	return func(s *Submitter) {
		if j != nil {
			s.journal = j
		}
	}
}

// WithSessionScope derives the journal used once a vote's session identifier
// is known. Entries written before that go to the plain journal.
func WithSessionScope(scope func(sessionID string) Journal) Option {
	return func(s *Submitter) {
		s.scope = scope
	}
}

// WithInFlightGuard toggles refusal of concurrent votes for the same feature.
func WithInFlightGuard(enabled bool) Option {
	return func(s *Submitter) {
		s.guard = enabled
	}
}

// NewSubmitter builds a submitter. The in-flight guard is on by default.
func NewSubmitter(poster Poster, ids IdentitySource, opts ...Option) *Submitter {
	s := &Submitter{
		poster:   poster,
		ids:      ids,
		journal:  nopJournal{},
		guard:    true,
		inflight: map[string]int{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Submit casts one vote. A nil error means the service accepted it and the
// caller should apply the optimistic increment.
func (s *Submitter) Submit(ctx context.Context, featureID string) error {
	if strings.TrimSpace(featureID) == "" {
		return fmt.Errorf("voting: feature id is required")
	}
	if !s.acquire(featureID) {
		s.journal.Warn("vote for %s ignored: previous vote still in flight", featureID)
		return ErrInFlight
	}
	defer s.release(featureID)

	sessionID, err := s.ids.SessionID()
	if err != nil {
		s.journal.Error("vote for %s not sent: %v", featureID, err)
		return fmt.Errorf("voting: resolve session: %w", err)
	}
	journal := s.journalFor(sessionID)
	verdict, err := s.poster.PostVote(ctx, api.VoteRequest{FeatureID: featureID, SessionID: sessionID})
	if err != nil {
		terr := &TransportError{FeatureID: featureID, Err: err}
		journal.Error("Error voting: %v", terr)
		return terr
	}
	if !verdict.Accepted() {
		journal.Info("vote for %s rejected: %s", featureID, verdict.Message)
		return &RejectedError{FeatureID: featureID, Status: verdict.Status, Message: verdict.Message}
	}
	journal.Info("vote for %s accepted", featureID)
	return nil
}

func (s *Submitter) journalFor(sessionID string) Journal {
	if s.scope != nil {
		if j := s.scope(sessionID); j != nil {
			return j
		}
	}
	return s.journal
}

// InFlight reports whether a vote for featureID is outstanding.
func (s *Submitter) InFlight(featureID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight[featureID] > 0
}

func (s *Submitter) acquire(featureID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.guard && s.inflight[featureID] > 0 {
		return false
	}
	s.inflight[featureID]++
	return true
}

func (s *Submitter) release(featureID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[featureID]--; s.inflight[featureID] <= 0 {
		delete(s.inflight, featureID)
	}
}

type nopJournal struct{}

func (nopJournal) Info(string, ...any)  {}
func (nopJournal) Warn(string, ...any)  {}
func (nopJournal) Error(string, ...any) {}
