// Package testutil provides an in-process stand-in for the remote roadmap
// voting service.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kingrea/roadmap/internal/api"
	"github.com/kingrea/roadmap/internal/feature"
)

// VoteVerdict decides the response to one POST /vote.
type VoteVerdict func(api.VoteRequest) (int, any)

// Service is a fake voting service backed by httptest.
type Service struct {
	Server *httptest.Server

	mu          sync.Mutex
	features    []feature.Feature
	fetchStatus int
	verdict     VoteVerdict
	votes       []api.VoteRequest
	fetches     int
	voteGate    chan struct{}
}

// NewService starts a fake service returning features and accepting every vote.
func NewService(t *testing.T, features []feature.Feature) *Service {
	t.Helper()
	s := &Service{
		features: features,
		verdict: func(api.VoteRequest) (int, any) {
			return http.StatusOK, api.VoteResponse{Status: api.StatusSuccess}
		},
	}
	r := chi.NewRouter()
	r.Get("/", s.handleFeatures)
	r.Post("/vote", s.handleVote)
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Server.Close)
	return s
}

// URL is the base URL of the fake service.
func (s *Service) URL() string {
	return s.Server.URL
}

// FailFetch makes GET / answer with the given status code.
func (s *Service) FailFetch(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchStatus = status
}

// SetVerdict replaces the vote handler.
func (s *Service) SetVerdict(v VoteVerdict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verdict = v
}

// Reject answers every vote with {status:"fail", message}.
func (s *Service) Reject(message string) {
	s.SetVerdict(func(api.VoteRequest) (int, any) {
		return http.StatusBadRequest, api.VoteResponse{Status: "fail", Message: message}
	})
}

// HoldVotes blocks vote responses until the returned release func is called.
// Release also runs on test cleanup, before the server shuts down.
func (s *Service) HoldVotes(t *testing.T) (release func()) {
	t.Helper()
	gate := make(chan struct{})
	s.mu.Lock()
	s.voteGate = gate
	s.mu.Unlock()
	var once sync.Once
	release = func() { once.Do(func() { close(gate) }) }
	t.Cleanup(release)
	return release
}

// Votes returns every vote received so far.
func (s *Service) Votes() []api.VoteRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.VoteRequest, len(s.votes))
	copy(out, s.votes)
	return out
}

// Fetches counts GET / calls.
func (s *Service) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func (s *Service) handleFeatures(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.fetches++
	status := s.fetchStatus
	features := append(make([]feature.Feature, 0, len(s.features)), s.features...)
	s.mu.Unlock()
	if status != 0 {
		writeJSON(w, status, map[string]string{"error": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{"features": features},
	})
}

func (s *Service) handleVote(w http.ResponseWriter, r *http.Request) {
	var req api.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.VoteResponse{Status: "fail", Message: "invalid JSON"})
		return
	}
	s.mu.Lock()
	s.votes = append(s.votes, req)
	verdict := s.verdict
	gate := s.voteGate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}
	status, body := verdict(req)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// SampleFeatures is a small roadmap with one completed item in the middle.
func SampleFeatures() []feature.Feature {
	return []feature.Feature{
		{ID: "f1", Title: "Dark mode", Description: "Easier on the eyes", Content: "https://img.example/dark.png", Details: "Ships with a system toggle.", Votes: 4, Status: "Open"},
		{ID: "f2", Title: "Export CSV", Description: "Download your data", Content: "https://img.example/csv.png", Details: "Already live for all plans.", Votes: 9, Status: feature.StatusCompleted},
		{ID: "f3", Title: "Mobile app", Description: "iOS and Android", Content: "https://img.example/mobile.png", Details: "Planned after the API freeze.", Votes: 0, Status: "Open"},
	}
}
