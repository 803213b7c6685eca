package board

import (
	"errors"
	"testing"

	"github.com/kingrea/roadmap/internal/feature"
	"github.com/kingrea/roadmap/internal/voting"
)

func sample() []feature.Feature {
	return []feature.Feature{
		{ID: "a", Title: "A", Details: "about a", Votes: 2, Status: "Open"},
		{ID: "b", Title: "B", Details: "about b", Votes: 5, Status: feature.StatusCompleted},
		{ID: "c", Title: "C", Details: "about c", Votes: 0, Status: "Open"},
	}
}

func TestLoadPartitionsInOrder(t *testing.T) {
	b := New()
	if b.Phase() != PhaseLoading {
		t.Fatalf("new board should be loading, got %s", b.Phase())
	}
	if !b.Load(sample()) {
		t.Fatalf("load should succeed from loading")
	}
	pending := b.Pending()
	if len(pending) != 2 || pending[0].ID != "a" || pending[1].ID != "c" {
		t.Fatalf("unexpected pending: %+v", pending)
	}
	completed := b.Completed()
	if len(completed) != 1 || completed[0].ID != "b" {
		t.Fatalf("unexpected completed: %+v", completed)
	}
}

func TestErrorPhaseIsTerminal(t *testing.T) {
	b := New()
	if !b.Fail(errors.New("Failed to fetch data")) {
		t.Fatalf("fail should succeed from loading")
	}
	if b.Load(sample()) {
		t.Fatalf("error board must never become ready")
	}
	if b.Phase() != PhaseError || b.Err() != "Failed to fetch data" {
		t.Fatalf("unexpected state %s %q", b.Phase(), b.Err())
	}
}

func TestReadyPhaseIgnoresLateFailure(t *testing.T) {
	b := New()
	b.Load(sample())
	if b.Fail(errors.New("late")) || b.Phase() != PhaseReady {
		t.Fatalf("ready board must stay ready")
	}
}

func TestLoadCopiesInput(t *testing.T) {
	input := sample()
	b := New()
	b.Load(input)
	b.ApplyVote("a")
	if input[0].Votes != 2 {
		t.Fatalf("board mutated caller slice")
	}
}

func TestRecordAcceptedVote(t *testing.T) {
	b := New()
	b.Load(sample())
	if got := b.RecordVote("c", nil); got != ResultAccepted {
		t.Fatalf("expected accepted, got %d", got)
	}
	f, _ := b.Feature("c")
	if f.Votes != 1 {
		t.Fatalf("expected optimistic increment to 1, got %d", f.Votes)
	}
	if !b.Celebrating() {
		t.Fatalf("expected celebration")
	}
	b.RecordVote("c", nil)
	f, _ = b.Feature("c")
	if f.Votes != 0+b.AcceptedVotes("c") {
		t.Fatalf("votes %d != fetched 0 + accepted %d", f.Votes, b.AcceptedVotes("c"))
	}
	b.EndCelebration()
	if b.Celebrating() {
		t.Fatalf("celebration should clear")
	}
}

func TestRecordRejectedVote(t *testing.T) {
	b := New()
	b.Load(sample())
	got := b.RecordVote("a", &voting.RejectedError{FeatureID: "a", Status: "fail", Message: "Already voted"})
	if got != ResultRejected {
		t.Fatalf("expected rejected, got %d", got)
	}
	notice, ok := b.Notice()
	if !ok || notice != "Already voted" {
		t.Fatalf("unexpected notice %q", notice)
	}
	f, _ := b.Feature("a")
	if f.Votes != 2 || b.Celebrating() {
		t.Fatalf("rejection must not change votes or celebrate")
	}
	b.Dismiss()
	if _, ok := b.Notice(); ok {
		t.Fatalf("notice should be dismissed")
	}
}

func TestRecordTransportFailure(t *testing.T) {
	b := New()
	b.Load(sample())
	got := b.RecordVote("a", &voting.TransportError{FeatureID: "a", Err: errors.New("connection refused")})
	if got != ResultNotSent {
		t.Fatalf("expected not sent, got %d", got)
	}
	if _, ok := b.Notice(); ok {
		t.Fatalf("transport failures are not blocking")
	}
	if b.Status() == "" {
		t.Fatalf("expected status line")
	}
	if b.RecordVote("a", voting.ErrInFlight) != ResultBusy {
		t.Fatalf("expected busy")
	}
}

func TestDetailsOverlay(t *testing.T) {
	b := New()
	b.Load(sample())
	if b.OpenDetails("missing") {
		t.Fatalf("unknown feature should not open overlay")
	}
	if !b.OpenDetails("b") {
		t.Fatalf("expected overlay for b")
	}
	overlay, ok := b.Overlay()
	if !ok || overlay.Details != "about b" {
		t.Fatalf("unexpected overlay %+v", overlay)
	}
	b.CloseDetails()
	if _, ok := b.Overlay(); ok {
		t.Fatalf("overlay should be cleared")
	}
}
