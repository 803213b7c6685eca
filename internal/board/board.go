// Package board holds the roadmap view state shared by the terminal and web
// front ends: the loaded features, the load phase, the celebration flag,
// the detail overlay and the blocking notice.
//
// A Board reflects exactly one fetch. Once it leaves the loading phase it
// never returns there; a new Board is the only way to load again.
package board

import (
	"github.com/kingrea/roadmap/internal/feature"
)

// Phase is the load state of a board.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Overlay is the open detail view for one feature.
type Overlay struct {
	FeatureID string
	Title     string
	Details   string
}

// Board is not safe for concurrent use; callers serialize access.
type Board struct {
	phase       Phase
	features    []feature.Feature
	err         string
	celebrating bool
	overlay     *Overlay
	notice      string
	status      string
	accepted    map[string]int
}

// New returns a board in the loading phase.
func New() *Board {
	return &Board{phase: PhaseLoading, accepted: map[string]int{}}
}

// Phase reports the current load phase.
func (b *Board) Phase() Phase { return b.phase }

// Err is the load failure message in the error phase.
func (b *Board) Err() string { return b.err }

// Load moves a loading board to ready. It reports false if the board has
// already settled.
func (b *Board) Load(features []feature.Feature) bool {
	if b.phase != PhaseLoading {
		return false
	}
	b.features = append([]feature.Feature(nil), features...)
	b.phase = PhaseReady
	return true
}

// Fail moves a loading board to the terminal error phase.
func (b *Board) Fail(err error) bool {
	if b.phase != PhaseLoading {
		return false
	}
	b.phase = PhaseError
	if err != nil {
		b.err = err.Error()
	}
	return true
}

// Features returns a copy of every feature in fetch order.
func (b *Board) Features() []feature.Feature {
	return append([]feature.Feature(nil), b.features...)
}

// Pending returns features not yet completed, in fetch order.
func (b *Board) Pending() []feature.Feature {
	pending, _ := feature.Partition(b.features)
	return pending
}

// Completed returns completed features, in fetch order.
func (b *Board) Completed() []feature.Feature {
	_, completed := feature.Partition(b.features)
	return completed
}

// Feature looks up a feature by id.
func (b *Board) Feature(id string) (feature.Feature, bool) {
	return feature.Find(b.features, id)
}

// ApplyVote performs the optimistic increment after an accepted vote.
func (b *Board) ApplyVote(featureID string) bool {
	if !feature.IncrementVotes(b.features, featureID) {
		return false
	}
	b.accepted[featureID]++
	return true
}

// AcceptedVotes is the number of optimistic increments applied to a feature
// since load.
func (b *Board) AcceptedVotes(featureID string) int {
	return b.accepted[featureID]
}

// Celebrate raises the celebration flag.
func (b *Board) Celebrate() { b.celebrating = true }

// EndCelebration lowers it. Each accepted vote schedules its own call, so an
// earlier timer can end a later vote's celebration.
func (b *Board) EndCelebration() { b.celebrating = false }

// Celebrating reports the celebration flag.
func (b *Board) Celebrating() bool { return b.celebrating }

// OpenDetails fills the overlay with the feature's details.
func (b *Board) OpenDetails(featureID string) bool {
	f, ok := b.Feature(featureID)
	if !ok {
		return false
	}
	b.overlay = &Overlay{FeatureID: f.ID, Title: f.Title, Details: f.Details}
	return true
}

// CloseDetails clears the overlay.
func (b *Board) CloseDetails() { b.overlay = nil }

// Overlay returns the open overlay, if any.
func (b *Board) Overlay() (Overlay, bool) {
	if b.overlay == nil {
		return Overlay{}, false
	}
	return *b.overlay, true
}

// Notify shows a blocking notice.
func (b *Board) Notify(message string) { b.notice = message }

// Dismiss clears the notice.
func (b *Board) Dismiss() { b.notice = "" }

// Notice returns the blocking notice text; ok is false when none is shown.
func (b *Board) Notice() (string, bool) {
	return b.notice, b.notice != ""
}

// SetStatus replaces the non-blocking status line.
func (b *Board) SetStatus(status string) { b.status = status }

// Status is the non-blocking status line.
func (b *Board) Status() string { return b.status }
