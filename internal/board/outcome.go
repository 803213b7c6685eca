package board

import (
	"errors"
	"fmt"

	"github.com/kingrea/roadmap/internal/voting"
)

// Result classifies how a vote attempt changed the board.
type Result int

const (
	// ResultAccepted: votes incremented and celebration raised. The caller
	// schedules EndCelebration.
	ResultAccepted Result = iota
	// ResultRejected: blocking notice shown, counts untouched.
	ResultRejected
	// ResultNotSent: the vote never got a verdict; status line only.
	ResultNotSent
	// ResultBusy: refused locally because a vote is still in flight.
	ResultBusy
)

// RecordVote folds the outcome of voting.Submitter.Submit into the board.
func (b *Board) RecordVote(featureID string, err error) Result {
	if err == nil {
		b.ApplyVote(featureID)
		b.Celebrate()
		b.SetStatus("")
		return ResultAccepted
	}
	var rejected *voting.RejectedError
	switch {
	case errors.As(err, &rejected):
		b.Notify(rejected.Error())
		b.SetStatus("")
		return ResultRejected
	case errors.Is(err, voting.ErrInFlight):
		b.SetStatus("Vote already in progress")
		return ResultBusy
	default:
		b.SetStatus(fmt.Sprintf("Vote not sent: %v", err))
		return ResultNotSent
	}
}
