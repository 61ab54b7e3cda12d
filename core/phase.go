package core

import (
	"fmt"
	"time"
)

// Phase is derived from the clock and an auction's deadlines; it is never stored.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseCommit
	PhaseReveal
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "NotStarted"
	case PhaseCommit:
		return "Commit"
	case PhaseReveal:
		return "Reveal"
	case PhaseEnded:
		return "Ended"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// PhaseOf computes the phase of an auction at the given time.
// A nil auction (one that does not exist) is NotStarted.
//
// Boundaries are inclusive on the closing side: a commit exactly at
// CommitDeadline is still in the Commit phase, and a reveal exactly at
// RevealDeadline is still in the Reveal phase.
func PhaseOf(a *Auction, now time.Time) Phase {
	if a == nil {
		return PhaseNotStarted
	}
	if !now.After(a.CommitDeadline) {
		return PhaseCommit
	}
	if !now.After(a.RevealDeadline) {
		return PhaseReveal
	}
	return PhaseEnded
}

// Deadlines stamps the commit and reveal deadlines for an auction created at now.
func Deadlines(now time.Time, commitDuration, revealDuration time.Duration) (commitDeadline, revealDeadline time.Time) {
	commitDeadline = now.Add(commitDuration)
	revealDeadline = commitDeadline.Add(revealDuration)
	return commitDeadline, revealDeadline
}
