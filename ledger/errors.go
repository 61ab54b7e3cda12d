package ledger

import (
	"errors"
	"fmt"

	"github.com/cloudx-io/sealedauction/core"
)

var (
	ErrPaused                   = errors.New("ledger: paused")
	ErrAuctionNotFound          = errors.New("ledger: auction not found")
	ErrInvalidCaller            = errors.New("ledger: caller is the zero address")
	ErrDurationTooShort         = errors.New("ledger: duration below configured minimum")
	ErrEscrow                   = errors.New("ledger: asset escrow failed")
	ErrPhaseMismatch            = errors.New("ledger: phase mismatch")
	ErrInvalidCommitment        = errors.New("ledger: commitment hash is empty")
	ErrDuplicateCommitment      = errors.New("ledger: commitment already exists")
	ErrInsufficientCollateral   = errors.New("ledger: collateral below reserve price")
	ErrUnknownBidder            = errors.New("ledger: no commitment for bidder")
	ErrAlreadyRevealed          = errors.New("ledger: commitment already revealed")
	ErrNotRevealed              = errors.New("ledger: commitment was never revealed")
	ErrInvalidReveal            = errors.New("ledger: reveal does not match commitment")
	ErrAlreadySettled           = errors.New("ledger: auction already settled")
	ErrAuctionStillActive       = errors.New("ledger: auction not settled yet")
	ErrNothingToClaim           = errors.New("ledger: nothing to claim")
	ErrWinnerCannotUseLoserPath = errors.New("ledger: winner cannot reclaim as a loser")
	ErrAlreadyReclaimed         = errors.New("ledger: stake already reclaimed")
	ErrTransferFailed           = errors.New("ledger: value transfer failed")
)

// PhaseMismatchError reports an operation attempted outside its phase.
// It matches ErrPhaseMismatch under errors.Is. An unknown auction is
// NotStarted and also unwraps to ErrAuctionNotFound.
type PhaseMismatchError struct {
	Required core.Phase
	Actual   core.Phase

	cause error
}

func (e *PhaseMismatchError) Error() string {
	msg := fmt.Sprintf("%s: requires %s, auction is %s", ErrPhaseMismatch, e.Required, e.Actual)
	if e.cause != nil {
		msg += " (" + e.cause.Error() + ")"
	}
	return msg
}

func (e *PhaseMismatchError) Is(target error) bool {
	return target == ErrPhaseMismatch
}

func (e *PhaseMismatchError) Unwrap() error {
	return e.cause
}

func requirePhase(required, actual core.Phase) error {
	if required != actual {
		return &PhaseMismatchError{Required: required, Actual: actual}
	}
	return nil
}

// outcomeLabels names error classes for metrics tags.
var outcomeLabels = []struct {
	err   error
	label string
}{
	{ErrPaused, "paused"},
	{ErrPhaseMismatch, "phase_mismatch"},
	{ErrDuplicateCommitment, "duplicate_commitment"},
	{ErrInsufficientCollateral, "insufficient_collateral"},
	{ErrUnknownBidder, "unknown_bidder"},
	{ErrAlreadyRevealed, "already_revealed"},
	{ErrInvalidReveal, "invalid_reveal"},
	{ErrAlreadySettled, "already_settled"},
	{ErrAuctionStillActive, "still_active"},
	{ErrNothingToClaim, "nothing_to_claim"},
	{ErrWinnerCannotUseLoserPath, "winner_loser_path"},
	{ErrAlreadyReclaimed, "already_reclaimed"},
	{ErrTransferFailed, "transfer_failed"},
	{ErrEscrow, "escrow_failed"},
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	for _, o := range outcomeLabels {
		if errors.Is(err, o.err) {
			return o.label
		}
	}
	return "rejected"
}
