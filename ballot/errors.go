package ballot

import "github.com/pkg/errors"

// Every CastVote failure leaves the ledger untouched, and repeating the same
// call yields the same error.
var (
	ErrVotingClosed  = errors.New("voting closed")
	ErrInvalidOption = errors.New("invalid option")
	ErrDuplicateVote = errors.New("duplicate vote")
)
