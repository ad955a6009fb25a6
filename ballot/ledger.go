package ballot

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/icook/tiny-ballot/identity"
)

// Vote is a single admitted ballot, handed to a CommitFunc before it is
// applied to the ledger.
type Vote struct {
	Participant identity.ParticipantID
	Option      Option
}

// Tally is the pair of counters.
type Tally struct {
	Yes uint64 `json:"yes"`
	No  uint64 `json:"no"`
}

// CommitFunc makes a vote durable together with the tally it produces. It runs
// under the ledger's write lock after all checks have passed; returning an
// error aborts the cast with no effect.
type CommitFunc func(v Vote, after Tally) error

// Ledger tallies one yes/no decision per participant until its deadline.
// It is safe for concurrent use.
type Ledger struct {
	mu       sync.RWMutex
	deadline uint64
	yes      uint64
	no       uint64
	votes    map[identity.ParticipantID]Option
}

// New creates an empty ledger closing at deadline (milliseconds since the
// Unix epoch). A deadline in the past yields a ledger that is already closed.
func New(deadline uint64) *Ledger {
	return &Ledger{
		deadline: deadline,
		votes:    make(map[identity.ParticipantID]Option),
	}
}

// Restore rebuilds a ledger from a persisted vote set. Counters are derived
// from the votes so yes+no always equals the number of voters.
func Restore(deadline uint64, votes map[identity.ParticipantID]Option) (*Ledger, error) {
	l := New(deadline)
	for p, o := range votes {
		if !o.Valid() {
			return nil, errors.Wrapf(ErrInvalidOption, "stored vote for %s", p)
		}
		l.apply(p, o)
	}
	return l, nil
}

func (l *Ledger) Deadline() uint64 {
	return l.deadline
}

// CastVote records participant's choice. Checks run in order: deadline,
// option, duplicate; the first failure is returned.
func (l *Ledger) CastVote(participant identity.ParticipantID, option Option, now uint64) error {
	return l.CastVoteWith(participant, option, now, nil)
}

// CastVoteWith is CastVote with a commit step between validation and the
// in-memory update. A nil commit behaves like CastVote.
func (l *Ledger) CastVoteWith(participant identity.ParticipantID, option Option, now uint64, commit CommitFunc) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now >= l.deadline {
		return ErrVotingClosed
	}
	if !option.Valid() {
		return ErrInvalidOption
	}
	if _, found := l.votes[participant]; found {
		return ErrDuplicateVote
	}

	if commit != nil {
		after := Tally{Yes: l.yes, No: l.no}
		if option == Yes {
			after.Yes++
		} else {
			after.No++
		}
		if err := commit(Vote{Participant: participant, Option: option}, after); err != nil {
			return errors.Wrap(err, "commit vote")
		}
	}
	l.apply(participant, option)
	return nil
}

func (l *Ledger) apply(participant identity.ParticipantID, option Option) {
	if option == Yes {
		l.yes++
	} else {
		l.no++
	}
	l.votes[participant] = option
}

// Results returns the yes and no counts.
func (l *Ledger) Results() (yes, no uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.yes, l.no
}

func (l *Ledger) HasVoted(participant identity.ParticipantID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, found := l.votes[participant]
	return found
}

// IsClosed reports whether now is at or past the deadline. Once true for some
// now it stays true for every later reading.
func (l *Ledger) IsClosed(now uint64) bool {
	return now >= l.deadline
}

// VoterOption returns the recorded choice, or false if participant has not
// voted.
func (l *Ledger) VoterOption(participant identity.ParticipantID) (Option, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	o, found := l.votes[participant]
	return o, found
}

// Snapshot is a point-in-time copy of a ledger's state.
type Snapshot struct {
	Deadline uint64
	Yes      uint64
	No       uint64
	Votes    map[identity.ParticipantID]Option
}

func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	// Copy so callers cannot reach the live map
	votes := make(map[identity.ParticipantID]Option, len(l.votes))
	for p, o := range l.votes {
		votes[p] = o
	}
	return Snapshot{
		Deadline: l.deadline,
		Yes:      l.yes,
		No:       l.no,
		Votes:    votes,
	}
}
