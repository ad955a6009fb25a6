package service

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/icook/tiny-ballot/ballot"
	"github.com/icook/tiny-ballot/db"
	"github.com/icook/tiny-ballot/identity"
	"github.com/icook/tiny-ballot/metrics"
)

// Status is the derived open/closed phase of a ledger at a clock reading.
type Status struct {
	Closed   bool   `json:"closed"`
	Deadline uint64 `json:"deadline"`
	Now      uint64 `json:"now"`
}

// Registry hosts every ledger known to the store. Each ledger has exactly one
// in-memory instance, so its own lock is the only thing serializing casts.
type Registry struct {
	log   *zap.Logger
	clock ballot.Clock
	store *db.Store

	mu      sync.RWMutex
	ledgers map[uuid.UUID]*ballot.Ledger
}

func NewRegistry(store *db.Store, clock ballot.Clock, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		log:     log,
		clock:   clock,
		store:   store,
		ledgers: make(map[uuid.UUID]*ballot.Ledger),
	}
}

// Create stores a new ledger closing at deadline and returns its id.
func (r *Registry) Create(deadline uint64) (uuid.UUID, error) {
	id := uuid.New()
	if err := r.store.CreateLedger(db.LedgerRecord{ID: id, Deadline: deadline}); err != nil {
		metrics.StoreFailure("create")
		r.log.Error("create ledger", zap.Stringer("ledger", id), zap.Error(err))
		return uuid.UUID{}, err
	}

	// The record is visible in the store from here on, so a concurrent
	// lookup may already have loaded and published this ledger.
	r.publish(id, ballot.New(deadline))

	metrics.LedgerCreated()
	r.log.Info("ledger created", zap.Stringer("ledger", id), zap.Uint64("deadline", deadline))
	return id, nil
}

// ledger returns the in-memory instance, loading it from the store on first
// use. Loading happens outside the registry lock.
func (r *Registry) ledger(id uuid.UUID) (*ballot.Ledger, error) {
	r.mu.RLock()
	l, found := r.ledgers[id]
	r.mu.RUnlock()
	if found {
		return l, nil
	}

	l, err := r.store.LoadLedger(id)
	if err != nil {
		if errors.Cause(err) != db.ErrLedgerNotFound {
			metrics.StoreFailure("load")
			r.log.Error("load ledger", zap.Stringer("ledger", id), zap.Error(err))
		}
		return nil, err
	}
	r.log.Debug("ledger loaded", zap.Stringer("ledger", id))
	return r.publish(id, l), nil
}

// publish installs l for id unless an instance is already present, and
// returns whichever instance is live. An installed ledger is never replaced.
func (r *Registry) publish(id uuid.UUID, l *ballot.Ledger) *ballot.Ledger {
	r.mu.Lock()
	defer r.mu.Unlock()
	if live, found := r.ledgers[id]; found {
		return live
	}
	r.ledgers[id] = l
	metrics.SetLedgersLoaded(len(r.ledgers))
	return l
}

// CastVote records participant's option on ledger id at the current clock
// reading. The vote is durable before it becomes visible.
func (r *Registry) CastVote(id uuid.UUID, participant identity.ParticipantID, option ballot.Option) error {
	l, err := r.ledger(id)
	if err != nil {
		return err
	}

	now := r.clock.NowMillis()
	err = l.CastVoteWith(participant, option, now, func(v ballot.Vote, after ballot.Tally) error {
		return r.store.CommitVote(id, v, after)
	})

	log := r.log.With(
		zap.Stringer("ledger", id),
		zap.Stringer("participant", participant),
		zap.Stringer("option", option),
		zap.Uint64("now", now),
	)
	switch {
	case err == nil:
		metrics.VoteCast(option.String())
		log.Debug("vote cast")
	case isRejection(err):
		metrics.VoteRejected(Reason(err))
		log.Info("vote rejected", zap.String("reason", Reason(err)))
	default:
		metrics.StoreFailure("commit")
		log.Error("commit vote", zap.Error(err))
	}
	return err
}

func (r *Registry) Results(id uuid.UUID) (ballot.Tally, error) {
	l, err := r.ledger(id)
	if err != nil {
		return ballot.Tally{}, err
	}
	yes, no := l.Results()
	return ballot.Tally{Yes: yes, No: no}, nil
}

func (r *Registry) HasVoted(id uuid.UUID, participant identity.ParticipantID) (bool, error) {
	l, err := r.ledger(id)
	if err != nil {
		return false, err
	}
	return l.HasVoted(participant), nil
}

// IsClosed derives the ledger phase from the clock; nothing is stored.
func (r *Registry) IsClosed(id uuid.UUID) (Status, error) {
	l, err := r.ledger(id)
	if err != nil {
		return Status{}, err
	}
	now := r.clock.NowMillis()
	return Status{
		Closed:   l.IsClosed(now),
		Deadline: l.Deadline(),
		Now:      now,
	}, nil
}

// VoterOption returns the recorded option; the bool is false when the
// participant has not voted.
func (r *Registry) VoterOption(id uuid.UUID, participant identity.ParticipantID) (ballot.Option, bool, error) {
	l, err := r.ledger(id)
	if err != nil {
		return 0, false, err
	}
	o, found := l.VoterOption(participant)
	return o, found, nil
}

func (r *Registry) List() ([]db.LedgerRecord, error) {
	recs, err := r.store.ListLedgers()
	if err != nil {
		metrics.StoreFailure("list")
		return nil, err
	}
	return recs, nil
}

func isRejection(err error) bool {
	switch errors.Cause(err) {
	case ballot.ErrVotingClosed, ballot.ErrInvalidOption, ballot.ErrDuplicateVote:
		return true
	}
	return false
}

// Reason is the stable machine-readable name of a cast failure.
func Reason(err error) string {
	switch errors.Cause(err) {
	case ballot.ErrVotingClosed:
		return "voting_closed"
	case ballot.ErrInvalidOption:
		return "invalid_option"
	case ballot.ErrDuplicateVote:
		return "duplicate_vote"
	case db.ErrLedgerNotFound:
		return "ledger_not_found"
	}
	return "internal"
}
