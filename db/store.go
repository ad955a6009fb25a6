package db

import (
	"encoding/json"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/icook/tiny-ballot/ballot"
	"github.com/icook/tiny-ballot/identity"
)

const (
	keyPrefixLedger = "/ledger/"
	keyPrefixTally  = "/tally/"
	keyPrefixVote   = "/vote/"
)

var (
	ErrLedgerNotFound = errors.New("ledger not found")
	ErrLedgerExists   = errors.New("ledger already exists")
	// ErrCorrupt means the stored tally disagrees with the stored votes.
	ErrCorrupt = errors.New("stored ledger is inconsistent")
)

// LedgerRecord is the immutable part of a ledger.
type LedgerRecord struct {
	ID       uuid.UUID `json:"id"`
	Deadline uint64    `json:"deadline"`
}

// Store persists ledgers on top of a StorageDriver. A vote and the tally it
// produces are written in one batch, so a crash leaves either both or
// neither.
type Store struct {
	d StorageDriver
}

func NewStore(d StorageDriver) *Store {
	return &Store{d: d}
}

func (s *Store) Close() error {
	return s.d.Close()
}

func (s *Store) ledgerPath(id uuid.UUID) string {
	return path.Join(keyPrefixLedger, id.String())
}

func (s *Store) tallyPath(id uuid.UUID) string {
	return path.Join(keyPrefixTally, id.String())
}

func (s *Store) votePrefix(id uuid.UUID) string {
	return path.Join(keyPrefixVote, id.String()) + "/"
}

func (s *Store) votePath(id uuid.UUID, p identity.ParticipantID) string {
	return s.votePrefix(id) + p.String()
}

// CreateLedger writes the record and a zero tally for a new ledger.
func (s *Store) CreateLedger(rec LedgerRecord) error {
	_, err := s.d.GetKey(s.ledgerPath(rec.ID))
	if err == nil {
		return ErrLedgerExists
	}
	if !s.d.ErrIsNotFound(err) {
		return errors.WithStack(err)
	}

	recRaw, err := json.Marshal(rec)
	if err != nil {
		return errors.WithStack(err)
	}
	tallyRaw, err := json.Marshal(ballot.Tally{})
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(s.d.WriteBatch(map[string][]byte{
		s.ledgerPath(rec.ID): recRaw,
		s.tallyPath(rec.ID):  tallyRaw,
	}))
}

// CommitVote has the shape of a ballot.CommitFunc once bound to a ledger id.
func (s *Store) CommitVote(id uuid.UUID, v ballot.Vote, after ballot.Tally) error {
	optRaw, err := v.Option.MarshalText()
	if err != nil {
		return err
	}
	tallyRaw, err := json.Marshal(after)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(s.d.WriteBatch(map[string][]byte{
		s.votePath(id, v.Participant): optRaw,
		s.tallyPath(id):               tallyRaw,
	}))
}

// GetLedgerRecord grabs the immutable record for a ledger id.
func (s *Store) GetLedgerRecord(id uuid.UUID) (LedgerRecord, error) {
	raw, err := s.d.GetKey(s.ledgerPath(id))
	if s.d.ErrIsNotFound(err) {
		return LedgerRecord{}, ErrLedgerNotFound
	}
	if err != nil {
		return LedgerRecord{}, errors.WithStack(err)
	}
	var rec LedgerRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return LedgerRecord{}, errors.WithStack(err)
	}
	return rec, nil
}

// LoadLedger rebuilds a ledger from its record and votes and cross-checks the
// result against the stored tally.
func (s *Store) LoadLedger(id uuid.UUID) (*ballot.Ledger, error) {
	rec, err := s.GetLedgerRecord(id)
	if err != nil {
		return nil, err
	}

	votes := make(map[identity.ParticipantID]ballot.Option)
	prefix := s.votePrefix(id)
	err = s.d.Iterate(prefix, func(key string, data []byte) error {
		p, err := identity.ParseParticipantID(strings.TrimPrefix(key, prefix))
		if err != nil {
			return err
		}
		var o ballot.Option
		if err := o.UnmarshalText(data); err != nil {
			return err
		}
		votes[p] = o
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "load votes for %s", id)
	}

	l, err := ballot.Restore(rec.Deadline, votes)
	if err != nil {
		return nil, err
	}

	tallyRaw, err := s.d.GetKey(s.tallyPath(id))
	if err != nil {
		return nil, errors.Wrapf(err, "load tally for %s", id)
	}
	var stored ballot.Tally
	if err := json.Unmarshal(tallyRaw, &stored); err != nil {
		return nil, errors.WithStack(err)
	}
	yes, no := l.Results()
	if stored.Yes != yes || stored.No != no {
		return nil, errors.Wrapf(ErrCorrupt, "%s: tally %d/%d, votes %d/%d", id, stored.Yes, stored.No, yes, no)
	}
	return l, nil
}

// ListLedgers returns every stored ledger record in key order.
func (s *Store) ListLedgers() ([]LedgerRecord, error) {
	var out []LedgerRecord
	err := s.d.Iterate(keyPrefixLedger, func(_ string, data []byte) error {
		var rec LedgerRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return errors.WithStack(err)
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}
