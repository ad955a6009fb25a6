package db_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icook/tiny-ballot/ballot"
	"github.com/icook/tiny-ballot/db"
	"github.com/icook/tiny-ballot/identity"
	"github.com/icook/tiny-ballot/storage/leveldb"
	"github.com/icook/tiny-ballot/storage/mem"
)

func drivers(t *testing.T) map[string]db.StorageDriver {
	t.Helper()
	ldb, err := leveldb.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { ldb.Close() })
	return map[string]db.StorageDriver{
		"mem":     mem.NewMemStore(),
		"leveldb": ldb,
	}
}

func TestStore(t *testing.T) {
	for name, d := range drivers(t) {
		d := d
		t.Run(name, func(t *testing.T) {
			s := db.NewStore(d)
			rec := db.LedgerRecord{ID: uuid.New(), Deadline: 3_600_000}
			require.NoError(t, s.CreateLedger(rec))
			assert.Equal(t, db.ErrLedgerExists, s.CreateLedger(rec))

			got, err := s.GetLedgerRecord(rec.ID)
			require.NoError(t, err)
			assert.Equal(t, rec, got)

			l, err := s.LoadLedger(rec.ID)
			require.NoError(t, err)
			yes, no := l.Results()
			assert.Equal(t, uint64(0), yes+no)

			p1, p2 := identity.NewParticipantID(), identity.NewParticipantID()
			commit := func(v ballot.Vote, after ballot.Tally) error {
				return s.CommitVote(rec.ID, v, after)
			}
			require.NoError(t, l.CastVoteWith(p1, ballot.Yes, 0, commit))
			require.NoError(t, l.CastVoteWith(p2, ballot.No, 0, commit))

			reloaded, err := s.LoadLedger(rec.ID)
			require.NoError(t, err)
			yes, no = reloaded.Results()
			assert.Equal(t, uint64(1), yes)
			assert.Equal(t, uint64(1), no)
			o, found := reloaded.VoterOption(p2)
			assert.True(t, found)
			assert.Equal(t, ballot.No, o)
			assert.Equal(t, ballot.ErrDuplicateVote, reloaded.CastVote(p1, ballot.No, 0))
			assert.Equal(t, uint64(3_600_000), reloaded.Deadline())
		})
	}
}

func TestStoreNotFound(t *testing.T) {
	s := db.NewStore(mem.NewMemStore())
	_, err := s.LoadLedger(uuid.New())
	assert.Equal(t, db.ErrLedgerNotFound, err)
}

func TestStoreDetectsCorruption(t *testing.T) {
	d := mem.NewMemStore()
	s := db.NewStore(d)
	rec := db.LedgerRecord{ID: uuid.New(), Deadline: 10}
	require.NoError(t, s.CreateLedger(rec))

	// a tally that no vote backs up
	require.NoError(t, d.WriteKey("/tally/"+rec.ID.String(), []byte(`{"yes":1,"no":0}`)))
	_, err := s.LoadLedger(rec.ID)
	assert.Equal(t, db.ErrCorrupt, errors.Cause(err))
}

func TestStoreListLedgers(t *testing.T) {
	s := db.NewStore(mem.NewMemStore())
	ids := map[uuid.UUID]bool{}
	for i := 0; i < 3; i++ {
		rec := db.LedgerRecord{ID: uuid.New(), Deadline: uint64(i)}
		require.NoError(t, s.CreateLedger(rec))
		ids[rec.ID] = true
	}

	recs, err := s.ListLedgers()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for _, rec := range recs {
		assert.True(t, ids[rec.ID])
	}
}

func TestCommitVoteFailure(t *testing.T) {
	d := mem.NewMemStore()
	s := db.NewStore(d)
	rec := db.LedgerRecord{ID: uuid.New(), Deadline: 10}
	require.NoError(t, s.CreateLedger(rec))
	l, err := s.LoadLedger(rec.ID)
	require.NoError(t, err)

	d.FailWrites(errors.New("disk full"))
	p := identity.NewParticipantID()
	err = l.CastVoteWith(p, ballot.Yes, 0, func(v ballot.Vote, after ballot.Tally) error {
		return s.CommitVote(rec.ID, v, after)
	})
	assert.Error(t, err)
	assert.False(t, l.HasVoted(p))

	d.FailWrites(nil)
	reloaded, err := s.LoadLedger(rec.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.HasVoted(p))
}
