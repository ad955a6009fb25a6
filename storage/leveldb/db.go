package leveldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	leveldbStorage "github.com/syndtr/goleveldb/leveldb/storage"
	leveldbUtil "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/icook/tiny-ballot/db"
)

var _ db.StorageDriver = (*Store)(nil)

// Store is a StorageDriver backed by goleveldb. Batches are applied with a
// single leveldb.Batch write, which goleveldb commits atomically.
type Store struct {
	DB *leveldb.DB
}

// Open opens (creating if needed) a database directory.
func Open(path string) (*Store, error) {
	d, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open leveldb at %s", path)
	}
	return &Store{DB: d}, nil
}

// OpenMemory opens a leveldb instance on in-memory storage.
func OpenMemory() (*Store, error) {
	d, err := leveldb.Open(leveldbStorage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "open in-memory leveldb")
	}
	return &Store{DB: d}, nil
}

func (s *Store) WriteKey(key string, data []byte) error {
	return errors.WithStack(s.DB.Put([]byte(key), data, nil))
}

func (s *Store) GetKey(key string) ([]byte, error) {
	b, err := s.DB.Get([]byte(key), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return b, nil
}

func (s *Store) WriteBatch(pairs map[string][]byte) error {
	batch := new(leveldb.Batch)
	for key, data := range pairs {
		batch.Put([]byte(key), data)
	}
	return errors.WithStack(s.DB.Write(batch, nil))
}

func (s *Store) Iterate(prefix string, fn func(key string, data []byte) error) error {
	iter := s.DB.NewIterator(leveldbUtil.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()

	for iter.Next() {
		// the iterator reuses its buffers
		key := string(iter.Key())
		data := append([]byte(nil), iter.Value()...)
		if err := fn(key, data); err != nil {
			return err
		}
	}
	return errors.WithStack(iter.Error())
}

func (s *Store) ErrIsNotFound(err error) bool {
	return errors.Cause(err) == leveldb.ErrNotFound
}

func (s *Store) Close() error {
	return s.DB.Close()
}
