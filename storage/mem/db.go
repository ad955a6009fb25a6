package mem

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/icook/tiny-ballot/db"
)

var _ db.StorageDriver = (*Store)(nil)

var ErrNotFound = errors.New("not found")

type storeObj struct {
	data []byte
}

// Store implements a minimal in memory StorageDriver for unit testing and
// throwaway deployments. Nothing survives the process.
type Store struct {
	mu    sync.RWMutex
	store map[string]storeObj
	// failWrites makes every write return this error, for exercising
	// storage failure paths.
	failWrites error
}

func NewMemStore() *Store {
	return &Store{
		store: map[string]storeObj{},
	}
}

// FailWrites makes subsequent writes fail with err. Pass nil to recover.
func (m *Store) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrites = err
}

func (m *Store) WriteKey(key string, data []byte) error {
	return m.WriteBatch(map[string][]byte{key: data})
}

func (m *Store) WriteBatch(pairs map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return m.failWrites
	}
	for key, data := range pairs {
		m.store[key] = storeObj{
			data: append([]byte(nil), data...),
		}
	}
	return nil
}

func (m *Store) GetKey(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, found := m.store[key]
	if !found {
		return nil, ErrNotFound
	}
	return append([]byte(nil), obj.data...), nil
}

func (m *Store) Iterate(prefix string, fn func(key string, data []byte) error) error {
	m.mu.RLock()
	keys := make([]string, 0)
	for key := range m.store {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	objs := make([]storeObj, len(keys))
	for i, key := range keys {
		objs[i] = m.store[key]
	}
	m.mu.RUnlock()

	for i, key := range keys {
		if err := fn(key, append([]byte(nil), objs[i].data...)); err != nil {
			return err
		}
	}
	return nil
}

func (m *Store) ErrIsNotFound(err error) bool {
	return errors.Cause(err) == ErrNotFound
}

func (m *Store) Close() error {
	return nil
}
