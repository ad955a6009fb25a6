package db

// StorageDriver is the data storage layer. The memory and leveldb drivers
// live under storage/; anything offering atomic multi-key writes and ordered
// prefix scans can back a Store.
type StorageDriver interface {
	WriteKey(key string, data []byte) error
	GetKey(key string) ([]byte, error)
	// WriteBatch stores every pair or none of them.
	WriteBatch(pairs map[string][]byte) error
	// Iterate calls fn for each key starting with prefix, in key order.
	// A non-nil error from fn stops the scan and is returned.
	Iterate(prefix string, fn func(key string, data []byte) error) error
	ErrIsNotFound(error) bool
	Close() error
}
