package mem

import (
	"errors"
	"testing"
)

func TestMemStore(t *testing.T) {
	s := NewMemStore()
	if _, err := s.GetKey("/missing"); !s.ErrIsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}

	if err := s.WriteBatch(map[string][]byte{"/a/2": []byte("2"), "/a/1": []byte("1"), "/b": []byte("b")}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var keys []string
	err := s.Iterate("/a/", func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(keys) != 2 || keys[0] != "/a/1" || keys[1] != "/a/2" {
		t.Errorf("Expected sorted keys under /a/, got %v", keys)
	}
}

func TestMemStoreFailWrites(t *testing.T) {
	s := NewMemStore()
	boom := errors.New("boom")
	s.FailWrites(boom)
	if err := s.WriteKey("/k", []byte("v")); err != boom {
		t.Errorf("Expected injected error, got %v", err)
	}
	if _, err := s.GetKey("/k"); !s.ErrIsNotFound(err) {
		t.Error("Expected failed write to leave no key")
	}
	s.FailWrites(nil)
	if err := s.WriteKey("/k", []byte("v")); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}
