package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T, grace time.Duration) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir(), grace)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestLocalStorePutAndOpen(t *testing.T) {
	s := newTestStore(t, 0)
	key := NewKey()
	if err := s.Put(key, "application/pdf", []byte("%PDF-1.4 test")); err != nil {
		t.Fatalf("put: %v", err)
	}
	rc, err := s.Open(key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "%PDF-1.4 test" {
		t.Errorf("unexpected blob content: %q", data)
	}
}

func TestLocalStoreSchedulePurge(t *testing.T) {
	s := newTestStore(t, 0)
	key := NewKey()
	if err := s.Put(key, "application/pdf", []byte("x")); err != nil {
		t.Fatalf("put: %v", err)
	}

	s.SchedulePurge(key)

	// Purge is asynchronous; poll until the worker removes the file.
	path := filepath.Join(s.root, key)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("blob was not purged")
}

func TestLocalStorePurgeNeverBlocks(t *testing.T) {
	s := newTestStore(t, time.Hour)
	done := make(chan struct{})
	go func() {
		for i := 0; i < purgeQueueSize*2; i++ {
			s.SchedulePurge(NewKey())
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SchedulePurge blocked")
	}
}
