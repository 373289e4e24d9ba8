package storage

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const purgeQueueSize = 1024

// LocalStore keeps blobs as files under a root directory. Purge requests are
// buffered and executed by a background worker after a grace period.
type LocalStore struct {
	root  string
	grace time.Duration

	purge chan string
	quit  chan struct{}
	wg    sync.WaitGroup
}

// NewLocalStore creates the root directory if needed and starts the purge
// worker.
func NewLocalStore(root string, grace time.Duration) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	s := &LocalStore{
		root:  root,
		grace: grace,
		purge: make(chan string, purgeQueueSize),
		quit:  make(chan struct{}),
	}
	s.wg.Add(1)
	go s.purgeWorker()
	return s, nil
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.root, key)
}

// Put writes the blob for key. Content type is not used by the local backend
// but kept for interface parity with object stores.
func (s *LocalStore) Put(key, contentType string, data []byte) error {
	if err := os.WriteFile(s.path(key), data, 0o600); err != nil {
		return fmt.Errorf("storage: put %s: %w", key, err)
	}
	return nil
}

// Open returns a reader for the blob.
func (s *LocalStore) Open(key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", key, err)
	}
	return f, nil
}

// SchedulePurge enqueues the blob for deferred deletion. It never blocks; if
// the queue is full the request is dropped and logged, leaving the blob to a
// later sweep.
func (s *LocalStore) SchedulePurge(key string) {
	select {
	case s.purge <- key:
	default:
		log.Printf("storage: purge queue full, dropping %s", key)
	}
}

// Close stops the purge worker. Queued purges that have not reached the end
// of their grace period are abandoned.
func (s *LocalStore) Close() {
	close(s.quit)
	s.wg.Wait()
}

func (s *LocalStore) purgeWorker() {
	defer s.wg.Done()
	for {
		select {
		case key := <-s.purge:
			if s.grace > 0 {
				select {
				case <-time.After(s.grace):
				case <-s.quit:
					return
				}
			}
			if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
				log.Printf("storage: purge %s: %v", key, err)
			}
		case <-s.quit:
			return
		}
	}
}
