// Package storage stores attachment blobs outside the database and handles
// their deferred deletion.
package storage

import (
	"io"

	"github.com/google/uuid"
)

// Store is the blob storage collaborator. SchedulePurge must never block:
// purge completion is decoupled from any database transaction, so a replaced
// blob may remain readable for a grace window after being superseded.
type Store interface {
	Put(key, contentType string, data []byte) error
	Open(key string) (io.ReadCloser, error)
	SchedulePurge(key string)
	Close()
}

// NewKey returns a fresh object key.
func NewKey() string {
	return uuid.NewString()
}
