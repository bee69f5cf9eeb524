// Package docstore stores canonical SOA rule documents as immutable blobs.
// Backends cover local development (filesystem), tests (memory), and shared
// deployments (S3 / MinIO); all of them expose the same minimal surface.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"soacore/internal/core"
)

// Driver identifies a document store backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// Info describes a stored document.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is the backend interface. Writes are create-only: Put fails when the
// key already exists, so a published rule document is never silently
// replaced.
type Store interface {
	// Put stores a new document at key, failing if the key exists.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	// Get returns metadata and content for key.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Delete removes a document, returning false when it did not exist.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns documents under prefix, ordered by key ascending.
	List(ctx context.Context, prefix string) ([]Info, error)
	// Driver identifies the backend.
	Driver() Driver
}

// ErrNotExist is wrapped by Get and reported by backends for missing keys.
var ErrNotExist = errors.New("document does not exist")

const documentContentType = "application/json"

// PutDocument serializes a canonical document and stores it under key.
func PutDocument(ctx context.Context, store Store, key string, doc core.Document) (Info, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return Info{}, fmt.Errorf("encode canonical document: %w", err)
	}
	return store.Put(ctx, key, bytes.NewReader(data), documentContentType)
}

// GetDocument retrieves and parses the canonical document stored under key.
func GetDocument(ctx context.Context, store Store, key string) (core.Document, error) {
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return core.Document{}, err
	}
	defer func() { _ = rc.Close() }()
	return core.ReadDocument(rc)
}

// Environment variables selecting and configuring the backend:
//
//	SOACORE_DOCSTORE_DRIVER:  fs|s3|memory (default fs)
//	SOACORE_DOCSTORE_FS_ROOT: directory root when driver=fs (default ./soadocs)
//	(S3 variables documented in s3.go)

// Open selects a Store implementation from the process environment.
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("SOACORE_DOCSTORE_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("SOACORE_DOCSTORE_FS_ROOT"))
	case DriverS3:
		return OpenS3FromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown docstore driver %s", driver)
}
