// Package storage holds image files that are waiting to be uploaded to the
// catalog API: files staged by the editor session before their upload runs,
// and source files the CLI attaches to products.
//
// Two drivers are available:
//   - "local" — local filesystem (default)
//   - "s3"    — S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//
// Quick start:
//
//	m := storage.Connect(ctx)
//	disk, err := m.Use("s3")
//	rc, err := disk.Open(ctx, "incoming/phone-front.jpg")
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Open and Size when path does not exist.
var ErrNotFound = errors.New("storage: file not found")

// Disk is the filesystem driver interface. Every driver must implement this.
type Disk interface {
	// Name is the driver name the disk was registered under.
	Name() string

	// Put writes r to path, creating parent directories as needed.
	Put(ctx context.Context, path string, r io.Reader) error

	// Open returns a ReadCloser for the file. Caller must close it.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) bool

	// Size returns the byte size of the file.
	Size(ctx context.Context, path string) (int64, error)

	// Delete removes a file. Returns nil if the file did not exist.
	Delete(ctx context.Context, path string) error

	// Files lists non-recursive file paths directly inside directory, sorted.
	Files(ctx context.Context, directory string) ([]string, error)
}
