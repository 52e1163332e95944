package domain

import (
	"context"
	"io"
	"time"
)

// BlobWriter uploads objects to blob storage. PutMultipart is for payloads
// large enough to benefit from chunked concurrent upload, such as a month of
// archived fills.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, contentType string) error
}

// BlobInfo describes a stored object.
type BlobInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// BlobReader retrieves and enumerates stored objects.
type BlobReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
}

// Archiver offloads aged rows from the primary store to blob storage.
// Deletion from the primary store is a separate, explicit step taken after
// the archive has been verified.
type Archiver interface {
	ArchiveFills(ctx context.Context, before time.Time) (int64, error)
	ArchiveAnalyses(ctx context.Context, before time.Time) (int64, error)
}
