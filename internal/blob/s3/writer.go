package s3blob

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// archivePartSize is the part size for multipart archive uploads. A month of
// JSONL fills is rarely larger than a few parts at this size, and 8 MiB
// clears the S3 5 MiB minimum with margin.
const archivePartSize int64 = 8 * 1024 * 1024

// Writer implements domain.BlobWriter against an S3-compatible backend. The
// archiver is its only producer; objects are immutable once written.
type Writer struct {
	client *s3.Client
	bucket string
}

// NewWriter creates a Writer that uploads to the given client's configured
// bucket.
func NewWriter(c *Client) *Writer {
	return &Writer{
		client: c.S3(),
		bucket: c.Bucket(),
	}
}

// Put uploads data as a single PutObject request. Suitable for archive
// payloads small enough for one shot; the archiver switches to PutMultipart
// above its size threshold.
func (w *Writer) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(path),
		Body:        data,
		ContentType: aws.String(contentType),
	}

	_, err := w.client.PutObject(ctx, input)
	if err != nil {
		return fmt.Errorf("s3blob: put object %s: %w", path, err)
	}
	return nil
}

// PutMultipart uploads data through the multipart upload manager, splitting
// the payload into archivePartSize parts uploaded concurrently. Used for
// large monthly archives where a single PutObject would hold one connection
// for the whole transfer.
func (w *Writer) PutMultipart(ctx context.Context, path string, data io.Reader, contentType string) error {
	uploader := manager.NewUploader(w.client, func(u *manager.Uploader) {
		u.PartSize = archivePartSize
	})

	input := &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(path),
		Body:        data,
		ContentType: aws.String(contentType),
	}

	_, err := uploader.Upload(ctx, input)
	if err != nil {
		return fmt.Errorf("s3blob: multipart upload %s: %w", path, err)
	}
	return nil
}
