package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/avayoung/riskdesk/internal/domain"
)

// Narrow store views required by the archiver. The Postgres stores satisfy
// these implicitly through their ListBefore methods.

// FillArchiveStore provides read access to fills for archival purposes.
type FillArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.Fill, error)
}

// AnalysisArchiveStore provides read access to liquidity analyses for
// archival purposes.
type AnalysisArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.LiquidityAnalysis, error)
}

// ArchiveImpl implements domain.Archiver by querying the stores for aged
// records, serializing them to JSONL, and uploading the result to S3.
//
// Deletion of the archived rows from the primary store is intentionally NOT
// performed here; that is a separate, explicit step taken after the archive
// has been verified.
type ArchiveImpl struct {
	writer   domain.BlobWriter
	fills    FillArchiveStore
	analyses AnalysisArchiveStore
	log      *slog.Logger
}

// NewArchiver creates a new ArchiveImpl.
func NewArchiver(
	writer domain.BlobWriter,
	fills FillArchiveStore,
	analyses AnalysisArchiveStore,
	log *slog.Logger,
) *ArchiveImpl {
	return &ArchiveImpl{
		writer:   writer,
		fills:    fills,
		analyses: analyses,
		log:      log.With("component", "archiver"),
	}
}

// ArchiveFills queries all fills executed before the cutoff, serializes them
// to JSONL, and uploads the file to archive/fills/YYYY-MM.jsonl. Returns the
// number of records archived.
func (a *ArchiveImpl) ArchiveFills(ctx context.Context, before time.Time) (int64, error) {
	fills, err := a.fills.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive fills query: %w", err)
	}
	if len(fills) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(fills)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive fills marshal: %w", err)
	}

	path := archivePath("fills", before)
	if err := a.upload(ctx, path, buf); err != nil {
		return 0, fmt.Errorf("s3blob: archive fills upload: %w", err)
	}

	count := int64(len(fills))
	a.log.InfoContext(ctx, "archived fills",
		"path", path,
		"count", count,
		"before", before.Format(time.RFC3339),
	)
	return count, nil
}

// ArchiveAnalyses queries all liquidity analyses recorded before the cutoff,
// serializes them to JSONL, and uploads the file to
// archive/analyses/YYYY-MM.jsonl. Returns the number of records archived.
func (a *ArchiveImpl) ArchiveAnalyses(ctx context.Context, before time.Time) (int64, error) {
	analyses, err := a.analyses.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive analyses query: %w", err)
	}
	if len(analyses) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(analyses)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive analyses marshal: %w", err)
	}

	path := archivePath("analyses", before)
	if err := a.upload(ctx, path, buf); err != nil {
		return 0, fmt.Errorf("s3blob: archive analyses upload: %w", err)
	}

	count := int64(len(analyses))
	a.log.InfoContext(ctx, "archived analyses",
		"path", path,
		"count", count,
		"before", before.Format(time.RFC3339),
	)
	return count, nil
}

// multipartThreshold is the payload size above which archive uploads switch
// to the multipart path.
const multipartThreshold = 32 * 1024 * 1024

// archiveContentType marks archive objects as newline-delimited JSON.
const archiveContentType = "application/x-ndjson"

// upload sends an archive payload, choosing single-shot or multipart by
// size.
func (a *ArchiveImpl) upload(ctx context.Context, path string, buf []byte) error {
	if len(buf) >= multipartThreshold {
		return a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), archiveContentType)
	}
	return a.writer.Put(ctx, path, bytes.NewReader(buf), archiveContentType)
}

// archivePath builds the S3 key for an archive file, partitioned by the
// year-month of the cutoff time.
//
//	archive/fills/2026-08.jsonl
//	archive/analyses/2026-08.jsonl
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*ArchiveImpl)(nil)
