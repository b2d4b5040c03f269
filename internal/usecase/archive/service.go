// Package archive exports and imports the submission history as a JSONL
// stream: one meta record followed by one record per archived submission.
package archive

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/eslsoft/hanguru/internal/entity"
	"github.com/eslsoft/hanguru/internal/repository"
)

const (
	defaultBatchSize = 512
	formatVersion    = 1
)

// ProgressReporter receives export progress callbacks.
type ProgressReporter interface {
	Start(total int)
	Increment(delta int)
	Finish()
}

type noopProgress struct{}

func (noopProgress) Start(int)     {}
func (noopProgress) Increment(int) {}
func (noopProgress) Finish()       {}

// Service streams archived submissions to and from JSONL files.
type Service struct {
	store     repository.ArchiveStore
	batchSize int
}

type Option func(*Service)

func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// NewService binds the archive transfer service to a history store.
func NewService(store repository.ArchiveStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("archive: store is required")
	}
	svc := &Service{
		store:     store,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

type ExportOption func(*exportConfig)

type exportConfig struct {
	query    repository.ListSubmissionQuery
	reporter ProgressReporter
}

// WithQuery restricts export to submissions matching the filter.
func WithQuery(query repository.ListSubmissionQuery) ExportOption {
	return func(cfg *exportConfig) {
		cfg.query = query
		cfg.query.Limit = 0
		cfg.query.Offset = 0
	}
}

// WithProgressReporter registers a reporter that receives progress callbacks during export.
func WithProgressReporter(reporter ProgressReporter) ExportOption {
	return func(cfg *exportConfig) {
		cfg.reporter = reporter
	}
}

type ImportOption func(*importConfig)

type importConfig struct {
	overwrite bool
}

// WithOverwrite replaces already-archived submissions instead of skipping
// records whose id is present.
func WithOverwrite() ImportOption {
	return func(cfg *importConfig) {
		cfg.overwrite = true
	}
}

type record struct {
	Type       string             `json:"type"`
	Version    int                `json:"version,omitempty"`
	ExportedAt *time.Time         `json:"exported_at,omitempty"`
	Count      int                `json:"count,omitempty"`
	Checksum   string             `json:"checksum,omitempty"`
	Payload    *entity.Submission `json:"payload,omitempty"`
}

type rawRecord struct {
	Type       string          `json:"type"`
	Version    int             `json:"version"`
	ExportedAt *time.Time      `json:"exported_at"`
	Count      int             `json:"count"`
	Checksum   string          `json:"checksum"`
	Payload    json.RawMessage `json:"payload"`
}

// Export writes all matching archived submissions as JSONL. The leading
// meta record carries the format version and total count so importers can
// reject truncated or incompatible streams.
func (s *Service) Export(ctx context.Context, w io.Writer, opts ...ExportOption) error {
	cfg := exportConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	reporter := cfg.reporter
	if reporter == nil {
		reporter = noopProgress{}
	}

	count, err := s.store.Count(ctx, cfg.query)
	if err != nil {
		return fmt.Errorf("count archive: %w", err)
	}
	total := int(count)

	writer := bufio.NewWriter(w)
	defer writer.Flush()

	now := time.Now().UTC()
	meta := record{
		Type:       "meta",
		Version:    formatVersion,
		ExportedAt: &now,
		Count:      total,
	}
	if err := writeRecord(writer, meta); err != nil {
		return err
	}

	reporter.Start(total)
	query := cfg.query
	query.Limit = s.batchSize
	for offset := 0; ; offset += s.batchSize {
		query.Offset = offset
		subs, err := s.store.List(ctx, query)
		if err != nil {
			return fmt.Errorf("list archive: %w", err)
		}
		for _, sub := range subs {
			rec := record{Type: "submission", Payload: sub}
			rec.Checksum = submissionChecksum(sub)
			if err := writeRecord(writer, rec); err != nil {
				return err
			}
			reporter.Increment(1)
		}
		if len(subs) < s.batchSize {
			break
		}
	}
	reporter.Finish()
	return writer.Flush()
}

// ImportStats summarizes an import run.
type ImportStats struct {
	Imported int
	Skipped  int
}

// Import reads a JSONL stream back into the archive store. Records whose
// submission id already exists are skipped unless overwrite is requested.
// Records with a checksum are verified against their payload bytes.
func (s *Service) Import(ctx context.Context, r io.Reader, opts ...ImportOption) (ImportStats, error) {
	cfg := importConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	br := bufio.NewReader(r)
	var (
		stats    ImportStats
		metaSeen bool
		meta     rawRecord
	)

	for {
		line, err := br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return stats, fmt.Errorf("read archive: %w", err)
		}
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var rec rawRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				return stats, fmt.Errorf("decode record: %w", err)
			}

			switch rec.Type {
			case "meta":
				metaSeen = true
				meta = rec
				if meta.Version != formatVersion {
					return stats, fmt.Errorf("archive: unsupported format version %d", meta.Version)
				}
			case "submission":
				if !metaSeen {
					return stats, errors.New("archive: submission record before meta record")
				}
				if len(rec.Payload) == 0 {
					return stats, errors.New("archive: missing submission payload")
				}
				sub, err := decodeSubmission(rec)
				if err != nil {
					return stats, err
				}
				imported, err := s.importOne(ctx, sub, cfg.overwrite)
				if err != nil {
					return stats, err
				}
				if imported {
					stats.Imported++
				} else {
					stats.Skipped++
				}
			default:
				return stats, fmt.Errorf("archive: unknown record type %q", rec.Type)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
	}

	if !metaSeen {
		return stats, errors.New("archive: missing meta record")
	}
	if total := stats.Imported + stats.Skipped; meta.Count > 0 && total != meta.Count {
		return stats, fmt.Errorf("archive: expected %d submissions, stream held %d", meta.Count, total)
	}
	return stats, nil
}

func (s *Service) importOne(ctx context.Context, sub *entity.Submission, overwrite bool) (bool, error) {
	if !overwrite {
		if _, err := s.store.Get(ctx, sub.ID); err == nil {
			return false, nil
		} else if !errors.Is(err, entity.ErrSubmissionNotFound) {
			return false, fmt.Errorf("lookup submission %s: %w", sub.ID, err)
		}
	}
	if err := s.store.Save(ctx, sub); err != nil {
		return false, fmt.Errorf("save submission %s: %w", sub.ID, err)
	}
	return true, nil
}

func decodeSubmission(rec rawRecord) (*entity.Submission, error) {
	var sub entity.Submission
	if err := json.Unmarshal(rec.Payload, &sub); err != nil {
		return nil, fmt.Errorf("decode submission payload: %w", err)
	}
	if sub.ID == "" {
		return nil, errors.New("archive: submission record without id")
	}
	if rec.Checksum != "" {
		if got := submissionChecksum(&sub); got != rec.Checksum {
			return nil, fmt.Errorf("archive: checksum mismatch for submission %s", sub.ID)
		}
	}
	return &sub, nil
}

// submissionChecksum hashes the canonical JSON encoding so tampered or
// truncated records fail import. Encoding a decoded submission reproduces
// the exporter's bytes because struct field order is fixed.
func submissionChecksum(sub *entity.Submission) string {
	data, err := json.Marshal(sub)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum[:])
}

func writeRecord(w io.Writer, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return err
	}
	return nil
}
