// Package integrity implements the on-disk asset integrity checker:
// checksum drift detection against a persisted baseline, referenced-vs-disk
// reconciliation, metadata sidecar validation and per-format structural
// probes.
package integrity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/eslsoft/hanguru/internal/entity"
	"github.com/eslsoft/hanguru/internal/infrastructure/probe"
)

const (
	defaultWorkers      = 8
	defaultBaselineName = ".checksums.json"
)

// Prober answers format-probing questions about a media file. Implemented
// by probe.Tools; tests supply fakes.
type Prober interface {
	Probe(ctx context.Context, path string) (probe.MediaInfo, error)
}

// Limits holds the advisory thresholds of the structural checks.
type Limits struct {
	MaxAudioBytes     int64
	MaxImageBytes     int64
	MaxVideoBytes     int64
	MaxSVGBytes       int64
	MaxImageDimension int
	MinSampleRate     int
}

// DefaultLimits are the product defaults for asset advisories.
func DefaultLimits() Limits {
	return Limits{
		MaxAudioBytes:     5 * 1024 * 1024,
		MaxImageBytes:     2 * 1024 * 1024,
		MaxVideoBytes:     50 * 1024 * 1024,
		MaxSVGBytes:       50 * 1024,
		MaxImageDimension: 4096,
		MinSampleRate:     22050,
	}
}

// ProgressReporter receives scan progress callbacks.
type ProgressReporter interface {
	Start(total int)
	Increment(path string)
	Finish()
}

type noopProgress struct{}

func (noopProgress) Start(int)        {}
func (noopProgress) Increment(string) {}
func (noopProgress) Finish()          {}

// Service runs asset integrity scans. File checks fan out across a bounded
// worker pool; a single aggregating consumer owns the report counters.
type Service struct {
	logger       *logrus.Logger
	prober       Prober
	limits       Limits
	workers      int
	baselineName string
}

// Option configures the service.
type Option func(*Service)

// WithWorkers bounds the file-check worker pool.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLimits overrides the advisory thresholds.
func WithLimits(l Limits) Option {
	return func(s *Service) { s.limits = l }
}

// WithBaselineFilename overrides the default baseline file name.
func WithBaselineFilename(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.baselineName = name
		}
	}
}

// NewService builds the checker. A nil prober disables structural media
// probes; everything else still runs.
func NewService(logger *logrus.Logger, prober Prober, opts ...Option) *Service {
	s := &Service{
		logger:       logger,
		prober:       prober,
		limits:       DefaultLimits(),
		workers:      defaultWorkers,
		baselineName: defaultBaselineName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckRequest describes one scan.
type CheckRequest struct {
	// AssetRoot is the directory to scan recursively.
	AssetRoot string
	// Referenced lists relative asset paths the dataset points at.
	Referenced []string
	// BaselinePath overrides the baseline location; defaults to the
	// baseline file name under AssetRoot.
	BaselinePath string
	// SkipBaselineRefresh leaves the previous baseline in place so drift
	// keeps being reported until a refreshing run acknowledges it.
	SkipBaselineRefresh bool
	// Reporter receives progress callbacks; nil for none.
	Reporter ProgressReporter
}

type fileResult struct {
	path           string
	record         entity.ChecksumRecord
	corrupt        bool
	mismatch       bool
	metadataErrors int
	issues         []entity.IntegrityIssue
	warnings       []entity.IntegrityIssue
}

// Check scans the asset root, reconciles it against the referenced set and
// the baseline, and persists a fresh baseline. A single unreadable file
// never aborts the scan.
func (s *Service) Check(ctx context.Context, req CheckRequest) (*entity.IntegrityReport, error) {
	if strings.TrimSpace(req.AssetRoot) == "" {
		return nil, errors.New("asset root is required")
	}
	if _, err := os.Stat(req.AssetRoot); err != nil {
		return nil, fmt.Errorf("asset root: %w", err)
	}
	baselinePath := req.BaselinePath
	if baselinePath == "" {
		baselinePath = filepath.Join(req.AssetRoot, s.baselineName)
	}
	reporter := req.Reporter
	if reporter == nil {
		reporter = noopProgress{}
	}
	log := s.logger.WithField("component", "integrity")

	now := time.Now().UTC()
	report := &entity.IntegrityReport{CheckedAt: now}

	baseline, err := LoadBaseline(baselinePath)
	if err != nil {
		// A broken baseline degrades to a full re-baseline, not a crash.
		log.WithError(err).Warn("baseline unreadable, treating as empty")
		report.Issues = append(report.Issues, entity.IntegrityIssue{
			Type:    entity.IssueBaselineError,
			File:    filepath.Base(baselinePath),
			Message: fmt.Sprintf("baseline unreadable: %v", err),
		})
		baseline = entity.Baseline{}
	}

	files, err := s.enumerate(req.AssetRoot, baselinePath)
	if err != nil {
		return nil, fmt.Errorf("enumerate assets: %w", err)
	}
	referenced := make(map[string]struct{}, len(req.Referenced))
	for _, path := range req.Referenced {
		referenced[filepath.ToSlash(strings.TrimSpace(path))] = struct{}{}
	}

	reporter.Start(len(files))
	results := make(chan fileResult, len(files))
	group := new(errgroup.Group)
	group.SetLimit(s.workers)
	for _, rel := range files {
		group.Go(func() error {
			results <- s.checkFile(ctx, req.AssetRoot, rel, baseline, now)
			return nil
		})
	}
	go func() {
		_ = group.Wait()
		close(results)
	}()

	fresh := entity.Baseline{}
	onDisk := make(map[string]struct{}, len(files))
	for result := range results {
		reporter.Increment(result.path)
		onDisk[result.path] = struct{}{}
		report.TotalFiles++
		report.MetadataErrors += result.metadataErrors
		report.Issues = append(report.Issues, result.issues...)
		report.Warnings = append(report.Warnings, result.warnings...)
		if result.corrupt {
			report.CorruptFiles++
			continue
		}
		fresh[result.path] = result.record
		if result.mismatch {
			report.ChecksumMismatches++
		}
		_, isReferenced := referenced[result.path]
		switch {
		case !isReferenced:
			report.OrphanedFiles++
			report.Issues = append(report.Issues, entity.IntegrityIssue{
				Type:    entity.IssueOrphanedFile,
				File:    result.path,
				Message: "file exists on disk but is not referenced by any lesson",
			})
		case !result.mismatch:
			report.ValidFiles++
		}
	}
	reporter.Finish()

	for path := range referenced {
		if path == "" {
			continue
		}
		if _, ok := onDisk[path]; !ok {
			report.MissingFiles++
			report.Issues = append(report.Issues, entity.IntegrityIssue{
				Type:    entity.IssueMissingFile,
				File:    path,
				Message: "referenced asset does not exist on disk",
			})
		}
	}

	sortIssues(report.Issues)
	sortIssues(report.Warnings)

	if !req.SkipBaselineRefresh {
		// The baseline self-heals to the current state, so drift is
		// reported once per change, not repeatedly.
		if err := SaveBaseline(baselinePath, fresh); err != nil {
			log.WithError(err).Error("persist baseline failed")
			report.Issues = append(report.Issues, entity.IntegrityIssue{
				Type:    entity.IssueBaselineError,
				File:    filepath.Base(baselinePath),
				Message: fmt.Sprintf("persist baseline: %v", err),
			})
		}
	}

	log.WithFields(logrus.Fields{
		"total":      report.TotalFiles,
		"valid":      report.ValidFiles,
		"missing":    report.MissingFiles,
		"orphaned":   report.OrphanedFiles,
		"mismatches": report.ChecksumMismatches,
		"corrupt":    report.CorruptFiles,
	}).Info("asset scan complete")
	return report, nil
}

// enumerate lists relative slash paths of all regular files under root,
// excluding metadata sidecars and the baseline file itself.
func (s *Service) enumerate(root, baselinePath string) ([]string, error) {
	absBaseline, err := filepath.Abs(baselinePath)
	if err != nil {
		absBaseline = baselinePath
	}
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".meta.json") {
			return nil
		}
		if abs, aerr := filepath.Abs(path); aerr == nil && abs == absBaseline {
			return nil
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return rerr
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func (s *Service) checkFile(ctx context.Context, root, rel string, baseline entity.Baseline, now time.Time) fileResult {
	result := fileResult{path: rel}
	full := filepath.Join(root, filepath.FromSlash(rel))

	info, err := os.Stat(full)
	if err != nil {
		result.corrupt = true
		result.issues = append(result.issues, entity.IntegrityIssue{
			Type:    entity.IssueCorruptFile,
			File:    rel,
			Message: fmt.Sprintf("stat failed: %v", err),
		})
		return result
	}
	sum, err := hashFile(full)
	if err != nil {
		result.corrupt = true
		result.issues = append(result.issues, entity.IntegrityIssue{
			Type:    entity.IssueCorruptFile,
			File:    rel,
			Message: fmt.Sprintf("unreadable: %v", err),
		})
		return result
	}
	result.record = entity.ChecksumRecord{
		Checksum:  sum,
		Size:      info.Size(),
		Modified:  info.ModTime().UTC(),
		Generated: now,
	}
	if prev, ok := baseline[rel]; ok && prev.Checksum != sum {
		result.mismatch = true
		result.issues = append(result.issues, entity.IntegrityIssue{
			Type:    entity.IssueChecksumMismatch,
			File:    rel,
			Message: fmt.Sprintf("checksum mismatch: baseline %s, current %s", prev.Checksum, sum),
		})
	}

	metaIssues := checkSidecar(full+".meta.json", rel)
	result.metadataErrors = len(metaIssues)
	result.issues = append(result.issues, metaIssues...)

	issues, warnings := s.structuralChecks(ctx, rel, full, info.Size())
	result.issues = append(result.issues, issues...)
	result.warnings = append(result.warnings, warnings...)
	return result
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sortIssues(issues []entity.IntegrityIssue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].File != issues[j].File {
			return issues[i].File < issues[j].File
		}
		if issues[i].Type != issues[j].Type {
			return issues[i].Type < issues[j].Type
		}
		return issues[i].Message < issues[j].Message
	})
}
