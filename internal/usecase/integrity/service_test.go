package integrity

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/hanguru/internal/entity"
	"github.com/eslsoft/hanguru/internal/infrastructure/probe"
)

type fakeProber struct {
	infos map[string]probe.MediaInfo
	err   error
}

func (p *fakeProber) Probe(_ context.Context, path string) (probe.MediaInfo, error) {
	if p.err != nil {
		return probe.MediaInfo{}, p.err
	}
	return p.infos[filepath.Base(path)], nil
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func issuesOfType(report *entity.IntegrityReport, issueType string) []entity.IntegrityIssue {
	var out []entity.IntegrityIssue
	for _, issue := range report.Issues {
		if issue.Type == issueType {
			out = append(out, issue)
		}
	}
	return out
}

func TestCheckCleanTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "audio/hello.mp3", "audio-bytes")
	writeFile(t, root, "images/cover.png", "image-bytes")

	prober := &fakeProber{infos: map[string]probe.MediaInfo{
		"hello.mp3": {HasAudio: true, SampleRate: 44100},
		"cover.png": {Width: 800, Height: 600},
	}}
	svc := NewService(newTestLogger(), prober, WithWorkers(2))

	report, err := svc.Check(context.Background(), CheckRequest{
		AssetRoot:  root,
		Referenced: []string{"audio/hello.mp3", "images/cover.png"},
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if report.TotalFiles != 2 || report.ValidFiles != 2 {
		t.Fatalf("expected 2 valid files, got %+v", report)
	}
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %v", report.Issues)
	}
	if _, err := os.Stat(filepath.Join(root, ".checksums.json")); err != nil {
		t.Fatalf("baseline not written: %v", err)
	}
}

func TestCheckChecksumDrift(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "audio/hello.mp3", "original")
	svc := NewService(newTestLogger(), nil)
	referenced := []string{"audio/hello.mp3"}

	// First run establishes the baseline.
	if _, err := svc.Check(context.Background(), CheckRequest{AssetRoot: root, Referenced: referenced}); err != nil {
		t.Fatalf("first check: %v", err)
	}

	writeFile(t, root, "audio/hello.mp3", "tampered")
	report, err := svc.Check(context.Background(), CheckRequest{
		AssetRoot:           root,
		Referenced:          referenced,
		SkipBaselineRefresh: true,
	})
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if report.ChecksumMismatches != 1 {
		t.Fatalf("expected one mismatch, got %+v", report)
	}
	if report.ValidFiles != 0 {
		t.Fatalf("mismatched file must not count as valid: %+v", report)
	}
	if len(issuesOfType(report, entity.IssueChecksumMismatch)) != 1 {
		t.Fatalf("expected mismatch issue, got %v", report.Issues)
	}

	// The skipped refresh left the old baseline, so drift persists.
	again, err := svc.Check(context.Background(), CheckRequest{AssetRoot: root, Referenced: referenced})
	if err != nil {
		t.Fatalf("third check: %v", err)
	}
	if again.ChecksumMismatches != 1 {
		t.Fatalf("expected drift still reported, got %+v", again)
	}

	// That run refreshed the baseline; the same content is now clean.
	final, err := svc.Check(context.Background(), CheckRequest{AssetRoot: root, Referenced: referenced})
	if err != nil {
		t.Fatalf("fourth check: %v", err)
	}
	if final.ChecksumMismatches != 0 || final.ValidFiles != 1 {
		t.Fatalf("expected clean report after refresh, got %+v", final)
	}
}

func TestCheckMissingAndOrphaned(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "audio/used.mp3", "used")
	writeFile(t, root, "audio/unused.mp3", "unused")

	svc := NewService(newTestLogger(), nil, WithWorkers(4))
	report, err := svc.Check(context.Background(), CheckRequest{
		AssetRoot:  root,
		Referenced: []string{"audio/used.mp3", "audio/ghost.mp3"},
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if report.MissingFiles != 1 {
		t.Fatalf("expected one missing file, got %+v", report)
	}
	if report.OrphanedFiles != 1 {
		t.Fatalf("expected one orphaned file, got %+v", report)
	}
	missing := issuesOfType(report, entity.IssueMissingFile)
	if len(missing) != 1 || missing[0].File != "audio/ghost.mp3" {
		t.Fatalf("unexpected missing issues: %v", missing)
	}
	orphaned := issuesOfType(report, entity.IssueOrphanedFile)
	if len(orphaned) != 1 || orphaned[0].File != "audio/unused.mp3" {
		t.Fatalf("unexpected orphaned issues: %v", orphaned)
	}

	// Without drift every scanned file is exactly valid, corrupt or orphaned.
	if report.TotalFiles != report.ValidFiles+report.CorruptFiles+report.OrphanedFiles {
		t.Fatalf("partition violated: %+v", report)
	}
}

func TestCheckSidecarValidation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "audio/good.mp3", "a")
	writeFile(t, root, "audio/good.mp3.meta.json",
		`{"creationDate":"2026-01-15T10:00:00Z","creator":"jihyun","description":"greeting audio","tags":["greeting"]}`)
	writeFile(t, root, "audio/bad.mp3", "b")
	writeFile(t, root, "audio/bad.mp3.meta.json", `{"creationDate":"15 Jan 2026","creator":"jihyun"}`)

	svc := NewService(newTestLogger(), nil)
	report, err := svc.Check(context.Background(), CheckRequest{
		AssetRoot:  root,
		Referenced: []string{"audio/good.mp3", "audio/bad.mp3"},
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}

	// bad.mp3: missing description, missing tags, malformed creationDate.
	if report.MetadataErrors != 3 {
		t.Fatalf("expected 3 metadata errors, got %+v", report)
	}
	for _, issue := range issuesOfType(report, entity.IssueMetadataError) {
		if issue.File != "audio/bad.mp3" {
			t.Fatalf("metadata issue attributed to wrong file: %v", issue)
		}
	}
	// Sidecars themselves must not be scanned as assets.
	if report.TotalFiles != 2 {
		t.Fatalf("sidecars counted as assets: %+v", report)
	}
}

func TestCheckSVGStructure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "images/ok.svg", `<svg xmlns="http://www.w3.org/2000/svg"><rect/></svg>`)
	writeFile(t, root, "images/broken.svg", `<rect/>`)
	writeFile(t, root, "images/sneaky.svg", `<svg><script>alert(1)</script></svg>`)

	svc := NewService(newTestLogger(), nil)
	report, err := svc.Check(context.Background(), CheckRequest{
		AssetRoot:  root,
		Referenced: []string{"images/ok.svg", "images/broken.svg", "images/sneaky.svg"},
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}

	format := issuesOfType(report, entity.IssueFormatError)
	if len(format) != 1 || format[0].File != "images/broken.svg" {
		t.Fatalf("unexpected format errors: %v", format)
	}
	var security []entity.IntegrityIssue
	for _, w := range report.Warnings {
		if w.Type == entity.AdvisorySVGSecurity {
			security = append(security, w)
		}
	}
	if len(security) != 1 || security[0].File != "images/sneaky.svg" {
		t.Fatalf("unexpected security advisories: %v", report.Warnings)
	}
}

func TestCheckAudioProbe(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "audio/silent.mp3", "x")
	writeFile(t, root, "audio/lofi.mp3", "y")

	prober := &fakeProber{infos: map[string]probe.MediaInfo{
		"silent.mp3": {HasAudio: false},
		"lofi.mp3":   {HasAudio: true, SampleRate: 8000},
	}}
	svc := NewService(newTestLogger(), prober)
	report, err := svc.Check(context.Background(), CheckRequest{
		AssetRoot:  root,
		Referenced: []string{"audio/silent.mp3", "audio/lofi.mp3"},
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}

	format := issuesOfType(report, entity.IssueFormatError)
	if len(format) != 1 || format[0].File != "audio/silent.mp3" {
		t.Fatalf("unexpected format errors: %v", format)
	}
	var quality []entity.IntegrityIssue
	for _, w := range report.Warnings {
		if w.Type == entity.AdvisoryAudioQuality {
			quality = append(quality, w)
		}
	}
	if len(quality) != 1 || quality[0].File != "audio/lofi.mp3" {
		t.Fatalf("unexpected quality advisories: %v", report.Warnings)
	}
}

func TestCheckProbeFailureIsIssueNotError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "audio/odd.mp3", "x")

	prober := &fakeProber{err: errors.New("ffprobe exploded")}
	svc := NewService(newTestLogger(), prober)
	report, err := svc.Check(context.Background(), CheckRequest{
		AssetRoot:  root,
		Referenced: []string{"audio/odd.mp3"},
	})
	if err != nil {
		t.Fatalf("probe failure must not abort the scan: %v", err)
	}
	failures := issuesOfType(report, entity.IssueFormatValidation)
	if len(failures) != 1 {
		t.Fatalf("expected probe failure issue, got %v", report.Issues)
	}
}

func TestCheckUnreadableBaseline(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "audio/a.mp3", "a")
	writeFile(t, root, ".checksums.json", "{not json")

	svc := NewService(newTestLogger(), nil)
	report, err := svc.Check(context.Background(), CheckRequest{
		AssetRoot:  root,
		Referenced: []string{"audio/a.mp3"},
	})
	if err != nil {
		t.Fatalf("broken baseline must degrade, not fail: %v", err)
	}
	if len(issuesOfType(report, entity.IssueBaselineError)) != 1 {
		t.Fatalf("expected baseline error issue, got %v", report.Issues)
	}
	if report.ValidFiles != 1 {
		t.Fatalf("scan should continue against an empty baseline: %+v", report)
	}

	// The refresh rewrote a readable baseline.
	if _, err := LoadBaseline(filepath.Join(root, ".checksums.json")); err != nil {
		t.Fatalf("baseline not healed: %v", err)
	}
}

func TestCheckMissingRoot(t *testing.T) {
	svc := NewService(newTestLogger(), nil)
	if _, err := svc.Check(context.Background(), CheckRequest{AssetRoot: filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Fatal("expected error for missing asset root")
	}
}
