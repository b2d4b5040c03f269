package archive

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	memstore "github.com/eslsoft/hanguru/internal/adapter/repository"
	"github.com/eslsoft/hanguru/internal/entity"
	"github.com/eslsoft/hanguru/internal/repository"
)

func archivedSubmission(id string, status entity.SubmissionStatus, created time.Time) *entity.Submission {
	score := 88
	return &entity.Submission{
		ID:          id,
		Lesson:      entity.Lesson{ID: "lesson-001", Title: "Greetings"},
		SubmitterID: "author-1",
		ReviewType:  entity.ReviewStandard,
		Status:      status,
		ReviewCycle: 1,
		Reviewers: []entity.ReviewerAssignment{
			{ReviewerID: "tech-1", Type: entity.ReviewerTechnical, Status: entity.AssignmentCompleted, Recommendation: entity.RecommendApprove, QualityScore: &score},
		},
		QualityScore: &score,
		Validation:   entity.ValidationResult{IsValid: true},
		History: []entity.HistoryEntry{
			{At: created, Actor: "author-1", Event: "submitted"},
			{At: created.Add(time.Hour), Actor: "system", Event: "approved"},
		},
		CreatedAt: created,
		UpdatedAt: created.Add(time.Hour),
	}
}

func seededStore(t *testing.T, subs ...*entity.Submission) *memstore.MemoryArchiveStore {
	t.Helper()
	store := memstore.NewMemoryArchiveStore()
	for _, sub := range subs {
		if err := store.Save(context.Background(), sub); err != nil {
			t.Fatalf("seed %s: %v", sub.ID, err)
		}
	}
	return store
}

func TestServiceExportImportRoundTrip(t *testing.T) {
	base := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	source := seededStore(t,
		archivedSubmission("sub-1", entity.StatusApproved, base),
		archivedSubmission("sub-2", entity.StatusRejected, base.Add(time.Minute)),
		archivedSubmission("sub-3", entity.StatusApproved, base.Add(2*time.Minute)),
	)
	exporter, err := NewService(source, WithBatchSize(2))
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}

	var buf bytes.Buffer
	if err := exporter.Export(context.Background(), &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != 4 {
		t.Fatalf("expected meta plus 3 records, got %d lines", lines)
	}

	target := memstore.NewMemoryArchiveStore()
	importer, err := NewService(target)
	if err != nil {
		t.Fatalf("new importer: %v", err)
	}
	stats, err := importer.Import(context.Background(), &buf)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if stats.Imported != 3 || stats.Skipped != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	restored, err := target.Get(context.Background(), "sub-2")
	if err != nil {
		t.Fatalf("get restored: %v", err)
	}
	if restored.Status != entity.StatusRejected || len(restored.History) != 2 {
		t.Fatalf("round trip mangled submission: %+v", restored)
	}
	if restored.Reviewers[0].QualityScore == nil || *restored.Reviewers[0].QualityScore != 88 {
		t.Fatalf("reviewer score lost: %+v", restored.Reviewers[0])
	}
}

func TestServiceImportSkipsExisting(t *testing.T) {
	base := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	sub := archivedSubmission("sub-1", entity.StatusApproved, base)
	source := seededStore(t, sub)
	svc, err := NewService(source)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	var buf bytes.Buffer
	if err := svc.Export(context.Background(), &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	stream := buf.Bytes()

	stats, err := svc.Import(context.Background(), bytes.NewReader(stream))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if stats.Imported != 0 || stats.Skipped != 1 {
		t.Fatalf("expected skip, got %+v", stats)
	}

	stats, err = svc.Import(context.Background(), bytes.NewReader(stream), WithOverwrite())
	if err != nil {
		t.Fatalf("import overwrite: %v", err)
	}
	if stats.Imported != 1 || stats.Skipped != 0 {
		t.Fatalf("expected overwrite, got %+v", stats)
	}
}

func TestServiceImportRejectsTamperedChecksum(t *testing.T) {
	base := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	source := seededStore(t, archivedSubmission("sub-1", entity.StatusApproved, base))
	svc, err := NewService(source)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	var buf bytes.Buffer
	if err := svc.Export(context.Background(), &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	tampered := strings.Replace(buf.String(), `"author-1"`, `"intruder"`, 1)

	target := memstore.NewMemoryArchiveStore()
	importer, _ := NewService(target)
	if _, err := importer.Import(context.Background(), strings.NewReader(tampered)); err == nil {
		t.Fatal("expected checksum mismatch error")
	} else if !strings.Contains(err.Error(), "checksum mismatch") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestServiceImportRequiresMeta(t *testing.T) {
	svc, _ := NewService(memstore.NewMemoryArchiveStore())

	if _, err := svc.Import(context.Background(), strings.NewReader("")); err == nil {
		t.Fatal("expected missing meta error on empty stream")
	}

	line := `{"type":"submission","payload":{"id":"sub-1"}}` + "\n"
	if _, err := svc.Import(context.Background(), strings.NewReader(line)); err == nil {
		t.Fatal("expected error for submission before meta")
	}
}

func TestServiceImportRejectsUnknownVersion(t *testing.T) {
	svc, _ := NewService(memstore.NewMemoryArchiveStore())
	line := `{"type":"meta","version":9,"count":0}` + "\n"
	if _, err := svc.Import(context.Background(), strings.NewReader(line)); err == nil {
		t.Fatal("expected version error")
	}
}

func TestServiceImportDetectsTruncation(t *testing.T) {
	base := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	source := seededStore(t,
		archivedSubmission("sub-1", entity.StatusApproved, base),
		archivedSubmission("sub-2", entity.StatusApproved, base.Add(time.Minute)),
	)
	svc, _ := NewService(source)

	var buf bytes.Buffer
	if err := svc.Export(context.Background(), &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := strings.SplitAfter(buf.String(), "\n")
	truncated := strings.Join(lines[:2], "")

	target := memstore.NewMemoryArchiveStore()
	importer, _ := NewService(target)
	if _, err := importer.Import(context.Background(), strings.NewReader(truncated)); err == nil {
		t.Fatal("expected count mismatch for truncated stream")
	} else if !strings.Contains(err.Error(), "expected 2 submissions") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestServiceExportWithQuery(t *testing.T) {
	base := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	source := seededStore(t,
		archivedSubmission("sub-1", entity.StatusApproved, base),
		archivedSubmission("sub-2", entity.StatusRejected, base.Add(time.Minute)),
	)
	svc, _ := NewService(source)

	var buf bytes.Buffer
	err := svc.Export(context.Background(), &buf,
		WithQuery(repository.ListSubmissionQuery{Status: entity.StatusApproved}))
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	target := memstore.NewMemoryArchiveStore()
	importer, _ := NewService(target)
	stats, err := importer.Import(context.Background(), &buf)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if stats.Imported != 1 {
		t.Fatalf("expected only approved submission, got %+v", stats)
	}
	if _, err := target.Get(context.Background(), "sub-2"); err == nil {
		t.Fatal("rejected submission must not be exported")
	}
}

func TestServiceExportProgress(t *testing.T) {
	base := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	var subs []*entity.Submission
	for i := 0; i < 5; i++ {
		subs = append(subs, archivedSubmission(fmt.Sprintf("sub-%d", i), entity.StatusApproved, base.Add(time.Duration(i)*time.Minute)))
	}
	svc, _ := NewService(seededStore(t, subs...), WithBatchSize(2))

	reporter := &recordingProgress{}
	var buf bytes.Buffer
	if err := svc.Export(context.Background(), &buf, WithProgressReporter(reporter)); err != nil {
		t.Fatalf("export: %v", err)
	}
	if reporter.total != 5 || reporter.increments != 5 || !reporter.finished {
		t.Fatalf("unexpected progress: %+v", reporter)
	}
}

type recordingProgress struct {
	total      int
	increments int
	finished   bool
}

func (p *recordingProgress) Start(total int) { p.total = total }
func (p *recordingProgress) Increment(n int) { p.increments += n }
func (p *recordingProgress) Finish()         { p.finished = true }
