package filterexpr

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

var submissionSchema = Schema{
	"status": {
		Kind: KindString,
		Ops:  []Op{OpEQ, OpIN},
	},
	"lesson": {
		Kind: KindString,
		Ops:  []Op{OpEQ, OpSW},
	},
	"score": {
		Kind: KindNumber,
		Ops:  []Op{OpEQ, OpGTE, OpLTE},
	},
	"created": {
		Kind: KindTimestamp,
		Ops:  []Op{OpGTE, OpLTE},
	},
}

func mustCompile(t *testing.T, filter string) *Matcher {
	t.Helper()
	m, err := Compile(filter, submissionSchema)
	if err != nil {
		t.Fatalf("Compile(%q) returned error: %v", filter, err)
	}
	return m
}

func TestCompileAndMatchConjunction(t *testing.T) {
	timestamp := "2026-01-01T00:00:00Z"
	filter := fmt.Sprintf("status == 'approved' && score >= 80 && lesson.startsWith('lesson-0') && created >= timestamp('%s')", timestamp)
	m := mustCompile(t, filter)

	created, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	record := map[string]any{
		"status":  "approved",
		"score":   85,
		"lesson":  "lesson-001",
		"created": created.Add(time.Hour),
	}
	if !m.Match(record) {
		t.Fatalf("expected record to match %q", filter)
	}

	record["score"] = 79
	if m.Match(record) {
		t.Fatal("expected score below bound to fail")
	}
	record["score"] = 85
	record["created"] = created.Add(-time.Hour)
	if m.Match(record) {
		t.Fatal("expected timestamp before bound to fail")
	}
}

func TestCompileEmptyFilterMatchesEverything(t *testing.T) {
	m := mustCompile(t, "  ")
	if !m.Match(map[string]any{"status": "anything"}) {
		t.Fatal("empty filter must match every record")
	}

	var nilMatcher *Matcher
	if !nilMatcher.Match(nil) {
		t.Fatal("nil matcher must match every record")
	}
}

func TestMatchInOperator(t *testing.T) {
	m := mustCompile(t, "status in ['approved', 'rejected']")

	if !m.Match(map[string]any{"status": "rejected"}) {
		t.Fatal("expected member to match")
	}
	if m.Match(map[string]any{"status": "pending"}) {
		t.Fatal("expected non-member to fail")
	}
	if m.Match(map[string]any{}) {
		t.Fatal("expected absent field to fail")
	}
}

func TestMatchNumberKinds(t *testing.T) {
	m := mustCompile(t, "score <= 90")

	score := 42
	cases := []any{42, int64(42), float64(42), &score}
	for _, v := range cases {
		if !m.Match(map[string]any{"score": v}) {
			t.Fatalf("expected %T value to match", v)
		}
	}
	if m.Match(map[string]any{"score": "42"}) {
		t.Fatal("expected string score to fail a numeric predicate")
	}
	var nilScore *int
	if m.Match(map[string]any{"score": nilScore}) {
		t.Fatal("expected nil score pointer to fail")
	}
}

func TestMatchStringerValues(t *testing.T) {
	m := mustCompile(t, "lesson.startsWith('lesson-')")
	if !m.Match(map[string]any{"lesson": stringerValue("lesson-042")}) {
		t.Fatal("expected fmt.Stringer value to match")
	}
}

type stringerValue string

func (s stringerValue) String() string { return string(s) }

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		want   string
	}{
		{"unknown field", "submitter == 'x'", "not allowed"},
		{"disallowed operator", "status <= 'a'", "operator"},
		{"wrong literal kind", "status == 1", "expected string"},
		{"or rejected", "status == 'approved' || score >= 90", "only AND"},
		{"negation rejected", "!(status == 'approved')", "not supported"},
		{"non literal rhs", "score <= threshold", "right-hand side"},
		{"empty in list", "status in []", "must not be empty"},
		{"bad timestamp", "created >= timestamp('yesterday')", "not RFC3339"},
		{"field on rhs", "'approved' == status", "identifier"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile(tc.filter, submissionSchema)
			if err == nil {
				t.Fatalf("expected error for %q", tc.filter)
			}
			if !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(tc.want)) {
				t.Fatalf("expected error to contain %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCompileEmptySchema(t *testing.T) {
	if _, err := Compile("status == 'x'", nil); err == nil {
		t.Fatal("expected error for empty schema")
	}
}
