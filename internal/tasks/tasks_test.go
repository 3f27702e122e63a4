package tasks

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	vibeerrors "github.com/zlink-cloudtech/spec-kit/internal/errors"
)

func TestParseTaskLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Task
	}{
		{
			name: "full token set",
			line: "- [ ] T005 [P] [US1] Do X `src/x.py`",
			want: Task{ID: "T005", Description: "Do X", Parallel: true, Story: "US1", File: "src/x.py"},
		},
		{
			name: "plain incomplete",
			line: "- [ ] T001 Create project structure",
			want: Task{ID: "T001", Description: "Create project structure"},
		},
		{
			name: "completed lowercase",
			line: "- [x] T002 Write the parser",
			want: Task{ID: "T002", Description: "Write the parser", Completed: true},
		},
		{
			name: "completed uppercase",
			line: "- [X] T003 Wire the CLI",
			want: Task{ID: "T003", Description: "Wire the CLI", Completed: true},
		},
		{
			name: "empty checkbox",
			line: "- [] T004 Empty mark still counts",
			want: Task{ID: "T004", Description: "Empty mark still counts"},
		},
		{
			name: "tokens in odd order",
			line: "- [ ] T010 Refactor `pkg/a.go` [US12] carefully [P]",
			want: Task{ID: "T010", Description: "Refactor carefully", Parallel: true, Story: "US12", File: "pkg/a.go"},
		},
		{
			name: "indented line",
			line: "  - [ ] T011 [P] Indented task",
			want: Task{ID: "T011", Description: "Indented task", Parallel: true},
		},
		{
			name: "second backquote span stays in description",
			line: "- [ ] T012 Move `a.go` to match `b.go`",
			want: Task{ID: "T012", Description: "Move to match `b.go`", File: "a.go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Parse(tt.line)
			if doc.Len() != 1 {
				t.Fatalf("parsed %d tasks, want 1", doc.Len())
			}
			got := doc.Tasks[0]
			if got.ID != tt.want.ID || got.Description != tt.want.Description ||
				got.Completed != tt.want.Completed || got.Parallel != tt.want.Parallel ||
				got.Story != tt.want.Story || got.File != tt.want.File {
				t.Errorf("parsed %+v, want %+v", *got, tt.want)
			}
			if got.RawLine != tt.line {
				t.Errorf("RawLine = %q, want the source line verbatim", got.RawLine)
			}
		})
	}
}

func TestParseIgnoresNonTaskLines(t *testing.T) {
	doc := Parse(`# Tasks

Some prose about the feature.

- regular bullet, no checkbox
- [ ] not a task because no id
- [ ] X001 wrong id prefix
- [?] T001 bad checkbox mark
* [ ] T002 wrong bullet character
`)
	if doc.Len() != 0 {
		t.Errorf("parsed %d tasks from noise, want 0: %+v", doc.Len(), doc.Tasks[0])
	}
}

func TestParsePhaseHeaders(t *testing.T) {
	doc := Parse(`## Phase 1: Setup
- [ ] T001 First
- [ ] T002 Second

### Not a phase header
- [ ] T003 Still phase one

## Phase 2
- [ ] T004 [P] Fourth
`)
	wantPhases := map[string]int{"T001": 1, "T002": 1, "T003": 1, "T004": 2}
	for id, phase := range wantPhases {
		task, ok := doc.Get(id)
		if !ok {
			t.Fatalf("task %s not parsed", id)
		}
		if task.Phase != phase {
			t.Errorf("task %s phase = %d, want %d", id, task.Phase, phase)
		}
	}
}

func TestParseSpecExample(t *testing.T) {
	doc := Parse("## Phase 2\n- [ ] T005 [P] [US1] Do X `src/x.py`\n")
	task, ok := doc.Get("T005")
	if !ok {
		t.Fatal("T005 not parsed")
	}
	if task.Phase != 2 || !task.Parallel || task.Story != "US1" ||
		task.File != "src/x.py" || task.Description != "Do X" {
		t.Errorf("parsed %+v", *task)
	}
}

func TestParseDuplicateIDLastWins(t *testing.T) {
	doc := Parse(`## Phase 1
- [ ] T001 First version
- [ ] T002 Middle
- [x] T001 [P] Second version
`)
	if doc.Len() != 2 {
		t.Fatalf("Len = %d, want 2", doc.Len())
	}

	task, _ := doc.Get("T001")
	if task.Description != "Second version" || !task.Completed || !task.Parallel {
		t.Errorf("duplicate id should take the later record, got %+v", *task)
	}

	// The overwritten record keeps its original document position.
	if doc.Tasks[0].ID != "T001" || doc.Tasks[1].ID != "T002" {
		t.Errorf("document order disturbed: %s, %s", doc.Tasks[0].ID, doc.Tasks[1].ID)
	}
}

func TestPhaseOrderAndIncomplete(t *testing.T) {
	doc := Parse(`## Phase 1
- [x] T001 Done already
- [ ] T002 Pending
## Phase 2
- [ ] T003 Other phase
`)
	phase1 := doc.Phase(1)
	if len(phase1) != 2 || phase1[0].ID != "T001" || phase1[1].ID != "T002" {
		t.Errorf("Phase(1) = %v", ids(phase1))
	}

	inc := doc.Incomplete()
	if len(inc) != 2 || inc[0].ID != "T002" || inc[1].ID != "T003" {
		t.Errorf("Incomplete() = %v", ids(inc))
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "tasks.md"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, &vibeerrors.VibeError{Code: vibeerrors.CodeTasksFileMissing}) {
		t.Errorf("error code mismatch: %v", err)
	}
}

func TestParseFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.md")
	content := "## Phase 1\n- [ ] T001 [P] Build it `main.go`\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	task, ok := doc.Get("T001")
	if !ok || task.File != "main.go" || !task.Parallel {
		t.Errorf("parsed %+v", task)
	}
}

func ids(ts []*Task) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}
