// Package tasks parses the tasks.md checklist an agent produces during the
// tasks stage into an ordered task graph the scheduler can execute.
package tasks

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/zlink-cloudtech/spec-kit/internal/errors"
)

// Task is one checklist line from tasks.md.
type Task struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	// RawLine is the source line verbatim; it is embedded in the task
	// prompt so the agent sees exactly what the plan author wrote.
	RawLine   string `json:"raw_line"`
	Completed bool   `json:"completed"`
	// Parallel is the author's assertion that the task is independent of
	// its phase siblings and may run concurrently with them.
	Parallel bool   `json:"parallel"`
	Story    string `json:"story,omitempty"`
	Phase    int    `json:"phase,omitempty"`
	File     string `json:"file,omitempty"`
}

// Document holds the parsed checklist. Tasks preserves document order, which
// is the execution order for sequential tasks within a phase.
type Document struct {
	Tasks []*Task
	byID  map[string]*Task
}

// ParseFile reads and parses path. Callers re-parse on every invocation: the
// agent marks tasks complete by editing the file, so the file is the source
// of truth between runs.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrTasksFileMissing(path)
		}
		return nil, err
	}
	defer f.Close()

	doc := &Document{byID: make(map[string]*Task)}
	phase := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()

		if n, ok := parsePhaseHeader(line); ok {
			phase = n
			continue
		}
		if task, ok := parseTaskLine(line, phase); ok {
			doc.add(task)
		}
		// Everything else is prose; ignored.
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return doc, nil
}

// Parse parses checklist content directly. Used by tests and callers that
// already hold the document in memory.
func Parse(content string) *Document {
	doc := &Document{byID: make(map[string]*Task)}
	phase := 0

	for _, line := range strings.Split(content, "\n") {
		if n, ok := parsePhaseHeader(line); ok {
			phase = n
			continue
		}
		if task, ok := parseTaskLine(line, phase); ok {
			doc.add(task)
		}
	}

	return doc
}

// add stores a task. A repeated id overwrites the earlier record in place,
// keeping its original position. The original tool used plain dict
// assignment here, so last-write-wins is the compatible behavior.
func (d *Document) add(t *Task) {
	if existing, ok := d.byID[t.ID]; ok {
		*existing = *t
		return
	}
	d.byID[t.ID] = t
	d.Tasks = append(d.Tasks, t)
}

// Get returns the task with the given id.
func (d *Document) Get(id string) (*Task, bool) {
	t, ok := d.byID[id]
	return t, ok
}

// Phase returns the tasks of phase n in document order.
func (d *Document) Phase(n int) []*Task {
	var out []*Task
	for _, t := range d.Tasks {
		if t.Phase == n {
			out = append(out, t)
		}
	}
	return out
}

// Incomplete returns the unchecked tasks in document order.
func (d *Document) Incomplete() []*Task {
	var out []*Task
	for _, t := range d.Tasks {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of distinct tasks.
func (d *Document) Len() int {
	return len(d.Tasks)
}

// parsePhaseHeader recognizes "## Phase N" headers. The phase applies to all
// task lines until the next header.
func parsePhaseHeader(line string) (int, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "##")
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutPrefix(strings.TrimSpace(rest), "Phase")
	if !ok {
		return 0, false
	}
	rest = strings.TrimSpace(rest)

	// Take the leading integer; trailing title text ("## Phase 3: Polish")
	// is allowed.
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseTaskLine recognizes "- [mark] Tnnn rest" checklist lines.
func parseTaskLine(line string, phase int) (*Task, bool) {
	raw := line
	s := strings.TrimSpace(line)

	s, ok := strings.CutPrefix(s, "- [")
	if !ok {
		return nil, false
	}

	// Checkbox mark: empty, space, x or X.
	var completed bool
	switch {
	case strings.HasPrefix(s, "]"):
		s = s[1:]
	case strings.HasPrefix(s, " ]"):
		s = s[2:]
	case strings.HasPrefix(s, "x]") || strings.HasPrefix(s, "X]"):
		completed = true
		s = s[2:]
	default:
		return nil, false
	}
	s = strings.TrimSpace(s)

	id, rest, ok := cutTaskID(s)
	if !ok {
		return nil, false
	}

	task := &Task{
		ID:        id,
		RawLine:   raw,
		Completed: completed,
		Phase:     phase,
	}
	task.Description = extractTokens(task, rest)

	return task, true
}

// cutTaskID splits a leading task id (T followed by digits) off s.
func cutTaskID(s string) (id, rest string, ok bool) {
	if !strings.HasPrefix(s, "T") {
		return "", "", false
	}
	end := 1
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 1 {
		return "", "", false
	}
	if end < len(s) && s[end] != ' ' && s[end] != '\t' {
		return "", "", false
	}
	return s[:end], strings.TrimSpace(s[end:]), true
}

// extractTokens pulls the [P], [USn] and back-quoted file tokens out of the
// task text, recording them on t, and returns the remaining description.
func extractTokens(t *Task, text string) string {
	var desc strings.Builder

	for text != "" {
		switch {
		case strings.HasPrefix(text, "[P]"):
			t.Parallel = true
			text = text[len("[P]"):]

		case t.Story == "" && strings.HasPrefix(text, "[US"):
			if tag, rest, ok := cutStoryTag(text); ok {
				t.Story = tag
				text = rest
				continue
			}
			desc.WriteByte(text[0])
			text = text[1:]

		case t.File == "" && text[0] == '`':
			if path, rest, ok := cutBackquoted(text); ok {
				t.File = path
				text = rest
				continue
			}
			desc.WriteByte(text[0])
			text = text[1:]

		default:
			desc.WriteByte(text[0])
			text = text[1:]
		}
	}

	return strings.Join(strings.Fields(desc.String()), " ")
}

// cutStoryTag parses "[USn]" at the start of text.
func cutStoryTag(text string) (tag, rest string, ok bool) {
	end := strings.IndexByte(text, ']')
	if end < 0 {
		return "", "", false
	}
	body := text[1:end] // "USn"
	if len(body) <= 2 {
		return "", "", false
	}
	for _, c := range body[2:] {
		if c < '0' || c > '9' {
			return "", "", false
		}
	}
	return body, text[end+1:], true
}

// cutBackquoted parses a `path` span at the start of text.
func cutBackquoted(text string) (path, rest string, ok bool) {
	end := strings.IndexByte(text[1:], '`')
	if end < 0 {
		return "", "", false
	}
	return text[1 : 1+end], text[end+2:], true
}
