package parser

import (
	"errors"
	"strconv"
	"strings"

	"github.com/sorenblk/quarry/internal/checksum"
	"github.com/sorenblk/quarry/internal/models"
)

// Metadata marker tokens in task text. Each marker must be immediately
// followed by a calendar-valid YYYY-MM-DD token to count.
const (
	DueMarker       = "📅"
	ScheduledMarker = "⏳"
)

// Priority marker tokens. Standalone, no argument.
const (
	priorityHighMarker   = "⏫"
	priorityMediumMarker = "🔼"
	priorityLowMarker    = "🔽"
)

// ErrNotTask is returned when a line no longer matches the task grammar.
var ErrNotTask = errors.New("parser: line does not match task grammar")

// taskLine is the decomposition of one matching checkbox line.
type taskLine struct {
	indentPrefix string // leading spaces/tabs, verbatim
	marker       byte   // '-', '*' or '+'
	checked      bool
	text         string // everything after the checkbox
}

// splitTaskLine matches the task grammar: optional indent, a list marker
// (-, * or +), a space, then "[ ]", "[x]" or "[X]" and a space.
func splitTaskLine(line string) (taskLine, bool) {
	line = strings.TrimSuffix(line, "\r")
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	rest := line[i:]
	if len(rest) < 6 {
		return taskLine{}, false
	}
	marker := rest[0]
	if marker != '-' && marker != '*' && marker != '+' {
		return taskLine{}, false
	}
	if rest[1] != ' ' || rest[2] != '[' || rest[4] != ']' || rest[5] != ' ' {
		return taskLine{}, false
	}
	var checked bool
	switch rest[3] {
	case ' ':
		checked = false
	case 'x', 'X':
		checked = true
	default:
		return taskLine{}, false
	}
	return taskLine{
		indentPrefix: line[:i],
		marker:       marker,
		checked:      checked,
		text:         rest[6:],
	}, true
}

// taskMeta is what a token scan of the task text yields.
type taskMeta struct {
	textNorm  string
	due       string
	scheduled string
	priority  int
	tags      []string
}

// scanTaskText walks whitespace-delimited tokens, stripping recognized
// (marker, date) pairs into due/scheduled and collecting priority markers
// and #tags. Unrecognized dates and malformed marker pairs stay in the
// text. Priority markers are read but kept in the text.
func scanTaskText(text string) taskMeta {
	tokens := strings.Fields(text)
	meta := taskMeta{}
	kept := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if (tok == DueMarker || tok == ScheduledMarker) && i+1 < len(tokens) && ValidDate(tokens[i+1]) {
			if tok == DueMarker {
				meta.due = tokens[i+1]
			} else {
				meta.scheduled = tokens[i+1]
			}
			i++
			continue
		}
		switch tok {
		case priorityHighMarker:
			meta.priority = models.PriorityHigh
		case priorityMediumMarker:
			meta.priority = models.PriorityMedium
		case priorityLowMarker:
			meta.priority = models.PriorityLow
		}
		if strings.HasPrefix(tok, "#") {
			if t := NormalizeTag(tok); t != "" {
				meta.tags = append(meta.tags, t)
			}
		}
		kept = append(kept, tok)
	}
	meta.textNorm = strings.Join(kept, " ")
	return meta
}

// pathFrame is one level of the checklist sibling-index stack.
type pathFrame struct {
	indent  int
	counter int
}

// ExtractTasks scans body lines for checkbox items. lineOffset is the
// number of document lines preceding the body (the front-matter block plus
// fences), so stored line numbers are 1-indexed into the full document and
// line-level mutation can target them directly.
func ExtractTasks(noteID, body string, lineOffset int) []models.Task {
	var (
		tasks    []models.Task
		stack    []pathFrame
		headings []struct {
			level int
			text  string
		}
	)

	for lineNo, line := range strings.Split(body, "\n") {
		if level, text, ok := headingLine(line); ok {
			// Truncate to the current level, then push.
			for len(headings) > 0 && headings[len(headings)-1].level >= level {
				headings = headings[:len(headings)-1]
			}
			headings = append(headings, struct {
				level int
				text  string
			}{level, text})
			continue
		}

		tl, ok := splitTaskLine(line)
		if !ok {
			continue
		}
		indent := len(tl.indentPrefix)

		for len(stack) > 0 && stack[len(stack)-1].indent > indent {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 && stack[len(stack)-1].indent == indent {
			stack[len(stack)-1].counter++
		} else {
			stack = append(stack, pathFrame{indent: indent})
		}
		parts := make([]string, len(stack))
		for i, f := range stack {
			parts[i] = strconv.Itoa(f.counter)
		}
		listPath := strings.Join(parts, ".")

		meta := scanTaskText(tl.text)
		status := models.TaskStatusTodo
		if tl.checked {
			status = models.TaskStatusDone
		}
		sectionParts := make([]string, len(headings))
		for i, h := range headings {
			sectionParts[i] = h.text
		}

		start := lineOffset + lineNo + 1
		tasks = append(tasks, models.Task{
			TaskID:        checksum.Key(noteID, listPath, strconv.Itoa(start), meta.textNorm),
			NoteID:        noteID,
			LineStart:     start,
			LineEnd:       start,
			ListPath:      listPath,
			Indent:        indent,
			RawText:       tl.text,
			TextNorm:      meta.textNorm,
			Checked:       tl.checked,
			Status:        status,
			Priority:      meta.priority,
			DueDate:       meta.due,
			ScheduledDate: meta.scheduled,
			Tags:          meta.tags,
			Section:       strings.Join(sectionParts, "/"),
		})
	}
	return tasks
}

func headingLine(line string) (level int, text string, ok bool) {
	s := strings.TrimSuffix(line, "\r")
	n := 0
	for n < len(s) && s[n] == '#' {
		n++
	}
	if n == 0 || n >= len(s) || s[n] != ' ' {
		return 0, "", false
	}
	return n, strings.TrimSpace(s[n+1:]), true
}

// TaskPatch describes an in-place task line edit. Nil fields keep the
// current value; pointing a date field at the empty string clears it.
type TaskPatch struct {
	Checked   *bool
	Scheduled *string
	Due       *string
}

// ApplyTaskMetadata re-renders a single task line with the patch applied,
// preserving the leading indentation and list marker character. The body
// becomes the stripped text followed by the scheduled token then the due
// token. Returns ErrNotTask when the line no longer matches the grammar,
// so callers never corrupt a non-task line.
func ApplyTaskMetadata(line string, patch TaskPatch) (string, error) {
	tl, ok := splitTaskLine(line)
	if !ok {
		return "", ErrNotTask
	}
	meta := scanTaskText(tl.text)

	checked := tl.checked
	if patch.Checked != nil {
		checked = *patch.Checked
	}
	scheduled := meta.scheduled
	if patch.Scheduled != nil {
		scheduled = *patch.Scheduled
	}
	due := meta.due
	if patch.Due != nil {
		due = *patch.Due
	}

	box := ' '
	if checked {
		box = 'x'
	}
	var b strings.Builder
	b.WriteString(tl.indentPrefix)
	b.WriteByte(tl.marker)
	b.WriteString(" [")
	b.WriteRune(box)
	b.WriteString("] ")
	b.WriteString(meta.textNorm)
	if scheduled != "" {
		b.WriteString(" " + ScheduledMarker + " " + scheduled)
	}
	if due != "" {
		b.WriteString(" " + DueMarker + " " + due)
	}
	return b.String(), nil
}

// MutateTaskLine rewrites the 1-indexed target line of a full document,
// preserving the document's newline style, and returns the new text.
func MutateTaskLine(text string, line int, patch TaskPatch) (string, error) {
	newline := "\n"
	if strings.Contains(text, "\r\n") {
		newline = "\r\n"
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if line < 1 || line > len(lines) {
		return "", ErrNotTask
	}
	updated, err := ApplyTaskMetadata(lines[line-1], patch)
	if err != nil {
		return "", err
	}
	lines[line-1] = updated
	return strings.Join(lines, newline), nil
}
