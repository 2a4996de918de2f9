// Package output provides formatters for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"youdo/internal/service"
	"youdo/internal/taskstore"
	"youdo/internal/urgency"
)

const (
	// ListSeparator is the separator line for list sections.
	ListSeparator = "------------"

	// NoDescription is shown for tasks with an empty description.
	NoDescription = "no description provided"

	timeLayout = "2006-01-02 15:04"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ValidFormat reports whether f is a known output format.
func ValidFormat(f string) bool {
	switch f {
	case FormatText, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// TaskView is a task with its urgency at render time.
type TaskView struct {
	service.Task `yaml:",inline"`
	Urgency      *urgency.Urgency `json:"urgency,omitempty" yaml:"urgency,omitempty"`

	loc *time.Location
}

// Summary counts the collection.
type Summary struct {
	Pending   int `json:"pending" yaml:"pending"`
	Completed int `json:"completed" yaml:"completed"`
	Urgent    int `json:"urgent" yaml:"urgent"`
}

func (s Summary) String() string {
	return fmt.Sprintf("%d pending, %d completed, %d urgent", s.Pending, s.Completed, s.Urgent)
}

// ListView is the document rendered by the list command.
type ListView struct {
	Pending   []TaskView `json:"pending" yaml:"pending"`
	Completed []TaskView `json:"completed,omitempty" yaml:"completed,omitempty"`
	Summary   Summary    `json:"summary" yaml:"summary"`
}

// NewListView builds the list document from a store snapshot. Completed
// tasks are only listed when all is set; they are always counted.
func NewListView(snap taskstore.Snapshot, now time.Time, all bool) ListView {
	v := ListView{
		Pending: make([]TaskView, 0, len(snap.Pending)),
		Summary: Summary{
			Pending:   len(snap.Pending),
			Completed: len(snap.Completed),
			Urgent:    snap.UrgentCount,
		},
	}
	for _, t := range snap.Pending {
		v.Pending = append(v.Pending, NewTaskView(t, now))
	}
	if all {
		for _, t := range snap.Completed {
			v.Completed = append(v.Completed, NewTaskView(t, now))
		}
	}
	return v
}

// NewTaskView classifies t at now. Completed tasks carry no urgency.
func NewTaskView(t service.Task, now time.Time) TaskView {
	tv := TaskView{Task: t, loc: now.Location()}
	if !t.IsCompleted {
		if u, ok := urgency.Classify(t.DueDate, now); ok {
			tv.Urgency = &u
		}
	}
	return tv
}

// WriteList renders v in format.
func WriteList(w io.Writer, format string, v ListView, st Styles) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, v)
	case FormatYAML:
		return writeYAML(w, v)
	}

	if len(v.Pending) == 0 && len(v.Completed) == 0 {
		fmt.Fprintln(w, "no tasks found")
	}
	for _, t := range v.Pending {
		FormatTask(w, t, st)
	}
	if len(v.Completed) > 0 {
		fmt.Fprintln(w, ListSeparator)
		for _, t := range v.Completed {
			FormatTask(w, t, st)
		}
	}
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintln(w, v.Summary.String())
	return nil
}

// FormatTask writes one list line.
// Format: "{ID:>4}  [ ] {PRIORITY:<6}  {TITLE}  ({URGENCY})"
func FormatTask(w io.Writer, t TaskView, st Styles) {
	box := "[ ]"
	title := normalizeTitle(t.Title)
	if t.IsCompleted {
		box = "[x]"
		title = st.Done.Render(title)
	}
	prio := st.priority(t.Priority).Render(fmt.Sprintf("%-6s", t.Priority))

	line := fmt.Sprintf("%4d  %s %s  %s", t.ID, box, prio, title)
	if t.Urgency != nil {
		line += "  " + st.badge(*t.Urgency).Render("("+t.Urgency.Label+")")
	}
	fmt.Fprintln(w, line)
}

// WriteTask renders the detail view of one task.
func WriteTask(w io.Writer, format string, t TaskView, st Styles) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, t)
	case FormatYAML:
		return writeYAML(w, t)
	}

	status := "pending"
	if t.IsCompleted {
		status = "completed"
	}
	due := "none"
	if t.DueDate != nil {
		due = t.DueDate.In(t.location()).Format(time.DateOnly)
		if t.Urgency != nil {
			due += " " + st.badge(*t.Urgency).Render("("+t.Urgency.Label+")")
		}
	}
	description := t.Description
	if strings.TrimSpace(description) == "" {
		description = st.Muted.Render(NoDescription)
	}

	fmt.Fprintf(w, "#%d %s\n", t.ID, normalizeTitle(t.Title))
	fmt.Fprintf(w, "  status:    %s\n", status)
	fmt.Fprintf(w, "  priority:  %s\n", st.priority(t.Priority).Render(string(t.Priority)))
	fmt.Fprintf(w, "  due:       %s\n", due)
	fmt.Fprintf(w, "  created:   %s\n", t.CreatedAt.In(t.location()).Format(timeLayout))
	fmt.Fprintf(w, "  updated:   %s\n", t.UpdatedAt.In(t.location()).Format(timeLayout))
	fmt.Fprintln(w, "  description:")
	for _, line := range strings.Split(description, "\n") {
		fmt.Fprintf(w, "    %s\n", line)
	}
	return nil
}

func (t TaskView) location() *time.Location {
	if t.loc == nil {
		return time.Local
	}
	return t.loc
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
