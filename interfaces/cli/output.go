package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"task-tracker/domain/dto"

	"github.com/charmbracelet/lipgloss"
	"go.yaml.in/yaml/v3"
)

type Format int

const (
	FormatTable Format = iota
	FormatJSON
	FormatYAML
)

func parseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatTable, validationError("output", "must be one of: table, json, yaml")
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle  = lipgloss.NewStyle().Bold(true)

	statusStyles = map[string]lipgloss.Style{
		"todo": lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		"done": lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	}
)

func disableColor() {
	headerStyle = lipgloss.NewStyle()
	dimStyle = lipgloss.NewStyle()
	titleStyle = lipgloss.NewStyle()
	statusStyles = map[string]lipgloss.Style{}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return enc.Close()
}

// render writes v as JSON or YAML, or calls table for the table format.
func render(w io.Writer, format Format, v any, table func()) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, v)
	case FormatYAML:
		return writeYAML(w, v)
	default:
		table()
		return nil
	}
}

type errorEnvelope struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSONError(w io.Writer, err error) {
	env := errorEnvelope{Error: err.Error(), Code: CodeInternal}
	var cliErr *Error
	if errors.As(err, &cliErr) {
		env = errorEnvelope{Error: cliErr.Message, Code: cliErr.Code, Details: cliErr.Details}
	}
	_ = writeJSON(w, env)
}

type taskRow struct {
	id, status, priority, title string
}

func flattenRows(tasks []dto.TaskResponse, depth int, rows []taskRow) []taskRow {
	for _, t := range tasks {
		title := t.Title
		if depth > 0 {
			title = strings.Repeat("  ", depth-1) + "└─ " + title
		}
		rows = append(rows, taskRow{
			id:       t.ID,
			status:   t.Status,
			priority: formatPriority(t.Priority),
			title:    title,
		})
		rows = flattenRows(t.Subtasks, depth+1, rows)
	}
	return rows
}

// taskTable renders tasks with their subtasks indented under them.
func taskTable(w io.Writer, tasks []dto.TaskResponse) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No tasks found."))
		return
	}

	rows := flattenRows(tasks, 0, nil)

	const pad = 2
	idW, statusW, prioW := 4, 8, 10
	for _, r := range rows {
		idW = max(idW, len(r.id)+pad)
		statusW = max(statusW, len(r.status)+pad)
		prioW = max(prioW, len(r.priority)+pad)
	}

	header := fmt.Sprintf("%-*s%-*s%-*s%s", idW, "ID", statusW, "STATUS", prioW, "PRIORITY", "TITLE")
	fmt.Fprintln(w, headerStyle.Render(header))

	for _, r := range rows {
		status := styledStatus(r.status, fmt.Sprintf("%-*s", statusW, r.status))
		prio := fmt.Sprintf("%-*s", prioW, r.priority)
		if r.priority == "--" {
			prio = dimStyle.Render(prio)
		}
		fmt.Fprintf(w, "%-*s%s%s%s\n", idW, r.id, status, prio, r.title)
	}
}

// taskDetail renders one task and its subtree.
func taskDetail(w io.Writer, t *dto.TaskResponse) {
	fmt.Fprintln(w, titleStyle.Render(t.Title))
	fmt.Fprintf(w, "%-13s%s\n", "ID:", t.ID)
	fmt.Fprintf(w, "%-13s%s\n", "Status:", styledStatus(t.Status, t.Status))
	fmt.Fprintf(w, "%-13s%s\n", "Priority:", formatPriority(t.Priority))
	fmt.Fprintf(w, "%-13s%s\n", "Created:", t.CreatedAt.Format(time.RFC3339))
	if t.CompletedAt != nil {
		fmt.Fprintf(w, "%-13s%s\n", "Completed:", t.CompletedAt.Format(time.RFC3339))
	}
	if t.Description != "" {
		fmt.Fprintf(w, "\n%s\n", t.Description)
	}
	if len(t.Subtasks) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("Subtasks"))
		taskTable(w, t.Subtasks)
	}
}

func styledStatus(status, text string) string {
	if style, ok := statusStyles[status]; ok {
		return style.Render(text)
	}
	return text
}

func formatPriority(p *float64) string {
	if p == nil {
		return "--"
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func messagef(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}
