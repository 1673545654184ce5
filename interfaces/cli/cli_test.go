package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"task-tracker/application/serviceimpl"
	"task-tracker/domain/dto"
	"task-tracker/infrastructure/memory"
	"task-tracker/infrastructure/storage"

	"go.yaml.in/yaml/v3"
)

// harness shares one in-memory store across command invocations.
type harness struct {
	t    *testing.T
	deps *Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	repo := memory.NewTaskRepository()
	store, err := storage.NewLocalStorage(storage.LocalStorageConfig{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	return &harness{
		t: t,
		deps: &Deps{
			Tasks:     serviceimpl.NewTaskService(repo, nil, nil),
			Snapshots: serviceimpl.NewSnapshotService(serviceimpl.SnapshotConfig{AppName: "taskctl"}, repo, store, nil),
		},
	}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()

	root := NewRootCommand(func(string) (*Deps, error) { return h.deps, nil })
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--no-color"}, args...))

	_, err := root.ExecuteC()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("taskctl %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func (h *harness) createJSON(args ...string) dto.TaskResponse {
	h.t.Helper()
	out := h.mustRun(append([]string{"create", "-o", "json"}, args...)...)
	var task dto.TaskResponse
	if err := json.Unmarshal([]byte(out), &task); err != nil {
		h.t.Fatalf("decode %q: %v", out, err)
	}
	return task
}

func errorCode(t *testing.T, err error) string {
	t.Helper()
	var cliErr *Error
	if !errors.As(err, &cliErr) {
		t.Fatalf("error %v is not a CLI error", err)
	}
	return cliErr.Code
}

func TestCreateAndShow(t *testing.T) {
	h := newHarness(t)

	task := h.createJSON("Plan trip", "--desc", "summer", "--priority", "2.5")
	if task.Title != "Plan trip" || task.Description != "summer" || task.Status != "todo" {
		t.Errorf("created = %+v", task)
	}
	if task.Priority == nil || *task.Priority != 2.5 {
		t.Errorf("priority = %v", task.Priority)
	}

	out := h.mustRun("show", task.ID)
	for _, want := range []string{"Plan trip", task.ID, "todo", "2.5", "summer"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestListTableShowsSubtasks(t *testing.T) {
	h := newHarness(t)

	parent := h.createJSON("--title", "Release")
	h.mustRun("subtask", parent.ID, "Write notes")
	h.mustRun("create", "Unrelated", "--priority", "9")

	out := h.mustRun("list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "ID") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[2], "└─ Write notes") {
		t.Errorf("subtask row = %q", lines[2])
	}

	out = h.mustRun("list", "--title", "RELEASE", "-o", "yaml")
	var tasks []dto.TaskResponse
	if err := yaml.Unmarshal([]byte(out), &tasks); err != nil {
		t.Fatalf("decode yaml: %v\n%s", err, out)
	}
	if len(tasks) != 1 || tasks[0].Title != "Release" || len(tasks[0].Subtasks) != 1 {
		t.Errorf("filtered = %+v", tasks)
	}
}

func TestCompleteLifecycle(t *testing.T) {
	h := newHarness(t)

	parent := h.createJSON("Ship")
	out := h.mustRun("subtask", parent.ID, "Test", "-o", "json")
	var child dto.TaskResponse
	if err := json.Unmarshal([]byte(out), &child); err != nil {
		t.Fatal(err)
	}

	_, err := h.run("complete", parent.ID)
	if code := errorCode(t, err); code != CodeInvalidState {
		t.Errorf("complete with open subtask: code = %s", code)
	}

	h.mustRun("complete", child.ID)
	out = h.mustRun("complete", parent.ID, "-o", "json")
	var done dto.TaskResponse
	if err := json.Unmarshal([]byte(out), &done); err != nil {
		t.Fatal(err)
	}
	if done.Status != "done" || done.CompletedAt == nil {
		t.Errorf("completed = %+v", done)
	}

	_, err = h.run("delete", parent.ID)
	if code := errorCode(t, err); code != CodeInvalidState {
		t.Errorf("delete done task: code = %s", code)
	}
}

func TestUpdateCommand(t *testing.T) {
	h := newHarness(t)
	task := h.createJSON("Draft", "--priority", "3")

	out := h.mustRun("update", task.ID, "--title", "Final", "--clear-priority", "-o", "json")
	var updated dto.TaskResponse
	if err := json.Unmarshal([]byte(out), &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Title != "Final" || updated.Priority != nil {
		t.Errorf("updated = %+v", updated)
	}

	_, err := h.run("update", task.ID, "--priority", "1", "--clear-priority")
	if code := errorCode(t, err); code != CodeValidation {
		t.Errorf("conflicting flags: code = %s", code)
	}
}

func TestCommandErrors(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing title", []string{"create"}, CodeValidation},
		{"bad priority", []string{"create", "x", "--priority", "high"}, CodeValidation},
		{"unknown task", []string{"show", "3f1b8a52-6a6e-4a0c-9d44-1f0f5b3f2a10"}, CodeNotFound},
		{"malformed id", []string{"delete", "nope"}, CodeNotFound},
		{"bad filter", []string{"list", "--priority-min", "abc"}, CodeValidation},
		{"bad output", []string{"list", "-o", "xml"}, CodeValidation},
		{"no event stream", []string{"events"}, CodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if code := errorCode(t, err); code != tt.code {
				t.Errorf("code = %s, want %s (%v)", code, tt.code, err)
			}
		})
	}
}

func TestExportCommand(t *testing.T) {
	h := newHarness(t)
	h.createJSON("Backup me")

	out := h.mustRun("export", "-o", "json")
	var result map[string]string
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(result["path"], "snapshots/taskctl-") {
		t.Errorf("path = %q", result["path"])
	}

	out = h.mustRun("export", "--list")
	if strings.TrimSpace(out) != result["path"] {
		t.Errorf("list = %q, want %q", out, result["path"])
	}

	out = h.mustRun("export", "--latest", "-o", "json")
	var snap dto.TaskSnapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Count != 1 || snap.Tasks[0].Title != "Backup me" {
		t.Errorf("latest = %+v", snap)
	}
}

func TestWriteJSONError(t *testing.T) {
	var buf bytes.Buffer
	writeJSONError(&buf, validationError("priority", "must be a number"))

	var env errorEnvelope
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Code != CodeValidation || env.Details["priority"] != "must be a number" {
		t.Errorf("envelope = %+v", env)
	}
	if (&Error{Code: CodeInternal}).ExitCode() != 2 || (&Error{Code: CodeNotFound}).ExitCode() != 1 {
		t.Error("unexpected exit codes")
	}
}
