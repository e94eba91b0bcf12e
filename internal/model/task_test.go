package model

import (
	"errors"
	"regexp"
	"slices"
	"testing"
	"time"
)

func fixedNow(t *testing.T, ts time.Time) {
	t.Helper()
	orig := now
	now = func() time.Time { return ts }
	t.Cleanup(func() { now = orig })
}

func TestNewTaskDefaults(t *testing.T) {
	task, err := NewTask(1, "write report")
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	if task.Completed {
		t.Error("Completed: got true, want false")
	}
	if task.Parent != nil {
		t.Errorf("Parent: got %d, want nil", *task.Parent)
	}
	if task.Subtasks == nil || len(task.Subtasks) != 0 {
		t.Errorf("Subtasks: got %v, want empty slice", task.Subtasks)
	}
	if !regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`).MatchString(task.Created) {
		t.Errorf("Created: got %q, want YYYY-MM-DD HH:MM:SS", task.Created)
	}
}

func TestNewTaskCreatedComputedOnce(t *testing.T) {
	fixedNow(t, time.Date(2024, 3, 9, 7, 5, 1, 0, time.Local))
	task, err := NewTask(1, "a")
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	fixedNow(t, time.Date(2030, 1, 1, 0, 0, 0, 0, time.Local))
	if got := *task.ToRecord().Created; got != "2024-03-09 07:05:01" {
		t.Errorf("Created: got %q, want 2024-03-09 07:05:01", got)
	}
}

func TestNewTaskOptions(t *testing.T) {
	task, err := NewTask(7, "ship",
		WithDescription("release v2"),
		WithPriority(High),
		WithCreated("2024-01-01 10:00:00"),
		WithDue("friday"),
		WithCompleted(true),
	)
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	if *task.Description != "release v2" || *task.Priority != High || *task.Due != "friday" {
		t.Errorf("optional fields not applied: %+v", task)
	}
	if task.Created != "2024-01-01 10:00:00" || !task.Completed {
		t.Errorf("Created/Completed not applied: %+v", task)
	}
}

func TestNewTaskValidation(t *testing.T) {
	tests := []struct {
		name  string
		id    int
		title string
		field string
	}{
		{"zero id", 0, "a", "id"},
		{"negative id", -3, "a", "id"},
		{"empty name", 1, "", "name"},
		{"blank name", 1, "   ", "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTask(tt.id, tt.title)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("got %v, want ErrValidation", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("field: got %v, want %q", err, tt.field)
			}
		})
	}
}

func TestEditOmittedVsFalsy(t *testing.T) {
	task, _ := NewTask(1, "a", WithCompleted(true), WithDescription("keep"))

	if err := task.Edit(Edit{Name: Set("b")}); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if task.Name != "b" || !task.Completed || *task.Description != "keep" {
		t.Errorf("omitted fields changed: %+v", task)
	}

	if err := task.Edit(Edit{Completed: Set(false)}); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if task.Completed {
		t.Error("explicit Completed=false was ignored")
	}

	if err := task.Edit(Edit{Description: Set("")}); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if task.Description != nil {
		t.Errorf("Description: got %q, want nil", *task.Description)
	}
}

func TestEditRejectsEmptyName(t *testing.T) {
	task, _ := NewTask(1, "a")
	err := task.Edit(Edit{Name: Set(""), Completed: Set(true)})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
	if task.Name != "a" || task.Completed {
		t.Errorf("rejected edit mutated task: %+v", task)
	}
}

func TestAddRemoveSubtask(t *testing.T) {
	a, _ := NewTask(1, "a")
	b, _ := NewTask(2, "b")

	for range 2 {
		if err := a.AddSubtask(b); err != nil {
			t.Fatalf("AddSubtask: %v", err)
		}
	}
	if !slices.Equal(a.Subtasks, []int{2}) {
		t.Errorf("Subtasks: got %v, want [2]", a.Subtasks)
	}
	if pid, ok := b.ParentID(); !ok || pid != 1 {
		t.Errorf("Parent: got %v, want 1", b.Parent)
	}

	if err := a.RemoveSubtask(2); err != nil {
		t.Fatalf("RemoveSubtask: %v", err)
	}
	if a.HasSubtask(2) {
		t.Error("subtask 2 still listed")
	}

	err := a.RemoveSubtask(2)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ID != 2 {
		t.Errorf("NotFoundError.ID: got %v, want 2", err)
	}
}

func TestAddSubtaskRejectsSelf(t *testing.T) {
	a, _ := NewTask(1, "a")
	if err := a.AddSubtask(a); !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
	if a.Parent != nil || len(a.Subtasks) != 0 {
		t.Errorf("rejected link mutated task: %+v", a)
	}
}

func TestEditClearsPriority(t *testing.T) {
	task, _ := NewTask(1, "a", WithPriority(High))

	if err := task.Edit(Edit{Name: Set("b")}); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if task.Priority == nil || *task.Priority != High {
		t.Fatalf("omitted priority changed: %v", task.Priority)
	}

	low := Low
	if err := task.Edit(Edit{Priority: Set(&low)}); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	low = SuperHigh
	if *task.Priority != Low {
		t.Errorf("Priority aliases the edit value: got %v, want LOW", *task.Priority)
	}

	if err := task.Edit(Edit{Priority: Set[*Priority](nil)}); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if task.Priority != nil {
		t.Errorf("Priority: got %v, want nil", *task.Priority)
	}

	bad := Priority(7)
	if err := task.Edit(Edit{Priority: Set(&bad)}); !errors.Is(err, ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
}
