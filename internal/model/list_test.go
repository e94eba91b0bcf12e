package model

import (
	"errors"
	"slices"
	"testing"
)

func newList(t *testing.T, n int) *TaskList {
	t.Helper()
	l, err := NewTaskList(nil)
	if err != nil {
		t.Fatalf("NewTaskList: %v", err)
	}
	for i := 1; i <= n; i++ {
		task, err := NewTask(i, "task")
		if err != nil {
			t.Fatalf("NewTask: %v", err)
		}
		if err := l.Add(task); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	return l
}

func mustGet(t *testing.T, l *TaskList, id int) *Task {
	t.Helper()
	task, err := l.Get(id)
	if err != nil {
		t.Fatalf("Get(%d): %v", id, err)
	}
	return task
}

func TestTaskListAddDuplicate(t *testing.T) {
	l := newList(t, 1)
	dup, _ := NewTask(1, "again")
	if err := l.Add(dup); !errors.Is(err, ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
	if got := l.NextID(); got != 2 {
		t.Errorf("NextID: got %d, want 2", got)
	}
}

func TestTaskListAddSubtaskReparents(t *testing.T) {
	l := newList(t, 3)
	if err := l.AddSubtask(1, 3); err != nil {
		t.Fatalf("AddSubtask: %v", err)
	}
	if err := l.AddSubtask(2, 3); err != nil {
		t.Fatalf("AddSubtask: %v", err)
	}
	if mustGet(t, l, 1).HasSubtask(3) {
		t.Error("task 3 still listed under its previous parent")
	}
	if !slices.Equal(mustGet(t, l, 2).Subtasks, []int{3}) {
		t.Errorf("Subtasks of 2: got %v, want [3]", mustGet(t, l, 2).Subtasks)
	}
	if pid, _ := mustGet(t, l, 3).ParentID(); pid != 2 {
		t.Errorf("Parent of 3: got %d, want 2", pid)
	}
}

func TestTaskListAddSubtaskRejectsCycles(t *testing.T) {
	l := newList(t, 3)
	if err := l.AddSubtask(1, 2); err != nil {
		t.Fatalf("AddSubtask: %v", err)
	}
	if err := l.AddSubtask(2, 3); err != nil {
		t.Fatalf("AddSubtask: %v", err)
	}

	tests := []struct {
		name          string
		parent, child int
	}{
		{"self", 2, 2},
		{"direct", 2, 1},
		{"transitive", 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.AddSubtask(tt.parent, tt.child)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("AddSubtask(%d, %d): got %v, want ErrValidation", tt.parent, tt.child, err)
			}
		})
	}
	if !slices.Equal(mustGet(t, l, 1).Subtasks, []int{2}) || !slices.Equal(mustGet(t, l, 2).Subtasks, []int{3}) {
		t.Error("rejected links changed the hierarchy")
	}
}

func TestTaskListAddSubtaskUnknownID(t *testing.T) {
	l := newList(t, 1)
	if err := l.AddSubtask(1, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestTaskListRemoveSubtaskClearsParent(t *testing.T) {
	l := newList(t, 2)
	_ = l.AddSubtask(1, 2)
	if err := l.RemoveSubtask(1, 2); err != nil {
		t.Fatalf("RemoveSubtask: %v", err)
	}
	if mustGet(t, l, 2).Parent != nil {
		t.Error("child still points at removed parent")
	}
	if err := l.RemoveSubtask(1, 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("second removal: got %v, want ErrNotFound", err)
	}
}

func TestTaskListDeleteCascades(t *testing.T) {
	l := newList(t, 4)
	_ = l.AddSubtask(1, 2)
	_ = l.AddSubtask(2, 3)
	_ = l.AddSubtask(2, 4)

	if _, err := l.Delete(2); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if mustGet(t, l, 1).HasSubtask(2) {
		t.Error("deleted id still listed under its parent")
	}
	for _, id := range []int{3, 4} {
		if mustGet(t, l, id).Parent != nil {
			t.Errorf("task %d not orphaned", id)
		}
	}
	if l.Len() != 3 {
		t.Errorf("Len: got %d, want 3", l.Len())
	}
	if _, err := l.Delete(2); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestNewTaskListFromRecordsKeepsDanglingIDs(t *testing.T) {
	l, err := NewTaskListFromRecords([]Record{
		{ID: 1, Name: "a", Subtasks: []int{99}},
		{ID: 2, Name: "b", Parent: ptr(77)},
	})
	if err != nil {
		t.Fatalf("NewTaskListFromRecords: %v", err)
	}
	if got := l.Records(); got[0].Subtasks[0] != 99 || *got[1].Parent != 77 {
		t.Errorf("dangling references not preserved: %+v", got)
	}

	_, err = NewTaskListFromRecords([]Record{{ID: 1, Name: "a"}, {ID: 1, Name: "b"}})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("duplicate ids: got %v, want ErrValidation", err)
	}
}

func TestTaskListDropsStaleSubtaskEntries(t *testing.T) {
	records := []Record{
		{ID: 1, Name: "recorded parent", Subtasks: []int{3}},
		{ID: 2, Name: "stale lister", Subtasks: []int{3}},
		{ID: 3, Name: "child", Parent: ptr(1)},
		{ID: 4, Name: "new parent"},
	}

	t.Run("reparent", func(t *testing.T) {
		l, err := NewTaskListFromRecords(records)
		if err != nil {
			t.Fatal(err)
		}
		if err := l.AddSubtask(4, 3); err != nil {
			t.Fatalf("AddSubtask: %v", err)
		}
		for _, id := range []int{1, 2} {
			if mustGet(t, l, id).HasSubtask(3) {
				t.Errorf("task %d still lists 3", id)
			}
		}
		if !slices.Equal(mustGet(t, l, 4).Subtasks, []int{3}) {
			t.Errorf("Subtasks of 4: got %v, want [3]", mustGet(t, l, 4).Subtasks)
		}
	})

	t.Run("delete", func(t *testing.T) {
		l, err := NewTaskListFromRecords(records)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := l.Delete(3); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		for _, id := range []int{1, 2} {
			if got := mustGet(t, l, id).Subtasks; len(got) != 0 {
				t.Errorf("Subtasks of %d: got %v, want []", id, got)
			}
		}
	})
}
