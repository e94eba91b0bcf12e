package store

import (
	"database/sql"
	"io"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/nissyi-gh/pls/internal/model"
)

func openTestStore(t *testing.T, path string) *TaskStore {
	t.Helper()
	s, err := NewTaskStore(path, log.New(io.Discard))
	if err != nil {
		t.Fatalf("NewTaskStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr[T any](v T) *T { return &v }

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pls.db")
	s := openTestStore(t, path)

	records := []model.Record{
		{ID: 3, Name: "parent", Created: ptr("2024-01-01 09:00:00"), Priority: ptr(model.High), Subtasks: []int{1, 2}},
		{ID: 1, Name: "first", Created: ptr("2024-01-01 09:01:00"), Description: ptr("desc"), Completed: true, Subtasks: []int{}, Parent: ptr(3)},
		{ID: 2, Name: "second", Created: ptr("2024-01-01 09:02:00"), Due: ptr("tomorrow"), Subtasks: []int{}, Parent: ptr(3)},
		{ID: 9, Name: "orphan", Created: ptr("2024-01-01 09:03:00"), Subtasks: []int{}, Parent: ptr(77)},
	}
	list, err := model.NewTaskListFromRecords(records)
	if err != nil {
		t.Fatalf("NewTaskListFromRecords: %v", err)
	}
	if err := s.Save(list); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := loaded.Records(); !reflect.DeepEqual(got, records) {
		t.Errorf("Load:\n got %+v\nwant %+v", got, records)
	}
}

func TestSaveReplacesPreviousContents(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "pls.db"))

	first, _ := model.NewTaskListFromRecords([]model.Record{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}})
	if err := s.Save(first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := first.Delete(1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Save(first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Len() != 1 {
		t.Errorf("Len: got %d, want 1", loaded.Len())
	}
}

func TestSaveRejectsRepeatedSubtask(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "pls.db"))

	good, _ := model.NewTaskListFromRecords([]model.Record{{ID: 1, Name: "a"}, {ID: 2, Name: "b", Parent: ptr(1)}})
	if err := s.Save(good); err != nil {
		t.Fatalf("Save: %v", err)
	}

	bad, _ := model.NewTaskListFromRecords([]model.Record{{ID: 1, Name: "a"}, {ID: 2, Name: "b", Parent: ptr(1)}})
	parent, _ := bad.Get(1)
	parent.Subtasks = []int{2, 2}
	if err := s.Save(bad); err == nil {
		t.Fatal("Save accepted a repeated subtask id")
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := loaded.Records(); len(got) != 2 || len(got[0].Subtasks) != 0 {
		t.Errorf("failed save changed stored tasks: %+v", got)
	}
}

func TestNewTaskStoreMigratesOldSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	_, err = db.Exec(`CREATE TABLE tasks (
		id INTEGER PRIMARY KEY, name TEXT NOT NULL, description TEXT,
		created TEXT NOT NULL, completed INTEGER NOT NULL DEFAULT 0,
		parent_id INTEGER, position INTEGER NOT NULL DEFAULT 0
	); INSERT INTO tasks (id, name, created) VALUES (1, 'legacy', '2020-01-01 00:00:00')`)
	if err != nil {
		t.Fatal(err)
	}
	db.Close()

	s := openTestStore(t, path)
	list, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	task, err := list.Get(1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if task.Priority != nil || task.Due != nil {
		t.Errorf("migrated columns should be NULL: %+v", task)
	}
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()
	got, err := DefaultDBPath(func(key string) string {
		if key == "XDG_DATA_HOME" {
			return dir
		}
		return ""
	})
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if want := filepath.Join(dir, "pls", "pls.db"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
