package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nissyi-gh/pls/internal/config"
	"github.com/nissyi-gh/pls/internal/model"
)

type memStore struct {
	list  *model.TaskList
	saves int
	err   error
}

func (s *memStore) Load() (*model.TaskList, error) {
	return s.list, nil
}

func (s *memStore) Save(l *model.TaskList) error {
	if s.err != nil {
		return s.err
	}
	s.saves++
	s.list = l
	return nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T) (Model, *memStore) {
	t.Helper()
	list, err := model.NewTaskListFromRecords([]model.Record{
		{ID: 1, Name: "parent", Subtasks: []int{2}},
		{ID: 2, Name: "child", Parent: intp(1)},
	})
	if err != nil {
		t.Fatal(err)
	}
	s := &memStore{list: list}
	m := NewModel(s, config.DefaultStyle())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	next, _ = next.Update(m.loadTasks())
	return next.(Model), s
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	var next tea.Model = m
	for _, msg := range msgs {
		next, _ = next.Update(msg)
	}
	return next.(Model)
}

func TestToggleSavesCompletion(t *testing.T) {
	m, s := newTestModel(t)
	m = send(t, m, runes("x"))

	task, _ := s.list.Get(1)
	if !task.Completed {
		t.Error("task 1 not marked completed")
	}
	if s.saves != 1 {
		t.Errorf("saves: got %d, want 1", s.saves)
	}
	if !strings.Contains(m.View(), "toggled task 1") {
		t.Errorf("status missing from view:\n%s", m.View())
	}
}

func TestAddSubtaskThroughInput(t *testing.T) {
	m, s := newTestModel(t)
	m = send(t, m, runes("s"), runes("new"), tea.KeyMsg{Type: tea.KeyEnter})

	parent, _ := s.list.Get(1)
	if len(parent.Subtasks) != 2 || parent.Subtasks[1] != 3 {
		t.Fatalf("parent subtasks: got %v, want [2 3]", parent.Subtasks)
	}
	child, err := s.list.Get(3)
	if err != nil || child.Name != "new" {
		t.Errorf("new task: got %+v, %v", child, err)
	}
	if m.state != stateTable {
		t.Errorf("state: got %v, want table", m.state)
	}
}

func TestDeleteAfterConfirm(t *testing.T) {
	m, s := newTestModel(t)
	m = send(t, m, runes("d"))
	if !strings.Contains(m.View(), "Delete Task?") {
		t.Fatalf("confirm view not shown:\n%s", m.View())
	}
	send(t, m, runes("y"))

	if _, err := s.list.Get(1); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("task 1 still present: %v", err)
	}
	child, _ := s.list.Get(2)
	if child.Parent != nil {
		t.Error("child of deleted task was not orphaned")
	}
}

func TestCopyPrompt(t *testing.T) {
	m, _ := newTestModel(t)
	var copied string
	m.copy = func(s string) error { copied = s; return nil }
	send(t, m, runes("y"))

	if !strings.Contains(copied, "- Name: parent") || !strings.Contains(copied, "- child (pending)") {
		t.Errorf("copied prompt:\n%s", copied)
	}
}

func TestSaveFailureIsShown(t *testing.T) {
	m, s := newTestModel(t)
	s.err = errors.New("disk full")
	m = send(t, m, runes("x"))
	if !strings.Contains(m.View(), "disk full") {
		t.Errorf("error missing from view:\n%s", m.View())
	}
}

func TestTreeModePrefixesNames(t *testing.T) {
	m, _ := newTestModel(t)
	m = send(t, m, runes("v"))
	if !strings.Contains(m.View(), "└─ child") {
		t.Errorf("tree prefix missing:\n%s", m.View())
	}
}
