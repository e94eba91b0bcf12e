package model

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// CreatedLayout is the format of Task.Created.
const CreatedLayout = "2006-01-02 15:04:05"

// now is replaced in tests.
var now = time.Now

// Task represents a single unit of work. Parent and Subtasks hold ids,
// never pointers to other tasks; TaskList resolves them.
type Task struct {
	ID          int
	Name        string
	Description *string
	Priority    *Priority
	Created     string
	Due         *string
	Completed   bool
	Subtasks    []int
	Parent      *int
}

// Option configures optional fields in NewTask.
type Option func(*Task)

func WithDescription(desc string) Option {
	return func(t *Task) { t.Description = optString(desc) }
}

func WithPriority(p Priority) Option {
	return func(t *Task) { t.Priority = &p }
}

// WithCreated overrides the construction timestamp.
func WithCreated(created string) Option {
	return func(t *Task) { t.Created = created }
}

func WithDue(due string) Option {
	return func(t *Task) { t.Due = optString(due) }
}

func WithCompleted(done bool) Option {
	return func(t *Task) { t.Completed = done }
}

// NewTask creates a top-level task with no subtasks. Created is stamped with
// the local time unless WithCreated supplies it.
func NewTask(id int, name string, opts ...Option) (*Task, error) {
	t := &Task{ID: id, Name: name, Subtasks: []int{}}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	if t.Created == "" {
		t.Created = now().Format(CreatedLayout)
	}
	return t, nil
}

func (t *Task) validate() error {
	if t.ID <= 0 {
		return invalid("id", "must be positive, got %d", t.ID)
	}
	if strings.TrimSpace(t.Name) == "" {
		return invalid("name", "must not be empty")
	}
	if t.Priority != nil && !t.Priority.Valid() {
		return invalid("priority", "unknown ordinal %d", int(*t.Priority))
	}
	seen := make(map[int]bool, len(t.Subtasks))
	for _, id := range t.Subtasks {
		if seen[id] {
			return invalid("subtasks", "id %d listed twice", id)
		}
		seen[id] = true
	}
	return nil
}

// Opt is an optional edit value. The zero Opt is unset, so an explicit
// Set(false) or Set("") is distinguishable from an omitted field.
type Opt[T any] struct {
	value T
	set   bool
}

// Set returns an Opt carrying v.
func Set[T any](v T) Opt[T] {
	return Opt[T]{value: v, set: true}
}

// Get returns the value and whether it was supplied.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.set
}

// Edit lists the fields to overwrite. Setting Description or Due to the
// empty string, or Priority to nil, clears it.
type Edit struct {
	Name        Opt[string]
	Description Opt[string]
	Priority    Opt[*Priority]
	Due         Opt[string]
	Completed   Opt[bool]
}

// Edit overwrites every supplied field and leaves the rest unchanged. The
// task is untouched when the edit is rejected.
func (t *Task) Edit(e Edit) error {
	if name, ok := e.Name.Get(); ok && strings.TrimSpace(name) == "" {
		return invalid("name", "must not be empty")
	}
	if p, ok := e.Priority.Get(); ok && p != nil && !p.Valid() {
		return invalid("priority", "unknown ordinal %d", int(*p))
	}

	if name, ok := e.Name.Get(); ok {
		t.Name = name
	}
	if desc, ok := e.Description.Get(); ok {
		t.Description = optString(desc)
	}
	if p, ok := e.Priority.Get(); ok {
		t.Priority = clonePtr(p)
	}
	if due, ok := e.Due.Get(); ok {
		t.Due = optString(due)
	}
	if done, ok := e.Completed.Get(); ok {
		t.Completed = done
	}
	return nil
}

// AddSubtask appends child's id and points child at t. It rejects t itself
// but does not detach child from a previous parent or check for longer
// cycles; TaskList.AddSubtask does both.
func (t *Task) AddSubtask(child *Task) error {
	if child.ID == t.ID {
		return invalid("parent", "task %d cannot be its own subtask", t.ID)
	}
	if !t.HasSubtask(child.ID) {
		t.Subtasks = append(t.Subtasks, child.ID)
	}
	id := t.ID
	child.Parent = &id
	return nil
}

// RemoveSubtask drops childID from the subtask list. The child's Parent is
// left as is.
func (t *Task) RemoveSubtask(childID int) error {
	i := slices.Index(t.Subtasks, childID)
	if i < 0 {
		return &NotFoundError{ID: childID, What: "subtasks of task " + strconv.Itoa(t.ID)}
	}
	t.Subtasks = slices.Delete(t.Subtasks, i, i+1)
	return nil
}

// HasSubtask reports whether id is listed in t.Subtasks.
func (t *Task) HasSubtask(id int) bool {
	return slices.Contains(t.Subtasks, id)
}

// ParentID returns the parent id and whether one is set.
func (t *Task) ParentID() (int, bool) {
	if t.Parent == nil {
		return 0, false
	}
	return *t.Parent, true
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	c := *t
	c.Description = clonePtr(t.Description)
	c.Priority = clonePtr(t.Priority)
	c.Due = clonePtr(t.Due)
	c.Parent = clonePtr(t.Parent)
	c.Subtasks = slices.Clone(t.Subtasks)
	if c.Subtasks == nil {
		c.Subtasks = []int{}
	}
	return &c
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
