package model

import "slices"

// Record is the flat, serialization-ready form of a Task. Absent optionals
// encode as explicit nulls and Subtasks is always an array.
type Record struct {
	ID          int       `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description *string   `json:"description" yaml:"description"`
	Priority    *Priority `json:"priority" yaml:"priority"`
	Created     *string   `json:"created" yaml:"created"`
	Due         *string   `json:"due" yaml:"due"`
	Completed   bool      `json:"completed" yaml:"completed"`
	Subtasks    []int     `json:"subtasks" yaml:"subtasks"`
	Parent      *int      `json:"parent" yaml:"parent"`
}

// ToRecord returns the Record for t. The result shares no memory with t.
func (t *Task) ToRecord() Record {
	subtasks := slices.Clone(t.Subtasks)
	if subtasks == nil {
		subtasks = []int{}
	}
	var created *string
	if t.Created != "" {
		created = clonePtr(&t.Created)
	}
	return Record{
		ID:          t.ID,
		Name:        t.Name,
		Description: clonePtr(t.Description),
		Priority:    clonePtr(t.Priority),
		Created:     created,
		Due:         clonePtr(t.Due),
		Completed:   t.Completed,
		Subtasks:    subtasks,
		Parent:      clonePtr(t.Parent),
	}
}

// FromRecord rebuilds a Task, defaulting missing fields. A record without
// a created timestamp is stamped with the current time.
func FromRecord(r Record) (*Task, error) {
	t := &Task{
		ID:          r.ID,
		Name:        r.Name,
		Description: clonePtr(r.Description),
		Priority:    clonePtr(r.Priority),
		Due:         clonePtr(r.Due),
		Completed:   r.Completed,
		Subtasks:    slices.Clone(r.Subtasks),
		Parent:      clonePtr(r.Parent),
	}
	if t.Subtasks == nil {
		t.Subtasks = []int{}
	}
	if r.Created != nil {
		t.Created = *r.Created
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	if t.Created == "" {
		t.Created = now().Format(CreatedLayout)
	}
	return t, nil
}
