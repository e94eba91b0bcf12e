package model

import (
	"fmt"
	"slices"
)

// TaskList owns a flat, ordered set of tasks keyed by id. Every mutation
// that touches both ends of a parent/child link goes through it so the two
// directions stay consistent.
type TaskList struct {
	order []int
	byID  map[int]*Task
}

// NewTaskList builds a list from tasks in the given order. Dangling parent
// or subtask ids are kept as they are.
func NewTaskList(tasks []*Task) (*TaskList, error) {
	l := &TaskList{byID: make(map[int]*Task, len(tasks))}
	for _, t := range tasks {
		if err := l.Add(t); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// NewTaskListFromRecords decodes each record and builds a list from them.
func NewTaskListFromRecords(records []Record) (*TaskList, error) {
	tasks := make([]*Task, 0, len(records))
	for i, r := range records {
		t, err := FromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		tasks = append(tasks, t)
	}
	return NewTaskList(tasks)
}

// Len returns the number of tasks.
func (l *TaskList) Len() int {
	return len(l.order)
}

// Tasks returns the tasks in list order. The pointers are live.
func (l *TaskList) Tasks() []*Task {
	out := make([]*Task, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.byID[id])
	}
	return out
}

// Snapshot returns deep copies of the tasks in list order.
func (l *TaskList) Snapshot() []Task {
	out := make([]Task, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.byID[id].Clone())
	}
	return out
}

// Records returns the Record of every task in list order.
func (l *TaskList) Records() []Record {
	out := make([]Record, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.byID[id].ToRecord())
	}
	return out
}

// Get returns the task with the given id.
func (l *TaskList) Get(id int) (*Task, error) {
	t, ok := l.byID[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return t, nil
}

// Add appends t. Ids must be unique.
func (l *TaskList) Add(t *Task) error {
	if err := t.validate(); err != nil {
		return err
	}
	if _, ok := l.byID[t.ID]; ok {
		return invalid("id", "duplicate task id %d", t.ID)
	}
	if t.Subtasks == nil {
		t.Subtasks = []int{}
	}
	l.byID[t.ID] = t
	l.order = append(l.order, t.ID)
	return nil
}

// NextID returns an id one greater than the largest in use.
func (l *TaskList) NextID() int {
	next := 1
	for _, id := range l.order {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

// Edit applies e to the task with the given id.
func (l *TaskList) Edit(id int, e Edit) error {
	t, err := l.Get(id)
	if err != nil {
		return err
	}
	return t.Edit(e)
}

// AddSubtask makes childID a subtask of parentID. The child is detached from
// every other task that lists it first. Links that would make a task its own
// ancestor are rejected.
func (l *TaskList) AddSubtask(parentID, childID int) error {
	parent, err := l.Get(parentID)
	if err != nil {
		return err
	}
	child, err := l.Get(childID)
	if err != nil {
		return err
	}
	if parentID == childID {
		return invalid("parent", "task %d cannot be its own subtask", childID)
	}
	if l.isAncestor(childID, parentID) {
		return invalid("parent", "task %d is an ancestor of task %d", childID, parentID)
	}

	l.unlist(childID, parentID)
	return parent.AddSubtask(child)
}

// RemoveSubtask unlinks childID from parentID and clears the child's parent
// when it still points at parentID.
func (l *TaskList) RemoveSubtask(parentID, childID int) error {
	parent, err := l.Get(parentID)
	if err != nil {
		return err
	}
	if err := parent.RemoveSubtask(childID); err != nil {
		return err
	}
	if child, ok := l.byID[childID]; ok {
		if pid, ok := child.ParentID(); ok && pid == parentID {
			child.Parent = nil
		}
	}
	return nil
}

// Delete removes the task, unlinks it from every task that lists it and
// orphans its children. It returns the removed task.
func (l *TaskList) Delete(id int) (*Task, error) {
	t, err := l.Get(id)
	if err != nil {
		return nil, err
	}
	l.unlist(id, 0)
	for _, child := range l.Children(id) {
		child.Parent = nil
	}
	delete(l.byID, id)
	l.order = slices.DeleteFunc(l.order, func(v int) bool { return v == id })
	return t, nil
}

// unlist drops id from the Subtasks of every task except keep. Besides the
// recorded parent this catches stale entries left by restored or legacy data.
func (l *TaskList) unlist(id, keep int) {
	for _, tid := range l.order {
		if tid == keep {
			continue
		}
		t := l.byID[tid]
		t.Subtasks = slices.DeleteFunc(t.Subtasks, func(v int) bool { return v == id })
	}
}

// Children returns the tasks whose Parent is id, in list order. Unlike
// Subtasks this also finds children the parent does not list.
func (l *TaskList) Children(id int) []*Task {
	var out []*Task
	for _, cid := range l.order {
		c := l.byID[cid]
		if pid, ok := c.ParentID(); ok && pid == id {
			out = append(out, c)
		}
	}
	return out
}

// isAncestor reports whether candidate appears on the parent chain of id.
// The walk stops at dangling ids and at loops already present in the data.
func (l *TaskList) isAncestor(candidate, id int) bool {
	seen := map[int]bool{}
	cur, ok := l.byID[id]
	for ok && !seen[cur.ID] {
		seen[cur.ID] = true
		pid, has := cur.ParentID()
		if !has {
			return false
		}
		if pid == candidate {
			return true
		}
		cur, ok = l.byID[pid]
	}
	return false
}
