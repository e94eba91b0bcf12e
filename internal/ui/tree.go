package ui

import "github.com/nissyi-gh/pls/internal/model"

// TreeRow is a task with the tree-drawing prefix (├─, └─, │) for its depth.
type TreeRow struct {
	Task   model.Task
	Prefix string
}

// BuildTree orders a flat task list depth-first under its roots. Tasks whose
// parent is missing from the list are treated as roots, and tasks caught in
// a parent loop are appended at the end without a prefix.
func BuildTree(tasks []model.Task) []TreeRow {
	known := make(map[int]bool, len(tasks))
	for _, t := range tasks {
		known[t.ID] = true
	}

	children := make(map[int][]model.Task)
	var roots []model.Task
	for _, t := range tasks {
		if pid, ok := t.ParentID(); ok && known[pid] && pid != t.ID {
			children[pid] = append(children[pid], t)
		} else {
			roots = append(roots, t)
		}
	}

	var rows []TreeRow
	visited := make(map[int]bool, len(tasks))
	var dfs func(task model.Task, ancestors []bool)
	dfs = func(task model.Task, ancestors []bool) {
		if visited[task.ID] {
			return
		}
		visited[task.ID] = true

		depth := len(ancestors)
		var prefix string
		if depth > 0 {
			for _, hasSibling := range ancestors[:depth-1] {
				if hasSibling {
					prefix += "│  "
				} else {
					prefix += "   "
				}
			}
			if ancestors[depth-1] {
				prefix += "├─ "
			} else {
				prefix += "└─ "
			}
		}

		rows = append(rows, TreeRow{Task: task, Prefix: prefix})
		kids := children[task.ID]
		for idx, child := range kids {
			isLast := idx == len(kids)-1
			dfs(child, append(ancestors[:depth:depth], !isLast))
		}
	}

	for _, root := range roots {
		dfs(root, nil)
	}
	for _, t := range tasks {
		if !visited[t.ID] {
			dfs(t, nil)
		}
	}
	return rows
}
