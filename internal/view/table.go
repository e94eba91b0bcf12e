// Package view turns a flat task list into a styled, render-ready table.
package view

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/nissyi-gh/pls/internal/config"
	"github.com/nissyi-gh/pls/internal/model"
)

// Fixed colors that do not follow the row palette.
const (
	StatusDoneColor    = "#61E294"
	StatusPendingColor = "#f2b3bb"
	NoneColor          = "#a0a0a0"
)

const (
	doneGlyph    = "✓"
	pendingGlyph = "✗"
	noneText     = "None"
)

// Headers are the column titles, in order.
var Headers = []string{"ID", "Name", "Description", "Status", "Priority", "Created", "Due", "Subtasks", "Parent"}

// Column indexes into a row.
const (
	ColID = iota
	ColName
	ColDescription
	ColStatus
	ColPriority
	ColCreated
	ColDue
	ColSubtasks
	ColParent
)

// Cell is one styled table cell.
type Cell struct {
	Text  string
	Color string
}

// Table is the render-ready projection of a task list. Rows follow the
// input order.
type Table struct {
	Headers     []string
	Rows        [][]Cell
	HeaderColor string
}

// NewTaskTable builds the table for tasks. It never fails: ids that do not
// resolve are shown as stored and simply match nothing.
func NewTaskTable(tasks []model.Task, style config.Style) *Table {
	doneChildren := make(map[int]int)
	for _, t := range tasks {
		if pid, ok := t.ParentID(); ok && t.Completed {
			doneChildren[pid]++
		}
	}

	rows := make([][]Cell, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, buildRow(t, doneChildren[t.ID], style))
	}
	return &Table{
		Headers:     append([]string(nil), Headers...),
		Rows:        rows,
		HeaderColor: style.TableHeader,
	}
}

func buildRow(t model.Task, doneChildren int, style config.Style) []Cell {
	color := style.TaskPending
	status := Cell{Text: pendingGlyph, Color: StatusPendingColor}
	total := len(t.Subtasks)
	done := doneChildren
	if t.Completed {
		color = style.TaskDone
		status = Cell{Text: doneGlyph, Color: StatusDoneColor}
		// Completed parents always read as fully done, whatever their
		// children say.
		done = total
	}

	cell := func(text string) Cell { return Cell{Text: text, Color: color} }

	priority := noneText
	if t.Priority != nil {
		priority = t.Priority.String()
	}
	parent := Cell{Text: noneText, Color: NoneColor}
	if pid, ok := t.ParentID(); ok {
		parent = cell(strconv.Itoa(pid))
	}

	row := make([]Cell, len(Headers))
	row[ColID] = cell(strconv.Itoa(t.ID))
	row[ColName] = cell(t.Name)
	row[ColDescription] = cell(orNone(t.Description))
	row[ColStatus] = status
	row[ColPriority] = cell(priority)
	row[ColCreated] = cell(t.Created)
	row[ColDue] = cell(orNone(t.Due))
	row[ColSubtasks] = cell(strconv.Itoa(done) + "/" + strconv.Itoa(total))
	row[ColParent] = parent
	return row
}

func orNone(s *string) string {
	if s == nil {
		return noneText
	}
	return *s
}

// Texts returns the plain cell text of every row.
func (t *Table) Texts() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		texts := make([]string, len(row))
		for j, c := range row {
			texts[j] = c.Text
		}
		out[i] = texts
	}
	return out
}

// Render draws the table and centers it in width columns. A width of zero
// or less skips centering.
func (t *Table) Render(width int) string {
	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.HeaderColor)).
		Bold(true).
		Padding(0, 1).
		Align(lipgloss.Center)
	base := lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Center)

	tbl := table.New().
		Border(lipgloss.ThickBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(t.HeaderColor))).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(true).
		Headers(t.Headers...).
		Rows(t.Texts()...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			if row < 0 || row >= len(t.Rows) || col >= len(t.Rows[row]) {
				return base
			}
			return base.Foreground(lipgloss.Color(t.Rows[row][col].Color))
		})

	out := tbl.Render()
	if width <= 0 {
		return out
	}
	if lipgloss.Width(out) > width {
		out = tbl.Width(width).Render()
	}
	return Center(out, width)
}

// Center pads every line of s so the block sits in the middle of width
// columns.
func Center(s string, width int) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, s)
}
