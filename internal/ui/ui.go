package ui

import (
	"fmt"
	"strconv"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nissyi-gh/pls/internal/config"
	"github.com/nissyi-gh/pls/internal/model"
	"github.com/nissyi-gh/pls/internal/prompt"
	"github.com/nissyi-gh/pls/internal/view"
)

type appState int

const (
	stateTable appState = iota
	stateAdd
	stateConfirm
	stateEditDue
	stateEditDesc
)

var (
	appStyle     = lipgloss.NewStyle().Padding(1, 2)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	confirmStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
)

// Store is the persistence the browser needs.
type Store interface {
	Load() (*model.TaskList, error)
	Save(*model.TaskList) error
}

type keyMap struct {
	Add      key.Binding
	SubAdd   key.Binding
	Toggle   key.Binding
	Delete   key.Binding
	EditDesc key.Binding
	EditDue  key.Binding
	Tree     key.Binding
	Copy     key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Add: key.NewBinding(
			key.WithKeys("a", "n"),
			key.WithHelp("a/n", "add"),
		),
		SubAdd: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sub-task"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", "x"),
			key.WithHelp("enter/x", "toggle"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		EditDesc: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit desc"),
		),
		EditDue: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "due"),
		),
		Tree: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "tree view"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy prompt"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.SubAdd, k.Toggle, k.Delete, k.EditDesc, k.EditDue, k.Tree, k.Copy, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// Model is the top-level BubbleTea model for the task browser.
type Model struct {
	state       appState
	table       table.Model
	input       textinput.Model
	help        help.Model
	store       Store
	list        *model.TaskList
	style       config.Style
	keys        keyMap
	rowIDs      []int
	treeMode    bool
	addParentID *int
	editTaskID  int
	copy        func(string) error
	status      string
	err         error
	width       int
	height      int
}

type tasksLoadedMsg struct{ list *model.TaskList }
type errMsg struct{ error }

// NewModel creates a new browser model.
func NewModel(s Store, style config.Style) Model {
	ti := textinput.New()
	ti.CharLimit = 256

	t := table.New(table.WithFocused(true))
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		Foreground(lipgloss.Color(style.TableHeader)).
		BorderStyle(lipgloss.ThickBorder()).
		BorderBottom(true).
		Bold(true)
	ts.Selected = ts.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color(style.TaskPending))
	t.SetStyles(ts)

	return Model{
		state: stateTable,
		table: t,
		input: ti,
		help:  help.New(),
		store: s,
		style: style,
		keys:  newKeyMap(),
		copy:  clipboard.WriteAll,
	}
}

func (m Model) Init() tea.Cmd {
	return m.loadTasks
}

func (m Model) loadTasks() tea.Msg {
	list, err := m.store.Load()
	if err != nil {
		return errMsg{err}
	}
	return tasksLoadedMsg{list}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h, v := appStyle.GetFrameSize()
		m.table.SetWidth(msg.Width - h)
		m.table.SetHeight(max(msg.Height-v-4, 3))
		m.help.Width = msg.Width - h
		return m, nil

	case tasksLoadedMsg:
		m.list = msg.list
		m.refresh()
		m.err = nil
		return m, nil

	case errMsg:
		m.err = msg.error
		return m, nil
	}

	switch m.state {
	case stateTable:
		return m.updateTable(msg)
	case stateAdd, stateEditDue, stateEditDesc:
		return m.updateInput(msg)
	case stateConfirm:
		return m.updateConfirm(msg)
	}

	return m, nil
}

// refresh rebuilds the table rows from the current list.
func (m *Model) refresh() {
	if m.list == nil {
		return
	}
	tasks := m.list.Snapshot()
	prefixes := make([]string, len(tasks))
	if m.treeMode {
		rows := BuildTree(tasks)
		tasks = tasks[:0]
		for i, r := range rows {
			tasks = append(tasks, r.Task)
			prefixes[i] = r.Prefix
		}
	}

	tbl := view.NewTaskTable(tasks, m.style)
	widths := make([]int, len(tbl.Headers))
	for i, h := range tbl.Headers {
		widths[i] = lipgloss.Width(h)
	}
	rows := make([]table.Row, len(tbl.Rows))
	m.rowIDs = make([]int, len(tasks))
	for i, texts := range tbl.Texts() {
		texts[view.ColName] = prefixes[i] + texts[view.ColName]
		for j, s := range texts {
			widths[j] = max(widths[j], lipgloss.Width(s))
		}
		rows[i] = table.Row(texts)
		m.rowIDs[i] = tasks[i].ID
	}

	cols := make([]table.Column, len(tbl.Headers))
	for i, h := range tbl.Headers {
		cols[i] = table.Column{Title: h, Width: widths[i]}
	}
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m Model) selectedID() (int, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rowIDs) {
		return 0, false
	}
	return m.rowIDs[i], true
}

// save persists the list and redraws; a failed save reloads from the store.
func (m Model) save(status string) (tea.Model, tea.Cmd) {
	if err := m.store.Save(m.list); err != nil {
		m.err = err
		return m, m.loadTasks
	}
	m.status = status
	m.err = nil
	m.refresh()
	return m, nil
}

func (m Model) updateTable(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.list == nil {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	switch keyMsg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "a", "n":
		return m.startInput(stateAdd, nil, "Task name...", "")
	case "v":
		m.treeMode = !m.treeMode
		m.refresh()
		return m, nil
	}

	id, ok := m.selectedID()
	if !ok {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	task, err := m.list.Get(id)
	if err != nil {
		m.err = err
		return m, nil
	}

	switch keyMsg.String() {
	case "s":
		return m.startInput(stateAdd, &id, "Sub-task name...", "")
	case "enter", "x":
		if err := m.list.Edit(id, model.Edit{Completed: model.Set(!task.Completed)}); err != nil {
			m.err = err
			return m, nil
		}
		return m.save(fmt.Sprintf("toggled task %d", id))
	case "e":
		m.editTaskID = id
		return m.startInput(stateEditDesc, nil, "Description...", deref(task.Description))
	case "D":
		m.editTaskID = id
		return m.startInput(stateEditDue, nil, "Due...", deref(task.Due))
	case "d":
		m.state = stateConfirm
		return m, nil
	case "y":
		var children []model.Task
		for _, c := range m.list.Children(id) {
			children = append(children, *c)
		}
		if err := m.copy(prompt.GenerateFromTask(*task, children)); err != nil {
			m.err = fmt.Errorf("copy prompt: %w", err)
			return m, nil
		}
		m.status = fmt.Sprintf("copied breakdown prompt for task %d", id)
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) startInput(state appState, parentID *int, placeholder, value string) (tea.Model, tea.Cmd) {
	m.state = state
	m.addParentID = parentID
	m.input.Reset()
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.table.Blur()
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			val := m.input.Value()
			state := m.state
			m.state = stateTable
			m.input.Blur()
			m.table.Focus()
			switch state {
			case stateAdd:
				return m.addTask(val)
			case stateEditDesc:
				if err := m.list.Edit(m.editTaskID, model.Edit{Description: model.Set(val)}); err != nil {
					m.err = err
					return m, nil
				}
				return m.save(fmt.Sprintf("updated task %d", m.editTaskID))
			case stateEditDue:
				if err := m.list.Edit(m.editTaskID, model.Edit{Due: model.Set(val)}); err != nil {
					m.err = err
					return m, nil
				}
				return m.save(fmt.Sprintf("updated task %d", m.editTaskID))
			}
			return m, nil
		case "esc":
			m.state = stateTable
			m.addParentID = nil
			m.input.Blur()
			m.table.Focus()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) addTask(name string) (tea.Model, tea.Cmd) {
	parentID := m.addParentID
	m.addParentID = nil
	if name == "" {
		return m, nil
	}
	task, err := model.NewTask(m.list.NextID(), name)
	if err != nil {
		m.err = err
		return m, nil
	}
	if err := m.list.Add(task); err != nil {
		m.err = err
		return m, nil
	}
	if parentID != nil {
		if err := m.list.AddSubtask(*parentID, task.ID); err != nil {
			m.err = err
			return m, m.loadTasks
		}
	}
	return m.save("added task " + strconv.Itoa(task.ID))
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "y":
			m.state = stateTable
			if id, ok := m.selectedID(); ok {
				if _, err := m.list.Delete(id); err != nil {
					m.err = err
					return m, nil
				}
				return m.save(fmt.Sprintf("deleted task %d", id))
			}
			return m, nil
		case "n", "esc":
			m.state = stateTable
			return m, nil
		}
	}
	return m, nil
}

func (m Model) View() string {
	var errView string
	if m.err != nil {
		errView = "\n" + errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	switch m.state {
	case stateAdd:
		header := "New Task"
		if m.addParentID != nil {
			header = fmt.Sprintf("New Sub-task of %d", *m.addParentID)
		}
		return m.inputView(header, errView)
	case stateEditDesc:
		return m.inputView(fmt.Sprintf("Description of %d", m.editTaskID), errView)
	case stateEditDue:
		return m.inputView(fmt.Sprintf("Due of %d", m.editTaskID), errView)
	case stateConfirm:
		id, _ := m.selectedID()
		msg := fmt.Sprintf("task %d", id)
		if task, err := m.list.Get(id); err == nil {
			msg = task.Name
			if len(task.Subtasks) > 0 {
				msg += fmt.Sprintf("\n  (its %d subtasks become top-level tasks)", len(task.Subtasks))
			}
		}
		return appStyle.Render(
			confirmStyle.Render("Delete Task?") + "\n\n" +
				"  " + msg + "\n\n" +
				statusStyle.Render("y: delete • n/esc: cancel") +
				errView,
		)
	default:
		var tasks []model.Task
		if m.list != nil {
			tasks = m.list.Snapshot()
		}
		content := view.PendingMessage(tasks, m.style) + "\n\n" +
			m.table.View() + "\n" +
			statusStyle.Render(m.status) + "\n" +
			m.help.View(m.keys)
		return appStyle.Render(content + errView)
	}
}

func (m Model) inputView(header, errView string) string {
	return appStyle.Render(
		lipgloss.NewStyle().Foreground(lipgloss.Color(m.style.HeaderGreeting)).Bold(true).Render(header) + "\n\n" +
			m.input.View() + "\n\n" +
			statusStyle.Render("enter: save • esc: cancel") +
			errView,
	)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
