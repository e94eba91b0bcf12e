// Package cli implements the pls subcommands.
package cli

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/nissyi-gh/pls/internal/backup"
	"github.com/nissyi-gh/pls/internal/config"
	"github.com/nissyi-gh/pls/internal/importer"
	"github.com/nissyi-gh/pls/internal/model"
	"github.com/nissyi-gh/pls/internal/prompt"
	"github.com/nissyi-gh/pls/internal/view"
)

// Store loads and saves the whole task list.
type Store interface {
	Load() (*model.TaskList, error)
	Save(*model.TaskList) error
}

// App wires the subcommands to their collaborators.
type App struct {
	Store  Store
	Config *config.Config
	Logger *log.Logger
	Out    io.Writer
	In     io.Reader

	// Now, Width and Copy default to the real clock, 0 (no centering) and
	// a copier that always fails.
	Now   func() time.Time
	Width func() int
	Copy  func(string) error
	// RunTUI starts the interactive browser.
	RunTUI func() error
}

type command struct {
	usage string
	help  string
	run   func(a *App, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"show":    {"show [-quiet]", "print the task table (default)", (*App).show},
		"add":     {"add NAME [-d DESC] [-p PRIORITY] [-due DUE] [-parent ID]", "add a task", (*App).add},
		"edit":    {"edit ID [-name NAME] [-d DESC] [-p PRIORITY|none] [-due DUE] [-done=BOOL]", "change fields of a task", (*App).edit},
		"done":    {"done ID...", "mark tasks completed", (*App).done},
		"undone":  {"undone ID...", "mark tasks pending", (*App).undone},
		"sub":     {"sub PARENT CHILD", "make CHILD a subtask of PARENT", (*App).sub},
		"unsub":   {"unsub PARENT CHILD", "detach CHILD from PARENT", (*App).unsub},
		"delete":  {"delete ID...", "delete tasks, orphaning their subtasks", (*App).delete},
		"clean":   {"clean", "delete all completed tasks", (*App).clean},
		"clear":   {"clear -force", "delete every task", (*App).clear},
		"import":  {"import FILE|- [-parent ID]", "add a YAML task tree", (*App).importYAML},
		"export":  {"export [-format yaml|json]", "write all tasks to stdout", (*App).export},
		"restore": {"restore FILE|-", "replace all tasks with a JSON backup", (*App).restore},
		"prompt":  {"prompt [ID]", "copy an LLM breakdown prompt to the clipboard", (*App).prompt},
		"tui":     {"tui", "browse tasks interactively", (*App).tui},
		"config":  {"config", "print the effective configuration", (*App).printConfig},
	}
}

// Run dispatches args (without the program name) to a subcommand.
func (a *App) Run(args []string) error {
	a.defaults()
	name := "show"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		name, args = args[0], args[1:]
	}
	if name == "help" {
		a.usage(a.Out)
		return nil
	}
	cmd, ok := commands[name]
	if !ok {
		a.usage(a.Out)
		return fmt.Errorf("unknown command %q", name)
	}
	a.Logger.Debug("running command", "command", name, "args", args)
	return cmd.run(a, args)
}

func (a *App) defaults() {
	if a.Now == nil {
		a.Now = time.Now
	}
	if a.Width == nil {
		a.Width = func() int { return 0 }
	}
	if a.Copy == nil {
		a.Copy = func(string) error { return errors.New("clipboard unavailable") }
	}
	if a.Logger == nil {
		a.Logger = log.New(io.Discard)
	}
	if a.Out == nil {
		a.Out = os.Stdout
	}
	if a.In == nil {
		a.In = os.Stdin
	}
}

func (a *App) usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pls <command> [arguments]")
	fmt.Fprintln(w)
	for _, name := range []string{"show", "add", "edit", "done", "undone", "sub", "unsub", "delete", "clean", "clear", "import", "export", "restore", "prompt", "tui", "config"} {
		c := commands[name]
		fmt.Fprintf(w, "  %-70s %s\n", c.usage, c.help)
	}
}

// parseArgs parses flags that may appear before, between or after positional
// arguments and returns the positionals. Everything after "--" is positional.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		if terminated(fs, args[:len(args)-len(rest)]) {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// terminated reports whether the flags parsed from consumed ended at "--"
// rather than taking "--" as the value of the preceding flag.
func terminated(fs *flag.FlagSet, consumed []string) bool {
	n := len(consumed)
	if n == 0 || consumed[n-1] != "--" {
		return false
	}
	if n == 1 {
		return true
	}
	prev := consumed[n-2]
	if !strings.HasPrefix(prev, "-") || strings.Contains(prev, "=") {
		return true
	}
	f := fs.Lookup(strings.TrimLeft(prev, "-"))
	if f == nil {
		return true
	}
	if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return true
	}
	return false
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, s := range args {
		id, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid task id %q", s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func exactIDs(args []string, n int, usage string) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("usage: pls %s", usage)
	}
	return parseIDs(args)
}

// mutate loads the list, applies fn and saves when fn succeeds.
func (a *App) mutate(fn func(*model.TaskList) error) error {
	list, err := a.Store.Load()
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	if err := fn(list); err != nil {
		return err
	}
	if err := a.Store.Save(list); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

func (a *App) show(args []string) error {
	fs := newFlagSet("show")
	quiet := fs.Bool("quiet", false, "only print the table")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	list, err := a.Store.Load()
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	tasks := list.Snapshot()
	style := a.Config.Style
	width := a.Width()
	center := func(s string) string {
		if width <= 0 {
			return s
		}
		return view.Center(s, width)
	}

	if !*quiet {
		fmt.Fprintln(a.Out, view.Banner(a.Config.User, a.Now(), style, width))
		fmt.Fprintln(a.Out)
	}
	if len(tasks) > 0 {
		fmt.Fprintln(a.Out, view.NewTaskTable(tasks, style).Render(width))
	}
	fmt.Fprintln(a.Out, center(view.PendingMessage(tasks, style)))
	return nil
}

func (a *App) add(args []string) error {
	fs := newFlagSet("add")
	desc := fs.String("d", "", "description")
	prio := fs.String("p", "", "priority (LOW, MEDIUM, HIGH, SUPER_HIGH or 1-4)")
	due := fs.String("due", "", "due date, free-form")
	parent := fs.Int("parent", 0, "parent task id")
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	name := strings.Join(rest, " ")

	opts := []model.Option{model.WithDescription(*desc), model.WithDue(*due)}
	if *prio != "" {
		p, err := model.ParsePriority(*prio)
		if err != nil {
			return err
		}
		opts = append(opts, model.WithPriority(p))
	}

	var id int
	err = a.mutate(func(list *model.TaskList) error {
		task, err := model.NewTask(list.NextID(), name, opts...)
		if err != nil {
			return err
		}
		if err := list.Add(task); err != nil {
			return err
		}
		id = task.ID
		if *parent != 0 {
			return list.AddSubtask(*parent, task.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Added task %d\n", id)
	return nil
}

func (a *App) edit(args []string) error {
	fs := newFlagSet("edit")
	name := fs.String("name", "", "new name")
	desc := fs.String("d", "", "new description, empty to clear")
	prio := fs.String("p", "", "new priority, none to clear")
	due := fs.String("due", "", "new due date, empty to clear")
	done := fs.Bool("done", false, "completion state")
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	ids, err := exactIDs(rest, 1, commands["edit"].usage)
	if err != nil {
		return err
	}

	var e model.Edit
	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			e.Name = model.Set(*name)
		case "d":
			e.Description = model.Set(*desc)
		case "p":
			if *prio == "" || strings.EqualFold(*prio, "none") {
				e.Priority = model.Set[*model.Priority](nil)
				return
			}
			p, err := model.ParsePriority(*prio)
			if err != nil {
				parseErr = err
				return
			}
			e.Priority = model.Set(&p)
		case "due":
			e.Due = model.Set(*due)
		case "done":
			e.Completed = model.Set(*done)
		}
	})
	if parseErr != nil {
		return parseErr
	}

	if err := a.mutate(func(list *model.TaskList) error { return list.Edit(ids[0], e) }); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Updated task %d\n", ids[0])
	return nil
}

func (a *App) setCompleted(args []string, done bool) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return errors.New("no task ids given")
	}
	return a.mutate(func(list *model.TaskList) error {
		for _, id := range ids {
			if err := list.Edit(id, model.Edit{Completed: model.Set(done)}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (a *App) done(args []string) error   { return a.setCompleted(args, true) }
func (a *App) undone(args []string) error { return a.setCompleted(args, false) }

func (a *App) sub(args []string) error {
	ids, err := exactIDs(args, 2, commands["sub"].usage)
	if err != nil {
		return err
	}
	return a.mutate(func(list *model.TaskList) error { return list.AddSubtask(ids[0], ids[1]) })
}

func (a *App) unsub(args []string) error {
	ids, err := exactIDs(args, 2, commands["unsub"].usage)
	if err != nil {
		return err
	}
	return a.mutate(func(list *model.TaskList) error { return list.RemoveSubtask(ids[0], ids[1]) })
}

func (a *App) delete(args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return errors.New("no task ids given")
	}
	return a.mutate(func(list *model.TaskList) error {
		for _, id := range ids {
			if _, err := list.Delete(id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (a *App) clean(args []string) error {
	removed := 0
	err := a.mutate(func(list *model.TaskList) error {
		for _, t := range list.Tasks() {
			if !t.Completed {
				continue
			}
			if _, err := list.Delete(t.ID); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Removed %d completed tasks\n", removed)
	return nil
}

func (a *App) clear(args []string) error {
	fs := newFlagSet("clear")
	force := fs.Bool("force", false, "confirm deleting every task")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if !*force {
		return errors.New("refusing to delete every task without -force")
	}
	empty, err := model.NewTaskList(nil)
	if err != nil {
		return err
	}
	return a.Store.Save(empty)
}

func (a *App) readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(a.In)
	}
	return os.ReadFile(name)
}

func (a *App) importYAML(args []string) error {
	fs := newFlagSet("import")
	parent := fs.Int("parent", 0, "attach imported roots under this task")
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("usage: pls %s", commands["import"].usage)
	}
	data, err := a.readInput(rest[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", rest[0], err)
	}

	var parentID *int
	if *parent != 0 {
		parentID = parent
	}
	var ids []int
	err = a.mutate(func(list *model.TaskList) error {
		ids, err = importer.Import(list, string(data), parentID)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Imported %d tasks\n", len(ids))
	return nil
}

func (a *App) export(args []string) error {
	fs := newFlagSet("export")
	format := fs.String("format", "yaml", "yaml or json")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	list, err := a.Store.Load()
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	switch *format {
	case "yaml":
		out, err := importer.Export(list)
		if err != nil {
			return err
		}
		_, err = a.Out.Write(out)
		return err
	case "json":
		return backup.Dump(a.Out, list)
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
}

func (a *App) restore(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: pls %s", commands["restore"].usage)
	}
	data, err := a.readInput(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	list, err := backup.Restore(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if err := a.Store.Save(list); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	fmt.Fprintf(a.Out, "Restored %d tasks\n", list.Len())
	return nil
}

func (a *App) prompt(args []string) error {
	var text string
	if len(args) == 0 {
		text = prompt.GenerateNew()
	} else {
		ids, err := exactIDs(args, 1, commands["prompt"].usage)
		if err != nil {
			return err
		}
		list, err := a.Store.Load()
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		task, err := list.Get(ids[0])
		if err != nil {
			return err
		}
		var children []model.Task
		for _, c := range list.Children(task.ID) {
			children = append(children, *c)
		}
		text = prompt.GenerateFromTask(*task, children)
	}

	if err := a.Copy(text); err != nil {
		a.Logger.Warn("clipboard unavailable, printing prompt", "err", err)
		fmt.Fprint(a.Out, text)
		return nil
	}
	fmt.Fprintln(a.Out, "Prompt copied to clipboard")
	return nil
}

func (a *App) tui(args []string) error {
	if a.RunTUI == nil {
		return errors.New("interactive mode is not available")
	}
	return a.RunTUI()
}

func (a *App) printConfig(args []string) error {
	return toml.NewEncoder(a.Out).Encode(a.Config)
}
