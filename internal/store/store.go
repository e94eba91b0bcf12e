package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/nissyi-gh/pls/internal/model"
	_ "modernc.org/sqlite"
)

// TaskStore manages SQLite persistence for the task list.
type TaskStore struct {
	db     *sql.DB
	logger *log.Logger
}

// DefaultDBPath returns $XDG_DATA_HOME/pls/pls.db, creating the directory.
func DefaultDBPath(lookup func(string) string) (string, error) {
	if lookup == nil {
		lookup = os.Getenv
	}
	dataHome := lookup("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	dir := filepath.Join(dataHome, "pls")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "pls.db"), nil
}

// NewTaskStore opens (or creates) the SQLite database and ensures the schema exists.
func NewTaskStore(dbPath string, logger *log.Logger) (*TaskStore, error) {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	if dbPath == "" {
		var err error
		dbPath, err = DefaultDBPath(nil)
		if err != nil {
			return nil, fmt.Errorf("determine db path: %w", err)
		}
	}
	logger.Debug("opening task database", "path", dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS tasks (
		id          INTEGER PRIMARY KEY,
		name        TEXT    NOT NULL,
		description TEXT,
		created     TEXT    NOT NULL,
		completed   INTEGER NOT NULL DEFAULT 0,
		parent_id   INTEGER,
		position    INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS subtasks (
		parent_id INTEGER NOT NULL,
		child_id  INTEGER NOT NULL,
		position  INTEGER NOT NULL,
		PRIMARY KEY (parent_id, child_id)
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &TaskStore{db: db, logger: logger}
	for _, col := range []struct{ name, ddl string }{
		{"priority", "ALTER TABLE tasks ADD COLUMN priority INTEGER"},
		{"due", "ALTER TABLE tasks ADD COLUMN due TEXT"},
	} {
		if err := s.migrateColumn("tasks", col.name, col.ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate %s: %w", col.name, err)
		}
	}
	return s, nil
}

// migrateColumn runs ddl when table has no column called name.
func (s *TaskStore) migrateColumn(table, name, ddl string) error {
	rows, err := s.db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		return err
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var cid int
		var colName, typ string
		var notNull, pk int
		var dfltValue sql.NullString
		if err := rows.Scan(&cid, &colName, &typ, &notNull, &dfltValue, &pk); err != nil {
			return err
		}
		if colName == name {
			found = true
			break
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	if !found {
		s.logger.Debug("adding column", "table", table, "column", name)
		_, err := s.db.Exec(ddl)
		return err
	}
	return nil
}

func scanRecord(scanner interface{ Scan(...any) error }) (model.Record, error) {
	var r model.Record
	var comp int
	var created string
	var description, due sql.NullString
	var priority, parentID sql.NullInt64
	if err := scanner.Scan(&r.ID, &r.Name, &description, &priority, &created, &due, &comp, &parentID); err != nil {
		return model.Record{}, err
	}
	r.Completed = comp != 0
	r.Created = &created
	if description.Valid {
		d := description.String
		r.Description = &d
	}
	if priority.Valid {
		p := model.Priority(priority.Int64)
		r.Priority = &p
	}
	if due.Valid {
		d := due.String
		r.Due = &d
	}
	if parentID.Valid {
		pid := int(parentID.Int64)
		r.Parent = &pid
	}
	r.Subtasks = []int{}
	return r, nil
}

// Load reads every task in stored order.
func (s *TaskStore) Load() (*model.TaskList, error) {
	rows, err := s.db.Query("SELECT id, name, description, priority, created, due, completed, parent_id FROM tasks ORDER BY position ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	index := make(map[int]int)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		index[r.ID] = len(records)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}

	links, err := s.db.Query("SELECT parent_id, child_id FROM subtasks ORDER BY parent_id, position")
	if err != nil {
		return nil, fmt.Errorf("query subtasks: %w", err)
	}
	defer links.Close()
	for links.Next() {
		var parentID, childID int
		if err := links.Scan(&parentID, &childID); err != nil {
			return nil, fmt.Errorf("scan subtask: %w", err)
		}
		if i, ok := index[parentID]; ok {
			records[i].Subtasks = append(records[i].Subtasks, childID)
		}
	}
	if err := links.Err(); err != nil {
		return nil, fmt.Errorf("query subtasks: %w", err)
	}

	list, err := model.NewTaskListFromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	s.logger.Debug("loaded tasks", "count", list.Len())
	return list, nil
}

// Save replaces the stored list with list in a single transaction.
func (s *TaskStore) Save(list *model.TaskList) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM subtasks"); err != nil {
		return fmt.Errorf("clear subtasks: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM tasks"); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}

	for pos, r := range list.Records() {
		var priority any
		if r.Priority != nil {
			priority = int(*r.Priority)
		}
		var parent any
		if r.Parent != nil {
			parent = *r.Parent
		}
		var created string
		if r.Created != nil {
			created = *r.Created
		}
		_, err := tx.Exec(
			"INSERT INTO tasks (id, name, description, priority, created, due, completed, parent_id, position) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			r.ID, r.Name, nullString(r.Description), priority, created, nullString(r.Due), boolInt(r.Completed), parent, pos,
		)
		if err != nil {
			return fmt.Errorf("insert task %d: %w", r.ID, err)
		}
		for i, childID := range r.Subtasks {
			if _, err := tx.Exec("INSERT INTO subtasks (parent_id, child_id, position) VALUES (?, ?, ?)", r.ID, childID, i); err != nil {
				return fmt.Errorf("insert subtask %d of task %d: %w", childID, r.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	s.logger.Debug("saved tasks", "count", list.Len())
	return nil
}

// Close closes the database connection.
func (s *TaskStore) Close() error {
	return s.db.Close()
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
