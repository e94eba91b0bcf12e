// Package backup dumps and restores the task list as a JSON document.
package backup

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/nissyi-gh/pls/internal/model"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Version is the document format written by Dump.
const Version = 1

//go:embed schema.json
var schemaJSON string

// Document is the on-disk backup format.
type Document struct {
	Version int            `json:"version"`
	Tasks   []model.Record `json:"tasks"`
}

// SchemaError reports the first schema violation found in a backup.
type SchemaError struct {
	Path    string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return "invalid backup: " + e.Message
	}
	return fmt.Sprintf("invalid backup at %s: %s", e.Path, e.Message)
}

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
})

// Dump writes every task in list order.
func Dump(w io.Writer, list *model.TaskList) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Document{Version: Version, Tasks: list.Records()}); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// Restore validates a backup against the schema and decodes it into a task
// list.
func Restore(r io.Reader) (*model.TaskList, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}

	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}
	list, err := model.NewTaskListFromRecords(doc.Tasks)
	if err != nil {
		return nil, fmt.Errorf("restore backup: %w", err)
	}
	return list, nil
}

// Validate checks data against the embedded backup schema.
func Validate(data []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return &SchemaError{Message: err.Error()}
	}
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return firstLeaf(ve)
		}
		return &SchemaError{Message: err.Error()}
	}
	return nil
}

func firstLeaf(ve *jsonschema.ValidationError) error {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return &SchemaError{Path: ve.InstanceLocation, Message: ve.Message}
}
