package importer

import (
	"fmt"

	"github.com/nissyi-gh/pls/internal/model"
	"gopkg.in/yaml.v3"
)

// YAMLTask represents a single task in the YAML input.
type YAMLTask struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Priority    *model.Priority `yaml:"priority,omitempty"`
	Due         string          `yaml:"due,omitempty"`
	Completed   bool            `yaml:"completed,omitempty"`
	Children    []YAMLTask      `yaml:"children,omitempty"`
}

// YAMLInput represents the root structure of the YAML input.
type YAMLInput struct {
	Tasks []YAMLTask `yaml:"tasks"`
}

// Import parses a YAML task tree and adds every task to list, allocating
// fresh ids. parentID can be nil for root-level tasks.
// Returns the ids created, in document order.
func Import(list *model.TaskList, yamlStr string, parentID *int) ([]int, error) {
	var input YAMLInput
	if err := yaml.Unmarshal([]byte(yamlStr), &input); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}

	if len(input.Tasks) == 0 {
		return nil, fmt.Errorf("no tasks found in YAML")
	}
	if parentID != nil {
		if _, err := list.Get(*parentID); err != nil {
			return nil, err
		}
	}

	var created []int
	for _, yt := range input.Tasks {
		ids, err := importTask(list, yt, parentID)
		created = append(created, ids...)
		if err != nil {
			return created, err
		}
	}
	return created, nil
}

func importTask(list *model.TaskList, yt YAMLTask, parentID *int) ([]int, error) {
	opts := []model.Option{
		model.WithDescription(yt.Description),
		model.WithDue(yt.Due),
		model.WithCompleted(yt.Completed),
	}
	if yt.Priority != nil {
		opts = append(opts, model.WithPriority(*yt.Priority))
	}
	task, err := model.NewTask(list.NextID(), yt.Name, opts...)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", yt.Name, err)
	}
	if err := list.Add(task); err != nil {
		return nil, fmt.Errorf("add task %q: %w", yt.Name, err)
	}
	created := []int{task.ID}

	if parentID != nil {
		if err := list.AddSubtask(*parentID, task.ID); err != nil {
			return created, fmt.Errorf("link task %q: %w", yt.Name, err)
		}
	}

	for _, child := range yt.Children {
		id := task.ID
		ids, err := importTask(list, child, &id)
		created = append(created, ids...)
		if err != nil {
			return created, err
		}
	}

	return created, nil
}

// Export encodes the flat record list as a YAML document.
func Export(list *model.TaskList) ([]byte, error) {
	doc := struct {
		Tasks []model.Record `yaml:"tasks"`
	}{Tasks: list.Records()}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode YAML: %w", err)
	}
	return out, nil
}
