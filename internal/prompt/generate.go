package prompt

import (
	"fmt"
	"strings"

	"github.com/nissyi-gh/pls/internal/model"
)

const yamlFormat = `Reply with a single YAML code block in the format below and nothing else.

` + "```yaml" + `
tasks:
  - name: "Task name"
    description: "What needs to be done"
    priority: "MEDIUM"
    due: "YYYY-MM-DD"
    children:
      - name: "Subtask name"
        description: "Subtask details"
` + "```" + `

Fields:
- name: (required) the task name
- description: (optional) a longer explanation
- priority: (optional) one of LOW, MEDIUM, HIGH, SUPER_HIGH
- due: (optional) a due date
- children: (optional) subtasks, nested the same way`

// GenerateNew returns a prompt for creating new tasks from scratch.
func GenerateNew() string {
	return fmt.Sprintf(`You are a task planning assistant.
Break the user's request down into tasks of a sensible size.

%s
`, yamlFormat)
}

// GenerateFromTask returns a prompt for breaking down an existing task.
func GenerateFromTask(task model.Task, children []model.Task) string {
	var sb strings.Builder

	sb.WriteString("You are a task planning assistant.\n")
	sb.WriteString("Break the task below down into more concrete subtasks.\n\n")

	sb.WriteString("## Task\n")
	sb.WriteString(fmt.Sprintf("- Name: %s\n", task.Name))

	if task.Description != nil && *task.Description != "" {
		sb.WriteString(fmt.Sprintf("- Description: %s\n", *task.Description))
	}
	if task.Priority != nil {
		sb.WriteString(fmt.Sprintf("- Priority: %s\n", task.Priority))
	}
	if task.Due != nil {
		sb.WriteString(fmt.Sprintf("- Due: %s\n", *task.Due))
	}

	if len(children) > 0 {
		sb.WriteString("\n## Existing subtasks\n")
		for _, c := range children {
			status := "pending"
			if c.Completed {
				status = "done"
			}
			sb.WriteString(fmt.Sprintf("- %s (%s)\n", c.Name, status))
		}
		sb.WriteString("\nTake the existing subtasks into account and only add the ones that are missing.\n")
	}

	sb.WriteString("\n")
	sb.WriteString(yamlFormat)
	sb.WriteString("\n")

	return sb.String()
}
