package model

import (
	"encoding/json"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Priority ranks a task. The ordinals match the values stored by older
// versions of the tool, so both the name and the number decode.
type Priority int

const (
	Low Priority = iota + 1
	Medium
	High
	SuperHigh
)

var priorityNames = map[Priority]string{
	Low:       "LOW",
	Medium:    "MEDIUM",
	High:      "HIGH",
	SuperHigh: "SUPER_HIGH",
}

// String returns the enumerant name, e.g. "SUPER_HIGH".
func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return "Priority(" + strconv.Itoa(int(p)) + ")"
}

// Valid reports whether p is one of the four known priorities.
func (p Priority) Valid() bool {
	_, ok := priorityNames[p]
	return ok
}

// ParsePriority accepts a name ("high", "SUPER_HIGH", "super-high") or an
// ordinal ("3").
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		p := Priority(n)
		if !p.Valid() {
			return 0, invalid("priority", "unknown ordinal %d", n)
		}
		return p, nil
	}
	norm := strings.ToUpper(strings.ReplaceAll(s, "-", "_"))
	for p, name := range priorityNames {
		if name == norm {
			return p, nil
		}
	}
	return 0, invalid("priority", "unknown value %q", s)
}

func (p Priority) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return nil, invalid("priority", "unknown ordinal %d", int(p))
	}
	return json.Marshal(p.String())
}

func (p *Priority) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		parsed, err := ParsePriority(strconv.Itoa(n))
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return invalid("priority", "expected name or ordinal, got %s", data)
	}
	parsed, err := ParsePriority(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Priority) MarshalYAML() (any, error) {
	if !p.Valid() {
		return nil, invalid("priority", "unknown ordinal %d", int(p))
	}
	return p.String(), nil
}

func (p *Priority) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParsePriority(node.Value)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
