package editsource

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Spec is an ordered list of edit-source patterns. Each entry is a path
// relative to the project root or a doublestar glob.
type Spec []string

// NewSpec builds a Spec from patterns, dropping blanks.
func NewSpec(patterns ...string) Spec {
	var s Spec
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			s = append(s, p)
		}
	}
	return s
}

// UnmarshalYAML accepts either a single string or a list of strings.
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var single string
		if err := node.Decode(&single); err != nil {
			return err
		}
		*s = NewSpec(single)
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := node.Decode(&many); err != nil {
			return err
		}
		*s = NewSpec(many...)
		return nil
	default:
		return fmt.Errorf("edit source must be a string or a list of strings (line %d)", node.Line)
	}
}

// MarshalYAML writes a single pattern as a plain string.
func (s Spec) MarshalYAML() (interface{}, error) {
	if len(s) == 1 {
		return s[0], nil
	}
	return []string(s), nil
}

// Equal reports whether both specs list the same patterns in order.
func (s Spec) Equal(other Spec) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// IsEmpty reports whether the spec has no patterns.
func (s Spec) IsEmpty() bool {
	return len(s) == 0
}

func (s Spec) String() string {
	return strings.Join(s, ", ")
}

// Literal returns the first pattern that names a single file rather than a
// glob.
func (s Spec) Literal() (string, bool) {
	for _, p := range s {
		if !strings.ContainsAny(p, "*?[{") {
			return p, true
		}
	}
	return "", false
}
