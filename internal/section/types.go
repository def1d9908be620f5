package section

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrUnauthorized is returned by Save when no token is available. No
	// request is issued.
	ErrUnauthorized = errors.New("section: not signed in")
	// ErrNotEditing is returned when a draft operation runs outside edit mode.
	ErrNotEditing = errors.New("section: not in edit mode")
	// ErrSaveInFlight is returned while a previous save is still outstanding.
	ErrSaveInFlight = errors.New("section: save already in progress")
	// ErrUnknownField is returned for a field the section does not define.
	ErrUnknownField = errors.New("section: unknown field")
	// ErrUnknownSection is returned by Lookup.
	ErrUnknownSection = errors.New("section: unknown section")
)

// UnauthorizedMessage is shown when a save is attempted without a token.
const UnauthorizedMessage = "Your session has ended. Please sign in again to save your changes."

// Kind is the shape of a field value.
type Kind string

const (
	KindString Kind = "string"
	KindList   Kind = "list"
	KindObject Kind = "object"
)

// Field describes one editable field. Rules are validator tags applied to
// the field value.
type Field struct {
	Name  string
	Label string
	Kind  Kind
	Rules string
	// Keys lists the expected keys of an object field, used for form input.
	Keys []string
}

// Section is a named group of profile fields stored under Namespace in the
// remote profile.
type Section struct {
	Name      string
	Title     string
	Namespace string
	Fields    []Field
}

// Field returns the named field.
func (s Section) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Values maps field names to string, []string or map[string]any values.
type Values map[string]any

// Clone returns a deep copy.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = cloneValue(val)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []string:
		return slices.Clone(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = cloneValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Extract pulls this section's fields out of the namespace object returned
// by the backend, coercing each value to its field kind. Missing fields get
// their zero value.
func (s Section) Extract(data map[string]any) Values {
	out := make(Values, len(s.Fields))
	for _, f := range s.Fields {
		out[f.Name] = coerce(f.Kind, data[f.Name])
	}
	return out
}

func coerce(kind Kind, raw any) any {
	switch kind {
	case KindList:
		switch t := raw.(type) {
		case []string:
			return slices.Clone(t)
		case []any:
			out := make([]string, 0, len(t))
			for _, item := range t {
				if item == nil {
					continue
				}
				out = append(out, stringify(item))
			}
			return out
		case string:
			if t == "" {
				return []string{}
			}
			return []string{t}
		default:
			return []string{}
		}
	case KindObject:
		if m, ok := raw.(map[string]any); ok {
			return cloneValue(m)
		}
		return map[string]any{}
	default:
		if raw == nil {
			return ""
		}
		return stringify(raw)
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// checkKind converts a value supplied by a caller to the field's kind, or
// reports a mismatch.
func checkKind(f Field, value any) (any, error) {
	switch f.Kind {
	case KindList:
		switch t := value.(type) {
		case []string:
			return slices.Clone(t), nil
		case []any:
			out := make([]string, 0, len(t))
			for _, item := range t {
				s, ok := item.(string)
				if !ok {
					return nil, &ValidationError{Messages: []string{f.Label + " must be a list of text values"}}
				}
				out = append(out, s)
			}
			return out, nil
		}
		return nil, &ValidationError{Messages: []string{f.Label + " must be a list"}}
	case KindObject:
		if m, ok := value.(map[string]any); ok {
			return cloneValue(m), nil
		}
		return nil, &ValidationError{Messages: []string{f.Label + " must be an object"}}
	default:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return nil, &ValidationError{Messages: []string{f.Label + " must be text"}}
	}
}
