package search

import (
	"encoding/json"
	"strings"
)

// Node is a normalized value tree decoded from a stored record.
type Node interface {
	// Match reports whether any string leaf contains any of the lowercased terms.
	Match(terms []string) bool
}

type (
	Object map[string]Node
	List   []Node
	String string
	// Scalar is a number, boolean or null. Scalars never match.
	Scalar struct{}
)

func (o Object) Match(terms []string) bool {
	for _, v := range o {
		if v.Match(terms) {
			return true
		}
	}
	return false
}

func (l List) Match(terms []string) bool {
	for _, v := range l {
		if v.Match(terms) {
			return true
		}
	}
	return false
}

func (s String) Match(terms []string) bool {
	lower := strings.ToLower(string(s))
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

func (Scalar) Match([]string) bool { return false }

// Build converts a decoded JSON value into a Node.
func Build(v any) Node {
	switch val := v.(type) {
	case map[string]any:
		obj := make(Object, len(val))
		for k, child := range val {
			obj[k] = Build(child)
		}
		return obj
	case []any:
		list := make(List, len(val))
		for i, child := range val {
			list[i] = Build(child)
		}
		return list
	case string:
		return String(val)
	default:
		return Scalar{}
	}
}

// Parse decodes raw JSON into a Node.
func Parse(raw []byte) (Node, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return Build(v), nil
}

// Matches reports whether record contains any term. No terms never match.
func Matches(record Node, terms []string) bool {
	return len(terms) > 0 && record.Match(terms)
}

// Terms lowercases query, splits it on whitespace and drops duplicates.
func Terms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	seen := make(map[string]struct{}, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
