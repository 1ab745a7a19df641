package ctype

import (
	"fmt"
	"strings"
)

// Record is the result of reading a struct: values in field order.
type Record struct {
	Name   string
	Fields []string
	Values []any
}

// Get returns the value of a named field.
func (r Record) Get(name string) (any, bool) {
	for i, f := range r.Fields {
		if f == name {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Map returns the fields as a map, recursing into nested records.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.Fields))
	for i, f := range r.Fields {
		m[f] = plain(r.Values[i])
	}
	return m
}

func plain(v any) any {
	switch x := v.(type) {
	case Record:
		return x.Map()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}
		return out
	default:
		return v
	}
}

// String renders the record as name(field=value, ...).
func (r Record) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	b.WriteByte('(')
	for i, f := range r.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%s", f, formatValue(r.Values[i]))
	}
	b.WriteByte(')')
	return b.String()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}

var nameReplacer = strings.NewReplacer("<", "_", ">", "", "[", "_", "]", "", "*", "_ptr", " ", "_")

// RecordName turns a C type spelling into an identifier: "uint8[4]"
// becomes "uint8_4".
func RecordName(name string) string {
	out := nameReplacer.Replace(name)
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return out
}
