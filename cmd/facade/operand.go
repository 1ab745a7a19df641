package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/mcu-facade/ctype"
	"github.com/wippyai/mcu-facade/errors"
)

// parseOperand converts command-line text to a value for t. Composites are
// written as comma-separated lists, optionally in braces: {8, 1000} or
// {1, {2, 3}, "name"}.
func parseOperand(s string, t *ctype.Type) (any, error) {
	s = strings.TrimSpace(s)
	switch t.Kind() {
	case ctype.KindStruct, ctype.KindArray:
		parts, err := splitList(s)
		if err != nil {
			return nil, err
		}
		var children []*ctype.Type
		if t.Kind() == ctype.KindStruct {
			for _, f := range t.Fields() {
				children = append(children, f.Type)
			}
		} else {
			for i := 0; i < t.Count(); i++ {
				children = append(children, t.Elem())
			}
		}
		if len(parts) != len(children) {
			return nil, errors.Arity(errors.PhaseWrite, nil, len(children), len(parts))
		}
		out := make([]any, len(parts))
		for i, p := range parts {
			if out[i], err = parseOperand(p, children[i]); err != nil {
				return nil, err
			}
		}
		return out, nil
	case ctype.KindChars:
		if uq, err := strconv.Unquote(s); err == nil {
			return uq, nil
		}
		return s, nil
	case ctype.KindSigned:
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not an integer", t.Name(), s)
		}
		return v, nil
	case ctype.KindFloat24:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a number", t.Name(), s)
		}
		return v, nil
	default:
		v, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not an unsigned integer", t.Name(), s)
		}
		return v, nil
	}
}

// splitList splits a top-level comma list, honouring braces and quotes.
func splitList(s string) ([]string, error) {
	if strings.HasPrefix(s, "{") {
		if !strings.HasSuffix(s, "}") {
			return nil, fmt.Errorf("unbalanced braces in %q", s)
		}
		s = s[1 : len(s)-1]
	}
	var (
		parts   []string
		depth   int
		quoted  bool
		escaped bool
		start   int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case quoted:
			switch c {
			case '\\':
				escaped = true
			case '"':
				quoted = false
			}
		case c == '"':
			quoted = true
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced braces in %q", s)
			}
		case c == ',' && depth == 0:
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	if depth != 0 || quoted {
		return nil, fmt.Errorf("unterminated list %q", s)
	}
	if last := strings.TrimSpace(s[start:]); last != "" || len(parts) > 0 {
		parts = append(parts, last)
	}
	return parts, nil
}
