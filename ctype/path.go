package ctype

import (
	"strconv"
	"strings"

	"github.com/wippyai/mcu-facade/errors"
)

// Segment is one step of a path: a field name or an array index.
type Segment struct {
	Name    string
	Index   int
	IsIndex bool
}

func (s Segment) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Name
}

// ParsePath splits an expression such as "cfg.table[3].gain" into
// segments. Indexes may be decimal or 0x hex.
func ParsePath(expr string) ([]Segment, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.InvalidInput(errors.PhaseLayout, "empty path")
	}

	var segs []Segment
	i := 0
	for i < len(expr) {
		switch c := expr[i]; {
		case c == '.':
			if i == 0 || i == len(expr)-1 || expr[i+1] == '.' || expr[i+1] == '[' {
				return nil, errors.InvalidInput(errors.PhaseLayout, "path %q: misplaced '.' at %d", expr, i)
			}
			i++
		case c == '[':
			end := strings.IndexByte(expr[i:], ']')
			if end < 0 {
				return nil, errors.InvalidInput(errors.PhaseLayout, "path %q: unclosed '['", expr)
			}
			n, err := strconv.ParseInt(strings.TrimSpace(expr[i+1:i+end]), 0, 32)
			if err != nil || n < 0 {
				return nil, errors.InvalidInput(errors.PhaseLayout, "path %q: bad index %q", expr, expr[i+1:i+end])
			}
			segs = append(segs, Segment{Index: int(n), IsIndex: true})
			i += end + 1
			if i < len(expr) && expr[i] != '.' && expr[i] != '[' {
				return nil, errors.InvalidInput(errors.PhaseLayout, "path %q: expected '.' or '[' at %d", expr, i)
			}
		default:
			j := i
			for j < len(expr) && expr[j] != '.' && expr[j] != '[' {
				j++
			}
			segs = append(segs, Segment{Name: expr[i:j]})
			i = j
		}
	}
	return segs, nil
}

// Resolve walks path from v. Pointers are dereferenced whenever a segment
// needs their composite target.
func Resolve(v Value, path string) (Value, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return ResolveSegments(v, segs)
}

// ResolveSegments is Resolve on parsed segments.
func ResolveSegments(v Value, segs []Segment) (Value, error) {
	cur := v
	for _, seg := range segs {
		if p, ok := cur.(*Pointer); ok {
			cur = p.Target()
		}
		switch x := cur.(type) {
		case *Struct:
			if seg.IsIndex {
				return nil, errors.New(errors.PhaseLayout, errors.KindInvalidInput).
					Path(x.path...).CType(x.t.name).
					Detail("cannot index a struct").Build()
			}
			next := x.Field(seg.Name)
			if next == nil {
				e := errors.NotFound(errors.PhaseLayout, "field", seg.Name)
				e.Path = x.path
				e.CType = x.t.name
				return nil, e
			}
			cur = next
		case *Array:
			if !seg.IsIndex {
				return nil, errors.New(errors.PhaseLayout, errors.KindInvalidInput).
					Path(x.path...).CType(x.t.name).
					Detail("arrays have no field %q", seg.Name).Build()
			}
			next := x.Index(seg.Index)
			if next == nil {
				return nil, errors.OutOfBounds(errors.PhaseLayout, x.path, seg.Index, x.t.count)
			}
			cur = next
		default:
			return nil, errors.New(errors.PhaseLayout, errors.KindInvalidInput).
				Path(cur.Path()...).CType(cur.Type().name).
				Detail("%s has no member %s", cur.Type().Kind(), seg).Build()
		}
	}
	return cur, nil
}
