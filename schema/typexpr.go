package schema

import (
	"strconv"
	"strings"

	"github.com/wippyai/mcu-facade/addrspace"
	"github.com/wippyai/mcu-facade/ctype"
	"github.com/wippyai/mcu-facade/errors"
)

var predeclared = map[string]*ctype.Type{
	"uint8":   ctype.Uint8,
	"uint16":  ctype.Uint16,
	"uint24":  ctype.Uint24,
	"uint32":  ctype.Uint32,
	"uint35":  ctype.Uint35,
	"uint40":  ctype.Uint40,
	"int8":    ctype.Int8,
	"int16":   ctype.Int16,
	"int24":   ctype.Int24,
	"int32":   ctype.Int32,
	"int35":   ctype.Int35,
	"int40":   ctype.Int40,
	"float24": ctype.Float24,
}

// resolver builds named types on demand.
type resolver struct {
	decls    map[string]TypeDecl
	built    map[string]*ctype.Type
	visiting map[string]bool
}

func newResolver(decls []TypeDecl) (*resolver, error) {
	r := &resolver{
		decls:    make(map[string]TypeDecl, len(decls)),
		built:    make(map[string]*ctype.Type, len(decls)),
		visiting: make(map[string]bool),
	}
	for _, d := range decls {
		if d.Name == "" {
			return nil, errors.InvalidInput(errors.PhaseLayout, "type without a name")
		}
		if _, ok := predeclared[d.Name]; ok {
			return nil, errors.InvalidInput(errors.PhaseLayout, "type %s shadows a primitive", d.Name)
		}
		if _, dup := r.decls[d.Name]; dup {
			return nil, errors.InvalidInput(errors.PhaseLayout, "type %s declared twice", d.Name)
		}
		r.decls[d.Name] = d
	}
	return r, nil
}

func (r *resolver) named(name string) (*ctype.Type, error) {
	if t, ok := r.built[name]; ok {
		return t, nil
	}
	d, ok := r.decls[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseLayout, "type", name)
	}
	if r.visiting[name] {
		return nil, errors.InvalidInput(errors.PhaseLayout, "type %s contains itself", name)
	}
	r.visiting[name] = true
	defer delete(r.visiting, name)

	fields := make([]ctype.Field, len(d.Fields))
	for i, f := range d.Fields {
		ft, err := r.expr(f.Type)
		if err != nil {
			return nil, errors.WithPath(err, []string{name, f.Name})
		}
		fields[i] = ctype.F(f.Name, ft)
	}
	t, err := ctype.NewStruct(name, fields...)
	if err != nil {
		return nil, err
	}
	r.built[name] = t
	return t, nil
}

// expr parses a type expression.
func (r *resolver) expr(s string) (*ctype.Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.InvalidInput(errors.PhaseLayout, "empty type expression")
	}

	if strings.HasPrefix(s, "*") {
		target, kindName, ok := strings.Cut(s[1:], "@")
		if !ok {
			return nil, errors.InvalidInput(errors.PhaseLayout, "pointer %q needs a target memory, e.g. *uint8@ram", s)
		}
		kind, err := addrspace.ParseKind(kindName)
		if err != nil {
			return nil, err
		}
		t, err := r.expr(target)
		if err != nil {
			return nil, err
		}
		return ctype.PointerTo(t, kind), nil
	}

	base, dims, err := splitDims(s)
	if err != nil {
		return nil, err
	}

	var t *ctype.Type
	if base == "char" {
		if len(dims) == 0 {
			return nil, errors.InvalidInput(errors.PhaseLayout, "char needs a length, e.g. char[8]")
		}
		t = ctype.CharArray(dims[0])
		dims = dims[1:]
	} else if t, err = r.base(base); err != nil {
		return nil, err
	}

	for _, n := range dims {
		if t, err = ctype.NewArray(t, n); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (r *resolver) base(name string) (*ctype.Type, error) {
	if t, ok := predeclared[name]; ok {
		return t, nil
	}
	for prefix, mk := range map[string]func(int) *ctype.Type{"uint": ctype.Uint, "int": ctype.Int} {
		if bits, ok := strings.CutPrefix(name, prefix); ok {
			if n, err := strconv.Atoi(bits); err == nil {
				if n < 1 || n > 64 {
					return nil, errors.InvalidInput(errors.PhaseLayout, "%s: width must be 1 to 64 bits", name)
				}
				return mk(n), nil
			}
		}
	}
	return r.named(name)
}

// splitDims separates "uint8[4][2]" into "uint8" and [4 2].
func splitDims(s string) (string, []int, error) {
	i := strings.IndexByte(s, '[')
	if i < 0 {
		return s, nil, nil
	}
	base := strings.TrimSpace(s[:i])
	rest := s[i:]
	var dims []int
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, errors.InvalidInput(errors.PhaseLayout, "type %q: unexpected %q", s, rest)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", nil, errors.InvalidInput(errors.PhaseLayout, "type %q: unclosed '['", s)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(rest[1:end]), 0, 32)
		if err != nil || n < 1 {
			return "", nil, errors.InvalidInput(errors.PhaseLayout, "type %q: bad length %q", s, rest[1:end])
		}
		dims = append(dims, int(n))
		rest = rest[end+1:]
	}
	return base, dims, nil
}
