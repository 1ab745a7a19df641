package device

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	facade "github.com/wippyai/mcu-facade"
	"github.com/wippyai/mcu-facade/addrspace"
	"github.com/wippyai/mcu-facade/ctype"
	"github.com/wippyai/mcu-facade/errors"
	"github.com/wippyai/mcu-facade/memlink"
)

// Config selects the address space and pointer translation backend.
type Config struct {
	// Registry resolves Backend. Nil uses addrspace.NewRegistry().
	Registry *addrspace.Registry
	Backend  string
	Space    addrspace.Space
}

// DefaultConfig is the default address space with the xc8 backend.
func DefaultConfig() Config {
	return Config{
		Space:   addrspace.Default(),
		Backend: addrspace.DefaultBackend,
	}
}

// Device binds declarations to one remote device.
type Device struct {
	env   *memlink.Env
	vars  map[string]ctype.Value
	order []string
	mu    sync.RWMutex
}

// New validates cfg and prepares a device on port. The port is not opened.
func New(port facade.Port, cfg Config) (*Device, error) {
	reg := cfg.Registry
	if reg == nil {
		reg = addrspace.NewRegistry()
	}
	tr, err := reg.New(cfg.Backend, cfg.Space)
	if err != nil {
		return nil, err
	}
	env, err := memlink.NewEnv(port, cfg.Space, tr)
	if err != nil {
		return nil, err
	}
	Logger().Debug("device configured", zap.String("backend", tr.Name()))
	return &Device{env: env, vars: make(map[string]ctype.Value)}, nil
}

// Env returns the link environment shared by all declarations.
func (d *Device) Env() *memlink.Env { return d.env }

// Space returns the configured address space.
func (d *Device) Space() addrspace.Space { return d.env.Space }

// Translator returns the pointer translation backend.
func (d *Device) Translator() addrspace.Translator { return d.env.Translator }

type declareOptions struct {
	name     string
	volatile bool
}

// DeclareOption adjusts a declaration.
type DeclareOption func(*declareOptions)

// Volatile sets whether every read goes to the wire. The default is true.
func Volatile(v bool) DeclareOption {
	return func(o *declareOptions) { o.volatile = v }
}

// Name registers the declaration in the variable table.
func Name(name string) DeclareOption {
	return func(o *declareOptions) { o.name = name }
}

// Declare binds t at device address addr in memory kind. Declaring in
// Unallocated memory yields a local value with no device behind it.
func (d *Device) Declare(t *ctype.Type, kind addrspace.MemoryKind, addr uint16, opts ...DeclareOption) (ctype.Value, error) {
	o := declareOptions{volatile: true}
	for _, opt := range opts {
		opt(&o)
	}
	if t == nil {
		return nil, errors.InvalidInput(errors.PhaseConfig, "nil type")
	}

	var link *memlink.Link
	if kind == addrspace.Unallocated {
		link = memlink.Unallocated()
	} else {
		if _, err := d.env.Space.Config(kind); err != nil {
			return nil, err
		}
		if int(addr)+t.Size() > 0x10000 {
			return nil, errors.New(errors.PhaseConfig, errors.KindOutOfBounds).
				CType(t.Name()).Value(addr).
				Detail("%d bytes at 0x%04X exceed the 16-bit address space", t.Size(), addr).
				Build()
		}
		link = memlink.Root(d.env, addr, kind, o.volatile)
	}

	v := ctype.BindAs(o.name, t, link)
	if o.name == "" {
		return v, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, dup := d.vars[o.name]; dup {
		return nil, errors.InvalidInput(errors.PhaseConfig, "variable %q already declared", o.name)
	}
	d.vars[o.name] = v
	d.order = append(d.order, o.name)
	Logger().Debug("declared",
		zap.String("name", o.name),
		zap.String("type", t.Name()),
		zap.Stringer("kind", kind),
		zap.Uint16("address", addr),
		zap.Bool("volatile", o.volatile))
	return v, nil
}

// Variable returns a named declaration.
func (d *Device) Variable(name string) (ctype.Value, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.vars[name]
	return v, ok
}

// Variables returns the declared names in declaration order.
func (d *Device) Variables() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.order...)
}

// SortedVariables returns the declared names in lexical order.
func (d *Device) SortedVariables() []string {
	names := d.Variables()
	sort.Strings(names)
	return names
}

// Lookup resolves a path such as "cfg.table[2].gain". The first segment
// names a declared variable.
func (d *Device) Lookup(path string) (ctype.Value, error) {
	segs, err := ctype.ParsePath(path)
	if err != nil {
		return nil, err
	}
	if segs[0].IsIndex {
		return nil, errors.InvalidInput(errors.PhaseLayout, "path %q must start with a variable name", path)
	}
	root, ok := d.Variable(segs[0].Name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseLayout, "variable", segs[0].Name)
	}
	return ctype.ResolveSegments(root, segs[1:])
}

// Read looks up path and reads it.
func (d *Device) Read(ctx context.Context, path string) (any, error) {
	v, err := d.Lookup(path)
	if err != nil {
		return nil, err
	}
	return v.Read(ctx)
}

// Write looks up path and writes value to it.
func (d *Device) Write(ctx context.Context, path string, value any) error {
	v, err := d.Lookup(path)
	if err != nil {
		return err
	}
	return v.Write(ctx, value)
}
