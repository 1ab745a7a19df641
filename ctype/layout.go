package ctype

import "sync"

// Layout describes where a type's children sit. Offsets are relative to
// the start of the value and packed.
type Layout struct {
	FieldOffs map[string]int
	Offsets   []int
	Size      int
}

// Calculator computes layouts, caching per declaration.
type Calculator struct {
	cache map[*Type]Layout
	mu    sync.Mutex
}

func NewCalculator() *Calculator {
	return &Calculator{
		cache: make(map[*Type]Layout),
	}
}

func (c *Calculator) Calculate(t *Type) Layout {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.cache[t]; ok {
		return cached
	}

	var info Layout
	switch t.kind {
	case KindStruct:
		info = calculateStruct(t)
	case KindArray:
		info = calculateArray(t)
	default:
		info = Layout{Size: t.size}
	}

	c.cache[t] = info
	return info
}

func calculateStruct(t *Type) Layout {
	fieldOffs := make(map[string]int, len(t.fields))
	offsets := make([]int, len(t.fields))
	offset := 0

	for i, field := range t.fields {
		offsets[i] = offset
		fieldOffs[field.Name] = offset
		offset += field.Type.size
	}

	return Layout{
		Size:      offset,
		Offsets:   offsets,
		FieldOffs: fieldOffs,
	}
}

func calculateArray(t *Type) Layout {
	offsets := make([]int, t.count)
	for i := range offsets {
		offsets[i] = i * t.elem.size
	}
	return Layout{Size: t.size, Offsets: offsets}
}

var defaultCalculator = NewCalculator()

// Offsets returns the child offsets of a struct or array, nil for
// primitives.
func Offsets(t *Type) []int {
	return append([]int(nil), defaultCalculator.Calculate(t).Offsets...)
}
