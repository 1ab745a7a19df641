package ctype

import (
	"context"

	"github.com/wippyai/mcu-facade/errors"
)

// ReadCanonical fetches the whole value from the device in one pass,
// bypassing the mirror, and returns its canonical bytes. Child mirrors
// are refreshed from the result.
func ReadCanonical(ctx context.Context, v Value) ([]byte, error) {
	link := v.Link()
	link.Invalidate()
	b, err := link.Retrieve(ctx, v.Len())
	if err != nil {
		v.invalidate()
		return nil, errors.WithPath(err, v.Path())
	}
	v.absorb(b)
	return b, nil
}

// WriteCanonical stores raw canonical bytes as the whole value.
func WriteCanonical(ctx context.Context, v Value, b []byte) error {
	if len(b) != v.Len() {
		return errors.New(errors.PhaseWrite, errors.KindInvalidInput).
			Path(v.Path()...).CType(v.Type().Name()).
			Detail("expected %d bytes, got %d", v.Len(), len(b)).Build()
	}
	if err := v.Link().Store(ctx, b); err != nil {
		v.invalidate()
		return errors.WithPath(err, v.Path())
	}
	v.absorb(b)
	return nil
}
