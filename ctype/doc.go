// Package ctype declares C memory layouts and binds them to device memory.
//
// A *Type is an immutable declaration: a primitive (unsigned and signed
// integers of any width up to 64 bits, the 24-bit float, fixed character
// buffers), a pointer, a struct with ordered fields, or a fixed-length
// array. Sizes are packed; a struct's size is the sum of its fields in
// declaration order.
//
//	abT := ctype.StructOf("ab_t",
//		ctype.F("a", ctype.Uint8),
//		ctype.F("b", ctype.Uint16),
//	)
//
// Binding a declaration to a memlink.Link yields a Value tree with one
// child per field or element, each on a link chained at the field's
// offset. Values read and write through their links:
//
//	v := ctype.Bind(abT, link).(*ctype.Struct)
//	err := v.Write(ctx, []any{8, 1000}) // one SET of 3 bytes
//	b, err := v.Field("b").Read(ctx)    // uint64(1000)
//
// Struct reads return a Record in field order; array reads return []any.
// Writes check the number of supplied values against the shape of the
// whole tree before any I/O, then encode and store the composite in a
// single transfer.
//
// Values are not safe for concurrent use; the protocol engine serializes
// the wire but not the mirrors.
package ctype
