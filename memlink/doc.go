// Package memlink binds a value to its location in device memory.
//
// A Link knows a base, an offset, the memory kind and whether the value is
// volatile. Its absolute device address is the base address plus the
// offset, where the base is a fixed address, another Link (for fields of a
// composite), or a pointer whose current value is translated into the
// target's address. Links of composite fields are derived with Chain and
// never modify their parent.
//
// Each Link keeps a mirror of the last canonical bytes seen. Retrieve
// skips the wire while the link is fresh; a link becomes fresh after a
// successful read or accepted write, unless it is volatile.
//
// Transfers longer than facade.MaxTransfer are split into consecutive
// transactions and are therefore not atomic.
package memlink
