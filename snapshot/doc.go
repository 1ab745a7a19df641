// Package snapshot saves and restores the canonical bytes of bound values.
//
// A snapshot records the type name, memory kind and address of a value
// next to its bytes, so a restore can refuse a layout that changed in the
// meantime. Files are CBOR.
package snapshot
