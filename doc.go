// Package facade keeps host-side typed values synchronized with C-style
// variables living in a microcontroller's memory.
//
// Both sides agree on the memory layout out of band. The host declares the
// same layout with the ctype package, binds it to a base address and a
// memory kind, and every read or write of a bound value turns into GET/SET
// transactions of a small escaped request/response protocol.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	facade/         Root package with the Channel and Port interfaces
//	├── codec/      Canonical little-endian forms of primitive C types
//	├── addrspace/  Memory kinds, protocol sub-ranges, pointer translation backends
//	├── protocol/   GET/SET wire engine over a Channel
//	├── channel/    Serial port and TCP bridge channels
//	├── simulator/  In-process device that speaks the device side of the protocol
//	├── memlink/    Address chaining, mirror freshness, pointer-derived addresses
//	├── ctype/      Type declarations and bound values (struct, array, pointer, ...)
//	├── device/     High-level facade wiring configuration, engine and types
//	├── schema/     Layout files in YAML or TOML
//	├── trace/      CBOR wire transaction recording
//	├── snapshot/   CBOR backup and restore of bound values
//	└── errors/     Structured error types
//
// # Quick Start
//
// Declare a layout and bind it to RAM:
//
//	abT := ctype.StructOf("ab_t",
//	    ctype.F("a", ctype.Uint8),
//	    ctype.F("b", ctype.Uint16),
//	)
//
//	eng := protocol.New(ch)
//	if err := eng.Open(); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	dev, err := device.New(eng, device.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ab, err := dev.Declare(abT, addrspace.Ram, 0x0100)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = ab.Write(ctx, []any{8, 1000})
//	rec, err := ab.Read(ctx)
//
// # Volatility
//
// A value is volatile by default and every read goes to the wire. A
// non-volatile value keeps its mirror after the first read or an accepted
// write and serves later reads from it.
//
// # Thread Safety
//
// protocol.Engine serializes transactions with a single lock and is safe
// for concurrent use. Bound values and their links hold mirror state that
// is not synchronized; share them across goroutines only with external
// locking.
package facade
