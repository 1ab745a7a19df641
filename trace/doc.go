// Package trace records wire transactions to CBOR files.
//
// Each GET or SET performed by a protocol engine becomes one Event. A
// FileRecorder appends events to a file as a stream of CBOR items; a
// Reader streams them back:
//
//	rec, err := trace.NewFileRecorder("session.ftrace")
//	eng := protocol.New(ch, protocol.WithRecorder(rec))
//	...
//	events, err := trace.ReadFile("session.ftrace")
package trace
