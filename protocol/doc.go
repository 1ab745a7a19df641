// Package protocol implements the host side of the GET/SET memory access
// protocol spoken by the device firmware.
//
// The host is always the initiator. A GET command is the byte 'G' followed
// by the escaped little-endian address and a one-byte length; the device
// answers with length data bytes and a trailing ACK or NACK. A SET command
// is 'S', the escaped address, length and payload; the device answers with
// a single ACK or NACK.
//
// Escaping replaces a reserved byte b with ESC, ESC^b^0x55. The host
// escapes ESC, 'X', 'G' and 'S'; the device escapes ESC, ACK and NACK.
//
// An Engine serializes all transactions on its channel with one mutex and
// flushes stale input before each command. Nothing is retried; timeouts,
// framing errors and rejections are returned to the caller with the
// transaction attached.
//
//	eng := protocol.New(ch, protocol.WithLogger(log))
//	err := eng.Session(func(e *protocol.Engine) error {
//		data, err := e.GetData(ctx, 0xE000, 4)
//		...
//	})
package protocol
