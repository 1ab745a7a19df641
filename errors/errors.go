package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseTransport Phase = "transport" // byte channel I/O
	PhaseProtocol  Phase = "protocol"  // GET/SET framing and handshake
	PhaseTranslate Phase = "translate" // pointer value to device address
	PhaseEncode    Phase = "encode"    // native value to canonical bytes
	PhaseDecode    Phase = "decode"    // canonical bytes to native value
	PhaseRead      Phase = "read"      // bound value read
	PhaseWrite     Phase = "write"     // bound value write
	PhaseConfig    Phase = "config"    // address space and backend setup
	PhaseLayout    Phase = "layout"    // type declaration and layout files
)

// Kind categorizes the error
type Kind string

const (
	KindTimeout            Kind = "timeout"
	KindFraming            Kind = "framing"
	KindRejected           Kind = "rejected"
	KindAddressTranslation Kind = "address_translation"
	KindArity              Kind = "arity"
	KindConversion         Kind = "conversion"
	KindUnknownMemoryKind  Kind = "unknown_memory_kind"
	KindClosed             Kind = "closed"
	KindIO                 Kind = "io"
	KindInvalidInput       Kind = "invalid_input"
	KindNotFound           Kind = "not_found"
	KindOutOfBounds        Kind = "out_of_bounds"
	KindUnsupported        Kind = "unsupported"
)

// Sentinels for errors.Is. They match any phase.
var (
	ErrTimeout            = &Error{Kind: KindTimeout}
	ErrFraming            = &Error{Kind: KindFraming}
	ErrRejected           = &Error{Kind: KindRejected}
	ErrAddressTranslation = &Error{Kind: KindAddressTranslation}
	ErrArity              = &Error{Kind: KindArity}
	ErrConversion         = &Error{Kind: KindConversion}
	ErrUnknownMemoryKind  = &Error{Kind: KindUnknownMemoryKind}
	ErrClosed             = &Error{Kind: KindClosed}

	// ErrDeviceRejected is a NACK observed on the wire.
	ErrDeviceRejected = &Error{Phase: PhaseProtocol, Kind: KindRejected}
	// ErrRemoteWriteRejected is a store refused by the device.
	ErrRemoteWriteRejected = &Error{Phase: PhaseWrite, Kind: KindRejected}
)

// Txn describes the wire transaction an error occurred in.
type Txn struct {
	Op      string // "GET" or "SET"
	Address uint16
	Length  int
}

func (t Txn) String() string {
	return fmt.Sprintf("%s 0x%04X/%d", t.Op, t.Address, t.Length)
}

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Txn    *Txn
	Phase  Phase
	Kind   Kind
	CType  string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(JoinPath(e.Path))
	}

	if e.Txn != nil {
		b.WriteString(" during ")
		b.WriteString(e.Txn.String())
	}

	if e.CType != "" {
		b.WriteString(": C type ")
		b.WriteString(e.CType)
	}

	if e.Detail != "" {
		if e.CType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// An empty Phase on the target matches any phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Phase == "" || t.Phase == e.Phase
}

// JoinPath renders a field path. Index segments ("[3]") attach to the
// preceding segment without a dot.
func JoinPath(path []string) string {
	var b strings.Builder
	for i, p := range path {
		if i > 0 && !strings.HasPrefix(p, "[") {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// CType sets the C type name
func (b *Builder) CType(t string) *Builder {
	b.err.CType = t
	return b
}

// Txn sets the wire transaction context
func (b *Builder) Txn(op string, address uint16, length int) *Builder {
	b.err.Txn = &Txn{Op: op, Address: address, Length: length}
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Timeout creates a transport timeout error
func Timeout(detail string) *Error {
	return &Error{
		Phase:  PhaseTransport,
		Kind:   KindTimeout,
		Detail: detail,
	}
}

// Framing creates a framing error for an unexpected byte on the wire
func Framing(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseProtocol,
		Kind:   KindFraming,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// DeviceRejected creates an error for a NACK received from the device
func DeviceRejected(detail string) *Error {
	return &Error{
		Phase:  PhaseProtocol,
		Kind:   KindRejected,
		Detail: detail,
	}
}

// RemoteWriteRejected creates an error for a store the device refused
func RemoteWriteRejected(path []string, address uint16, length int) *Error {
	return &Error{
		Phase:  PhaseWrite,
		Kind:   KindRejected,
		Path:   path,
		Txn:    &Txn{Op: "SET", Address: address, Length: length},
		Detail: "device did not accept the change",
	}
}

// AddressTranslation creates a pointer translation error
func AddressTranslation(raw uint16, kind string, detail string) *Error {
	return &Error{
		Phase:  PhaseTranslate,
		Kind:   KindAddressTranslation,
		CType:  kind,
		Value:  raw,
		Detail: fmt.Sprintf("pointer value 0x%04X: %s", raw, detail),
	}
}

// UnknownMemoryKind creates an error for a memory kind with no configuration
func UnknownMemoryKind(phase Phase, kind string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownMemoryKind,
		Value:  kind,
		Detail: fmt.Sprintf("memory kind %q has no registered configuration", kind),
	}
}

// Arity creates a value count mismatch error
func Arity(phase Phase, path []string, want, got int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindArity,
		Path:   path,
		Value:  got,
		Detail: fmt.Sprintf("expected %d value(s), got %d", want, got),
	}
}

// Conversion creates an error for a value that has no canonical form
func Conversion(path []string, value any, ctype string, detail string) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindConversion,
		Path:   path,
		CType:  ctype,
		Value:  value,
		Detail: detail,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Closed creates an error for an operation on a closed channel
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s is closed", what),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// WithTxn attaches transaction context to err. A structured error without
// a transaction gets the context in place; anything else is wrapped as a
// transport failure.
func WithTxn(err error, op string, address uint16, length int) error {
	if err == nil {
		return nil
	}
	txn := &Txn{Op: op, Address: address, Length: length}
	if e, ok := err.(*Error); ok {
		if e.Txn == nil {
			e.Txn = txn
		}
		return e
	}
	return &Error{
		Phase: PhaseTransport,
		Kind:  KindIO,
		Txn:   txn,
		Cause: err,
	}
}

// KindOf returns the Kind of a structured error, or "" for anything else.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// WithPath sets the field path of a structured error that has none.
// Other errors are returned unchanged.
func WithPath(err error, path []string) error {
	var e *Error
	if len(path) == 0 || !As(err, &e) {
		return err
	}
	if len(e.Path) == 0 {
		e.Path = append([]string(nil), path...)
	}
	return err
}
