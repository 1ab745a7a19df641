// Package errors provides structured error types for the facade library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, C type name, the wire
// transaction in progress, and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindConversion).
//		Path("cfg", "gain").
//		CType("uint16").
//		Value("fast").
//		Detail("cannot convert string to integer").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Arity(errors.PhaseWrite, path, 3, 2)
//	err := errors.AddressTranslation(0x0500, "flash", "pointer does not address flash")
//
// All errors implement the standard error interface and support errors.Is/As.
// Matching is by Kind, and also by Phase when the target sets one:
//
//	if errors.Is(err, errors.ErrTimeout) { ... }
package errors
