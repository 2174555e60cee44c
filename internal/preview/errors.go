package preview

import "fmt"

// Kind identifies the first pipeline stage that failed.
type Kind int

const (
	// KindUnknown wraps unexpected failures from the codec layers.
	KindUnknown Kind = iota
	// KindEmptyInput is returned for zero-length input before any decode
	// is attempted.
	KindEmptyInput
	// KindOpenFailed covers input file or buffer open failures.
	KindOpenFailed
	// KindUnpackFailed is a RAW sensor-data read failure; DNG variants
	// carry an advisory sub-reason in the message.
	KindUnpackFailed
	// KindDecodeFailed is a JPEG or generic raster decode failure and
	// carries the underlying decoder's diagnostic.
	KindDecodeFailed
	// KindUnsupportedFormat means the decoded intermediate is not an
	// 8-bit 3-channel bitmap.
	KindUnsupportedFormat
	// KindEncodeFailed is a JPEG compression failure.
	KindEncodeFailed
	// KindWriteFailed is an output write failure after a successful encode.
	KindWriteFailed
)

// String returns the stable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindEmptyInput:
		return "empty input"
	case KindOpenFailed:
		return "open failed"
	case KindUnpackFailed:
		return "unpack failed"
	case KindDecodeFailed:
		return "decode failed"
	case KindUnsupportedFormat:
		return "unsupported intermediate format"
	case KindEncodeFailed:
		return "encode failed"
	case KindWriteFailed:
		return "write failed"
	default:
		return "unknown"
	}
}

// Error is the per-call pipeline error: the failing stage's kind plus the
// wrapped cause. It replaces the process-wide last-error string of older
// designs so concurrent calls cannot interfere.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "preview: " + e.Kind.String()
	}
	return fmt.Sprintf("preview: %s: %v", e.Kind, e.Err)
}

// Unwrap exposes the cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so callers can compare against
// the exported sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrEmptyInput        = &Error{Kind: KindEmptyInput}
	ErrOpenFailed        = &Error{Kind: KindOpenFailed}
	ErrUnpackFailed      = &Error{Kind: KindUnpackFailed}
	ErrDecodeFailed      = &Error{Kind: KindDecodeFailed}
	ErrUnsupportedFormat = &Error{Kind: KindUnsupportedFormat}
	ErrEncodeFailed      = &Error{Kind: KindEncodeFailed}
	ErrWriteFailed       = &Error{Kind: KindWriteFailed}
	ErrUnknown           = &Error{Kind: KindUnknown}
)

func failure(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func failuref(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}
