package stego

import "errors"

// ErrorKind classifies codec failures.
type ErrorKind int

const (
	KindFormat ErrorKind = iota + 1
	KindCapacity
	KindEncode
	KindInsufficientData
	KindDecryption
	KindEncryption
)

func (k ErrorKind) String() string {
	switch k {
	case KindFormat:
		return "format error"
	case KindCapacity:
		return "capacity error"
	case KindEncode:
		return "encode error"
	case KindInsufficientData:
		return "insufficient data"
	case KindDecryption:
		return "decryption error"
	case KindEncryption:
		return "encryption error"
	default:
		return "unknown error"
	}
}

// Label is the snake_case form of the kind, for metric labels.
func (k ErrorKind) Label() string {
	switch k {
	case KindFormat:
		return "format_error"
	case KindCapacity:
		return "capacity_error"
	case KindEncode:
		return "encode_error"
	case KindInsufficientData:
		return "insufficient_data"
	case KindDecryption:
		return "decryption_error"
	case KindEncryption:
		return "encryption_error"
	default:
		return "unknown_error"
	}
}

// Error is the only error type returned by the codec.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match against a bare sentinel of the same kind, so
// errors.Is(err, ErrCapacity) works for any capacity failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Detail != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrFormat           = &Error{Kind: KindFormat}
	ErrCapacity         = &Error{Kind: KindCapacity}
	ErrEncode           = &Error{Kind: KindEncode}
	ErrInsufficientData = &Error{Kind: KindInsufficientData}
	ErrDecryption       = &Error{Kind: KindDecryption}
	ErrEncryption       = &Error{Kind: KindEncryption}
)

// KindOf returns the kind of a codec error, or 0 for anything else.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind ErrorKind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}
