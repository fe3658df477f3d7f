package feed

import "errors"

// Kind classifies controller failures for transport mapping.
type Kind int

const (
	KindUnknown Kind = iota
	KindCollaboratorUnavailable
	KindInvalidFilter
	KindNotFound
	KindUpdateFailed
)

var (
	ErrCollaboratorUnavailable = errors.New("message store unavailable")
	ErrInvalidFilter           = errors.New("invalid filter")
	ErrNotFound                = errors.New("not found")
	ErrUpdateFailed            = errors.New("update failed")
)

func (k Kind) sentinel() error {
	switch k {
	case KindCollaboratorUnavailable:
		return ErrCollaboratorUnavailable
	case KindInvalidFilter:
		return ErrInvalidFilter
	case KindNotFound:
		return ErrNotFound
	case KindUpdateFailed:
		return ErrUpdateFailed
	}
	return nil
}

func (k Kind) String() string {
	switch k {
	case KindCollaboratorUnavailable:
		return "collaborator_unavailable"
	case KindInvalidFilter:
		return "invalid_filter"
	case KindNotFound:
		return "not_found"
	case KindUpdateFailed:
		return "update_failed"
	}
	return "unknown"
}

// Error is returned by the operations that surface failures to the caller.
// errors.Is matches it against the sentinel of its Kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		if s := e.Kind.sentinel(); s != nil {
			msg = s.Error()
		} else {
			msg = e.Kind.String()
		}
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf reports the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	switch {
	case errors.Is(err, ErrCollaboratorUnavailable):
		return KindCollaboratorUnavailable
	case errors.Is(err, ErrInvalidFilter):
		return KindInvalidFilter
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUpdateFailed):
		return KindUpdateFailed
	}
	return KindUnknown
}
