// Package todoerr defines the closed set of failures surfaced to users.
//
// Backends raise whatever they like; the repository translates those into
// an Error here, and the state container renders Error.Message().
package todoerr

import (
	"errors"
	"fmt"
)

// NetworkKind classifies a transport-level failure.
type NetworkKind int

const (
	InvalidURL NetworkKind = iota + 1
	InvalidResponse
	ServerError
	DecodingError
	NoData
)

func (k NetworkKind) String() string {
	switch k {
	case InvalidURL:
		return "invalidURL"
	case InvalidResponse:
		return "invalidResponse"
	case ServerError:
		return "serverError"
	case DecodingError:
		return "decodingError"
	case NoData:
		return "noData"
	default:
		return "unknown"
	}
}

// NetworkError is a transport-level failure. Code is only meaningful for
// ServerError.
type NetworkError struct {
	Kind NetworkKind
	Code int
}

func (e NetworkError) Error() string {
	if e.Kind == ServerError {
		return fmt.Sprintf("%s(%d)", e.Kind, e.Code)
	}
	return e.Kind.String()
}

// Kind identifies the variant of an Error.
type Kind int

const (
	Network Kind = iota + 1
	NotFound
	InvalidData
	Unauthorized
	FetchFailed
	UpdateFailed
	AddFailed
	DeleteFailed
	Generic
)

func (k Kind) String() string {
	switch k {
	case Network:
		return "network"
	case NotFound:
		return "notFound"
	case InvalidData:
		return "invalidData"
	case Unauthorized:
		return "unauthorized"
	case FetchFailed:
		return "fetchFailed"
	case UpdateFailed:
		return "updateFailed"
	case AddFailed:
		return "addFailed"
	case DeleteFailed:
		return "deleteFailed"
	case Generic:
		return "genericError"
	default:
		return "unknown"
	}
}

// Error is the domain failure shown to users.
// Network is set only for Kind == Network. Detail overrides the default
// text for the parameterized kinds; empty means "use the default".
type Error struct {
	Kind    Kind
	Network NetworkError
	Detail  string
}

// Constructors, one per variant.

func NewNetwork(n NetworkError) *Error  { return &Error{Kind: Network, Network: n} }
func NewNotFound() *Error               { return &Error{Kind: NotFound} }
func NewInvalidData() *Error            { return &Error{Kind: InvalidData} }
func NewUnauthorized() *Error           { return &Error{Kind: Unauthorized} }
func NewFetchFailed(msg string) *Error  { return &Error{Kind: FetchFailed, Detail: msg} }
func NewUpdateFailed(msg string) *Error { return &Error{Kind: UpdateFailed, Detail: msg} }
func NewAddFailed(msg string) *Error    { return &Error{Kind: AddFailed, Detail: msg} }
func NewDeleteFailed(msg string) *Error { return &Error{Kind: DeleteFailed, Detail: msg} }
func NewGeneric(msg string) *Error      { return &Error{Kind: Generic, Detail: msg} }

// Message renders the user-facing text.
func (e *Error) Message() string {
	switch e.Kind {
	case Network:
		return "Network error: " + e.Network.Error()
	case NotFound:
		return "Todo not found"
	case InvalidData:
		return "Invalid data received"
	case Unauthorized:
		return "Unauthorized access"
	case FetchFailed:
		return orDefault(e.Detail, "Unable to fetch your todos.\nPlease try again later.")
	case UpdateFailed:
		return orDefault(e.Detail, "Failed to update the todo.\nPlease try again.")
	case AddFailed:
		return orDefault(e.Detail, "Unable to add new todo.\nPlease try again.")
	case DeleteFailed:
		return orDefault(e.Detail, "Failed to delete the todo.\nPlease try again.")
	default:
		return orDefault(e.Detail, "Something went wrong.\nPlease try again later.")
	}
}

func (e *Error) Error() string { return e.Message() }

// Equal reports whether both errors carry the same variant and payload.
// A nil error only equals another nil error.
func (e *Error) Equal(other *Error) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.Kind == other.Kind &&
		e.Network.Kind == other.Network.Kind &&
		e.Network.Code == other.Network.Code &&
		e.Detail == other.Detail
}

// As extracts a domain error from err's chain.
func As(err error) (*Error, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

func orDefault(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}
