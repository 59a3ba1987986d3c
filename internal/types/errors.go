package types

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidExpression  = errors.New("invalid expression")
	ErrMalformedRequest   = errors.New("malformed request")
	ErrUndeclaredVariable = errors.New("undeclared variable")
	ErrEmptyDomain        = errors.New("empty domain")
	ErrIncompatibleRanges = errors.New("incompatible ranges")
	ErrUnboundVariable    = errors.New("unbound variable")
	ErrDomainTooLarge     = errors.New("domain too large")

	// ErrInvalidRange - нарушение инварианта VariableRange, парсер протокола
	// превращает его в ErrMalformedRequest
	ErrInvalidRange = errors.New("invalid variable range")
)

// Error - ошибка уровня запроса. Error() возвращает текст, который уходит
// клиенту; errors.Is находит и вид ошибки (Kind), и исходную причину (Cause).
type Error struct {
	Kind  error
	Msg   string
	Cause error
}

func NewError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapError создает ошибку вида kind поверх cause
func WrapError(kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}
