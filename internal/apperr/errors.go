// Package apperr defines the business error taxonomy and how it crosses the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuthorization
	KindNotFound
	KindProductNotFound
	KindConflict
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindProductNotFound:
		return "product_not_found"
	case KindConflict:
		return "conflict"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error taşıyan mesaj kullanıcıya gösterilebilir; Storage hariç.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error    { return &Error{Kind: KindValidation, Message: msg} }
func Authorization(msg string) error { return &Error{Kind: KindAuthorization, Message: msg} }
func NotFound(msg string) error      { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) error      { return &Error{Kind: KindConflict, Message: msg} }

func ProductNotFound(name string) error {
	return &Error{
		Kind:    KindProductNotFound,
		Message: fmt.Sprintf("%q depoda bulunamadı. Lütfen önce Depo modülünden bu ürünü ekleyin.", name),
	}
}

// Storage: işlem katmanı hatası, çağıran tekrar deneyebilir
func Storage(op string, err error) error {
	return &Error{Kind: KindStorage, Message: op, Err: err}
}

// KindOf returns KindUnknown for errors outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, k Kind) bool { return KindOf(err) == k }

// IsBusiness: kullanıcıya olduğu gibi dönülebilecek, tekrar denenmeyecek hatalar
func IsBusiness(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindAuthorization, KindNotFound, KindProductNotFound, KindConflict:
		return true
	default:
		return false
	}
}

// Message returns the user-facing text of a business error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
