package domain

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrSoldOut              = errors.New("sold out")
	ErrDuplicateCode        = errors.New("duplicate ticket code")
	ErrSerializationFailure = errors.New("serialization failure")
	ErrStorageTimeout       = errors.New("storage timeout")
	ErrStorageUnavailable   = errors.New("storage unavailable")
)

// Retryable reports whether the caller may safely retry the failed
// operation. Retryable failures never leave a partial mutation behind.
func Retryable(err error) bool {
	return errors.Is(err, ErrStorageTimeout) ||
		errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, ErrSerializationFailure)
}
