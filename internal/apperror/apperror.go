package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindConflict          Kind = "CONFLICT"
	KindInvalidMovement   Kind = "INVALID_MOVEMENT"
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK"
	KindStorageFailure    Kind = "STORAGE_FAILURE"
	KindInvalidInput      Kind = "INVALID_INPUT"
	KindUnauthenticated   Kind = "UNAUTHENTICATED"
)

// Error is the typed failure returned across package boundaries. MessageID
// keys the localized text; Message is the English default.
type Error struct {
	Kind      Kind
	MessageID string
	Message   string
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind and message id so wrapped copies of a sentinel still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.MessageID == "" || e.MessageID == t.MessageID)
}

func New(kind Kind, messageID, message string) *Error {
	return &Error{Kind: kind, MessageID: messageID, Message: message}
}

// Wrap attaches cause to a copy of sentinel.
func Wrap(sentinel *Error, cause error) *Error {
	cp := *sentinel
	cp.Err = cause
	return &cp
}

// Storage wraps a persistence error. Retryable must only be set when the
// caller knows the failed attempt did not commit.
func Storage(op string, cause error, retryable bool) *Error {
	return &Error{
		Kind:      KindStorageFailure,
		MessageID: ErrStorage.MessageID,
		Message:   ErrStorage.Message,
		Err:       fmt.Errorf("%s: %w", op, cause),
		Retryable: retryable,
	}
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindStorageFailure && e.Retryable
}

var (
	ErrProductNotFound  = New(KindNotFound, "product_not_found", "product not found")
	ErrCategoryNotFound = New(KindNotFound, "category_not_found", "category not found")

	ErrSKUConflict          = New(KindConflict, "sku_conflict", "SKU already exists")
	ErrCategoryNameConflict = New(KindConflict, "category_name_conflict", "category name already exists")
	ErrCategoryInUse        = New(KindConflict, "category_in_use", "cannot delete: category has products")

	ErrInvalidMovementType = New(KindInvalidMovement, "invalid_movement_type", "type must be IN, OUT, or ADJUSTMENT")
	ErrInvalidMagnitude    = New(KindInvalidMovement, "invalid_magnitude", "quantity must be greater than 0")
	ErrInvalidTarget       = New(KindInvalidMovement, "invalid_target_quantity", "quantity must not be negative")
	ErrMissingActor        = New(KindInvalidMovement, "missing_actor", "performed_by is required")
	ErrQuantityLimit       = New(KindInvalidMovement, "quantity_limit", "quantity exceeds the allowed maximum")

	ErrInsufficientStock = New(KindInsufficientStock, "insufficient_stock", "not enough stock")

	ErrStorage     = New(KindStorageFailure, "storage_failure", "stock store unavailable")
	ErrLockTimeout = New(KindStorageFailure, "lock_timeout", "system busy, please try again later (lock)")

	ErrInvalidInput     = New(KindInvalidInput, "invalid_input", "invalid input")
	ErrNameRequired     = New(KindInvalidInput, "name_required", "name is required")
	ErrSKURequired      = New(KindInvalidInput, "sku_required", "SKU is required")
	ErrInvalidPrice     = New(KindInvalidInput, "invalid_price", "price must not be negative")
	ErrInvalidThreshold = New(KindInvalidInput, "invalid_threshold", "low stock threshold must not be negative")
	ErrInvalidQuantity  = New(KindInvalidInput, "invalid_target_quantity", "quantity must not be negative")
	ErrQuantityTooLarge = New(KindInvalidInput, "quantity_limit", "quantity exceeds the allowed maximum")
	ErrPricePrecision   = New(KindInvalidInput, "invalid_price_precision", "price must have at most 2 decimal places")

	ErrUnauthenticated = New(KindUnauthenticated, "unauthenticated", "missing principal")
)
