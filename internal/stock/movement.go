package stock

import (
	"fmt"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
)

// ValidateMovement checks a request before any lock is taken. IN and OUT need
// a positive magnitude; ADJUSTMENT takes an absolute target that may be zero.
// No magnitude may exceed model.MaxQuantity.
func ValidateMovement(t model.MovementType, magnitude int64) error {
	if !t.Valid() {
		return apperror.ErrInvalidMovementType
	}
	if magnitude > model.MaxQuantity {
		return apperror.ErrQuantityLimit
	}
	switch t {
	case model.MovementIn, model.MovementOut:
		if magnitude <= 0 {
			return apperror.ErrInvalidMagnitude
		}
	case model.MovementAdjustment:
		if magnitude < 0 {
			return apperror.ErrInvalidTarget
		}
	}
	return nil
}

// NextQuantity applies a movement to prev. It never clamps: an OUT larger than
// prev is rejected.
func NextQuantity(prev int64, t model.MovementType, magnitude int64) (int64, error) {
	if err := ValidateMovement(t, magnitude); err != nil {
		return prev, err
	}
	switch t {
	case model.MovementIn:
		if magnitude > model.MaxQuantity-prev {
			return prev, apperror.Wrap(apperror.ErrQuantityLimit,
				fmt.Errorf("%d + %d exceeds %d", prev, magnitude, model.MaxQuantity))
		}
		return prev + magnitude, nil
	case model.MovementOut:
		if magnitude > prev {
			return prev, apperror.Wrap(apperror.ErrInsufficientStock,
				fmt.Errorf("requested %d, available %d", magnitude, prev))
		}
		return prev - magnitude, nil
	default:
		return magnitude, nil
	}
}
