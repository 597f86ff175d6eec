package game

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalPlacement  = errors.New("illegal placement")
	ErrNoLegalPlacement  = errors.New("no legal placement")
	ErrInvalidDimensions = errors.New("invalid board dimensions")
)

// IllegalPlacement describes a placement that was refused. The board it was
// attempted on is left unchanged.
type IllegalPlacement struct {
	Kind     Kind
	Rotation int
	Column   int
}

func (e *IllegalPlacement) Error() string {
	return fmt.Sprintf("illegal placement: piece %s rotation %d column %d", e.Kind, e.Rotation, e.Column)
}

func (e *IllegalPlacement) Unwrap() error {
	return ErrIllegalPlacement
}
