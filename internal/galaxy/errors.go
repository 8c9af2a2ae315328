package galaxy

import (
	"errors"
	"fmt"

	"github.com/cosmicrafts/galaxy/internal/geom"
)

var (
	// ErrNotFound means the id is not present in the index.
	ErrNotFound = errors.New("entity not found")
	// ErrDuplicateID means an insert reused a live id.
	ErrDuplicateID = errors.New("duplicate entity id")
	// ErrInvalidCoordinate means a point, radius or duration was NaN,
	// infinite or out of range.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// NotFoundError names the missing id. It matches ErrNotFound.
type NotFoundError struct {
	ID EntityID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("entity %d: %v", e.ID, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// CoordinateError names the operation and the rejected value. It matches
// ErrInvalidCoordinate.
type CoordinateError struct {
	Op     string
	Point  geom.Point
	Value  float64
	Scalar bool
}

func (e *CoordinateError) Error() string {
	if e.Scalar {
		return fmt.Sprintf("%s: %v %v", e.Op, ErrInvalidCoordinate, e.Value)
	}
	return fmt.Sprintf("%s: %v (%v, %v)", e.Op, ErrInvalidCoordinate, e.Point.X, e.Point.Y)
}

func (e *CoordinateError) Unwrap() error { return ErrInvalidCoordinate }

// DuplicateIDError names the reused id. It matches ErrDuplicateID.
type DuplicateIDError struct {
	ID EntityID
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("entity %d: %v", e.ID, ErrDuplicateID)
}

func (e *DuplicateIDError) Unwrap() error { return ErrDuplicateID }

func notFound(id EntityID) error { return &NotFoundError{ID: id} }

func checkPoint(op string, p geom.Point) error {
	if !p.Finite() {
		return &CoordinateError{Op: op, Point: p}
	}
	return nil
}

func checkScalar(op string, v float64, allowNegative bool) error {
	if !geom.Pt(v, 0).Finite() || (!allowNegative && v < 0) {
		return &CoordinateError{Op: op, Value: v, Scalar: true}
	}
	return nil
}
