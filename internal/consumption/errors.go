package consumption

import (
	"errors"
	"fmt"
)

var (
	ErrRecipeNotFound    = errors.New("consumption: recipe not found")
	ErrProductNotFound   = errors.New("consumption: product not found")
	ErrLocationNotFound  = errors.New("consumption: location not found")
	ErrUnitMismatch      = errors.New("consumption: unit mismatch")
	ErrInvalidQuantity   = errors.New("consumption: quantity must be positive")
	ErrInvalidAdjustment = errors.New("consumption: adjustment type must be ADD or REMOVE")
	ErrInvalidDelivery   = errors.New("consumption: invalid delivery item")
)

// MismatchError describes an amount whose unit cannot be converted into the
// unit a product is stocked in.
type MismatchError struct {
	ProductID   string
	ProductName string
	ProductUnit string
	Unit        string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("consumption: unit mismatch for %s: product is in %s, amount is in %s", e.ProductName, e.ProductUnit, e.Unit)
}

func (e *MismatchError) Unwrap() error {
	return ErrUnitMismatch
}
