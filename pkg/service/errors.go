package service

import "errors"

var ErrValidation = errors.New("validation failed")

// ValidationError carries the client-facing message for a rejected request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

const (
	MsgCategoryNameRequired = "Category name is required"
	MsgCategoryIDRequired   = "Category ID is required"
	MsgMenuFieldsRequired   = "Missing required fields: name, price, category"
	MsgMenuItemIDRequired   = "Menu item ID is required"
	MsgNegativePrice        = "Price must not be negative"
	MsgOrderFieldsRequired  = "Missing required fields"
	MsgItemQuantity         = "Item quantity must be at least 1"
	MsgInvalidStatus        = "Invalid order status"
	MsgTableRequired        = "Table number is required"
)
