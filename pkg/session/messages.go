package session

import (
	"context"

	"github.com/example/qrdine/pkg/checkout"
	"github.com/example/qrdine/pkg/models"
)

// Cart actions
type AddItem struct {
	Item         models.MenuItem
	Quantity     int
	Instructions string
}

type RemoveItem struct {
	ItemID string
}

type UpdateQuantity struct {
	ItemID   string
	Quantity int
}

type ClearCart struct{}

type GetCart struct{}

// Checkout submits the cart. Ctx bounds the submission call.
type Checkout struct {
	Ctx     context.Context
	Request checkout.Request
}

// View is the cart state returned after every action.
type View struct {
	Items     []models.CartItem `json:"items"`
	Total     float64           `json:"total"`
	ItemCount int               `json:"itemCount"`
}

type CheckoutResult struct {
	Result checkout.Result
	Err    error
}
