// Package checkout turns a diner's cart into an order.
package checkout

import (
	"context"
	"fmt"

	"github.com/example/qrdine/pkg/cart"
	"github.com/example/qrdine/pkg/models"
)

const (
	NoticeSuccess = "Order placed successfully!"
	NoticeFailure = "Failed to place order. Please try again."
)

// Submitter sends an order creation request and returns the new order id.
type Submitter interface {
	SubmitOrder(ctx context.Context, req models.CreateOrderRequest, idempotencyKey string) (string, error)
}

type Request struct {
	TableNumber         string
	SpecialInstructions string
	// IdempotencyKey is optional. Reusing it makes a retried click return
	// the first order instead of creating a second one.
	IdempotencyKey string
}

type Result struct {
	OrderID string
	Total   float64
	// Skipped is set when the cart was empty and nothing was sent.
	Skipped bool
	Notice  string
}

// Submit sends the cart contents as one order. An empty cart is a no-op. The
// cart is cleared only after the submitter acknowledges the order; on any
// failure it is left as it was. There is no retry.
func Submit(ctx context.Context, c *cart.Cart, req Request, s Submitter) (Result, error) {
	if c.IsEmpty() {
		return Result{Skipped: true}, nil
	}

	total := c.Total()
	order := models.CreateOrderRequest{
		TableNumber:         models.TableNumber(req.TableNumber),
		Items:               c.Items(),
		Total:               &total,
		SpecialInstructions: req.SpecialInstructions,
	}

	id, err := s.SubmitOrder(ctx, order, req.IdempotencyKey)
	if err != nil {
		return Result{Total: total, Notice: NoticeFailure}, fmt.Errorf("submit order: %w", err)
	}

	c.Clear()
	return Result{OrderID: id, Total: total, Notice: NoticeSuccess}, nil
}
