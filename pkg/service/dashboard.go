package service

import (
	"context"

	"github.com/example/qrdine/pkg/models"
	"github.com/example/qrdine/pkg/ordering"
	"golang.org/x/sync/errgroup"
)

// Dashboard is the staff overview: every order newest first, the active
// waiter calls and per-status counts.
type Dashboard struct {
	Summary     ordering.Summary    `json:"summary"`
	Orders      []models.Order      `json:"orders"`
	WaiterCalls []models.WaiterCall `json:"waiterCalls"`
}

func LoadDashboard(ctx context.Context, orders *OrderService, waiters *WaiterService) (Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Orders, err = orders.ListOrders(gctx, "")
		return err
	})
	g.Go(func() error {
		var err error
		d.WaiterCalls, err = waiters.ListActive(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	d.Summary = ordering.Summarize(d.Orders, d.WaiterCalls)
	return d, nil
}
