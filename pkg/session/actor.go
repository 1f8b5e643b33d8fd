package session

import (
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/qrdine/pkg/cart"
	"github.com/example/qrdine/pkg/checkout"
	"github.com/example/qrdine/pkg/metrics"
	"go.uber.org/zap"
)

// cartActor owns one session's cart. Messages are handled one at a time, so a
// second checkout queued behind a successful one finds the cart empty.
type cartActor struct {
	id        string
	cart      *cart.Cart
	idle      time.Duration
	submitter checkout.Submitter
	metrics   *metrics.Metrics
	onStopped func(id string)
	logger    *zap.Logger
}

func (a *cartActor) view() *View {
	return &View{
		Items:     a.cart.Items(),
		Total:     a.cart.Total(),
		ItemCount: a.cart.ItemCount(),
	}
}

func (a *cartActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		a.cart = cart.New()
		if a.idle > 0 {
			ctx.SetReceiveTimeout(a.idle)
		}
		a.logger.Debug("Cart session started")

	case *AddItem:
		a.cart.AddItem(msg.Item, msg.Quantity, msg.Instructions)
		ctx.Respond(a.view())

	case *RemoveItem:
		a.cart.RemoveItem(msg.ItemID)
		ctx.Respond(a.view())

	case *UpdateQuantity:
		a.cart.UpdateQuantity(msg.ItemID, msg.Quantity)
		ctx.Respond(a.view())

	case *ClearCart:
		a.cart.Clear()
		ctx.Respond(a.view())

	case *GetCart:
		ctx.Respond(a.view())

	case *Checkout:
		res, err := checkout.Submit(msg.Ctx, a.cart, msg.Request, a.submitter)
		switch {
		case err != nil:
			a.metrics.Checkout("failed")
			a.logger.Warn("Checkout failed", zap.String("table", msg.Request.TableNumber), zap.Error(err))
		case res.Skipped:
			a.metrics.Checkout("empty")
		default:
			a.metrics.Checkout("placed")
			a.logger.Info("Checkout placed order",
				zap.String("orderId", res.OrderID),
				zap.String("table", msg.Request.TableNumber))
		}
		ctx.Respond(&CheckoutResult{Result: res, Err: err})

	case *actor.ReceiveTimeout:
		a.logger.Info("Cart session idle, ending")
		ctx.Stop(ctx.Self())

	case *actor.Stopped:
		if a.onStopped != nil {
			a.onStopped(a.id)
		}
		a.logger.Debug("Cart session stopped")
	}
}
