package gateway

import (
	"time"

	"github.com/example/qrdine/pkg/live"
	"github.com/example/qrdine/pkg/menu"
	"github.com/example/qrdine/pkg/models"
	"github.com/example/qrdine/pkg/repository"
	"github.com/gin-gonic/gin"
)

// serveStream relays subscription snapshots as server-sent events until the
// client goes away or the subscription ends. render may reshape each
// snapshot before it is sent.
func serveStream[T any](g *Gateway, c *gin.Context, collection string, sub *live.Subscription[T], render func([]T) []T) {
	defer sub.Cancel()
	g.services.Metrics.StreamOpened(collection)
	defer g.services.Metrics.StreamClosed(collection)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(g.heartbeat)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sub.C:
			if !ok {
				return
			}
			items := snap.Items
			if render != nil {
				items = render(items)
			}
			if items == nil {
				items = []T{}
			}
			c.SSEvent("snapshot", live.Snapshot[T]{Items: items, At: snap.At})
			c.Writer.Flush()
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().UTC().Unix())
			c.Writer.Flush()
		}
	}
}

func (g *Gateway) streamCategories(c *gin.Context) {
	sub, err := g.services.Catalog.WatchCategories(c.Request.Context())
	if err != nil {
		g.fail(c, err, "Failed to fetch categories", "")
		return
	}
	serveStream(g, c, repository.CategoriesCollection, sub, nil)
}

// streamMenu sends the menu filtered to ?category=, "all" by default.
func (g *Gateway) streamMenu(c *gin.Context) {
	sub, err := g.services.Catalog.WatchMenu(c.Request.Context())
	if err != nil {
		g.fail(c, err, "Failed to fetch menu", "")
		return
	}

	view := menu.NewView()
	view.Select(c.DefaultQuery("category", menu.AllCategories))
	serveStream(g, c, repository.MenusCollection, sub, func(items []models.MenuItem) []models.MenuItem {
		view.SetItems(items)
		return view.Visible()
	})
}

func (g *Gateway) streamOrders(c *gin.Context) {
	sub, err := g.services.Orders.WatchOrders(c.Request.Context())
	if err != nil {
		g.fail(c, err, "Failed to fetch orders", "")
		return
	}
	serveStream(g, c, repository.OrdersCollection, sub, nil)
}

func (g *Gateway) streamWaiterCalls(c *gin.Context) {
	sub, err := g.services.Waiters.WatchActive(c.Request.Context())
	if err != nil {
		g.fail(c, err, "Failed to fetch waiter calls", "")
		return
	}
	serveStream(g, c, repository.WaiterCallsCollection, sub, nil)
}
