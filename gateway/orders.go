package gateway

import (
	"net/http"

	"github.com/example/qrdine/pkg/auth"
	"github.com/example/qrdine/pkg/models"
	"github.com/example/qrdine/pkg/ordering"
	"github.com/example/qrdine/pkg/service"
	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

func (g *Gateway) createOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidBody)
		return
	}

	order, replayed, err := g.services.Orders.CreateOrder(c.Request.Context(), req, c.GetHeader(idempotencyHeader))
	if err != nil {
		g.fail(c, err, "Failed to create order", "Order not found")
		return
	}
	if replayed {
		c.Header("Idempotent-Replayed", "true")
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"orderId": order.ID,
		"message": "Order created successfully",
	})
}

// listOrders is informational: diners and staff follow orders through the
// live stream.
func (g *Gateway) listOrders(c *gin.Context) {
	var table interface{}
	if t := c.Query("table"); t != "" {
		table = t
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Use /api/orders/stream for real-time updates",
		"tableNumber": table,
	})
}

func (g *Gateway) updateOrderStatus(c *gin.Context) {
	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidBody)
		return
	}

	identity, _ := auth.IdentityFrom(c)
	order, err := g.services.Orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, identity.StaffID)
	if err != nil {
		g.fail(c, err, "Failed to update order", "Order not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order":   order,
		"actions": ordering.Actions(order.Status),
	})
}

func (g *Gateway) dashboard(c *gin.Context) {
	d, err := service.LoadDashboard(c.Request.Context(), g.services.Orders, g.services.Waiters)
	if err != nil {
		g.fail(c, err, "Failed to load dashboard", "")
		return
	}

	actions := make(map[string][]ordering.Action, len(d.Orders))
	for _, o := range d.Orders {
		if a := ordering.Actions(o.Status); len(a) > 0 {
			actions[o.ID] = a
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"summary":     d.Summary,
		"orders":      d.Orders,
		"waiterCalls": d.WaiterCalls,
		"actions":     actions,
	})
}

func (g *Gateway) callWaiter(c *gin.Context) {
	var req models.WaiterCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidBody)
		return
	}

	call, err := g.services.Waiters.Call(c.Request.Context(), req)
	if err != nil {
		g.fail(c, err, "Failed to call waiter", "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"callId":  call.ID,
		"message": "Waiter called successfully",
	})
}

func (g *Gateway) resolveWaiterCall(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)
	call, err := g.services.Waiters.Resolve(c.Request.Context(), c.Param("id"), identity.StaffID)
	if err != nil {
		g.fail(c, err, "Failed to resolve waiter call", "Waiter call not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "call": call})
}
