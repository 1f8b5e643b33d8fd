package gateway

import (
	"net/http"
	"strings"

	"github.com/example/qrdine/pkg/checkout"
	"github.com/example/qrdine/pkg/models"
	"github.com/example/qrdine/pkg/service"
	"github.com/example/qrdine/pkg/session"
	"github.com/gin-gonic/gin"
)

type addCartItemRequest struct {
	ItemID              string `json:"itemId"`
	Quantity            *int   `json:"quantity"`
	SpecialInstructions string `json:"specialInstructions"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity"`
}

type checkoutRequest struct {
	TableNumber         models.TableNumber `json:"tableNumber"`
	SpecialInstructions string             `json:"specialInstructions"`
}

func cartJSON(v session.View) gin.H {
	items := v.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return gin.H{
		"success":   true,
		"items":     items,
		"total":     v.Total,
		"itemCount": v.ItemCount,
	}
}

func (g *Gateway) startSession(c *gin.Context) {
	id, err := g.services.Sessions.Start()
	if err != nil {
		g.fail(c, err, "Failed to start session", "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "sessionId": id})
}

func (g *Gateway) endSession(c *gin.Context) {
	if err := g.services.Sessions.End(c.Param("session")); err != nil {
		g.fail(c, err, "Failed to end session", "Session not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (g *Gateway) getCart(c *gin.Context) {
	v, err := g.services.Sessions.Cart(c.Request.Context(), c.Param("session"))
	if err != nil {
		g.fail(c, err, "Failed to fetch cart", "Session not found")
		return
	}
	c.JSON(http.StatusOK, cartJSON(v))
}

func (g *Gateway) clearCart(c *gin.Context) {
	v, err := g.services.Sessions.Clear(c.Request.Context(), c.Param("session"))
	if err != nil {
		g.fail(c, err, "Failed to clear cart", "Session not found")
		return
	}
	c.JSON(http.StatusOK, cartJSON(v))
}

// addCartItem snapshots the menu item as stored now, so the cart keeps the
// price the diner saw.
func (g *Gateway) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidBody)
		return
	}
	if strings.TrimSpace(req.ItemID) == "" {
		badRequest(c, service.MsgMenuItemIDRequired)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		if *req.Quantity < 1 {
			badRequest(c, service.MsgItemQuantity)
			return
		}
		quantity = *req.Quantity
	}

	item, err := g.services.Catalog.GetMenuItem(c.Request.Context(), req.ItemID)
	if err != nil {
		g.fail(c, err, "Failed to add item to cart", "Menu item not found")
		return
	}
	if !item.Available {
		c.JSON(http.StatusConflict, gin.H{"error": "Menu item is not available"})
		return
	}

	v, err := g.services.Sessions.AddItem(c.Request.Context(), c.Param("session"), *item, quantity, req.SpecialInstructions)
	if err != nil {
		g.fail(c, err, "Failed to add item to cart", "Session not found")
		return
	}
	c.JSON(http.StatusOK, cartJSON(v))
}

// updateCartItem sets the quantity exactly; zero or less removes the item.
func (g *Gateway) updateCartItem(c *gin.Context) {
	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidBody)
		return
	}
	if req.Quantity == nil {
		badRequest(c, "Quantity is required")
		return
	}

	v, err := g.services.Sessions.UpdateQuantity(c.Request.Context(), c.Param("session"), c.Param("itemId"), *req.Quantity)
	if err != nil {
		g.fail(c, err, "Failed to update cart", "Session not found")
		return
	}
	c.JSON(http.StatusOK, cartJSON(v))
}

func (g *Gateway) removeCartItem(c *gin.Context) {
	v, err := g.services.Sessions.RemoveItem(c.Request.Context(), c.Param("session"), c.Param("itemId"))
	if err != nil {
		g.fail(c, err, "Failed to update cart", "Session not found")
		return
	}
	c.JSON(http.StatusOK, cartJSON(v))
}

func (g *Gateway) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidBody)
		return
	}
	if req.TableNumber == "" {
		badRequest(c, service.MsgTableRequired)
		return
	}

	res, err := g.services.Sessions.Checkout(c.Request.Context(), c.Param("session"), checkout.Request{
		TableNumber:         string(req.TableNumber),
		SpecialInstructions: req.SpecialInstructions,
		IdempotencyKey:      c.GetHeader(idempotencyHeader),
	})
	if err != nil {
		g.fail(c, err, checkout.NoticeFailure, "Session not found")
		return
	}
	if res.Skipped {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"orderId": res.OrderID,
		"total":   res.Total,
		"message": res.Notice,
	})
}
