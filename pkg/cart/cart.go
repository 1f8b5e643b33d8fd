// Package cart holds a diner's in-progress selection for one browsing session.
package cart

import (
	"github.com/example/qrdine/pkg/models"
)

// Cart is an ordered set of cart items, unique by menu item id. Every entry
// has quantity >= 1.
//
// A Cart is not safe for concurrent use. Each mutation replaces the backing
// slice, so slices returned by Items stay valid after later mutations.
type Cart struct {
	items []models.CartItem
}

func New() *Cart {
	return &Cart{}
}

// AddItem appends item, or increments the existing entry by quantity. A
// quantity below one counts as one. Special instructions on an existing entry
// are only overwritten by a non-empty value.
func (c *Cart) AddItem(item models.MenuItem, quantity int, instructions string) {
	if quantity < 1 {
		quantity = 1
	}

	idx := c.indexOf(item.ID)
	if idx < 0 {
		next := make([]models.CartItem, len(c.items), len(c.items)+1)
		copy(next, c.items)
		c.items = append(next, models.CartItem{
			Item:                item,
			Quantity:            quantity,
			SpecialInstructions: instructions,
		})
		return
	}

	next := c.clone()
	next[idx].Quantity += quantity
	if instructions != "" {
		next[idx].SpecialInstructions = instructions
	}
	c.items = next
}

// RemoveItem deletes the entry for itemID. Unknown ids are ignored.
func (c *Cart) RemoveItem(itemID string) {
	idx := c.indexOf(itemID)
	if idx < 0 {
		return
	}
	next := make([]models.CartItem, 0, len(c.items)-1)
	next = append(next, c.items[:idx]...)
	next = append(next, c.items[idx+1:]...)
	c.items = next
}

// UpdateQuantity sets the quantity of itemID to exactly quantity. A quantity
// of zero or less removes the entry.
func (c *Cart) UpdateQuantity(itemID string, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(itemID)
		return
	}
	idx := c.indexOf(itemID)
	if idx < 0 {
		return
	}
	next := c.clone()
	next[idx].Quantity = quantity
	c.items = next
}

func (c *Cart) Clear() {
	c.items = nil
}

// Total is the sum of price times quantity, recomputed on every call.
func (c *Cart) Total() float64 {
	total := 0.0
	for _, ci := range c.items {
		total += ci.Subtotal()
	}
	return total
}

// ItemCount is the sum of quantities.
func (c *Cart) ItemCount() int {
	count := 0
	for _, ci := range c.items {
		count += ci.Quantity
	}
	return count
}

// Items returns the current entries in insertion order.
func (c *Cart) Items() []models.CartItem {
	return c.items
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

func (c *Cart) indexOf(itemID string) int {
	for i, ci := range c.items {
		if ci.Item.ID == itemID {
			return i
		}
	}
	return -1
}

func (c *Cart) clone() []models.CartItem {
	next := make([]models.CartItem, len(c.items))
	copy(next, c.items)
	return next
}
