package models

// Category groups menu items for display. Order drives sorting and is not unique.
type Category struct {
	ID          string `bson:"_id,omitempty" json:"id"`
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description" json:"description,omitempty"`
	Icon        string `bson:"icon" json:"icon,omitempty"`
	Order       int    `bson:"order" json:"order"`
}

// MenuItem is a dish or drink offered to diners.
type MenuItem struct {
	ID          string   `bson:"_id,omitempty" json:"id"`
	Name        string   `bson:"name" json:"name"`
	Description string   `bson:"description" json:"description"`
	Price       float64  `bson:"price" json:"price"`
	Image       string   `bson:"image,omitempty" json:"image,omitempty"`
	Category    string   `bson:"category" json:"category"`
	Available   bool     `bson:"available" json:"available"`
	Ingredients []string `bson:"ingredients,omitempty" json:"ingredients,omitempty"`
	Allergens   []string `bson:"allergens,omitempty" json:"allergens,omitempty"`
}

// CartItem pairs a menu item snapshot with a quantity. The item is embedded by
// value so later menu edits do not change what was ordered.
type CartItem struct {
	Item                MenuItem `bson:"item" json:"item"`
	Quantity            int      `bson:"quantity" json:"quantity"`
	SpecialInstructions string   `bson:"specialInstructions,omitempty" json:"specialInstructions,omitempty"`
}

// Subtotal returns price times quantity.
func (ci CartItem) Subtotal() float64 {
	return ci.Item.Price * float64(ci.Quantity)
}
