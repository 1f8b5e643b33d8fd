package models

// CreateCategoryRequest is the body of POST /api/categories.
type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Order       *int   `json:"order"`
}

// UpdateCategoryRequest is the body of PUT /api/categories. Nil fields are left unchanged.
type UpdateCategoryRequest struct {
	ID          string  `json:"id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Order       *int    `json:"order"`
}

// Fields returns the document fields to set.
func (req *UpdateCategoryRequest) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Icon != nil {
		fields["icon"] = *req.Icon
	}
	if req.Order != nil {
		fields["order"] = *req.Order
	}
	return fields
}

// CreateMenuItemRequest is the body of POST /api/menu.
type CreateMenuItemRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Category    string   `json:"category"`
	Image       string   `json:"image"`
	Available   *bool    `json:"available"`
	Ingredients []string `json:"ingredients"`
	Allergens   []string `json:"allergens"`
}

// UpdateMenuItemRequest is the body of PUT /api/menu. Nil fields are left unchanged.
type UpdateMenuItemRequest struct {
	ID          string    `json:"id"`
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Category    *string   `json:"category"`
	Image       *string   `json:"image"`
	Available   *bool     `json:"available"`
	Ingredients *[]string `json:"ingredients"`
	Allergens   *[]string `json:"allergens"`
}

func (req *UpdateMenuItemRequest) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Price != nil {
		fields["price"] = *req.Price
	}
	if req.Category != nil {
		fields["category"] = *req.Category
	}
	if req.Image != nil {
		fields["image"] = *req.Image
	}
	if req.Available != nil {
		fields["available"] = *req.Available
	}
	if req.Ingredients != nil {
		fields["ingredients"] = *req.Ingredients
	}
	if req.Allergens != nil {
		fields["allergens"] = *req.Allergens
	}
	return fields
}
