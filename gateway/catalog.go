package gateway

import (
	"net/http"

	"github.com/example/qrdine/pkg/models"
	"github.com/gin-gonic/gin"
)

func (g *Gateway) listCategories(c *gin.Context) {
	categories, err := g.services.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		g.fail(c, err, "Failed to fetch categories", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "categories": categories})
}

func (g *Gateway) createCategory(c *gin.Context) {
	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidBody)
		return
	}

	id, err := g.services.Catalog.CreateCategory(c.Request.Context(), req)
	if err != nil {
		g.fail(c, err, "Failed to create category", "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"categoryId": id,
		"message":    "Category created successfully",
	})
}

func (g *Gateway) updateCategory(c *gin.Context) {
	var req models.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidBody)
		return
	}

	if err := g.services.Catalog.UpdateCategory(c.Request.Context(), req); err != nil {
		g.fail(c, err, "Failed to update category", "Category not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Category updated successfully"})
}

func (g *Gateway) deleteCategory(c *gin.Context) {
	if err := g.services.Catalog.DeleteCategory(c.Request.Context(), c.Query("id")); err != nil {
		g.fail(c, err, "Failed to delete category", "Category not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Category deleted successfully"})
}

func (g *Gateway) listMenu(c *gin.Context) {
	items, err := g.services.Catalog.ListMenuItems(c.Request.Context())
	if err != nil {
		g.fail(c, err, "Failed to fetch menu", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "menus": items})
}

func (g *Gateway) createMenuItem(c *gin.Context) {
	var req models.CreateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidBody)
		return
	}

	id, err := g.services.Catalog.CreateMenuItem(c.Request.Context(), req)
	if err != nil {
		g.fail(c, err, "Failed to create menu item", "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"menuId":  id,
		"message": "Menu item created successfully",
	})
}

func (g *Gateway) updateMenuItem(c *gin.Context) {
	var req models.UpdateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidBody)
		return
	}

	if err := g.services.Catalog.UpdateMenuItem(c.Request.Context(), req); err != nil {
		g.fail(c, err, "Failed to update menu item", "Menu item not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Menu item updated successfully"})
}

func (g *Gateway) deleteMenuItem(c *gin.Context) {
	if err := g.services.Catalog.DeleteMenuItem(c.Request.Context(), c.Query("id")); err != nil {
		g.fail(c, err, "Failed to delete menu item", "Menu item not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Menu item deleted successfully"})
}
