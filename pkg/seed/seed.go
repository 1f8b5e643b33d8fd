// Package seed holds the starter menu and staff accounts for a fresh
// restaurant.
package seed

import (
	"context"
	"errors"

	"github.com/example/qrdine/pkg/models"
	"github.com/example/qrdine/pkg/repository"
	"github.com/example/qrdine/pkg/service"
	"go.uber.org/zap"
)

var Categories = []models.Category{
	{ID: "appetizers", Name: "Appetizers", Description: "Start your meal right", Order: 1},
	{ID: "mains", Name: "Main Courses", Description: "Hearty and delicious", Order: 2},
	{ID: "desserts", Name: "Desserts", Description: "Sweet endings", Order: 3},
	{ID: "beverages", Name: "Beverages", Description: "Drinks and refreshments", Order: 4},
}

var MenuItems = []models.MenuItem{
	{ID: "caesar-salad", Name: "Caesar Salad", Description: "Fresh romaine lettuce with caesar dressing, croutons, and parmesan", Price: 8.99, Category: "appetizers", Available: true},
	{ID: "mozzarella-sticks", Name: "Mozzarella Sticks", Description: "Crispy fried mozzarella with marinara sauce", Price: 7.99, Category: "appetizers", Available: true},
	{ID: "chicken-wings", Name: "Buffalo Wings", Description: "Spicy chicken wings with blue cheese dip", Price: 12.99, Category: "appetizers", Available: true},
	{ID: "burger", Name: "Classic Burger", Description: "Beef patty with lettuce, tomato, onion, and special sauce", Price: 14.99, Category: "mains", Available: true},
	{ID: "pasta", Name: "Spaghetti Carbonara", Description: "Creamy pasta with bacon, eggs, and parmesan", Price: 16.99, Category: "mains", Available: true},
	{ID: "steak", Name: "Ribeye Steak", Description: "Grilled ribeye with mashed potatoes and vegetables", Price: 28.99, Category: "mains", Available: true},
	{ID: "salmon", Name: "Grilled Salmon", Description: "Fresh salmon with lemon butter sauce and rice", Price: 22.99, Category: "mains", Available: true},
	{ID: "chocolate-cake", Name: "Chocolate Cake", Description: "Rich chocolate cake with vanilla ice cream", Price: 7.99, Category: "desserts", Available: true},
	{ID: "cheesecake", Name: "New York Cheesecake", Description: "Classic creamy cheesecake with berry compote", Price: 8.99, Category: "desserts", Available: true},
	{ID: "cola", Name: "Cola", Description: "Refreshing cola drink", Price: 2.99, Category: "beverages", Available: true},
	{ID: "lemonade", Name: "Fresh Lemonade", Description: "Homemade lemonade", Price: 3.99, Category: "beverages", Available: true},
	{ID: "coffee", Name: "Coffee", Description: "Freshly brewed coffee", Price: 3.49, Category: "beverages", Available: true},
}

var Staff = []models.Staff{
	{ID: "staff-admin", Name: "Admin User", Email: "admin@resteau.com", Role: models.RoleAdmin, Active: true},
	{ID: "staff-waiter", Name: "Waiter User", Email: "waiter@resteau.com", Role: models.RoleWaiter, Active: true},
	{ID: "staff-cook", Name: "Cook User", Email: "cook@resteau.com", Role: models.RoleCook, Active: true},
}

// Report counts what a seeding run wrote and what was already there.
type Report struct {
	Created int
	Skipped int
}

// Catalog stores the starter categories and menu items. Documents whose id
// already exists are left alone, so running it twice is harmless.
func Catalog(ctx context.Context, catalog *service.CatalogService, logger *zap.Logger) (Report, error) {
	var r Report
	for _, c := range Categories {
		if err := r.track(catalog.SeedCategory(ctx, c)); err != nil {
			return r, err
		}
	}
	for _, item := range MenuItems {
		if err := r.track(catalog.SeedMenuItem(ctx, item)); err != nil {
			return r, err
		}
	}
	logger.Info("Seeded catalog", zap.Int("created", r.Created), zap.Int("skipped", r.Skipped))
	return r, nil
}

func (r *Report) track(err error) error {
	switch {
	case err == nil:
		r.Created++
	case errors.Is(err, repository.ErrConflict):
		r.Skipped++
	default:
		return err
	}
	return nil
}

// StaffWriter stores staff directory rows.
type StaffWriter interface {
	Upsert(ctx context.Context, staff *models.Staff) error
}

// Directory writes the starter staff accounts.
func Directory(ctx context.Context, w StaffWriter, logger *zap.Logger) error {
	for i := range Staff {
		s := Staff[i]
		if err := w.Upsert(ctx, &s); err != nil {
			return err
		}
		logger.Info("Seeded staff", zap.String("email", s.Email), zap.String("role", string(s.Role)))
	}
	return nil
}
