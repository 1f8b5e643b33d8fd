package repository

import (
	"context"
	"errors"
	"time"

	"github.com/example/qrdine/pkg/live"
	"github.com/example/qrdine/pkg/models"
)

// Collection names in the document store.
const (
	CategoriesCollection  = "categories"
	MenusCollection       = "menus"
	OrdersCollection      = "orders"
	WaiterCallsCollection = "waiterCalls"
)

var (
	ErrNotFound = errors.New("document not found")
	// ErrConflict means a compare-and-set lost: the document was not in the
	// expected state when the write landed.
	ErrConflict = errors.New("document changed concurrently")
)

type CatalogStore interface {
	// ListCategories returns categories sorted by display order.
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	// CreateCategory stores c under c.ID, or a generated id when empty. An
	// explicit id that is already taken yields ErrConflict.
	CreateCategory(ctx context.Context, c models.Category) (string, error)
	UpdateCategory(ctx context.Context, id string, fields map[string]interface{}) error
	DeleteCategory(ctx context.Context, id string) error
	WatchCategories(ctx context.Context) (*live.Subscription[models.Category], error)

	// ListMenuItems returns menu items sorted by name.
	ListMenuItems(ctx context.Context) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error)
	CreateMenuItem(ctx context.Context, item models.MenuItem) (string, error)
	UpdateMenuItem(ctx context.Context, id string, fields map[string]interface{}) error
	DeleteMenuItem(ctx context.Context, id string) error
	WatchMenu(ctx context.Context) (*live.Subscription[models.MenuItem], error)
}

type OrderStore interface {
	// CreateOrder stores a new pending order, assigning the id and both
	// timestamps.
	CreateOrder(ctx context.Context, o models.Order) (models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	// ListOrders returns orders newest first, restricted to table when set.
	ListOrders(ctx context.Context, table string) ([]models.Order, error)
	// UpdateOrderStatus sets status to `to` only while it is still `from`.
	// A non-empty staffID is recorded as the order's waiter.
	UpdateOrderStatus(ctx context.Context, id string, from, to models.OrderStatus, staffID string, at time.Time) error
	WatchOrders(ctx context.Context) (*live.Subscription[models.Order], error)
}

type WaiterCallStore interface {
	CreateWaiterCall(ctx context.Context, call models.WaiterCall) (models.WaiterCall, error)
	GetWaiterCall(ctx context.Context, id string) (*models.WaiterCall, error)
	// ListActiveWaiterCalls returns active calls newest first.
	ListActiveWaiterCalls(ctx context.Context) ([]models.WaiterCall, error)
	// ResolveWaiterCall records the resolution only while the call is active.
	ResolveWaiterCall(ctx context.Context, id, staffID string, at time.Time) error
	WatchActiveWaiterCalls(ctx context.Context) (*live.Subscription[models.WaiterCall], error)
}

// Store is the document database behind the service.
type Store interface {
	CatalogStore
	OrderStore
	WaiterCallStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
