package repository

import (
	"context"
	"sync"
	"time"

	"github.com/example/qrdine/pkg/live"
	"github.com/example/qrdine/pkg/menu"
	"github.com/example/qrdine/pkg/models"
	"github.com/example/qrdine/pkg/ordering"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemoryStore keeps every collection in process memory. Live queries are
// driven by a live.Hub notified on each write.
type MemoryStore struct {
	mu          sync.RWMutex
	categories  map[string]models.Category
	menus       map[string]models.MenuItem
	orders      map[string]models.Order
	waiterCalls map[string]models.WaiterCall

	hub    *live.Hub
	logger *zap.Logger
}

func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		categories:  make(map[string]models.Category),
		menus:       make(map[string]models.MenuItem),
		orders:      make(map[string]models.Order),
		waiterCalls: make(map[string]models.WaiterCall),
		hub:         live.NewHub(),
		logger:      logger,
	}
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStore) Close(ctx context.Context) error {
	return nil
}

func newID() string {
	return uuid.NewString()
}

func (m *MemoryStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	m.mu.RLock()
	out := make([]models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	m.mu.RUnlock()
	menu.SortCategories(out)
	return out, nil
}

func (m *MemoryStore) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *MemoryStore) CreateCategory(ctx context.Context, c models.Category) (string, error) {
	if c.ID == "" {
		c.ID = newID()
	}
	m.mu.Lock()
	if _, ok := m.categories[c.ID]; ok {
		m.mu.Unlock()
		return "", ErrConflict
	}
	m.categories[c.ID] = c
	m.mu.Unlock()
	m.hub.Notify(CategoriesCollection)
	return c.ID, nil
}

func (m *MemoryStore) UpdateCategory(ctx context.Context, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	c, ok := m.categories[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			c.Name, _ = v.(string)
		case "description":
			c.Description, _ = v.(string)
		case "icon":
			c.Icon, _ = v.(string)
		case "order":
			c.Order, _ = v.(int)
		}
	}
	m.categories[id] = c
	m.mu.Unlock()
	m.hub.Notify(CategoriesCollection)
	return nil
}

func (m *MemoryStore) DeleteCategory(ctx context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.categories[id]
	delete(m.categories, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	m.hub.Notify(CategoriesCollection)
	return nil
}

func (m *MemoryStore) WatchCategories(ctx context.Context) (*live.Subscription[models.Category], error) {
	changes, stop := m.hub.Listen(CategoriesCollection)
	return live.Start(ctx, m.ListCategories, changes, stop, m.logger), nil
}

func (m *MemoryStore) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	m.mu.RLock()
	out := make([]models.MenuItem, 0, len(m.menus))
	for _, item := range m.menus {
		out = append(out, item)
	}
	m.mu.RUnlock()
	menu.SortItems(out)
	return out, nil
}

func (m *MemoryStore) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.menus[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &item, nil
}

func (m *MemoryStore) CreateMenuItem(ctx context.Context, item models.MenuItem) (string, error) {
	if item.ID == "" {
		item.ID = newID()
	}
	m.mu.Lock()
	if _, ok := m.menus[item.ID]; ok {
		m.mu.Unlock()
		return "", ErrConflict
	}
	m.menus[item.ID] = item
	m.mu.Unlock()
	m.hub.Notify(MenusCollection)
	return item.ID, nil
}

func (m *MemoryStore) UpdateMenuItem(ctx context.Context, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	item, ok := m.menus[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			item.Name, _ = v.(string)
		case "description":
			item.Description, _ = v.(string)
		case "price":
			item.Price, _ = v.(float64)
		case "category":
			item.Category, _ = v.(string)
		case "image":
			item.Image, _ = v.(string)
		case "available":
			item.Available, _ = v.(bool)
		case "ingredients":
			item.Ingredients, _ = v.([]string)
		case "allergens":
			item.Allergens, _ = v.([]string)
		}
	}
	m.menus[id] = item
	m.mu.Unlock()
	m.hub.Notify(MenusCollection)
	return nil
}

func (m *MemoryStore) DeleteMenuItem(ctx context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.menus[id]
	delete(m.menus, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	m.hub.Notify(MenusCollection)
	return nil
}

func (m *MemoryStore) WatchMenu(ctx context.Context) (*live.Subscription[models.MenuItem], error) {
	changes, stop := m.hub.Listen(MenusCollection)
	return live.Start(ctx, m.ListMenuItems, changes, stop, m.logger), nil
}

func (m *MemoryStore) CreateOrder(ctx context.Context, o models.Order) (models.Order, error) {
	ts := now()
	o.ID = newID()
	o.Status = models.StatusPending
	o.CreatedAt = ts
	o.UpdatedAt = ts

	m.mu.Lock()
	m.orders[o.ID] = o
	m.mu.Unlock()
	m.hub.Notify(OrdersCollection)
	return o, nil
}

func (m *MemoryStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (m *MemoryStore) ListOrders(ctx context.Context, table string) ([]models.Order, error) {
	m.mu.RLock()
	out := make([]models.Order, 0, len(m.orders))
	for _, o := range m.orders {
		if table == "" || o.TableNumber == table {
			out = append(out, o)
		}
	}
	m.mu.RUnlock()
	ordering.SortOrdersNewestFirst(out)
	return out, nil
}

func (m *MemoryStore) UpdateOrderStatus(ctx context.Context, id string, from, to models.OrderStatus, staffID string, at time.Time) error {
	m.mu.Lock()
	o, ok := m.orders[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	if o.Status != from {
		m.mu.Unlock()
		return ErrConflict
	}
	o.Status = to
	o.UpdatedAt = at
	if staffID != "" {
		o.WaiterID = staffID
	}
	m.orders[id] = o
	m.mu.Unlock()
	m.hub.Notify(OrdersCollection)
	return nil
}

func (m *MemoryStore) WatchOrders(ctx context.Context) (*live.Subscription[models.Order], error) {
	changes, stop := m.hub.Listen(OrdersCollection)
	fetch := func(ctx context.Context) ([]models.Order, error) {
		return m.ListOrders(ctx, "")
	}
	return live.Start(ctx, fetch, changes, stop, m.logger), nil
}

func (m *MemoryStore) CreateWaiterCall(ctx context.Context, call models.WaiterCall) (models.WaiterCall, error) {
	call.ID = newID()
	call.Status = models.CallActive
	call.CreatedAt = now()
	call.ResolvedAt = nil
	call.ResolvedBy = ""

	m.mu.Lock()
	m.waiterCalls[call.ID] = call
	m.mu.Unlock()
	m.hub.Notify(WaiterCallsCollection)
	return call, nil
}

func (m *MemoryStore) GetWaiterCall(ctx context.Context, id string) (*models.WaiterCall, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	call, ok := m.waiterCalls[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &call, nil
}

func (m *MemoryStore) ListActiveWaiterCalls(ctx context.Context) ([]models.WaiterCall, error) {
	m.mu.RLock()
	out := make([]models.WaiterCall, 0)
	for _, call := range m.waiterCalls {
		if call.Status == models.CallActive {
			out = append(out, call)
		}
	}
	m.mu.RUnlock()
	ordering.SortCallsNewestFirst(out)
	return out, nil
}

func (m *MemoryStore) ResolveWaiterCall(ctx context.Context, id, staffID string, at time.Time) error {
	m.mu.Lock()
	call, ok := m.waiterCalls[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	resolved, err := ordering.Resolve(call, staffID, at)
	if err != nil {
		m.mu.Unlock()
		return ErrConflict
	}
	m.waiterCalls[id] = resolved
	m.mu.Unlock()
	m.hub.Notify(WaiterCallsCollection)
	return nil
}

func (m *MemoryStore) WatchActiveWaiterCalls(ctx context.Context) (*live.Subscription[models.WaiterCall], error) {
	changes, stop := m.hub.Listen(WaiterCallsCollection)
	return live.Start(ctx, m.ListActiveWaiterCalls, changes, stop, m.logger), nil
}

var _ Store = (*MemoryStore)(nil)
