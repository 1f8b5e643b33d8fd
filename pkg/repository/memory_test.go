package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/qrdine/pkg/models"
	"go.uber.org/zap/zaptest"
)

func TestMemoryStore_CategoriesSortedByOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zaptest.NewLogger(t))

	for _, c := range []models.Category{
		{ID: "desserts", Name: "Desserts", Order: 3},
		{ID: "appetizers", Name: "Appetizers", Order: 1},
		{Name: "Drinks", Order: 3},
	} {
		if _, err := s.CreateCategory(ctx, c); err != nil {
			t.Fatalf("CreateCategory(%q): %v", c.Name, err)
		}
	}

	got, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	want := []string{"Appetizers", "Desserts", "Drinks"}
	if len(got) != len(want) {
		t.Fatalf("got %d categories, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("categories[%d] = %q, want %q", i, got[i].Name, name)
		}
	}
	if got[2].ID == "" {
		t.Error("generated category id is empty")
	}
}

func TestMemoryStore_UpdateAndDeleteMissing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zaptest.NewLogger(t))

	if err := s.UpdateCategory(ctx, "nope", map[string]interface{}{"name": "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateCategory missing = %v, want ErrNotFound", err)
	}
	if err := s.DeleteMenuItem(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteMenuItem missing = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_UpdateMenuItemPartial(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zaptest.NewLogger(t))

	id, err := s.CreateMenuItem(ctx, models.MenuItem{Name: "Cola", Price: 2.99, Category: "beverages", Available: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateMenuItem(ctx, id, map[string]interface{}{"price": 3.49, "available": false}); err != nil {
		t.Fatal(err)
	}
	item, err := s.GetMenuItem(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if item.Price != 3.49 || item.Available || item.Name != "Cola" {
		t.Errorf("item after update = %+v", item)
	}
}

func TestMemoryStore_OrderStatusCompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zaptest.NewLogger(t))

	o, err := s.CreateOrder(ctx, models.Order{TableNumber: "5", Total: 10})
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != models.StatusPending {
		t.Fatalf("new order status = %q, want pending", o.Status)
	}
	if !o.CreatedAt.Equal(o.UpdatedAt) {
		t.Errorf("createdAt %v != updatedAt %v", o.CreatedAt, o.UpdatedAt)
	}

	at := o.UpdatedAt.Add(time.Second)
	if err := s.UpdateOrderStatus(ctx, o.ID, models.StatusPending, models.StatusPreparing, "", at); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if err := s.UpdateOrderStatus(ctx, o.ID, models.StatusPending, models.StatusCancelled, "", at); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale update = %v, want ErrConflict", err)
	}
	if err := s.UpdateOrderStatus(ctx, "missing", models.StatusPending, models.StatusPreparing, "", at); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing update = %v, want ErrNotFound", err)
	}

	got, _ := s.GetOrder(ctx, o.ID)
	if got.Status != models.StatusPreparing || !got.UpdatedAt.Equal(at) {
		t.Errorf("order = %+v", got)
	}
}

func TestMemoryStore_ConcurrentTransitionsOneWinner(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zaptest.NewLogger(t))
	o, _ := s.CreateOrder(ctx, models.Order{TableNumber: "1"})

	const writers = 16
	var wg sync.WaitGroup
	results := make(chan error, writers)
	for i := 0; i < writers; i++ {
		to := models.StatusPreparing
		if i%2 == 1 {
			to = models.StatusCancelled
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.UpdateOrderStatus(ctx, o.ID, models.StatusPending, to, "", time.Now())
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		case !errors.Is(err, ErrConflict):
			t.Errorf("unexpected error %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("%d writers won, want exactly 1", wins)
	}
}

func TestMemoryStore_ListOrdersByTable(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zaptest.NewLogger(t))
	for _, table := range []string{"1", "2", "1"} {
		if _, err := s.CreateOrder(ctx, models.Order{TableNumber: table}); err != nil {
			t.Fatal(err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	all, _ := s.ListOrders(ctx, "")
	if len(all) != 3 {
		t.Fatalf("ListOrders all = %d, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Errorf("orders not newest first at %d", i)
		}
	}
	table1, _ := s.ListOrders(ctx, "1")
	if len(table1) != 2 {
		t.Errorf("ListOrders(1) = %d, want 2", len(table1))
	}
}

func TestMemoryStore_ResolveWaiterCallOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zaptest.NewLogger(t))

	call, err := s.CreateWaiterCall(ctx, models.WaiterCall{TableNumber: "7"})
	if err != nil {
		t.Fatal(err)
	}
	active, _ := s.ListActiveWaiterCalls(ctx)
	if len(active) != 1 {
		t.Fatalf("active calls = %d, want 1", len(active))
	}

	at := time.Now().UTC()
	if err := s.ResolveWaiterCall(ctx, call.ID, "waiter-1", at); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := s.ResolveWaiterCall(ctx, call.ID, "waiter-2", at); !errors.Is(err, ErrConflict) {
		t.Fatalf("second resolve = %v, want ErrConflict", err)
	}

	got, _ := s.GetWaiterCall(ctx, call.ID)
	if got.Status != models.CallResolved || got.ResolvedBy != "waiter-1" || got.ResolvedAt == nil {
		t.Errorf("resolved call = %+v", got)
	}
	active, _ = s.ListActiveWaiterCalls(ctx)
	if len(active) != 0 {
		t.Errorf("active calls after resolve = %d, want 0", len(active))
	}
}

func TestMemoryStore_WatchOrdersSeesWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewMemoryStore(zaptest.NewLogger(t))

	sub, err := s.WatchOrders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Cancel()

	first := <-sub.C
	if len(first.Items) != 0 {
		t.Fatalf("initial snapshot has %d orders", len(first.Items))
	}

	if _, err := s.CreateOrder(ctx, models.Order{TableNumber: "3"}); err != nil {
		t.Fatal(err)
	}
	select {
	case snap := <-sub.C:
		if len(snap.Items) != 1 || snap.Items[0].TableNumber != "3" {
			t.Errorf("snapshot after create = %+v", snap.Items)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after create")
	}

	sub.Cancel()
	<-sub.Done()
	if n := s.hub.Listeners(OrdersCollection); n != 0 {
		t.Errorf("listeners after cancel = %d, want 0", n)
	}
}

func TestMemoryStore_ExplicitIDTaken(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zaptest.NewLogger(t))

	if _, err := s.CreateMenuItem(ctx, models.MenuItem{ID: "cola", Name: "Cola"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateMenuItem(ctx, models.MenuItem{ID: "cola", Name: "Other"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate id = %v, want ErrConflict", err)
	}
	item, _ := s.GetMenuItem(ctx, "cola")
	if item.Name != "Cola" {
		t.Errorf("existing item overwritten: %+v", item)
	}
}
