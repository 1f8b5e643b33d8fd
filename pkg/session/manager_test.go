package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/qrdine/pkg/checkout"
	"github.com/example/qrdine/pkg/metrics"
	"github.com/example/qrdine/pkg/models"
	"go.uber.org/zap/zaptest"
)

type countingSubmitter struct {
	calls atomic.Int32
	err   error
}

func (s *countingSubmitter) SubmitOrder(ctx context.Context, req models.CreateOrderRequest, key string) (string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return "", s.err
	}
	return "order-" + string(req.TableNumber), nil
}

func newManager(t *testing.T, sub checkout.Submitter, idle time.Duration) *Manager {
	t.Helper()
	system := actor.NewActorSystem()
	m := NewManager(system, sub, idle, metrics.New(), zaptest.NewLogger(t))
	t.Cleanup(m.Shutdown)
	return m
}

var (
	pasta = models.MenuItem{ID: "pasta", Name: "Spaghetti Carbonara", Price: 16.99, Available: true}
	cola  = models.MenuItem{ID: "cola", Name: "Cola", Price: 2.99, Available: true}
)

func TestManager_CartActions(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, &countingSubmitter{}, 0)

	id, err := m.Start()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.AddItem(ctx, id, pasta, 1, ""); err != nil {
		t.Fatal(err)
	}
	v, err := m.AddItem(ctx, id, cola, 3, "")
	if err != nil {
		t.Fatal(err)
	}
	if v.ItemCount != 4 || len(v.Items) != 2 {
		t.Errorf("view = %+v", v)
	}

	v, _ = m.UpdateQuantity(ctx, id, "cola", 0)
	if len(v.Items) != 1 || v.Items[0].Item.ID != "pasta" {
		t.Errorf("after zero quantity = %+v", v.Items)
	}

	v, _ = m.RemoveItem(ctx, id, "pasta")
	if len(v.Items) != 0 || v.Total != 0 {
		t.Errorf("after remove = %+v", v)
	}

	_, _ = m.AddItem(ctx, id, cola, 1, "")
	v, _ = m.Clear(ctx, id)
	if v.ItemCount != 0 {
		t.Errorf("after clear = %+v", v)
	}
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, &countingSubmitter{}, 0)

	a, _ := m.Start()
	b, _ := m.Start()
	_, _ = m.AddItem(ctx, a, pasta, 2, "")

	vb, err := m.Cart(ctx, b)
	if err != nil {
		t.Fatal(err)
	}
	if vb.ItemCount != 0 {
		t.Errorf("session b sees %d items from session a", vb.ItemCount)
	}
}

func TestManager_Checkout(t *testing.T) {
	ctx := context.Background()
	sub := &countingSubmitter{}
	m := newManager(t, sub, 0)
	id, _ := m.Start()

	res, err := m.Checkout(ctx, id, checkout.Request{TableNumber: "4"})
	if err != nil || !res.Skipped {
		t.Fatalf("empty checkout = %+v, %v", res, err)
	}

	_, _ = m.AddItem(ctx, id, pasta, 1, "")
	res, err = m.Checkout(ctx, id, checkout.Request{TableNumber: "4"})
	if err != nil {
		t.Fatal(err)
	}
	if res.OrderID != "order-4" || res.Notice != checkout.NoticeSuccess {
		t.Errorf("result = %+v", res)
	}
	v, _ := m.Cart(ctx, id)
	if v.ItemCount != 0 {
		t.Error("cart not cleared after checkout")
	}
	if sub.calls.Load() != 1 {
		t.Errorf("submitter calls = %d, want 1", sub.calls.Load())
	}
}

func TestManager_CheckoutFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, &countingSubmitter{err: errors.New("store down")}, 0)
	id, _ := m.Start()
	_, _ = m.AddItem(ctx, id, pasta, 2, "")

	res, err := m.Checkout(ctx, id, checkout.Request{TableNumber: "4"})
	if err == nil {
		t.Fatal("expected error")
	}
	if res.Notice != checkout.NoticeFailure {
		t.Errorf("notice = %q", res.Notice)
	}
	v, _ := m.Cart(ctx, id)
	if v.ItemCount != 2 {
		t.Errorf("cart after failure = %+v", v)
	}
}

// slowSubmitter places an order after delay unless ctx ends first.
type slowSubmitter struct {
	delay  atomic.Int64
	placed atomic.Int32
}

func (s *slowSubmitter) SubmitOrder(ctx context.Context, req models.CreateOrderRequest, key string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(time.Duration(s.delay.Load())):
	}
	s.placed.Add(1)
	return "order-" + string(req.TableNumber), nil
}

func TestManager_SlowCheckoutFailsBeforeReplyTimeout(t *testing.T) {
	ctx := context.Background()
	sub := &slowSubmitter{}
	sub.delay.Store(int64(time.Second))
	m := newManager(t, sub, 0)
	m.timeout = 200 * time.Millisecond
	id, _ := m.Start()
	_, _ = m.AddItem(ctx, id, pasta, 2, "")

	res, err := m.Checkout(ctx, id, checkout.Request{TableNumber: "6"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("slow checkout err = %v, want the submission deadline", err)
	}
	if res.Notice != checkout.NoticeFailure {
		t.Errorf("notice = %q", res.Notice)
	}

	// Give a submitter that ignored the deadline time to land.
	time.Sleep(300 * time.Millisecond)
	if n := sub.placed.Load(); n != 0 {
		t.Fatalf("orders placed after reported failure = %d", n)
	}
	v, err := m.Cart(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if v.ItemCount != 2 {
		t.Errorf("cart after slow checkout = %+v", v)
	}

	sub.delay.Store(0)
	res, err = m.Checkout(ctx, id, checkout.Request{TableNumber: "6"})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.OrderID != "order-6" {
		t.Errorf("retry result = %+v", res)
	}
	if v, _ := m.Cart(ctx, id); v.ItemCount != 0 {
		t.Errorf("cart after retry = %+v", v)
	}
}

func TestManager_DoubleClickPlacesOneOrder(t *testing.T) {
	ctx := context.Background()
	sub := &countingSubmitter{}
	m := newManager(t, sub, 0)
	id, _ := m.Start()
	_, _ = m.AddItem(ctx, id, cola, 1, "")

	var wg sync.WaitGroup
	results := make([]checkout.Result, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = m.Checkout(ctx, id, checkout.Request{TableNumber: "9"})
		}(i)
	}
	wg.Wait()

	if sub.calls.Load() != 1 {
		t.Fatalf("submitter calls = %d, want 1", sub.calls.Load())
	}
	if results[0].Skipped == results[1].Skipped {
		t.Errorf("want exactly one skipped checkout, got %+v", results)
	}
}

func TestManager_EndAndUnknownSession(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, &countingSubmitter{}, 0)
	id, _ := m.Start()

	if err := m.End(id); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Cart(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("cart after end = %v, want ErrSessionNotFound", err)
	}
	if err := m.End(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second end = %v, want ErrSessionNotFound", err)
	}
	if _, err := m.AddItem(ctx, "nope", cola, 1, ""); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("unknown session = %v", err)
	}
}

func TestManager_IdleSessionEnds(t *testing.T) {
	m := newManager(t, &countingSubmitter{}, 50*time.Millisecond)
	if _, err := m.Start(); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for m.Active() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("idle session was not ended")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
