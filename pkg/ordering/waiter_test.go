package ordering

import (
	"errors"
	"testing"
	"time"

	"github.com/example/qrdine/pkg/models"
)

func TestResolve(t *testing.T) {
	call := models.WaiterCall{ID: "c1", TableNumber: "4", Status: models.CallActive}
	at := time.Date(2026, 10, 19, 18, 30, 0, 0, time.UTC)

	resolved, err := Resolve(call, "staff-1", at)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if resolved.Status != models.CallResolved {
		t.Errorf("Status = %q, want resolved", resolved.Status)
	}
	if resolved.ResolvedBy != "staff-1" || resolved.ResolvedAt == nil || !resolved.ResolvedAt.Equal(at) {
		t.Errorf("resolution not recorded: %+v", resolved)
	}

	again, err := Resolve(resolved, "staff-2", at.Add(time.Minute))
	if !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("second Resolve() error = %v, want ErrAlreadyResolved", err)
	}
	if again.ResolvedBy != "staff-1" || !again.ResolvedAt.Equal(at) {
		t.Errorf("second Resolve() overwrote resolution: %+v", again)
	}
}

func TestSummarize(t *testing.T) {
	orders := []models.Order{
		{Status: models.StatusPending},
		{Status: models.StatusPending},
		{Status: models.StatusPreparing},
		{Status: models.StatusReady},
		{Status: models.StatusServed},
		{Status: models.StatusCancelled},
	}
	calls := []models.WaiterCall{{Status: models.CallActive}, {Status: models.CallResolved}}

	got := Summarize(orders, calls)
	want := Summary{Total: 6, Pending: 2, Preparing: 1, Ready: 1, ActiveCalls: 1}
	if got != want {
		t.Errorf("Summarize() = %+v, want %+v", got, want)
	}
}

func TestSortOrdersNewestFirst(t *testing.T) {
	base := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	orders := []models.Order{
		{ID: "a", CreatedAt: base},
		{ID: "b", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "c", CreatedAt: base.Add(time.Minute)},
	}
	SortOrdersNewestFirst(orders)
	if orders[0].ID != "b" || orders[1].ID != "c" || orders[2].ID != "a" {
		t.Errorf("order = %s,%s,%s; want b,c,a", orders[0].ID, orders[1].ID, orders[2].ID)
	}
}
