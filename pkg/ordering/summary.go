package ordering

import (
	"sort"

	"github.com/example/qrdine/pkg/models"
)

// Summary is the dashboard header.
type Summary struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	Preparing   int `json:"preparing"`
	Ready       int `json:"ready"`
	ActiveCalls int `json:"activeCalls"`
}

func Summarize(orders []models.Order, calls []models.WaiterCall) Summary {
	s := Summary{Total: len(orders)}
	for _, o := range orders {
		switch o.Status {
		case models.StatusPending:
			s.Pending++
		case models.StatusPreparing:
			s.Preparing++
		case models.StatusReady:
			s.Ready++
		}
	}
	for _, c := range calls {
		if c.Status == models.CallActive {
			s.ActiveCalls++
		}
	}
	return s
}

// SortOrdersNewestFirst sorts by CreatedAt descending, breaking ties on id.
func SortOrdersNewestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}

func SortCallsNewestFirst(calls []models.WaiterCall) {
	sort.SliceStable(calls, func(i, j int) bool {
		if !calls[i].CreatedAt.Equal(calls[j].CreatedAt) {
			return calls[i].CreatedAt.After(calls[j].CreatedAt)
		}
		return calls[i].ID > calls[j].ID
	})
}
