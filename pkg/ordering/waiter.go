package ordering

import (
	"errors"
	"time"

	"github.com/example/qrdine/pkg/models"
)

var ErrAlreadyResolved = errors.New("waiter call already resolved")

// Resolve returns call flipped to resolved, recording who resolved it and when.
func Resolve(call models.WaiterCall, staffID string, at time.Time) (models.WaiterCall, error) {
	if call.Status != models.CallActive {
		return call, ErrAlreadyResolved
	}
	resolvedAt := at.UTC().Truncate(time.Millisecond)
	call.Status = models.CallResolved
	call.ResolvedAt = &resolvedAt
	call.ResolvedBy = staffID
	return call, nil
}
