// Package ordering defines the order lifecycle and waiter call lifecycle.
//
// Orders move pending -> preparing -> ready -> served, or pending ->
// cancelled. Nothing moves backwards and served/cancelled are terminal.
package ordering

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/qrdine/pkg/models"
)

var ErrInvalidTransition = errors.New("invalid order status transition")

// Action is a staff control on the dashboard.
type Action string

const (
	ActionStartPreparing Action = "start_preparing"
	ActionCancel         Action = "cancel"
	ActionMarkReady      Action = "mark_ready"
	ActionMarkServed     Action = "mark_served"
)

type transition struct {
	from   models.OrderStatus
	action Action
	to     models.OrderStatus
}

// Order matters: Actions lists controls in this order.
var transitions = []transition{
	{models.StatusPending, ActionStartPreparing, models.StatusPreparing},
	{models.StatusPending, ActionCancel, models.StatusCancelled},
	{models.StatusPreparing, ActionMarkReady, models.StatusReady},
	{models.StatusReady, ActionMarkServed, models.StatusServed},
}

// Next returns the status reached by applying action in from.
func Next(from models.OrderStatus, action Action) (models.OrderStatus, error) {
	for _, t := range transitions {
		if t.from == from && t.action == action {
			return t.to, nil
		}
	}
	return "", fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, from)
}

func CanTransition(from, to models.OrderStatus) bool {
	for _, t := range transitions {
		if t.from == from && t.to == to {
			return true
		}
	}
	return false
}

// Validate returns ErrInvalidTransition unless from -> to is in the table.
func Validate(from, to models.OrderStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Actions lists the controls offered for an order in status s.
func Actions(s models.OrderStatus) []Action {
	var actions []Action
	for _, t := range transitions {
		if t.from == s {
			actions = append(actions, t.action)
		}
	}
	return actions
}

func IsTerminal(s models.OrderStatus) bool {
	return s == models.StatusServed || s == models.StatusCancelled
}

// Stamp returns the updated-at time for a transition: now truncated to the
// millisecond, pushed past prev when the clock has not advanced.
func Stamp(prev, now time.Time) time.Time {
	at := now.UTC().Truncate(time.Millisecond)
	if !at.After(prev) {
		at = prev.UTC().Truncate(time.Millisecond).Add(time.Millisecond)
	}
	return at
}

// Apply moves order to status to, stamping UpdatedAt. The order is left
// untouched when the transition is not allowed.
func Apply(order *models.Order, to models.OrderStatus, now time.Time) error {
	if err := Validate(order.Status, to); err != nil {
		return err
	}
	order.Status = to
	order.UpdatedAt = Stamp(order.UpdatedAt, now)
	return nil
}
