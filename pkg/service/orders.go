package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/example/qrdine/pkg/live"
	"github.com/example/qrdine/pkg/metrics"
	"github.com/example/qrdine/pkg/models"
	"github.com/example/qrdine/pkg/notify"
	"github.com/example/qrdine/pkg/ordering"
	"github.com/example/qrdine/pkg/repository"
	"go.uber.org/zap"
)

// IdempotencyStore remembers which order a client-supplied key produced.
type IdempotencyStore interface {
	Claim(ctx context.Context, key string) (orderID string, claimed bool, err error)
	Complete(ctx context.Context, key, orderID string) error
	Release(ctx context.Context, key string) error
}

type OrderService struct {
	store    repository.OrderStore
	idem     IdempotencyStore
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewOrderService(store repository.OrderStore, idem IdempotencyStore, notifier notify.Notifier, m *metrics.Metrics, logger *zap.Logger) *OrderService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &OrderService{
		store:    store,
		idem:     idem,
		notifier: notifier,
		metrics:  m,
		logger:   logger.Named("orders"),
		now:      time.Now,
	}
}

func validateOrder(req *models.CreateOrderRequest) error {
	if req.TableNumber == "" || len(req.Items) == 0 {
		return invalid(MsgOrderFieldsRequired)
	}
	for _, it := range req.Items {
		if it.Quantity < 1 {
			return invalid(MsgItemQuantity)
		}
		if it.Item.Price < 0 {
			return invalid(MsgNegativePrice)
		}
	}
	return nil
}

// CreateOrder validates req and stores a pending order. The stored total is
// recomputed from the items. With a non-empty idempotency key a repeated
// submission returns the first order and replayed=true.
func (s *OrderService) CreateOrder(ctx context.Context, req models.CreateOrderRequest, idempotencyKey string) (order models.Order, replayed bool, err error) {
	if err := validateOrder(&req); err != nil {
		return models.Order{}, false, err
	}

	if idempotencyKey != "" && s.idem != nil {
		var (
			existing string
			claimed  bool
		)
		// err is the named result here so the deferred release sees failures below.
		existing, claimed, err = s.idem.Claim(ctx, idempotencyKey)
		if err != nil {
			return models.Order{}, false, fmt.Errorf("claim idempotency key: %w", err)
		}
		if !claimed {
			prev, err := s.store.GetOrder(ctx, existing)
			if err != nil {
				return models.Order{}, false, fmt.Errorf("load replayed order %s: %w", existing, err)
			}
			return *prev, true, nil
		}
		defer func() {
			if err != nil {
				if rerr := s.idem.Release(context.WithoutCancel(ctx), idempotencyKey); rerr != nil {
					s.logger.Warn("Failed to release idempotency key", zap.Error(rerr))
				}
				return
			}
			if cerr := s.idem.Complete(context.WithoutCancel(ctx), idempotencyKey, order.ID); cerr != nil {
				s.logger.Warn("Failed to record idempotency key", zap.String("orderId", order.ID), zap.Error(cerr))
			}
		}()
	}

	total := req.CalculateTotal()
	if req.Total != nil && math.Abs(*req.Total-total) > 0.005 {
		s.logger.Warn("Client total differs from item total",
			zap.String("table", string(req.TableNumber)),
			zap.Float64("clientTotal", *req.Total),
			zap.Float64("total", total),
		)
	}

	order, err = s.store.CreateOrder(ctx, models.Order{
		TableNumber:         string(req.TableNumber),
		Items:               req.Items,
		Total:               total,
		SpecialInstructions: req.SpecialInstructions,
	})
	if err != nil {
		return models.Order{}, false, fmt.Errorf("create order: %w", err)
	}

	s.metrics.OrderCreated()
	s.logger.Info("Order created",
		zap.String("orderId", order.ID),
		zap.String("table", order.TableNumber),
		zap.Float64("total", order.Total),
	)
	s.notify(ctx, notify.OrderCreatedEvent(order))
	return order, false, nil
}

// SubmitOrder creates the order and returns its id.
func (s *OrderService) SubmitOrder(ctx context.Context, req models.CreateOrderRequest, idempotencyKey string) (string, error) {
	order, _, err := s.CreateOrder(ctx, req, idempotencyKey)
	if err != nil {
		return "", err
	}
	return order.ID, nil
}

// UpdateStatus moves order id to status. The write only lands while the order
// is still in the status the transition was validated against.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status, staffID string) (models.Order, error) {
	to, ok := models.ParseOrderStatus(status)
	if !ok {
		return models.Order{}, invalid(MsgInvalidStatus)
	}

	current, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return models.Order{}, fmt.Errorf("load order %s: %w", id, err)
	}

	updated := *current
	if err := ordering.Apply(&updated, to, s.now()); err != nil {
		return models.Order{}, err
	}
	if staffID != "" {
		updated.WaiterID = staffID
	}
	if err := s.store.UpdateOrderStatus(ctx, id, current.Status, to, staffID, updated.UpdatedAt); err != nil {
		return models.Order{}, fmt.Errorf("update order %s: %w", id, err)
	}

	s.metrics.OrderTransition(string(current.Status), string(to))
	s.logger.Info("Order status changed",
		zap.String("orderId", id),
		zap.String("from", string(current.Status)),
		zap.String("to", string(to)),
		zap.String("staffId", staffID),
	)
	s.notify(ctx, notify.OrderStatusChangedEvent(updated, current.Status))
	return updated, nil
}

func (s *OrderService) ListOrders(ctx context.Context, table string) ([]models.Order, error) {
	return s.store.ListOrders(ctx, table)
}

func (s *OrderService) WatchOrders(ctx context.Context) (*live.Subscription[models.Order], error) {
	return s.store.WatchOrders(ctx)
}

func (s *OrderService) notify(ctx context.Context, e notify.Event) {
	if err := s.notifier.Notify(context.WithoutCancel(ctx), e); err != nil {
		s.logger.Warn("Notification failed", zap.String("type", string(e.Type)), zap.Error(err))
	}
}

// IsConflict reports whether err means the request lost against current
// state: a disallowed transition, a lost compare-and-set, an already
// resolved call or an in-flight idempotency key.
func IsConflict(err error) bool {
	return errors.Is(err, ordering.ErrInvalidTransition) ||
		errors.Is(err, ordering.ErrAlreadyResolved) ||
		errors.Is(err, repository.ErrConflict) ||
		errors.Is(err, repository.ErrInFlight)
}
