package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/qrdine/pkg/live"
	"github.com/example/qrdine/pkg/metrics"
	"github.com/example/qrdine/pkg/models"
	"github.com/example/qrdine/pkg/notify"
	"github.com/example/qrdine/pkg/ordering"
	"github.com/example/qrdine/pkg/repository"
	"go.uber.org/zap"
)

type WaiterService struct {
	store    repository.WaiterCallStore
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewWaiterService(store repository.WaiterCallStore, notifier notify.Notifier, m *metrics.Metrics, logger *zap.Logger) *WaiterService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &WaiterService{
		store:    store,
		notifier: notifier,
		metrics:  m,
		logger:   logger.Named("waiter"),
		now:      time.Now,
	}
}

// Call opens an active waiter call for a table. Repeated calls from the same
// table each create a new record.
func (s *WaiterService) Call(ctx context.Context, req models.WaiterCallRequest) (models.WaiterCall, error) {
	if req.TableNumber == "" {
		return models.WaiterCall{}, invalid(MsgTableRequired)
	}
	call, err := s.store.CreateWaiterCall(ctx, models.WaiterCall{TableNumber: string(req.TableNumber)})
	if err != nil {
		return models.WaiterCall{}, fmt.Errorf("create waiter call: %w", err)
	}

	s.metrics.WaiterCall("called")
	s.logger.Info("Waiter called", zap.String("callId", call.ID), zap.String("table", call.TableNumber))
	if err := s.notifier.Notify(context.WithoutCancel(ctx), notify.WaiterCalledEvent(call)); err != nil {
		s.logger.Warn("Notification failed", zap.String("callId", call.ID), zap.Error(err))
	}
	return call, nil
}

// Resolve marks call id handled by staffID. Only the first resolution is
// recorded; later attempts get ordering.ErrAlreadyResolved.
func (s *WaiterService) Resolve(ctx context.Context, id, staffID string) (models.WaiterCall, error) {
	call, err := s.store.GetWaiterCall(ctx, id)
	if err != nil {
		return models.WaiterCall{}, fmt.Errorf("load waiter call %s: %w", id, err)
	}
	resolved, err := ordering.Resolve(*call, staffID, s.now())
	if err != nil {
		return models.WaiterCall{}, err
	}
	err = s.store.ResolveWaiterCall(ctx, id, staffID, *resolved.ResolvedAt)
	if errors.Is(err, repository.ErrConflict) {
		return models.WaiterCall{}, ordering.ErrAlreadyResolved
	}
	if err != nil {
		return models.WaiterCall{}, fmt.Errorf("resolve waiter call %s: %w", id, err)
	}

	s.metrics.WaiterCall("resolved")
	s.logger.Info("Waiter call resolved", zap.String("callId", id), zap.String("staffId", staffID))
	return resolved, nil
}

func (s *WaiterService) ListActive(ctx context.Context) ([]models.WaiterCall, error) {
	return s.store.ListActiveWaiterCalls(ctx)
}

func (s *WaiterService) WatchActive(ctx context.Context) (*live.Subscription[models.WaiterCall], error) {
	return s.store.WatchActiveWaiterCalls(ctx)
}
