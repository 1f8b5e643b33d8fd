// Package session keeps one cart per browsing session, each owned by its own
// actor.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/qrdine/pkg/checkout"
	"github.com/example/qrdine/pkg/metrics"
	"github.com/example/qrdine/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("session not found")

const defaultRequestTimeout = 5 * time.Second

type Manager struct {
	system    *actor.ActorSystem
	submitter checkout.Submitter
	idle      time.Duration
	timeout   time.Duration
	metrics   *metrics.Metrics
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[string]*actor.PID
}

// NewManager spawns cart actors on system. Sessions with no traffic for idle
// are ended; zero keeps them until End.
func NewManager(system *actor.ActorSystem, submitter checkout.Submitter, idle time.Duration, m *metrics.Metrics, logger *zap.Logger) *Manager {
	return &Manager{
		system:    system,
		submitter: submitter,
		idle:      idle,
		timeout:   defaultRequestTimeout,
		metrics:   m,
		logger:    logger.Named("session"),
		sessions:  make(map[string]*actor.PID),
	}
}

// Start opens a new session with an empty cart and returns its id.
func (m *Manager) Start() (string, error) {
	id := uuid.NewString()
	props := actor.PropsFromProducer(func() actor.Actor {
		return &cartActor{
			id:        id,
			idle:      m.idle,
			submitter: m.submitter,
			metrics:   m.metrics,
			onStopped: m.forget,
			logger:    m.logger.With(zap.String("session", id)),
		}
	})

	pid, err := m.system.Root.SpawnNamed(props, "cart-"+id)
	if err != nil {
		return "", fmt.Errorf("failed to spawn cart actor: %w", err)
	}

	m.mu.Lock()
	m.sessions[id] = pid
	m.mu.Unlock()
	m.metrics.SessionStarted()
	return id, nil
}

// End destroys the session and its cart.
func (m *Manager) End(id string) error {
	m.mu.Lock()
	pid, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	if err := m.system.Root.StopFuture(pid).Wait(); err != nil {
		return fmt.Errorf("stop session %s: %w", id, err)
	}
	m.forget(id)
	return nil
}

func (m *Manager) forget(id string) {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		m.metrics.SessionEnded()
	}
}

// Active reports how many sessions are open.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown ends every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		if err := m.End(id); err != nil && !errors.Is(err, ErrSessionNotFound) {
			m.logger.Warn("Failed to end session", zap.String("session", id), zap.Error(err))
		}
	}
}

// requestTimeout is the configured reply timeout, capped by ctx's deadline.
func (m *Manager) requestTimeout(ctx context.Context) time.Duration {
	timeout := m.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	return timeout
}

func (m *Manager) request(ctx context.Context, id string, msg interface{}) (interface{}, error) {
	return m.ask(id, msg, m.requestTimeout(ctx))
}

func (m *Manager) ask(id string, msg interface{}, timeout time.Duration) (interface{}, error) {
	m.mu.Lock()
	pid, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	result, err := m.system.Root.RequestFuture(pid, msg, timeout).Result()
	if errors.Is(err, actor.ErrDeadLetter) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return result, nil
}

func (m *Manager) requestView(ctx context.Context, id string, msg interface{}) (View, error) {
	result, err := m.request(ctx, id, msg)
	if err != nil {
		return View{}, err
	}
	v, ok := result.(*View)
	if !ok {
		return View{}, fmt.Errorf("session %s: unexpected reply %T", id, result)
	}
	return *v, nil
}

func (m *Manager) AddItem(ctx context.Context, id string, item models.MenuItem, quantity int, instructions string) (View, error) {
	return m.requestView(ctx, id, &AddItem{Item: item, Quantity: quantity, Instructions: instructions})
}

func (m *Manager) RemoveItem(ctx context.Context, id, itemID string) (View, error) {
	return m.requestView(ctx, id, &RemoveItem{ItemID: itemID})
}

func (m *Manager) UpdateQuantity(ctx context.Context, id, itemID string, quantity int) (View, error) {
	return m.requestView(ctx, id, &UpdateQuantity{ItemID: itemID, Quantity: quantity})
}

func (m *Manager) Clear(ctx context.Context, id string) (View, error) {
	return m.requestView(ctx, id, &ClearCart{})
}

func (m *Manager) Cart(ctx context.Context, id string) (View, error) {
	return m.requestView(ctx, id, &GetCart{})
}

// Checkout submits the session's cart as one order. The submission runs under
// a deadline that expires before the reply timeout, so a submitter that
// honours ctx either finishes or fails while the caller is still waiting and
// a reported failure always leaves the cart intact.
func (m *Manager) Checkout(ctx context.Context, id string, req checkout.Request) (checkout.Result, error) {
	timeout := m.requestTimeout(ctx)
	submitCtx, cancel := context.WithTimeout(ctx, timeout-timeout/5)
	defer cancel()

	result, err := m.ask(id, &Checkout{Ctx: submitCtx, Request: req}, timeout)
	if err != nil {
		return checkout.Result{}, err
	}
	r, ok := result.(*CheckoutResult)
	if !ok {
		return checkout.Result{}, fmt.Errorf("session %s: unexpected reply %T", id, result)
	}
	return r.Result, r.Err
}
