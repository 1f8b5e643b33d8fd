package grpc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/example/qrdine/pkg/discovery"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServiceName is the discovery name the gRPC health listener of the
// gateway serving HTTP on httpPort is registered under. Together with the
// host it pairs each health listener with exactly one gateway, even when
// several gateways share a host.
func HealthServiceName(name string, httpPort int) string {
	return fmt.Sprintf("%s-grpc-%d", name, httpPort)
}

// Discoverer finds registered instances by name.
type Discoverer interface {
	Discover(ctx context.Context, serviceName string) ([]*discovery.ServiceInstance, error)
}

// ClientManager keeps one gRPC connection per health endpoint and uses them
// to pick gateways that are actually serving.
type ClientManager struct {
	discovery Discoverer
	opts      []grpc.DialOption
	logger    *zap.Logger

	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
}

func NewClientManager(disc Discoverer, logger *zap.Logger, opts ...grpc.DialOption) *ClientManager {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	return &ClientManager{
		discovery: disc,
		opts:      opts,
		logger:    logger.Named("grpc-clients"),
		conns:     make(map[string]*grpc.ClientConn),
	}
}

func (m *ClientManager) conn(addr string) (*grpc.ClientConn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.conns[addr]; ok {
		return c, nil
	}
	c, err := grpc.NewClient("passthrough:///"+addr, m.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	m.conns[addr] = c
	return c, nil
}

// Check asks the health service at addr about service.
func (m *ClientManager) Check(ctx context.Context, addr, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	c, err := m.conn(addr)
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	resp, err := healthpb.NewHealthClient(c).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.Status, nil
}

// HealthyGateways returns the HTTP instances registered under name whose
// own health listener reports SERVING. Instances without a health
// registration are skipped.
func (m *ClientManager) HealthyGateways(ctx context.Context, name string) ([]*discovery.ServiceInstance, error) {
	gateways, err := m.discovery.Discover(ctx, name)
	if err != nil {
		return nil, err
	}

	// health listener addresses keyed by the gateway's host:port
	healthAddr := make(map[string]string)
	seen := make(map[int]bool)
	for _, gw := range gateways {
		if seen[gw.Port] {
			continue
		}
		seen[gw.Port] = true
		listeners, err := m.discovery.Discover(ctx, HealthServiceName(name, gw.Port))
		if err != nil {
			return nil, err
		}
		for _, l := range listeners {
			gwAddr := (&discovery.ServiceInstance{Host: l.Host, Port: gw.Port}).Addr()
			healthAddr[gwAddr] = l.Addr()
		}
	}

	var healthy []*discovery.ServiceInstance
	for _, gw := range gateways {
		addr, ok := healthAddr[gw.Addr()]
		if !ok {
			continue
		}
		status, err := m.Check(ctx, addr, name)
		if err != nil || status != healthpb.HealthCheckResponse_SERVING {
			m.logger.Info("Skipping gateway", zap.String("address", gw.Addr()), zap.Stringer("status", status), zap.Error(err))
			continue
		}
		healthy = append(healthy, gw)
	}
	return healthy, nil
}

func (m *ClientManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for addr, c := range m.conns {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", addr, err))
		}
		delete(m.conns, addr)
	}
	return errors.Join(errs...)
}
