package grpc

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"

	"github.com/example/qrdine/pkg/config"
	"github.com/example/qrdine/pkg/discovery"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type flakyStore struct {
	down atomic.Bool
}

func (s *flakyStore) Ping(ctx context.Context) error {
	if s.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func TestHealthServerReflectsStore(t *testing.T) {
	cfg := &config.ServerConfig{Name: "qrdine-gateway"}
	store := &flakyStore{}
	hs := NewHealthServer(cfg, store, 0, zaptest.NewLogger(t))

	lis := bufconn.Listen(1 << 20)
	go func() { _ = hs.Serve(lis) }()
	t.Cleanup(hs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	check := func() healthpb.HealthCheckResponse_ServingStatus {
		t.Helper()
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: cfg.Name})
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		return resp.Status
	}

	if got := check(); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("before first ping = %v, want NOT_SERVING", got)
	}

	hs.Check(context.Background())
	if got := check(); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("store up = %v, want SERVING", got)
	}

	store.down.Store(true)
	hs.Check(context.Background())
	if got := check(); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("store down = %v, want NOT_SERVING", got)
	}
}

type staticDiscovery map[string][]*discovery.ServiceInstance

func (d staticDiscovery) Discover(ctx context.Context, name string) ([]*discovery.ServiceInstance, error) {
	return d[name], nil
}

func TestClientManager_HealthyGateways(t *testing.T) {
	cfg := &config.ServerConfig{Name: "qrdine-gateway"}
	store := &flakyStore{}
	hs := NewHealthServer(cfg, store, 0, zaptest.NewLogger(t))

	lis := bufconn.Listen(1 << 20)
	go func() { _ = hs.Serve(lis) }()
	t.Cleanup(hs.Stop)

	disc := staticDiscovery{
		cfg.Name: {
			{Name: cfg.Name, Host: "gw1", Port: 8080},
			{Name: cfg.Name, Host: "gw2", Port: 8080},
		},
		HealthServiceName(cfg.Name, 8080): {
			{Name: HealthServiceName(cfg.Name, 8080), Host: "gw1", Port: 50051},
		},
	}
	m := NewClientManager(disc, zaptest.NewLogger(t),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	defer m.Close()

	ctx := context.Background()
	got, err := m.HealthyGateways(ctx, cfg.Name)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("before first ping got %d healthy gateways", len(got))
	}

	hs.Check(ctx)
	got, err = m.HealthyGateways(ctx, cfg.Name)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Addr() != "gw1:8080" {
		t.Errorf("healthy = %+v", got)
	}
}

func TestClientManager_HealthyGatewaysSharedHost(t *testing.T) {
	cfg := &config.ServerConfig{Name: "qrdine-gateway"}

	listeners := map[string]*bufconn.Listener{}
	servers := map[string]*HealthServer{}
	for _, addr := range []string{"node1:50051", "node1:50052"} {
		hs := NewHealthServer(cfg, &flakyStore{}, 0, zaptest.NewLogger(t))
		lis := bufconn.Listen(1 << 20)
		go func() { _ = hs.Serve(lis) }()
		t.Cleanup(hs.Stop)
		listeners[addr] = lis
		servers[addr] = hs
	}

	disc := staticDiscovery{
		cfg.Name: {
			{Name: cfg.Name, Host: "node1", Port: 8080},
			{Name: cfg.Name, Host: "node1", Port: 8081},
		},
		HealthServiceName(cfg.Name, 8080): {
			{Name: HealthServiceName(cfg.Name, 8080), Host: "node1", Port: 50051},
		},
		HealthServiceName(cfg.Name, 8081): {
			{Name: HealthServiceName(cfg.Name, 8081), Host: "node1", Port: 50052},
		},
	}
	m := NewClientManager(disc, zaptest.NewLogger(t),
		grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
			lis, ok := listeners[addr]
			if !ok {
				return nil, errors.New("no listener at " + addr)
			}
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	defer m.Close()

	ctx := context.Background()
	// Only the second gateway's store has answered a ping.
	servers["node1:50052"].Check(ctx)

	got, err := m.HealthyGateways(ctx, cfg.Name)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Addr() != "node1:8081" {
		t.Errorf("healthy = %+v, want only node1:8081", got)
	}
}
