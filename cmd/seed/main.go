package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/example/qrdine/pkg/auth"
	"github.com/example/qrdine/pkg/checkout"
	"github.com/example/qrdine/pkg/config"
	"github.com/example/qrdine/pkg/discovery"
	grpcclient "github.com/example/qrdine/pkg/grpc"
	"github.com/example/qrdine/pkg/logger"
	"github.com/example/qrdine/pkg/models"
	"github.com/example/qrdine/pkg/repository"
	"github.com/example/qrdine/pkg/seed"
	"github.com/example/qrdine/pkg/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the config file")
	demoTable := flag.String("demo-order", "", "place a demo order for this table through a running gateway")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Log, "qrdine-seed")
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if cfg.Store.Driver == "memory" {
		log.Fatal("Seeding the in-memory store has no effect; set store.driver to mongo")
	}
	store, err := repository.NewMongoStore(&cfg.MongoDB, log)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer store.Close(context.Background())

	var cache service.Cache
	if cfg.Redis.Enabled {
		rc := repository.NewRedisCache(&cfg.Redis)
		defer rc.Close()
		cache = rc
	}

	if _, err := seed.Catalog(ctx, service.NewCatalogService(store, cache, log), log); err != nil {
		log.Fatal("Failed to seed catalog", zap.Error(err))
	}

	if cfg.MySQL.Enabled {
		staff, err := repository.NewStaffRepository(&cfg.MySQL)
		if err != nil {
			log.Fatal("Failed to open staff directory", zap.Error(err))
		}
		defer staff.Close()
		if err := seed.Directory(ctx, staff, log); err != nil {
			log.Fatal("Failed to seed staff", zap.Error(err))
		}
	}

	now := time.Now()
	for _, s := range seed.Staff {
		token, err := auth.IssueToken(cfg.Auth, s, now)
		if err != nil {
			log.Fatal("Failed to issue token", zap.String("email", s.Email), zap.Error(err))
		}
		fmt.Printf("%-20s %-7s %s\n", s.Email, s.Role, token)
	}

	if *demoTable != "" {
		baseURL := gatewayURL(ctx, cfg, log)
		sub := checkout.NewHTTPSubmitter(baseURL, &http.Client{Timeout: 30 * time.Second})
		orderID, err := sub.SubmitOrder(ctx, models.CreateOrderRequest{
			TableNumber: models.TableNumber(*demoTable),
			Items: []models.CartItem{
				{Item: seed.MenuItems[4], Quantity: 1},
				{Item: seed.MenuItems[9], Quantity: 2},
			},
		}, uuid.NewString())
		if err != nil {
			log.Fatal("Failed to place demo order", zap.String("gateway", baseURL), zap.Error(err))
		}
		log.Info("Placed demo order", zap.String("orderId", orderID), zap.String("gateway", baseURL))
	}
}

// gatewayURL picks a registered gateway that reports healthy, falling back
// to the configured public URL.
func gatewayURL(ctx context.Context, cfg *config.Config, log *zap.Logger) string {
	if !cfg.Etcd.Enabled {
		return cfg.Gateway.PublicURL
	}
	sd, err := discovery.NewServiceDiscovery(&cfg.Etcd, log)
	if err != nil {
		log.Warn("Failed to connect to etcd", zap.Error(err))
		return cfg.Gateway.PublicURL
	}
	defer sd.Close()

	clients := grpcclient.NewClientManager(sd, log)
	defer clients.Close()

	instances, err := clients.HealthyGateways(ctx, cfg.Server.Name)
	if err != nil || len(instances) == 0 {
		log.Warn("No healthy gateway registered, using public URL", zap.Error(err))
		return cfg.Gateway.PublicURL
	}
	return "http://" + instances[0].Addr()
}
