package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/qrdine/gateway"
	"github.com/example/qrdine/pkg/auth"
	"github.com/example/qrdine/pkg/config"
	"github.com/example/qrdine/pkg/discovery"
	grpcserver "github.com/example/qrdine/pkg/grpc"
	"github.com/example/qrdine/pkg/logger"
	"github.com/example/qrdine/pkg/metrics"
	"github.com/example/qrdine/pkg/notify"
	"github.com/example/qrdine/pkg/repository"
	"github.com/example/qrdine/pkg/service"
	"github.com/example/qrdine/pkg/session"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Log, cfg.Server.Name)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting API Gateway",
		zap.Int("port", cfg.Gateway.Port),
		zap.String("host", cfg.Gateway.Host),
		zap.String("store", cfg.Store.Driver))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store, err := openStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Warn("Failed to close store", zap.Error(err))
		}
	}()

	var (
		cache service.Cache
		idem  service.IdempotencyStore
	)
	if cfg.Redis.Enabled {
		rc := repository.NewRedisCache(&cfg.Redis)
		if err := rc.Ping(ctx); err != nil {
			log.Warn("Failed to connect to redis, continuing without cache", zap.Error(err))
			rc.Close()
		} else {
			defer rc.Close()
			cache, idem = rc, rc
		}
	}

	var staffDir auth.Directory
	if cfg.MySQL.Enabled {
		staff, err := repository.NewStaffRepository(&cfg.MySQL)
		if err != nil {
			log.Fatal("Failed to open staff directory", zap.Error(err))
		}
		defer staff.Close()
		staffDir = staff
	}

	notifier, closeNotifiers := buildNotifier(cfg, log)
	defer closeNotifiers()

	m := metrics.New()
	catalog := service.NewCatalogService(store, cache, log)
	orders := service.NewOrderService(store, idem, notifier, m, log)
	waiters := service.NewWaiterService(store, notifier, m, log)

	system := actor.NewActorSystem()
	sessions := session.NewManager(system, orders, cfg.Gateway.SessionIdleTimeout, m, log)

	health := grpcserver.NewHealthServer(&cfg.Server, store, 10*time.Second, log)
	go func() {
		if err := health.Start(); err != nil {
			log.Error("gRPC health server failed", zap.Error(err))
		}
	}()
	go health.Run(ctx)

	var sd *discovery.ServiceDiscovery
	host := advertiseHost(cfg.Gateway.Host)
	instances := []*discovery.ServiceInstance{
		{Name: cfg.Server.Name, Host: host, Port: cfg.Gateway.Port},
		{Name: grpcserver.HealthServiceName(cfg.Server.Name, cfg.Gateway.Port), Host: host, Port: cfg.Server.Port},
	}
	if cfg.Etcd.Enabled {
		sd, err = discovery.NewServiceDiscovery(&cfg.Etcd, log)
		if err != nil {
			log.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		} else {
			for _, inst := range instances {
				if err := sd.Register(ctx, inst); err != nil {
					log.Warn("Failed to register instance", zap.String("name", inst.Name), zap.Error(err))
				}
			}
		}
	}

	gw := gateway.NewGateway(cfg, log, gateway.Services{
		Catalog:  catalog,
		Orders:   orders,
		Waiters:  waiters,
		Sessions: sessions,
		Verifier: auth.NewJWTVerifier(cfg.Auth),
		Staff:    staffDir,
		Store:    store,
		Metrics:  m,
	})

	gwErr := make(chan error, 1)
	go func() {
		if err := gw.Start(); err != nil {
			gwErr <- err
		}
	}()

	log.Info("Gateway started successfully")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("Received shutdown signal")
	case err := <-gwErr:
		log.Error("Gateway error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if sd != nil {
		for _, inst := range instances {
			if err := sd.Deregister(shutdownCtx, inst); err != nil {
				log.Warn("Failed to deregister instance", zap.String("name", inst.Name), zap.Error(err))
			}
		}
		sd.Close()
	}
	if err := gw.Shutdown(shutdownCtx); err != nil {
		log.Warn("Gateway shutdown error", zap.Error(err))
	}
	sessions.Shutdown()
	system.Shutdown()
	stop()
	health.Stop()

	log.Info("Gateway stopped")
}

func openStore(cfg *config.Config, log *zap.Logger) (repository.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		log.Warn("Using in-memory store, data is lost on restart")
		return repository.NewMemoryStore(log), nil
	case "mongo", "":
		return repository.NewMongoStore(&cfg.MongoDB, log)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func buildNotifier(cfg *config.Config, log *zap.Logger) (notify.Notifier, func()) {
	notifiers := notify.Multi{notify.NewLogNotifier(log)}
	closers := []func() error{}

	if cfg.Notify.TelegramToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
		if err != nil {
			log.Warn("Failed to start telegram notifier", zap.Error(err))
		} else {
			notifiers = append(notifiers, tg)
		}
	}
	if cfg.Notify.AMQPURL != "" {
		pub, err := notify.NewAMQPNotifier(cfg.Notify.AMQPURL, cfg.Notify.AMQPExchange)
		if err != nil {
			log.Warn("Failed to connect to rabbitmq, continuing without it", zap.Error(err))
		} else {
			notifiers = append(notifiers, pub)
			closers = append(closers, pub.Close)
		}
	}

	return notifiers, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn("Failed to close notifier", zap.Error(err))
			}
		}
	}
}

func advertiseHost(host string) string {
	if host != "" && host != "0.0.0.0" {
		return host
	}
	if name, err := os.Hostname(); err == nil {
		return name
	}
	return "localhost"
}
