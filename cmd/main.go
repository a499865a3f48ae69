package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc/health"

	grpchealth "github.com/dtroode/weave-server/internal/api/grpc/health"
	grpcrouter "github.com/dtroode/weave-server/internal/api/grpc/router"
	grpcserver "github.com/dtroode/weave-server/internal/api/grpc/server"
	httprouter "github.com/dtroode/weave-server/internal/api/http/router"
	httpserver "github.com/dtroode/weave-server/internal/api/http/server"
	"github.com/dtroode/weave-server/internal/auth"
	"github.com/dtroode/weave-server/internal/config"
	"github.com/dtroode/weave-server/internal/identity"
	"github.com/dtroode/weave-server/internal/logger"
	"github.com/dtroode/weave-server/internal/model"
	"github.com/dtroode/weave-server/internal/repository/postgres"
	"github.com/dtroode/weave-server/internal/server"
	"github.com/dtroode/weave-server/internal/service"
	"github.com/dtroode/weave-server/internal/storage/cached"
	"github.com/dtroode/weave-server/internal/storage/redis"
	"github.com/dtroode/weave-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	itemRepo := postgres.NewItemRepository(db)

	cache, redisClient := redis.Dial(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer redisClient.Close()

	itemStore, err := cached.New(ctx, itemRepo, cache, logger.With("component", "cache"))
	if err != nil {
		logger.Fatal("failed to initialize cache overlay", "error", err)
	}

	auth.RegisterDefaults(userRepo, logger)
	verifier, err := auth.Get(cfg.Auth.Scheme)
	if err != nil {
		var cfgErr *auth.ConfigurationError
		if errors.As(err, &cfgErr) {
			logger.Fatal("unknown auth scheme", "scheme", cfgErr.Scheme, "available", auth.Default().Names())
		}
		logger.Fatal("failed to resolve auth scheme", "error", err)
	}

	ctxMgr := identity.NewManager()
	extractor := auth.NewExtractor(verifier, ctxMgr, logger)

	storageService := service.NewStorage(itemStore, logger, service.WithQuota(cfg.Storage.QuotaBytes))
	usersService := service.NewUsers(verifier, logger)

	routerOpts := []httprouter.Option{httprouter.WithReadinessBackends(itemStore)}
	if cfg.Auth.TrustedSecret != "" {
		routerOpts = append(routerOpts, httprouter.WithTrustedIdentity(token.NewJWT(cfg.Auth.TrustedSecret)))
	}
	engine := httprouter.New(storageService, usersService, extractor, ctxMgr, logger, routerOpts...).Register()
	httpSrv := httpserver.NewHTTPServer(engine, fmt.Sprintf(":%s", cfg.HTTP.Port), cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout)

	healthServer := health.NewServer()
	grpcSrv := grpcserver.NewGRPCServer(
		grpcrouter.New(extractor, healthServer, logger.With("transport", "grpc")).Register(),
		fmt.Sprintf(":%s", cfg.GRPC.Port),
	)

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	for _, s := range []model.Server{httpSrv, grpcSrv} {
		wg.Add(1)
		go func(s model.Server) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
			}
		}(s)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		grpchealth.NewWatcher(healthServer, grpchealth.DefaultInterval, logger.With("component", "health"), itemStore).Run(ctx)
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, s := range []model.Server{httpSrv, grpcSrv} {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
