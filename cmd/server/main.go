package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"cardgate/internal/audit"
	authhandler "cardgate/internal/auth/handler"
	authservice "cardgate/internal/auth/service"
	"cardgate/internal/catalog"
	"cardgate/internal/installments"
	"cardgate/internal/passwordhash"
	"cardgate/internal/platform/config"
	"cardgate/internal/platform/database"
	"cardgate/internal/platform/health"
	"cardgate/internal/platform/logger"
	"cardgate/internal/platform/metrics"
	"cardgate/internal/platform/middleware"
	"cardgate/internal/platform/tracer"
	"cardgate/internal/purchase"
	"cardgate/internal/tenant"
	tenantstore "cardgate/internal/tenant/store"
	"cardgate/internal/token"
	httptransport "cardgate/internal/transport/http"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing cardgate",
		"addr", cfg.Addr,
		"token_ttl", cfg.TokenTTL.String(),
	)

	m := metrics.New()
	tr := tracer.NewOTel()

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DirectoryURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("master directory unavailable", "error", err)
		os.Exit(1)
	}

	var directory tenantstore.Directory
	if pool != nil {
		directory = tenantstore.NewPostgres(pool.DB())
	} else {
		// No directory configured: start with an empty in-memory one so the
		// open endpoints still serve.
		log.Warn("DIRECTORY_DB_URL not set, tenant directory is empty")
		directory = tenantstore.NewInMemory()
	}
	if cfg.TenantCacheTTL > 0 {
		directory = tenantstore.NewCached(directory, cfg.TenantCacheTTL,
			tenantstore.WithCacheObserver(m.TenantCacheHits.Inc, m.TenantCacheMisses.Inc))
	}

	auditor := audit.NewPublisher(audit.NewLogStore(log),
		audit.WithAsyncBuffer(256),
		audit.WithRequestIDFunc(middleware.GetRequestID),
	)
	defer auditor.Close()

	resolver, err := tenant.NewResolver(directory,
		tenant.WithLogger(log),
		tenant.WithMetrics(m),
		tenant.WithTracer(tr),
		tenant.WithAudit(auditor),
	)
	if err != nil {
		log.Error("building tenant resolver", "error", err)
		os.Exit(1)
	}

	verifier := passwordhash.New(
		passwordhash.WithLogger(log),
		passwordhash.WithRelaxedReadHook(func() {
			m.RelaxedLegacyHash.Inc()
			_ = auditor.Emit(context.Background(), audit.Event{Action: audit.ActionRelaxedHashRead})
		}),
	)
	codec := token.New(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL,
		token.WithLeeway(cfg.TokenLeeway),
		token.WithObserver(m.TokensIssued.Inc, func(outcome string) {
			m.TokenValidations.WithLabelValues(outcome).Inc()
		}))

	loginService, err := authservice.New(verifier, codec,
		authservice.WithLogger(log),
		authservice.WithMetrics(m),
		authservice.WithAudit(auditor),
		authservice.WithTracer(tr),
	)
	if err != nil {
		log.Error("building login service", "error", err)
		os.Exit(1)
	}
	authHandler, err := authhandler.New(loginService, authhandler.NewSQLOpener(), log)
	if err != nil {
		log.Error("building auth handler", "error", err)
		os.Exit(1)
	}

	catalogHandler, err := catalog.NewHandler(catalog.NewSQLOpener(), log)
	if err != nil {
		log.Error("building catalog handler", "error", err)
		os.Exit(1)
	}

	purchaseService := purchase.NewService(
		purchase.WithLogger(log),
		purchase.WithMetrics(m),
		purchase.WithAudit(auditor),
		purchase.WithTracer(tr),
	)
	purchaseHandler, err := purchase.NewHandler(purchaseService, purchase.NewSQLOpener(), log)
	if err != nil {
		log.Error("building purchase handler", "error", err)
		os.Exit(1)
	}

	healthHandler := health.New()
	if pool != nil {
		healthHandler.RegisterCheck("directory", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		Resolver:     resolver,
		Sessions:     codec,
		Auth:         authHandler,
		Installments: installments.NewHandler(log),
		Catalog:      catalogHandler,
		Purchases:    purchaseHandler,
		Metrics:      m,
		Health:       healthHandler,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	if pool != nil {
		if cerr := pool.Close(); cerr != nil {
			log.Error("closing master directory pool", "error", cerr)
		}
	}
	if err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
