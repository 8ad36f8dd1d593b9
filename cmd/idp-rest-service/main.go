// cmd/idp-rest-service/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"idprest/internal/api"
	"idprest/internal/authn"
	"idprest/internal/meta"
	"idprest/internal/rest"
	"idprest/internal/services"
	"idprest/pkg/config"
	"idprest/pkg/db"
	"idprest/pkg/flows"
	"idprest/pkg/logger"
	"idprest/pkg/messages"
	"idprest/pkg/metadata"
	"idprest/pkg/metrics"
	"idprest/pkg/middleware"
)

func main() {
	// 1. Load configuration, the deployment catalog & initialize structured logger.
	cfg := config.Load()
	appLog := logger.New(cfg.Env)
	defer func() { _ = appLog.Sync() }()

	// "idp-rest-service reload [reason]" asks every running instance to reload
	// its metadata and exits.
	if len(os.Args) > 1 && os.Args[1] == "reload" {
		requestReload(cfg, appLog, strings.Join(os.Args[2:], " "))
		return
	}

	catalog, err := config.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		appLog.Fatalw("load catalog", "file", cfg.CatalogFile, "err", err)
	}
	authnCfg, err := authn.NewConfiguration(catalog, cfg.ActiveFlowIDs)
	if err != nil {
		appLog.Fatalw("catalog configuration", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Flow registry: Postgres when DATABASE_URL is set, otherwise the catalog's flows.
	var flowProvider flows.Provider
	if pool := db.MustConnect(cfg, appLog); pool != nil {
		defer pool.Close()
		if err := flows.EnsureSchema(ctx, pool); err != nil {
			appLog.Fatalw("flow schema", "err", err)
		}
		if len(catalog.Flows) > 0 {
			if err := flows.Seed(ctx, pool, catalog.Flows); err != nil {
				appLog.Fatalw("seed flows", "err", err)
			}
		}
		flowProvider = flows.NewPostgresProvider(pool, appLog)
	} else {
		flowProvider = flows.NewMemoryProvider(catalog.Flows, appLog)
	}
	allFlows, err := flowProvider.ListFlows(ctx)
	if err != nil {
		appLog.Fatalw("list flows", "err", err)
	}
	unknown, err := authn.UnknownActiveFlows(ctx, authnCfg, flowProvider)
	if err != nil {
		appLog.Fatalw("check active flows", "err", err)
	}
	if len(unknown) > 0 {
		appLog.Warnw("active flow ids missing from the flow registry", "ids", unknown)
	}

	// 3. Message catalog and the per-locale aggregation indexes.
	msgs, err := messages.New(cfg.MessagesDir, cfg.MessageLanguages, appLog)
	if err != nil {
		appLog.Fatalw("load messages", "dir", cfg.MessagesDir, "err", err)
	}
	if missing := msgs.MissingLocales(authnCfg.SupportedLocales); len(missing) > 0 {
		appLog.Warnw("supported locales without a message bundle fall back to the default language", "locales", missing)
	}
	sources := authn.BuildSources(authnCfg, allFlows, msgs, appLog)
	tags, err := authn.BuildTags(authnCfg, allFlows, msgs, appLog)
	if err != nil {
		appLog.Fatalw("build tags", "err", err)
	}

	// 4. Metadata snapshots: initial load, periodic reload, Redis triggered reload.
	m := metrics.New(nil)
	var servicesResolver rest.PayloadResolver
	if len(cfg.MetadataFiles) > 0 {
		md := metadata.NewService(metadata.SourcesFor(cfg.MetadataFiles), appLog, m)
		if err := md.Reload(ctx); err != nil {
			appLog.Errorw("initial metadata load failed, services endpoint unavailable until reload", "err", err)
		}
		go md.Run(ctx, cfg.MetadataReload)
		if rdb := db.MustRedis(cfg, appLog); rdb != nil {
			defer rdb.Close()
			w, err := metadata.Subscribe(ctx, rdb, cfg.ReloadChannel, appLog)
			if err != nil {
				appLog.Fatalw("subscribe reload channel", "err", err)
			}
			go w.Run(ctx, md)
		}
		servicesResolver = services.NewResolver(md, services.NewProjector(authnCfg.UnsolicitedSSOURL, appLog), m, appLog)
	} else {
		appLog.Warnw("no metadata configured, services endpoint disabled")
	}

	// 5. Build HTTP router and register middlewares.
	var keys middleware.KeySource
	if cfg.JWKSURL != "" {
		keys = middleware.NewJWKSCache(cfg.JWKSURL, 6*time.Hour)
	}
	router := chi.NewRouter()
	router.Use(chimw.RealIP)
	router.Use(middleware.RequestID())
	router.Use(middleware.Recover(appLog))
	router.Use(middleware.Metrics(m, appLog))
	router.Use(middleware.ResponseHeaders(catalog.MergeHeaders(cfg.ResponseHeaders)))
	router.Use(middleware.Tracing(appLog))
	router.Use(middleware.BearerAuth(cfg, keys, appLog))

	// 6. Basic operational endpoints.
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })
	router.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("pong")) })
	router.Get("/metrics", promhttp.Handler().ServeHTTP)

	// 7. Discovery routes.
	api.RegisterRoutes(router, api.Deps{
		Locales:  rest.NewLocales(authnCfg.SupportedLocales),
		Sources:  sources,
		Tags:     tags,
		Services: servicesResolver,
		Meta:     meta.FromSpec(catalog.Meta),
		Secured:  keys != nil,
		Log:      appLog,
	})

	// 8. Configure and start HTTP server asynchronously.
	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		appLog.Infow("idp-rest-service listening", "addr", cfg.HTTPAddr, "locales", authnCfg.SupportedLocales, "flows", len(allFlows))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatalw("ListenAndServe", "err", err)
		}
	}()

	// 9. Wait for SIGINT/SIGTERM, then shut down gracefully.
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	_ = middleware.ShutdownTracing(shutdownCtx)
	appLog.Infow("idp-rest-service stopped")
}

func requestReload(cfg config.Config, log *zap.SugaredLogger, reason string) {
	rdb := db.MustRedis(cfg, log)
	if rdb == nil {
		log.Fatalw("reload requires REDIS_URL")
	}
	defer rdb.Close()
	if reason == "" {
		reason = "manual"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metadata.RequestReload(ctx, rdb, cfg.ReloadChannel, reason); err != nil {
		log.Fatalw("request reload", "channel", cfg.ReloadChannel, "err", err)
	}
	log.Infow("metadata reload requested", "channel", cfg.ReloadChannel, "reason", reason)
}
