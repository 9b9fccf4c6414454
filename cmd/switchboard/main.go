// Package main is a thin example composition root showing how the
// pieces in this module fit together: load a middleware configuration,
// build a factory and plugin manager, assemble a pipeline per request
// from the config's effective middleware list, and serve it over plain
// net/http. The wire protocol itself (HTTP/1.1 framing, HTTP/2
// multiplexing) is out of this module's scope; net/http already speaks
// both, so this composition root leans on it rather than reimplementing
// transport.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/heptiolabs/healthcheck"

	"github.com/iruldev/switchboard/config"
	"github.com/iruldev/switchboard/factory"
	"github.com/iruldev/switchboard/logging"
	"github.com/iruldev/switchboard/middleware"
	"github.com/iruldev/switchboard/plugin"
	"github.com/iruldev/switchboard/record"
	"github.com/iruldev/switchboard/route"
)

// shutdownTimeout bounds how long graceful shutdown waits for in-flight
// requests to finish.
const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "switchboard.yaml", "path to the middleware configuration file")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	pluginDir := flag.String("plugin-dir", "", "directory to scan for plugin shared objects (optional)")
	flag.Parse()

	logger, err := logging.NewLogger(logging.Config{Level: "info", Format: "json"})
	if err != nil {
		log.Fatalf("logger initialization error: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("config load failed", logging.Err(err))
		os.Exit(1)
	}

	f := factory.New()
	pm := plugin.NewManager(f, func(event plugin.EventType, name, message string) {
		logger.Info("plugin event", logging.String("event", string(event)), logging.String("plugin", name), logging.String("message", message))
	})

	if *pluginDir != "" {
		paths, err := plugin.Discover(plugin.DiscoveryConfig{SearchDirs: []string{*pluginDir}, Recursive: true})
		if err != nil {
			logger.Warn("plugin discovery failed", logging.Err(err))
		}
		for _, p := range paths {
			if outcome := pm.LoadPlugin(p); outcome.Result != plugin.ResultSuccess {
				logger.Warn("plugin load failed", logging.String("path", p), logging.String("result", string(outcome.Result)))
			}
		}
	}

	registry := route.NewRegistry()
	_ = registry.Register("/*", "GET", func(req *record.Request, ctx *middleware.Context) *record.Response {
		return record.OK(`{"message":"switchboard is up"}`, "application/json")
	})

	srv := newServer(cfg, f, registry, logger)

	var watcher *config.Watcher
	if cfg.HotReload.Enabled {
		watcher = config.NewWatcher(*configPath, cfg, cfg.HotReload.ValidateBeforeReload,
			func(evt config.ChangeEvent) {
				logger.Info("config reloaded", logging.String("path", evt.Path))
				srv.updateConfig(evt.Config)
			},
			func(err error) {
				logger.Warn("config watch error", logging.Err(err))
			},
		)
		if err := watcher.Start(); err != nil {
			logger.Warn("config watcher failed to start", logging.Err(err))
		}
	}

	router := chi.NewRouter()
	health := healthcheck.NewHandler()
	health.AddLivenessCheck("goroutine-count", healthcheck.GoroutineCountCheck(1000))
	router.Get("/healthz", health.LiveEndpoint)
	router.Get("/readyz", health.ReadyEndpoint)
	router.NotFound(srv.ServeHTTP)
	router.MethodNotAllowed(srv.ServeHTTP)
	router.Handle("/*", srv)

	httpServer := &http.Server{Addr: *addr, Handler: router}

	go func() {
		logger.Info("http server starting", logging.String("addr", *addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", logging.Err(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	signal.Stop(quit)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("http shutdown error", logging.Err(err))
	}

	if watcher != nil {
		_ = watcher.Stop()
	}
	if err := pm.UnloadAllPlugins(false); err != nil {
		logger.Warn("plugin unload error", logging.Err(err))
	}

	logger.Info("server shutdown complete")
}

// server builds one middleware.Pipeline per request from the current
// config's effective middleware list for that request's path, so a
// hot-reloaded config takes effect on the very next request without
// restarting the process.
type server struct {
	mu       sync.RWMutex
	cfg      *config.Config
	factory  *factory.Factory
	registry *route.Registry
	logger   logging.Logger
}

func newServer(cfg *config.Config, f *factory.Factory, registry *route.Registry, logger logging.Logger) *server {
	return &server{cfg: cfg, factory: f, registry: registry, logger: logger}
}

func (s *server) updateConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

func (s *server) currentConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := toRecordRequest(r)

	effective := s.currentConfig().EffectiveMiddleware(req.Path())
	middlewares, err := s.factory.CreateAll(effective)
	if err != nil {
		s.logger.Error("middleware assembly failed", logging.Err(err))
		writeRecordResponse(w, record.InternalServerError("middleware assembly failed"))
		return
	}

	pipeline := middleware.NewPipeline()
	for _, mw := range middlewares {
		pipeline.AddMiddleware(mw)
	}
	pipeline.SetFinalHandler(func(req *record.Request, ctx *middleware.Context) *record.Response {
		result, ok := s.registry.Find(req.Method(), req.Path())
		if !ok {
			return record.NotFound("no route matched " + req.Path())
		}
		for name, value := range result.PathParams {
			req.SetPathParam(name, value)
		}
		handler, ok := result.Handler.(func(*record.Request, *middleware.Context) *record.Response)
		if !ok {
			return record.InternalServerError("route handler has an unexpected type")
		}
		return handler(req, ctx)
	})

	resp, err := pipeline.Execute(req)
	if err != nil {
		s.logger.Error("pipeline execution failed", logging.Err(err))
		writeRecordResponse(w, record.InternalServerError(err.Error()))
		return
	}
	writeRecordResponse(w, resp)
}
