package rest

import (
	"context"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mark-henry/mhnodalnetwork/application/commands/bus"
	"github.com/mark-henry/mhnodalnetwork/application/ports"
	querybus "github.com/mark-henry/mhnodalnetwork/application/queries/bus"
	"github.com/mark-henry/mhnodalnetwork/interfaces/http/rest/handlers"
	"github.com/mark-henry/mhnodalnetwork/interfaces/http/rest/middleware"
	"github.com/mark-henry/mhnodalnetwork/pkg/auth"
	pkgerrors "github.com/mark-henry/mhnodalnetwork/pkg/errors"
	"github.com/mark-henry/mhnodalnetwork/pkg/observability"
	"github.com/mark-henry/mhnodalnetwork/web"
)

const readyTimeout = 3 * time.Second

// Options toggles the optional parts of the router. Nil or empty values
// switch the feature off.
type Options struct {
	Metrics     *observability.Collector
	Auth        *auth.JWTValidator
	CORSOrigins []string
	StaticDir   string
	Debug       bool
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	store      ports.GraphStore
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
	opts       Options
}

func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	store ports.GraphStore,
	logger *zap.Logger,
	opts Options,
) *Router {
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		store:      store,
		errors:     pkgerrors.NewErrorHandler(logger, opts.Debug),
		logger:     logger,
		opts:       opts,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errors.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.opts.Metrics != nil {
		router.Use(middleware.Metrics(rt.opts.Metrics))
	}
	if len(rt.opts.CORSOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: rt.opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
			ExposedHeaders: []string{middleware.RequestIDHeader},
			MaxAge:         300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.opts.Metrics.Handler())
	}

	router.Route("/api", func(r chi.Router) {
		if rt.opts.Auth != nil {
			r.Use(middleware.RequireWriteAuth(rt.opts.Auth, rt.errors, rt.logger))
		}
		r.NotFound(func(w http.ResponseWriter, req *http.Request) {
			rt.errors.HandleStatus(w, req, http.StatusNotFound, "Route not found")
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
			rt.errors.HandleStatus(w, req, http.StatusMethodNotAllowed, "Method not allowed")
		})

		graphHandler := handlers.NewGraphHandler(rt.commandBus, rt.queryBus, rt.errors, rt.logger)
		r.Get("/graphs", graphHandler.ListGraphs)
		r.Get("/graphs/{graph_slug}", graphHandler.GetGraph)
		r.Put("/graphs/{graph_slug}", graphHandler.UpdateGraph)

		nodeHandler := handlers.NewNodeHandler(rt.commandBus, rt.queryBus, rt.errors, rt.logger)
		r.Post("/nodes", nodeHandler.CreateNode)
		r.Get("/nodes/{node_slug}", nodeHandler.GetNode)
		r.Put("/nodes/{node_slug}", nodeHandler.UpdateNode)
		r.Delete("/nodes/{node_slug}", nodeHandler.DeleteNode)
	})

	router.Get("/*", rt.clientShell())

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports whether the store answers.
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), readyTimeout)
	defer cancel()

	if err := rt.store.Ping(ctx); err != nil {
		if !pkgerrors.IsUnavailable(err) {
			err = pkgerrors.NewUnavailableError("store").WithCause(err)
		}
		rt.errors.Handle(w, req, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

// clientShell serves files from the static dir (or the embedded shell) and
// falls back to index.html for client-side routes.
func (rt *Router) clientShell() http.HandlerFunc {
	var assets fs.FS = web.Assets
	if rt.opts.StaticDir != "" {
		assets = os.DirFS(rt.opts.StaticDir)
	}
	files := http.FileServerFS(assets)

	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name != "" && name != "index.html" {
			if info, err := fs.Stat(assets, name); err == nil && !info.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
		}
		index, err := fs.ReadFile(assets, "index.html")
		if err != nil {
			rt.errors.HandleStatus(w, r, http.StatusNotFound, "Client shell not found")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(index)
	}
}
