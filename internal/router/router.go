package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/caisseresto/api/internal/config"
	"github.com/caisseresto/api/internal/handler"
	"github.com/caisseresto/api/internal/service"
	"github.com/caisseresto/api/internal/store"
	"github.com/caisseresto/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, st store.Store, svc *service.OrderService, hub *ws.Hub, logger zerolog.Logger) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// CORS configuration. The counter UI runs from the local network or
	// a packaged frontend, so origins stay permissive.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// WebSocket route: pushes orders.changed / menus.changed events so
	// open counter screens can refresh.
	r.Get("/ws/updates", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, logger, w, r)
	})

	// Menu catalog
	menuHandler := handler.NewMenuHandler(st, hub, logger)
	r.Route("/menus", menuHandler.RegisterRoutes)

	// Order history
	orderHandler := handler.NewOrderHandler(svc, st, logger)
	r.Route("/orders", orderHandler.RegisterRoutes)

	// Static menu images
	fs := http.FileServer(http.Dir(cfg.Storage.ImagesDir))
	r.Handle("/images/*", http.StripPrefix("/images/", fs))

	logger.Info().Msg("router initialized")
	return r
}
