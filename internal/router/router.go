package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fridays-bar/api/internal/config"
	"github.com/fridays-bar/api/internal/database"
	"github.com/fridays-bar/api/internal/handler"
	mw "github.com/fridays-bar/api/internal/middleware"
	"github.com/fridays-bar/api/internal/service"
	"github.com/fridays-bar/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Every /api route runs behind Identify, which attaches session claims
// when present but never rejects: identity is informational here.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // Vite dev server
			"http://localhost:4173", // Vite preview
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Presence websocket (authenticates via query param)
	r.Get("/ws/presence", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Services
	orderService := service.NewOrderService(pool, queries, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})
	inventoryService := service.NewInventoryService(pool, queries, func(db database.DBTX) service.InventoryStore {
		return database.New(db)
	})
	menuService := service.NewMenuService(pool, queries, func(db database.DBTX) service.MenuStore {
		return database.New(db)
	})
	statsService := service.NewStatsService(queries, hub)

	r.Route("/api", func(r chi.Router) {
		r.Use(mw.Identify(cfg.JWTSecret))

		authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
		authHandler.RegisterRoutes(r)

		staffHandler := handler.NewStaffHandler(queries)
		staffHandler.RegisterRoutes(r)

		itemHandler := handler.NewItemHandler(menuService)
		r.Route("/items", itemHandler.RegisterRoutes)

		materialHandler := handler.NewMaterialHandler(inventoryService)
		r.Route("/materials", materialHandler.RegisterRoutes)

		orderHandler := handler.NewOrderHandler(orderService)
		r.Route("/orders", orderHandler.RegisterRoutes)

		statsHandler := handler.NewStatsHandler(statsService)
		statsHandler.RegisterRoutes(r)
	})

	log.Println("Router initialized with all handlers")
	return r
}
