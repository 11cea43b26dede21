package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/dukerupert/grocerytracker/internal/auth"
	"github.com/dukerupert/grocerytracker/internal/backup"
	"github.com/dukerupert/grocerytracker/internal/config"
	"github.com/dukerupert/grocerytracker/internal/handler"
	"github.com/dukerupert/grocerytracker/internal/middleware"
	"github.com/dukerupert/grocerytracker/internal/product"
	"github.com/dukerupert/grocerytracker/internal/store"
	"github.com/dukerupert/grocerytracker/internal/tracker"
	ws "github.com/dukerupert/grocerytracker/internal/websocket"
)

type Server struct {
	hub            *ws.Hub
	tracker        *tracker.Tracker
	gate           *auth.Gate
	authH          *handler.AuthHandler
	userH          *handler.UserHandler
	categoryH      *handler.CategoryHandler
	itemH          *handler.ItemHandler
	shoppingH      *handler.ShoppingHandler
	infoH          *handler.InfoHandler
	backupH        *handler.BackupHandler
	rateLimiter    *middleware.RateLimiter
	backupManager  *backup.Manager
	allowedOrigins []string
	logger         *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	tr := tracker.New(
		store.NewUserStore(db),
		store.NewCategoryStore(db),
		store.NewGroceryStore(db),
		store.NewShoppingStore(db),
		hub,
		logger,
	)
	gate := auth.NewGate(tr, store.NewAccessKeyStore(db), store.NewSessionStore(db), logger)
	backupMgr := backup.NewManager(cfg.Backup, db, store.NewBackupStore(db), logger)
	products := product.NewService(cfg.ProductLookup, logger)

	return &Server{
		hub:            hub,
		tracker:        tr,
		gate:           gate,
		authH:          handler.NewAuthHandler(gate, tr, cfg.SecureCookies, logger),
		userH:          handler.NewUserHandler(gate, tr, logger),
		categoryH:      handler.NewCategoryHandler(tr, logger),
		itemH:          handler.NewItemHandler(tr, logger),
		shoppingH:      handler.NewShoppingHandler(tr, logger),
		infoH:          handler.NewInfoHandler(tr, products),
		backupH:        handler.NewBackupHandler(backupMgr, logger),
		rateLimiter:    middleware.NewRateLimiter(),
		backupManager:  backupMgr,
		allowedOrigins: cfg.AllowedOrigins,
		logger:         logger,
	}
}

// Load fills the tracker mirror from the database.
func (s *Server) Load(ctx context.Context) error {
	return s.tracker.Load(ctx)
}

func (s *Server) Gate() *auth.Gate {
	return s.gate
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("GET /health", handler.Health)
	outerMux.HandleFunc("GET /api/auth/users", s.authH.Users)
	outerMux.HandleFunc("POST /api/auth/validate", s.rateLimited(s.authH.Validate))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimited(s.authH.Login))
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimited(s.authH.Register))

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	requireAuth := middleware.RequireAuth(s.gate, s.logger.With("component", "auth_middleware"))
	outerMux.Handle("/", requireAuth(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.ByIP, middleware.CredentialLimit, middleware.CredentialWindow)
	return rl(h).ServeHTTP
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/session", s.authH.Session)
	mux.HandleFunc("POST /api/access-keys", s.authH.RegenerateKey)

	mux.HandleFunc("GET /api/users", s.userH.List)
	mux.HandleFunc("POST /api/users", s.userH.Create)
	mux.HandleFunc("PUT /api/users/{id}", s.userH.Update)
	mux.HandleFunc("DELETE /api/users/{id}", s.userH.Delete)

	mux.HandleFunc("GET /api/categories", s.categoryH.List)
	mux.HandleFunc("POST /api/categories", s.categoryH.Create)
	mux.HandleFunc("GET /api/categories/suggest", s.categoryH.Suggest)
	mux.HandleFunc("PUT /api/categories/{id}", s.categoryH.Update)
	mux.HandleFunc("DELETE /api/categories/{id}", s.categoryH.Delete)

	mux.HandleFunc("GET /api/items", s.itemH.List)
	mux.HandleFunc("POST /api/items", s.itemH.Create)
	mux.HandleFunc("GET /api/items/{id}", s.itemH.Get)
	mux.HandleFunc("PUT /api/items/{id}", s.itemH.Update)
	mux.HandleFunc("DELETE /api/items/{id}", s.itemH.Delete)
	mux.HandleFunc("PUT /api/items/{id}/locations/{location_id}", s.itemH.SetLocationQuantity)

	mux.HandleFunc("GET /api/shopping", s.shoppingH.List)
	mux.HandleFunc("POST /api/shopping", s.shoppingH.Create)
	mux.HandleFunc("POST /api/shopping/low-stock", s.shoppingH.AddLowStock)
	mux.HandleFunc("PUT /api/shopping/{id}", s.shoppingH.Update)
	mux.HandleFunc("DELETE /api/shopping/{id}", s.shoppingH.Delete)
	mux.HandleFunc("POST /api/shopping/{id}/toggle", s.shoppingH.Toggle)

	mux.HandleFunc("GET /api/stats", s.infoH.Stats)
	mux.HandleFunc("GET /api/locations", s.infoH.Locations)
	mux.HandleFunc("GET /api/products/{barcode}", s.infoH.Product)

	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("POST /api/backups", s.backupH.Create)

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.allowedOrigins, s.logger))
}
