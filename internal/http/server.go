// Package http serves the JSON API consumed by the mobile app:
// account registration and login, transaction CRUD with cursor
// pagination, the aggregated dashboard views, and receipt upload.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"banko/internal/auth"
	"banko/internal/blob"
	"banko/internal/cache"
	"banko/internal/core"
	"banko/internal/ledger"
	"banko/internal/services"
)

const (
	cacheTTL       = 5 * time.Minute
	rateLimitPerIP = 60
)

type Server struct {
	http.Server

	authService  *services.AuthService
	transactions *services.TransactionService
	dashboards   *services.DashboardService
	receipts     *blob.Store
	tokens       *auth.Manager
	rateLimiter  *rateLimiter

	// Read caches, keyed per user. Writes invalidate all of a user's
	// entries via DeletePrefix.
	dashboardCache *cache.LRU[services.Dashboard]
	metricsCache   *cache.LRU[ledger.Summary]
	balanceCache   *cache.LRU[int64]
	listCache      *cache.LRU[core.TransactionPage]
	janitor        *cache.Janitor

	shutdownOnce sync.Once
}

func NewServer(addr string, authSvc *services.AuthService, txSvc *services.TransactionService, dashSvc *services.DashboardService, receipts *blob.Store, tokens *auth.Manager) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		authService:    authSvc,
		transactions:   txSvc,
		dashboards:     dashSvc,
		receipts:       receipts,
		tokens:         tokens,
		rateLimiter:    newRateLimiter(rateLimitPerIP),
		dashboardCache: cache.NewLRU[services.Dashboard](1000, cacheTTL),
		metricsCache:   cache.NewLRU[ledger.Summary](1000, cacheTTL),
		balanceCache:   cache.NewLRU[int64](1000, cacheTTL),
		listCache:      cache.NewLRU[core.TransactionPage](2000, cacheTTL),
		janitor:        cache.NewJanitor(),
	}

	s.janitor.Register(s.dashboardCache)
	s.janitor.Register(s.metricsCache)
	s.janitor.Register(s.balanceCache)
	s.janitor.Register(s.listCache)
	s.janitor.Start(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/register", s.withMiddleware(s.handleRegister))
	mux.HandleFunc("POST /api/login", s.withMiddleware(s.handleLogin))
	mux.HandleFunc("GET /api/me", s.withMiddleware(s.withAuth(s.handleMe)))

	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.withAuth(s.handleListTransactions)))
	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.withAuth(s.handleCreateTransaction)))
	mux.HandleFunc("GET /api/transactions/{id}", s.withMiddleware(s.withAuth(s.handleGetTransaction)))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withMiddleware(s.withAuth(s.handleUpdateTransaction)))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.withAuth(s.handleDeleteTransaction)))
	mux.HandleFunc("POST /api/transactions/import", s.withMiddleware(s.withAuth(s.handleImportTransactions)))

	mux.HandleFunc("GET /api/balance", s.withMiddleware(s.withAuth(s.handleBalance)))
	mux.HandleFunc("GET /api/dashboard", s.withMiddleware(s.withAuth(s.handleDashboard)))
	mux.HandleFunc("GET /api/metrics", s.withMiddleware(s.withAuth(s.handleMetrics)))

	mux.HandleFunc("POST /api/receipts", s.withMiddleware(s.withAuth(s.handleUploadReceipt)))
	mux.HandleFunc("GET /receipts/{name}", s.withMiddleware(s.handleServeReceipt))

	return s
}

// invalidateUser drops every cached view of a user after a write.
func (s *Server) invalidateUser(userID string) {
	s.dashboardCache.Delete(userID)
	s.metricsCache.Delete(userID)
	s.balanceCache.Delete(userID)
	s.listCache.DeletePrefix(userID + "|")
}

// Shutdown stops the background goroutines and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.janitor.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
