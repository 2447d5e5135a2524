// Package httpapi exposes the app core over a JSON HTTP API: the record
// store, category registry, report rollups, currency settings, receipt
// parsing and account status.
package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"pennykeep/internal/account"
	"pennykeep/internal/log"
	"pennykeep/internal/rates"
	"pennykeep/internal/receipt"
	"pennykeep/internal/settings"
	"pennykeep/internal/store"
)

// ReceiptParser structures recognized receipt text into a draft.
type ReceiptParser interface {
	Parse(ctx context.Context, recognizedText string) receipt.Draft
}

type Server struct {
	http.Server

	transactions *store.TransactionStore
	categories   *store.CategoryRegistry
	settings     *settings.AppSettings
	rates        *rates.Client
	receipts     ReceiptParser
	account      *account.Manager

	reportMonths int
	rateLimiter  *rateLimiter
	logger       *log.Logger
	shutdownOnce sync.Once
}

type Deps struct {
	Transactions *store.TransactionStore
	Categories   *store.CategoryRegistry
	Settings     *settings.AppSettings
	Rates        *rates.Client
	// Receipts may be nil when no model credentials are configured; the
	// parse endpoint then answers 503.
	Receipts     ReceiptParser
	Account      *account.Manager
	ReportMonths int
	// MutationRateLimit caps mutating requests per client IP per minute;
	// zero means the default.
	MutationRateLimit int
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	reportMonths := deps.ReportMonths
	if reportMonths <= 0 {
		reportMonths = 12
	}

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		transactions: deps.Transactions,
		categories:   deps.Categories,
		settings:     deps.Settings,
		rates:        deps.Rates,
		receipts:     deps.Receipts,
		account:      deps.Account,
		reportMonths: reportMonths,
		rateLimiter:  newRateLimiter(deps.MutationRateLimit),
		logger:       logger.WithComponent(log.ComponentHTTP),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withMiddleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withMiddleware(s.handleAddCategory))
	mux.HandleFunc("POST /api/categories/delete", s.withMiddleware(s.handleDeleteCategories))
	mux.HandleFunc("POST /api/categories/move", s.withMiddleware(s.handleMoveCategories))

	mux.HandleFunc("GET /api/reports/monthly", s.withMiddleware(s.handleMonthlyReport))
	mux.HandleFunc("GET /api/reports/categories", s.withMiddleware(s.handleCategoryReport))
	mux.HandleFunc("GET /api/reports/savings", s.withMiddleware(s.handleSavingsReport))

	mux.HandleFunc("GET /api/settings/currency", s.withMiddleware(s.handleGetCurrency))
	mux.HandleFunc("PUT /api/settings/currency", s.withMiddleware(s.handleSetCurrency))

	mux.HandleFunc("POST /api/receipts/parse", s.withMiddleware(s.handleParseReceipt))
	mux.HandleFunc("GET /api/account", s.withMiddleware(s.handleAccountStatus))

	return s
}

// Shutdown stops the cleanup goroutines and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds request logging, rate limiting on mutations, and
// security headers.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		s.logger.InfoContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
