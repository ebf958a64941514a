package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"neoledger/internal/cache"
	"neoledger/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server
	ledger      *services.LedgerService
	pinger      Pinger
	rateLimiter *rateLimiter

	insightCache *cache.InsightCache

	cacheCtx     context.Context
	cacheCancel  context.CancelFunc
	shutdownOnce sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run http.Server.
func NewServer(addr string, ledger *services.LedgerService, pinger Pinger) *Server {
	mux := http.NewServeMux()

	cacheCtx, cacheCancel := context.WithCancel(context.Background())

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:       ledger,
		pinger:       pinger,
		rateLimiter:  newRateLimiter(),
		insightCache: cache.NewInsightCache(500, 5*time.Minute),
		cacheCtx:     cacheCtx,
		cacheCancel:  cacheCancel,
	}

	s.insightCache.StartCleanup(cacheCtx, 10*time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/insights", s.withMiddleware(s.handleInsights))
	mux.HandleFunc("/transactions", s.withMiddleware(s.handleCreateTransaction))

	return s
}

// Shutdown stops the HTTP server and background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheCancel()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type requestIDKey struct{}

// withMiddleware adds security headers, rate limiting, and request logging.
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

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limit writes only; insight reads are cached anyway.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("store unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query, err := parseInsightParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	today := s.ledger.Today()
	if insights, ok := s.insightCache.Get(today, query); ok {
		slog.DebugContext(r.Context(), "Insight cache hit", "customer_id", query.CustomerID)
		writeJSON(w, http.StatusOK, insights)
		return
	}

	insights, err := s.ledger.Insights(r.Context(), query)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.insightCache.Set(today, query, insights)
	writeJSON(w, http.StatusOK, insights)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	tx, err := parseTransactionRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.ledger.Record(r.Context(), tx)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.insightCache.Invalidate(tx.CustomerID)

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": fmt.Sprintf("transaction %d recorded", res.ID),
	})
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "url", r.URL.Path)
	} else {
		slog.WarnContext(r.Context(), "Request rejected", "error", err, "url", r.URL.Path, "status", status)
	}
	writeError(w, status, err.Error())
}
