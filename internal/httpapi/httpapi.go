package httpapi

import (
	"bufio"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"posadmin/internal/archive"
	"posadmin/internal/domain"
	"posadmin/internal/events"
	"posadmin/internal/metrics"
	"posadmin/internal/service"
	"posadmin/internal/store"
	"posadmin/internal/transfer"
)

const (
	maxJSONBody   = 1 << 20
	maxUploadBody = 10 << 20
)

type Options struct {
	AllowedOrigin string
	Metrics       *metrics.Metrics
	Hub           *events.Hub
	Archive       *archive.Archiver
}

type API struct {
	service      *service.Service
	auth         *AuthManager
	opts         Options
	loginLimiter *attemptLimiter
	pinLimiter   *attemptLimiter
	csrfSecret   []byte
}

func New(svc *service.Service, auth *AuthManager, opts Options) *API {
	csrfSecret := make([]byte, 32)
	if _, err := rand.Read(csrfSecret); err != nil {
		csrfSecret = []byte("csrf-fallback-secret-change-me!!")
	}
	return &API{
		service:      svc,
		auth:         auth,
		opts:         opts,
		loginLimiter: newAttemptLimiter(5, time.Minute),
		pinLimiter:   newAttemptLimiter(8, time.Minute),
		csrfSecret:   csrfSecret,
	}
}

// csrfTokenForHour is the hex HMAC of an hour bucket (unix seconds truncated
// to the hour).
func (a *API) csrfTokenForHour(hourBucket int64) string {
	h := hmac.New(sha256.New, a.csrfSecret)
	fmt.Fprintf(h, "%d", hourBucket)
	return hex.EncodeToString(h.Sum(nil))
}

func (a *API) generateCSRFToken() string {
	return a.csrfTokenForHour(time.Now().UTC().Truncate(time.Hour).Unix())
}

// validateCSRFToken accepts the current and the previous hour's token.
func (a *API) validateCSRFToken(token string) bool {
	if token == "" {
		return false
	}
	current := time.Now().UTC().Truncate(time.Hour).Unix()
	return hmac.Equal([]byte(token), []byte(a.csrfTokenForHour(current))) ||
		hmac.Equal([]byte(token), []byte(a.csrfTokenForHour(current-3600)))
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	l.entries[key] = append(kept, now)
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(a.observe)

	r.HandleFunc("/healthz", a.handleHealth).Methods(http.MethodGet)
	if a.opts.Metrics != nil {
		r.Handle("/metrics", a.opts.Metrics.Handler()).Methods(http.MethodGet)
	}

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/auth/login", a.handleLogin).Methods(http.MethodPost)
	v1.HandleFunc("/auth/csrf-token", a.handleCSRFToken).Methods(http.MethodGet)
	v1.HandleFunc("/events", a.handleEvents).Methods(http.MethodGet)

	anyone := []string{RoleCashier, RoleAdmin}
	admin := []string{RoleAdmin}
	route := func(path string, h http.HandlerFunc, roles []string, methods ...string) {
		v1.HandleFunc(path, a.requireAuth(h, roles...)).Methods(methods...)
	}

	route("/products", a.handleListProducts, anyone, http.MethodGet)
	route("/products", a.handleCreateProduct, admin, http.MethodPost)
	route("/products/{id}", a.handleGetProduct, anyone, http.MethodGet)
	route("/products/{id}", a.handleUpdateProduct, admin, http.MethodPatch)
	route("/products/{id}", a.handleDeleteProduct, admin, http.MethodDelete)
	route("/products/{id}/inventory-logs", a.handleProductLogs, anyone, http.MethodGet)

	route("/customers", a.handleListCustomers, anyone, http.MethodGet)
	route("/customers", a.handleCreateCustomer, anyone, http.MethodPost)
	route("/customers/{id}", a.handleGetCustomer, anyone, http.MethodGet)
	route("/customers/{id}", a.handleUpdateCustomer, anyone, http.MethodPatch)
	route("/customers/{id}", a.handleDeleteCustomer, admin, http.MethodDelete)
	route("/customers/{id}/orders", a.handleCustomerOrders, anyone, http.MethodGet)

	route("/categories", a.handleListCategories, anyone, http.MethodGet)
	route("/categories", a.handleCreateCategory, admin, http.MethodPost)
	route("/categories/{id}", a.handleUpdateCategory, admin, http.MethodPatch)
	route("/categories/{id}", a.handleDeleteCategory, admin, http.MethodDelete)
	route("/vendors", a.handleListVendors, anyone, http.MethodGet)
	route("/vendors", a.handleCreateVendor, admin, http.MethodPost)
	route("/vendors/{id}", a.handleGetVendor, anyone, http.MethodGet)
	route("/vendors/{id}", a.handleUpdateVendor, admin, http.MethodPatch)
	route("/vendors/{id}", a.handleDeleteVendor, admin, http.MethodDelete)

	route("/inventory/logs", a.handleListLogs, admin, http.MethodGet)
	route("/inventory/logs", a.handleAddLog, admin, http.MethodPost)
	route("/inventory/logs", a.handleClearLogs, admin, http.MethodDelete)
	route("/inventory/adjustments", a.handleAdjustStock, admin, http.MethodPost)
	route("/inventory/low-stock", a.handleLowStock, anyone, http.MethodGet)
	route("/inventory/value", a.handleInventoryValue, admin, http.MethodGet)
	route("/inventory/reorder-suggestions", a.handleReorderSuggestions, admin, http.MethodGet)

	route("/cart/quote", a.handleQuote, anyone, http.MethodPost)
	route("/orders", a.handleListOrders, anyone, http.MethodGet)
	route("/orders", a.handleCheckout, anyone, http.MethodPost)
	route("/orders/{id}", a.handleGetOrder, anyone, http.MethodGet)
	route("/orders/{id}/status", a.handleOrderStatus, admin, http.MethodPatch)
	route("/orders/{id}/customer", a.handleOrderCustomer, anyone, http.MethodPatch)
	route("/orders/{id}/cancel", a.handleCancelOrder, admin, http.MethodPost)
	route("/orders/{id}/balance", a.handleOrderBalance, anyone, http.MethodGet)
	route("/orders/{id}/receipt.pdf", a.handleReceipt, anyone, http.MethodGet)
	route("/orders/{id}/refunds", a.handleRefund, anyone, http.MethodPost)
	route("/orders/{id}/refunds/{refundId}/restock", a.handleRestock, admin, http.MethodPost)

	route("/settings", a.handleGetSettings, anyone, http.MethodGet)
	route("/settings", a.handleSaveSettings, admin, http.MethodPut)

	route("/export/{entity}", a.handleExport, admin, http.MethodGet)
	route("/import/{entity}", a.handleImport, admin, http.MethodPost)

	route("/users/cashiers", a.handleListCashiers, admin, http.MethodGet)
	route("/users/cashiers", a.handleCreateCashier, admin, http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("route not found"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMethodNotAllowed(w)
	})

	return a.withMiddleware(r)
}

func (a *API) requireAuth(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		actor, err := a.auth.ParseToken(strings.TrimSpace(authorization[len("Bearer "):]))
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
			writeError(w, http.StatusForbidden, errors.New("forbidden role"))
			return
		}

		next(w, r.WithContext(service.WithActor(r.Context(), actor)))
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCSRFToken returns the token clients send as X-CSRF-Token on every
// mutating request.
func (a *API) handleCSRFToken(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"csrf_token": a.generateCSRFToken(),
	})
}

var csrfExemptPaths = []string{
	"/api/v1/auth/login",
}

func (a *API) checkCSRF(w http.ResponseWriter, r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return true
	}
	for _, exempt := range csrfExemptPaths {
		if r.URL.Path == exempt {
			return true
		}
	}
	if !a.validateCSRFToken(strings.TrimSpace(r.Header.Get("X-CSRF-Token"))) {
		writeError(w, http.StatusForbidden, errors.New("missing or invalid CSRF token"))
		return false
	}
	return true
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{a.opts.AllowedOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-CSRF-Token"},
		AllowCredentials: a.opts.AllowedOrigin != "*",
		MaxAge:           300,
	})

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPatch, http.MethodPut:
			limit := int64(maxJSONBody)
			if strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/") || strings.HasPrefix(r.URL.Path, "/api/v1/import/") {
				limit = maxUploadBody
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}

		if !a.checkCSRF(w, r) {
			return
		}
		next.ServeHTTP(w, r)
	})

	handler := c.Handler(inner)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		handler.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack is needed by the websocket upgrade on /api/v1/events.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// observe logs each request and records it under its route template so ids
// do not explode metric cardinality.
func (a *API) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		routeName := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				routeName = tpl
			}
		}
		elapsed := time.Since(startedAt)
		a.opts.Metrics.ObserveHTTP(routeName, r.Method, strconv.Itoa(rec.status), elapsed)
		log.Debug().Str("method", r.Method).Str("route", routeName).Int("status", rec.status).Dur("elapsed", elapsed).Msg("http request")
	})
}

// statusFor maps service and import errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, transfer.ErrUnsupportedFile):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, store.ErrInvalidTransaction),
		errors.Is(err, transfer.ErrEmptyImport),
		errors.Is(err, transfer.ErrHeaderMismatch):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err)
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	if parsed, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && parsed > 0 {
		limit = parsed
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

// writeError hides 5xx details from clients; they are logged instead.
func writeError(w http.ResponseWriter, status int, err error) {
	msg := err.Error()
	if status >= 500 {
		log.Error().Err(err).Int("status", status).Msg("internal error")
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
