package web

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/poolside-labs/yieldvault/internal/logger"
	"github.com/poolside-labs/yieldvault/internal/state"
	"github.com/poolside-labs/yieldvault/internal/vault"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer handles HTTP requests for pool data visualization
type WebServer struct {
	router *mux.Router
	port   string
	pool   *vault.Pool
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, pool *vault.Pool) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router: mux.NewRouter(),
		port:   port,
		pool:   pool,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/pool/summary", ws.handleGetPoolSummary).Methods("GET")
	api.HandleFunc("/balances/{account}", ws.handleGetBalances).Methods("GET")
	api.HandleFunc("/receipts", ws.handleGetReceipts).Methods("GET")
	api.HandleFunc("/accruals", ws.handleGetAccruals).Methods("GET")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbHealthy := true
	if err := state.TestDBConnection(); err != nil {
		dbHealthy = false
	}

	overallStatus := "OK"
	statusCode := http.StatusOK
	if !dbHealthy {
		overallStatus = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
		},
		"pool_status": map[string]interface{}{
			"database_healthy": dbHealthy,
			"paused":           ws.pool.Paused(),
			"shutdown":         ws.pool.IsShutdown(),
		},
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetPoolSummary returns the pool-wide accounting summary
func (ws *WebServer) handleGetPoolSummary(w http.ResponseWriter, r *http.Request) {
	totalAssets, err := ws.pool.TotalAssets()
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to read total assets")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to read pool totals")
		return
	}
	activeAssets, err := ws.pool.ActiveAssets()
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to read active assets")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to read pool totals")
		return
	}
	asset := ws.pool.Asset()
	platformShares, perfShares := ws.pool.FeeShares()

	response := map[string]interface{}{
		"name":                   ws.pool.Name(),
		"symbol":                 ws.pool.Symbol(),
		"share_decimals":         ws.pool.Decimals(),
		"asset_denom":            asset.Denom,
		"asset_symbol":           asset.Symbol,
		"asset_decimals":         asset.Decimals,
		"total_assets":           totalAssets.String(),
		"active_assets":          activeAssets.String(),
		"total_supply":           ws.pool.TotalSupply().String(),
		"platform_fee_shares":    platformShares.String(),
		"performance_fee_shares": perfShares.String(),
		"paused":                 ws.pool.Paused(),
		"shutdown":               ws.pool.IsShutdown(),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetBalances returns the active/inactive breakdown for one account
func (ws *WebServer) handleGetBalances(w http.ResponseWriter, r *http.Request) {
	account := mux.Vars(r)["account"]
	if account == "" {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Account is required")
		return
	}

	balances, err := ws.pool.GetUserBalances(account)
	if err != nil {
		webLogger.Error().Err(err).Str("account", account).Msg("Failed to read user balances")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to read balances")
		return
	}

	response := map[string]interface{}{
		"account":         account,
		"active_shares":   balances.ActiveShares.String(),
		"inactive_shares": balances.InactiveShares.String(),
		"active_assets":   balances.ActiveAssets.String(),
		"inactive_assets": balances.InactiveAssets.String(),
		"total_shares":    balances.TotalShares().String(),
		"total_assets":    balances.TotalAssets().String(),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetReceipts returns recent operation receipts
func (ws *WebServer) handleGetReceipts(w http.ResponseWriter, r *http.Request) {
	limit := ws.parseLimit(r, 20)

	receipts, err := state.GetRecentReceipts(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent receipts")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve receipts")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"receipts": receipts,
		"count":    len(receipts),
	})
}

// handleGetAccruals returns recent fee accrual snapshots
func (ws *WebServer) handleGetAccruals(w http.ResponseWriter, r *http.Request) {
	limit := ws.parseLimit(r, 20)

	snapshots, err := state.GetRecentAccruals(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent accruals")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve accruals")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"accruals": snapshots,
		"count":    len(snapshots),
	})
}

func (ws *WebServer) parseLimit(r *http.Request, fallback int) int {
	limit := fallback
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}
	return limit
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		webLogger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
