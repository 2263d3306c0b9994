// Package api provides the HTTP REST API server for AgriPrice.
//
// It exposes current prices, forced refreshes, forecasts, statistics,
// stored-row uploads, cache administration and a WebSocket feed of refresh
// results.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/seenimoa/agriprice/internal/config"
	"github.com/seenimoa/agriprice/internal/forecast"
	"github.com/seenimoa/agriprice/internal/monitor"
	"github.com/seenimoa/agriprice/internal/svc"
	"github.com/seenimoa/agriprice/pkg/models"
	"github.com/seenimoa/agriprice/pkg/utils"
)

// Version is reported by /health. The CLI overrides it at startup.
var Version = "dev"

// maxUploadBytes bounds POST /prices/stored bodies.
const maxUploadBytes = 16 << 20

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	svc    *svc.ServiceContext
	mon    *monitor.Monitor
	wsHub  *WSHub
}

// NewServer creates a configured API server with all routes and middleware.
// Refresh results are broadcast to WebSocket clients.
func NewServer(sc *svc.ServiceContext) (*Server, error) {
	if sc == nil || sc.Monitor == nil {
		return nil, errors.New("api: service context is required")
	}
	srv := &Server{
		cfg:   sc.Config,
		svc:   sc,
		mon:   sc.Monitor,
		wsHub: NewWSHub(),
	}
	if srv.cfg == nil {
		srv.cfg = &config.Config{}
	}
	srv.mon.OnRefresh(func(res monitor.RefreshResult) {
		srv.wsHub.Broadcast(WSMessage{
			Type: "prices_refreshed",
			Data: RefreshSummary{
				ID:       res.ID,
				Tier:     res.Tier,
				Records:  res.Records,
				Matched:  res.Matched,
				Duration: res.Duration.String(),
			},
		})
	})
	srv.router = srv.buildRouter()
	return srv, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe starts the HTTP server and shuts it down gracefully on
// SIGINT or SIGTERM.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("api: listen: %w", err)
	case <-done:
	}
	logx.Info("api: shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	// Legacy paths used by the mobile client.
	r.Get("/prices", s.handlePrices)
	r.Post("/prices/refresh", s.handleRefresh)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/commodities", s.handleCommodities)

		r.Get("/prices", s.handlePrices)
		r.Post("/prices/refresh", s.handleRefresh)
		r.Get("/prices/forecasts", s.handleForecasts)
		r.Get("/prices/stats", s.handleStats)
		r.Get("/prices/stored", s.handleStoredRows)
		r.Post("/prices/stored", s.handleImportStored)

		r.Post("/forecast", s.handleForecast)

		r.Get("/cache", s.handleCacheStatus)
		r.Delete("/cache", s.handleClearCache)

		r.Get("/config", s.handleGetConfig)
		r.Get("/config/keys", s.handleGetConfigKeys)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PricesResponse is the body of GET /prices.
type PricesResponse struct {
	Tier        string                     `json:"tier"`
	Commodities []models.EnrichedCommodity `json:"commodities"`
	LastUpdated *time.Time                 `json:"last_updated,omitempty"`
}

// RefreshSummary is the WebSocket payload for a completed refresh.
type RefreshSummary struct {
	ID       string `json:"id"`
	Tier     string `json:"tier"`
	Records  int    `json:"records"`
	Matched  int    `json:"matched"`
	Duration string `json:"duration"`
}

// ForecastRequest is the body for POST /api/v1/forecast.
type ForecastRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ForecastResponse pairs a forecast with its market-analysis sentence.
type ForecastResponse struct {
	Forecast models.ForecastRecord `json:"forecast"`
	Analysis string                `json:"analysis,omitempty"`
}

// ImportRequest is the body for POST /api/v1/prices/stored. A bare JSON
// array of rows is accepted as well.
type ImportRequest struct {
	Rows []models.RawPriceRow `json:"rows"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"status":      "ok",
		"version":     Version,
		"time_pht":    utils.NowPHT().Format(time.RFC3339),
		"commodities": s.mon.Catalog().Len(),
		"ws_clients":  s.wsHub.ClientCount(),
	}
	if t, ok := s.mon.LastUpdated(r.Context()); ok {
		data["last_updated"] = t
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func (s *Server) handleCommodities(w http.ResponseWriter, r *http.Request) {
	cat := s.mon.Catalog()
	if c := strings.TrimSpace(r.URL.Query().Get("category")); c != "" {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: cat.ByCategory(models.Category(strings.ToUpper(c)))})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: cat.Entries()})
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	list, tier, err := s.mon.CurrentPrices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if c := strings.TrimSpace(r.URL.Query().Get("category")); c != "" {
		want := models.Category(strings.ToUpper(c))
		filtered := list[:0]
		for _, ec := range list {
			if ec.Category == want {
				filtered = append(filtered, ec)
			}
		}
		list = filtered
	}
	resp := PricesResponse{Tier: tier, Commodities: list}
	if t, ok := s.mon.LastUpdated(r.Context()); ok {
		resp.LastUpdated = &t
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: resp})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := s.mon.Refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: res})
}

func (s *Server) handleForecasts(w http.ResponseWriter, r *http.Request) {
	fcs, err := s.mon.Forecasts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: fcs})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.mon.Statistics(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: st})
}

func (s *Server) handleStoredRows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.mon.StoredRows(r.Context())})
}

func (s *Server) handleImportStored(w http.ResponseWriter, r *http.Request) {
	rows, err := decodeRows(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusBadRequest, "rows are required")
		return
	}
	res, err := s.mon.ImportStored(r.Context(), rows)
	if errors.Is(err, monitor.ErrInvalidRow) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: res})
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	var req ForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	fc, err := s.svc.Forecaster.Forecast(r.Context(), req.Name, req.Price)
	if errors.Is(err, forecast.ErrEmptyName) || errors.Is(err, forecast.ErrInvalidPrice) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	fc.CommodityID = s.mon.Catalog().IDFor(req.Name)
	resp := ForecastResponse{Forecast: fc}
	if text, err := forecast.NewEngine(s.svc.Clock).Analysis(req.Name); err == nil {
		resp.Analysis = text
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: resp})
}

func (s *Server) handleCacheStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.mon.CacheStatus(r.Context())})
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.mon.ClearCache(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]string{"status": "cleared"}})
}

// ============================================================
// Helpers
// ============================================================

// decodeRows accepts {"rows": [...]} or a bare array.
func decodeRows(body io.Reader) ([]models.RawPriceRow, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var rows []models.RawPriceRow
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, err
		}
		return rows, nil
	}
	var req ImportRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}
	return req.Rows, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Errorf("api: write response err=%v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// ============================================================
// WebSocket Hub
// ============================================================

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// WSHub manages WebSocket connections and message broadcasting.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
}

// WSClient represents a single WebSocket connection.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
}

// Run starts the hub event loop.
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow client; disconnect
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a message to all connected WebSocket clients. Messages
// are dropped while the broadcast queue is full.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub.
func (h *WSHub) Register(client *WSClient) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	h.unregister <- client
}
