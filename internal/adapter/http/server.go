// Package http exposes the risk engine over HTTP: assessment and ingest
// endpoints, scenario replay, a live websocket feed, and the embedded map
// front-end, plus the usual health and metrics routes.
package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emberline/wildfire-cascade/internal/adapter/overpass"
	"github.com/emberline/wildfire-cascade/internal/domain"
	"github.com/emberline/wildfire-cascade/internal/pipeline"
	"github.com/emberline/wildfire-cascade/internal/scenario"
)

//go:embed static/index.html
var indexHTML []byte

// Assessor runs one full risk assessment per request.
type Assessor interface {
	Assess(ctx context.Context, req pipeline.Request) (*pipeline.Assessment, error)
	CheckReadiness(ctx context.Context) error
}

// Server wires the assessment pipeline, the raw ingest sources, and the
// scenario store into HTTP routes.
type Server struct {
	httpServer *http.Server
	assessor   Assessor
	fires      domain.FireSource
	assets     domain.AssetSource
	scenarios  *scenario.Store
	rules      domain.CascadeRules
	hub        *Hub
	logger     *slog.Logger
}

// NewServer builds the route table. Call Start (and Hub.Run via the returned
// server's hub) to begin serving.
func NewServer(addr string, assessor Assessor, fires domain.FireSource, assets domain.AssetSource,
	scenarios *scenario.Store, rules domain.CascadeRules, hub *Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		assessor:  assessor,
		fires:     fires,
		assets:    assets,
		scenarios: scenarios,
		rules:     rules,
		hub:       hub,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /fires", s.handleFires)
	mux.HandleFunc("GET /assets", s.handleAssets)
	mux.HandleFunc("GET /assets/overpass_query", s.handleOverpassQuery)
	mux.HandleFunc("POST /risk", s.handleRisk)
	mux.HandleFunc("GET /scenario", s.handleScenarioList)
	mux.HandleFunc("GET /scenario/{name}", s.handleScenario)
	mux.HandleFunc("GET /scenario/{name}/verify", s.handleScenarioVerify)
	mux.HandleFunc("GET /ws", s.hub.handleWS)
	mux.HandleFunc("GET /{$}", s.handleIndex)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.assessor.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML) //nolint:errcheck // static page, nothing to recover
}

func (s *Server) handleFires(w http.ResponseWriter, r *http.Request) {
	bbox, err := domain.ParseBBox(r.URL.Query().Get("bbox"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	query := domain.FireQuery{BBox: bbox, Days: 1, Source: r.URL.Query().Get("source")}
	if v := r.URL.Query().Get("days"); v != "" {
		query.Days, err = strconv.Atoi(v)
		if err != nil || query.Days < 1 || query.Days > 10 {
			s.writeError(w, badParam("days", v))
			return
		}
	}
	if v := r.URL.Query().Get("min_confidence"); v != "" {
		query.MinConfidence, err = strconv.ParseFloat(v, 64)
		if err != nil || query.MinConfidence < 0 || query.MinConfidence > 100 {
			s.writeError(w, badParam("min_confidence", v))
			return
		}
	}

	fires, err := s.fires.FetchFires(r.Context(), query)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bbox": bbox.String(), "count": len(fires), "fires": fires})
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	bbox, err := domain.ParseBBox(r.URL.Query().Get("bbox"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	assets, err := s.assets.FetchAssets(r.Context(), bbox)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bbox": bbox.String(), "count": len(assets), "assets": assets})
}

func (s *Server) handleOverpassQuery(w http.ResponseWriter, r *http.Request) {
	bbox, err := domain.ParseBBox(r.URL.Query().Get("bbox"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(overpass.BuildQuery(bbox))) //nolint:errcheck // debug endpoint
}

// riskRequest is the POST /risk body.
type riskRequest struct {
	BBox          string  `json:"bbox"`
	HorizonHours  int     `json:"horizon_hours"`
	FIRMSDays     int     `json:"firms_days"`
	FireSource    string  `json:"fire_source"`
	MinConfidence float64 `json:"min_confidence"`
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	var req riskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body: " + err.Error()})
		return
	}
	bbox, err := domain.ParseBBox(req.BBox)
	if err != nil {
		s.writeError(w, err)
		return
	}

	assessment, err := s.assessor.Assess(r.Context(), pipeline.Request{
		BBox:          bbox,
		HorizonHours:  req.HorizonHours,
		FIRMSDays:     req.FIRMSDays,
		FireSource:    req.FireSource,
		MinConfidence: req.MinConfidence,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.hub.Broadcast(assessment)
	writeJSON(w, http.StatusOK, assessment)
}

func (s *Server) handleScenarioList(w http.ResponseWriter, _ *http.Request) {
	names, err := s.scenarios.List()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenarios": names})
}

func (s *Server) handleScenario(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scenarios.Load(r.PathValue("name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleScenarioVerify(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scenarios.Load(r.PathValue("name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := scenario.Verify(sc, s.rules)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// writeError maps error classes onto status codes: caller mistakes are 400,
// a missing scenario is 404, everything else is an upstream failure.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidCoordinate):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, scenario.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		s.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
}

func badParam(name, value string) error {
	return fmt.Errorf("%w: parameter %s=%q", domain.ErrInvalidInput, name, value)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
