// Package web serves the tracker dashboard: a small HTML page and a JSON API
// over the snapshot store, the trained models and the live market context.
package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/soulSw0rd/business-reporting/internal/domain"
	"github.com/soulSw0rd/business-reporting/internal/services/predictor"
)

// SnapshotReader is the read-side of the snapshot store the API needs.
type SnapshotReader interface {
	LatestByTrader(address string) (domain.Snapshot, bool)
	Count() int
	LabelCounts(horizonDays int) (pending, resolved int)
}

// PredictionService scores snapshots and exposes model metadata.
type PredictionService interface {
	PredictStored(horizons []int, snap domain.Snapshot) (domain.Prediction, error)
	ModelInfo(horizonDays int) (domain.ModelMetadata, error)
}

// MarketCollector delivers the current market context.
type MarketCollector interface {
	Collect(ctx context.Context) domain.MarketContext
}

// Server exposes the HTTP endpoints.
type Server struct {
	addr      string
	domain    string
	horizons  []int
	snapshots SnapshotReader
	predictor PredictionService
	market    MarketCollector
	logger    *zap.Logger
}

func NewServer(addr, tlsDomain string, horizons []int, snapshots SnapshotReader,
	pred PredictionService, market MarketCollector, logger *zap.Logger) *Server {
	if len(horizons) == 0 {
		horizons = []int{7, 30}
	}
	return &Server{
		addr:      addr,
		domain:    tlsDomain,
		horizons:  horizons,
		snapshots: snapshots,
		predictor: pred,
		market:    market,
		logger:    logger,
	}
}

func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/predictions", s.handlePredictions)
	mux.HandleFunc("/api/model", s.handleModel)
	mux.HandleFunc("/api/market", s.handleMarket)
	mux.HandleFunc("/api/store/stats", s.handleStats)
	return mux
}

// Start runs the HTTP server and shuts it down when ctx is canceled. When a
// TLS domain is configured it serves HTTPS with autocert and keeps a plain
// HTTP listener on :80 for ACME challenges.
func (s *Server) Start(ctx context.Context) error {
	if s.domain != "" {
		return s.startTLS(ctx)
	}

	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("dashboard listening", zap.String("addr", s.addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) startTLS(ctx context.Context) error {
	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(s.domain),
		Cache:      autocert.DirCache("cert-cache"),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		_ = httpsSrv.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("acme http server failed", zap.Error(err))
		}
	}()

	s.logger.Info("dashboard listening with TLS",
		zap.String("addr", s.addr), zap.String("domain", s.domain))
	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePredictions serves the dual-horizon prediction for a tracked trader's
// latest snapshot. Horizons without a trained model come back with an
// explanation instead of an error.
func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "address query parameter is required")
		return
	}

	snap, ok := s.snapshots.LatestByTrader(address)
	if !ok {
		writeError(w, http.StatusNotFound, "trader is not tracked")
		return
	}

	out, err := s.predictor.PredictStored(s.horizons, snap)
	if err != nil {
		s.logger.Error("prediction failed", zap.String("address", address), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "prediction failed")
		return
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	horizonDays, err := horizonParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := s.predictor.ModelInfo(horizonDays)
	if errors.Is(err, predictor.ErrModelNotTrained) {
		writeError(w, http.StatusNotFound, "model not trained yet")
		return
	}
	if err != nil {
		s.logger.Error("model info failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "model info failed")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.market.Collect(r.Context()))
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	type horizonStats struct {
		HorizonDays int `json:"horizon_days"`
		Pending     int `json:"pending"`
		Resolved    int `json:"resolved"`
	}

	stats := struct {
		Snapshots int            `json:"snapshots"`
		Labels    []horizonStats `json:"labels"`
	}{Snapshots: s.snapshots.Count()}

	for _, h := range s.horizons {
		pending, resolved := s.snapshots.LabelCounts(h)
		stats.Labels = append(stats.Labels, horizonStats{HorizonDays: h, Pending: pending, Resolved: resolved})
	}
	writeJSON(w, http.StatusOK, stats)
}

func horizonParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("horizon")
	if raw == "" {
		return 7, nil
	}
	horizonDays, err := strconv.Atoi(raw)
	if err != nil || (horizonDays != 7 && horizonDays != 30) {
		return 0, errors.Errorf("invalid horizon %q, want 7 or 30", raw)
	}
	return horizonDays, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Trader Tracker</title>
  <style>
    body { font-family: monospace; margin: 2rem auto; max-width: 720px; color: #111; }
    h1 { font-size: 1.2rem; }
    input { font-family: inherit; padding: .4rem; width: 28rem; }
    button { font-family: inherit; padding: .4rem .8rem; }
    pre { background: #f6f6f6; border: 1px solid #ddd; padding: 1rem; overflow-x: auto; }
    .row { margin-bottom: 1rem; }
  </style>
</head>
<body>
  <h1>Trader profitability tracker</h1>
  <div class="row">
    <input id="address" placeholder="0x... trader address" />
    <button onclick="predict()">Predict</button>
  </div>
  <pre id="out">Enter a tracked trader address.</pre>
  <div class="row">
    <button onclick="load('/api/store/stats')">Store stats</button>
    <button onclick="load('/api/model?horizon=7')">Model 7d</button>
    <button onclick="load('/api/model?horizon=30')">Model 30d</button>
    <button onclick="load('/api/market')">Market</button>
  </div>
<script>
async function load(url){
  const res = await fetch(url);
  document.getElementById('out').textContent = JSON.stringify(await res.json(), null, 2);
}
function predict(){
  const addr = document.getElementById('address').value.trim();
  if(addr){ load('/api/predictions?address=' + encodeURIComponent(addr)); }
}
</script>
</body>
</html>`
