package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"MarketDashboard/internal/collector"
	"MarketDashboard/internal/dashboard"
	"MarketDashboard/internal/metrics"
	"MarketDashboard/internal/model"
	"MarketDashboard/internal/overlay"
	"MarketDashboard/internal/view"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes the dashboard controller over HTTP and websocket.
type Server struct {
	dash *dashboard.Controller
	met  *metrics.Metrics
	http *http.Server
}

// New creates a Server listening on addr.
func New(addr string, dash *dashboard.Controller, met *metrics.Metrics) *Server {
	s := &Server{dash: dash, met: met}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.met.Handler())
	r.Get("/ws", s.serveWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.state)
		r.Get("/view", s.text)
		r.Post("/refresh", s.refresh)
		r.Post("/tickers/{ticker}", s.selectTicker)
		r.Post("/period/{period}", s.setPeriod)
		r.Post("/indicators/{kind}/toggle", s.toggle)
		r.Post("/lang/{lang}", s.setLanguage)
		r.Post("/model/{model}", s.setModel)
		r.Post("/tab/{tab}", s.switchTab)
		r.Post("/history", s.history)
		r.Post("/history-dates/reload", s.reloadHistoryDates)
		r.Post("/prices/refresh", s.refreshPrices)
	})
	return r
}

// ListenAndServe blocks until the server stops. It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	log.Printf("[INFO] HTTP server listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) state(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Snapshot())
}

func (s *Server) text(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(view.Text(s.dash.Snapshot())))
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	s.met.ObserveCommand("http")
	s.dash.RefreshDashboard(r.Context())
	writeJSON(w, http.StatusOK, s.dash.Snapshot())
}

// selectTicker starts the chart load. With ?wait=true the response is sent
// after the indicator load finished.
func (s *Server) selectTicker(w http.ResponseWriter, r *http.Request) {
	s.met.ObserveCommand("http")
	done, err := s.dash.SelectTicker(chi.URLParam(r, "ticker"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.respondLoad(w, r, done)
}

func (s *Server) setPeriod(w http.ResponseWriter, r *http.Request) {
	s.met.ObserveCommand("http")
	done, err := s.dash.SetPeriod(chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if done == nil {
		writeJSON(w, http.StatusOK, s.dash.Snapshot())
		return
	}
	s.respondLoad(w, r, done)
}

func (s *Server) respondLoad(w http.ResponseWriter, r *http.Request, done <-chan error) {
	if r.URL.Query().Get("wait") != "true" {
		writeJSON(w, http.StatusAccepted, s.dash.Snapshot())
		return
	}
	select {
	case err := <-done:
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, s.dash.Snapshot())
		case errors.Is(err, overlay.ErrSuperseded):
			writeError(w, http.StatusConflict, err)
		default:
			writeError(w, http.StatusBadGateway, err)
		}
	case <-r.Context().Done():
	}
}

func (s *Server) toggle(w http.ResponseWriter, r *http.Request) {
	s.met.ObserveCommand("http")
	kind, err := model.ParseIndicatorKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	on, err := s.dash.ToggleIndicator(kind)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "enabled": on})
}

func (s *Server) setLanguage(w http.ResponseWriter, r *http.Request) {
	s.met.ObserveCommand("http")
	if err := s.dash.SetLanguage(r.Context(), chi.URLParam(r, "lang")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.dash.Snapshot())
}

func (s *Server) setModel(w http.ResponseWriter, r *http.Request) {
	s.met.ObserveCommand("http")
	if err := s.dash.SetModel(r.Context(), chi.URLParam(r, "model")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.dash.Snapshot())
}

func (s *Server) switchTab(w http.ResponseWriter, r *http.Request) {
	s.met.ObserveCommand("http")
	if err := s.dash.SwitchTab(r.Context(), chi.URLParam(r, "tab")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.dash.Snapshot())
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	s.met.ObserveCommand("http")
	if err := s.dash.LoadHistory(r.Context(), r.URL.Query().Get("date")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.dash.Snapshot())
}

func (s *Server) reloadHistoryDates(w http.ResponseWriter, r *http.Request) {
	s.met.ObserveCommand("http")
	s.dash.LoadHistoryDates(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"dates": s.dash.Snapshot().HistoryDates})
}

func (s *Server) refreshPrices(w http.ResponseWriter, r *http.Request) {
	s.met.ObserveCommand("http")
	if err := s.dash.UpdateRealtimePrices(r.Context()); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.dash.Snapshot().Picks)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrInvalidPeriod),
		errors.Is(err, dashboard.ErrInvalidLanguage),
		errors.Is(err, dashboard.ErrInvalidModel),
		errors.Is(err, dashboard.ErrInvalidTab),
		errors.Is(err, dashboard.ErrNoTicker),
		errors.Is(err, model.ErrUnknownIndicator):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrClosed):
		return http.StatusServiceUnavailable
	case collector.IsNotFound(err):
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
