// Package web serves the JSON API and the embedded dashboard.
package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cloudcost-guard/internal/config"
	"github.com/cloudcost-guard/internal/controller"
	"github.com/cloudcost-guard/internal/credentials"
	"github.com/cloudcost-guard/internal/domain"
	"github.com/cloudcost-guard/internal/logging"
)

//go:embed static/*
var staticFiles embed.FS

// GetStaticFS returns the embedded dashboard files
func GetStaticFS() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Server represents the web UI server
type Server struct {
	port    int
	logger  *logging.Logger
	cfg     *config.Config
	ctrl    *controller.Controller
	limiter *RateLimiter
	http    *http.Server
}

// NewServer creates a web server backed by a controller built from the
// global configuration.
func NewServer(port int) *Server {
	return NewServerWithController(controller.New(), port)
}

// NewServerWithController creates a web server around an existing controller
func NewServerWithController(ctrl *controller.Controller, port int) *Server {
	cfg := ctrl.Config()
	if port <= 0 {
		port = cfg.Server.Port
	}
	return &Server{
		port:    port,
		logger:  controller.NewLogger(cfg, "web", nil),
		cfg:     cfg,
		ctrl:    ctrl,
		limiter: NewRateLimiter(cfg.Server.RateLimitPerMinute, time.Minute),
	}
}

// Handler returns the complete HTTP handler: API routes plus the dashboard
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/analyze", s.limiter.Middleware(s.handleAnalyze))
	mux.HandleFunc("GET /api/sample", s.handleSample)
	mux.HandleFunc("GET /api/currencies", s.handleCurrencies)
	mux.HandleFunc("GET /api/key", s.handleKeyStatus)
	mux.HandleFunc("POST /api/key", s.handleKeySet)
	mux.HandleFunc("DELETE /api/key", s.handleKeyClear)
	mux.HandleFunc("GET /api/alerts", s.handleAlertsGet)
	mux.HandleFunc("PUT /api/alerts", s.handleAlertsPut)
	mux.HandleFunc("GET /api/alerts/status", s.handleAlertStatus)
	mux.HandleFunc("POST /api/export", s.handleExport)
	mux.Handle("GET /", http.FileServer(http.FS(GetStaticFS())))

	return s.logRequest(cors(mux))
}

// Start starts the web server and blocks until it stops
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.logger.Info("Starting web UI at http://localhost%s", addr)
	fmt.Printf("🌐 Starting web UI at http://localhost%s\n", addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// errorResponse is the body of every 4xx/5xx JSON reply
type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, fields ...string) {
	writeJSON(w, status, errorResponse{Error: msg, Fields: fields})
}

// writeFailure maps controller errors onto status codes
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Message, verr.Fields...)
		return
	}
	s.logger.Error("Request failed: %v", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Warn("Failed to decode %s body: %v", r.URL.Path, err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// sessionID returns the browser session from its cookie. With create set, a
// new session is started when none is present; the cookie has no Max-Age so
// it ends with the browser session.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request, create bool) string {
	name := s.cfg.Session.CookieName
	if c, err := r.Cookie(name); err == nil && credentials.ValidSessionID(c.Value) {
		return c.Value
	}
	if !create {
		return ""
	}

	id := credentials.NewSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
	})
	return id
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	key := s.ctrl.KeyStatus(s.sessionID(w, r, false))
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   s.cfg.UI.Version,
		Checks: map[string]string{
			"provider":   s.ctrl.ProviderName(),
			"credential": string(key.Source),
		},
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req controller.AnalyzeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	req.SessionID = s.sessionID(w, r, false)

	resp, err := s.ctrl.Analyze(r.Context(), req)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"billingData": s.ctrl.Sample()})
}

func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"currencies": s.ctrl.Currencies(),
		"default":    domain.ParseCurrency(s.cfg.Analysis.DefaultCurrency),
	})
}

func (s *Server) handleKeyStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.KeyStatus(s.sessionID(w, r, false)))
}

type keyRequest struct {
	APIKey string `json:"apiKey"`
}

func (s *Server) handleKeySet(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.APIKey) == "" {
		writeError(w, http.StatusBadRequest, "API key is required", "apiKey")
		return
	}

	id := s.sessionID(w, r, true)
	if err := s.ctrl.SetSessionKey(id, req.APIKey); err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.KeyStatus(id))
}

func (s *Server) handleKeyClear(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r, false)
	if id != "" {
		s.ctrl.ClearSessionKey(id)
	}
	writeJSON(w, http.StatusOK, s.ctrl.KeyStatus(id))
}

func (s *Server) handleAlertsGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.AlertSettings())
}

// formValue accepts a JSON number or string, so the dashboard can send raw
// input values and get the same messages as the form validation.
type formValue string

func (f *formValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = formValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected number or string: %w", err)
	}
	*f = formValue(n.String())
	return nil
}

type alertsRequest struct {
	Budget            formValue `json:"budget"`
	WarningThreshold  formValue `json:"warningThreshold"`
	CriticalThreshold formValue `json:"criticalThreshold"`
}

type alertsErrorResponse struct {
	Error    string               `json:"error"`
	Fields   []string             `json:"fields"`
	Settings domain.AlertSettings `json:"settings"`
}

func (s *Server) handleAlertsPut(w http.ResponseWriter, r *http.Request) {
	var req alertsRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	settings, err := s.ctrl.UpdateAlertInput(string(req.Budget), string(req.WarningThreshold), string(req.CriticalThreshold))
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, alertsErrorResponse{Error: verr.Message, Fields: verr.Fields, Settings: settings})
			return
		}
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleAlertStatus(w http.ResponseWriter, r *http.Request) {
	spend, err := strconv.ParseFloat(r.URL.Query().Get("spend"), 64)
	if err != nil || math.IsNaN(spend) || math.IsInf(spend, 0) {
		writeError(w, http.StatusBadRequest, "spend must be a number", "spend")
		return
	}
	status, err := s.ctrl.AlertStatus(spend)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var result domain.AnalysisResult
	if !s.decodeBody(w, r, &result) {
		return
	}

	var buf bytes.Buffer
	filename, err := s.ctrl.Export(&buf, result, r.URL.Query().Get("currency"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
