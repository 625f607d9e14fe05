// Package httpapi is an optional HTTP adapter around an Engine,
// mirroring the teacher's flat proxy-pool server handlers but driving
// the real pool-manager facade instead of a package-global IPPool.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	proxypool "github.com/newsinsight/proxypool"
	"github.com/newsinsight/proxypool/internal/model"
	"github.com/newsinsight/proxypool/internal/rotation"
	"github.com/newsinsight/proxypool/internal/source"
)

// Server adapts an Engine to net/http, following the teacher's
// package-level handler-plus-mux registration shape rather than a
// router dependency.
type Server struct {
	engine *proxypool.Engine
}

// New returns a Server wrapping engine.
func New(engine *proxypool.Engine) *Server {
	return &Server{engine: engine}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeErr(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// corsMiddleware adds permissive CORS headers, matching the teacher's
// admin-tooling posture (these endpoints are meant for an internal
// dashboard, not public exposure).
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "proxypool",
	})
}

// handleFetchProxies serves GET /admin/proxies?count=&onlyHttps=&country=
func (s *Server) handleFetchProxies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}

	count, _ := strconv.Atoi(r.URL.Query().Get("count"))
	if count <= 0 {
		count = 10
	}
	filter := source.FilterOptions{Count: count}
	if r.URL.Query().Get("onlyHttps") == "true" {
		filter.OnlyHTTPS = true
	}
	if c := r.URL.Query().Get("country"); c != "" {
		filter.Countries = map[string]bool{c: true}
	}

	proxies, err := s.engine.FetchProxies(r.Context(), proxypool.FetchOptions{Filter: filter, Count: count})
	if err != nil {
		writeErr(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"proxies": proxies})
}

// handleFetchValidatedProxies serves POST /admin/proxies/validated.
func (s *Server) handleFetchValidatedProxies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}

	var req struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req.Count = 10
	}
	if req.Count <= 0 {
		req.Count = 10
	}

	proxies, err := s.engine.FetchValidatedProxies(r.Context(), proxypool.FetchOptions{Count: req.Count}, nil)
	if err != nil {
		writeErr(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"proxies": proxies})
}

// handleNextProxy serves GET /proxy/next?validated=&scoring=&strategy=random|lru.
func (s *Server) handleNextProxy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}

	var (
		p   model.Proxy
		err error
	)
	switch r.URL.Query().Get("strategy") {
	case "random":
		p, err = s.engine.GetRandomProxy()
	case "lru":
		p, err = s.engine.GetLeastRecentlyUsedProxy()
	default:
		validated := r.URL.Query().Get("validated") != "false"
		scoring := r.URL.Query().Get("scoring") == "true"
		p, err = s.engine.GetNextProxy(validated, scoring)
	}
	if err != nil {
		writeErr(w, http.StatusServiceUnavailable, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"proxy":       p,
		"url":         proxypool.ProxyURL(p),
		"authHeaders": proxypool.AuthHeaders(p),
	})
}

// handleRecordResult serves POST /proxy/record.
func (s *Server) handleRecordResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}

	var req struct {
		Address        string  `json:"address"`
		Port           int     `json:"port"`
		Protocol       string  `json:"protocol"`
		Success        bool    `json:"success"`
		ResponseTimeMs float64 `json:"responseTimeMs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if req.Address == "" || req.Port == 0 {
		writeErr(w, http.StatusBadRequest, errMissingProxyIdentity)
		return
	}

	p := model.Proxy{Address: req.Address, Port: req.Port, Protocol: model.Protocol(req.Protocol)}
	if req.Success {
		s.engine.RecordSuccess(p, req.ResponseTimeMs)
	} else {
		s.engine.RecordFailure(p)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// handleRecordCaptcha serves POST /proxy/captcha.
func (s *Server) handleRecordCaptcha(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}

	var req struct {
		Address     string `json:"address"`
		Port        int    `json:"port"`
		Protocol    string `json:"protocol"`
		CaptchaType string `json:"captchaType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if req.Address == "" || req.Port == 0 {
		writeErr(w, http.StatusBadRequest, errMissingProxyIdentity)
		return
	}

	p := model.Proxy{Address: req.Address, Port: req.Port, Protocol: model.Protocol(req.Protocol)}
	s.engine.RecordCaptcha(p, req.CaptchaType)

	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// handleRotationStrategy serves GET/PUT /admin/rotation-strategy.
func (s *Server) handleRotationStrategy(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]string{"strategy": string(s.engine.GetRotationStrategyType())})
	case http.MethodPut:
		var req struct {
			Strategy string `json:"strategy"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		if err := s.engine.SetRotationStrategy(rotation.Kind(req.Strategy)); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"strategy": req.Strategy})
	default:
		writeErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
	}
}

// handleAnalytics serves GET /admin/analytics.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.GetAnalytics())
}

// handleDiagnostic serves POST /admin/diagnostic.
func (s *Server) handleDiagnostic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}
	report := s.engine.RunDiagnostic(r.Context())
	writeJSON(w, http.StatusOK, report)
}

// Handler returns an http.Handler with every route registered, ready
// to be passed to http.ListenAndServe by the embedding application.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", corsMiddleware(s.handleHealth))
	mux.HandleFunc("/admin/proxies", corsMiddleware(s.handleFetchProxies))
	mux.HandleFunc("/admin/proxies/validated", corsMiddleware(s.handleFetchValidatedProxies))
	mux.HandleFunc("/admin/rotation-strategy", corsMiddleware(s.handleRotationStrategy))
	mux.HandleFunc("/admin/analytics", corsMiddleware(s.handleAnalytics))
	mux.HandleFunc("/admin/diagnostic", corsMiddleware(s.handleDiagnostic))
	mux.HandleFunc("/proxy/next", corsMiddleware(s.handleNextProxy))
	mux.HandleFunc("/proxy/record", corsMiddleware(s.handleRecordResult))
	mux.HandleFunc("/proxy/captcha", corsMiddleware(s.handleRecordCaptcha))
	return mux
}
