// Package api - Thin HTTP layer over the estimation engine.
// The API is only responsible for input ingestion, engine
// orchestration, and output serialization. It never performs cost
// logic.
package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/zclconf/go-cty/cty"
	"go.uber.org/zap"

	"aws-estimation/core/catalog"
	"aws-estimation/core/engine"
	"aws-estimation/core/evaluator"
	"aws-estimation/internal/errors"
	"aws-estimation/internal/logging"
)

// Server is the API server
type Server struct {
	engine  *engine.Engine
	store   *catalog.Store
	mux     *http.ServeMux
	version string
}

// NewServer creates an API server over the engine and catalog store
func NewServer(eng *engine.Engine, store *catalog.Store, version string) *Server {
	s := &Server{
		engine:  eng,
		store:   store,
		mux:     http.NewServeMux(),
		version: version,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /estimate", s.handleEstimate)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
	s.mux.HandleFunc("GET /pricing/versions", s.handlePricingVersions)
}

// handleEstimate handles POST /estimate
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), nil, http.StatusBadRequest)
		return
	}
	if (req.InlineHCL == "") == (req.Path == "") {
		s.writeError(w, "VALIDATION_ERROR",
			"exactly one of inline_hcl or path is required", nil, http.StatusBadRequest)
		return
	}

	variables := make(map[string]cty.Value, len(req.Variables))
	for name, value := range req.Variables {
		variables[name] = evaluator.ValueFromGo(value)
	}

	var result *engine.Result
	var err error
	if req.InlineHCL != "" {
		result, err = s.engine.EstimateSource([]byte(req.InlineHCL), "request.tf", variables)
	} else {
		result, err = s.engine.EstimateDir(req.Path, variables)
	}
	if err != nil {
		s.writeEstimationError(w, err)
		return
	}

	s.writeJSON(w, estimateResponse(result), http.StatusOK)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version": s.version,
		"engine":  "aws-estimation",
	}, http.StatusOK)
}

// handlePricingVersions handles GET /pricing/versions
func (s *Server) handlePricingVersions(w http.ResponseWriter, r *http.Request) {
	published := s.store.Versions()
	versions := make([]PricingVersionInfo, 0, len(published))
	for _, v := range published {
		versions = append(versions, PricingVersionInfo{
			ServiceCode: string(v.ServiceCode),
			Region:      v.Region,
			Version:     v.Version,
			EntryCount:  v.EntryCount,
			SyncedAt:    v.SyncedAt,
		})
	}
	s.writeJSON(w, map[string]interface{}{
		"versions": versions,
		"count":    len(versions),
	}, http.StatusOK)
}

// estimateResponse converts an engine result to the wire shape
func estimateResponse(result *engine.Result) *EstimateResponse {
	resources := make([]ResourceCost, len(result.Resources))
	for i, rc := range result.Resources {
		resources[i] = ResourceCost{
			Name:         rc.Name,
			ResourceType: rc.ResourceType,
			ServiceCode:  string(rc.ServiceCode),
			Region:       rc.Region,
			MonthlyCost:  rc.MonthlyCost.StringFixed(4),
			Details:      rc.PricingDetails,
			Warnings:     rc.Warnings,
		}
	}

	est := result.Estimate
	return &EstimateResponse{
		EstimateID:       est.ID,
		TotalMonthlyCost: est.TotalMonthlyCost.StringFixed(4),
		Currency:         est.Currency,
		ResourceCount:    est.ResourceCount,
		Resources:        resources,
		Warnings:         est.Warnings,
		PricingVersions:  est.PricingVersions,
		CreatedAt:        est.CreatedAt,
	}
}

// writeEstimationError maps the error taxonomy to HTTP statuses:
// configuration problems are the client's, storage and internal
// failures are ours
func (s *Server) writeEstimationError(w http.ResponseWriter, err error) {
	code := "INTERNAL_ERROR"
	var context map[string]interface{}
	status := http.StatusInternalServerError

	var typed *errors.Error
	if stderrors.As(err, &typed) {
		code = string(typed.Type)
		context = typed.Context
		switch typed.Type {
		case errors.TypeStorage, errors.TypeInternal:
			status = http.StatusInternalServerError
		default:
			status = http.StatusUnprocessableEntity
		}
	}

	logging.Warn("estimation request failed",
		zap.String("code", code),
		zap.Error(err))
	s.writeError(w, code, err.Error(), context, status)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, code, message string, context map[string]interface{}, status int) {
	s.writeJSON(w, &ErrorResponse{Error: ErrorDetail{
		Code:    code,
		Message: message,
		Context: context,
	}}, status)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server with sane timeouts
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	logging.Info("api server listening", zap.String("addr", addr))
	return srv.ListenAndServe()
}
