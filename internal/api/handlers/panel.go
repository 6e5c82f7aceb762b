package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/wonny/factorpanel/internal/contracts"
	"github.com/wonny/factorpanel/internal/pipeline"
	"github.com/wonny/factorpanel/internal/pipelineconfig"
	"github.com/wonny/factorpanel/pkg/logger"
)

// PanelBuilder runs one panel build
type PanelBuilder interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
	Config() *pipelineconfig.Config
}

// PanelHandler handles panel API endpoints
// ⭐ SSOT: 패널 API 핸들러는 이 구조체에서만
type PanelHandler struct {
	builder    PanelBuilder
	configHash string
	logger     *logger.Logger
}

// NewPanelHandler creates a new panel handler
func NewPanelHandler(builder PanelBuilder, configHash string, log *logger.Logger) *PanelHandler {
	return &PanelHandler{
		builder:    builder,
		configHash: configHash,
		logger:     log,
	}
}

// BuildRequest represents a panel build request
type BuildRequest struct {
	Symbols     []string `json:"symbols"`      // 비어있으면 활성 유니버스
	From        string   `json:"from"`         // YYYY-MM-DD
	To          string   `json:"to"`           // YYYY-MM-DD
	Factors     []string `json:"factors"`      // 비어있으면 설정 파일 값
	IncludeRows bool     `json:"include_rows"` // false 면 panel rows 생략
}

// ErrorResponse is returned for failed runs
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Stage string `json:"stage,omitempty"`
}

// Build runs the pipeline for the requested universe and range
// POST /api/panel/build
func (h *PanelHandler) Build(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	from, err := time.Parse(contracts.DateLayout, req.From)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'from' date format (expected YYYY-MM-DD)")
		return
	}
	to, err := time.Parse(contracts.DateLayout, req.To)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'to' date format (expected YYYY-MM-DD)")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"symbols": len(req.Symbols),
		"from":    req.From,
		"to":      req.To,
		"factors": req.Factors,
	}).Info("Panel build triggered")

	result, err := h.builder.Run(r.Context(), pipeline.Request{
		Symbols: req.Symbols,
		From:    from,
		To:      to,
		Factors: req.Factors,
	})
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	if !req.IncludeRows {
		trimmed := *result.Panel
		trimmed.Rows = nil
		result.Panel = &trimmed
	}
	respondJSON(w, http.StatusOK, result)
}

// GetConfig returns the factor configuration in effect
// GET /api/panel/config
func (h *PanelHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"config_hash": h.configHash,
		"config":      h.builder.Config(),
	})
}

// respondPipelineError maps the error kind to an HTTP status
func respondPipelineError(w http.ResponseWriter, err error) {
	kind := contracts.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case "configuration", "validation":
		status = http.StatusBadRequest
	case "data_unavailable", "alignment":
		status = http.StatusUnprocessableEntity
	case "canceled":
		status = http.StatusServiceUnavailable
	}

	resp := ErrorResponse{Error: err.Error(), Kind: kind}
	if stage, ok := contracts.StageOf(err); ok {
		resp.Stage = string(stage)
	}
	respondJSON(w, status, resp)
}
