package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/inkboard/board-renderer/pkg/models"
	"go.uber.org/zap"
)

// BoardHandler serves the rendered board and a small management surface
// over HTTP.
type BoardHandler struct {
	events        *EventHandler
	layout        *models.LayoutConfig
	defaultTarget models.RenderTarget
	logger        *zap.Logger
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(events *EventHandler, layout *models.LayoutConfig, defaultTarget models.RenderTarget, logger *zap.Logger) *BoardHandler {
	return &BoardHandler{
		events:        events,
		layout:        layout,
		defaultTarget: defaultTarget,
		logger:        logger,
	}
}

// RegisterRoutes registers the board routes
func (h *BoardHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/board.png", h.handleBoard)
	mux.HandleFunc("/layout", h.handleLayout)
}

// handleHealth handles GET /health - returns service health status
func (h *BoardHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"service": "board-renderer",
		"version": "1.0.0",
	})
}

// handleBoard handles GET /board.png?target=kindle|other - renders the
// current departure board. Upstream failures still produce an image
// (the error board), so a display polling this endpoint always has
// something to show; only a failed error render returns 500.
func (h *BoardHandler) handleBoard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	target := h.defaultTarget
	if q := r.URL.Query().Get("target"); q != "" {
		target = models.ParseRenderTarget(q)
	}

	png, err := h.events.RenderBoard(r.Context(), target)
	if err != nil {
		h.logger.Error("Failed to render any board image", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.logger.Error("Failed to write board response", zap.Error(err))
		return
	}

	h.logger.Debug("Served board image",
		zap.String("target", target.String()),
		zap.Int("bytes", len(png)))
}

// handleLayout handles GET /layout - returns the loaded board layout
func (h *BoardHandler) handleLayout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.layout); err != nil {
		h.logger.Error("Failed to encode layout response", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
