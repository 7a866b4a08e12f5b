package handlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/inkboard/board-renderer/internal/board"
	"github.com/inkboard/board-renderer/pkg/models"
	"go.uber.org/zap"
)

// DataSource yields the current stop data for the board.
type DataSource interface {
	StopData(ctx context.Context) (models.StopData, error)
}

// EventHandler turns render requests into board images: fetch the stop
// data, render through the worker pool, and fall back to the error
// image when anything upstream fails.
type EventHandler struct {
	pool     *board.WorkerPool
	renderer *board.Renderer
	source   DataSource
	layout   *models.LayoutConfig
	logger   *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(
	pool *board.WorkerPool,
	renderer *board.Renderer,
	source DataSource,
	layout *models.LayoutConfig,
	logger *zap.Logger,
) *EventHandler {
	return &EventHandler{
		pool:     pool,
		renderer: renderer,
		source:   source,
		layout:   layout,
		logger:   logger,
	}
}

// RenderBoard renders the current board for target, falling back to the
// error image when the data fetch or the primary render fails. The
// returned error is non-nil only when the fallback itself failed and
// there is no image to serve.
func (h *EventHandler) RenderBoard(ctx context.Context, target models.RenderTarget) ([]byte, error) {
	png, renderErr := h.renderOnce(ctx, target)
	if renderErr == nil {
		return png, nil
	}

	h.logger.Error("Board render failed, rendering error image",
		zap.String("target", target.String()),
		zap.Error(renderErr))

	png, err := h.renderer.RenderError(target, h.layout, renderErr)
	if err != nil {
		return nil, fmt.Errorf("error image render failed: %w", err)
	}
	return png, nil
}

// renderOnce runs the primary pipeline: data fetch plus board render.
func (h *EventHandler) renderOnce(ctx context.Context, target models.RenderTarget) ([]byte, error) {
	stops, err := h.source.StopData(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stop data: %w", err)
	}

	return h.pool.Submit(ctx, target, stops, h.layout)
}

// Handle processes a render request event from the queue.
func (h *EventHandler) Handle(ctx context.Context, request *models.RenderRequest) (*models.RenderResult, error) {
	h.logger.Info("Processing render request",
		zap.String("device_id", request.Device.ID),
		zap.String("target", request.Target),
		zap.String("type", request.Type))

	if request.Type != "render_request" {
		h.logger.Error("Invalid request type", zap.String("type", request.Type))
		return nil, fmt.Errorf("invalid request type: %s", request.Type)
	}

	if request.Device.ID == "" {
		h.logger.Error("Missing device ID")
		return nil, fmt.Errorf("device.id is required")
	}

	target := models.ParseRenderTarget(request.Target)

	png, err := h.RenderBoard(ctx, target)
	if err != nil {
		h.logger.Error("Render request failed",
			zap.Error(err),
			zap.String("device_id", request.Device.ID))

		// Create result with empty output on error
		return &models.RenderResult{
			Type:        "render_result",
			UUID:        request.UUID,
			DeviceID:    request.Device.ID,
			ImageData:   "",
			ProcessedAt: time.Now(),
		}, err
	}

	h.logger.Info("Render request completed successfully",
		zap.String("device_id", request.Device.ID),
		zap.Int("output_size", len(png)))

	return &models.RenderResult{
		Type:        "render_result",
		UUID:        request.UUID,
		DeviceID:    request.Device.ID,
		ImageData:   base64.StdEncoding.EncodeToString(png),
		ProcessedAt: time.Now(),
	}, nil
}
