// Package handler wires Gin HTTP routes over the scheduling engine, export
// pipeline and cache with thin handlers that depend on narrow, consumed-side
// interfaces rather than concrete services.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campusforge/timetable-engine/internal/dto"
	"github.com/campusforge/timetable-engine/internal/scheduler"
	apperrors "github.com/campusforge/timetable-engine/pkg/errors"
	"github.com/campusforge/timetable-engine/pkg/response"
)

// ScheduleGenerator is the narrow interface the handler depends on, so it
// can be tested against a fake rather than the full Engine.
type ScheduleGenerator interface {
	Generate(ctx context.Context, batchID string) (*scheduler.GenerateResult, error)
}

// ScheduleHandler exposes the schedule-generation endpoint.
type ScheduleHandler struct {
	engine ScheduleGenerator
	logger *zap.Logger
}

// NewScheduleHandler builds a handler over the given engine.
func NewScheduleHandler(engine ScheduleGenerator, logger *zap.Logger) *ScheduleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleHandler{engine: engine, logger: logger}
}

// Generate handles POST /batches/:id/schedule.
func (h *ScheduleHandler) Generate(c *gin.Context) {
	batchID := c.Param("id")
	if batchID == "" {
		response.Error(c, apperrors.Wrap(errMissingBatchID, apperrors.ErrInvalidInput.Code, apperrors.ErrInvalidInput.Status, "missing required path parameter: id"))
		return
	}

	result, err := h.engine.Generate(c.Request.Context(), batchID)
	if err != nil {
		h.logger.Sugar().Warnw("schedule generation failed", "batch_id", batchID, "error", err)
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.FromGenerateResult(batchID, result), nil)
}

var errMissingBatchID = errors.New("batch id not provided")
