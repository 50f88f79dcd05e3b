package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campusforge/timetable-engine/internal/dto"
	apperrors "github.com/campusforge/timetable-engine/pkg/errors"
	"github.com/campusforge/timetable-engine/pkg/response"
)

// BulkQueuer is the narrow interface the handler depends on to fan a
// regeneration request out across many batches.
type BulkQueuer interface {
	EnqueueAll(batchIDs []string) error
}

// BulkRegenerateHandler exposes the async bulk-regeneration endpoint.
type BulkRegenerateHandler struct {
	regenerator BulkQueuer
	logger      *zap.Logger
}

// NewBulkRegenerateHandler builds a handler over a BulkQueuer.
func NewBulkRegenerateHandler(regenerator BulkQueuer, logger *zap.Logger) *BulkRegenerateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkRegenerateHandler{regenerator: regenerator, logger: logger}
}

// Trigger handles POST /batches/schedule:bulk-regenerate.
func (h *BulkRegenerateHandler) Trigger(c *gin.Context) {
	var req dto.BulkRegenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.BatchIDs) == 0 {
		response.Error(c, apperrors.Wrap(err, apperrors.ErrInvalidInput.Code, apperrors.ErrInvalidInput.Status, "batch_ids is required and must be non-empty"))
		return
	}

	if err := h.regenerator.EnqueueAll(req.BatchIDs); err != nil {
		h.logger.Sugar().Errorw("failed to queue bulk regeneration", "error", err)
		response.Error(c, apperrors.Wrap(err, apperrors.ErrInternal.Code, apperrors.ErrInternal.Status, "failed to queue regeneration jobs"))
		return
	}

	response.Created(c, dto.BulkRegenerateResponse{Queued: len(req.BatchIDs)})
}
