package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campusforge/timetable-engine/internal/dto"
	"github.com/campusforge/timetable-engine/internal/export"
	appmiddleware "github.com/campusforge/timetable-engine/internal/middleware"
	"github.com/campusforge/timetable-engine/internal/scheduler"
	apperrors "github.com/campusforge/timetable-engine/pkg/errors"
	"github.com/campusforge/timetable-engine/pkg/response"
)

// ProposalReader resolves the most recently generated options for a batch,
// so an export can reference one without recomputing it.
type ProposalReader interface {
	Get(ctx context.Context, batchID string) (*scheduler.GenerateResult, bool, error)
}

// Exporter renders and persists a schedule option asynchronously.
type Exporter interface {
	Enqueue(ctx context.Context, batchID string, optionIndex int, opt scheduler.Option, format string) (string, error)
	Status(jobID string) (export.JobStatus, error)
	SignedDownload(jobID string) (string, time.Time, error)
}

// ExportHandler exposes schedule export endpoints.
type ExportHandler struct {
	proposals ProposalReader
	exporter  Exporter
	logger    *zap.Logger
}

// NewExportHandler builds a handler over a proposal cache and exporter.
func NewExportHandler(proposals ProposalReader, exporter Exporter, logger *zap.Logger) *ExportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{proposals: proposals, exporter: exporter, logger: logger}
}

// Create handles POST /batches/:id/schedule/export.
func (h *ExportHandler) Create(c *gin.Context) {
	batchID := c.Param("id")
	var req dto.ExportScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.Wrap(err, apperrors.ErrInvalidInput.Code, apperrors.ErrInvalidInput.Status, "invalid export request body"))
		return
	}
	if req.Option < 0 {
		response.Error(c, apperrors.New(apperrors.ErrInvalidInput.Code, apperrors.ErrInvalidInput.Status, "option must not be negative"))
		return
	}

	result, ok, err := h.proposals.Get(c.Request.Context(), batchID)
	if err != nil {
		response.Error(c, apperrors.Wrap(err, apperrors.ErrInternal.Code, apperrors.ErrInternal.Status, "failed to load cached proposal"))
		return
	}
	appmiddleware.SetCacheHit(c, ok)
	if !ok || req.Option >= len(result.Options) {
		response.Error(c, apperrors.New(apperrors.ErrNotFound.Code, apperrors.ErrNotFound.Status, "no generated schedule option found for this batch; generate one first"))
		return
	}

	jobID, err := h.exporter.Enqueue(c.Request.Context(), batchID, req.Option, result.Options[req.Option], req.Format)
	if err != nil {
		response.Error(c, apperrors.Wrap(err, apperrors.ErrInvalidInput.Code, apperrors.ErrInvalidInput.Status, "could not queue export"))
		return
	}

	response.Created(c, dto.ExportScheduleResponse{JobID: jobID, Status: "queued"})
}

// Status handles GET /batches/:id/schedule/export/:jobID.
func (h *ExportHandler) Status(c *gin.Context) {
	jobID := c.Param("jobID")

	status, err := h.exporter.Status(jobID)
	if err != nil {
		response.Error(c, apperrors.Wrap(err, apperrors.ErrNotFound.Code, apperrors.ErrNotFound.Status, "export job not found"))
		return
	}

	out := dto.ExportScheduleResponse{JobID: jobID, Status: string(status)}
	if status == export.JobComplete {
		url, expiresAt, err := h.exporter.SignedDownload(jobID)
		if err == nil {
			out.URL = url
			out.ExpiresAt = expiresAt.Format(http.TimeFormat)
		}
	}

	response.JSON(c, http.StatusOK, out, nil)
}
