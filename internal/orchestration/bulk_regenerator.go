// Package orchestration fans a schedule-generation request out across many
// batches at once, queued through pkg/jobs, so one batch's failure never
// blocks the rest.
package orchestration

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campusforge/timetable-engine/internal/metrics"
	"github.com/campusforge/timetable-engine/internal/scheduler"
	"github.com/campusforge/timetable-engine/pkg/jobs"
)

// ScheduleGenerator is the narrow engine dependency this package needs.
type ScheduleGenerator interface {
	Generate(ctx context.Context, batchID string) (*scheduler.GenerateResult, error)
}

// ScheduleWriter persists a freshly generated draft schedule. It is kept
// separate from scheduler.Repository, which the core only ever reads
// through; writing back a generated result is an orchestration concern,
// not a core one.
type ScheduleWriter interface {
	SaveDraftSchedule(ctx context.Context, batchID string, result *scheduler.GenerateResult) error
}

type regenerationPayload struct {
	BatchID string
}

// BulkRegenerator dispatches one generation job per batch onto a
// pkg/jobs.Queue, saving each result independently and logging per-batch
// outcome rather than failing the whole run.
type BulkRegenerator struct {
	engine  ScheduleGenerator
	writer  ScheduleWriter
	queue   *jobs.Queue
	metrics *metrics.Scheduler
	logger  *zap.Logger
}

// NewBulkRegenerator wires a regenerator over an already-constructed
// pkg/jobs.Queue. The queue must be started with (*BulkRegenerator).Handler
// as its handler function.
func NewBulkRegenerator(engine ScheduleGenerator, writer ScheduleWriter, m *metrics.Scheduler, logger *zap.Logger) *BulkRegenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkRegenerator{engine: engine, writer: writer, metrics: m, logger: logger}
}

// BindQueue attaches the queue this regenerator dispatches to, mirroring
// export.Service's two-step wiring: the queue's handler closes over the
// regenerator before the queue exists.
func (b *BulkRegenerator) BindQueue(queue *jobs.Queue) {
	b.queue = queue
}

// EnqueueAll schedules a regeneration job for every batch ID given. It
// returns as soon as all jobs are queued; results land asynchronously.
func (b *BulkRegenerator) EnqueueAll(batchIDs []string) error {
	for _, id := range batchIDs {
		if err := b.queue.Enqueue(jobs.Job{
			ID:      fmt.Sprintf("regen-%s", id),
			Type:    "bulk_regenerate",
			Payload: regenerationPayload{BatchID: id},
		}); err != nil {
			return fmt.Errorf("enqueue regeneration for batch %s: %w", id, err)
		}
	}
	return nil
}

// Handler is the jobs.Handler the queue is started with.
func (b *BulkRegenerator) Handler(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(regenerationPayload)
	if !ok {
		return fmt.Errorf("bulk regenerate job %s: unexpected payload type", job.ID)
	}

	start := time.Now()
	result, err := b.engine.Generate(ctx, payload.BatchID)
	b.metrics.ObserveRun(metrics.OutcomeFor(err), time.Since(start), warningsOf(result))
	if err != nil {
		b.logger.Sugar().Warnw("bulk regeneration failed for batch", "batch_id", payload.BatchID, "error", err)
		return err
	}

	if err := b.writer.SaveDraftSchedule(ctx, payload.BatchID, result); err != nil {
		b.logger.Sugar().Errorw("failed to save regenerated schedule", "batch_id", payload.BatchID, "error", err)
		return err
	}

	b.logger.Sugar().Infow("bulk regeneration succeeded", "batch_id", payload.BatchID, "warnings", result.Warnings)
	return nil
}

func warningsOf(result *scheduler.GenerateResult) []string {
	if result == nil {
		return nil
	}
	return result.Warnings
}
