package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campusforge/timetable-engine/internal/cache"
	"github.com/campusforge/timetable-engine/internal/metrics"
	"github.com/campusforge/timetable-engine/internal/scheduler"
)

// cachingScheduleGenerator wraps the engine so a freshly generated result is
// cached for a later export call to reference without recomputation, and so
// every run is observed by the metrics collector regardless of outcome.
type cachingScheduleGenerator struct {
	engine    scheduler.Engine
	proposals *cache.ProposalStore
	metrics   *metrics.Scheduler
	logger    *zap.Logger
}

func (g *cachingScheduleGenerator) Generate(ctx context.Context, batchID string) (*scheduler.GenerateResult, error) {
	start := time.Now()
	result, err := g.engine.Generate(ctx, batchID)
	duration := time.Since(start)

	var warnings []string
	if result != nil {
		warnings = result.Warnings
	}
	g.metrics.ObserveRun(metrics.OutcomeFor(err), duration, warnings)

	if err != nil {
		return nil, err
	}

	if err := g.proposals.Put(ctx, batchID, result); err != nil {
		g.logger.Sugar().Warnw("failed to cache schedule proposal", "batch_id", batchID, "error", err)
	}

	return result, nil
}
