package orchestration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusforge/timetable-engine/internal/metrics"
	"github.com/campusforge/timetable-engine/internal/scheduler"
	"github.com/campusforge/timetable-engine/pkg/jobs"
)

type fakeGenerator struct {
	mu      sync.Mutex
	calls   []string
	failFor map[string]error
}

func (g *fakeGenerator) Generate(ctx context.Context, batchID string) (*scheduler.GenerateResult, error) {
	g.mu.Lock()
	g.calls = append(g.calls, batchID)
	g.mu.Unlock()

	if err, ok := g.failFor[batchID]; ok {
		return nil, err
	}
	return &scheduler.GenerateResult{Options: []scheduler.Option{{}}}, nil
}

type fakeWriter struct {
	mu    sync.Mutex
	saved []string
}

func (w *fakeWriter) SaveDraftSchedule(ctx context.Context, batchID string, result *scheduler.GenerateResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.saved = append(w.saved, batchID)
	return nil
}

func TestBulkRegeneratorSavesEachBatchIndependently(t *testing.T) {
	gen := &fakeGenerator{failFor: map[string]error{"bad": errors.New("unplaceable")}}
	writer := &fakeWriter{}
	regen := NewBulkRegenerator(gen, writer, metrics.NewScheduler(), nil)

	queue := jobs.NewQueue("bulk_regenerate", regen.Handler, jobs.QueueConfig{Workers: 2, MaxRetries: 0})
	regen.BindQueue(queue)
	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, regen.EnqueueAll([]string{"good-1", "bad", "good-2"}))

	require.Eventually(t, func() bool {
		writer.mu.Lock()
		defer writer.mu.Unlock()
		return len(writer.saved) == 2
	}, time.Second, 10*time.Millisecond)

	assert.ElementsMatch(t, []string{"good-1", "good-2"}, writer.saved)
}
