// Package enrichment implements the match enrichment orchestrator: a
// bounded fan-out over nine independent context-gathering tasks plus
// one dependent weather fetch. Tasks run under a semaphore-bounded
// worker pool; every component of the result is individually optional,
// and a failed fetch never aborts its siblings.
package enrichment

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Task is one independent enrichment call. It must itself be
// context-aware so the per-task timeout can cut it short.
type Task struct {
	Key string
	Run func(ctx context.Context) (any, error)
}

// WeatherTask is the one dependent task: it only runs once the fan-out
// has produced (or failed to produce) stadium coordinates.
type WeatherTask func(ctx context.Context, coords any) (any, error)

// Result is the aggregated outcome of one enrichment cycle.
type Result struct {
	Values       map[string]any
	FailedCalls  map[string]string
	ElapsedMS    int64
	SuccessCount int
}

// Config parameterizes the fan-out; values come from configuration.
type Config struct {
	Concurrency   int // default 4
	TaskTimeout   time.Duration
	TotalDeadline time.Duration
}

// Orchestrator runs the fan-out for one match at a time; it holds no
// per-match state between calls, so a single instance is safe to reuse
// (and share) across concurrent Run calls.
type Orchestrator struct {
	cfg Config
	log zerolog.Logger
}

func New(cfg Config, log zerolog.Logger) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Orchestrator{cfg: cfg, log: log}
}

// Run fans tasks out under the concurrency cap, then runs weather
// sequentially using whatever stadium coordinates came back, skipping
// it when the coordinate fetch produced nothing.
func (o *Orchestrator) Run(ctx context.Context, tasks []Task, stadiumCoordsKey string, weather WeatherTask) Result {
	start := time.Now()

	totalCtx := ctx
	var cancel context.CancelFunc
	if o.cfg.TotalDeadline > 0 {
		totalCtx, cancel = context.WithTimeout(ctx, o.cfg.TotalDeadline)
		defer cancel()
	}

	values := make(map[string]any)
	failed := make(map[string]string)
	var mu sync.Mutex
	var wg sync.WaitGroup

	sem := make(chan struct{}, o.cfg.Concurrency)

	for _, t := range tasks {
		t := t
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-totalCtx.Done():
				mu.Lock()
				failed[t.Key] = "total deadline exceeded before dispatch"
				mu.Unlock()
				return
			}
			defer func() { <-sem }()

			taskCtx := totalCtx
			var taskCancel context.CancelFunc
			if o.cfg.TaskTimeout > 0 {
				taskCtx, taskCancel = context.WithTimeout(totalCtx, o.cfg.TaskTimeout)
				defer taskCancel()
			}

			value, err := t.Run(taskCtx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[t.Key] = err.Error()
				return
			}
			values[t.Key] = value
		}()
	}

	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-totalCtx.Done():
		o.log.Warn().Msg("enrichment total deadline exceeded; proceeding with partial results")
	}

	if weather != nil {
		coords, ok := values[stadiumCoordsKey]
		if ok {
			weatherCtx := ctx
			var weatherCancel context.CancelFunc
			if o.cfg.TaskTimeout > 0 {
				weatherCtx, weatherCancel = context.WithTimeout(ctx, o.cfg.TaskTimeout)
				defer weatherCancel()
			}
			value, err := weather(weatherCtx, coords)
			if err != nil {
				failed["weather"] = err.Error()
			} else {
				values["weather"] = value
			}
		} else {
			o.log.Debug().Msg("enrichment skipped weather: no stadium coordinates")
		}
	}

	return Result{
		Values:       values,
		FailedCalls:  failed,
		ElapsedMS:    time.Since(start).Milliseconds(),
		SuccessCount: len(values),
	}
}

