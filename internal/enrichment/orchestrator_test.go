package enrichment

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRun_PartialResultsOnFailure(t *testing.T) {
	o := New(Config{Concurrency: 4, TaskTimeout: time.Second, TotalDeadline: 2 * time.Second}, zerolog.Nop())

	tasks := []Task{
		{Key: "home_context", Run: func(ctx context.Context) (any, error) { return "ok", nil }},
		{Key: "referee", Run: func(ctx context.Context) (any, error) { return nil, errors.New("provider down") }},
	}

	res := o.Run(context.Background(), tasks, "stadium_coords", nil)
	assert.Equal(t, "ok", res.Values["home_context"])
	assert.Contains(t, res.FailedCalls, "referee")
	assert.Equal(t, 1, res.SuccessCount)
}

func TestRun_WeatherSkippedWithoutCoords(t *testing.T) {
	o := New(Config{Concurrency: 4}, zerolog.Nop())
	weatherCalled := false

	tasks := []Task{
		{Key: "home_context", Run: func(ctx context.Context) (any, error) { return "ok", nil }},
	}
	weather := func(ctx context.Context, coords any) (any, error) {
		weatherCalled = true
		return "sunny", nil
	}

	res := o.Run(context.Background(), tasks, "stadium_coords", weather)
	assert.False(t, weatherCalled)
	_, hasWeather := res.Values["weather"]
	assert.False(t, hasWeather)
}

func TestRun_WeatherRunsWhenCoordsPresent(t *testing.T) {
	o := New(Config{Concurrency: 4}, zerolog.Nop())

	tasks := []Task{
		{Key: "stadium_coords", Run: func(ctx context.Context) (any, error) { return [2]float64{41.9, 12.5}, nil }},
	}
	weather := func(ctx context.Context, coords any) (any, error) { return "sunny", nil }

	res := o.Run(context.Background(), tasks, "stadium_coords", weather)
	assert.Equal(t, "sunny", res.Values["weather"])
}

func TestRun_RespectsConcurrencyCapWithoutDeadlock(t *testing.T) {
	o := New(Config{Concurrency: 2, TaskTimeout: time.Second, TotalDeadline: 3 * time.Second}, zerolog.Nop())

	var inFlight, peak int32
	tasks := make([]Task, 0, 9)
	for i := 0; i < 9; i++ {
		tasks = append(tasks, Task{Key: string(rune('a' + i)), Run: func(ctx context.Context) (any, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return 1, nil
		}})
	}

	res := o.Run(context.Background(), tasks, "stadium_coords", nil)
	assert.Equal(t, 9, res.SuccessCount)
	assert.LessOrEqual(t, int(atomic.LoadInt32(&peak)), 2)
}
