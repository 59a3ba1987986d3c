package stats

import (
	"context"
	"sync"
	"time"

	"gridcalc/internal/worker"
)

// Snapshot - накопленная статистика успешных ответов
type Snapshot struct {
	Requests      uint64  `json:"requests"`
	AvgTimeMillis float64 `json:"avg_time_ms"`
	MaxTimeMillis int64   `json:"max_time_ms"`
}

// Tracker хранит статистику на все время работы процесса.
// Чтения выполняются в отдельном (кэширующем) пуле, чтобы не стоять в очереди за вычислениями.
type Tracker struct {
	mu    sync.RWMutex
	state Snapshot
	pool  *worker.Pool
}

func NewTracker(pool *worker.Pool) *Tracker {
	if pool == nil {
		pool = worker.NewCached("stat")
	}
	return &Tracker{pool: pool}
}

// Record учитывает один успешный ответ
func (t *Tracker) Record(latency time.Duration) {
	ms := latency.Milliseconds()

	t.mu.Lock()
	defer t.mu.Unlock()

	old := t.state.Requests
	t.state.Requests++
	if ms > t.state.MaxTimeMillis {
		t.state.MaxTimeMillis = ms
	}
	t.state.AvgTimeMillis = (t.state.AvgTimeMillis*float64(old) + float64(ms)) / float64(t.state.Requests)
}

func (t *Tracker) current() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Snapshot читает все счетчики разом
func (t *Tracker) Snapshot(ctx context.Context) (Snapshot, error) {
	return worker.Run(ctx, t.pool, func() (Snapshot, error) {
		return t.current(), nil
	})
}

func (t *Tracker) RequestCount(ctx context.Context) (uint64, error) {
	return worker.Run(ctx, t.pool, func() (uint64, error) {
		return t.current().Requests, nil
	})
}

func (t *Tracker) AverageTimeMillis(ctx context.Context) (float64, error) {
	return worker.Run(ctx, t.pool, func() (float64, error) {
		return t.current().AvgTimeMillis, nil
	})
}

func (t *Tracker) MaxTimeMillis(ctx context.Context) (int64, error) {
	return worker.Run(ctx, t.pool, func() (int64, error) {
		return t.current().MaxTimeMillis, nil
	})
}

func (t *Tracker) Pool() *worker.Pool {
	return t.pool
}
