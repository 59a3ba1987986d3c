package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Metrics - счетчики пула
type Metrics struct {
	ActiveWorkers  atomic.Int64
	PendingTasks   atomic.Int64
	CompletedTasks atomic.Int64
	FailedTasks    atomic.Int64
}

// Pool выполняет задачи в отдельных горутинах. Ограниченный пул держит не больше
// size задач одновременно, остальные ждут своей очереди (FIFO); кэширующий пул
// (size == 0) запускает каждую задачу сразу.
type Pool struct {
	name    string
	size    int
	sem     *semaphore.Weighted
	metrics Metrics
}

func NewBounded(name string, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		name: name,
		size: size,
		sem:  semaphore.NewWeighted(int64(size)),
	}
}

func NewCached(name string) *Pool {
	return &Pool{name: name}
}

func (p *Pool) Name() string {
	return p.name
}

// Size возвращает число слотов, 0 для кэширующего пула
func (p *Pool) Size() int {
	return p.size
}

func (p *Pool) GetMetrics() map[string]int64 {
	return map[string]int64{
		"size":            int64(p.size),
		"active_workers":  p.metrics.ActiveWorkers.Load(),
		"pending_tasks":   p.metrics.PendingTasks.Load(),
		"completed_tasks": p.metrics.CompletedTasks.Load(),
		"failed_tasks":    p.metrics.FailedTasks.Load(),
	}
}

// Handle - результат отправленной задачи
type Handle[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Done закрывается, когда задача завершена
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Await ждет завершения задачи и возвращает ее результат или ошибку.
// Отмена ctx прекращает ожидание, но не саму задачу.
func (h *Handle[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit ставит задачу в пул и сразу возвращает Handle. ctx ограничивает только
// ожидание свободного слота. Паника в задаче возвращается как ошибка.
func Submit[T any](ctx context.Context, p *Pool, task func() (T, error)) *Handle[T] {
	h := &Handle[T]{done: make(chan struct{})}
	p.metrics.PendingTasks.Add(1)

	go func() {
		defer close(h.done)

		if p.sem != nil {
			if err := p.sem.Acquire(ctx, 1); err != nil {
				p.metrics.PendingTasks.Add(-1)
				p.metrics.FailedTasks.Add(1)
				h.err = fmt.Errorf("%s pool: %w", p.name, err)
				return
			}
			defer p.sem.Release(1)
		}

		p.metrics.PendingTasks.Add(-1)
		p.metrics.ActiveWorkers.Add(1)
		defer p.metrics.ActiveWorkers.Add(-1)

		h.value, h.err = run(task)
		if h.err != nil {
			p.metrics.FailedTasks.Add(1)
		} else {
			p.metrics.CompletedTasks.Add(1)
		}
	}()

	return h
}

// Run отправляет задачу и ждет ее результат
func Run[T any](ctx context.Context, p *Pool, task func() (T, error)) (T, error) {
	return Submit(ctx, p, task).Await(ctx)
}

func run[T any](task func() (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task()
}
