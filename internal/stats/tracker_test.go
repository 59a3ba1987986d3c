package stats

import (
	"context"
	"sync"
	"testing"
	"time"

	"gridcalc/internal/worker"
)

func TestTrackerStartsAtZero(t *testing.T) {
	tracker := NewTracker(worker.NewCached("stat"))
	ctx := context.Background()

	count, err := tracker.RequestCount(ctx)
	if err != nil || count != 0 {
		t.Errorf("RequestCount() = %v, %v, want 0, nil", count, err)
	}
	avg, err := tracker.AverageTimeMillis(ctx)
	if err != nil || avg != 0 {
		t.Errorf("AverageTimeMillis() = %v, %v, want 0, nil", avg, err)
	}
	max, err := tracker.MaxTimeMillis(ctx)
	if err != nil || max != 0 {
		t.Errorf("MaxTimeMillis() = %v, %v, want 0, nil", max, err)
	}
}

func TestTrackerRecord(t *testing.T) {
	tests := []struct {
		name      string
		samples   []time.Duration
		wantCount uint64
		wantAvg   float64
		wantMax   int64
	}{
		{
			name:      "один запрос",
			samples:   []time.Duration{3 * time.Millisecond},
			wantCount: 1,
			wantAvg:   3,
			wantMax:   3,
		},
		{
			name:      "скользящее среднее",
			samples:   []time.Duration{3 * time.Millisecond, 6 * time.Millisecond},
			wantCount: 2,
			wantAvg:   4.5,
			wantMax:   6,
		},
		{
			name:      "максимум не уменьшается",
			samples:   []time.Duration{20 * time.Millisecond, 10 * time.Millisecond, 0},
			wantCount: 3,
			wantAvg:   10,
			wantMax:   20,
		},
		{
			name:      "доли миллисекунды отбрасываются",
			samples:   []time.Duration{1500 * time.Microsecond},
			wantCount: 1,
			wantAvg:   1,
			wantMax:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker(nil)
			for _, s := range tt.samples {
				tracker.Record(s)
			}

			got, err := tracker.Snapshot(context.Background())
			if err != nil {
				t.Fatalf("Snapshot() error = %v", err)
			}
			want := Snapshot{Requests: tt.wantCount, AvgTimeMillis: tt.wantAvg, MaxTimeMillis: tt.wantMax}
			if got != want {
				t.Errorf("Snapshot() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestTrackerConcurrentRecord(t *testing.T) {
	tracker := NewTracker(nil)
	const writers = 50

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Record(4 * time.Millisecond)
			if _, err := tracker.Snapshot(context.Background()); err != nil {
				t.Errorf("Snapshot() error = %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := tracker.Snapshot(context.Background())
	if got.Requests != writers || got.AvgTimeMillis != 4 || got.MaxTimeMillis != 4 {
		t.Errorf("Snapshot() = %+v, want %d requests of 4ms", got, writers)
	}
}
