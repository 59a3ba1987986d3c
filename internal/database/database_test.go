package database

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"gridcalc/internal/models"
)

func openJournal(t *testing.T, limit int) *Journal {
	t.Helper()
	j, err := Open(limit)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSaveAndRecent(t *testing.T) {
	j := openJournal(t, 10)
	ctx := context.Background()

	first := &models.Entry{SessionID: "s1", Request: "STAT_REQS", Status: models.StatusCompleted, Result: "0"}
	second := &models.Entry{SessionID: "s1", Request: "MAX_GRID;x:0:1:2;y", Status: models.StatusError,
		Result: "Not all variables in the expressions are declared in the VariableValues", ElapsedMs: 3}

	for _, e := range []*models.Entry{first, second} {
		if err := j.Save(ctx, e); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if e.ID == "" || e.CreatedAt == "" {
			t.Errorf("Save() did not fill ID and CreatedAt: %+v", e)
		}
	}

	got, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(Recent()) = %d, want 2", len(got))
	}
	if got[0] != *second || got[1] != *first {
		t.Errorf("Recent() = %+v, want newest first", got)
	}
}

func TestSaveTrimsToLimit(t *testing.T) {
	j := openJournal(t, 3)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		e := &models.Entry{SessionID: "s", Request: fmt.Sprintf("req%d", i), Status: models.StatusCompleted}
		if err := j.Save(ctx, e); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	got, err := j.Recent(ctx, 100)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	want := []string{"req6", "req5", "req4"}
	if len(got) != len(want) {
		t.Fatalf("len(Recent()) = %d, want %d", len(got), len(want))
	}
	for i, e := range got {
		if e.Request != want[i] {
			t.Errorf("Recent()[%d].Request = %q, want %q", i, e.Request, want[i])
		}
	}

	got, _ = j.Recent(ctx, 1)
	if len(got) != 1 || got[0].Request != "req6" {
		t.Errorf("Recent(1) = %+v, want only req6", got)
	}
}

func TestConcurrentSave(t *testing.T) {
	j := openJournal(t, 1000)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := j.Save(ctx, &models.Entry{SessionID: "s", Request: "STAT_REQS", Status: models.StatusCompleted}); err != nil {
				t.Errorf("Save() error = %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := j.Recent(ctx, 1000)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 20 {
		t.Errorf("len(Recent()) = %d, want 20", len(got))
	}
}

func TestOpenRejectsZeroLimit(t *testing.T) {
	if _, err := Open(0); err == nil {
		t.Error("Open(0) error = nil, want error")
	}
}
