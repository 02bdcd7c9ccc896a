package parallel

import (
	"sync/atomic"
	"testing"
)

func TestExecuteAllRunsEveryTask(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		tasks   int
	}{
		{"single worker", 1, 10},
		{"more tasks than workers", 4, 100},
		{"more workers than tasks", 8, 3},
		{"no tasks", 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewWorkerPool(tt.workers)
			defer p.Close()

			var n atomic.Int64
			tasks := make([]func(), tt.tasks)
			for i := range tasks {
				tasks[i] = func() { n.Add(1) }
			}
			p.ExecuteAll(tasks)

			if got := n.Load(); got != int64(tt.tasks) {
				t.Errorf("executed %d tasks, want %d", got, tt.tasks)
			}
		})
	}
}

func TestForIndices(t *testing.T) {
	p := NewWorkerPool(3)
	defer p.Close()

	seen := make([]atomic.Int32, 50)
	p.For(len(seen), func(i int) { seen[i].Add(1) })

	for i := range seen {
		if got := seen[i].Load(); got != 1 {
			t.Errorf("index %d ran %d times, want 1", i, got)
		}
	}
}

func TestExecuteAfterClose(t *testing.T) {
	p := NewWorkerPool(2)
	p.Close()
	p.Close()

	ran := false
	p.ExecuteAll([]func(){func() { ran = true }})
	if !ran {
		t.Error("ExecuteAll after Close did not run the task")
	}
}

func TestDefaultWorkers(t *testing.T) {
	p := NewWorkerPool(0)
	defer p.Close()
	if p.Workers() < 1 {
		t.Errorf("Workers() = %d, want >= 1", p.Workers())
	}
}
