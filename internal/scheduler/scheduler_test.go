package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/dnovakovic099/secure-stay-server-sub003/internal/services"
)

type mockRunner struct {
	processFunc func(ctx context.Context) (*services.BatchResult, error)
	calls       int
}

func (m *mockRunner) ProcessScheduledAnalysis(ctx context.Context) (*services.BatchResult, error) {
	m.calls++
	if m.processFunc == nil {
		return &services.BatchResult{}, nil
	}
	return m.processFunc(ctx)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		timezone string
		wantErr  bool
	}{
		{name: "valid", spec: "5 0 * * *", timezone: "America/New_York", wantErr: false},
		{name: "utc", spec: "0 1 * * *", timezone: "UTC", wantErr: false},
		{name: "bad timezone", spec: "5 0 * * *", timezone: "Mars/Olympus", wantErr: true},
		{name: "bad cron spec", spec: "every day please", timezone: "UTC", wantErr: true},
		{name: "too many fields", spec: "1 2 3 4 5 6", timezone: "UTC", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&mockRunner{}, tt.spec, tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRun_InvokesBatch(t *testing.T) {
	runner := &mockRunner{
		processFunc: func(ctx context.Context) (*services.BatchResult, error) {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("batch context must carry a deadline")
			}
			return &services.BatchResult{Processed: 2, Skipped: 1}, nil
		},
	}

	s, err := New(runner, "5 0 * * *", "UTC")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s.run()
	if runner.calls != 1 {
		t.Errorf("runner calls = %d, want 1", runner.calls)
	}
}

func TestRun_BatchFailureIsAbsorbed(t *testing.T) {
	runner := &mockRunner{
		processFunc: func(ctx context.Context) (*services.BatchResult, error) {
			return nil, errors.New("pms unavailable")
		},
	}

	s, err := New(runner, "5 0 * * *", "UTC")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// A failing batch must not panic or propagate
	s.run()
	if runner.calls != 1 {
		t.Errorf("runner calls = %d, want 1", runner.calls)
	}
}

func TestStartStop(t *testing.T) {
	s, err := New(&mockRunner{}, "5 0 * * *", "UTC")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s.Start()
	s.Stop()
}
