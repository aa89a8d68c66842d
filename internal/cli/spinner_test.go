package cli

import (
	"context"
	"testing"
	"time"
)

func TestSpinnerStop(t *testing.T) {
	s := newSpinner("resolving...")
	s.Start()
	time.Sleep(120 * time.Millisecond)
	s.Stop()

	if s.Cancelled() {
		t.Error("explicit Stop should not count as cancellation")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner("stopping repeatedly...")
	s.Start()

	for range 3 {
		s.Stop()
	}
}

func TestSpinnerCancellation(t *testing.T) {
	tests := []struct {
		name     string
		makeCtx  func() (context.Context, context.CancelFunc)
		cancelIt bool
	}{
		{
			name: "explicit cancel",
			makeCtx: func() (context.Context, context.CancelFunc) {
				return context.WithCancel(context.Background())
			},
			cancelIt: true,
		},
		{
			name: "deadline",
			makeCtx: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), 30*time.Millisecond)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := tt.makeCtx()
			defer cancel()

			s := newSpinnerWithContext(ctx, "waiting...")
			s.Start()
			if tt.cancelIt {
				cancel()
			}
			time.Sleep(100 * time.Millisecond)

			if !s.Cancelled() {
				t.Error("spinner should report cancellation")
			}
		})
	}
}

func TestSpinnerUpdateGrowsWidth(t *testing.T) {
	s := newSpinner("short")
	s.Start()
	defer s.Stop()

	long := "a considerably longer message than before"
	s.Update(long)
	time.Sleep(100 * time.Millisecond)

	if s.width < len(long) {
		t.Errorf("width = %d, want at least %d", s.width, len(long))
	}

	// Width keeps the high-water mark so the clear wipes the longest line.
	s.Update("tiny")
	if s.width < len(long) {
		t.Errorf("width shrank to %d after a shorter update", s.width)
	}
}

func TestSpinnerStopReports(t *testing.T) {
	s := newSpinner("working...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithSuccess("done")

	s = newSpinner("failing...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithError("failed")
}
