package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type fakeSaver struct {
	fakeSource
	mu      sync.Mutex
	saves   int
	saveErr error
}

func (f *fakeSaver) Save(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	return f.saveErr
}

type recordingObserver struct {
	mu   sync.Mutex
	errs []error
}

func (o *recordingObserver) BackupCompleted(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errs = append(o.errs, err)
}

func TestNewScheduler_Validation(t *testing.T) {
	src := &fakeSaver{fakeSource: newFakeSource()}

	tests := []struct {
		name     string
		dir      string
		schedule string
		wantErr  bool
	}{
		{"disabled", "/tmp/b", "", false},
		{"standard cron", "/tmp/b", "0 3 * * *", false},
		{"descriptor", "/tmp/b", "@hourly", false},
		{"garbage", "/tmp/b", "every tuesday", true},
		{"no dir", "", "@daily", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewScheduler(src, tt.dir, tt.schedule)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewScheduler() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && s.Enabled() != (tt.schedule != "") {
				t.Errorf("Enabled() = %v for schedule %q", s.Enabled(), tt.schedule)
			}
		})
	}
}

func TestScheduler_RunOnce(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSaver{fakeSource: newFakeSource()}
	obs := &recordingObserver{}

	for i := 1; i <= 3; i++ {
		name := filepath.Join(dir, fmt.Sprintf("lumaura-backup-2020010%d-000000.json.gz", i))
		if err := os.WriteFile(name, []byte("old"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	s, err := NewScheduler(src, dir, "@daily",
		WithCompression(true),
		WithRetention(&CountPolicy{MaxCount: 2}),
		WithSchedulerObserver(obs))
	if err != nil {
		t.Fatal(err)
	}

	path, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if src.saves != 1 {
		t.Errorf("saves = %d, want 1", src.saves)
	}
	if err := VerifyChecksum(path); err != nil {
		t.Errorf("VerifyChecksum(new backup) error = %v", err)
	}

	remaining, err := ListBackups(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 2 || remaining[0].Path != path {
		t.Errorf("remaining = %+v, want new backup plus one old", remaining)
	}

	if len(obs.errs) != 1 || obs.errs[0] != nil {
		t.Errorf("observer = %v, want one success", obs.errs)
	}
	if last, lastErr := s.LastRun(); last.IsZero() || lastErr != nil {
		t.Errorf("LastRun() = %v, %v", last, lastErr)
	}
}

func TestScheduler_RunOnce_SaveFailureStillBacksUp(t *testing.T) {
	src := &fakeSaver{fakeSource: newFakeSource(), saveErr: errors.New("disk full")}
	s, err := NewScheduler(src, t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}

	path, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if _, err := Read(path); err != nil {
		t.Errorf("Read() error = %v", err)
	}
}

func TestScheduler_RunOnce_ReportsFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	obs := &recordingObserver{}
	s, err := NewScheduler(&fakeSaver{fakeSource: newFakeSource()}, t.TempDir(), "", WithSchedulerObserver(obs))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.RunOnce(ctx); err == nil {
		t.Fatal("RunOnce() with canceled context should fail")
	}
	if len(obs.errs) != 1 || obs.errs[0] == nil {
		t.Errorf("observer = %v, want one failure", obs.errs)
	}
	if _, lastErr := s.LastRun(); lastErr == nil {
		t.Error("LastRun() error = nil, want the failure")
	}
}

func TestScheduler_Run_StopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, err := NewScheduler(&fakeSaver{fakeSource: newFakeSource()}, t.TempDir(), "@every 1h")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestScheduler_Run_Disabled(t *testing.T) {
	s, err := NewScheduler(&fakeSaver{fakeSource: newFakeSource()}, t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v", err)
	}
}
