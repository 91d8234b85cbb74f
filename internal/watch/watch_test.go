package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	calls []Trigger
	seen  chan Trigger
}

func newRecorder() *recorder { return &recorder{seen: make(chan Trigger, 16)} }

func (r *recorder) handle(t Trigger) {
	r.mu.Lock()
	r.calls = append(r.calls, t)
	r.mu.Unlock()
	r.seen <- t
}

func (r *recorder) count(t Trigger) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == t {
			n++
		}
	}
	return n
}

func waitFor(t *testing.T, r *recorder, want Trigger) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case got := <-r.seen:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q trigger", want)
		}
	}
}

func TestNew_RejectsBadSchedule(t *testing.T) {
	if _, err := New(Config{Schedule: "every tuesday"}, func(Trigger) {}); err == nil {
		t.Error("expected an error for an invalid schedule")
	}
	if _, err := New(Config{}, nil); err == nil {
		t.Error("expected an error for a missing handler")
	}
	if _, err := New(Config{Schedule: "@hourly"}, func(Trigger) {}); err != nil {
		t.Errorf("descriptor schedule rejected: %v", err)
	}
}

func TestRun_StartPass(t *testing.T) {
	rec := newRecorder()
	w, err := New(Config{}, rec.handle)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, rec, TriggerStart)
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
}

func TestRun_CoalescesFileWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "work.ics")
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("BEGIN:VCALENDAR\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	rec := newRecorder()
	w, err := New(Config{Files: []string{path}, Debounce: 100 * time.Millisecond}, rec.handle)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	waitFor(t, rec, TriggerStart)
	// Give fsnotify a moment to register the directory.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(other, []byte("ignored"), 0o600); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("BEGIN:VCALENDAR\nEND:VCALENDAR\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	waitFor(t, rec, TriggerFile)
	time.Sleep(300 * time.Millisecond)
	if n := rec.count(TriggerFile); n != 1 {
		t.Errorf("file triggers = %d, want 1", n)
	}
}
