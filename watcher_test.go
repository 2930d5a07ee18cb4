package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalesces(t *testing.T) {
	var fired atomic.Int32
	d := newDebouncer(50*time.Millisecond, func(string) { fired.Add(1) })
	defer d.stop()

	for i := 0; i < 5; i++ {
		d.trigger("a.ilx")
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(300 * time.Millisecond)
	if n := fired.Load(); n != 1 {
		t.Fatalf("burst of 5 events fired %d times, want 1", n)
	}

	d.trigger("a.ilx")
	d.trigger("b.ilx")
	time.Sleep(300 * time.Millisecond)
	if n := fired.Load(); n != 3 {
		t.Errorf("second window fired %d times in total, want 3", n)
	}
}

func TestDebouncerStop(t *testing.T) {
	var fired atomic.Int32
	d := newDebouncer(20*time.Millisecond, func(string) { fired.Add(1) })
	d.trigger("a.ilx")
	d.stop()
	d.trigger("a.ilx")
	time.Sleep(100 * time.Millisecond)
	if n := fired.Load(); n != 0 {
		t.Errorf("stopped debouncer fired %d times", n)
	}
}

func TestPollingFileWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.ilx")
	if err := os.WriteFile(path, []byte("method \"M\" {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	changes := make(chan string, 10)
	fw := newFileWatcherWith(newPollSource(10*time.Millisecond), 50*time.Millisecond, func(p string) { changes <- p })
	defer fw.Close()
	if err := fw.AddFile(path); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fw.Watch(ctx)

	// Nothing changed yet.
	select {
	case p := <-changes:
		t.Fatalf("unmodified file reported as changed: %s", p)
	case <-time.After(150 * time.Millisecond):
	}

	base := time.Now().Add(time.Hour)
	for i := 0; i < 3; i++ {
		mtime := base.Add(time.Duration(i) * time.Second)
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
		time.Sleep(15 * time.Millisecond)
	}

	select {
	case p := <-changes:
		if p != path {
			t.Errorf("change reported for %s, want %s", p, path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}
	select {
	case <-changes:
		t.Error("one burst of saves reported more than once")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRunTriggersSerializes(t *testing.T) {
	const senders, perSender = 2, 20

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	triggers := make(chan string, 1)

	var active, overlapped, done atomic.Int32
	finished := make(chan struct{})
	go func() {
		runTriggers(ctx, triggers, func(string) {
			if active.Add(1) > 1 {
				overlapped.Add(1)
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
			if done.Add(1) == senders*perSender {
				cancel()
			}
		})
		close(finished)
	}()

	var wg sync.WaitGroup
	for s := 0; s < senders; s++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				sendTrigger(ctx, triggers, "change")
			}
		}()
	}
	wg.Wait()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("trigger loop did not finish")
	}
	if n := done.Load(); n != senders*perSender {
		t.Errorf("ran %d translations, want %d", n, senders*perSender)
	}
	if n := overlapped.Load(); n != 0 {
		t.Errorf("%d translations overlapped", n)
	}
}
