package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// watcher.go - change notification for watch mode
//
// A changeSource reports raw change events for listing files; the kernel
// specific sources live in filewatcher_*.go. FileWatcher coalesces the raw
// events so that one save triggers one translation.

const debounceDelay = 300 * time.Millisecond

// changeSource delivers raw, possibly repeated, change events.
type changeSource interface {
	add(path string) error
	// run calls changed for every event until ctx is done.
	run(ctx context.Context, changed func(path string))
	close() error
}

// FileWatcher calls onChange at most once per debounce window per file.
type FileWatcher struct {
	src      changeSource
	debounce *debouncer
}

// NewFileWatcher uses the best change source the platform offers.
func NewFileWatcher(onChange func(string)) (*FileWatcher, error) {
	src, err := newChangeSource()
	if err != nil {
		return nil, err
	}
	return newFileWatcherWith(src, debounceDelay, onChange), nil
}

func newFileWatcherWith(src changeSource, delay time.Duration, onChange func(string)) *FileWatcher {
	return &FileWatcher{src: src, debounce: newDebouncer(delay, onChange)}
}

func (fw *FileWatcher) AddFile(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	return fw.src.add(absPath)
}

// Watch delivers change events until ctx is done.
func (fw *FileWatcher) Watch(ctx context.Context) {
	fw.src.run(ctx, fw.debounce.trigger)
}

// Close cancels pending callbacks and releases the change source.
func (fw *FileWatcher) Close() error {
	fw.debounce.stop()
	return fw.src.close()
}

// debouncer restarts a per-path timer on every trigger and calls fire once
// the path has been quiet for delay.
type debouncer struct {
	delay   time.Duration
	fire    func(string)
	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

func newDebouncer(delay time.Duration, fire func(string)) *debouncer {
	return &debouncer{delay: delay, fire: fire, timers: make(map[string]*time.Timer)}
}

func (d *debouncer) trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if timer, exists := d.timers[path]; exists {
		timer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := d.timers[path] == timer && !d.stopped
		if current {
			delete(d.timers, path)
		}
		d.mu.Unlock()
		if current {
			d.fire(path)
		}
	})
	d.timers[path] = timer
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for path, timer := range d.timers {
		timer.Stop()
		delete(d.timers, path)
	}
}

// pollSource compares modification times. It backs platforms without a
// kernel notification API.
type pollSource struct {
	interval time.Duration
	mu       sync.Mutex
	modTimes map[string]time.Time
}

func newPollSource(interval time.Duration) *pollSource {
	return &pollSource{interval: interval, modTimes: make(map[string]time.Time)}
}

func (p *pollSource) add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.modTimes[path] = info.ModTime()
	p.mu.Unlock()
	return nil
}

func (p *pollSource) run(ctx context.Context, changed func(string)) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.check(changed)
		case <-ctx.Done():
			return
		}
	}
}

func (p *pollSource) check(changed func(string)) {
	p.mu.Lock()
	var modified []string
	for path, last := range p.modTimes {
		info, err := os.Stat(path)
		if err != nil {
			// Mid-save; the next tick sees the new file.
			continue
		}
		if !info.ModTime().Equal(last) {
			p.modTimes[path] = info.ModTime()
			modified = append(modified, path)
		}
	}
	p.mu.Unlock()
	for _, path := range modified {
		changed(path)
	}
}

func (p *pollSource) close() error { return nil }
