//go:build darwin

package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// kqueueSource watches listing files with kqueue vnode filters. A file that
// is deleted or renamed away is opened again once its path exists.
type kqueueSource struct {
	kq       int
	mu       sync.Mutex
	files    map[int]string
	detached map[string]bool
}

func newChangeSource() (changeSource, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("kqueue failed: %w", err)
	}
	return &kqueueSource{kq: kq, files: make(map[int]string), detached: make(map[string]bool)}, nil
}

func (s *kqueueSource) add(path string) error {
	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	event := unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_VNODE,
		Flags:  unix.EV_ADD | unix.EV_CLEAR,
		Fflags: unix.NOTE_WRITE | unix.NOTE_ATTRIB | unix.NOTE_DELETE | unix.NOTE_RENAME,
	}
	if _, err := unix.Kevent(s.kq, []unix.Kevent_t{event}, nil, nil); err != nil {
		unix.Close(fd)
		return fmt.Errorf("failed to add kevent for %s: %w", path, err)
	}

	s.mu.Lock()
	s.files[fd] = path
	delete(s.detached, path)
	s.mu.Unlock()
	return nil
}

func (s *kqueueSource) run(ctx context.Context, changed func(string)) {
	events := make([]unix.Kevent_t, 10)
	timeout := unix.NsecToTimespec(int64(200 * time.Millisecond))

	for ctx.Err() == nil {
		s.rearm(changed)

		n, err := unix.Kevent(s.kq, nil, events, &timeout)
		if err != nil {
			if err != unix.EINTR && VerboseMode {
				fmt.Fprintf(os.Stderr, "Error reading kevent: %v\n", err)
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}

		for _, ev := range events[:n] {
			fd := int(ev.Ident)
			s.mu.Lock()
			path, known := s.files[fd]
			gone := known && ev.Fflags&(unix.NOTE_DELETE|unix.NOTE_RENAME) != 0
			if gone {
				delete(s.files, fd)
				s.detached[path] = true
			}
			s.mu.Unlock()

			if gone {
				unix.Close(fd)
				continue
			}
			if known {
				changed(path)
			}
		}
	}
}

// rearm reopens detached paths once they exist; the replacement file counts
// as a change.
func (s *kqueueSource) rearm(changed func(string)) {
	s.mu.Lock()
	var paths []string
	for path := range s.detached {
		paths = append(paths, path)
	}
	s.mu.Unlock()

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := s.add(path); err == nil {
			changed(path)
		}
	}
}

func (s *kqueueSource) close() error {
	s.mu.Lock()
	for fd := range s.files {
		unix.Close(fd)
	}
	s.mu.Unlock()
	return unix.Close(s.kq)
}
