//go:build linux

package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	inotifyChange = unix.IN_MODIFY | unix.IN_CLOSE_WRITE
	// Editors that save by renaming a temporary file over the listing
	// retire the watched inode.
	inotifyGone = unix.IN_DELETE_SELF | unix.IN_MOVE_SELF | unix.IN_IGNORED
)

// inotifySource watches listing files with inotify. A retired watch is
// re-armed on the path as soon as a file exists there again.
type inotifySource struct {
	fd       int
	mu       sync.Mutex
	watches  map[int]string
	detached map[string]bool
}

func newChangeSource() (changeSource, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("inotify_init failed: %w", err)
	}
	return &inotifySource{fd: fd, watches: make(map[int]string), detached: make(map[string]bool)}, nil
}

func (s *inotifySource) add(path string) error {
	wd, err := unix.InotifyAddWatch(s.fd, path, inotifyChange|unix.IN_DELETE_SELF|unix.IN_MOVE_SELF)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	s.mu.Lock()
	s.watches[wd] = path
	delete(s.detached, path)
	s.mu.Unlock()
	return nil
}

func (s *inotifySource) run(ctx context.Context, changed func(string)) {
	buf := make([]byte, (unix.SizeofInotifyEvent+unix.NAME_MAX+1)*4)

	for ctx.Err() == nil {
		s.rearm(changed)

		n, err := unix.Read(s.fd, buf)
		if err != nil {
			if err != unix.EAGAIN && err != unix.EINTR && VerboseMode {
				fmt.Fprintf(os.Stderr, "Error reading inotify events: %v\n", err)
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}

		for offset := 0; offset+unix.SizeofInotifyEvent <= n; {
			event := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
			offset += unix.SizeofInotifyEvent + int(event.Len)

			s.mu.Lock()
			path, known := s.watches[int(event.Wd)]
			if known && event.Mask&inotifyGone != 0 {
				delete(s.watches, int(event.Wd))
				s.detached[path] = true
			}
			s.mu.Unlock()

			if known && event.Mask&unix.IN_MOVE_SELF != 0 {
				// The kernel keeps following the moved inode.
				unix.InotifyRmWatch(s.fd, uint32(event.Wd))
			}

			if known && event.Mask&inotifyChange != 0 {
				changed(path)
			}
		}
	}
}

// rearm watches detached paths again once they exist; the replacement
// file counts as a change.
func (s *inotifySource) rearm(changed func(string)) {
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

func (s *inotifySource) close() error {
	return unix.Close(s.fd)
}
