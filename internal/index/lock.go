package index

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// lockTimeout is how long Open waits for a competing holder to release the
// index before giving up.
const lockTimeout = 5 * time.Second

var (
	errLockTimeout  = errors.New("index lock timeout")
	errLockFileOpen = errors.New("failed to open index lock file")
)

// fileLock is an advisory flock held on a .lock file beside the index file.
// A separate lock file avoids interfering with atomic rename-over of the
// index itself.
type fileLock struct {
	file *os.File
}

func acquireLock(path string, timeout time.Duration) (*fileLock, error) {
	lockPath := path + ".lock"
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644) //nolint:gosec // G304: path is derived from engine config
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errLockFileOpen, err)
	}

	const retryInterval = 10 * time.Millisecond
	deadline := time.Now().Add(timeout)
	for {
		if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err == nil {
			return &fileLock{file: file}, nil
		}
		if time.Now().After(deadline) {
			_ = file.Close()
			return nil, fmt.Errorf("%w: %s", errLockTimeout, path)
		}
		time.Sleep(retryInterval)
	}
}

func (l *fileLock) release() {
	if l.file != nil {
		_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
		_ = l.file.Close()
		l.file = nil
	}
}
