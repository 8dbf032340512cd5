package binary

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	appErrors "github.com/zymbit-applications/zb-install/internal/errors"
)

// StaleLockThreshold is the maximum age of a lock before it's considered stale.
const StaleLockThreshold = 10 * time.Minute

// ErrLockExists is returned when another install into the same directory
// holds the lock.
var ErrLockExists = errors.New("install lock exists: another installation may be in progress")

// installLock serializes installs of one tool into one directory.
type installLock struct {
	path string
	file *os.File
}

// acquireLock creates ".<tool>.lock" in dir with O_EXCL. A lock older than
// StaleLockThreshold is taken over once.
func acquireLock(ctx context.Context, dir, tool string) (*installLock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lockPath := filepath.Join(dir, "."+tool+".lock")
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if errors.Is(err, fs.ErrExist) && isLockStale(lockPath) {
		os.Remove(lockPath)
		file, err = os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	}
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, appErrors.New(appErrors.CodeIO, lockPath, ErrLockExists)
		}
		return nil, appErrors.New(appErrors.CodeIO, "create lock file", err)
	}

	lockData := fmt.Sprintf("pid=%d\ntimestamp=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(lockData); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, appErrors.New(appErrors.CodeIO, "write lock file", err)
	}

	return &installLock{path: lockPath, file: file}, nil
}

// release removes the lock file.
func (l *installLock) release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

func isLockStale(lockPath string) bool {
	info, err := os.Stat(lockPath)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > StaleLockThreshold
}
