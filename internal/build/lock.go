package build

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Lock guards a build run. The ledger and the sandbox workspace assume a
// single writer, so a second concurrent invocation must be rejected before
// it touches either.
type Lock struct {
	file *os.File
}

func openLockFile(glyphDir string) (*os.File, error) {
	locksDir := filepath.Join(glyphDir, "locks")
	if err := os.MkdirAll(locksDir, 0o755); err != nil {
		return nil, fmt.Errorf("create locks dir: %w", err)
	}
	file, err := os.OpenFile(filepath.Join(locksDir, "run.lock"), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	return file, nil
}

// AcquireLock blocks until the run lock is held.
func AcquireLock(glyphDir string) (*Lock, error) {
	file, err := openLockFile(glyphDir)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	return &Lock{file: file}, nil
}

// TryAcquireLock attempts the run lock without blocking. The second return
// is false when another run holds it.
func TryAcquireLock(glyphDir string) (*Lock, bool, error) {
	file, err := openLockFile(glyphDir)
	if err != nil {
		return nil, false, err
	}
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()
		return nil, false, nil
	}
	return &Lock{file: file}, true, nil
}

// Release drops the lock. Safe on nil.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		_ = l.file.Close()
		return err
	}
	return l.file.Close()
}
