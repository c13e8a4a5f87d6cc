package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// PIDFilePath returns the location of the daemon pid file, next to the
// user's cache data.
func PIDFilePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(dir, "focusd", "focusd.pid"), nil
}

// WritePIDFile records the given pid. Fails if a live daemon already owns
// the file.
func WritePIDFile(pid int) error {
	path, err := PIDFilePath()
	if err != nil {
		return err
	}
	if existing, ok := readPID(path); ok && processAlive(existing) {
		return fmt.Errorf("already running (pid %d)", existing)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o644)
}

// ReadPIDFile returns the recorded pid, or ok=false when no daemon is
// registered or the recorded process is gone.
func ReadPIDFile() (int, bool) {
	path, err := PIDFilePath()
	if err != nil {
		return 0, false
	}
	pid, ok := readPID(path)
	if !ok || !processAlive(pid) {
		return 0, false
	}
	return pid, true
}

// RemovePIDFile deletes the pid file. Missing files are not an error.
func RemovePIDFile() error {
	path, err := PIDFilePath()
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func readPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// processAlive probes a pid with signal 0.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
