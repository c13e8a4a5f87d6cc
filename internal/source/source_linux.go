//go:build linux

package source

import (
	"os/exec"
	"strconv"
	"strings"
)

// New returns the X11 probe. It shells out to xdotool for the active window
// and resolves the owning process name through ps.
func New() Source {
	return xdotoolSource{}
}

type xdotoolSource struct{}

func (xdotoolSource) Poll() (string, string, bool) {
	title, err := output("xdotool", "getactivewindow", "getwindowname")
	if err != nil || title == "" {
		return "", "", false
	}

	pidStr, err := output("xdotool", "getactivewindow", "getwindowpid")
	if err != nil {
		return "", "", false
	}
	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		return "", "", false
	}

	app, err := output("ps", "-p", strconv.Itoa(pid), "-o", "comm=")
	if err != nil || app == "" {
		return "", "", false
	}

	return app, title, true
}

func output(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Available reports whether the required external probe is installed.
func Available() bool {
	_, err := exec.LookPath("xdotool")
	return err == nil
}
