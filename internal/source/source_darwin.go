//go:build darwin

package source

import (
	"os/exec"
	"strings"
)

const activeWindowScript = `
try
	tell application "System Events"
		set frontApp to name of first application process whose frontmost is true
	end tell
	try
		tell application frontApp
			set windowName to name of front window
		end tell
	on error
		set windowName to "Unknown Window"
	end try
	return frontApp & "|" & windowName
on error
	return ""
end try
`

// New returns the macOS probe backed by osascript.
func New() Source {
	return osascriptSource{}
}

type osascriptSource struct{}

func (osascriptSource) Poll() (string, string, bool) {
	out, err := exec.Command("osascript", "-e", activeWindowScript).Output()
	if err != nil {
		return "", "", false
	}
	app, title, found := strings.Cut(strings.TrimSpace(string(out)), "|")
	app = strings.TrimSpace(app)
	if !found || app == "" {
		return "", "", false
	}
	return app, strings.TrimSpace(title), true
}

// Available reports whether the required external probe is installed.
func Available() bool {
	_, err := exec.LookPath("osascript")
	return err == nil
}
