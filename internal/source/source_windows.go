//go:build windows

package source

import (
	"os/exec"
	"strings"
)

const activeWindowScript = `
Add-Type @"
using System;
using System.Runtime.InteropServices;
using System.Text;

public class Win32 {
	[DllImport("user32.dll")]
	public static extern IntPtr GetForegroundWindow();

	[DllImport("user32.dll")]
	public static extern int GetWindowText(IntPtr hWnd, StringBuilder text, int count);

	[DllImport("user32.dll")]
	public static extern int GetWindowTextLength(IntPtr hWnd);

	[DllImport("user32.dll")]
	public static extern uint GetWindowThreadProcessId(IntPtr hWnd, out uint processId);
}
"@

try {
	$h = [Win32]::GetForegroundWindow()
	$len = [Win32]::GetWindowTextLength($h)
	$sb = New-Object System.Text.StringBuilder -ArgumentList ($len + 1)
	[Win32]::GetWindowText($h, $sb, $sb.Capacity) | Out-Null
	$title = $sb.ToString()

	$procId = 0
	[Win32]::GetWindowThreadProcessId($h, [ref]$procId) | Out-Null
	if ($procId -gt 0) {
		$p = Get-Process -Id $procId -ErrorAction SilentlyContinue
		if ($p) { return "$($p.ProcessName)|$title" }
	}
	return ""
} catch {
	return ""
}
`

// New returns the Windows probe backed by powershell.
func New() Source {
	return powershellSource{}
}

type powershellSource struct{}

func (powershellSource) Poll() (string, string, bool) {
	out, err := exec.Command("powershell", "-NoProfile", "-Command", activeWindowScript).Output()
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
	_, err := exec.LookPath("powershell")
	return err == nil
}
