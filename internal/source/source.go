package source

// Source is the foreground-window probe. Poll returns the active
// application's process name and window title; ok is false when no
// observation is available this tick, which is not an error.
type Source interface {
	Poll() (appName, windowTitle string, ok bool)
}

// Func adapts a plain function to a Source.
type Func func() (string, string, bool)

func (f Func) Poll() (string, string, bool) { return f() }
