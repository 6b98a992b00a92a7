package reminder

import "time"

// Window is the closed interval of due instants that get a reminder in
// one scan.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the window [now-before, now+after].
func NewWindow(now time.Time, before, after time.Duration) Window {
	return Window{Start: now.Add(-before), End: now.Add(after)}
}

// Contains reports whether t lies in the window, both ends inclusive.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
