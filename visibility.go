package gomessagebus

import "sync/atomic"

// VisibilityOracle reports whether the view hosting the client is hidden.
// A hidden host polls less often and asks the server not to hold requests
// open.
type VisibilityOracle interface {
	Hidden() bool
}

// VisibilityFunc adapts a plain function to a VisibilityOracle
type VisibilityFunc func() bool

// Hidden implements VisibilityOracle
func (f VisibilityFunc) Hidden() bool {
	return f()
}

// VisibilitySignal reads one source of visibility information. ok is false
// when the source is not available on the host.
type VisibilitySignal func() (hidden bool, ok bool)

// HostVisibility consults Signals in order and uses the first one available.
// When none is, it falls back to reporting the host as hidden whenever it is
// not Focused. Without signals or a focus check the host is always visible.
type HostVisibility struct {
	Signals []VisibilitySignal
	Focused func() bool
}

// Hidden implements VisibilityOracle
func (h *HostVisibility) Hidden() bool {
	for _, signal := range h.Signals {
		if signal == nil {
			continue
		}
		if hidden, ok := signal(); ok {
			return hidden
		}
	}
	if h.Focused != nil {
		return !h.Focused()
	}
	return false
}

// ToggleVisibility is a VisibilityOracle the host flips explicitly. The zero
// value is visible.
type ToggleVisibility struct {
	hidden int32
}

// Hide marks the host as hidden
func (t *ToggleVisibility) Hide() {
	atomic.StoreInt32(&t.hidden, 1)
}

// Show marks the host as visible
func (t *ToggleVisibility) Show() {
	atomic.StoreInt32(&t.hidden, 0)
}

// Hidden implements VisibilityOracle
func (t *ToggleVisibility) Hidden() bool {
	return atomic.LoadInt32(&t.hidden) == 1
}

var alwaysVisible = VisibilityFunc(func() bool { return false })
