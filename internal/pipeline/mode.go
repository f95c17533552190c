package pipeline

import "sync/atomic"

// ModeController owns the operating-mode state machine. Every mode is
// reachable from every other; the initial mode is RearviewMirror so the
// display shows something safe before the operator touches anything.
// Safe for concurrent use: the UI switches modes while the tick loop
// reads them.
type ModeController struct {
	mode atomic.Int32
}

// NewModeController creates a controller in RearviewMirror mode.
func NewModeController() *ModeController {
	c := &ModeController{}
	c.mode.Store(int32(ModeRearviewMirror))
	return c
}

// SetMode switches the active operating mode. Unknown values are ignored.
func (c *ModeController) SetMode(m OperatingMode) {
	if _, ok := modeStages[m]; !ok {
		return
	}
	c.mode.Store(int32(m))
}

// CurrentMode returns the active operating mode.
func (c *ModeController) CurrentMode() OperatingMode {
	return OperatingMode(c.mode.Load())
}

// ActiveStages returns the stage set for the active mode.
func (c *ModeController) ActiveStages() StageSet {
	return modeStages[c.CurrentMode()]
}
