package pipeline

// OperatingMode selects which pipeline stages run on each tick.
type OperatingMode int

const (
	// ModeParkAssistant - guidelines and obstacle detection
	ModeParkAssistant OperatingMode = iota
	// ModeRearviewMirror - guidelines only; a mirror view is not an
	// obstacle-alert view
	ModeRearviewMirror
	// ModeConfiguration - base feed only; configuration affordances are
	// drawn by the presentation layer
	ModeConfiguration
)

func (m OperatingMode) String() string {
	switch m {
	case ModeParkAssistant:
		return "park_assistant"
	case ModeRearviewMirror:
		return "rearview_mirror"
	case ModeConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// StageSet lists the optional per-tick stages enabled for a mode.
type StageSet struct {
	Guidelines bool
	Detection  bool
}

// modeStages is the single mode→stages table consulted once per tick.
// Keeping the branching here keeps mode checks out of the individual
// stages.
var modeStages = map[OperatingMode]StageSet{
	ModeParkAssistant:  {Guidelines: true, Detection: true},
	ModeRearviewMirror: {Guidelines: true, Detection: false},
	ModeConfiguration:  {Guidelines: false, Detection: false},
}

// AlertReason classifies why an alert is active.
type AlertReason int

const (
	AlertNone AlertReason = iota
	AlertObstacleNear
)

func (r AlertReason) String() string {
	if r == AlertObstacleNear {
		return "obstacle_near"
	}
	return "none"
}

// AlertState is derived fresh on every tick from the detection result and
// the current mute flag. Mute gates only Audible; Active and Reason always
// reflect the detection classification.
type AlertState struct {
	Active    bool
	Reason    AlertReason
	Audible   bool     // Active and not muted
	Proximity *float64 // estimated obstacle distance in cm, nil if none
}

// AlertEvent is published to sinks when an alert becomes active.
type AlertEvent struct {
	Seq         uint64
	Proximity   float64
	ThresholdCm float64
	Mode        OperatingMode
}

// AlertSink receives alert events on the rising edge of AlertState.Active.
// Sinks are invoked synchronously from the tick, in registration order, so
// events arrive in tick order; implementations must not block.
type AlertSink interface {
	OnAlert(e AlertEvent)
}
