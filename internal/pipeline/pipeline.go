package pipeline

import (
	"log"
	"time"

	"backupcam/internal/source"
)

// Config wires a Pipeline.
type Config struct {
	Display  DisplaySize
	Grabber  FrameGrabber
	Renderer GuidelineRenderer
	Detector ObstacleDetector
	Logger   *log.Logger
}

// Pipeline is the per-tick orchestrator: it pulls one frame from the
// acquirer, applies the stages the current mode enables and returns a
// display-sized frame plus the derived alert state. A single periodic
// driver calls Tick sequentially; configuration and mode changes arrive
// concurrently through the store and controller and take effect no later
// than the next tick.
type Pipeline struct {
	display     DisplaySize
	modes       *ModeController
	props       *PropertyStore
	acq         *Acquirer
	renderer    GuidelineRenderer
	detector    ObstacleDetector
	logger      *log.Logger
	placeholder *Frame

	// sinks is fixed before the driver starts ticking.
	sinks []AlertSink

	// tick-goroutine state
	seq        uint64
	lastMode   OperatingMode
	lastActive bool
}

// New creates a pipeline. No source is open until SetSource is called.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	modes := NewModeController()
	return &Pipeline{
		display:     cfg.Display,
		modes:       modes,
		props:       NewPropertyStore(),
		acq:         NewAcquirer(cfg.Grabber, logger),
		renderer:    cfg.Renderer,
		detector:    cfg.Detector,
		logger:      logger,
		placeholder: newPlaceholder(cfg.Display),
		lastMode:    modes.CurrentMode(),
	}
}

// SetMode switches the operating mode; effective from the next tick.
func (p *Pipeline) SetMode(m OperatingMode) { p.modes.SetMode(m) }

// CurrentMode returns the active operating mode.
func (p *Pipeline) CurrentMode() OperatingMode { return p.modes.CurrentMode() }

// SetSource queues a source swap, applied at the start of the next tick.
func (p *Pipeline) SetSource(ref source.Ref) { p.acq.RequestSource(ref) }

// Properties exposes the live-tunable configuration store.
func (p *Pipeline) Properties() *PropertyStore { return p.props }

// UpdateImage applies a partial image-conditioning update.
func (p *Pipeline) UpdateImage(patch ImagePropertiesPatch) { p.props.UpdateImage(patch) }

// UpdateGuideline applies a partial overlay update.
func (p *Pipeline) UpdateGuideline(patch GuidelinePropertiesPatch) { p.props.UpdateGuideline(patch) }

// UpdateDetection applies a partial detection/alerting update.
func (p *Pipeline) UpdateDetection(patch DetectionPropertiesPatch) { p.props.UpdateDetection(patch) }

// AddAlertSink registers a sink for rising-edge alert events. Must be
// called before the tick driver starts.
func (p *Pipeline) AddAlertSink(s AlertSink) {
	if s != nil {
		p.sinks = append(p.sinks, s)
	}
}

// Acquirer exposes the frame acquirer, mainly so callers can tune its
// waits.
func (p *Pipeline) Acquirer() *Acquirer { return p.acq }

// Tick processes one frame. It never fails: when no usable frame can be
// acquired a placeholder of the display size is returned, and a failing
// optional stage degrades to a no-op for this tick.
func (p *Pipeline) Tick() (*Frame, AlertState) {
	mode := p.modes.CurrentMode()
	stages := modeStages[mode]

	// Leaving or entering a detection-less mode clears the debounce run
	// so a previously triggered alert cannot survive a mode switch.
	if mode != p.lastMode {
		p.detector.Reset()
		p.lastMode = mode
	}

	// One consistent snapshot per group per tick.
	imgProps := p.props.Image()
	glProps := p.props.Guideline()
	detProps := p.props.Detection()

	p.seq++

	raw, err := p.acq.Next()
	var frame *Frame
	switch {
	case err != nil:
		frame = p.placeholder.Clone()
	case !raw.Matches(p.display):
		p.logger.Printf("[Pipeline] malformed frame %dx%d, want %dx%d",
			raw.Width, raw.Height, p.display.Width, p.display.Height)
		frame = p.placeholder.Clone()
	default:
		frame = conditionFrame(raw, imgProps)
	}
	frame.Seq = p.seq
	frame.Timestamp = time.Now()

	display := frame
	if stages.Guidelines {
		out, rerr := p.renderer.Render(frame, glProps)
		if rerr != nil {
			p.logger.Printf("[Pipeline] guideline overlay skipped: %v", rerr)
		} else if out != nil {
			display = out
		}
	}

	// Detection sees the conditioned frame, not the overlay, so guideline
	// pixels never feed the proximity estimate.
	alert := AlertState{Reason: AlertNone}
	if stages.Detection {
		d, derr := p.detector.Detect(frame, detProps)
		if derr != nil {
			p.logger.Printf("[Pipeline] detection skipped: %v", derr)
		} else {
			alert.Proximity = d.Proximity
			if d.Triggered {
				alert.Active = true
				alert.Reason = AlertObstacleNear
				alert.Audible = !detProps.Muted
			}
		}
	}

	if alert.Active && !p.lastActive {
		ev := AlertEvent{
			Seq:         p.seq,
			ThresholdCm: detProps.ThresholdCm,
			Mode:        mode,
		}
		if alert.Proximity != nil {
			ev.Proximity = *alert.Proximity
		}
		for _, s := range p.sinks {
			s.OnAlert(ev)
		}
	}
	p.lastActive = alert.Active

	return display, alert
}

// Close releases the acquirer's capture handle. Call after the tick
// driver has stopped.
func (p *Pipeline) Close() error {
	return p.acq.Close()
}
