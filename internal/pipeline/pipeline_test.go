package pipeline

import (
	"sync"
	"testing"
	"time"

	"backupcam/internal/source"
)

// fakeGrabber is a scriptable FrameGrabber for pipeline tests.
type fakeGrabber struct {
	mu      sync.Mutex
	opens   []source.Ref
	openErr error
	grabErr error
	frame   *Frame
	onGrab  func()
	grabs   int
	closed  bool
}

func (g *fakeGrabber) Open(ref source.Ref) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.opens = append(g.opens, ref)
	return g.openErr
}

func (g *fakeGrabber) Grab() (*Frame, error) {
	g.mu.Lock()
	hook := g.onGrab
	g.grabs++
	g.mu.Unlock()

	if hook != nil {
		hook()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.grabErr != nil {
		return nil, g.grabErr
	}
	return g.frame.Clone(), nil
}

func (g *fakeGrabber) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

func (g *fakeGrabber) openCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.opens)
}

// stubDetector returns a scripted detection and counts invocations.
type stubDetector struct {
	det    Detection
	err    error
	calls  int
	resets int
}

func (d *stubDetector) Detect(f *Frame, props DetectionProperties) (Detection, error) {
	d.calls++
	return d.det, d.err
}

func (d *stubDetector) Reset() { d.resets++ }

// stubRenderer marks pixel (0,0) on a clone when visible.
type stubRenderer struct {
	calls int
}

func (r *stubRenderer) Render(f *Frame, props GuidelineProperties) (*Frame, error) {
	r.calls++
	if !props.Visible {
		return f, nil
	}
	out := f.Clone()
	out.SetRGB(0, 0, 1, 2, 3)
	return out, nil
}

func uniformFrame(size DisplaySize, v uint8) *Frame {
	f := NewFrame(size)
	for i := range f.Pix {
		f.Pix[i] = v
	}
	return f
}

var testDisplay = DisplaySize{Width: 64, Height: 48}

func newTestPipeline(g *fakeGrabber, d ObstacleDetector) *Pipeline {
	if g.frame == nil {
		g.frame = uniformFrame(testDisplay, 100)
	}
	p := New(Config{
		Display:  testDisplay,
		Grabber:  g,
		Renderer: &stubRenderer{},
		Detector: d,
	})
	// Generous waits keep slow CI machines from hitting the timeout
	// path in tests that are not about timeouts.
	p.Acquirer().SetWaits(time.Second, time.Second)
	p.SetSource(source.Device(0))
	return p
}

func TestTickPlaceholderWhenUnavailable(t *testing.T) {
	g := &fakeGrabber{grabErr: ErrSourceUnavailable}
	p := newTestPipeline(g, &stubDetector{})

	frame, alert := p.Tick()

	if frame.Width != testDisplay.Width || frame.Height != testDisplay.Height {
		t.Errorf("placeholder size = %dx%d, want %dx%d",
			frame.Width, frame.Height, testDisplay.Width, testDisplay.Height)
	}
	if alert.Active {
		t.Error("alert active on placeholder tick, want inactive")
	}
	if p.CurrentMode() != ModeRearviewMirror {
		t.Errorf("initial mode = %v, want %v", p.CurrentMode(), ModeRearviewMirror)
	}
}

func TestTickMalformedFrameSubstitutesPlaceholder(t *testing.T) {
	g := &fakeGrabber{frame: uniformFrame(DisplaySize{Width: 10, Height: 10}, 50)}
	p := newTestPipeline(g, &stubDetector{})

	hidden := false
	p.UpdateGuideline(GuidelinePropertiesPatch{Visible: &hidden})

	frame, _ := p.Tick()

	if !frame.Matches(testDisplay) {
		t.Errorf("frame size = %dx%d, want display size %dx%d",
			frame.Width, frame.Height, testDisplay.Width, testDisplay.Height)
	}
	// A conditioned 50-gray frame would have gray pixels; the
	// placeholder is black outside the caption.
	if frame.Pix[0] != 0 {
		t.Errorf("corner pixel = %d, want 0 (placeholder)", frame.Pix[0])
	}
}

func TestDetectionRunsOnlyInParkAssistant(t *testing.T) {
	det := &stubDetector{det: Detection{Triggered: true}}
	p := newTestPipeline(&fakeGrabber{}, det)

	// RearviewMirror: detection stage off, alert always inactive.
	_, alert := p.Tick()
	if alert.Active {
		t.Error("alert active in rearview mode")
	}
	if det.calls != 0 {
		t.Errorf("detector invoked %d times in rearview mode, want 0", det.calls)
	}

	p.SetMode(ModeParkAssistant)
	_, alert = p.Tick()
	if !alert.Active {
		t.Error("alert inactive in park assistant mode with triggered detector")
	}
	if alert.Reason != AlertObstacleNear {
		t.Errorf("reason = %v, want %v", alert.Reason, AlertObstacleNear)
	}
	if det.calls != 1 {
		t.Errorf("detector invoked %d times, want 1", det.calls)
	}

	// Switching to Configuration drops the alert on the very next tick
	// because the detection stage is no longer invoked.
	p.SetMode(ModeConfiguration)
	_, alert = p.Tick()
	if alert.Active {
		t.Error("alert still active after switching to configuration mode")
	}
	if det.calls != 1 {
		t.Errorf("detector invoked in configuration mode (calls=%d)", det.calls)
	}
	if det.resets == 0 {
		t.Error("detector debounce state not reset on mode switch")
	}
}

func TestMuteAffectsOnlyAudible(t *testing.T) {
	det := &stubDetector{det: Detection{Triggered: true}}
	p := newTestPipeline(&fakeGrabber{}, det)
	p.SetMode(ModeParkAssistant)

	_, alert := p.Tick()
	if !alert.Active || !alert.Audible {
		t.Fatalf("unmuted alert = %+v, want active and audible", alert)
	}

	muted := true
	p.UpdateDetection(DetectionPropertiesPatch{Muted: &muted})

	_, alert = p.Tick()
	if !alert.Active {
		t.Error("muting deactivated the alert; mute must only gate audible emission")
	}
	if alert.Reason != AlertObstacleNear {
		t.Errorf("muting changed reason to %v", alert.Reason)
	}
	if alert.Audible {
		t.Error("alert still audible while muted")
	}
}

func TestPropertyUpdateVisibleNextTick(t *testing.T) {
	g := &fakeGrabber{frame: uniformFrame(testDisplay, 100)}
	p := newTestPipeline(g, &stubDetector{})

	hidden := false
	p.UpdateGuideline(GuidelinePropertiesPatch{Visible: &hidden})

	// The grabber raises brightness mid-tick; the snapshot for this
	// tick was already taken.
	brightness := 50.0
	g.onGrab = func() {
		p.UpdateImage(ImagePropertiesPatch{Brightness: &brightness})
	}

	frame, _ := p.Tick()
	if got := frame.Pix[0]; got != 100 {
		t.Errorf("tick observed mid-tick update: pixel = %d, want 100", got)
	}

	g.onGrab = nil
	frame, _ = p.Tick()
	if got := frame.Pix[0]; got != 150 {
		t.Errorf("update not visible on next tick: pixel = %d, want 150", got)
	}
}

func TestAlertSinkFiresOnRisingEdgeOnly(t *testing.T) {
	det := &stubDetector{}
	p := newTestPipeline(&fakeGrabber{}, det)
	p.SetMode(ModeParkAssistant)

	var events []AlertEvent
	p.AddAlertSink(alertSinkFunc(func(e AlertEvent) { events = append(events, e) }))

	p.Tick() // not triggered
	det.det = Detection{Triggered: true}
	p.Tick() // rising edge
	p.Tick() // still active, no new event
	det.det = Detection{}
	p.Tick() // falling edge
	det.det = Detection{Triggered: true}
	p.Tick() // second rising edge

	if len(events) != 2 {
		t.Fatalf("sink received %d events, want 2", len(events))
	}
	if events[0].Mode != ModeParkAssistant {
		t.Errorf("event mode = %v, want %v", events[0].Mode, ModeParkAssistant)
	}
}

type alertSinkFunc func(AlertEvent)

func (f alertSinkFunc) OnAlert(e AlertEvent) { f(e) }

func TestLatestSourceRequestWins(t *testing.T) {
	g := &fakeGrabber{}
	p := newTestPipeline(g, &stubDetector{})

	p.SetSource(source.Device(1))
	p.SetSource(source.Device(2))
	p.Tick()

	if n := g.openCount(); n != 1 {
		t.Fatalf("grabber opened %d times, want 1 (latest request only)", n)
	}
	g.mu.Lock()
	ref := g.opens[0]
	g.mu.Unlock()
	if ref.Index != 2 {
		t.Errorf("opened device %d, want 2", ref.Index)
	}
}

func TestFailingRendererDegradesToNoOverlay(t *testing.T) {
	g := &fakeGrabber{frame: uniformFrame(testDisplay, 100)}
	p := New(Config{
		Display:  testDisplay,
		Grabber:  g,
		Renderer: failingRenderer{},
		Detector: &stubDetector{},
	})
	p.Acquirer().SetWaits(time.Second, time.Second)
	p.SetSource(source.Device(0))

	frame, _ := p.Tick()
	if frame == nil {
		t.Fatal("tick aborted on renderer failure")
	}
	if got := frame.Pix[0]; got != 100 {
		t.Errorf("pixel = %d, want 100 (conditioned frame without overlay)", got)
	}
}

type failingRenderer struct{}

func (failingRenderer) Render(f *Frame, props GuidelineProperties) (*Frame, error) {
	return nil, ErrSourceUnavailable // any error will do
}

func TestCloseReleasesGrabber(t *testing.T) {
	g := &fakeGrabber{}
	p := newTestPipeline(g, &stubDetector{})
	p.Tick()

	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.closed {
		t.Error("grabber not closed on pipeline teardown")
	}
}

func TestModeControllerTransitions(t *testing.T) {
	c := NewModeController()

	if c.CurrentMode() != ModeRearviewMirror {
		t.Errorf("initial mode = %v, want %v", c.CurrentMode(), ModeRearviewMirror)
	}

	// Every mode is reachable from every other.
	modes := []OperatingMode{ModeParkAssistant, ModeRearviewMirror, ModeConfiguration}
	for _, from := range modes {
		for _, to := range modes {
			c.SetMode(from)
			c.SetMode(to)
			if c.CurrentMode() != to {
				t.Errorf("transition %v -> %v landed on %v", from, to, c.CurrentMode())
			}
		}
	}

	c.SetMode(OperatingMode(99))
	if c.CurrentMode() == OperatingMode(99) {
		t.Error("unknown mode accepted")
	}
}

func TestStageTable(t *testing.T) {
	cases := []struct {
		mode OperatingMode
		want StageSet
	}{
		{ModeParkAssistant, StageSet{Guidelines: true, Detection: true}},
		{ModeRearviewMirror, StageSet{Guidelines: true, Detection: false}},
		{ModeConfiguration, StageSet{Guidelines: false, Detection: false}},
	}
	c := NewModeController()
	for _, tc := range cases {
		c.SetMode(tc.mode)
		if got := c.ActiveStages(); got != tc.want {
			t.Errorf("stages for %v = %+v, want %+v", tc.mode, got, tc.want)
		}
	}
}
