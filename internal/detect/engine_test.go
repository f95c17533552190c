package detect

import (
	"testing"

	"backupcam/internal/pipeline"
)

func props(thresholdCm float64, debounce int) pipeline.DetectionProperties {
	return pipeline.DetectionProperties{
		ThresholdCm:    thresholdCm,
		Sensitivity:    0.5,
		DebounceFrames: debounce,
	}
}

func cm(v float64) *float64 { return &v }

func TestDebounceRequiresConsecutiveReadings(t *testing.T) {
	e := NewEngine()
	p := props(50, 3)

	// 80, 80, 40, 40, 40: the two far readings do not count, the run of
	// near readings triggers exactly on its third frame.
	feed := []float64{80, 80, 40, 40, 40}
	want := []bool{false, false, false, false, true}

	for i, v := range feed {
		d := e.Observe(cm(v), p)
		if d.Triggered != want[i] {
			t.Errorf("frame %d (%.0fcm): triggered = %v, want %v", i, v, d.Triggered, want[i])
		}
	}
}

func TestSingleFarReadingResetsRun(t *testing.T) {
	e := NewEngine()
	p := props(50, 3)

	// Two near readings, one far, two near: never three in a row.
	for _, v := range []float64{40, 40, 80, 40, 40} {
		if d := e.Observe(cm(v), p); d.Triggered {
			t.Fatalf("triggered after interrupted run (reading %.0fcm)", v)
		}
	}

	// The third consecutive near reading completes the run.
	if d := e.Observe(cm(40), p); !d.Triggered {
		t.Error("not triggered after three consecutive near readings")
	}
}

func TestNoObstacleResetsRun(t *testing.T) {
	e := NewEngine()
	p := props(50, 2)

	e.Observe(cm(40), p)
	e.Observe(nil, p)
	if d := e.Observe(cm(40), p); d.Triggered {
		t.Error("nil reading did not reset the debounce run")
	}
}

func TestReadingAtThresholdCounts(t *testing.T) {
	e := NewEngine()
	p := props(50, 1)

	if d := e.Observe(cm(50), p); !d.Triggered {
		t.Error("reading exactly at threshold did not trigger")
	}
	if d := e.Observe(cm(50.1), p); d.Triggered {
		t.Error("reading just above threshold triggered")
	}
}

func TestResetClearsRun(t *testing.T) {
	e := NewEngine()
	p := props(50, 2)

	e.Observe(cm(40), p)
	e.Reset()
	if d := e.Observe(cm(40), p); d.Triggered {
		t.Error("run survived Reset")
	}
	if d := e.Observe(cm(40), p); !d.Triggered {
		t.Error("run not rebuilt after Reset")
	}
}

func TestTriggeredStaysWhileObstacleHolds(t *testing.T) {
	e := NewEngine()
	p := props(50, 3)

	for i := 0; i < 10; i++ {
		d := e.Observe(cm(30), p)
		if i >= 2 && !d.Triggered {
			t.Fatalf("frame %d: alert dropped while obstacle still near", i)
		}
	}
}

// frameWithEdgeAt paints a dark frame with a bright region from row y
// down to the bottom, producing a strong horizontal luminance edge.
func frameWithEdgeAt(size pipeline.DisplaySize, y int) *pipeline.Frame {
	f := pipeline.NewFrame(size)
	for i := range f.Pix {
		f.Pix[i] = 20
	}
	for yy := y; yy < size.Height; yy++ {
		for x := 0; x < size.Width; x++ {
			f.SetRGB(x, yy, 200, 200, 200)
		}
	}
	return f
}

func TestEstimateProximityFindsEdge(t *testing.T) {
	size := pipeline.DisplaySize{Width: 64, Height: 100}

	if got := estimateProximity(pipeline.NewFrame(size), 0.5); got != nil {
		t.Errorf("uniform frame: proximity = %v, want nil", *got)
	}

	near := estimateProximity(frameWithEdgeAt(size, 90), 0.5)
	far := estimateProximity(frameWithEdgeAt(size, 70), 0.5)
	if near == nil || far == nil {
		t.Fatal("edge frames produced no proximity estimate")
	}
	if *near >= *far {
		t.Errorf("lower edge not closer: near = %.1fcm, far = %.1fcm", *near, *far)
	}
	if *near < 10 || *far > 200 {
		t.Errorf("estimates outside measurable range: %.1f, %.1f", *near, *far)
	}
}

func TestSensitivityLowersEdgeThreshold(t *testing.T) {
	size := pipeline.DisplaySize{Width: 64, Height: 100}

	// A weak edge: 20 against 60 is roughly a 40-point luma step, below
	// the least sensitive threshold (80) but above the most sensitive (20).
	f := pipeline.NewFrame(size)
	for i := range f.Pix {
		f.Pix[i] = 20
	}
	for yy := 85; yy < size.Height; yy++ {
		for x := 0; x < size.Width; x++ {
			f.SetRGB(x, yy, 60, 60, 60)
		}
	}

	if got := estimateProximity(f, 0); got != nil {
		t.Errorf("weak edge detected at sensitivity 0: %.1fcm", *got)
	}
	if got := estimateProximity(f, 1); got == nil {
		t.Error("weak edge missed at sensitivity 1")
	}
}

func TestDetectEndToEnd(t *testing.T) {
	e := NewEngine()
	size := pipeline.DisplaySize{Width: 64, Height: 100}
	p := props(200, 2)

	f := frameWithEdgeAt(size, 90)
	d1, err := e.Detect(f, p)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if d1.Proximity == nil {
		t.Fatal("Detect returned no proximity for an edge frame")
	}
	if d1.Triggered {
		t.Error("triggered before debounce run completed")
	}

	d2, _ := e.Detect(f, p)
	if !d2.Triggered {
		t.Error("not triggered after two consecutive near frames")
	}
}
