package pipeline

import "sync/atomic"

// ImageProperties tune raw frame conditioning. Immutable snapshot, read
// once per tick.
type ImageProperties struct {
	Brightness float64 // additive offset, -100..100
	Contrast   float64 // multiplicative gain, 0.25..3.0
	Zoom       float64 // center digital zoom, 1.0..3.0
}

// GuidelineProperties describe the parking-guide overlay geometry in
// display-relative coordinates (fractions of width/height), so the same
// settings work across display sizes.
type GuidelineProperties struct {
	Visible      bool
	CenterX      float64 // lateral center of the rails, 0..1
	Horizon      float64 // vertical position where the rails converge, 0.2..0.8
	BottomSpread float64 // rail separation at the bottom edge, 0.1..1.0
	TopSpread    float64 // rail separation at the horizon, 0.05..1.0
	Thickness    int     // rail thickness in pixels, 1..5
}

// DetectionProperties tune obstacle detection and alerting. Muted
// suppresses only the audible alert; detection itself always runs so that
// unmuting is instantaneous and the visual state stays correct.
type DetectionProperties struct {
	Muted          bool
	ThresholdCm    float64 // alert when proximity is at or below, 10..200
	Sensitivity    float64 // edge-response sensitivity, 0..1
	DebounceFrames int     // consecutive readings required to trigger, 1..10
}

// DefaultImageProperties returns the neutral conditioning settings.
func DefaultImageProperties() ImageProperties {
	return ImageProperties{Brightness: 0, Contrast: 1, Zoom: 1}
}

// DefaultGuidelineProperties returns a centered two-rail layout.
func DefaultGuidelineProperties() GuidelineProperties {
	return GuidelineProperties{
		Visible:      true,
		CenterX:      0.5,
		Horizon:      0.45,
		BottomSpread: 0.8,
		TopSpread:    0.3,
		Thickness:    2,
	}
}

// DefaultDetectionProperties returns the stock alerting settings.
func DefaultDetectionProperties() DetectionProperties {
	return DetectionProperties{
		Muted:          false,
		ThresholdCm:    50,
		Sensitivity:    0.5,
		DebounceFrames: 3,
	}
}

// ImagePropertiesPatch is a partial update; nil fields keep their current
// value.
type ImagePropertiesPatch struct {
	Brightness *float64
	Contrast   *float64
	Zoom       *float64
}

// GuidelinePropertiesPatch is a partial update; nil fields keep their
// current value.
type GuidelinePropertiesPatch struct {
	Visible      *bool
	CenterX      *float64
	Horizon      *float64
	BottomSpread *float64
	TopSpread    *float64
	Thickness    *int
}

// DetectionPropertiesPatch is a partial update; nil fields keep their
// current value.
type DetectionPropertiesPatch struct {
	Muted          *bool
	ThresholdCm    *float64
	Sensitivity    *float64
	DebounceFrames *int
}

// PropertyStore holds the three live-tunable configuration groups.
// Each group is an atomically swapped immutable snapshot: the tick loop
// reads one consistent snapshot per group, writers publish a whole new
// value and never mutate in place. Out-of-range values are clamped, never
// rejected, so a live slider can never produce a hard failure.
type PropertyStore struct {
	image     atomic.Pointer[ImageProperties]
	guideline atomic.Pointer[GuidelineProperties]
	detection atomic.Pointer[DetectionProperties]
}

// NewPropertyStore creates a store seeded with the default settings.
func NewPropertyStore() *PropertyStore {
	s := &PropertyStore{}
	img := DefaultImageProperties()
	gl := DefaultGuidelineProperties()
	det := DefaultDetectionProperties()
	s.image.Store(&img)
	s.guideline.Store(&gl)
	s.detection.Store(&det)
	return s
}

// Image returns the current image-conditioning snapshot.
func (s *PropertyStore) Image() ImageProperties { return *s.image.Load() }

// Guideline returns the current overlay snapshot.
func (s *PropertyStore) Guideline() GuidelineProperties { return *s.guideline.Load() }

// Detection returns the current detection snapshot.
func (s *PropertyStore) Detection() DetectionProperties { return *s.detection.Load() }

// UpdateImage applies a partial update and publishes a new snapshot.
func (s *PropertyStore) UpdateImage(p ImagePropertiesPatch) {
	next := *s.image.Load()
	if p.Brightness != nil {
		next.Brightness = *p.Brightness
	}
	if p.Contrast != nil {
		next.Contrast = *p.Contrast
	}
	if p.Zoom != nil {
		next.Zoom = *p.Zoom
	}
	next.Brightness = clampFloat(next.Brightness, -100, 100)
	next.Contrast = clampFloat(next.Contrast, 0.25, 3)
	next.Zoom = clampFloat(next.Zoom, 1, 3)
	s.image.Store(&next)
}

// UpdateGuideline applies a partial update and publishes a new snapshot.
func (s *PropertyStore) UpdateGuideline(p GuidelinePropertiesPatch) {
	next := *s.guideline.Load()
	if p.Visible != nil {
		next.Visible = *p.Visible
	}
	if p.CenterX != nil {
		next.CenterX = *p.CenterX
	}
	if p.Horizon != nil {
		next.Horizon = *p.Horizon
	}
	if p.BottomSpread != nil {
		next.BottomSpread = *p.BottomSpread
	}
	if p.TopSpread != nil {
		next.TopSpread = *p.TopSpread
	}
	if p.Thickness != nil {
		next.Thickness = *p.Thickness
	}
	next.CenterX = clampFloat(next.CenterX, 0, 1)
	next.Horizon = clampFloat(next.Horizon, 0.2, 0.8)
	next.BottomSpread = clampFloat(next.BottomSpread, 0.1, 1)
	next.TopSpread = clampFloat(next.TopSpread, 0.05, 1)
	next.Thickness = clampInt(next.Thickness, 1, 5)
	s.guideline.Store(&next)
}

// UpdateDetection applies a partial update and publishes a new snapshot.
func (s *PropertyStore) UpdateDetection(p DetectionPropertiesPatch) {
	next := *s.detection.Load()
	if p.Muted != nil {
		next.Muted = *p.Muted
	}
	if p.ThresholdCm != nil {
		next.ThresholdCm = *p.ThresholdCm
	}
	if p.Sensitivity != nil {
		next.Sensitivity = *p.Sensitivity
	}
	if p.DebounceFrames != nil {
		next.DebounceFrames = *p.DebounceFrames
	}
	next.ThresholdCm = clampFloat(next.ThresholdCm, 10, 200)
	next.Sensitivity = clampFloat(next.Sensitivity, 0, 1)
	next.DebounceFrames = clampInt(next.DebounceFrames, 1, 10)
	s.detection.Store(&next)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
