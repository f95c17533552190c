package pipeline

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"backupcam/internal/source"
)

const (
	defaultOpenWait = 10 * time.Millisecond
	defaultGrabWait = 15 * time.Millisecond
)

type grabResult struct {
	frame *Frame
	err   error
}

// Acquirer owns exactly one FrameGrabber on behalf of the tick loop.
// Source-switch requests arrive from the control path at any time but are
// queued and applied at the start of the next tick, never preempting an
// in-progress acquisition. Opens and grabs run in helper goroutines so a
// slow device can never stall a tick beyond the configured waits; an
// operation that outlives its wait is reported as a timeout and its result
// is collected on a later tick.
//
// Next and Close must be called from the pipeline goroutine only.
type Acquirer struct {
	grabber  FrameGrabber
	logger   *log.Logger
	openWait time.Duration
	grabWait time.Duration

	pending atomic.Pointer[source.Ref]

	// gmu serializes grabber access across the helper goroutines.
	gmu sync.Mutex

	openCh    chan error      // non-nil while an open is in flight
	grabCh    chan grabResult // non-nil while a grab is in flight
	available bool
}

// NewAcquirer wraps a grabber. The acquirer starts with no source open.
func NewAcquirer(grabber FrameGrabber, logger *log.Logger) *Acquirer {
	if logger == nil {
		logger = log.Default()
	}
	return &Acquirer{
		grabber:  grabber,
		logger:   logger,
		openWait: defaultOpenWait,
		grabWait: defaultGrabWait,
	}
}

// SetWaits overrides the per-tick open and grab waits. Zero values keep
// the current setting.
func (a *Acquirer) SetWaits(open, grab time.Duration) {
	if open > 0 {
		a.openWait = open
	}
	if grab > 0 {
		a.grabWait = grab
	}
}

// RequestSource queues a source swap. Safe to call concurrently with an
// in-flight tick; a newer request supersedes an unapplied older one.
func (a *Acquirer) RequestSource(ref source.Ref) {
	a.pending.Store(&ref)
}

// Next applies any pending source swap and returns the next frame.
// Returns ErrSourceUnavailable or ErrAcquisitionTimeout when no frame can
// be produced this tick.
func (a *Acquirer) Next() (*Frame, error) {
	if ref := a.pending.Swap(nil); ref != nil {
		a.beginOpen(*ref)
	}

	if a.openCh != nil {
		select {
		case err := <-a.openCh:
			a.openCh = nil
			if err != nil {
				a.logger.Printf("[Acquirer] open failed: %v", err)
				return nil, ErrSourceUnavailable
			}
			a.available = true
		case <-time.After(a.openWait):
			return nil, ErrAcquisitionTimeout
		}
	}

	if !a.available {
		return nil, ErrSourceUnavailable
	}

	if a.grabCh == nil {
		ch := make(chan grabResult, 1)
		a.grabCh = ch
		go func() {
			a.gmu.Lock()
			f, err := a.grabber.Grab()
			a.gmu.Unlock()
			ch <- grabResult{frame: f, err: err}
		}()
	}

	select {
	case res := <-a.grabCh:
		a.grabCh = nil
		if res.err != nil {
			return nil, res.err
		}
		return res.frame, nil
	case <-time.After(a.grabWait):
		// The grab keeps running; its result is drained next tick. A
		// frame that is one tick late is still worth displaying.
		return nil, ErrAcquisitionTimeout
	}
}

// beginOpen starts an asynchronous source swap. A still-unfinished earlier
// open is superseded; its buffered result channel is simply abandoned.
func (a *Acquirer) beginOpen(ref source.Ref) {
	a.available = false
	ch := make(chan error, 1)
	a.openCh = ch

	a.logger.Printf("[Acquirer] switching to %s", ref)
	go func() {
		a.gmu.Lock()
		err := a.grabber.Open(ref)
		a.gmu.Unlock()
		ch <- err
	}()
}

// Close releases the grabber's capture handle. It waits for any in-flight
// open or grab to finish so the handle is never closed under a concurrent
// operation.
func (a *Acquirer) Close() error {
	a.gmu.Lock()
	defer a.gmu.Unlock()
	a.available = false
	return a.grabber.Close()
}
