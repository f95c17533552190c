package pipeline

import "errors"

// ErrSourceUnavailable means no frame could be acquired because the active
// source is missing, closed or failed to open. Recovered locally by
// substituting a placeholder frame; never fatal.
var ErrSourceUnavailable = errors.New("source unavailable")

// ErrAcquisitionTimeout means an open or grab exceeded its bound. Treated
// like ErrSourceUnavailable for the current tick and retried on the next.
var ErrAcquisitionTimeout = errors.New("acquisition timed out")
