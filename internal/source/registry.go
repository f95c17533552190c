package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNoDevices is returned by ListSources when device enumeration finds no
// capture devices. The sentinel entries are still returned so the source
// menu is never empty.
var ErrNoDevices = errors.New("no capture devices found")

// ErrInvalidFile is returned by ResolveFile for paths that cannot serve as
// a video source.
var ErrInvalidFile = errors.New("invalid video file")

// videoExtensions lists the container formats the file source accepts.
var videoExtensions = map[string]bool{
	".mp4": true,
	".avi": true,
	".mkv": true,
	".mov": true,
}

// maxDeviceIndex bounds the /dev/video* scan.
const maxDeviceIndex = 10

// Registry enumerates the selectable capture sources. Entries are stable
// for the registry's lifetime; a hot-plug rescan means building a new
// Registry.
type Registry struct {
	devicePattern string // e.g. "/dev/video%d", overridable in tests

	mu      sync.Mutex
	entries []Entry
}

// NewRegistry creates a registry that scans the standard V4L2 device
// nodes.
func NewRegistry() *Registry {
	return &Registry{devicePattern: "/dev/video%d"}
}

// ListSources returns the selectable sources in stable order: the
// "No source" and "Video file" sentinel entries first, then any capture
// devices found. When no devices exist the sentinel entries are returned
// together with ErrNoDevices.
func (r *Registry) ListSources() ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = r.scan()
	}

	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)

	if len(entries) <= 2 {
		return entries, ErrNoDevices
	}
	return entries, nil
}

// scan builds the entry list. Must be called with the lock held.
func (r *Registry) scan() []Entry {
	entries := []Entry{
		{Label: "No source", Ref: None()},
		{Label: "Video file...", Ref: Ref{Kind: KindFile}},
	}

	for i := 0; i < maxDeviceIndex; i++ {
		node := fmt.Sprintf(r.devicePattern, i)
		if !deviceAccessible(node) {
			continue
		}
		entries = append(entries, Entry{
			Label: fmt.Sprintf("Camera %d (%s)", i, node),
			Ref:   Device(i),
		})
	}
	return entries
}

// ResolveFile validates path as a video file source and returns its
// reference. The pipeline keeps ticking on whatever source it has; a bad
// path only fails this call.
func (r *Registry) ResolveFile(path string) (Ref, error) {
	if path == "" {
		return Ref{}, fmt.Errorf("%w: empty path", ErrInvalidFile)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !videoExtensions[ext] {
		return Ref{}, fmt.Errorf("%w: unsupported extension %q", ErrInvalidFile, ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if info.IsDir() {
		return Ref{}, fmt.Errorf("%w: %s is a directory", ErrInvalidFile, path)
	}

	return Ref{Kind: KindFile, Path: path}, nil
}

// deviceAccessible reports whether a device node exists and can be opened
// for reading.
func deviceAccessible(node string) bool {
	if _, err := os.Stat(node); err != nil {
		return false
	}

	f, err := os.OpenFile(node, os.O_RDONLY, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
