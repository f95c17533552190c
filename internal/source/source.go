package source

import "fmt"

// Kind identifies what a source reference points at.
type Kind int

const (
	// KindNone means no source is selected; the acquirer releases its
	// handle and the pipeline shows the placeholder.
	KindNone Kind = iota
	// KindDevice is a physical capture device addressed by index.
	KindDevice
	// KindFile is a previously resolved video file.
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindDevice:
		return "device"
	case KindFile:
		return "file"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Ref is a tagged source reference. It replaces the reserved-integer
// convention (-1 "no source", -2 "file") used by earlier revisions of the
// source menu: the variant itself says which fields are meaningful.
type Ref struct {
	Kind  Kind
	Index int    // device index, valid when Kind == KindDevice
	Path  string // file path, valid when Kind == KindFile
}

// None returns the "no source selected" reference.
func None() Ref {
	return Ref{Kind: KindNone}
}

// Device returns a reference to the capture device with the given index.
func Device(index int) Ref {
	return Ref{Kind: KindDevice, Index: index}
}

func (r Ref) String() string {
	switch r.Kind {
	case KindDevice:
		return fmt.Sprintf("device %d", r.Index)
	case KindFile:
		return fmt.Sprintf("file %s", r.Path)
	default:
		return "no source"
	}
}

// Entry pairs a menu label with its source reference. The presentation
// layer renders labels; the core only ever sees the Ref.
type Entry struct {
	Label string
	Ref   Ref
}
