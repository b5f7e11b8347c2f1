// Package processor implements the two mipmap payload processors,
// IndexedProcessor and JpegProcessor, behind one tagged-variant
// interface. There is no deeper hierarchy: a codec session holds exactly
// one processor, selected by the stream's encoding kind.
package processor

import (
	"errors"
	"image"

	"github.com/gowc3/blp/warn"
)

// ErrPaletteRequired signals an indexed encode with no palette to
// quantize against. Every processor this package constructs carries a
// palette (caller-supplied, adopted, or the fallback cube), so the
// error is part of the vocabulary for substitute processor
// implementations rather than something the built-in paths return.
var ErrPaletteRequired = errors.New("processor: encoding requires a palette")

// ErrExternalJpeg wraps any error returned by the external JPEG codec
// boundary (C4's explicitly out-of-scope collaborator).
var ErrExternalJpeg = errors.New("processor: external jpeg codec error")

// Kind distinguishes the two processor variants a Decoder/Encoder
// session may be configured with.
type Kind int

const (
	KindIndexed Kind = iota
	KindJpeg
)

// EncodeOptions carries the per-write-session parameters a Processor's
// Encode needs. JpegQuality is in [0,1]; zero selects the processor's own
// quality. DeepCheck is carried through, but neither built-in processor's
// Encode reads it.
type EncodeOptions struct {
	JpegQuality float64
	DeepCheck   bool
}

// Processor owns one stream's payload interpretation: it consumes and
// emits the processor prelude (palette block or shared JPEG header) and
// converts each mipmap level between payload bytes and an image.
// Indexed and Jpeg are its two variants; callers type-switch on Kind()
// only when they need variant-specific behavior (e.g. supplying a
// palette).
type Processor interface {
	Kind() Kind

	// ReadPrelude consumes the processor's serialized prelude (palette
	// block or JPEG shared header) from the front of data and returns
	// the number of bytes consumed. Soft violations are reported to sink
	// as warnings; hard violations are returned as errors.
	ReadPrelude(data []byte, sink warn.Sink) (int, error)

	// WritePrelude encodes the processor's current prelude state.
	WritePrelude() []byte

	// Decode turns mipmap level's payload bytes into an image, given the
	// level's expected dimensions.
	Decode(level, w, h int, payload []byte, sink warn.Sink, deepCheck bool) (image.Image, error)

	// Encode normalizes and compresses every supplied level, returning
	// one payload per level in the same order. It also updates the
	// processor's prelude state (palette adoption, shared JPEG header)
	// as a side effect, to be retrieved afterward via WritePrelude.
	Encode(levels []image.Image, opts EncodeOptions) ([][]byte, error)
}
