// Package warn defines the typed, non-fatal warning events the BLP codec
// emits while decoding or encoding. Warnings never abort a decode; they are
// delivered synchronously to a caller-supplied [Sink] so the host
// application can log, collect, or ignore them.
package warn

import "fmt"

// Kind identifies the shape of a [Warning]. It is a closed enum: every kind
// the core emits is listed here, each with a fixed tuple of scalar fields
// (see the per-kind constructors below).
type Kind int

const (
	// BadDataBuffer: an indexed mipmap's byte blob did not match the size
	// implied by its dimensions and alpha depth. Actual/Expected are byte
	// counts; the buffer was right-padded with zeros or truncated.
	BadDataBuffer Kind = iota
	// BadMipmapDimension: a decoded JPEG mipmap's dimensions did not match
	// the dimensions implied by the header. Actual/Expected are encoded as
	// width<<32 | height for compactness; use [Warning].Dimensions.
	BadMipmapDimension
	// BadPixelAlpha: a JPEG mipmap declared opaque (alphaBits==0) decoded
	// with non-opaque pixels. Actual is the count of non-opaque samples,
	// Expected is the total pixel count.
	BadPixelAlpha
	// BadJpegHeader: the shared JPEG header prelude exceeded the 624-byte
	// soft ceiling. Actual is the declared length, Expected is the ceiling.
	BadJpegHeader
	// JpegDecoderWarning: the external JPEG decoder reported a non-fatal
	// problem. Message carries the decoder's text, Vendor its provider name.
	JpegDecoderWarning
	// JpegEncoderWarning: the external JPEG encoder reported a non-fatal
	// problem. Message carries the encoder's text, Vendor its provider name.
	JpegEncoderWarning
	// MipmapMissing: an external-variant sidecar file above level 0 was
	// absent. The level is reported absent; decoding of other levels
	// proceeds. A missing level 0 is fatal and never reaches the sink.
	MipmapMissing
)

func (k Kind) String() string {
	switch k {
	case BadDataBuffer:
		return "BAD_DATA_BUFFER"
	case BadMipmapDimension:
		return "BAD_MIPMAP_DIMENSION"
	case BadPixelAlpha:
		return "BAD_PIXEL_ALPHA"
	case BadJpegHeader:
		return "BAD_JPEG_HEADER"
	case JpegDecoderWarning:
		return "JPEG_DECODER_WARNING"
	case JpegEncoderWarning:
		return "JPEG_ENCODER_WARNING"
	case MipmapMissing:
		return "MIPMAP_MISSING"
	default:
		return "UNKNOWN_WARNING"
	}
}

// Warning is a single non-fatal event raised during decode or encode.
// Only the fields relevant to Kind are populated; see the constructors.
type Warning struct {
	Kind        Kind
	MipmapIndex int

	Actual   int64
	Expected int64

	Vendor  string
	Message string
}

// Dimensions decodes Actual/Expected as packed (width,height) pairs, valid
// only for [BadMipmapDimension] warnings.
func (w Warning) Dimensions() (actualW, actualH, expectedW, expectedH int) {
	actualW, actualH = int(w.Actual>>32), int(w.Actual&0xffffffff)
	expectedW, expectedH = int(w.Expected>>32), int(w.Expected&0xffffffff)
	return
}

func (w Warning) String() string {
	switch w.Kind {
	case BadDataBuffer:
		return fmt.Sprintf("%s: mipmap %d: buffer is %d bytes, expected %d", w.Kind, w.MipmapIndex, w.Actual, w.Expected)
	case BadMipmapDimension:
		aw, ah, ew, eh := w.Dimensions()
		return fmt.Sprintf("%s: mipmap %d: decoded %dx%d, expected %dx%d", w.Kind, w.MipmapIndex, aw, ah, ew, eh)
	case BadPixelAlpha:
		return fmt.Sprintf("%s: mipmap %d: %d/%d pixels non-opaque in an opaque-declared image", w.Kind, w.MipmapIndex, w.Actual, w.Expected)
	case BadJpegHeader:
		return fmt.Sprintf("%s: shared header is %d bytes, soft limit %d", w.Kind, w.Actual, w.Expected)
	case JpegDecoderWarning, JpegEncoderWarning:
		return fmt.Sprintf("%s: mipmap %d: [%s] %s", w.Kind, w.MipmapIndex, w.Vendor, w.Message)
	case MipmapMissing:
		return fmt.Sprintf("%s: mipmap %d: sidecar file absent", w.Kind, w.MipmapIndex)
	default:
		return w.Kind.String()
	}
}

// BadDataBufferWarning builds a [BadDataBuffer] warning.
func BadDataBufferWarning(mipmapIndex, actual, expected int) Warning {
	return Warning{Kind: BadDataBuffer, MipmapIndex: mipmapIndex, Actual: int64(actual), Expected: int64(expected)}
}

// BadMipmapDimensionWarning builds a [BadMipmapDimension] warning.
func BadMipmapDimensionWarning(mipmapIndex, actualW, actualH, expectedW, expectedH int) Warning {
	return Warning{
		Kind:        BadMipmapDimension,
		MipmapIndex: mipmapIndex,
		Actual:      int64(actualW)<<32 | int64(uint32(actualH)),
		Expected:    int64(expectedW)<<32 | int64(uint32(expectedH)),
	}
}

// BadPixelAlphaWarning builds a [BadPixelAlpha] warning.
func BadPixelAlphaWarning(mipmapIndex, nonOpaque, total int) Warning {
	return Warning{Kind: BadPixelAlpha, MipmapIndex: mipmapIndex, Actual: int64(nonOpaque), Expected: int64(total)}
}

// BadJpegHeaderWarning builds a [BadJpegHeader] warning.
func BadJpegHeaderWarning(actual, limit int) Warning {
	return Warning{Kind: BadJpegHeader, Actual: int64(actual), Expected: int64(limit)}
}

// JpegDecoderWarningEvent builds a [JpegDecoderWarning] warning.
func JpegDecoderWarningEvent(mipmapIndex int, vendor, message string) Warning {
	return Warning{Kind: JpegDecoderWarning, MipmapIndex: mipmapIndex, Vendor: vendor, Message: message}
}

// JpegEncoderWarningEvent builds a [JpegEncoderWarning] warning.
func JpegEncoderWarningEvent(mipmapIndex int, vendor, message string) Warning {
	return Warning{Kind: JpegEncoderWarning, MipmapIndex: mipmapIndex, Vendor: vendor, Message: message}
}

// MipmapMissingWarning builds a [MipmapMissing] warning.
func MipmapMissingWarning(mipmapIndex int) Warning {
	return Warning{Kind: MipmapMissing, MipmapIndex: mipmapIndex}
}

// Sink receives warnings as they are raised. Implementations must be safe
// to call synchronously from the goroutine driving the codec; the core
// never calls a Sink concurrently with itself.
type Sink interface {
	Warn(w Warning)
}

// SinkFunc adapts a plain function to the [Sink] interface.
type SinkFunc func(Warning)

// Warn implements [Sink].
func (f SinkFunc) Warn(w Warning) { f(w) }

// Nop is a [Sink] that discards every warning.
var Nop Sink = SinkFunc(func(Warning) {})

// Collect returns a [Sink] that appends every warning to *dst.
func Collect(dst *[]Warning) Sink {
	return SinkFunc(func(w Warning) {
		*dst = append(*dst, w)
	})
}
