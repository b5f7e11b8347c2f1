package blp

import (
	"errors"

	"github.com/gowc3/blp/internal/container"
	"github.com/gowc3/blp/internal/palette"
	"github.com/gowc3/blp/internal/processor"
	"github.com/gowc3/blp/internal/sample"
	"github.com/gowc3/blp/mux"
)

// Error kinds returned by the codec, per the abstract error-kind set the
// format's error handling is designed around. Unrecoverable corruption
// (bad magic, impossible alphaBits, premature end of stream) surfaces as
// one of these; recoverable corruption surfaces as a [warn.Warning]
// instead and decoding proceeds. These are aliases of the package-level
// sentinels that actually originate the errors, so errors.Is works the
// same whether callers check against blp.ErrX or the internal package's
// own ErrX.
var (
	ErrUnsupportedMagic    = container.ErrUnsupportedMagic
	ErrUnsupportedVersion  = container.ErrUnsupportedVersion
	ErrUnsupportedEncoding = container.ErrUnsupportedEncoding
	ErrUnsupportedAlpha    = container.ErrUnsupportedAlpha

	ErrInvalidDimensions  = container.ErrInvalidDimensions
	ErrInvalidMipmapIndex = mux.ErrInvalidLevel
	ErrInvalidCoord       = sample.ErrInvalidCoord
	ErrNoAlphaBand        = sample.ErrNoAlphaBand

	// ErrMipmapMissing is returned by Decoder.Read for a missing level 0
	// sidecar of the external (BLP0) variant and for a zero-size
	// directory entry of the internal (BLP1) variant at any level. A
	// missing BLP0 sidecar above level 0 is not returned as an error:
	// Read emits a MipmapMissing warning and returns (nil, nil).
	ErrMipmapMissing = mux.ErrMipmapMissing

	ErrEndOfStream = container.ErrTruncated

	ErrExternalJpeg = processor.ErrExternalJpeg

	ErrPaletteRequired = processor.ErrPaletteRequired
	ErrTooManyColors   = palette.ErrTooManyColors

	// ErrExternalPathRequired is returned when a Decoder constructed from
	// raw bytes (not NewDecoderFile) tries to read a mipmap of an
	// external (BLP0) stream: sidecar files can only be located relative
	// to a filesystem path.
	ErrExternalPathRequired = errors.New("blp: external (BLP0) variant requires NewDecoderFile for mipmap access")
)
