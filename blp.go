package blp

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	pkgerrors "github.com/pkg/errors"

	"github.com/gowc3/blp/internal/container"
	"github.com/gowc3/blp/internal/jpegcodec"
	"github.com/gowc3/blp/internal/palette"
	"github.com/gowc3/blp/internal/processor"
	"github.com/gowc3/blp/internal/sample"
	"github.com/gowc3/blp/mux"
	"github.com/gowc3/blp/warn"
)

func init() {
	image.RegisterFormat("blp1", container.MagicBLP1, Decode, DecodeConfig)
	image.RegisterFormat("blp0", container.MagicBLP0, Decode, DecodeConfig)
}

// Version and EncodingKind are the header's wire-level enums, aliased
// here so callers never need to import an internal package.
type (
	Version      = container.Version
	EncodingKind = container.EncodingKind
	// Header is the parsed fixed 28-byte BLP header.
	Header = container.Header
)

const (
	VersionBLP0 = container.VersionBLP0
	VersionBLP1 = container.VersionBLP1

	EncodingJpeg    = container.EncodingJpeg
	EncodingIndexed = container.EncodingIndexed
)

// DefaultMaxDimension is the conservative default for the write-path
// dimension clamp, overridable through EncoderOptions.MaxDimension.
const DefaultMaxDimension = 512

// Decode reads a BLP image (its full-scale mipmap, level 0) from r and
// returns it as an image.Image. Only the internal (BLP1) variant can be
// fully decoded through a plain io.Reader; an external (BLP0) stream
// decodes its header and prelude but Read fails without a path — use
// [NewDecoderFile] for those.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("blp: reading data: %w", err)
	}
	dec, err := NewDecoder(data)
	if err != nil {
		return nil, err
	}
	return dec.Read(0)
}

// DecodeConfig returns the color model and dimensions of a BLP image
// without decoding any mipmap payload.
func DecodeConfig(r io.Reader) (image.Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return image.Config{}, fmt.Errorf("blp: reading data: %w", err)
	}
	h, _, err := container.ParseHeader(data)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: color.NRGBA64Model, Width: h.Width, Height: h.Height}, nil
}

// mipmapSource is the minimal capability the driver needs from either
// mipmap manager variant: fetch a level's payload, and say whether a
// missing level aborts the decode or is downgraded to a warning.
type mipmapSource interface {
	Level(i int) ([]byte, error)
	Fatal(i int) bool
}

// missingPathSource backs a Decoder constructed from raw bytes over an
// external (BLP0) stream: every mipmap lives in a sidecar file the
// Decoder has no path to locate.
type missingPathSource struct{}

func (missingPathSource) Level(int) ([]byte, error) { return nil, ErrExternalPathRequired }
func (missingPathSource) Fatal(int) bool            { return true }

// Decoder parses the header and mipmap directory once, then decodes
// mipmap levels on demand.
//
// A Decoder is not safe for concurrent use from multiple goroutines;
// construct one Decoder per goroutine if needed.
type Decoder struct {
	header    Header
	manager   mipmapSource
	proc      processor.Processor
	sink      warn.Sink
	deepCheck bool

	// pending holds warnings raised while parsing the processor prelude,
	// before the caller has had a chance to install a sink. They are
	// flushed to the sink on SetWarningSink or at the first Read.
	pending []warn.Warning
}

// NewDecoder parses the header, mipmap directory (internal variant), and
// processor prelude from data, and returns a Decoder ready to read
// mipmap levels. For the external (BLP0) variant, mipmap payloads
// require a filesystem path; use [NewDecoderFile] when data came from a
// .blp file on disk.
func NewDecoder(data []byte) (*Decoder, error) {
	return newDecoder(data, "")
}

// NewDecoderFile opens path, reading it fully into memory, and
// constructs a Decoder able to resolve BLP0 sidecar files relative to
// path. Required for any external (BLP0) variant whose mipmaps must be
// read.
func NewDecoderFile(path string) (*Decoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "blp: reading file")
	}
	return newDecoder(data, path)
}

func newDecoder(data []byte, basePath string) (*Decoder, error) {
	h, n, err := container.ParseHeader(data)
	if err != nil {
		return nil, err
	}
	pos := n

	d := &Decoder{header: h, sink: warn.Nop, deepCheck: true}

	// Prelude warnings are buffered: the caller cannot install a sink
	// until the Decoder exists.
	preludeSink := warn.Collect(&d.pending)

	switch h.Version {
	case container.VersionBLP1:
		if len(data) < pos+container.DirectorySize {
			return nil, container.ErrTruncated
		}
		dir, err := mux.ParseDirectory(data[pos:])
		if err != nil {
			return nil, err
		}
		pos += container.DirectorySize

		proc, err := newProcessor(h.Encoding, h.AlphaBits)
		if err != nil {
			return nil, err
		}
		consumed, err := proc.ReadPrelude(data[pos:], preludeSink)
		if err != nil {
			return nil, err
		}
		pos += consumed

		d.manager = mux.NewInternalManager(dir, data)
		d.proc = proc

	case container.VersionBLP0:
		proc, err := newProcessor(h.Encoding, h.AlphaBits)
		if err != nil {
			return nil, err
		}
		consumed, err := proc.ReadPrelude(data[pos:], preludeSink)
		if err != nil {
			return nil, err
		}
		pos += consumed

		if basePath == "" {
			d.manager = missingPathSource{}
		} else {
			d.manager = mux.NewExternalManager(mux.FileSidecarSource{BasePath: basePath}, h.MipmapCount())
		}
		d.proc = proc

	default:
		return nil, container.ErrUnsupportedVersion
	}

	return d, nil
}

// flushPending delivers buffered prelude warnings to the current sink.
func (d *Decoder) flushPending() {
	for _, w := range d.pending {
		d.sink.Warn(w)
	}
	d.pending = nil
}

func newProcessor(encoding container.EncodingKind, alphaBits int) (processor.Processor, error) {
	switch encoding {
	case container.EncodingIndexed:
		return processor.NewIndexedProcessor(alphaBits), nil
	case container.EncodingJpeg:
		return processor.NewJpegProcessor(jpegcodec.StdlibCodec{}, alphaBits, 0), nil
	default:
		return nil, container.ErrUnsupportedEncoding
	}
}

// Header returns the parsed fixed header.
func (d *Decoder) Header() Header { return d.header }

// MipmapCount returns the number of mipmap levels this file declares.
func (d *Decoder) MipmapCount() int { return d.header.MipmapCount() }

// Dimensions returns the (width, height) of mipmap level i.
func (d *Decoder) Dimensions(level int) (w, h int, err error) {
	if level < 0 || level >= d.MipmapCount() {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidMipmapIndex, level)
	}
	w, h = d.header.LevelDimensions(level)
	return w, h, nil
}

// SetWarningSink installs sink as the destination for non-fatal warnings
// raised during subsequent Read calls. A nil sink discards warnings.
// Warnings raised while the Decoder was constructed (oversized shared
// JPEG header) are delivered to the first sink installed.
func (d *Decoder) SetWarningSink(sink warn.Sink) {
	if sink == nil {
		sink = warn.Nop
	}
	d.sink = sink
	d.flushPending()
}

// SetDeepCheck toggles the opt-in, on-by-default per-pixel opacity scan
// for JPEG mipmaps declared alphaBits==0.
func (d *Decoder) SetDeepCheck(enabled bool) { d.deepCheck = enabled }

// Read decodes mipmap level and returns it as an image.Image. Level 0 is
// the full-scale image; levels >= 1 are thumbnails.
//
// For the external (BLP0) variant, a missing sidecar above level 0 is
// not an error: Read emits a MipmapMissing warning and returns
// (nil, nil), marking the level absent. A missing level 0 is fatal.
func (d *Decoder) Read(level int) (image.Image, error) {
	if level < 0 || level >= d.MipmapCount() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMipmapIndex, level)
	}
	d.flushPending()
	w, h := d.header.LevelDimensions(level)
	payload, err := d.manager.Level(level)
	if err != nil {
		if errors.Is(err, ErrMipmapMissing) && !d.manager.Fatal(level) {
			d.sink.Warn(warn.MipmapMissingWarning(level))
			return nil, nil
		}
		return nil, err
	}
	return d.proc.Decode(level, w, h, payload, d.sink, d.deepCheck)
}

// DimensionOpt selects the write-path dimension-optimization strategy
// applied to the caller's full-scale image before the mipmap pyramid is
// derived.
type DimensionOpt int

const (
	// DimensionNone keeps the caller's dimensions unchanged.
	DimensionNone DimensionOpt = iota
	// DimensionRatio scales both dimensions down, preserving aspect
	// ratio, until both are <= MaxDimension.
	DimensionRatio
	// DimensionClamp clamps each dimension independently to
	// [1, MaxDimension], distorting aspect ratio if needed.
	DimensionClamp
)

// EncoderOptions configures an Encoder's write behavior.
type EncoderOptions struct {
	// DimensionOpt selects the strategy applied to WriteSingle's input
	// image before mipmap generation. Ignored by WriteLevels, which
	// takes the caller's levels as-is.
	DimensionOpt DimensionOpt
	// MaxDimension overrides DefaultMaxDimension for DimensionOpt.
	MaxDimension int
	// AutoMipmap, when true, makes WriteSingle derive the full mipmap
	// pyramid by successive area averaging. When false, WriteSingle
	// emits only the one supplied level.
	AutoMipmap bool
	// JpegQuality is in [0,1]; 0 selects the processor default (0.9).
	JpegQuality float64
	// Palette, when non-nil, supplies the 256 on-disk 0x00BBGGRR words
	// for the indexed processor; otherwise the universal fallback cube
	// is used. An *image.Paletted level replaces either with its own
	// palette.
	Palette *[256]uint32
	// DeepCheck is passed to the processor's Encode. Neither built-in
	// processor scans pixels on encode; the opaque-pixel scan runs only
	// on decode (see Decoder.SetDeepCheck).
	DeepCheck bool
}

// Encoder writes images out as BLP streams or files.
type Encoder struct {
	version   Version
	encoding  EncodingKind
	alphaBits int
	opts      EncoderOptions
}

// NewEncoder validates (version, encoding, alphaBits) and returns an
// Encoder configured with opts. MaxDimension and JpegQuality fall back
// to their documented defaults when left zero.
func NewEncoder(version Version, encoding EncodingKind, alphaBits int, opts EncoderOptions) (*Encoder, error) {
	if version != VersionBLP0 && version != VersionBLP1 {
		return nil, ErrUnsupportedVersion
	}
	if !encoding.Valid() {
		return nil, ErrUnsupportedEncoding
	}
	if !encoding.AlphaBitsValid(alphaBits) {
		return nil, fmt.Errorf("%w: %d bits for %s", ErrUnsupportedAlpha, alphaBits, encoding)
	}
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = DefaultMaxDimension
	}
	if opts.JpegQuality <= 0 {
		opts.JpegQuality = 0.9
	}
	return &Encoder{version: version, encoding: encoding, alphaBits: alphaBits, opts: opts}, nil
}

func (e *Encoder) makeProcessor() (processor.Processor, error) {
	switch e.encoding {
	case EncodingIndexed:
		if e.opts.Palette != nil {
			pal, err := palette.FromWords(e.opts.Palette[:])
			if err != nil {
				return nil, err
			}
			return processor.NewIndexedProcessorWithPalette(pal, palette.ColorSpaceSRGB, e.alphaBits), nil
		}
		return processor.NewIndexedProcessor(e.alphaBits), nil
	case EncodingJpeg:
		return processor.NewJpegProcessor(jpegcodec.StdlibCodec{}, e.alphaBits, e.opts.JpegQuality), nil
	default:
		return nil, ErrUnsupportedEncoding
	}
}

// flattenToRGBA converts an arbitrary image.Image to a tightly packed
// 8-bit RGBA buffer, the common currency the dimension-optimization and
// auto-mipmap steps operate on.
func flattenToRGBA(img image.Image) (pix []byte, w, h int) {
	b := img.Bounds()
	w, h = b.Dx(), b.Dy()
	pix = make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			off := (y*w + x) * 4
			pix[off] = c.R
			pix[off+1] = c.G
			pix[off+2] = c.B
			pix[off+3] = c.A
		}
	}
	return pix, w, h
}

// applyDimensionOpt resizes (w,h,pix) per the configured strategy.
func (e *Encoder) applyDimensionOpt(w, h int, pix []byte) (int, int, []byte) {
	max := e.opts.MaxDimension
	switch e.opts.DimensionOpt {
	case DimensionRatio:
		if w <= max && h <= max {
			return w, h, pix
		}
		scale := 1.0
		if w > max {
			scale = float64(max) / float64(w)
		}
		if h > max {
			if hs := float64(max) / float64(h); hs < scale {
				scale = hs
			}
		}
		nw, nh := int(float64(w)*scale), int(float64(h)*scale)
		if nw < 1 {
			nw = 1
		}
		if nh < 1 {
			nh = 1
		}
		return nw, nh, sample.DownscaleRGBA(pix, w, h, nw, nh)

	case DimensionClamp:
		nw, nh := w, h
		if nw > max {
			nw = max
		}
		if nh > max {
			nh = max
		}
		if nw == w && nh == h {
			return w, h, pix
		}
		return nw, nh, sample.DownscaleRGBA(pix, w, h, nw, nh)

	default:
		return w, h, pix
	}
}

// buildLevels applies dimension optimization and (if enabled) derives
// the full mipmap pyramid from a single full-scale image.
//
// The level-0 entry is the caller's own img, unchanged, whenever no
// dimension optimization actually resizes it: the indexed processor
// adopts a palette from a *image.Paletted level 0, and that adoption
// only fires when level 0 keeps its original concrete type instead of
// being flattened to *image.NRGBA.
func (e *Encoder) buildLevels(img image.Image) []image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix, _, _ := flattenToRGBA(img)
	rw, rh, rpix := e.applyDimensionOpt(w, h, pix)

	base := img
	if rw != w || rh != h {
		resized := image.NewNRGBA(image.Rect(0, 0, rw, rh))
		copy(resized.Pix, rpix)
		base = resized
	}
	levels := []image.Image{base}

	if e.opts.AutoMipmap {
		cw, ch, cpix := rw, rh, rpix
		for cw > 1 || ch > 1 {
			npix, nw, nh := sample.HalveRGBA(cpix, cw, ch)
			im := image.NewNRGBA(image.Rect(0, 0, nw, nh))
			copy(im.Pix, npix)
			levels = append(levels, im)
			cw, ch, cpix = nw, nh, npix
		}
	}
	return levels
}

// assembled holds everything needed to emit a BLP stream once the
// mipmap levels have been encoded: the header, the processor prelude,
// and each level's payload in order.
type assembled struct {
	header   Header
	prelude  []byte
	payloads [][]byte
}

func (e *Encoder) assemble(levels []image.Image) (assembled, error) {
	if len(levels) == 0 {
		return assembled{}, fmt.Errorf("blp: at least one mipmap level is required")
	}

	b0 := levels[0].Bounds()
	h := Header{
		Version:    e.version,
		Encoding:   e.encoding,
		AlphaBits:  e.alphaBits,
		Width:      b0.Dx(),
		Height:     b0.Dy(),
		HasMipmaps: len(levels) > 1,
	}
	if h.Width <= 0 || h.Height <= 0 || h.Width > container.MaxDimension || h.Height > container.MaxDimension {
		return assembled{}, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, h.Width, h.Height)
	}
	if h.HasMipmaps {
		// A mipmapped stream carries the complete pyramid, each level
		// half the previous one.
		if want := h.MipmapCount(); len(levels) != want {
			return assembled{}, fmt.Errorf("blp: got %d mipmap levels for %dx%d, want %d", len(levels), h.Width, h.Height, want)
		}
		for i, lv := range levels {
			wantW, wantH := h.LevelDimensions(i)
			b := lv.Bounds()
			if b.Dx() != wantW || b.Dy() != wantH {
				return assembled{}, fmt.Errorf("blp: mipmap level %d is %dx%d, want %dx%d", i, b.Dx(), b.Dy(), wantW, wantH)
			}
		}
	}

	proc, err := e.makeProcessor()
	if err != nil {
		return assembled{}, err
	}
	payloads, err := proc.Encode(levels, processor.EncodeOptions{
		JpegQuality: e.opts.JpegQuality,
		DeepCheck:   e.opts.DeepCheck,
	})
	if err != nil {
		return assembled{}, err
	}
	return assembled{header: h, prelude: proc.WritePrelude(), payloads: payloads}, nil
}

// writeInternal emits the BLP1 layout: header, mipmap directory,
// processor prelude, then every mipmap payload back to back.
func (a assembled) writeInternal(w io.Writer) error {
	baseOffset := uint32(container.HeaderSize + container.DirectorySize + len(a.prelude))
	dir, payloadBytes := mux.BuildDirectory(a.payloads, baseOffset)

	chunks := [][]byte{a.header.Bytes(), dir.Bytes(), a.prelude, payloadBytes}
	for _, chunk := range chunks {
		if _, err := w.Write(chunk); err != nil {
			return pkgerrors.Wrap(err, "blp: writing stream")
		}
	}
	return nil
}

// writeExternal emits the BLP0 layout: a main file holding only the
// header and processor prelude, plus one sidecar file per mipmap level.
func (a assembled) writeExternal(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.Wrap(err, "blp: creating output file")
	}
	defer f.Close()

	if _, err := f.Write(a.header.Bytes()); err != nil {
		return pkgerrors.Wrap(err, "blp: writing header")
	}
	if _, err := f.Write(a.prelude); err != nil {
		return pkgerrors.Wrap(err, "blp: writing prelude")
	}
	for i, payload := range a.payloads {
		name, err := mux.SidecarName(path, i)
		if err != nil {
			return err
		}
		if err := os.WriteFile(name, payload, 0o644); err != nil {
			return pkgerrors.Wrap(err, fmt.Sprintf("blp: writing sidecar %s", name))
		}
	}
	return nil
}

// WriteSingle derives the mipmap pyramid (if AutoMipmap) from img,
// applies dimension optimization, and writes a complete BLP1 stream to
// w. The external (BLP0) variant cannot be written through a plain
// io.Writer since its mipmaps are separate files; use WriteSingleFile.
func (e *Encoder) WriteSingle(w io.Writer, img image.Image) error {
	if e.version != VersionBLP1 {
		return fmt.Errorf("blp: %s requires WriteSingleFile (external mipmap sidecars)", e.version)
	}
	levels := e.buildLevels(img)
	a, err := e.assemble(levels)
	if err != nil {
		return err
	}
	return a.writeInternal(w)
}

// WriteLevels writes levels (already one image per mipmap level, in
// ascending order) as a complete BLP1 stream to w, with no dimension
// optimization or auto-mipmap generation applied.
func (e *Encoder) WriteLevels(w io.Writer, levels []image.Image) error {
	if e.version != VersionBLP1 {
		return fmt.Errorf("blp: %s requires WriteLevelsFile (external mipmap sidecars)", e.version)
	}
	a, err := e.assemble(levels)
	if err != nil {
		return err
	}
	return a.writeInternal(w)
}

// WriteSingleFile is WriteSingle's filesystem-path counterpart, the only
// way to produce an external (BLP0) file (its mipmaps live in sidecar
// files named relative to path). Works for BLP1 too.
func (e *Encoder) WriteSingleFile(path string, img image.Image) error {
	levels := e.buildLevels(img)
	a, err := e.assemble(levels)
	if err != nil {
		return err
	}
	return e.writeAssembled(path, a)
}

// WriteLevelsFile is WriteLevels's filesystem-path counterpart.
func (e *Encoder) WriteLevelsFile(path string, levels []image.Image) error {
	a, err := e.assemble(levels)
	if err != nil {
		return err
	}
	return e.writeAssembled(path, a)
}

func (e *Encoder) writeAssembled(path string, a assembled) error {
	if e.version == VersionBLP0 {
		return a.writeExternal(path)
	}
	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.Wrap(err, "blp: creating output file")
	}
	defer f.Close()
	return a.writeInternal(f)
}
