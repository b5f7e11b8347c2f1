// Command blpconv converts between BLP textures and PNG images from the
// command line.
//
// Usage:
//
//	blpconv enc [options] <input.png>   PNG → BLP
//	blpconv dec [options] <input.blp>   BLP → PNG
//	blpconv info <input.blp>            Display BLP header metadata
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gowc3/blp"
	"github.com/gowc3/blp/warn"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "enc":
		err = runEnc(os.Args[2:])
	case "dec":
		err = runDec(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "blpconv: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "blpconv: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  blpconv enc [options] <input.png>   Encode PNG to BLP
  blpconv dec [options] <input.blp>   Decode BLP to PNG
  blpconv info <input.blp>            Display BLP header metadata

Run "blpconv <command> -h" for command-specific options.
`)
}

// --- enc ---

func runEnc(args []string) error {
	fs := flag.NewFlagSet("enc", flag.ContinueOnError)
	version := fs.String("version", "blp1", "container version: blp0 or blp1")
	encoding := fs.String("encoding", "indexed", "payload encoding: indexed or jpeg")
	alphaBits := fs.Int("alpha", 8, "alpha bits: indexed accepts 0/1/4/8, jpeg accepts 0/8")
	quality := fs.Float64("q", 0.9, "jpeg quality 0-1 (ignored for indexed)")
	automip := fs.Bool("mipmaps", true, "derive the full mipmap pyramid by area averaging")
	dimOpt := fs.String("dim", "none", "dimension optimization: none, ratio, or clamp")
	maxDim := fs.Int("maxdim", blp.DefaultMaxDimension, "max dimension for ratio/clamp")
	output := fs.String("o", "", "output path (default: <input>.blp)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("enc: missing input file\nUsage: blpconv enc [options] <input.png>")
	}
	inputPath := fs.Arg(0)

	ver, err := parseVersion(*version)
	if err != nil {
		return err
	}
	enc, err := parseEncoding(*encoding)
	if err != nil {
		return err
	}
	dim, err := parseDimensionOpt(*dimOpt)
	if err != nil {
		return err
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("enc: decoding input: %w", err)
	}

	e, err := blp.NewEncoder(ver, enc, *alphaBits, blp.EncoderOptions{
		DimensionOpt: dim,
		MaxDimension: *maxDim,
		AutoMipmap:   *automip,
		JpegQuality:  *quality,
	})
	if err != nil {
		return fmt.Errorf("enc: %w", err)
	}

	if *output == "" {
		base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		*output = base + ".blp"
	}

	if err := e.WriteSingleFile(*output, img); err != nil {
		return fmt.Errorf("enc: %w", err)
	}

	fi, statErr := os.Stat(*output)
	if statErr == nil {
		fmt.Fprintf(os.Stderr, "Encoded %s -> %s (%d bytes)\n", inputPath, *output, fi.Size())
	} else {
		fmt.Fprintf(os.Stderr, "Encoded %s -> %s\n", inputPath, *output)
	}
	return nil
}

func parseVersion(s string) (blp.Version, error) {
	switch strings.ToLower(s) {
	case "blp0":
		return blp.VersionBLP0, nil
	case "blp1":
		return blp.VersionBLP1, nil
	default:
		return 0, fmt.Errorf("enc: unknown version %q (use blp0/blp1)", s)
	}
}

func parseEncoding(s string) (blp.EncodingKind, error) {
	switch strings.ToLower(s) {
	case "indexed":
		return blp.EncodingIndexed, nil
	case "jpeg":
		return blp.EncodingJpeg, nil
	default:
		return 0, fmt.Errorf("enc: unknown encoding %q (use indexed/jpeg)", s)
	}
}

func parseDimensionOpt(s string) (blp.DimensionOpt, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return blp.DimensionNone, nil
	case "ratio":
		return blp.DimensionRatio, nil
	case "clamp":
		return blp.DimensionClamp, nil
	default:
		return 0, fmt.Errorf("enc: unknown dim mode %q (use none/ratio/clamp)", s)
	}
}

// --- dec ---

func runDec(args []string) error {
	fs := flag.NewFlagSet("dec", flag.ContinueOnError)
	level := fs.Int("level", 0, "mipmap level to decode (0 = full scale)")
	output := fs.String("o", "", `output path (default: <input>.png, "-" for stdout)`)
	deepCheck := fs.Bool("deep-check", true, "scan opaque-alpha JPEG mipmaps for non-opaque pixels")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("dec: missing input file\nUsage: blpconv dec [options] <input.blp>")
	}
	inputPath := fs.Arg(0)

	dec, err := blp.NewDecoderFile(inputPath)
	if err != nil {
		return fmt.Errorf("dec: %w", err)
	}
	dec.SetDeepCheck(*deepCheck)
	dec.SetWarningSink(warn.SinkFunc(func(w warn.Warning) {
		fmt.Fprintf(os.Stderr, "blpconv: %s: %s\n", inputPath, w.String())
	}))

	img, err := dec.Read(*level)
	if err != nil {
		return fmt.Errorf("dec: %w", err)
	}
	if img == nil {
		return fmt.Errorf("dec: mipmap level %d is absent", *level)
	}

	outputPath := *output
	if outputPath == "" {
		base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		outputPath = base + ".png"
	}

	var w io.Writer
	if outputPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("dec: encoding png: %w", err)
	}
	if outputPath != "-" {
		fmt.Fprintf(os.Stderr, "Decoded %s -> %s\n", inputPath, outputPath)
	}
	return nil
}

// --- info ---

func runInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("info: missing input file\nUsage: blpconv info <input.blp>")
	}
	inputPath := args[0]

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}

	feat, err := blp.GetFeatures(data)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}

	fmt.Printf("File:       %s\n", inputPath)
	fmt.Printf("Version:    %s\n", feat.Version)
	fmt.Printf("Encoding:   %s\n", feat.Encoding)
	fmt.Printf("Alpha bits: %d\n", feat.AlphaBits)
	fmt.Printf("Dimensions: %d x %d\n", feat.Width, feat.Height)
	fmt.Printf("Mipmaps:    %v (%d levels)\n", feat.HasMipmaps, feat.MipmapCount)

	if feat.MipmapCount > 1 {
		dec, err := blp.NewDecoderFile(inputPath)
		if err == nil {
			fmt.Println("Level dimensions:")
			for i := 0; i < feat.MipmapCount; i++ {
				w, h, err := dec.Dimensions(i)
				if err != nil {
					continue
				}
				fmt.Printf("  [%d] %d x %d\n", i, w, h)
			}
		}
	}

	fi, err := os.Stat(inputPath)
	if err == nil {
		fmt.Printf("File size:  %d bytes\n", fi.Size())
	}
	return nil
}
