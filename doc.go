// Package blp provides a pure Go encoder and decoder for the Blizzard
// Picture (BLP) texture format used by Warcraft III: BLP0 (external
// mipmap sidecar files) and BLP1 (internal mipmap directory). BLP2, the
// World of Warcraft successor format, is explicitly unsupported.
//
// A BLP file carries an 8-bit palettised payload with optional sub-byte
// alpha, or a JPEG payload sharing one header prefix across every
// mipmap level. This package implements the full container and mipmap
// pipeline for both.
//
// Basic usage for decoding:
//
//	dec, err := blp.NewDecoder(data)
//	img, err := dec.Read(0) // full-scale image
//
// Basic usage for encoding:
//
//	enc, err := blp.NewEncoder(blp.VersionBLP1, blp.EncodingIndexed, 8, blp.EncoderOptions{})
//	err = enc.WriteSingle(w, img)
package blp
