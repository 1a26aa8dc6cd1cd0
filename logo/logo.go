// Package logo places a logo in the middle of a rendered QR code.
//
// The logo is contain-fitted into a square whose side is a fraction of the
// QR image width, optionally backed by an opaque white tile, and blended
// onto the QR image with source-over alpha compositing. Output images keep
// the dimensions of the QR image; pixels outside the logo footprint are
// left untouched.
package logo

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var (
	ErrEmpty        = errors.New("logo has no pixels")
	ErrInvalidRatio = errors.New("ratio must be in (0, 1]")
	ErrTooSmall     = errors.New("QR image too small for a logo at this ratio")
)

// ProcessingError is returned for every failure of the logo pipeline.
// Callers are expected to fall back to the unmodified QR image.
type ProcessingError struct {
	Op  string
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("logo processing failed: %s: %v", e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Decode reads a PNG, JPEG, GIF, WebP or BMP logo.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &ProcessingError{Op: "decode", Err: ErrEmpty}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &ProcessingError{Op: "decode", Err: err}
	}
	if img.Bounds().Empty() {
		return nil, &ProcessingError{Op: "decode", Err: ErrEmpty}
	}
	return img, nil
}

// Composite returns a copy of qr with logo centred on it. ratio is the
// share of the QR width the logo's longer side occupies. When
// addBackground is set the logo sits on an opaque white tile padded by
// max(4, target/20) pixels on each side.
func Composite(qr, logo image.Image, ratio float64, addBackground bool) (*image.NRGBA, error) {
	if !(ratio > 0 && ratio <= 1) {
		return nil, &ProcessingError{Op: "composite", Err: ErrInvalidRatio}
	}
	if logo == nil || logo.Bounds().Empty() {
		return nil, &ProcessingError{Op: "composite", Err: ErrEmpty}
	}

	base := toNRGBA(qr)
	w, h := base.Bounds().Dx(), base.Bounds().Dy()

	target := int(math.Floor(float64(w) * ratio))
	if target < 1 {
		return nil, &ProcessingError{Op: "composite", Err: ErrTooSmall}
	}

	fitted := ContainFit(toNRGBA(logo), target)
	if addBackground {
		fitted = withBackground(fitted, padding(target))
	}

	at := image.Pt((w-fitted.Bounds().Dx())/2, (h-fitted.Bounds().Dy())/2)
	overlay(base, fitted, at)
	return base, nil
}

// CompositePNG decodes both images, composites them and encodes the result
// as PNG.
func CompositePNG(qrPNG, logoData []byte, ratio float64, addBackground bool) ([]byte, error) {
	qr, err := png.Decode(bytes.NewReader(qrPNG))
	if err != nil {
		return nil, &ProcessingError{Op: "decode qr", Err: err}
	}
	logo, err := Decode(logoData)
	if err != nil {
		return nil, err
	}
	out, err := Composite(qr, logo, ratio, addBackground)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, &ProcessingError{Op: "encode", Err: err}
	}
	return buf.Bytes(), nil
}

// ContainFit scales img so its longer side equals box, keeping the aspect
// ratio. The shorter side is rounded and never drops below one pixel.
func ContainFit(img *image.NRGBA, box int) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	nw, nh := box, box
	switch {
	case w > h:
		nh = max(1, int(math.Round(float64(h)/float64(w)*float64(box))))
	case h > w:
		nw = max(1, int(math.Round(float64(w)/float64(h)*float64(box))))
	}
	if nw == w && nh == h {
		return img
	}
	return toNRGBA(resize.Resize(uint(nw), uint(nh), img, resize.Lanczos3))
}

func padding(target int) int {
	return max(4, target/20)
}

// withBackground pastes img onto an opaque white tile, using img's alpha
// as the mask.
func withBackground(img *image.NRGBA, pad int) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	tile := image.NewNRGBA(image.Rect(0, 0, w+2*pad, h+2*pad))
	draw.Draw(tile, tile.Bounds(), image.NewUniform(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}), image.Point{}, draw.Src)
	draw.Draw(tile, image.Rect(pad, pad, pad+w, pad+h), img, img.Bounds().Min, draw.Over)
	return tile
}

// overlay blends src over dst with its top-left corner at at. Both images
// hold straight (non-premultiplied) alpha. Parts of src falling outside dst
// are clipped.
func overlay(dst, src *image.NRGBA, at image.Point) {
	area := src.Bounds().Sub(src.Bounds().Min).Add(at).Intersect(dst.Bounds())
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			s := src.NRGBAAt(x-at.X+src.Bounds().Min.X, y-at.Y+src.Bounds().Min.Y)
			switch s.A {
			case 0:
				continue
			case 0xff:
				dst.SetNRGBA(x, y, s)
				continue
			}
			dst.SetNRGBA(x, y, sourceOver(s, dst.NRGBAAt(x, y)))
		}
	}
}

func sourceOver(s, d color.NRGBA) color.NRGBA {
	sa := uint32(s.A)
	da := uint32(d.A) * (0xff - sa) / 0xff
	oa := sa + da
	blend := func(sc, dc uint8) uint8 {
		return uint8((uint32(sc)*sa + uint32(dc)*da + oa/2) / oa)
	}
	return color.NRGBA{
		R: blend(s.R, d.R),
		G: blend(s.G, d.G),
		B: blend(s.B, d.B),
		A: uint8(oa),
	}
}

// toNRGBA returns a fresh NRGBA copy of img with its origin at (0, 0).
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		// Straight copy keeps the colour of fully transparent pixels.
		for y := 0; y < b.Dy(); y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+4*b.Dx()], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return out
	}
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
