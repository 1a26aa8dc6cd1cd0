package qrgen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
)

// PixelSize returns the side length in pixels of the rendered symbol,
// quiet zone included.
func PixelSize(sym *Symbol, opts Options) int {
	return (sym.Size() + 2*opts.Border) * opts.Scale
}

// RenderImage draws sym with opts.Scale pixels per module and an
// opts.Border module quiet zone. With opts.Transparent the light modules
// are fully transparent.
func RenderImage(sym *Symbol, opts Options) *image.NRGBA {
	side := PixelSize(sym, opts)
	img := image.NewNRGBA(image.Rect(0, 0, side, side))

	bg := opts.Light.NRGBA()
	if opts.Transparent {
		bg = color.NRGBA{}
	}
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	fg := image.NewUniform(opts.Dark.NRGBA())
	s, b := opts.Scale, opts.Border
	darkRuns(sym, func(x, y, run int) {
		r := image.Rect((x+b)*s, (y+b)*s, (x+b+run)*s, (y+b+1)*s)
		draw.Draw(img, r, fg, image.Point{}, draw.Src)
	})
	return img
}

// RenderPNG encodes RenderImage as PNG.
func RenderPNG(sym *Symbol, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, RenderImage(sym, opts)); err != nil {
		return nil, fmt.Errorf("qrgen: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// darkRuns calls fn for every horizontal run of dark modules.
func darkRuns(sym *Symbol, fn func(x, y, length int)) {
	for y := 0; y < sym.Size(); y++ {
		for x := 0; x < sym.Size(); {
			if !sym.Dark(x, y) {
				x++
				continue
			}
			run := 1
			for sym.Dark(x+run, y) {
				run++
			}
			fn(x, y, run)
			x += run
		}
	}
}
