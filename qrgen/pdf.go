package qrgen

import (
	"bytes"
	"fmt"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/document"
	"seehuhn.de/go/pdf/graphics/color"
)

// RenderPDF produces a single page vector PDF. One module measures
// opts.Scale points, so the page has the same nominal size as the PNG at
// 72 dpi. Transparency is not applied to PDF output.
func RenderPDF(sym *Symbol, opts Options) ([]byte, error) {
	side := float64(PixelSize(sym, opts))
	paper := &pdf.Rectangle{URx: side, URy: side}

	var buf bytes.Buffer
	page, err := document.WriteSinglePage(&buf, paper, pdf.V1_7, nil)
	if err != nil {
		return nil, fmt.Errorf("qrgen: create pdf: %w", err)
	}

	page.SetFillColor(deviceRGB(opts.Light))
	page.Rectangle(0, 0, side, side)
	page.Fill()

	// PDF user space starts bottom-left; module rows count from the top.
	s, b := float64(opts.Scale), opts.Border
	painted := false
	page.SetFillColor(deviceRGB(opts.Dark))
	darkRuns(sym, func(x, y, run int) {
		top := side - float64(y+b)*s
		page.Rectangle(float64(x+b)*s, top-s, float64(run)*s, s)
		painted = true
	})
	if painted {
		page.Fill()
	}

	if err := page.Close(); err != nil {
		return nil, fmt.Errorf("qrgen: write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func deviceRGB(c Color) color.DeviceRGB {
	return color.DeviceRGB{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}
}
