package qrgen

import (
	"fmt"
	"strings"
)

// RenderSVG produces a standalone SVG document. Coordinates are in modules;
// width and height are set to the pixel size so the document matches the
// PNG. The background is always painted with opts.Light.
func RenderSVG(sym *Symbol, opts Options) ([]byte, error) {
	units := sym.Size() + 2*opts.Border
	side := units * opts.Scale

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	fmt.Fprintf(&sb,
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d" shape-rendering="crispEdges">`,
		units, units, side, side)
	fmt.Fprintf(&sb, `<rect width="%d" height="%d"%s/>`, units, units, svgFill(opts.Light))

	sb.WriteString(`<path d="`)
	darkRuns(sym, func(x, y, run int) {
		fmt.Fprintf(&sb, "M%d %dh%dv1h-%dz", x+opts.Border, y+opts.Border, run, run)
	})
	fmt.Fprintf(&sb, `"%s/>`, svgFill(opts.Dark))

	sb.WriteString("</svg>\n")
	return []byte(sb.String()), nil
}

func svgFill(c Color) string {
	fill := fmt.Sprintf(` fill="#%02x%02x%02x"`, c.R, c.G, c.B)
	if c.A != 0xff {
		fill += fmt.Sprintf(` fill-opacity="%.3f"`, float64(c.A)/255)
	}
	return fill
}
