package qrgen

import (
	"fmt"
	"strings"
)

// Format is one of the output document kinds.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
	FormatPDF Format = "pdf"
)

// Formats lists every output format in archive order.
var Formats = []Format{FormatPNG, FormatSVG, FormatPDF}

// ParseFormat accepts "png", "svg" or "pdf" in any case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatPNG, FormatSVG, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatSVG:
		return "image/svg+xml"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }
