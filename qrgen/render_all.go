package qrgen

// Artifacts holds one rendered document per format.
type Artifacts struct {
	PNG []byte
	SVG []byte
	PDF []byte
}

// Get returns the document for f, or nil for an unknown format.
func (a *Artifacts) Get(f Format) []byte {
	switch f {
	case FormatPNG:
		return a.PNG
	case FormatSVG:
		return a.SVG
	case FormatPDF:
		return a.PDF
	}
	return nil
}

// RenderAll renders sym in every format.
func RenderAll(sym *Symbol, opts Options) (*Artifacts, error) {
	pngData, err := RenderPNG(sym, opts)
	if err != nil {
		return nil, err
	}
	svgData, err := RenderSVG(sym, opts)
	if err != nil {
		return nil, err
	}
	pdfData, err := RenderPDF(sym, opts)
	if err != nil {
		return nil, err
	}
	return &Artifacts{PNG: pngData, SVG: svgData, PDF: pdfData}, nil
}
