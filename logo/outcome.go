package logo

// Outcome is the result of Apply. PNG is always a usable image: the
// composited one on success, the untouched QR image when Err is set.
type Outcome struct {
	PNG []byte
	Err error
}

// Applied reports whether the logo made it into PNG.
func (o Outcome) Applied() bool { return o.Err == nil }

// Warning returns a user facing message for a failed outcome, or "".
func (o Outcome) Warning() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Apply composites logoData onto qrPNG and falls back to qrPNG on any
// failure.
func Apply(qrPNG, logoData []byte, ratio float64, addBackground bool) Outcome {
	out, err := CompositePNG(qrPNG, logoData, ratio, addBackground)
	if err != nil {
		return Outcome{PNG: qrPNG, Err: err}
	}
	return Outcome{PNG: out}
}
