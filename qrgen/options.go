// Package qrgen turns text into QR symbols and renders them as PNG, SVG and
// PDF documents. Symbol encoding is delegated to github.com/skip2/go-qrcode
// and, when a fixed mask pattern is requested, to rsc.io/qr/coding.
package qrgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Level is a QR error correction level.
type Level int

const (
	L Level = iota // ~7% recovery
	M              // ~15% recovery
	Q              // ~25% recovery
	H              // ~30% recovery
)

var levelNames = [...]string{"L", "M", "Q", "H"}

func (l Level) String() string {
	if l < L || l > H {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel parses "l", "m", "q" or "h" (any case).
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Level(i), nil
		}
	}
	return 0, &ValidationError{Field: "level", Reason: fmt.Sprintf("unknown error correction level %q", s)}
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Choice is either automatic or a fixed non-negative number. It is used for
// the symbol version and the mask pattern, which the encoder picks by itself
// unless told otherwise.
type Choice struct {
	n     int
	fixed bool
}

// Auto lets the encoder decide.
func Auto() Choice { return Choice{} }

// Fixed pins the value to n.
func Fixed(n int) Choice { return Choice{n: n, fixed: true} }

// IsAuto reports whether c leaves the decision to the encoder.
func (c Choice) IsAuto() bool { return !c.fixed }

// Value returns the fixed value and true, or 0 and false for Auto.
func (c Choice) Value() (int, bool) { return c.n, c.fixed }

func (c Choice) String() string {
	if !c.fixed {
		return "auto"
	}
	return strconv.Itoa(c.n)
}

// ParseChoice accepts "auto" (or an empty string) and decimal numbers.
func ParseChoice(s string) (Choice, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "auto") {
		return Auto(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Choice{}, fmt.Errorf("invalid choice %q: expected \"auto\" or a number", s)
	}
	return Fixed(n), nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Choice) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Choice) UnmarshalText(b []byte) error {
	parsed, err := ParseChoice(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalJSON writes Auto as "auto" and fixed values as numbers.
func (c Choice) MarshalJSON() ([]byte, error) {
	if !c.fixed {
		return []byte(`"auto"`), nil
	}
	return []byte(strconv.Itoa(c.n)), nil
}

// UnmarshalJSON accepts "auto", a numeric string, a number or null.
func (c *Choice) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*c = Auto()
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return c.UnmarshalText([]byte(s))
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid choice %s", b)
	}
	*c = Fixed(n)
	return nil
}

// Limits accepted by Options.Validate.
const (
	MinVersion = 1
	MaxVersion = 40
	MaxMask    = 7
	MinScale   = 1
	MaxScale   = 40
	MaxBorder  = 20
)

// Options is the full set of encoding and rendering parameters.
type Options struct {
	Level       Level  `json:"level" yaml:"level"`
	Micro       bool   `json:"micro" yaml:"micro"`
	Version     Choice `json:"version" yaml:"version"`
	Mask        Choice `json:"mask" yaml:"mask"`
	BoostError  bool   `json:"boost_error" yaml:"boost_error"`
	Scale       int    `json:"scale" yaml:"scale"`
	Border      int    `json:"border" yaml:"border"`
	Dark        Color  `json:"dark" yaml:"dark"`
	Light       Color  `json:"light" yaml:"light"`
	Transparent bool   `json:"transparent" yaml:"transparent"`
}

// DefaultOptions returns level M, automatic version and mask, 6 px modules,
// a 4 module quiet zone and black on white.
func DefaultOptions() Options {
	return Options{
		Level:   M,
		Version: Auto(),
		Mask:    Auto(),
		Scale:   6,
		Border:  4,
		Dark:    Color{A: 0xff},
		Light:   Color{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	}
}

// ErrEmptyText is returned when there is nothing to encode.
var ErrEmptyText = errors.New("qrgen: text is empty")

// ValidationError describes an option outside its accepted range.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("qrgen: invalid %s: %s", e.Field, e.Reason)
}

// Validate checks every field against the limits above.
func (o Options) Validate() error {
	if o.Level < L || o.Level > H {
		return &ValidationError{Field: "level", Reason: fmt.Sprintf("unknown level %d", int(o.Level))}
	}
	if v, ok := o.Version.Value(); ok && (v < MinVersion || v > MaxVersion) {
		return &ValidationError{Field: "version", Reason: fmt.Sprintf("%d is outside %d..%d", v, MinVersion, MaxVersion)}
	}
	if m, ok := o.Mask.Value(); ok && (m < 0 || m > MaxMask) {
		return &ValidationError{Field: "mask", Reason: fmt.Sprintf("%d is outside 0..%d", m, MaxMask)}
	}
	if o.Scale < MinScale || o.Scale > MaxScale {
		return &ValidationError{Field: "scale", Reason: fmt.Sprintf("%d is outside %d..%d", o.Scale, MinScale, MaxScale)}
	}
	if o.Border < 0 || o.Border > MaxBorder {
		return &ValidationError{Field: "border", Reason: fmt.Sprintf("%d is outside 0..%d", o.Border, MaxBorder)}
	}
	return nil
}
