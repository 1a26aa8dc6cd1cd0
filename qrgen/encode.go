package qrgen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
	"rsc.io/qr/coding"
)

// ErrCapacity is returned when the text does not fit the requested version
// and error correction level.
var ErrCapacity = errors.New("qrgen: content does not fit")

// WarnMicroUnavailable is reported when Micro QR was requested. Neither
// encoder produces Micro QR symbols, so a regular symbol is generated.
const WarnMicroUnavailable = "micro QR is not available, generated a regular QR code"

// Symbol is an encoded QR code without quiet zone.
type Symbol struct {
	// Modules is indexed [y][x]; true means a dark module.
	Modules [][]bool
	Version int
	Level   Level
	Mask    Choice
}

// Size returns the number of modules per side.
func (s *Symbol) Size() int { return len(s.Modules) }

// Dark reports whether the module at (x, y) is dark. Coordinates outside
// the symbol are light.
func (s *Symbol) Dark(x, y int) bool {
	if y < 0 || y >= len(s.Modules) || x < 0 || x >= len(s.Modules[y]) {
		return false
	}
	return s.Modules[y][x]
}

// Encode builds the symbol for text. The returned warnings are non-fatal
// notes for the user.
func Encode(text string, opts Options) (*Symbol, []string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, ErrEmptyText
	}
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}

	var warnings []string
	if opts.Micro {
		warnings = append(warnings, WarnMicroUnavailable)
	}

	sym, err := encodeAt(text, opts.Level, opts.Version, opts.Mask)
	if err != nil {
		return nil, warnings, err
	}

	if opts.BoostError {
		// Raise the level as long as the symbol keeps its version.
		for level := opts.Level + 1; level <= H; level++ {
			boosted, err := encodeAt(text, level, Fixed(sym.Version), opts.Mask)
			if err != nil {
				break
			}
			sym = boosted
		}
	}
	return sym, warnings, nil
}

func encodeAt(text string, level Level, version, mask Choice) (*Symbol, error) {
	if m, ok := mask.Value(); ok {
		return encodePlan(text, level, version, m)
	}
	return encodeSkip2(text, level, version)
}

// encodeSkip2 lets go-qrcode pick the mask with the lowest penalty.
func encodeSkip2(text string, level Level, version Choice) (*Symbol, error) {
	var (
		q   *qrcode.QRCode
		err error
	)
	if v, ok := version.Value(); ok {
		q, err = qrcode.NewWithForcedVersion(text, v, level.recoveryLevel())
	} else {
		q, err = qrcode.New(text, level.recoveryLevel())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCapacity, err)
	}
	q.DisableBorder = true

	return &Symbol{
		Modules: q.Bitmap(),
		Version: q.VersionNumber,
		Level:   level,
		Mask:    Auto(),
	}, nil
}

// encodePlan builds the symbol with a fixed mask pattern.
func encodePlan(text string, level Level, version Choice, mask int) (*Symbol, error) {
	enc := planEncoding(text)
	l := level.codingLevel()

	var v coding.Version
	if n, ok := version.Value(); ok {
		v = coding.Version(n)
	} else {
		for v = coding.MinVersion; ; v++ {
			if v > coding.MaxVersion {
				return nil, fmt.Errorf("%w: %d bytes at level %s", ErrCapacity, len(text), level)
			}
			if enc.Bits(v) <= v.DataBytes(l)*8 {
				break
			}
		}
	}

	plan, err := coding.NewPlan(v, l, coding.Mask(mask))
	if err != nil {
		return nil, fmt.Errorf("qrgen: plan version %d mask %d: %w", int(v), mask, err)
	}
	code, err := plan.Encode(enc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCapacity, err)
	}

	modules := make([][]bool, code.Size)
	for y := range modules {
		row := make([]bool, code.Size)
		for x := range row {
			row[x] = code.Black(x, y)
		}
		modules[y] = row
	}

	return &Symbol{
		Modules: modules,
		Version: int(v),
		Level:   level,
		Mask:    Fixed(mask),
	}, nil
}

// planEncoding picks the most compact segment mode for text.
func planEncoding(text string) coding.Encoding {
	switch {
	case coding.Num(text).Check() == nil:
		return coding.Num(text)
	case coding.Alpha(text).Check() == nil:
		return coding.Alpha(text)
	default:
		return coding.String(text)
	}
}

func (l Level) recoveryLevel() qrcode.RecoveryLevel {
	switch l {
	case L:
		return qrcode.Low
	case Q:
		return qrcode.High
	case H:
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

func (l Level) codingLevel() coding.Level {
	switch l {
	case L:
		return coding.L
	case Q:
		return coding.Q
	case H:
		return coding.H
	default:
		return coding.M
	}
}
