package generator

import (
	"regexp"
	"strings"
	"time"

	"github.com/openclaw/instantqr/qrgen"
)

const (
	// MaxFilenameBase is the longest filename base Sanitize returns.
	MaxFilenameBase = 50
	// DefaultFilenameBase replaces names with no usable characters.
	DefaultFilenameBase = "qr_code"
	// TimestampLayout is the suffix format appended to every filename.
	TimestampLayout = "20060102_150405"
)

var (
	disallowed  = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	underscores = regexp.MustCompile(`_+`)
)

// Sanitize turns arbitrary text into a filename base made of
// [A-Za-z0-9._-] with no repeated underscores, at most 50 characters long.
func Sanitize(s string) string {
	base := disallowed.ReplaceAllString(strings.TrimSpace(s), "_")
	base = strings.Trim(underscores.ReplaceAllString(base, "_"), "_")
	if len(base) > MaxFilenameBase {
		base = base[:MaxFilenameBase]
	}
	if base == "" {
		return DefaultFilenameBase
	}
	return base
}

// Timestamp formats t as the filename suffix.
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Filename joins base, timestamp and the format extension.
func Filename(base, ts string, f qrgen.Format) string {
	return base + "_" + ts + f.Ext()
}
