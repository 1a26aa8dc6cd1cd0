// Package generator runs a single QR code request end to end: validation,
// encoding, rendering in every format, the optional logo and naming.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openclaw/instantqr/logo"
	"github.com/openclaw/instantqr/qrgen"
	"github.com/openclaw/instantqr/store"
)

// DefaultLogoRatio is used when a logo is given without a ratio.
const DefaultLogoRatio = 0.2

// Request describes one QR code to generate.
type Request struct {
	Text    string
	Options qrgen.Options

	// Logo holds encoded image bytes; empty means no logo.
	Logo []byte
	// LogoRatio is the fraction of the QR width taken by the logo.
	LogoRatio float64
	// LogoBackground puts the logo on an opaque white tile.
	LogoBackground bool
}

// Result is a generated QR code in every format.
type Result struct {
	ID           string
	Text         string
	FilenameBase string
	Timestamp    string
	CreatedAt    time.Time
	Version      int
	Level        qrgen.Level
	Artifacts    qrgen.Artifacts
	// Warnings are non-fatal problems, such as a logo that could not be
	// applied.
	Warnings []string
}

// Filename returns the download name of the document in format f.
func (r *Result) Filename(f qrgen.Format) string {
	return Filename(r.FilenameBase, r.Timestamp, f)
}

// Entry converts r for the history store.
func (r *Result) Entry() *store.Entry {
	return &store.Entry{
		ID:           r.ID,
		Text:         r.Text,
		FilenameBase: r.FilenameBase,
		Timestamp:    r.Timestamp,
		CreatedAt:    r.CreatedAt,
		Version:      r.Version,
		Level:        r.Level.String(),
		PNG:          r.Artifacts.PNG,
		SVG:          r.Artifacts.SVG,
		PDF:          r.Artifacts.PDF,
	}
}

// Service generates QR codes and records them in History when it is set.
type Service struct {
	History store.Store
	Log     *slog.Logger

	// Now and NewID are replaceable for tests.
	Now   func() time.Time
	NewID func() string
}

// NewService returns a Service recording into history, which may be nil.
func NewService(history store.Store, log *slog.Logger) *Service {
	return &Service{
		History: history,
		Log:     log,
		Now:     time.Now,
		NewID:   func() string { return uuid.NewString() },
	}
}

// Generate renders req and saves the result to the history.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	res, err := s.Render(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.History != nil {
		if err := s.History.Save(ctx, res.Entry()); err != nil {
			return nil, fmt.Errorf("record history: %w", err)
		}
	}
	return res, nil
}

// Render produces the documents for req without touching the history.
// Empty text fails with qrgen.ErrEmptyText before any work is done. A logo
// that cannot be applied is reported in Result.Warnings and the plain PNG
// is kept.
func (s *Service) Render(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, qrgen.ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sym, warnings, err := qrgen.Encode(req.Text, req.Options)
	if err != nil {
		return nil, err
	}
	artifacts, err := qrgen.RenderAll(sym, req.Options)
	if err != nil {
		return nil, err
	}

	if len(req.Logo) > 0 {
		ratio := req.LogoRatio
		if ratio == 0 {
			ratio = DefaultLogoRatio
		}
		outcome := logo.Apply(artifacts.PNG, req.Logo, ratio, req.LogoBackground)
		if !outcome.Applied() {
			s.logger().Warn("logo not applied", "error", outcome.Err)
			warnings = append(warnings, outcome.Warning())
		}
		artifacts.PNG = outcome.PNG
	}

	now := s.Now()
	res := &Result{
		ID:           s.NewID(),
		Text:         req.Text,
		FilenameBase: Sanitize(req.Text),
		Timestamp:    Timestamp(now),
		CreatedAt:    now,
		Version:      sym.Version,
		Level:        sym.Level,
		Artifacts:    *artifacts,
		Warnings:     warnings,
	}
	s.logger().Debug("qr generated",
		"id", res.ID,
		"text_len", len(req.Text),
		"version", sym.Version,
		"level", sym.Level.String(),
		"png_bytes", len(artifacts.PNG),
	)
	return res, nil
}

func (s *Service) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}
