package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openclaw/instantqr/config"
	"github.com/openclaw/instantqr/generator"
	"github.com/openclaw/instantqr/qrgen"
)

// qrFlags are the encoding and logo options shared by generate and batch.
// Flags left unset fall back to the configured defaults.
type qrFlags struct {
	level       string
	version     string
	mask        string
	scale       int
	border      int
	dark        string
	light       string
	transparent bool
	micro       bool
	boost       bool
	logo        string
	logoPercent int
	logoPlain   bool
}

func (f *qrFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.level, "level", "M", "Error correction level (L, M, Q, H)")
	fs.StringVar(&f.version, "version", "auto", "Symbol version 1-40 or auto")
	fs.StringVar(&f.mask, "mask", "auto", "Mask pattern 0-7 or auto")
	fs.IntVar(&f.scale, "scale", 6, "Pixels per module")
	fs.IntVar(&f.border, "border", 4, "Quiet zone in modules")
	fs.StringVar(&f.dark, "dark", "#000000", "Dark module colour")
	fs.StringVar(&f.light, "light", "#FFFFFF", "Light module colour")
	fs.BoolVar(&f.transparent, "transparent", false, "Transparent PNG background")
	fs.BoolVar(&f.micro, "micro", false, "Request a Micro QR symbol")
	fs.BoolVar(&f.boost, "boost", false, "Raise error correction while the version allows")
	fs.StringVar(&f.logo, "logo", "", "Logo image to place in the PNG")
	fs.IntVar(&f.logoPercent, "logo-percent", 20, "Logo size in percent of the QR width (10-30)")
	fs.BoolVar(&f.logoPlain, "logo-no-background", false, "Do not put the logo on a white tile")
}

// request builds a generation request without text from cfg's defaults and
// the flags the user set.
func (f *qrFlags) request(cmd *cobra.Command, cfg *config.Config) (generator.Request, error) {
	opts := cfg.Defaults.QR
	percent := cfg.Defaults.LogoPercent
	changed := cmd.Flags().Changed
	var err error

	if changed("level") {
		if opts.Level, err = qrgen.ParseLevel(f.level); err != nil {
			return generator.Request{}, err
		}
	}
	if changed("version") {
		if opts.Version, err = qrgen.ParseChoice(f.version); err != nil {
			return generator.Request{}, fmt.Errorf("invalid --version: %w", err)
		}
	}
	if changed("mask") {
		if opts.Mask, err = qrgen.ParseChoice(f.mask); err != nil {
			return generator.Request{}, fmt.Errorf("invalid --mask: %w", err)
		}
	}
	if changed("scale") {
		opts.Scale = f.scale
	}
	if changed("border") {
		opts.Border = f.border
	}
	if changed("dark") {
		if opts.Dark, err = qrgen.ParseColor(f.dark); err != nil {
			return generator.Request{}, err
		}
	}
	if changed("light") {
		if opts.Light, err = qrgen.ParseColor(f.light); err != nil {
			return generator.Request{}, err
		}
	}
	if changed("transparent") {
		opts.Transparent = f.transparent
	}
	if changed("micro") {
		opts.Micro = f.micro
	}
	if changed("boost") {
		opts.BoostError = f.boost
	}
	if changed("logo-percent") {
		percent = f.logoPercent
	}
	if err := opts.Validate(); err != nil {
		return generator.Request{}, err
	}
	if percent < config.MinLogoPercent || percent > config.MaxLogoPercent {
		return generator.Request{}, fmt.Errorf("--logo-percent must be between %d and %d", config.MinLogoPercent, config.MaxLogoPercent)
	}

	req := generator.Request{
		Options:        opts,
		LogoRatio:      float64(percent) / 100,
		LogoBackground: !f.logoPlain,
	}
	if f.logo != "" {
		if req.Logo, err = os.ReadFile(f.logo); err != nil {
			return generator.Request{}, fmt.Errorf("read logo: %w", err)
		}
	}
	return req, nil
}
