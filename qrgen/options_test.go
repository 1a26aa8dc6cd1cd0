package qrgen

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("q")
	require.NoError(t, err)
	assert.Equal(t, Q, l)

	_, err = ParseLevel("x")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "level", verr.Field)
}

func TestChoiceJSON(t *testing.T) {
	var opts struct {
		Version Choice `json:"version"`
		Mask    Choice `json:"mask"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"version": 7, "mask": "auto"}`), &opts))
	v, ok := opts.Version.Value()
	assert.True(t, ok)
	assert.Equal(t, 7, v)
	assert.True(t, opts.Mask.IsAuto())

	require.NoError(t, json.Unmarshal([]byte(`{"version": "12", "mask": null}`), &opts))
	v, _ = opts.Version.Value()
	assert.Equal(t, 12, v)
	assert.True(t, opts.Mask.IsAuto())

	out, err := json.Marshal(opts)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version": 12, "mask": "auto"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"version": "big"}`), &opts))
}

func TestOptionsYAML(t *testing.T) {
	opts := DefaultOptions()
	doc := `
level: h
version: 3
mask: auto
dark: "#336699"
scale: 10
`
	require.NoError(t, yaml.Unmarshal([]byte(doc), &opts))
	assert.Equal(t, H, opts.Level)
	v, ok := opts.Version.Value()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.True(t, opts.Mask.IsAuto())
	assert.Equal(t, Color{R: 0x33, G: 0x66, B: 0x99, A: 0xff}, opts.Dark)
	assert.Equal(t, 10, opts.Scale)
	assert.Equal(t, 4, opts.Border, "unset fields keep their defaults")
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#abc")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 0xaa, G: 0xbb, B: 0xcc, A: 0xff}, c)

	c, err = ParseColor("11223344")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 0x11, G: 0x22, B: 0x33, A: 0x44}, c)
	assert.Equal(t, "#11223344", c.Hex())

	_, err = ParseColor("#12")
	assert.Error(t, err)
	_, err = ParseColor("#gggggg")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())

	tests := []struct {
		name  string
		edit  func(*Options)
		field string
	}{
		{"version too high", func(o *Options) { o.Version = Fixed(41) }, "version"},
		{"version zero", func(o *Options) { o.Version = Fixed(0) }, "version"},
		{"mask too high", func(o *Options) { o.Mask = Fixed(8) }, "mask"},
		{"scale zero", func(o *Options) { o.Scale = 0 }, "scale"},
		{"border negative", func(o *Options) { o.Border = -1 }, "border"},
		{"border too wide", func(o *Options) { o.Border = 21 }, "border"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.edit(&opts)
			var verr *ValidationError
			require.ErrorAs(t, opts.Validate(), &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
