package qr

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
)

const (
	DefaultSize            = 256
	DefaultDark            = "#000000"
	DefaultLight           = "#FFFFFF"
	DefaultErrorCorrection = "H"

	MinSize = 64
	MaxSize = 2048
)

// Options controls how a payload is rendered. Zero values take the defaults.
type Options struct {
	Size            int    `json:"size,omitempty" yaml:"size"`
	Dark            string `json:"dark,omitempty" yaml:"dark"`
	Light           string `json:"light,omitempty" yaml:"light"`
	ErrorCorrection string `json:"errorCorrection,omitempty" yaml:"error_correction"`
}

// WithDefaults fills unset fields.
func (o Options) WithDefaults() Options {
	if o.Size == 0 {
		o.Size = DefaultSize
	}
	if strings.TrimSpace(o.Dark) == "" {
		o.Dark = DefaultDark
	}
	if strings.TrimSpace(o.Light) == "" {
		o.Light = DefaultLight
	}
	if strings.TrimSpace(o.ErrorCorrection) == "" {
		o.ErrorCorrection = DefaultErrorCorrection
	}
	return o
}

// Validate reports whether the options (after defaults) can be rendered.
func (o Options) Validate() error {
	_, err := o.compile()
	return err
}

type compiled struct {
	size  int
	dark  color.Color
	light color.Color
	level qrcode.RecoveryLevel
}

func (o Options) compile() (compiled, error) {
	o = o.WithDefaults()

	if o.Size < MinSize || o.Size > MaxSize {
		return compiled{}, fmt.Errorf("%w: size must be between %d and %d", domain.ErrInvalidRenderOptions, MinSize, MaxSize)
	}

	dark, err := ParseHexColor(o.Dark)
	if err != nil {
		return compiled{}, fmt.Errorf("%w: dark color: %v", domain.ErrInvalidRenderOptions, err)
	}
	light, err := ParseHexColor(o.Light)
	if err != nil {
		return compiled{}, fmt.Errorf("%w: light color: %v", domain.ErrInvalidRenderOptions, err)
	}

	level, err := parseLevel(o.ErrorCorrection)
	if err != nil {
		return compiled{}, err
	}

	return compiled{size: o.Size, dark: dark, light: light, level: level}, nil
}

func parseLevel(s string) (qrcode.RecoveryLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L":
		return qrcode.Low, nil
	case "M":
		return qrcode.Medium, nil
	case "Q":
		return qrcode.High, nil
	case "H":
		return qrcode.Highest, nil
	default:
		return 0, fmt.Errorf("%w: error correction must be one of L, M, Q, H", domain.ErrInvalidRenderOptions)
	}
}

// ParseHexColor parses #RGB, #RRGGBB or #RRGGBBAA (the leading # is optional).
func ParseHexColor(s string) (color.Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")

	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]}) + "ff"
	case 6:
		h += "ff"
	case 8:
	default:
		return nil, fmt.Errorf("invalid hex color %q", s)
	}

	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid hex color %q", s)
	}

	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}
