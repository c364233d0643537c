// ABOUTME: Visual settings for the frame synthesizer
// ABOUTME: Style enum, RGB color parsing and boundary validation
package synth

import (
	"fmt"
	"strconv"
	"strings"
)

// Style selects the drawing algorithm
type Style int

const (
	Bars Style = iota
	Wave
	Circle
)

// Styles lists every style in cycle order
var Styles = []Style{Bars, Wave, Circle}

func (s Style) String() string {
	switch s {
	case Bars:
		return "bars"
	case Wave:
		return "wave"
	case Circle:
		return "circle"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

// Valid reports whether s is one of the enumerated styles
func (s Style) Valid() bool {
	return s >= Bars && s <= Circle
}

// Next returns the following style, wrapping around
func (s Style) Next() Style {
	return Styles[(int(s)+1)%len(Styles)]
}

// ParseStyle parses a style name
func ParseStyle(name string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bars":
		return Bars, nil
	case "wave":
		return Wave, nil
	case "circle":
		return Circle, nil
	default:
		return 0, &InvalidSettingsError{Field: "style", Value: name, Reason: "must be one of bars, wave, circle"}
	}
}

// Color is an opaque RGB color
type Color struct {
	R, G, B uint8
}

// Hex formats the color as #rrggbb
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string { return c.Hex() }

// ParseColor parses #rrggbb or #rgb
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return Color{}, &InvalidSettingsError{Field: "color", Value: s, Reason: "must be #rrggbb or #rgb"}
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, &InvalidSettingsError{Field: "color", Value: s, Reason: "must be #rrggbb or #rgb", Err: err}
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

const (
	MinSensitivity = 2
	MaxSensitivity = 12
	// BaseSensitivity leaves amplitudes unscaled
	BaseSensitivity = 8
)

// Settings are the per-tick visual parameters
type Settings struct {
	Style       Style
	Color       Color
	Sensitivity int
}

// DefaultSettings returns red bars at baseline sensitivity
func DefaultSettings() Settings {
	return Settings{
		Style:       Bars,
		Color:       Color{R: 0xef, G: 0x44, B: 0x44},
		Sensitivity: BaseSensitivity,
	}
}

// Validate rejects unknown styles and out-of-range sensitivity
func (s Settings) Validate() error {
	if !s.Style.Valid() {
		return &InvalidSettingsError{Field: "style", Value: s.Style.String(), Reason: "must be one of bars, wave, circle"}
	}
	if s.Sensitivity < MinSensitivity || s.Sensitivity > MaxSensitivity {
		return &InvalidSettingsError{
			Field:  "sensitivity",
			Value:  strconv.Itoa(s.Sensitivity),
			Reason: fmt.Sprintf("must be between %d and %d", MinSensitivity, MaxSensitivity),
		}
	}
	return nil
}

// ParseSettings builds validated Settings from boundary values
func ParseSettings(style, color string, sensitivity int) (Settings, error) {
	st, err := ParseStyle(style)
	if err != nil {
		return Settings{}, err
	}
	c, err := ParseColor(color)
	if err != nil {
		return Settings{}, err
	}
	s := Settings{Style: st, Color: c, Sensitivity: sensitivity}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// gain is the sensitivity scale factor
func (s Settings) gain() float32 {
	return float32(s.Sensitivity) / BaseSensitivity
}

// InvalidSettingsError rejects a settings value at the boundary
type InvalidSettingsError struct {
	Field  string
	Value  string
	Reason string
	Err    error
}

func (e *InvalidSettingsError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidSettingsError) Unwrap() error { return e.Err }
