package model

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Frame names a decorative frame variant.
type Frame string

const (
	FrameHearts  Frame = "hearts"
	FrameRoses   Frame = "roses"
	FrameClassic Frame = "classic"
	FrameElegant Frame = "elegant"
	FrameVintage Frame = "vintage"
)

// DefaultFrame is applied when a memory is added without one.
const DefaultFrame = FrameHearts

// Frames lists every frame in display order.
var Frames = []Frame{FrameHearts, FrameRoses, FrameClassic, FrameElegant, FrameVintage}

// FrameStyle is the static display configuration of a frame.
type FrameStyle struct {
	Name   string `yaml:"name" json:"name"`
	Color  string `yaml:"color" json:"color"`
	Icon   string `yaml:"icon" json:"icon"`
	Border string `yaml:"border" json:"border"`
	Emoji  string `yaml:"emoji,omitempty" json:"emoji,omitempty"`
}

//go:embed frames.yaml
var framesYAML []byte

var frameStyles = mustParseFrames(framesYAML)

func mustParseFrames(b []byte) map[Frame]FrameStyle {
	styles, err := ParseFrames(b)
	if err != nil {
		panic(err)
	}
	return styles
}

// ParseFrames decodes a frame catalog and checks it covers every frame.
func ParseFrames(b []byte) (map[Frame]FrameStyle, error) {
	var styles map[Frame]FrameStyle
	if err := yaml.Unmarshal(b, &styles); err != nil {
		return nil, fmt.Errorf("parse frames: %w", err)
	}
	for _, f := range Frames {
		st, ok := styles[f]
		if !ok {
			return nil, fmt.Errorf("frame %q missing from catalog", f)
		}
		switch st.Border {
		case "solid", "dashed", "dotted":
		default:
			return nil, fmt.Errorf("frame %q: invalid border %q", f, st.Border)
		}
	}
	return styles, nil
}

// Valid reports whether f is a known frame.
func (f Frame) Valid() bool {
	_, ok := frameStyles[f]
	return ok
}

// Style returns the display configuration of f.
func (f Frame) Style() (FrameStyle, bool) {
	st, ok := frameStyles[f]
	return st, ok
}

// ParseFrame resolves a user-supplied frame id. Empty means DefaultFrame.
func ParseFrame(s string) (Frame, error) {
	if s == "" {
		return DefaultFrame, nil
	}
	f := Frame(s)
	if !f.Valid() {
		return "", fmt.Errorf("%w: unknown frame %q", ErrInvalid, s)
	}
	return f, nil
}
