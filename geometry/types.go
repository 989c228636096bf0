// Package geometry holds the pure rectangle math the cropper is built on.
//
// All values live in image space: pixels at the natural scale of the
// (rotated) image. Unconstrained bounds are expressed with infinities, so a
// Limits side of -Inf/+Inf or a SizeRestrictions maximum of +Inf never
// restricts anything. Nothing in this package logs, allocates shared state or
// returns errors; degenerate input yields degenerate but finite output.
package geometry

import (
	"encoding/json"
	"math"
)

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is a position in image space.
type Point struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

// Coordinates is an axis-aligned rectangle. It is used both for the crop
// rectangle and for the visible area.
type Coordinates struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (c Coordinates) Right() float64  { return c.Left + c.Width }
func (c Coordinates) Bottom() float64 { return c.Top + c.Height }
func (c Coordinates) Size() Size      { return Size{Width: c.Width, Height: c.Height} }
func (c Coordinates) Position() Point { return Point{Left: c.Left, Top: c.Top} }

// Rect builds coordinates from a position and a size.
func Rect(p Point, s Size) Coordinates {
	return Coordinates{Left: p.Left, Top: p.Top, Width: s.Width, Height: s.Height}
}

// MoveDirections is a translation request.
type MoveDirections struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

// Directions holds one delta per edge. Positive values grow the rectangle
// outward on that side.
type Directions struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Intersections is the positive overshoot of a rectangle past each side of
// a Limits box.
type Intersections = Directions

func (d *Directions) edge(e Edges) *float64 {
	switch e {
	case EdgeLeft:
		return &d.Left
	case EdgeTop:
		return &d.Top
	case EdgeRight:
		return &d.Right
	default:
		return &d.Bottom
	}
}

// Edges is a set of rectangle sides.
type Edges uint8

const (
	EdgeLeft Edges = 1 << iota
	EdgeTop
	EdgeRight
	EdgeBottom

	AllEdges        = EdgeLeft | EdgeTop | EdgeRight | EdgeBottom
	HorizontalEdges = EdgeLeft | EdgeRight
	VerticalEdges   = EdgeTop | EdgeBottom
)

var edgeOrder = [...]Edges{EdgeLeft, EdgeTop, EdgeRight, EdgeBottom}

func (e Edges) Has(edge Edges) bool { return e&edge == edge }

// Limits is a box a rectangle's edges have to stay within. Use -Inf/+Inf
// for sides without a constraint. The zero value constrains nothing, the
// same as NoLimits; a box collapsed to the origin is not expressible.
type Limits struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// NoLimits returns a box that constrains nothing.
func NoLimits() Limits {
	return Limits{
		Left:   math.Inf(-1),
		Top:    math.Inf(-1),
		Right:  math.Inf(1),
		Bottom: math.Inf(1),
	}
}

func (l Limits) orNone() Limits {
	if l == (Limits{}) {
		return NoLimits()
	}
	return l
}

type limitsJSON struct {
	Left   *float64 `json:"left,omitempty"`
	Top    *float64 `json:"top,omitempty"`
	Right  *float64 `json:"right,omitempty"`
	Bottom *float64 `json:"bottom,omitempty"`
}

// MarshalJSON omits unconstrained sides.
func (l Limits) MarshalJSON() ([]byte, error) {
	return json.Marshal(limitsJSON{
		Left:   finite(l.Left),
		Top:    finite(l.Top),
		Right:  finite(l.Right),
		Bottom: finite(l.Bottom),
	})
}

// UnmarshalJSON treats absent sides as unconstrained.
func (l *Limits) UnmarshalJSON(data []byte) error {
	var raw limitsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = NoLimits()
	if raw.Left != nil {
		l.Left = *raw.Left
	}
	if raw.Top != nil {
		l.Top = *raw.Top
	}
	if raw.Right != nil {
		l.Right = *raw.Right
	}
	if raw.Bottom != nil {
		l.Bottom = *raw.Bottom
	}
	return nil
}

// SizeRestrictions bounds a rectangle's width and height. A maximum of +Inf
// means unbounded, and so does a zero or negative one: the zero value
// restricts nothing.
type SizeRestrictions struct {
	MinWidth  float64
	MinHeight float64
	MaxWidth  float64
	MaxHeight float64
}

// NoSizeRestrictions returns the 0/Inf defaults.
func NoSizeRestrictions() SizeRestrictions {
	return SizeRestrictions{MaxWidth: math.Inf(1), MaxHeight: math.Inf(1)}
}

type sizeRestrictionsJSON struct {
	MinWidth  float64  `json:"minWidth"`
	MinHeight float64  `json:"minHeight"`
	MaxWidth  *float64 `json:"maxWidth,omitempty"`
	MaxHeight *float64 `json:"maxHeight,omitempty"`
}

func (r SizeRestrictions) MarshalJSON() ([]byte, error) {
	return json.Marshal(sizeRestrictionsJSON{
		MinWidth:  r.MinWidth,
		MinHeight: r.MinHeight,
		MaxWidth:  finite(r.MaxWidth),
		MaxHeight: finite(r.MaxHeight),
	})
}

func (r *SizeRestrictions) UnmarshalJSON(data []byte) error {
	var raw sizeRestrictionsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = NoSizeRestrictions()
	r.MinWidth, r.MinHeight = raw.MinWidth, raw.MinHeight
	if raw.MaxWidth != nil {
		r.MaxWidth = *raw.MaxWidth
	}
	if raw.MaxHeight != nil {
		r.MaxHeight = *raw.MaxHeight
	}
	return nil
}

// AspectRatio is a band of acceptable width/height ratios. A non-positive
// Minimum or a non-positive or infinite Maximum leaves that side open, so
// the zero value accepts any ratio.
type AspectRatio struct {
	Minimum float64 `json:"minimum,omitempty"`
	Maximum float64 `json:"maximum,omitempty"`
}

// FixedRatio returns a band that admits exactly r.
func FixedRatio(r float64) AspectRatio { return AspectRatio{Minimum: r, Maximum: r} }

// Min returns the lower bound, 0 when open.
func (a AspectRatio) Min() float64 {
	if a.Minimum > 0 && !math.IsInf(a.Minimum, 0) {
		return a.Minimum
	}
	return 0
}

// Max returns the upper bound, +Inf when open.
func (a AspectRatio) Max() float64 {
	if a.Maximum > 0 {
		return a.Maximum
	}
	return math.Inf(1)
}

// Flip is the mirroring part of Transforms.
type Flip struct {
	Horizontal bool `json:"horizontal"`
	Vertical   bool `json:"vertical"`
}

// Transforms is the cumulative image transform. Rotate is in degrees and is
// never normalized.
type Transforms struct {
	Rotate float64 `json:"rotate"`
	Flip   Flip    `json:"flip"`
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
