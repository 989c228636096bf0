package cropper

import (
	"fmt"
	"math"

	"cropkit/geometry"
)

// Setting is a configuration value that is either a literal or derived from
// the current state. The zero value is unset.
type Setting[T any] struct {
	value T
	fn    func(State, Settings) T
	set   bool
}

// Static returns a literal setting.
func Static[T any](v T) Setting[T] {
	return Setting[T]{value: v, set: true}
}

// Computed returns a setting derived from the state each time it is read.
func Computed[T any](fn func(State, Settings) T) Setting[T] {
	return Setting[T]{fn: fn, set: fn != nil}
}

func (s Setting[T]) IsSet() bool { return s.set }

// Resolve returns the value for state, or fallback when unset.
func (s Setting[T]) Resolve(state State, settings Settings, fallback T) T {
	switch {
	case !s.set:
		return fallback
	case s.fn != nil:
		return s.fn(state, settings)
	default:
		return s.value
	}
}

// ImageRestriction controls how far the visible area may pan and zoom
// relative to the image, and whether the crop rectangle must stay on the
// image.
type ImageRestriction int

const (
	// FitArea lets the visible area zoom out until the whole image fits in
	// one dimension.
	FitArea ImageRestriction = iota
	// FillArea keeps the visible area entirely on the image.
	FillArea
	// StencilRestriction keeps only the crop rectangle on the image.
	StencilRestriction
	// NoRestriction lets both rectangles leave the image.
	NoRestriction
)

var imageRestrictionNames = map[ImageRestriction]string{
	FitArea:            "fit_area",
	FillArea:           "fill_area",
	StencilRestriction: "stencil",
	NoRestriction:      "none",
}

func (r ImageRestriction) String() string {
	if s, ok := imageRestrictionNames[r]; ok {
		return s
	}
	return fmt.Sprintf("ImageRestriction(%d)", int(r))
}

func (r ImageRestriction) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *ImageRestriction) UnmarshalText(text []byte) error {
	for k, v := range imageRestrictionNames {
		if v == string(text) {
			*r = k
			return nil
		}
	}
	switch string(text) {
	case "fitArea":
		*r = FitArea
	case "fillArea":
		*r = FillArea
	case "":
		*r = FitArea
	default:
		return fmt.Errorf("unknown image restriction %q", text)
	}
	return nil
}

// Priority selects which rectangle CreateState computes first.
type Priority int

const (
	PriorityCoordinates Priority = iota
	PriorityVisibleArea
)

func (p Priority) String() string {
	if p == PriorityVisibleArea {
		return "visible_area"
	}
	return "coordinates"
}

func (p Priority) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Priority) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "coordinates":
		*p = PriorityCoordinates
	case "visible_area", "visibleArea":
		*p = PriorityVisibleArea
	default:
		return fmt.Errorf("unknown priority %q", text)
	}
	return nil
}

// Settings configures the restrictions and defaults of a cropper.
type Settings struct {
	// AspectRatio bounds the crop rectangle's width/height.
	AspectRatio Setting[geometry.AspectRatio]
	// SizeRestrictions bounds the crop rectangle before it is limited by
	// the image.
	SizeRestrictions Setting[geometry.SizeRestrictions]
	ImageRestriction ImageRestriction
	// StencilSize is the display size the crop rectangle is kept at by
	// StencilAutoZoom.
	StencilSize Setting[geometry.Size]

	DefaultSize        Setting[geometry.Size]
	DefaultPosition    Setting[geometry.Point]
	DefaultVisibleArea Setting[geometry.Coordinates]
	// DefaultSizeFraction is the share of the available area the default
	// crop rectangle covers. Zero means 0.8.
	DefaultSizeFraction float64

	// AdjustStencil lets zoom gestures keep zooming the visible area alone
	// once the crop rectangle has hit its own limits.
	AdjustStencil bool
}

// PixelsRestriction is a static size restriction in image pixels.
func PixelsRestriction(r geometry.SizeRestrictions) Setting[geometry.SizeRestrictions] {
	return Static(r)
}

// PercentsRestriction interprets r as percents of the transformed image
// size. Infinite maximums stay unbounded.
func PercentsRestriction(r geometry.SizeRestrictions) Setting[geometry.SizeRestrictions] {
	return Computed(func(s State, _ Settings) geometry.SizeRestrictions {
		image := TransformedImageSize(s)
		return geometry.SizeRestrictions{
			MinWidth:  percentOf(r.MinWidth, image.Width),
			MinHeight: percentOf(r.MinHeight, image.Height),
			MaxWidth:  percentOf(r.MaxWidth, image.Width),
			MaxHeight: percentOf(r.MaxHeight, image.Height),
		}
	})
}

func percentOf(v, of float64) float64 {
	if math.IsInf(v, 0) {
		return v
	}
	return v / 100 * of
}

func (s Settings) defaultSizeFraction() float64 {
	if s.DefaultSizeFraction > 0 && s.DefaultSizeFraction <= 1 {
		return s.DefaultSizeFraction
	}
	return 0.8
}
