// Package cropper maintains the geometric state of an interactive crop
// editor: a boundary (the viewport), an image, the part of the image
// visible through the boundary and the crop rectangle inside it.
//
// Every operation takes a State snapshot and returns a new one. Snapshots
// are never modified in place, so callers can keep the previous one around
// for undo or diffing.
package cropper

import "cropkit/geometry"

// State is an immutable snapshot of the cropper geometry. VisibleArea and
// Coordinates share the image space of the rotated image; either may be nil
// while the cropper is not initialized (for example before the image has
// loaded).
type State struct {
	Boundary    geometry.Size         `json:"boundary"`
	ImageSize   geometry.Size         `json:"imageSize"`
	Transforms  geometry.Transforms   `json:"transforms"`
	VisibleArea *geometry.Coordinates `json:"visibleArea"`
	Coordinates *geometry.Coordinates `json:"coordinates"`
}

// Initialized reports whether both rectangles are present.
func (s State) Initialized() bool {
	return s.VisibleArea != nil && s.Coordinates != nil
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	return edit(s).snapshot()
}

// draft is the working copy an operation owns while it runs. It is built
// once from the input snapshot, mutated freely and turned back into a fresh
// snapshot at the end, so no rectangle is ever shared between snapshots.
type draft struct {
	boundary       geometry.Size
	imageSize      geometry.Size
	transforms     geometry.Transforms
	visibleArea    geometry.Coordinates
	coordinates    geometry.Coordinates
	hasVisibleArea bool
	hasCoordinates bool
}

func edit(s State) *draft {
	d := &draft{
		boundary:   s.Boundary,
		imageSize:  s.ImageSize,
		transforms: s.Transforms,
	}
	if s.VisibleArea != nil {
		d.visibleArea, d.hasVisibleArea = *s.VisibleArea, true
	}
	if s.Coordinates != nil {
		d.coordinates, d.hasCoordinates = *s.Coordinates, true
	}
	return d
}

func (d *draft) setVisibleArea(c geometry.Coordinates) {
	d.visibleArea, d.hasVisibleArea = c, true
}

func (d *draft) setCoordinates(c geometry.Coordinates) {
	d.coordinates, d.hasCoordinates = c, true
}

func (d *draft) snapshot() State {
	s := State{
		Boundary:   d.boundary,
		ImageSize:  d.imageSize,
		Transforms: d.transforms,
	}
	if d.hasVisibleArea {
		va := d.visibleArea
		s.VisibleArea = &va
	}
	if d.hasCoordinates {
		c := d.coordinates
		s.Coordinates = &c
	}
	return s
}

// TransformedImageSize is the bounding box of the rotated image, the extent
// of the image space.
func TransformedImageSize(s State) geometry.Size {
	return geometry.RotateSize(s.ImageSize, s.Transforms.Rotate)
}

// imageBounds is the transformed image as a rectangle at the origin.
func imageBounds(s State) geometry.Coordinates {
	return geometry.Rect(geometry.Point{}, TransformedImageSize(s))
}

// Coefficient converts boundary (display) pixels into image space.
func Coefficient(s State) float64 {
	if s.VisibleArea == nil || s.Boundary.Width == 0 {
		return 1
	}
	return s.VisibleArea.Width / s.Boundary.Width
}
