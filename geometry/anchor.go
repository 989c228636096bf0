package geometry

import (
	"fmt"
	"strings"
)

// Anchor is a resize handle on the crop rectangle, named by compass
// direction.
type Anchor int

const (
	North Anchor = iota + 1
	South
	East
	West
	NorthEast
	NorthWest
	SouthEast
	SouthWest
)

type anchorSpec struct {
	name string
	// edges follow the pointer.
	edges Edges
	// fixed is the point that stays in place, as fractions of the width
	// and height.
	fixedX, fixedY float64
}

var anchors = map[Anchor]anchorSpec{
	North:     {name: "north", edges: EdgeTop, fixedX: 0.5, fixedY: 1},
	South:     {name: "south", edges: EdgeBottom, fixedX: 0.5, fixedY: 0},
	East:      {name: "east", edges: EdgeRight, fixedX: 0, fixedY: 0.5},
	West:      {name: "west", edges: EdgeLeft, fixedX: 1, fixedY: 0.5},
	NorthEast: {name: "northEast", edges: EdgeTop | EdgeRight, fixedX: 0, fixedY: 1},
	NorthWest: {name: "northWest", edges: EdgeTop | EdgeLeft, fixedX: 1, fixedY: 1},
	SouthEast: {name: "southEast", edges: EdgeBottom | EdgeRight, fixedX: 0, fixedY: 0},
	SouthWest: {name: "southWest", edges: EdgeBottom | EdgeLeft, fixedX: 1, fixedY: 0},
}

func (a Anchor) String() string {
	if s, ok := anchors[a]; ok {
		return s.name
	}
	return fmt.Sprintf("Anchor(%d)", int(a))
}

// Edges returns the edges the handle drags.
func (a Anchor) Edges() Edges { return anchors[a].edges }

// ParseAnchor accepts the compass names in either order ("eastNorth" and
// "northEast" are the same handle), case-insensitively.
func ParseAnchor(s string) (Anchor, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for a, spec := range anchors {
		name := strings.ToLower(spec.name)
		if key == name {
			return a, nil
		}
		for _, first := range [...]string{"north", "south"} {
			if rest, ok := strings.CutPrefix(name, first); ok && key == rest+first {
				return a, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown anchor %q", s)
}

func (a Anchor) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Anchor) UnmarshalText(text []byte) error {
	parsed, err := ParseAnchor(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// AnchorResizeOptions extends ResizeOptions for handle drags.
type AnchorResizeOptions struct {
	ResizeOptions
	// Symmetric mirrors the drag on the opposite edges and keeps the center
	// in place.
	Symmetric bool
}

// AnchorDirections converts a pointer delta on a handle into edge deltas.
func AnchorDirections(anchor Anchor, delta MoveDirections, symmetric bool) Directions {
	edges := anchor.Edges()
	var d Directions
	if edges.Has(EdgeLeft) {
		d.Left = -delta.Left
	}
	if edges.Has(EdgeRight) {
		d.Right = delta.Left
	}
	if edges.Has(EdgeTop) {
		d.Top = -delta.Top
	}
	if edges.Has(EdgeBottom) {
		d.Bottom = delta.Top
	}
	if symmetric {
		if edges&HorizontalEdges != 0 {
			grow := d.Left + d.Right
			d.Left, d.Right = grow, grow
		}
		if edges&VerticalEdges != 0 {
			grow := d.Top + d.Bottom
			d.Top, d.Bottom = grow, grow
		}
	}
	return d
}

// ResizeFromAnchor resizes c by dragging a handle by delta. The point
// opposite the handle (or the center in symmetric mode) stays fixed, and the
// result is clamped back into the position limits.
func ResizeFromAnchor(c Coordinates, anchor Anchor, delta MoveDirections, opts AnchorResizeOptions, limits ResizeLimits) (Coordinates, bool) {
	spec, known := anchors[anchor]
	if !known {
		return c, true
	}
	fx, fy := spec.fixedX, spec.fixedY
	if opts.Symmetric {
		fx, fy = 0.5, 0.5
	}

	resized, ok := ResizeCoordinatesAlgorithm(c, AnchorDirections(anchor, delta, opts.Symmetric), opts.ResizeOptions, limits)
	before := Point{Left: c.Left + fx*c.Width, Top: c.Top + fy*c.Height}
	after := Point{Left: resized.Left + fx*resized.Width, Top: resized.Top + fy*resized.Height}
	resized = ApplyMove(resized, Diff(before, after))
	return MoveToPositionRestrictions(resized, limits.PositionRestrictions), ok
}
