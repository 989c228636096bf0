package cropper

import (
	"math"

	"cropkit/geometry"
)

// CreateOptions describes a cropper that is about to show an image.
type CreateOptions struct {
	Boundary   geometry.Size
	ImageSize  geometry.Size
	Transforms geometry.Transforms
	Priority   Priority
}

// CreateState builds the initial state. Without a usable boundary or image
// the state stays uninitialized.
func CreateState(opts CreateOptions, settings Settings) State {
	s := State{
		Boundary:   opts.Boundary,
		ImageSize:  opts.ImageSize,
		Transforms: opts.Transforms,
	}
	if !hasArea(opts.Boundary) || !hasArea(opts.ImageSize) {
		return s
	}
	if opts.Priority == PriorityVisibleArea {
		s = SetVisibleArea(s, settings, DefaultVisibleArea(s, settings), false)
		return SetCoordinates(s, settings, true, DefaultCoordinates()...)
	}
	s = SetCoordinates(s, settings, false, DefaultCoordinates()...)
	return SetVisibleArea(s, settings, DefaultVisibleArea(s, settings), true)
}

// CoordinatesChange is a partial update of the crop rectangle. Nil fields
// are left as they are.
type CoordinatesChange struct {
	Size     *geometry.Size
	Position *geometry.Point
}

// CoordinatesUpdate computes a change from the state it is applied to.
type CoordinatesUpdate func(State, Settings) CoordinatesChange

// ChangeTo replaces the whole rectangle.
func ChangeTo(c geometry.Coordinates) CoordinatesUpdate {
	size, position := c.Size(), c.Position()
	return func(State, Settings) CoordinatesChange {
		return CoordinatesChange{Size: &size, Position: &position}
	}
}

// ChangeSize replaces the size only.
func ChangeSize(size geometry.Size) CoordinatesUpdate {
	return func(State, Settings) CoordinatesChange {
		return CoordinatesChange{Size: &size}
	}
}

// ChangePosition replaces the position only.
func ChangePosition(p geometry.Point) CoordinatesUpdate {
	return func(State, Settings) CoordinatesChange {
		return CoordinatesChange{Position: &p}
	}
}

// SetCoordinates applies updates to the crop rectangle in order. Sizes go
// through geometry.ApproximateSize and positions through the move
// algorithm. With safe set the rectangle is also kept inside the visible
// area; otherwise it may leave it and the caller reconciles later.
func SetCoordinates(s State, settings Settings, safe bool, updates ...CoordinatesUpdate) State {
	d := edit(s)
	band := AspectRatioOf(s, settings)
	sizeRestrictions := SizeRestrictionsOf(s, settings)
	limits := PositionRestrictionsOf(s, settings)
	if safe && d.hasVisibleArea {
		sizeRestrictions = geometry.MergeSizeRestrictions(sizeRestrictions, geometry.SizeRestrictions{
			MaxWidth:  d.visibleArea.Width,
			MaxHeight: d.visibleArea.Height,
		})
		limits = geometry.MergePositionRestrictions(limits, geometry.ToLimits(d.visibleArea))
		sizeRestrictions = geometry.MergeSizeRestrictions(sizeRestrictions, extentOf(limits))
	}

	for _, update := range updates {
		change := update(d.snapshot(), settings)
		c := d.coordinates
		if change.Size != nil {
			size := geometry.ApproximateSize(*change.Size, band, sizeRestrictions)
			c.Width, c.Height = size.Width, size.Height
		}
		if change.Position != nil {
			c.Left, c.Top = change.Position.Left, change.Position.Top
		}
		d.setCoordinates(geometry.MoveToPositionRestrictions(c, limits))
	}
	return d.snapshot()
}

// FitCoordinates re-applies the current crop rectangle in safe mode.
func FitCoordinates(s State, settings Settings) State {
	if s.Coordinates == nil {
		return s
	}
	return SetCoordinates(s, settings, true, ChangeTo(*s.Coordinates))
}

// FitVisibleArea restores the boundary ratio of the visible area and fits
// it into its size and position restrictions.
func FitVisibleArea(s State, settings Settings) State {
	if s.VisibleArea == nil {
		return s
	}
	d := edit(s)
	va := d.visibleArea
	if ratio := geometry.Ratio(d.boundary); ratio > 0 && !math.IsInf(ratio, 1) {
		height := va.Width / ratio
		va.Top += (va.Height - height) / 2
		va.Height = height
	}
	d.setVisibleArea(geometry.ResizeToSizeRestrictions(va, AreaSizeRestrictions(d.snapshot(), settings)))
	d.setVisibleArea(geometry.MoveToPositionRestrictions(d.visibleArea, AreaPositionRestrictions(d.snapshot(), settings)))
	return d.snapshot()
}

// SetVisibleArea replaces the visible area and fits it. With safe set the
// crop rectangle is fitted into the new area too.
func SetVisibleArea(s State, settings Settings, area geometry.Coordinates, safe bool) State {
	d := edit(s)
	d.setVisibleArea(area)
	s = FitVisibleArea(d.snapshot(), settings)
	if safe {
		s = FitCoordinates(s, settings)
	}
	return s
}

// SetBoundary adapts the state to a resized viewport. The visible area keeps
// its width and center and takes the new ratio; it grows when it would no
// longer hold the crop rectangle and is then fitted into its restrictions
// while moving as little as possible away from the crop rectangle.
func SetBoundary(s State, settings Settings, boundary geometry.Size) State {
	d := edit(s)
	d.boundary = boundary
	if !s.Initialized() || !hasArea(boundary) {
		return d.snapshot()
	}

	va, c := d.visibleArea, d.coordinates
	height := va.Width / geometry.Ratio(boundary)
	va.Top += (va.Height - height) / 2
	va.Height = height

	sizeRestrictions := SizeRestrictionsOf(s, settings)
	needed := math.Max(
		math.Max(c.Width, sizeRestrictions.MinWidth)/va.Width,
		math.Max(c.Height, sizeRestrictions.MinHeight)/va.Height,
	)
	if needed > 1 && !math.IsInf(needed, 1) {
		va = geometry.ApplyScale(va, needed)
	}
	d.setVisibleArea(geometry.ResizeToSizeRestrictions(va, AreaSizeRestrictions(d.snapshot(), settings)))
	d.setVisibleArea(geometry.ApplyMove(d.visibleArea, containMove(d.visibleArea, c)))
	d.setVisibleArea(geometry.MoveToPositionRestrictions(d.visibleArea, AreaPositionRestrictions(d.snapshot(), settings)))
	return FitCoordinates(d.snapshot(), settings)
}

// ReconcileState restores every invariant after an external change of
// settings or sizes. Applying it twice gives the same result as once.
func ReconcileState(s State, settings Settings) State {
	return FitCoordinates(FitVisibleArea(s, settings), settings)
}

// containMove is the smallest translation of outer that makes it contain
// inner. When inner is larger on an axis, outer is centered on it.
func containMove(outer, inner geometry.Coordinates) geometry.MoveDirections {
	return geometry.MoveDirections{
		Left: containAxis(outer.Left, outer.Width, inner.Left, inner.Width),
		Top:  containAxis(outer.Top, outer.Height, inner.Top, inner.Height),
	}
}

func containAxis(outerStart, outerSize, innerStart, innerSize float64) float64 {
	switch {
	case innerSize > outerSize:
		return (innerStart + innerSize/2) - (outerStart + outerSize/2)
	case innerStart < outerStart:
		return innerStart - outerStart
	case innerStart+innerSize > outerStart+outerSize:
		return innerStart + innerSize - (outerStart + outerSize)
	}
	return 0
}

// extentOf bounds a size by the box it has to be moved into. Open or empty
// axes are left unbounded.
func extentOf(l geometry.Limits) geometry.SizeRestrictions {
	r := geometry.NoSizeRestrictions()
	if w := l.Right - l.Left; w > 0 && !math.IsInf(w, 1) {
		r.MaxWidth = w
	}
	if h := l.Bottom - l.Top; h > 0 && !math.IsInf(h, 1) {
		r.MaxHeight = h
	}
	return r
}

func hasArea(s geometry.Size) bool {
	return s.Width > 0 && s.Height > 0
}
