package cropper

import "cropkit/geometry"

// MoveCoordinates pans the crop rectangle by m (image space) inside the
// visible area and the position restrictions.
func MoveCoordinates(s State, settings Settings, m geometry.MoveDirections) State {
	if !s.Initialized() {
		return s
	}
	d := edit(s)
	d.setCoordinates(geometry.MoveCoordinatesAlgorithm(d.coordinates, m, stencilLimits(s, settings)))
	return d.snapshot()
}

// ResizeCoordinates moves the crop rectangle's edges by directions (image
// space). The result is unchanged when the ratio band cannot be honored.
func ResizeCoordinates(s State, settings Settings, directions geometry.Directions, opts geometry.ResizeOptions) State {
	s, _ = resizeCoordinates(s, settings, directions, opts)
	return s
}

func resizeCoordinates(s State, settings Settings, directions geometry.Directions, opts geometry.ResizeOptions) (State, bool) {
	if !s.Initialized() {
		return s, true
	}
	c, ok := geometry.ResizeCoordinatesAlgorithm(*s.Coordinates, directions, opts, resizeLimits(s, settings))
	d := edit(s)
	d.setCoordinates(c)
	return d.snapshot(), ok
}

// ResizeFromAnchor drags the handle at anchor by delta (image space).
func ResizeFromAnchor(s State, settings Settings, anchor geometry.Anchor, delta geometry.MoveDirections, opts geometry.AnchorResizeOptions) State {
	s, _ = resizeFromAnchor(s, settings, anchor, delta, opts)
	return s
}

func resizeFromAnchor(s State, settings Settings, anchor geometry.Anchor, delta geometry.MoveDirections, opts geometry.AnchorResizeOptions) (State, bool) {
	if !s.Initialized() {
		return s, true
	}
	c, ok := geometry.ResizeFromAnchor(*s.Coordinates, anchor, delta, opts, resizeLimits(s, settings))
	d := edit(s)
	d.setCoordinates(c)
	return d.snapshot(), ok
}
