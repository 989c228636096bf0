package cropper

import "cropkit/geometry"

// FlipImage mirrors the image along its own axes. Both rectangles are
// mirrored with it so they keep covering the same part of the picture.
func FlipImage(s State, settings Settings, horizontal, vertical bool) State {
	if !s.Initialized() || (!horizontal && !vertical) {
		return s
	}
	d := edit(s)
	if horizontal {
		d.transforms.Flip.Horizontal = !d.transforms.Flip.Horizontal
	}
	if vertical {
		d.transforms.Flip.Vertical = !d.transforms.Flip.Vertical
	}

	image := TransformedImageSize(s)
	pivot := geometry.Point{Left: image.Width / 2, Top: image.Height / 2}
	angle := s.Transforms.Rotate
	mirror := func(c geometry.Coordinates) geometry.Coordinates {
		center := geometry.Center(c)
		p := geometry.RotatePoint(center, -angle, pivot)
		if horizontal {
			p.Left = 2*pivot.Left - p.Left
		}
		if vertical {
			p.Top = 2*pivot.Top - p.Top
		}
		p = geometry.RotatePoint(p, angle, pivot)
		return geometry.ApplyMove(c, geometry.Diff(p, center))
	}

	d.setVisibleArea(mirror(d.visibleArea))
	d.setCoordinates(geometry.MoveToPositionRestrictions(mirror(d.coordinates), PositionRestrictionsOf(d.snapshot(), settings)))
	// Off a quarter turn the mirrored area can leave the crop behind.
	d.setVisibleArea(geometry.ApplyMove(d.visibleArea, containMove(d.visibleArea, d.coordinates)))
	d.setVisibleArea(geometry.MoveToPositionRestrictions(d.visibleArea, AreaPositionRestrictions(d.snapshot(), settings)))
	return FitCoordinates(d.snapshot(), settings)
}
