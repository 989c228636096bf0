package cropper

import (
	"cropkit/geometry"
)

// Rotation turns the image by Angle degrees clockwise. Center is the
// image-space point the image turns around; nil means the crop rectangle's
// center.
type Rotation struct {
	Angle  float64         `json:"angle"`
	Center *geometry.Point `json:"center,omitempty"`
}

// RotateImage rotates the image under the crop rectangle. The rectangle
// keeps its size when the rotated image allows it and follows the point of
// the image it was centered on; the visible area follows the rectangle.
func RotateImage(s State, settings Settings, r Rotation) State {
	if !s.Initialized() || r.Angle == 0 {
		return s
	}
	d := edit(s)
	before := TransformedImageSize(s)
	d.transforms.Rotate += r.Angle
	rotated := d.snapshot()
	after := TransformedImageSize(rotated)

	c := d.coordinates
	center := geometry.Center(c)
	next := geometry.RotatePoint(center, r.Angle, geometry.Point{Left: before.Width / 2, Top: before.Height / 2})
	next.Left += (after.Width - before.Width) / 2
	next.Top += (after.Height - before.Height) / 2
	if r.Center != nil {
		// Turning around another point displaces the rectangle relative to
		// the image.
		shifted := geometry.RotatePoint(center, r.Angle, *r.Center)
		next.Left += center.Left - shifted.Left
		next.Top += center.Top - shifted.Top
	}

	size := geometry.ApproximateSize(c.Size(), AspectRatioOf(rotated, settings), SizeRestrictionsOf(rotated, settings))
	c = geometry.Rect(geometry.Point{Left: next.Left - size.Width/2, Top: next.Top - size.Height/2}, size)

	areaRestrictions := AreaSizeRestrictions(rotated, settings)
	areaRestrictions = geometry.MergeSizeRestrictions(areaRestrictions, geometry.SizeRestrictions{
		MinWidth:  c.Width,
		MinHeight: c.Height,
		MaxWidth:  areaRestrictions.MaxWidth,
		MaxHeight: areaRestrictions.MaxHeight,
	})
	va := geometry.ResizeToSizeRestrictions(d.visibleArea, areaRestrictions)

	c = geometry.MoveToPositionRestrictions(c, PositionRestrictionsOf(rotated, settings))
	va = geometry.ApplyMove(va, geometry.Diff(geometry.Center(c), center))
	d.setVisibleArea(va)
	d.setVisibleArea(geometry.MoveToPositionRestrictions(va, AreaPositionRestrictions(d.snapshot(), settings)))
	d.setCoordinates(c)
	return FitCoordinates(d.snapshot(), settings)
}
