package cropper

import (
	"math"

	"cropkit/geometry"
)

// DefaultSize returns the initial crop size: a share of the available area
// (the visible area when the image does not restrict the crop, the image
// otherwise) at the ratio closest to the area's own.
func DefaultSize(s State, settings Settings) geometry.Size {
	band := AspectRatioOf(s, settings)
	restrictions := SizeRestrictionsOf(s, settings)
	if settings.DefaultSize.IsSet() {
		return geometry.ApproximateSize(settings.DefaultSize.Resolve(s, settings, geometry.Size{}), band, restrictions)
	}

	area := TransformedImageSize(s)
	if settings.ImageRestriction == NoRestriction && s.VisibleArea != nil {
		area = s.VisibleArea.Size()
	}
	fraction := settings.defaultSizeFraction()
	optimal := math.Min(band.Max(), math.Max(band.Min(), geometry.Ratio(area)))

	var size geometry.Size
	switch {
	case optimal <= 0 || math.IsInf(optimal, 1):
		size = geometry.Size{Width: area.Width * fraction, Height: area.Height * fraction}
	case area.Width < area.Height*optimal:
		size = geometry.Size{Width: area.Width * fraction, Height: area.Width * fraction / optimal}
	default:
		size = geometry.Size{Width: area.Height * fraction * optimal, Height: area.Height * fraction}
	}
	return geometry.ApproximateSize(size, band, restrictions)
}

// DefaultPosition centers a rectangle of the given size in the visible area,
// or in the image while there is no visible area yet.
func DefaultPosition(s State, settings Settings, size geometry.Size) geometry.Point {
	if settings.DefaultPosition.IsSet() {
		return settings.DefaultPosition.Resolve(s, settings, geometry.Point{})
	}
	area := imageBounds(s)
	if s.VisibleArea != nil {
		area = *s.VisibleArea
	}
	center := geometry.Center(area)
	return geometry.Point{
		Left: center.Left - size.Width/2,
		Top:  center.Top - size.Height/2,
	}
}

// DefaultCoordinates are the updates CreateState applies to place the
// initial crop rectangle.
func DefaultCoordinates() []CoordinatesUpdate {
	return []CoordinatesUpdate{
		func(s State, settings Settings) CoordinatesChange {
			size := DefaultSize(s, settings)
			return CoordinatesChange{Size: &size}
		},
		func(s State, settings Settings) CoordinatesChange {
			var size geometry.Size
			if s.Coordinates != nil {
				size = s.Coordinates.Size()
			}
			p := DefaultPosition(s, settings, size)
			return CoordinatesChange{Position: &p}
		},
	}
}

// DefaultVisibleArea returns the initial visible area. Without coordinates
// it shows the whole image at the boundary's ratio; with coordinates it is
// centered on them and large enough to hold both them and the image.
func DefaultVisibleArea(s State, settings Settings) geometry.Coordinates {
	if settings.DefaultVisibleArea.IsSet() {
		return settings.DefaultVisibleArea.Resolve(s, settings, geometry.Coordinates{})
	}
	image := TransformedImageSize(s)
	boundaryRatio := geometry.Ratio(s.Boundary)

	if s.Coordinates == nil {
		size := fitRatio(image, boundaryRatio)
		return geometry.Rect(geometry.Point{
			Left: (image.Width - size.Width) / 2,
			Top:  (image.Height - size.Height) / 2,
		}, size)
	}

	coordinates := *s.Coordinates
	size := fitRatio(geometry.Size{
		Width:  math.Max(coordinates.Width, image.Width),
		Height: math.Max(coordinates.Height, image.Height),
	}, boundaryRatio)
	size = geometry.ResizeSizeToSizeRestrictions(size, AreaSizeRestrictions(s, settings))

	center := geometry.Center(coordinates)
	area := geometry.Rect(geometry.Point{Left: center.Left - size.Width/2, Top: center.Top - size.Height/2}, size)
	next := s
	next.VisibleArea = &area
	return geometry.MoveToPositionRestrictions(area, AreaPositionRestrictions(next, settings))
}

// fitRatio returns the smallest size with the given ratio that contains s.
func fitRatio(s geometry.Size, ratio float64) geometry.Size {
	if ratio <= 0 || math.IsInf(ratio, 1) {
		return s
	}
	if geometry.Ratio(s) > ratio {
		return geometry.Size{Width: s.Width, Height: s.Width / ratio}
	}
	return geometry.Size{Width: s.Height * ratio, Height: s.Height}
}
