package cropper

import (
	"math"

	"cropkit/geometry"
)

// Scale is a zoom of the image. Factors above 1 zoom in. Center is the
// image-space point that stays in place; nil means the visible area's
// center.
type Scale struct {
	Factor float64         `json:"factor"`
	Center *geometry.Point `json:"center,omitempty"`
}

// ImageTransform is a combined pan and zoom gesture on the image.
type ImageTransform struct {
	Scale Scale                   `json:"scale"`
	Move  geometry.MoveDirections `json:"move"`
}

// TransformImage pans and zooms the visible area. The crop rectangle keeps
// its place relative to the visible area, so it moves and scales with it
// as long as its own restrictions allow; the zoom is cut where they do not.
func TransformImage(s State, settings Settings, t ImageTransform) State {
	if !s.Initialized() {
		return s
	}
	d := edit(s)
	va, c := d.visibleArea, d.coordinates

	factor := 1.0
	if t.Scale.Factor > 0 && !math.IsInf(t.Scale.Factor, 0) {
		factor = 1 / t.Scale.Factor
	}

	relative := geometry.Coordinates{
		Left:   c.Left - va.Left,
		Top:    c.Top - va.Top,
		Width:  c.Width,
		Height: c.Height,
	}
	va = geometry.ApplyMove(va, t.Move)

	sizeRestrictions := SizeRestrictionsOf(s, settings)
	limits := PositionRestrictionsOf(s, settings)
	areaRestrictions := AreaSizeRestrictions(s, settings)

	stencilMax := geometry.MaxScale(c.Size(), sizeRestrictions)
	if c.Width > 0 {
		stencilMax = math.Min(stencilMax, (limits.Right-limits.Left)/c.Width)
	}
	if c.Height > 0 {
		stencilMax = math.Min(stencilMax, (limits.Bottom-limits.Top)/c.Height)
	}
	stencilMin := geometry.MinScale(c.Size(), sizeRestrictions)
	areaMax := geometry.MaxScale(va.Size(), areaRestrictions)
	areaMin := geometry.MinScale(va.Size(), areaRestrictions)

	scale := 1.0
	switch {
	case factor > 1:
		scale = math.Max(1, math.Min(factor, math.Min(areaMax, stencilMax)))
	case factor < 1:
		scale = math.Min(1, math.Max(factor, math.Max(areaMin, stencilMin)))
	}

	center := geometry.Center(va)
	if t.Scale.Center != nil {
		center = *t.Scale.Center
	}
	va = geometry.ApplyScaleAt(va, scale, center)
	relative = geometry.Coordinates{
		Left:   relative.Left * scale,
		Top:    relative.Top * scale,
		Width:  relative.Width * scale,
		Height: relative.Height * scale,
	}

	d.setVisibleArea(va)
	va = geometry.MoveToPositionRestrictions(va, AreaPositionRestrictions(d.snapshot(), settings))
	va = geometry.MoveToPositionRestrictions(va, geometry.Limits{
		Left:   limits.Left - relative.Left,
		Top:    limits.Top - relative.Top,
		Right:  limits.Right + va.Width - relative.Left - relative.Width,
		Bottom: limits.Bottom + va.Height - relative.Top - relative.Height,
	})
	d.setVisibleArea(va)

	c = geometry.Rect(geometry.Point{Left: va.Left + relative.Left, Top: va.Top + relative.Top}, relative.Size())
	d.setCoordinates(geometry.MoveToPositionRestrictions(c, geometry.MergePositionRestrictions(geometry.ToLimits(va), limits)))

	if settings.AdjustStencil && factor != 1 && !geometry.IsRoughlyEqual(scale, factor) {
		adjustStencil(d, settings, factor/scale)
	}
	return d.snapshot()
}

// adjustStencil zooms the visible area alone by the part of a zoom the crop
// rectangle could not follow, keeping the crop rectangle where it is.
func adjustStencil(d *draft, settings Settings, residual float64) {
	va, c := d.visibleArea, d.coordinates
	areaRestrictions := AreaSizeRestrictions(d.snapshot(), settings)
	if residual > 1 {
		residual = math.Min(residual, geometry.MaxScale(va.Size(), areaRestrictions))
	} else {
		containment := 0.0
		if va.Width > 0 && va.Height > 0 {
			containment = math.Max(c.Width/va.Width, c.Height/va.Height)
		}
		residual = math.Max(residual, math.Max(geometry.MinScale(va.Size(), areaRestrictions), containment))
	}
	if geometry.IsRoughlyEqual(residual, 1) {
		return
	}

	va = geometry.ApplyScaleAt(va, residual, geometry.Center(c))
	va = geometry.ApplyMove(va, containMove(va, c))
	d.setVisibleArea(va)
	d.setVisibleArea(geometry.MoveToPositionRestrictions(va, AreaPositionRestrictions(d.snapshot(), settings)))
	limits := geometry.MergePositionRestrictions(geometry.ToLimits(d.visibleArea), PositionRestrictionsOf(d.snapshot(), settings))
	d.setCoordinates(geometry.MoveToPositionRestrictions(c, limits))
}
