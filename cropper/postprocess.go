package cropper

import (
	"math"

	"cropkit/geometry"
)

// Action names passed to the postprocess chain.
const (
	ActionCreate               = "create"
	ActionSetCoordinates       = "setCoordinates"
	ActionSetVisibleArea       = "setVisibleArea"
	ActionSetBoundary          = "setBoundary"
	ActionSetSettings          = "setSettings"
	ActionReconcile            = "reconcile"
	ActionMoveCoordinates      = "moveCoordinates"
	ActionMoveCoordinatesEnd   = "moveCoordinatesEnd"
	ActionResizeCoordinates    = "resizeCoordinates"
	ActionResizeCoordinatesEnd = "resizeCoordinatesEnd"
	ActionTransformImage       = "transformImage"
	ActionTransformImageEnd    = "transformImageEnd"
	ActionRotateImage          = "rotateImage"
	ActionFlipImage            = "flipImage"
)

// Action describes the operation a postprocess step runs after.
// Immediately is set for discrete operations and for the end of a gesture;
// increments of a running gesture leave it unset.
type Action struct {
	Name        string `json:"name"`
	Immediately bool   `json:"immediately"`
	Transitions bool   `json:"transitions"`
}

// StateTransform is a postprocess step.
type StateTransform interface {
	Apply(s State, settings Settings, action Action) State
}

// StateTransformFunc adapts a function to StateTransform.
type StateTransformFunc func(State, Settings, Action) State

func (f StateTransformFunc) Apply(s State, settings Settings, action Action) State {
	return f(s, settings, action)
}

// Pipeline runs its steps left to right, each on the previous result.
type Pipeline []StateTransform

func (p Pipeline) Apply(s State, settings Settings, action Action) State {
	for _, t := range p {
		s = t.Apply(s, settings, action)
	}
	return s
}

// SimplestAutoZoom zooms the visible area out after the crop rectangle was
// set outside of it, until the rectangle fits again.
type SimplestAutoZoom struct{}

func (SimplestAutoZoom) Apply(s State, settings Settings, action Action) State {
	if action.Name != ActionSetCoordinates || !s.Initialized() {
		return s
	}
	d := edit(s)
	va, c := d.visibleArea, d.coordinates
	if va.Width > 0 && va.Height > 0 {
		scale := math.Max(c.Width/va.Width, c.Height/va.Height)
		if scale > 1 {
			scale = math.Min(scale, geometry.MaxScale(va.Size(), AreaSizeRestrictions(s, settings)))
			va = geometry.ApplyScale(va, scale)
		}
	}
	d.setVisibleArea(geometry.ApplyMove(va, containMove(va, c)))
	return ReconcileState(d.snapshot(), settings)
}

// StencilAutoZoom keeps the crop rectangle at a fixed display size: the
// configured StencilSize, or Fraction of the boundary at the rectangle's
// ratio. The visible area is zoomed and centered on the rectangle after
// every discrete action.
type StencilAutoZoom struct {
	// Fraction defaults to 0.8.
	Fraction float64
}

func (z StencilAutoZoom) Apply(s State, settings Settings, action Action) State {
	if !action.Immediately || !s.Initialized() {
		return s
	}
	d := edit(s)
	va, c := d.visibleArea, d.coordinates
	stencil := z.stencilSize(s, settings)
	if va.Width <= 0 || stencil.Width <= 0 {
		return s
	}

	scale := (c.Width * d.boundary.Width) / (va.Width * stencil.Width)
	size := geometry.ResizeSizeToSizeRestrictions(
		geometry.Size{Width: va.Width * scale, Height: va.Height * scale},
		AreaSizeRestrictions(s, settings),
	)
	center := geometry.Center(c)
	d.setVisibleArea(geometry.Rect(geometry.Point{Left: center.Left - size.Width/2, Top: center.Top - size.Height/2}, size))
	d.setVisibleArea(geometry.MoveToPositionRestrictions(d.visibleArea, AreaPositionRestrictions(d.snapshot(), settings)))
	return FitCoordinates(d.snapshot(), settings)
}

func (z StencilAutoZoom) stencilSize(s State, settings Settings) geometry.Size {
	if settings.StencilSize.IsSet() {
		return settings.StencilSize.Resolve(s, settings, geometry.Size{})
	}
	fraction := z.Fraction
	if fraction <= 0 || fraction > 1 {
		fraction = 0.8
	}
	b := geometry.Size{Width: s.Boundary.Width * fraction, Height: s.Boundary.Height * fraction}
	ratio := geometry.Ratio(s.Coordinates.Size())
	switch {
	case ratio <= 0 || math.IsInf(ratio, 1):
		return b
	case ratio > geometry.Ratio(b):
		return geometry.Size{Width: b.Width, Height: b.Width / ratio}
	default:
		return geometry.Size{Width: b.Height * ratio, Height: b.Height}
	}
}

// StaticAutoZoom shows the whole image after every discrete action.
type StaticAutoZoom struct{}

func (StaticAutoZoom) Apply(s State, settings Settings, action Action) State {
	if !action.Immediately || !s.Initialized() {
		return s
	}
	image := TransformedImageSize(s)
	size := fitRatio(image, geometry.Ratio(s.Boundary))
	area := geometry.Rect(geometry.Point{
		Left: (image.Width - size.Width) / 2,
		Top:  (image.Height - size.Height) / 2,
	}, size)
	return SetVisibleArea(s, settings, area, true)
}
