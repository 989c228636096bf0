package cropper

import (
	"math"

	"cropkit/geometry"
)

// AspectRatioOf resolves the aspect ratio band. An inverted band is
// reordered.
func AspectRatioOf(s State, settings Settings) geometry.AspectRatio {
	band := settings.AspectRatio.Resolve(s, settings, geometry.AspectRatio{})
	if lo, hi := band.Min(), band.Max(); lo > hi {
		band.Minimum, band.Maximum = hi, lo
	}
	return band
}

// rawSizeRestrictions is the configured crop size restriction limited by
// the image, before inverted bounds are reconciled.
func rawSizeRestrictions(s State, settings Settings) geometry.SizeRestrictions {
	r := settings.SizeRestrictions.Resolve(s, settings, geometry.NoSizeRestrictions())
	if r.MaxWidth <= 0 || math.IsNaN(r.MaxWidth) {
		r.MaxWidth = math.Inf(1)
	}
	if r.MaxHeight <= 0 || math.IsNaN(r.MaxHeight) {
		r.MaxHeight = math.Inf(1)
	}
	if settings.ImageRestriction != NoRestriction {
		image := TransformedImageSize(s)
		r.MaxWidth = math.Min(r.MaxWidth, image.Width)
		r.MaxHeight = math.Min(r.MaxHeight, image.Height)
	}
	return r
}

// SizeRestrictionsOf returns the effective size restrictions of the crop
// rectangle.
func SizeRestrictionsOf(s State, settings Settings) geometry.SizeRestrictions {
	return geometry.ReconcileSizeRestrictions(rawSizeRestrictions(s, settings))
}

// PositionRestrictionsOf returns the box the crop rectangle must stay in,
// ignoring the visible area.
func PositionRestrictionsOf(s State, settings Settings) geometry.Limits {
	if settings.ImageRestriction == NoRestriction {
		return geometry.NoLimits()
	}
	return geometry.ToLimits(imageBounds(s))
}

// AreaSizeRestrictions returns the size restrictions of the visible area.
func AreaSizeRestrictions(s State, settings Settings) geometry.SizeRestrictions {
	r := geometry.NoSizeRestrictions()
	image := TransformedImageSize(s)
	switch settings.ImageRestriction {
	case FillArea:
		r.MaxWidth, r.MaxHeight = image.Width, image.Height
	case FitArea:
		if geometry.Ratio(s.Boundary) > geometry.Ratio(image) {
			r.MaxHeight = image.Height
		} else {
			r.MaxWidth = image.Width
		}
	}
	return r
}

// AreaPositionRestrictions returns the box the visible area must stay in.
// With FitArea the axis along which the image is smaller than the visible
// area is locked so the image stays centered.
func AreaPositionRestrictions(s State, settings Settings) geometry.Limits {
	image := TransformedImageSize(s)
	switch settings.ImageRestriction {
	case FillArea:
		return geometry.ToLimits(imageBounds(s))
	case FitArea:
		var areaWidth, areaHeight float64
		if s.VisibleArea != nil {
			areaWidth, areaHeight = s.VisibleArea.Width, s.VisibleArea.Height
		}
		left, right := fitAxis(areaWidth, image.Width)
		top, bottom := fitAxis(areaHeight, image.Height)
		return geometry.Limits{Left: left, Top: top, Right: right, Bottom: bottom}
	}
	return geometry.NoLimits()
}

// fitAxis bounds one axis of the visible area: within the image when the
// area is smaller, centered on it otherwise.
func fitAxis(area, image float64) (float64, float64) {
	if area > image {
		excess := (area - image) / 2
		return -excess, image + excess
	}
	return 0, image
}

// stencilLimits is the box the crop rectangle must stay in given the
// current visible area.
func stencilLimits(s State, settings Settings) geometry.Limits {
	limits := PositionRestrictionsOf(s, settings)
	if s.VisibleArea != nil {
		limits = geometry.MergePositionRestrictions(limits, geometry.ToLimits(*s.VisibleArea))
	}
	return limits
}

func resizeLimits(s State, settings Settings) geometry.ResizeLimits {
	return geometry.ResizeLimits{
		AspectRatio:          AspectRatioOf(s, settings),
		SizeRestrictions:     SizeRestrictionsOf(s, settings),
		PositionRestrictions: stencilLimits(s, settings),
	}
}
