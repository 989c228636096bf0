package geometry

import "math"

// Tolerance is the relative tolerance used by the comparison helpers.
const Tolerance = 1e-3

// IsRoughlyEqual reports whether a and b differ by less than Tolerance,
// relative to b.
func IsRoughlyEqual(a, b float64) bool {
	if a == b {
		return true
	}
	if b == 0 {
		return math.Abs(a) < Tolerance
	}
	q := a / b
	return q > 1-Tolerance && q < 1+Tolerance
}

func IsGreater(a, b float64) bool        { return !IsRoughlyEqual(a, b) && a > b }
func IsLower(a, b float64) bool          { return !IsRoughlyEqual(a, b) && a < b }
func IsGreaterOrEqual(a, b float64) bool { return IsRoughlyEqual(a, b) || a > b }
func IsLowerOrEqual(a, b float64) bool   { return IsRoughlyEqual(a, b) || a < b }

// ToLimits converts a rectangle to the box formed by its edges.
func ToLimits(c Coordinates) Limits {
	return Limits{Left: c.Left, Top: c.Top, Right: c.Right(), Bottom: c.Bottom()}
}

// Diff returns a - b.
func Diff(a, b Point) MoveDirections {
	return MoveDirections{Left: a.Left - b.Left, Top: a.Top - b.Top}
}

// Center returns the middle of the rectangle.
func Center(c Coordinates) Point {
	return Point{Left: c.Left + c.Width/2, Top: c.Top + c.Height/2}
}

// Ratio returns width/height. A zero height yields +Inf for a positive width
// and 0 for an empty size, never NaN.
func Ratio(s Size) float64 {
	if s.Height == 0 {
		if s.Width == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return s.Width / s.Height
}

// GetIntersections returns how far c sticks out of limits on each side.
// Sides within the box, or unconstrained, report 0.
func GetIntersections(c Coordinates, limits Limits) Intersections {
	limits = limits.orNone()
	return Intersections{
		Left:   positive(limits.Left - c.Left),
		Top:    positive(limits.Top - c.Top),
		Right:  positive(c.Right() - limits.Right),
		Bottom: positive(c.Bottom() - limits.Bottom),
	}
}

// ApplyDirections moves each edge outward by its delta.
func ApplyDirections(c Coordinates, d Directions) Coordinates {
	return Coordinates{
		Left:   c.Left - d.Left,
		Top:    c.Top - d.Top,
		Width:  c.Width + d.Left + d.Right,
		Height: c.Height + d.Top + d.Bottom,
	}
}

// ApplyMove translates the rectangle.
func ApplyMove(c Coordinates, m MoveDirections) Coordinates {
	c.Left += m.Left
	c.Top += m.Top
	return c
}

// ApplyScale scales the rectangle around its own center.
func ApplyScale(c Coordinates, factor float64) Coordinates {
	return ApplyScaleAt(c, factor, Center(c))
}

// ApplyScaleAt scales the rectangle so that center keeps its relative
// position.
func ApplyScaleAt(c Coordinates, factor float64, center Point) Coordinates {
	return ApplyScaleWithProgress(c, factor, center, 1-factor)
}

// ApplyScaleWithProgress scales the rectangle symmetrically and then pulls
// it toward center by progress times the center offset.
func ApplyScaleWithProgress(c Coordinates, factor float64, center Point, progress float64) Coordinates {
	if factor == 1 {
		return c
	}
	own := Center(c)
	return Coordinates{
		Left:   c.Left + c.Width*(1-factor)/2 + (center.Left-own.Left)*progress,
		Top:    c.Top + c.Height*(1-factor)/2 + (center.Top-own.Top)*progress,
		Width:  c.Width * factor,
		Height: c.Height * factor,
	}
}

// RotateSize returns the bounding box of s rotated by angle degrees.
func RotateSize(s Size, angle float64) Size {
	rad := angle * math.Pi / 180
	cos, sin := math.Abs(math.Cos(rad)), math.Abs(math.Sin(rad))
	return Size{
		Width:  s.Width*cos + s.Height*sin,
		Height: s.Width*sin + s.Height*cos,
	}
}

// RotatePoint rotates p by angle degrees around anchor.
func RotatePoint(p Point, angle float64, anchor Point) Point {
	rad := angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	x, y := p.Left-anchor.Left, p.Top-anchor.Top
	return Point{
		Left: anchor.Left + x*cos - y*sin,
		Top:  anchor.Top + x*sin + y*cos,
	}
}

// FitToPositionRestrictions returns the smallest translation that brings c
// inside limits. When c is larger than the box the left/top edge wins.
func FitToPositionRestrictions(c Coordinates, limits Limits) MoveDirections {
	var m MoveDirections
	breaks := GetIntersections(c, limits)
	if breaks.Left > 0 {
		m.Left = breaks.Left
	} else if breaks.Right > 0 {
		m.Left = -breaks.Right
	}
	if breaks.Top > 0 {
		m.Top = breaks.Top
	} else if breaks.Bottom > 0 {
		m.Top = -breaks.Bottom
	}
	return m
}

// MoveToPositionRestrictions translates c into limits.
func MoveToPositionRestrictions(c Coordinates, limits Limits) Coordinates {
	return ApplyMove(c, FitToPositionRestrictions(c, limits))
}

// MergePositionRestrictions intersects two boxes.
func MergePositionRestrictions(a, b Limits) Limits {
	a, b = a.orNone(), b.orNone()
	return Limits{
		Left:   orValue(math.Max, a.Left, b.Left),
		Top:    orValue(math.Max, a.Top, b.Top),
		Right:  orValue(math.Min, a.Right, b.Right),
		Bottom: orValue(math.Min, a.Bottom, b.Bottom),
	}
}

// MergeSizeRestrictions intersects two restriction sets and reconciles the
// result.
func MergeSizeRestrictions(a, b SizeRestrictions) SizeRestrictions {
	a, b = ReconcileSizeRestrictions(a), ReconcileSizeRestrictions(b)
	return ReconcileSizeRestrictions(SizeRestrictions{
		MinWidth:  orValue(math.Max, a.MinWidth, b.MinWidth),
		MinHeight: orValue(math.Max, a.MinHeight, b.MinHeight),
		MaxWidth:  orValue(math.Min, a.MaxWidth, b.MaxWidth),
		MaxHeight: orValue(math.Min, a.MaxHeight, b.MaxHeight),
	})
}

// ReconcileSizeRestrictions lowers inverted minimums to their maximum and
// replaces NaN, zero or negative bounds with the unconstrained defaults.
func ReconcileSizeRestrictions(r SizeRestrictions) SizeRestrictions {
	if !(r.MinWidth > 0) {
		r.MinWidth = 0
	}
	if !(r.MinHeight > 0) {
		r.MinHeight = 0
	}
	if !(r.MaxWidth > 0) {
		r.MaxWidth = math.Inf(1)
	}
	if !(r.MaxHeight > 0) {
		r.MaxHeight = math.Inf(1)
	}
	r.MinWidth = math.Min(r.MinWidth, r.MaxWidth)
	r.MinHeight = math.Min(r.MinHeight, r.MaxHeight)
	return r
}

// MaxScale is the largest uniform factor that keeps s within the maximums.
func MaxScale(s Size, r SizeRestrictions) float64 {
	r = ReconcileSizeRestrictions(r)
	return math.Min(safeDiv(r.MaxWidth, s.Width, math.Inf(1)), safeDiv(r.MaxHeight, s.Height, math.Inf(1)))
}

// MinScale is the smallest uniform factor that keeps s above the minimums.
func MinScale(s Size, r SizeRestrictions) float64 {
	return math.Max(safeDiv(r.MinWidth, s.Width, 0), safeDiv(r.MinHeight, s.Height, 0))
}

// FitToSizeRestrictions returns the uniform factor that brings s within r.
// Minimums are satisfied first and maximums win a conflict. The dimension
// that is further out of range, judged by comparing the aspect ratio of s
// with the ratio of the bounds, picks the factor. Returns 1 when s already
// complies or is empty.
func FitToSizeRestrictions(s Size, r SizeRestrictions) float64 {
	if s.Width <= 0 || s.Height <= 0 {
		return 1
	}
	r = ReconcileSizeRestrictions(r)
	ratio := Ratio(s)
	scale := 1.0

	switch {
	case r.MinWidth > 0 && r.MinHeight > 0:
		if ratio > r.MinWidth/r.MinHeight {
			if s.Height < r.MinHeight {
				scale = r.MinHeight / s.Height
			}
		} else if s.Width < r.MinWidth {
			scale = r.MinWidth / s.Width
		}
	case r.MinWidth > 0:
		if s.Width < r.MinWidth {
			scale = r.MinWidth / s.Width
		}
	case r.MinHeight > 0:
		if s.Height < r.MinHeight {
			scale = r.MinHeight / s.Height
		}
	}

	width, height := s.Width*scale, s.Height*scale
	finiteWidth, finiteHeight := !math.IsInf(r.MaxWidth, 1), !math.IsInf(r.MaxHeight, 1)
	switch {
	case finiteWidth && finiteHeight && r.MaxHeight > 0:
		if ratio > r.MaxWidth/r.MaxHeight {
			if width > r.MaxWidth {
				scale = r.MaxWidth / s.Width
			}
		} else if height > r.MaxHeight {
			scale = r.MaxHeight / s.Height
		}
	case finiteWidth:
		if width > r.MaxWidth {
			scale = r.MaxWidth / s.Width
		}
	case finiteHeight:
		if height > r.MaxHeight {
			scale = r.MaxHeight / s.Height
		}
	}
	return scale
}

// ResizeToSizeRestrictions scales c around its center into r.
func ResizeToSizeRestrictions(c Coordinates, r SizeRestrictions) Coordinates {
	return ApplyScale(c, FitToSizeRestrictions(c.Size(), r))
}

// ResizeSizeToSizeRestrictions scales s into r.
func ResizeSizeToSizeRestrictions(s Size, r SizeRestrictions) Size {
	f := FitToSizeRestrictions(s, r)
	return Size{Width: s.Width * f, Height: s.Height * f}
}

// GetBrokenRatio returns the bound of band that current violates, if any.
func GetBrokenRatio(current float64, band AspectRatio) (float64, bool) {
	if lo := band.Min(); lo > 0 && IsLower(current, lo) {
		return lo, true
	}
	if hi := band.Max(); !math.IsInf(hi, 1) && IsGreater(current, hi) {
		return hi, true
	}
	return 0, false
}

func positive(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}

func safeDiv(a, b, fallback float64) float64 {
	if b == 0 || math.IsInf(a, 0) || math.IsNaN(a) {
		return fallback
	}
	return a / b
}

// orValue combines two bounds, letting a NaN on either side defer to the
// other.
func orValue(pick func(a, b float64) float64, a, b float64) float64 {
	if math.IsNaN(a) {
		return b
	}
	if math.IsNaN(b) {
		return a
	}
	return pick(a, b)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
