package geometry

import "math"

// RespectDirection names the dimension kept when a resize has to repair the
// aspect ratio.
type RespectDirection int

const (
	RespectAuto RespectDirection = iota
	RespectWidth
	RespectHeight
)

// ResizeOptions tunes ResizeCoordinatesAlgorithm.
type ResizeOptions struct {
	// AllowedDirections lists the edges that may move. Zero means all edges.
	AllowedDirections Edges
	// PreserveRatio keeps the ratio of the rectangle being resized instead
	// of the configured band.
	PreserveRatio bool
	// RespectDirection picks the dimension kept during ratio repair.
	RespectDirection RespectDirection
	// Compensate slides the rectangle back inside the position limits
	// instead of cutting the requested growth.
	Compensate bool
}

func (o ResizeOptions) allowed() Edges {
	if o.AllowedDirections == 0 {
		return AllEdges
	}
	return o.AllowedDirections
}

// ResizeLimits is the set of constraints a resize has to honor.
type ResizeLimits struct {
	AspectRatio          AspectRatio
	SizeRestrictions     SizeRestrictions
	PositionRestrictions Limits
}

// FitDirectionsParams is the input of FitDirections.
type FitDirectionsParams struct {
	Coordinates          Coordinates
	Directions           Directions
	PositionRestrictions Limits
	SizeRestrictions     SizeRestrictions
	PreserveRatio        bool
	Compensate           bool
	// AllowedDirections gates compensation: an axis is compensated only
	// when both of its edges may move. Zero means all edges.
	AllowedDirections Edges
}

// FitDirections trims per-edge deltas so the resized rectangle does not
// invert, stays within the position limits and within the size
// restrictions. The aspect ratio is not considered unless PreserveRatio is
// set, in which case every clamp is applied uniformly to all edges.
func FitDirections(p FitDirectionsParams) Directions {
	c, d, r := p.Coordinates, p.Directions, ReconcileSizeRestrictions(p.SizeRestrictions)
	allowed := p.AllowedDirections
	if allowed == 0 {
		allowed = AllEdges
	}

	resized := ApplyDirections(c, d)
	if resized.Width < 0 {
		shrink := positive(c.Width - r.MinWidth)
		switch {
		case d.Left < 0 && d.Right < 0:
			d.Left, d.Right = -shrink/2, -shrink/2
		case d.Left < 0:
			d.Left = -shrink
		case d.Right < 0:
			d.Right = -shrink
		}
	}
	if resized.Height < 0 {
		shrink := positive(c.Height - r.MinHeight)
		switch {
		case d.Top < 0 && d.Bottom < 0:
			d.Top, d.Bottom = -shrink/2, -shrink/2
		case d.Top < 0:
			d.Top = -shrink
		case d.Bottom < 0:
			d.Bottom = -shrink
		}
	}

	breaks := GetIntersections(ApplyDirections(c, d), p.PositionRestrictions)
	if p.Compensate {
		if allowed.Has(HorizontalEdges) {
			if breaks.Left > 0 && breaks.Right == 0 {
				d.Right += breaks.Left
				d.Left -= breaks.Left
			} else if breaks.Right > 0 && breaks.Left == 0 {
				d.Left += breaks.Right
				d.Right -= breaks.Right
			}
		}
		if allowed.Has(VerticalEdges) {
			if breaks.Top > 0 && breaks.Bottom == 0 {
				d.Bottom += breaks.Top
				d.Top -= breaks.Top
			} else if breaks.Bottom > 0 && breaks.Top == 0 {
				d.Top += breaks.Bottom
				d.Bottom -= breaks.Bottom
			}
		}
		breaks = GetIntersections(ApplyDirections(c, d), p.PositionRestrictions)
	}

	var fractions [4]float64
	smallest := math.Inf(1)
	for i, e := range edgeOrder {
		fractions[i] = math.Inf(1)
		overshoot, delta := *breaks.edge(e), *d.edge(e)
		if overshoot > 0 && delta != 0 {
			fractions[i] = math.Max(0, 1-overshoot/delta)
		}
		smallest = math.Min(smallest, fractions[i])
	}
	if p.PreserveRatio {
		if !math.IsInf(smallest, 1) {
			d = scaleDirections(d, AllEdges, smallest)
		}
	} else {
		// Each edge keeps its own share. The edge pairs of an axis are
		// clamped together by the size stage below.
		for i, e := range edgeOrder {
			if !math.IsInf(fractions[i], 1) {
				*d.edge(e) *= fractions[i]
			}
		}
	}

	resized = ApplyDirections(c, d)
	horizontal, vertical := d.Left+d.Right, d.Top+d.Bottom
	widthScale, heightScale := math.Inf(1), math.Inf(1)
	if horizontal != 0 {
		if resized.Width > r.MaxWidth {
			widthScale = positive((r.MaxWidth - c.Width) / horizontal)
		} else if resized.Width < r.MinWidth {
			widthScale = positive((r.MinWidth - c.Width) / horizontal)
		}
	}
	if vertical != 0 {
		if resized.Height > r.MaxHeight {
			heightScale = positive((r.MaxHeight - c.Height) / vertical)
		} else if resized.Height < r.MinHeight {
			heightScale = positive((r.MinHeight - c.Height) / vertical)
		}
	}
	if p.PreserveRatio {
		if s := math.Min(widthScale, heightScale); !math.IsInf(s, 1) {
			d = scaleDirections(d, AllEdges, s)
		}
	} else {
		if !math.IsInf(widthScale, 1) {
			d = scaleDirections(d, HorizontalEdges, widthScale)
		}
		if !math.IsInf(heightScale, 1) {
			d = scaleDirections(d, VerticalEdges, heightScale)
		}
	}
	return d
}

// ResizeCoordinatesAlgorithm turns raw per-edge deltas into a new rectangle
// that honors the aspect ratio band, the size restrictions and the position
// limits.
//
// The second result is false when the constraints could not be reconciled
// with the requested ratio; the deltas are then discarded and the rectangle
// is only clamped into the position limits.
func ResizeCoordinatesAlgorithm(c Coordinates, directions Directions, opts ResizeOptions, limits ResizeLimits) (Coordinates, bool) {
	allowed := opts.allowed()
	sizeRestrictions := ReconcileSizeRestrictions(limits.SizeRestrictions)

	d := directions
	for _, e := range edgeOrder {
		if !allowed.Has(e) {
			*d.edge(e) = 0
		}
	}
	if IsLower(c.Width, sizeRestrictions.MinWidth) {
		d.Left, d.Right = 0, 0
	}
	if IsLower(c.Height, sizeRestrictions.MinHeight) {
		d.Top, d.Bottom = 0, 0
	}

	fit := FitDirectionsParams{
		Coordinates:          c,
		PositionRestrictions: limits.PositionRestrictions,
		SizeRestrictions:     sizeRestrictions,
		Compensate:           opts.Compensate,
		AllowedDirections:    allowed,
	}
	fit.Directions = d
	d = FitDirections(fit)

	size := ApplyDirections(c, d).Size()
	if target, broken := targetRatio(c, size, opts.PreserveRatio, limits.AspectRatio); broken {
		respect := opts.RespectDirection
		if respect == RespectAuto {
			if c.Width >= c.Height || target == 1 {
				respect = RespectWidth
			} else {
				respect = RespectHeight
			}
		}

		if respect == RespectWidth {
			overlap := size.Width/target - size.Height
			switch {
			case allowed.Has(VerticalEdges):
				top, bottom := d.Top, d.Bottom
				d.Bottom += distributeOverlap(overlap, bottom, top)
				d.Top += distributeOverlap(overlap, top, bottom)
			case allowed.Has(EdgeBottom):
				d.Bottom += overlap
			case allowed.Has(EdgeTop):
				d.Top += overlap
			case allowed.Has(EdgeRight):
				d.Right -= overlap * target
			case allowed.Has(EdgeLeft):
				d.Left -= overlap * target
			}
		} else {
			overlap := size.Height*target - size.Width
			switch {
			case allowed.Has(HorizontalEdges):
				left, right := d.Left, d.Right
				d.Right += distributeOverlap(overlap, right, left)
				d.Left += distributeOverlap(overlap, left, right)
			case allowed.Has(EdgeRight):
				d.Right += overlap
			case allowed.Has(EdgeLeft):
				d.Left += overlap
			case allowed.Has(EdgeBottom):
				d.Bottom -= overlap / target
			case allowed.Has(EdgeTop):
				d.Top -= overlap / target
			}
		}

		fit.Directions = d
		fit.PreserveRatio = true
		d = FitDirections(fit)
	}

	ok := true
	size = ApplyDirections(c, d).Size()
	if target, broken := targetRatio(c, size, opts.PreserveRatio, limits.AspectRatio); broken && !IsRoughlyEqual(Ratio(size), target) {
		d = Directions{}
		ok = false
	}

	resized := Coordinates{
		Left:   c.Left,
		Top:    c.Top,
		Width:  c.Width + d.Left + d.Right,
		Height: c.Height + d.Top + d.Bottom,
	}
	return MoveCoordinatesAlgorithm(resized, MoveDirections{Left: -d.Left, Top: -d.Top}, limits.PositionRestrictions), ok
}

// MoveCoordinatesAlgorithm translates c and then moves it rigidly back
// inside limits.
func MoveCoordinatesAlgorithm(c Coordinates, m MoveDirections, limits Limits) Coordinates {
	return MoveToPositionRestrictions(ApplyMove(c, m), limits)
}

// targetRatio returns the ratio a resized size should have and whether the
// size currently breaks it. With preserve the original ratio is always the
// target.
func targetRatio(original Coordinates, size Size, preserve bool, band AspectRatio) (float64, bool) {
	if preserve {
		if original.Width <= 0 || original.Height <= 0 {
			return 0, false
		}
		return Ratio(original.Size()), true
	}
	return GetBrokenRatio(Ratio(size), band)
}

// distributeOverlap returns the share of overlap that goes to the edge
// whose delta is a, given the opposite edge's delta b.
func distributeOverlap(overlap, a, b float64) float64 {
	switch {
	case a == 0 && b == 0:
		return overlap / 2
	case a == 0:
		return 0
	case b == 0:
		return overlap
	default:
		return overlap * math.Abs(a) / (math.Abs(a) + math.Abs(b))
	}
}

func scaleDirections(d Directions, edges Edges, factor float64) Directions {
	for _, e := range edgeOrder {
		if edges.Has(e) {
			*d.edge(e) *= factor
		}
	}
	return d
}
