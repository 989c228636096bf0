package geometry

// ApproximateSize returns the size closest to desired that satisfies the
// aspect ratio band and the size restrictions.
//
// Candidates are the desired size clamped per axis, plus, for each finite
// bound of the band, the clamped size with its height or its width derived
// from that ratio. Every candidate is scaled into the restrictions and the
// valid one nearest to desired wins. When no candidate reaches the minimums
// the search is repeated without them: the ratio and the maximums are the
// harder constraints.
func ApproximateSize(desired Size, band AspectRatio, restrictions SizeRestrictions) Size {
	restrictions = ReconcileSizeRestrictions(restrictions)
	clamped := Size{
		Width:  clamp(desired.Width, restrictions.MinWidth, restrictions.MaxWidth),
		Height: clamp(desired.Height, restrictions.MinHeight, restrictions.MaxHeight),
	}

	candidates := []Size{clamped}
	for _, r := range [...]float64{band.Min(), band.Max()} {
		if r <= 0 || r > maxFiniteRatio {
			continue
		}
		candidates = append(candidates,
			Size{Width: clamped.Width, Height: clamped.Width / r},
			Size{Width: clamped.Height * r, Height: clamped.Height},
		)
	}
	for i := range candidates {
		candidates[i] = ResizeSizeToSizeRestrictions(candidates[i], restrictions)
	}

	if best, ok := bestCandidate(candidates, desired, band, restrictions, false); ok {
		return best
	}
	if best, ok := bestCandidate(candidates, desired, band, restrictions, true); ok {
		return best
	}
	return clamped
}

// maxFiniteRatio keeps +Inf out of the candidate arithmetic.
const maxFiniteRatio = 1e300

func bestCandidate(candidates []Size, desired Size, band AspectRatio, r SizeRestrictions, ignoreMinimum bool) (Size, bool) {
	var (
		best     Size
		bestDist float64
		found    bool
	)
	for _, c := range candidates {
		if !validCandidate(c, band, r, ignoreMinimum) {
			continue
		}
		dist := sizeDistance(c, desired)
		if !found || dist < bestDist {
			best, bestDist, found = c, dist, true
		}
	}
	return best, found
}

func validCandidate(c Size, band AspectRatio, r SizeRestrictions, ignoreMinimum bool) bool {
	if !(c.Width > 0 && c.Height > 0) {
		return false
	}
	ratio := Ratio(c)
	if !IsGreaterOrEqual(ratio, band.Min()) || !IsLowerOrEqual(ratio, band.Max()) {
		return false
	}
	if !IsLowerOrEqual(c.Height, r.MaxHeight) || !IsLowerOrEqual(c.Width, r.MaxWidth) {
		return false
	}
	if ignoreMinimum {
		return true
	}
	return IsGreaterOrEqual(c.Height, r.MinHeight) && IsGreaterOrEqual(c.Width, r.MinWidth)
}

func sizeDistance(a, b Size) float64 {
	dw, dh := a.Width-b.Width, a.Height-b.Height
	return dw*dw + dh*dh
}
