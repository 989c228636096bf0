package cropper

import "cropkit/geometry"

// ImageRender places the unrotated image in boundary space. The image is
// drawn at Translate with Size, then rotated by Rotate degrees and mirrored
// around its own center.
type ImageRender struct {
	Translate geometry.Point `json:"translate"`
	Size      geometry.Size  `json:"size"`
	Scale     float64        `json:"scale"`
	Rotate    float64        `json:"rotate"`
	Flip      geometry.Flip  `json:"flip"`
}

// RenderParams is what a renderer needs to draw a state.
type RenderParams struct {
	Boundary geometry.Size        `json:"boundary"`
	Stencil  geometry.Coordinates `json:"stencil"`
	Image    ImageRender          `json:"image"`
}

// Render converts s to boundary space. It returns false for an
// uninitialized state.
func Render(s State) (RenderParams, bool) {
	if !s.Initialized() || s.VisibleArea.Width <= 0 {
		return RenderParams{}, false
	}
	coefficient := Coefficient(s)
	va, c := *s.VisibleArea, *s.Coordinates
	toBoundary := func(v float64) float64 { return v / coefficient }

	image := TransformedImageSize(s)
	size := geometry.Size{Width: toBoundary(s.ImageSize.Width), Height: toBoundary(s.ImageSize.Height)}
	center := geometry.Point{
		Left: toBoundary(image.Width/2 - va.Left),
		Top:  toBoundary(image.Height/2 - va.Top),
	}
	return RenderParams{
		Boundary: s.Boundary,
		Stencil: geometry.Coordinates{
			Left:   toBoundary(c.Left - va.Left),
			Top:    toBoundary(c.Top - va.Top),
			Width:  toBoundary(c.Width),
			Height: toBoundary(c.Height),
		},
		Image: ImageRender{
			Translate: geometry.Point{Left: center.Left - size.Width/2, Top: center.Top - size.Height/2},
			Size:      size,
			Scale:     1 / coefficient,
			Rotate:    s.Transforms.Rotate,
			Flip:      s.Transforms.Flip,
		},
	}, true
}

// Crop is the outcome of an editing session: the rectangle to cut from the
// image after it has been flipped and then rotated by Transforms.
type Crop struct {
	ImageSize   geometry.Size        `json:"imageSize"`
	Transforms  geometry.Transforms  `json:"transforms"`
	Coordinates geometry.Coordinates `json:"coordinates"`
}

// Result returns the crop described by s. It returns false for an
// uninitialized state.
func Result(s State) (Crop, bool) {
	if s.Coordinates == nil {
		return Crop{}, false
	}
	return Crop{
		ImageSize:   s.ImageSize,
		Transforms:  s.Transforms,
		Coordinates: *s.Coordinates,
	}, true
}
