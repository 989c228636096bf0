package cropper

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropkit/geometry"
)

func TestMoveCoordinates(t *testing.T) {
	s := landscape(Settings{})
	s = MoveCoordinates(s, Settings{}, geometry.MoveDirections{Left: 100})
	assertRect(t, geometry.Coordinates{Left: 40, Top: 10, Width: 160, Height: 80}, s.Coordinates)

	s = MoveCoordinates(s, Settings{}, geometry.MoveDirections{Left: -500, Top: -500})
	assertRect(t, geometry.Coordinates{Left: 0, Top: 0, Width: 160, Height: 80}, s.Coordinates)
}

func TestMoveCoordinatesWithoutRestriction(t *testing.T) {
	settings := Settings{ImageRestriction: NoRestriction}
	s := landscape(settings)
	// The visible area still holds the rectangle back.
	s = MoveCoordinates(s, settings, geometry.MoveDirections{Left: 100})
	assertContained(t, *s.Coordinates, geometry.ToLimits(*s.VisibleArea))
}

func TestResizeCoordinates(t *testing.T) {
	s := landscape(Settings{})
	s = ResizeCoordinates(s, Settings{}, geometry.Directions{Right: 20}, geometry.ResizeOptions{})
	assertRect(t, geometry.Coordinates{Left: 20, Top: 10, Width: 180, Height: 80}, s.Coordinates)

	// The image stops further growth.
	s = ResizeCoordinates(s, Settings{}, geometry.Directions{Right: 50}, geometry.ResizeOptions{})
	assertContained(t, *s.Coordinates, geometry.Limits{Left: 0, Top: 0, Right: 200, Bottom: 100})
}

func TestResizeCoordinatesKeepsRatio(t *testing.T) {
	settings := Settings{AspectRatio: Static(geometry.FixedRatio(1))}
	s := landscape(settings)
	s = ResizeCoordinates(s, settings, geometry.Directions{Right: 10}, geometry.ResizeOptions{})
	require.NotNil(t, s.Coordinates)
	assert.InDelta(t, 90, s.Coordinates.Width, 1e-6)
	assert.InDelta(t, 90, s.Coordinates.Height, 1e-6)
	assertContained(t, *s.Coordinates, stencilLimits(s, settings))
}

func TestResizeFromAnchor(t *testing.T) {
	s := landscape(Settings{})
	s = ResizeFromAnchor(s, Settings{}, geometry.SouthEast, geometry.MoveDirections{Left: -20, Top: -10}, geometry.AnchorResizeOptions{})
	// The north-west corner stays put.
	assertRect(t, geometry.Coordinates{Left: 20, Top: 10, Width: 140, Height: 70}, s.Coordinates)
}

func TestTransformImageZoomIn(t *testing.T) {
	s := landscape(Settings{})
	s = TransformImage(s, Settings{}, ImageTransform{Scale: Scale{Factor: 2}})
	assertRect(t, geometry.Coordinates{Left: 50, Top: 25, Width: 100, Height: 50}, s.VisibleArea)
	assertRect(t, geometry.Coordinates{Left: 60, Top: 30, Width: 80, Height: 40}, s.Coordinates)
}

func TestTransformImageZoomOutIsCapped(t *testing.T) {
	s := landscape(Settings{})
	zoomed := TransformImage(s, Settings{}, ImageTransform{Scale: Scale{Factor: 0.5}})
	assertRect(t, *s.VisibleArea, zoomed.VisibleArea)
	assertRect(t, *s.Coordinates, zoomed.Coordinates)
}

func TestTransformImageMoveKeepsRelativePosition(t *testing.T) {
	s := landscape(Settings{})
	s = TransformImage(s, Settings{}, ImageTransform{Scale: Scale{Factor: 2}})
	s = TransformImage(s, Settings{}, ImageTransform{Move: geometry.MoveDirections{Left: 20, Top: 10}})
	assertRect(t, geometry.Coordinates{Left: 70, Top: 35, Width: 100, Height: 50}, s.VisibleArea)
	assertRect(t, geometry.Coordinates{Left: 80, Top: 40, Width: 80, Height: 40}, s.Coordinates)

	// Panning stops at the image edge.
	s = TransformImage(s, Settings{}, ImageTransform{Move: geometry.MoveDirections{Left: 500}})
	assertRect(t, geometry.Coordinates{Left: 100, Top: 35, Width: 100, Height: 50}, s.VisibleArea)
	assertRect(t, geometry.Coordinates{Left: 110, Top: 40, Width: 80, Height: 40}, s.Coordinates)
}

func TestTransformImageAdjustStencil(t *testing.T) {
	restrictions := PixelsRestriction(geometry.SizeRestrictions{MinWidth: 120, MaxWidth: math.Inf(1), MaxHeight: math.Inf(1)})

	plain := Settings{SizeRestrictions: restrictions}
	s := TransformImage(landscape(plain), plain, ImageTransform{Scale: Scale{Factor: 2}})
	assertRect(t, geometry.Coordinates{Left: 25, Top: 12.5, Width: 150, Height: 75}, s.VisibleArea)
	assertRect(t, geometry.Coordinates{Left: 40, Top: 20, Width: 120, Height: 60}, s.Coordinates)

	adjusted := Settings{SizeRestrictions: restrictions, AdjustStencil: true}
	s = TransformImage(landscape(adjusted), adjusted, ImageTransform{Scale: Scale{Factor: 2}})
	assertRect(t, geometry.Coordinates{Left: 40, Top: 20, Width: 120, Height: 60}, s.VisibleArea)
	assertRect(t, geometry.Coordinates{Left: 40, Top: 20, Width: 120, Height: 60}, s.Coordinates)
}

func TestRotateImage(t *testing.T) {
	s := landscape(Settings{})
	s = RotateImage(s, Settings{}, Rotation{Angle: 90})
	assert.Equal(t, 90.0, s.Transforms.Rotate)
	assertRect(t, geometry.Coordinates{Left: 0, Top: 60, Width: 100, Height: 80}, s.Coordinates)
	assertRect(t, geometry.Coordinates{Left: -50, Top: 50, Width: 200, Height: 100}, s.VisibleArea)
}

func TestRotateImageFullTurn(t *testing.T) {
	s := landscape(Settings{})
	turned := s
	for range 4 {
		turned = RotateImage(turned, Settings{}, Rotation{Angle: 90})
	}
	assert.Equal(t, 360.0, turned.Transforms.Rotate)
	// The first quarter turn cut the width to the rotated image.
	assertRect(t, geometry.Coordinates{Left: 50, Top: 10, Width: 100, Height: 80}, turned.Coordinates)
	assertRect(t, geometry.Coordinates{Left: 0, Top: 0, Width: 200, Height: 100}, turned.VisibleArea)
}

func TestFlipImageRoundTrip(t *testing.T) {
	s := landscape(Settings{})
	s = MoveCoordinates(s, Settings{}, geometry.MoveDirections{Left: -20, Top: -10})
	original := *s.Coordinates

	flipped := FlipImage(s, Settings{}, true, false)
	assert.True(t, flipped.Transforms.Flip.Horizontal)
	assertRect(t, geometry.Coordinates{Left: 40, Top: 0, Width: 160, Height: 80}, flipped.Coordinates)

	back := FlipImage(flipped, Settings{}, true, false)
	assert.False(t, back.Transforms.Flip.Horizontal)
	assertRect(t, original, back.Coordinates)
}

func TestFlipImageVertical(t *testing.T) {
	s := landscape(Settings{})
	s = MoveCoordinates(s, Settings{}, geometry.MoveDirections{Left: -20, Top: -10})
	s = FlipImage(s, Settings{}, false, true)
	assert.True(t, s.Transforms.Flip.Vertical)
	assertRect(t, geometry.Coordinates{Left: 0, Top: 20, Width: 160, Height: 80}, s.Coordinates)
}

func TestFlipImageRotated(t *testing.T) {
	s := landscape(Settings{})
	s = RotateImage(s, Settings{}, Rotation{Angle: 90})
	s = MoveCoordinates(s, Settings{}, geometry.MoveDirections{Top: -100})
	assertRect(t, geometry.Coordinates{Left: 0, Top: 50, Width: 100, Height: 80}, s.Coordinates)

	// Mirroring the unrotated image horizontally mirrors the rotated one
	// vertically.
	s = FlipImage(s, Settings{}, true, false)
	assertRect(t, geometry.Coordinates{Left: 0, Top: 70, Width: 100, Height: 80}, s.Coordinates)
	assertRect(t, geometry.Coordinates{Left: -50, Top: 50, Width: 200, Height: 100}, s.VisibleArea)
}

func TestFlipImageOffQuarterTurn(t *testing.T) {
	for _, settings := range []Settings{
		{ImageRestriction: StencilRestriction},
		{ImageRestriction: FillArea},
		{},
	} {
		t.Run(settings.ImageRestriction.String(), func(t *testing.T) {
			s := landscape(settings)
			s = RotateImage(s, settings, Rotation{Angle: 30})
			s = MoveCoordinates(s, settings, geometry.MoveDirections{Left: 60, Top: -25})
			s = ReconcileState(s, settings)
			for _, flip := range [][2]bool{{true, false}, {false, true}, {true, true}} {
				s = FlipImage(s, settings, flip[0], flip[1])
				assertContained(t, *s.Coordinates, stencilLimits(s, settings))

				again := ReconcileState(s, settings)
				assertRect(t, *s.Coordinates, again.Coordinates)
				assertRect(t, *s.VisibleArea, again.VisibleArea)
			}
		})
	}
}
