package cropper

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropkit/geometry"
)

func assertRect(t *testing.T, want geometry.Coordinates, got *geometry.Coordinates, msgAndArgs ...interface{}) {
	t.Helper()
	require.NotNil(t, got, msgAndArgs...)
	assert.InDelta(t, want.Left, got.Left, 1e-6, "left")
	assert.InDelta(t, want.Top, got.Top, 1e-6, "top")
	assert.InDelta(t, want.Width, got.Width, 1e-6, "width")
	assert.InDelta(t, want.Height, got.Height, 1e-6, "height")
}

func assertContained(t *testing.T, inner geometry.Coordinates, outer geometry.Limits) {
	t.Helper()
	assert.True(t, geometry.IsGreaterOrEqual(inner.Left, outer.Left), "left %v < %v", inner.Left, outer.Left)
	assert.True(t, geometry.IsGreaterOrEqual(inner.Top, outer.Top), "top %v < %v", inner.Top, outer.Top)
	assert.True(t, geometry.IsLowerOrEqual(inner.Right(), outer.Right), "right %v > %v", inner.Right(), outer.Right)
	assert.True(t, geometry.IsLowerOrEqual(inner.Bottom(), outer.Bottom), "bottom %v > %v", inner.Bottom(), outer.Bottom)
}

// landscape is a 200x100 image shown in a 200x100 boundary.
func landscape(settings Settings) State {
	return CreateState(CreateOptions{
		Boundary:  geometry.Size{Width: 200, Height: 100},
		ImageSize: geometry.Size{Width: 200, Height: 100},
	}, settings)
}

func TestCreateState(t *testing.T) {
	s := landscape(Settings{})
	require.True(t, s.Initialized())
	assertRect(t, geometry.Coordinates{Left: 20, Top: 10, Width: 160, Height: 80}, s.Coordinates)
	assertRect(t, geometry.Coordinates{Left: 0, Top: 0, Width: 200, Height: 100}, s.VisibleArea)
}

func TestCreateStateFixedRatio(t *testing.T) {
	s := landscape(Settings{AspectRatio: Static(geometry.FixedRatio(1))})
	assertRect(t, geometry.Coordinates{Left: 60, Top: 10, Width: 80, Height: 80}, s.Coordinates)
	assertRect(t, geometry.Coordinates{Left: 0, Top: 0, Width: 200, Height: 100}, s.VisibleArea)
}

func TestCreateStateVisibleAreaFirst(t *testing.T) {
	s := CreateState(CreateOptions{
		Boundary:  geometry.Size{Width: 200, Height: 100},
		ImageSize: geometry.Size{Width: 200, Height: 100},
		Priority:  PriorityVisibleArea,
	}, Settings{})
	assertRect(t, geometry.Coordinates{Left: 0, Top: 0, Width: 200, Height: 100}, s.VisibleArea)
	assertRect(t, geometry.Coordinates{Left: 20, Top: 10, Width: 160, Height: 80}, s.Coordinates)
}

func TestCreateStateUninitialized(t *testing.T) {
	s := CreateState(CreateOptions{ImageSize: geometry.Size{Width: 200, Height: 100}}, Settings{})
	assert.False(t, s.Initialized())
	assert.Nil(t, s.VisibleArea)
	assert.Nil(t, s.Coordinates)

	assert.Equal(t, s, ReconcileState(s, Settings{}))
	assert.Equal(t, s, MoveCoordinates(s, Settings{}, geometry.MoveDirections{Left: 10}))
	assert.Equal(t, s, RotateImage(s, Settings{}, Rotation{Angle: 90}))
}

func TestSetCoordinatesSafe(t *testing.T) {
	s := landscape(Settings{})
	s = TransformImage(s, Settings{}, ImageTransform{Scale: Scale{Factor: 2}})
	require.NotNil(t, s.VisibleArea)

	safe := SetCoordinates(s, Settings{}, true, ChangeTo(geometry.Coordinates{Left: 0, Top: 0, Width: 160, Height: 80}))
	assertRect(t, geometry.Coordinates{Left: 50, Top: 25, Width: 100, Height: 50}, safe.Coordinates)

	unsafe := SetCoordinates(s, Settings{}, false, ChangeTo(geometry.Coordinates{Left: 0, Top: 0, Width: 160, Height: 80}))
	assertRect(t, geometry.Coordinates{Left: 0, Top: 0, Width: 160, Height: 80}, unsafe.Coordinates)
}

func TestSetCoordinatesPartialUpdates(t *testing.T) {
	s := landscape(Settings{})
	s = SetCoordinates(s, Settings{}, true,
		ChangeSize(geometry.Size{Width: 50, Height: 50}),
		ChangePosition(geometry.Point{Left: 190, Top: -5}),
	)
	assertRect(t, geometry.Coordinates{Left: 150, Top: 0, Width: 50, Height: 50}, s.Coordinates)
}

func TestSetCoordinatesKeepsPreviousSnapshot(t *testing.T) {
	before := landscape(Settings{})
	original := *before.Coordinates
	after := SetCoordinates(before, Settings{}, true, ChangePosition(geometry.Point{}))
	assert.Equal(t, original, *before.Coordinates)
	assert.NotSame(t, before.Coordinates, after.Coordinates)
}

func TestReconcileStateIsIdempotent(t *testing.T) {
	messy := State{
		Boundary:    geometry.Size{Width: 200, Height: 100},
		ImageSize:   geometry.Size{Width: 200, Height: 100},
		VisibleArea: &geometry.Coordinates{Left: -50, Top: -30, Width: 300, Height: 100},
		Coordinates: &geometry.Coordinates{Left: 150, Top: 50, Width: 100, Height: 80},
	}

	once := ReconcileState(messy, Settings{})
	assertRect(t, geometry.Coordinates{Left: 0, Top: 0, Width: 200, Height: 100}, once.VisibleArea)
	assertRect(t, geometry.Coordinates{Left: 100, Top: 20, Width: 100, Height: 80}, once.Coordinates)

	twice := ReconcileState(once, Settings{})
	assertRect(t, *once.VisibleArea, twice.VisibleArea)
	assertRect(t, *once.Coordinates, twice.Coordinates)
}

func TestReconcileStateIsIdempotentAcrossSettings(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
	}{
		{"fit area", Settings{}},
		{"fill area", Settings{ImageRestriction: FillArea}},
		{"stencil", Settings{ImageRestriction: StencilRestriction}},
		{"none", Settings{ImageRestriction: NoRestriction}},
		{"fixed ratio", Settings{AspectRatio: Static(geometry.FixedRatio(1.5))}},
		{"band", Settings{AspectRatio: Static(geometry.AspectRatio{Minimum: 0.5, Maximum: 1})}},
		{"pixels", Settings{SizeRestrictions: PixelsRestriction(geometry.SizeRestrictions{
			MinWidth: 40, MinHeight: 40, MaxWidth: 120, MaxHeight: math.Inf(1),
		})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messy := State{
				Boundary:    geometry.Size{Width: 300, Height: 200},
				ImageSize:   geometry.Size{Width: 400, Height: 250},
				VisibleArea: &geometry.Coordinates{Left: -80, Top: 40, Width: 500, Height: 120},
				Coordinates: &geometry.Coordinates{Left: 300, Top: -20, Width: 220, Height: 90},
			}
			once := ReconcileState(messy, tt.settings)
			twice := ReconcileState(once, tt.settings)
			assertRect(t, *once.VisibleArea, twice.VisibleArea)
			assertRect(t, *once.Coordinates, twice.Coordinates)
			assertContained(t, *once.Coordinates, stencilLimits(once, tt.settings))
		})
	}
}

func TestReconcileStateStencilOffImage(t *testing.T) {
	// The visible area hangs off the right of the image, leaving a 50px
	// wide box for the crop rectangle.
	settings := Settings{ImageRestriction: StencilRestriction}
	messy := State{
		Boundary:    geometry.Size{Width: 200, Height: 100},
		ImageSize:   geometry.Size{Width: 200, Height: 100},
		VisibleArea: &geometry.Coordinates{Left: 150, Top: 0, Width: 200, Height: 100},
		Coordinates: &geometry.Coordinates{Left: 150, Top: 10, Width: 100, Height: 80},
	}

	once := ReconcileState(messy, settings)
	assertRect(t, geometry.Coordinates{Left: 150, Top: 10, Width: 50, Height: 80}, once.Coordinates)
	assertContained(t, *once.Coordinates, stencilLimits(once, settings))

	twice := ReconcileState(once, settings)
	assertRect(t, *once.VisibleArea, twice.VisibleArea)
	assertRect(t, *once.Coordinates, twice.Coordinates)
}

func TestSetBoundary(t *testing.T) {
	s := landscape(Settings{})
	s = SetBoundary(s, Settings{}, geometry.Size{Width: 100, Height: 100})
	assert.Equal(t, geometry.Size{Width: 100, Height: 100}, s.Boundary)
	assertRect(t, geometry.Coordinates{Left: 0, Top: -50, Width: 200, Height: 200}, s.VisibleArea)
	assertRect(t, geometry.Coordinates{Left: 20, Top: 10, Width: 160, Height: 80}, s.Coordinates)
}

func TestSetBoundaryUninitialized(t *testing.T) {
	s := SetBoundary(State{}, Settings{}, geometry.Size{Width: 100, Height: 50})
	assert.Equal(t, State{Boundary: geometry.Size{Width: 100, Height: 50}}, s)
}

func TestSetVisibleAreaFitsCoordinates(t *testing.T) {
	s := landscape(Settings{})
	s = SetVisibleArea(s, Settings{}, geometry.Coordinates{Left: 100, Top: 0, Width: 100, Height: 100}, true)
	// The boundary ratio wins: the area is 100x50, recentred vertically.
	assertRect(t, geometry.Coordinates{Left: 100, Top: 25, Width: 100, Height: 50}, s.VisibleArea)
	assertContained(t, *s.Coordinates, geometry.ToLimits(*s.VisibleArea))
}
