package cropper

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropkit/geometry"
)

func TestSettingResolve(t *testing.T) {
	var unset Setting[float64]
	assert.False(t, unset.IsSet())
	assert.Equal(t, 7.0, unset.Resolve(State{}, Settings{}, 7))

	assert.Equal(t, 3.0, Static(3.0).Resolve(State{}, Settings{}, 7))

	width := Computed(func(s State, _ Settings) float64 { return s.ImageSize.Width / 2 })
	assert.True(t, width.IsSet())
	assert.Equal(t, 50.0, width.Resolve(State{ImageSize: geometry.Size{Width: 100}}, Settings{}, 7))
}

func TestPercentsRestriction(t *testing.T) {
	r := PercentsRestriction(geometry.SizeRestrictions{
		MinWidth:  50,
		MaxWidth:  60,
		MaxHeight: math.Inf(1),
	})
	s := State{ImageSize: geometry.Size{Width: 200, Height: 100}, Transforms: geometry.Transforms{Rotate: 90}}
	got := r.Resolve(s, Settings{}, geometry.NoSizeRestrictions())
	// Percents are of the rotated image.
	assert.InDelta(t, 50, got.MinWidth, 1e-9)
	assert.InDelta(t, 60, got.MaxWidth, 1e-9)
	assert.True(t, math.IsInf(got.MaxHeight, 1))
}

func TestSizeRestrictionsOf(t *testing.T) {
	s := State{ImageSize: geometry.Size{Width: 200, Height: 100}}
	got := SizeRestrictionsOf(s, Settings{})
	assert.Equal(t, geometry.SizeRestrictions{MaxWidth: 200, MaxHeight: 100}, got)

	got = SizeRestrictionsOf(s, Settings{ImageRestriction: NoRestriction})
	assert.Equal(t, geometry.NoSizeRestrictions(), got)

	got = SizeRestrictionsOf(s, Settings{SizeRestrictions: PixelsRestriction(geometry.SizeRestrictions{MinWidth: 300})})
	assert.Equal(t, geometry.SizeRestrictions{MinWidth: 200, MaxWidth: 200, MaxHeight: 100}, got)
}

func TestAreaRestrictions(t *testing.T) {
	s := State{
		Boundary:    geometry.Size{Width: 100, Height: 100},
		ImageSize:   geometry.Size{Width: 200, Height: 100},
		VisibleArea: &geometry.Coordinates{Width: 200, Height: 200},
	}
	size := AreaSizeRestrictions(s, Settings{})
	assert.Equal(t, 200.0, size.MaxWidth)
	assert.True(t, math.IsInf(size.MaxHeight, 1))

	limits := AreaPositionRestrictions(s, Settings{})
	assert.Equal(t, geometry.Limits{Left: 0, Top: -50, Right: 200, Bottom: 150}, limits)

	fill := AreaSizeRestrictions(s, Settings{ImageRestriction: FillArea})
	assert.Equal(t, geometry.SizeRestrictions{MaxWidth: 200, MaxHeight: 100}, fill)
	assert.Equal(t, geometry.NoLimits(), AreaPositionRestrictions(s, Settings{ImageRestriction: StencilRestriction}))
}

func TestImageRestrictionText(t *testing.T) {
	var r ImageRestriction
	require.NoError(t, r.UnmarshalText([]byte("fill_area")))
	assert.Equal(t, FillArea, r)
	require.NoError(t, r.UnmarshalText([]byte("fitArea")))
	assert.Equal(t, FitArea, r)
	assert.Error(t, r.UnmarshalText([]byte("sideways")))

	text, err := StencilRestriction.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "stencil", string(text))
}

func TestCheck(t *testing.T) {
	s := landscape(Settings{})
	assert.Empty(t, Check(s, Settings{}))

	assert.Equal(t, []Diagnostic{{Kind: UninitializedState, Message: "cropper has no image or boundary yet"}}, Check(State{}, Settings{}))

	inverted := Settings{SizeRestrictions: PixelsRestriction(geometry.SizeRestrictions{
		MinWidth: 150, MaxWidth: 100, MaxHeight: math.Inf(1),
	})}
	diagnostics := Check(s, inverted)
	require.Len(t, diagnostics, 1)
	assert.Equal(t, InvalidConfiguration, diagnostics[0].Kind)

	tooLarge := Settings{SizeRestrictions: PixelsRestriction(geometry.SizeRestrictions{
		MinHeight: 150, MaxWidth: math.Inf(1), MaxHeight: math.Inf(1),
	})}
	diagnostics = Check(s, tooLarge)
	require.Len(t, diagnostics, 1)
	assert.Equal(t, ContradictoryRestrictions, diagnostics[0].Kind)
	assert.Equal(t, "contradictory_restrictions: min height 150 does not fit the image height 100", diagnostics[0].String())
}
