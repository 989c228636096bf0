package cropper

import (
	"fmt"

	"cropkit/geometry"
)

// Kind classifies a Diagnostic.
type Kind int

const (
	// ContradictoryRestrictions means a minimum exceeds its maximum once
	// the restrictions are combined with the image; the axis is frozen at
	// the maximum.
	ContradictoryRestrictions Kind = iota + 1
	// RatioUnsatisfiable means a resize was dropped because no rectangle
	// honors the aspect ratio band.
	RatioUnsatisfiable
	// UninitializedState means an operation ran before the image was set up.
	UninitializedState
	// InvalidConfiguration means the settings themselves are inconsistent.
	InvalidConfiguration
)

var kindNames = map[Kind]string{
	ContradictoryRestrictions: "contradictory_restrictions",
	RatioUnsatisfiable:        "ratio_unsatisfiable",
	UninitializedState:        "uninitialized_state",
	InvalidConfiguration:      "invalid_configuration",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Diagnostic is a non-fatal condition met while computing a state. The
// state it accompanies is always valid geometry.
type Diagnostic struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string { return d.Kind.String() + ": " + d.Message }

// Check reports configuration problems of settings applied to s.
func Check(s State, settings Settings) []Diagnostic {
	var out []Diagnostic
	if !s.Initialized() {
		out = append(out, Diagnostic{Kind: UninitializedState, Message: "cropper has no image or boundary yet"})
	}

	band := settings.AspectRatio.Resolve(s, settings, geometry.AspectRatio{})
	if band.Min() > band.Max() {
		out = append(out, Diagnostic{
			Kind:    InvalidConfiguration,
			Message: fmt.Sprintf("aspect ratio minimum %g exceeds maximum %g", band.Minimum, band.Maximum),
		})
	}

	configured := settings.SizeRestrictions.Resolve(s, settings, geometry.NoSizeRestrictions())
	invalidWidth := configured.MaxWidth > 0 && configured.MinWidth > configured.MaxWidth
	invalidHeight := configured.MaxHeight > 0 && configured.MinHeight > configured.MaxHeight
	if invalidWidth {
		out = append(out, Diagnostic{
			Kind:    InvalidConfiguration,
			Message: fmt.Sprintf("min width %g exceeds max width %g", configured.MinWidth, configured.MaxWidth),
		})
	}
	if invalidHeight {
		out = append(out, Diagnostic{
			Kind:    InvalidConfiguration,
			Message: fmt.Sprintf("min height %g exceeds max height %g", configured.MinHeight, configured.MaxHeight),
		})
	}

	if s.ImageSize.Width > 0 && s.ImageSize.Height > 0 {
		raw := rawSizeRestrictions(s, settings)
		if !invalidWidth && raw.MinWidth > raw.MaxWidth {
			out = append(out, Diagnostic{
				Kind:    ContradictoryRestrictions,
				Message: fmt.Sprintf("min width %g does not fit the image width %g", raw.MinWidth, raw.MaxWidth),
			})
		}
		if !invalidHeight && raw.MinHeight > raw.MaxHeight {
			out = append(out, Diagnostic{
				Kind:    ContradictoryRestrictions,
				Message: fmt.Sprintf("min height %g does not fit the image height %g", raw.MinHeight, raw.MaxHeight),
			})
		}
	}
	return out
}
