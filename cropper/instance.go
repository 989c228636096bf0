package cropper

import (
	"github.com/rs/zerolog"

	"cropkit/geometry"
)

// Instance is an interactive cropper: it owns the settings, the current
// state and the postprocess chain, and turns display-space gestures into
// state operations. An Instance is not safe for concurrent use.
type Instance struct {
	settings    Settings
	priority    Priority
	postprocess Pipeline
	logger      zerolog.Logger

	state       State
	diagnostics []Diagnostic
}

type Option func(*Instance)

func WithLogger(logger zerolog.Logger) Option {
	return func(i *Instance) { i.logger = logger }
}

// WithPostprocess appends steps to the chain run after every action.
func WithPostprocess(steps ...StateTransform) Option {
	return func(i *Instance) { i.postprocess = append(i.postprocess, steps...) }
}

func WithPriority(p Priority) Option {
	return func(i *Instance) { i.priority = p }
}

func NewInstance(settings Settings, opts ...Option) *Instance {
	i := &Instance{
		settings: settings,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Instance) State() State { return i.state }

func (i *Instance) Settings() Settings { return i.settings }

// Diagnostics returns what the last action reported.
func (i *Instance) Diagnostics() []Diagnostic { return i.diagnostics }

// Reset shows a new image in a boundary of the given size.
func (i *Instance) Reset(boundary, image geometry.Size, transforms geometry.Transforms) State {
	return i.run(Action{Name: ActionCreate, Immediately: true}, false, func(State) (State, bool) {
		s := CreateState(CreateOptions{
			Boundary:   boundary,
			ImageSize:  image,
			Transforms: transforms,
			Priority:   i.priority,
		}, i.settings)
		i.report(Check(s, i.settings)...)
		return s, true
	})
}

// SetSettings replaces the settings and repairs the state against them.
func (i *Instance) SetSettings(settings Settings) State {
	i.settings = settings
	return i.run(Action{Name: ActionSetSettings, Immediately: true}, true, func(s State) (State, bool) {
		i.report(Check(s, settings)...)
		return ReconcileState(s, settings), true
	})
}

// MoveCoordinates drags the crop rectangle by m display pixels.
func (i *Instance) MoveCoordinates(m geometry.MoveDirections) State {
	return i.run(Action{Name: ActionMoveCoordinates}, true, func(s State) (State, bool) {
		k := Coefficient(s)
		return MoveCoordinates(s, i.settings, geometry.MoveDirections{Left: m.Left * k, Top: m.Top * k}), true
	})
}

func (i *Instance) MoveCoordinatesEnd() State {
	return i.run(Action{Name: ActionMoveCoordinatesEnd, Immediately: true}, true, nil)
}

// ResizeCoordinates moves the crop rectangle's edges by directions display
// pixels.
func (i *Instance) ResizeCoordinates(directions geometry.Directions, opts geometry.ResizeOptions) State {
	return i.run(Action{Name: ActionResizeCoordinates}, true, func(s State) (State, bool) {
		k := Coefficient(s)
		return resizeCoordinates(s, i.settings, geometry.Directions{
			Left:   directions.Left * k,
			Top:    directions.Top * k,
			Right:  directions.Right * k,
			Bottom: directions.Bottom * k,
		}, opts)
	})
}

// ResizeFromAnchor drags a resize handle by delta display pixels.
func (i *Instance) ResizeFromAnchor(anchor geometry.Anchor, delta geometry.MoveDirections, opts geometry.AnchorResizeOptions) State {
	return i.run(Action{Name: ActionResizeCoordinates}, true, func(s State) (State, bool) {
		k := Coefficient(s)
		return resizeFromAnchor(s, i.settings, anchor, geometry.MoveDirections{Left: delta.Left * k, Top: delta.Top * k}, opts)
	})
}

func (i *Instance) ResizeCoordinatesEnd() State {
	return i.run(Action{Name: ActionResizeCoordinatesEnd, Immediately: true}, true, nil)
}

// TransformImage applies a pan and zoom gesture given in display space:
// Move is how far the image is dragged and Scale.Center is a point of the
// boundary.
func (i *Instance) TransformImage(t ImageTransform) State {
	return i.run(Action{Name: ActionTransformImage}, true, func(s State) (State, bool) {
		return TransformImage(s, i.settings, i.toImageTransform(s, t)), true
	})
}

// MoveImage drags the image by left/top display pixels.
func (i *Instance) MoveImage(left, top float64) State {
	return i.TransformImage(ImageTransform{Move: geometry.MoveDirections{Left: left, Top: top}})
}

// ZoomImage zooms by factor around center, a point of the boundary. A nil
// center zooms around the middle of the boundary.
func (i *Instance) ZoomImage(factor float64, center *geometry.Point) State {
	return i.TransformImage(ImageTransform{Scale: Scale{Factor: factor, Center: center}})
}

func (i *Instance) TransformImageEnd() State {
	return i.run(Action{Name: ActionTransformImageEnd, Immediately: true}, true, nil)
}

// RotateImage rotates by r.Angle degrees; r.Center is a point of the
// boundary.
func (i *Instance) RotateImage(r Rotation) State {
	return i.run(Action{Name: ActionRotateImage, Immediately: true}, true, func(s State) (State, bool) {
		if r.Center != nil {
			p := i.toImagePoint(s, *r.Center)
			r.Center = &p
		}
		return RotateImage(s, i.settings, r), true
	})
}

func (i *Instance) FlipImage(horizontal, vertical bool) State {
	return i.run(Action{Name: ActionFlipImage, Immediately: true}, true, func(s State) (State, bool) {
		return FlipImage(s, i.settings, horizontal, vertical), true
	})
}

// SetCoordinates places the crop rectangle (image space). It may leave the
// visible area; the postprocess chain gets the chance to follow it before
// the state is reconciled.
func (i *Instance) SetCoordinates(c geometry.Coordinates) State {
	return i.run(Action{Name: ActionSetCoordinates, Immediately: true}, true, func(s State) (State, bool) {
		return SetCoordinates(s, i.settings, false, ChangeTo(c)), true
	})
}

// SetVisibleArea replaces the visible area (image space).
func (i *Instance) SetVisibleArea(area geometry.Coordinates) State {
	return i.run(Action{Name: ActionSetVisibleArea, Immediately: true}, true, func(s State) (State, bool) {
		return SetVisibleArea(s, i.settings, area, true), true
	})
}

func (i *Instance) SetBoundary(boundary geometry.Size) State {
	return i.run(Action{Name: ActionSetBoundary, Immediately: true}, false, func(s State) (State, bool) {
		return SetBoundary(s, i.settings, boundary), true
	})
}

func (i *Instance) Reconcile() State {
	return i.run(Action{Name: ActionReconcile, Immediately: true}, true, func(s State) (State, bool) {
		return ReconcileState(s, i.settings), true
	})
}

// run applies op and then the postprocess chain. A nil op only runs the
// chain. Every action ends with a reconciliation so the invariants hold
// whatever the chain did.
func (i *Instance) run(action Action, needsInit bool, op func(State) (State, bool)) State {
	i.diagnostics = nil
	i.logger.Debug().Str("action", action.Name).Bool("immediately", action.Immediately).Msg("cropper action")

	if needsInit && !i.state.Initialized() {
		i.report(Diagnostic{Kind: UninitializedState, Message: action.Name + " ignored: cropper is not initialized"})
		return i.state
	}

	s := i.state
	if op != nil {
		next, ok := op(s)
		if !ok {
			i.report(Diagnostic{Kind: RatioUnsatisfiable, Message: action.Name + " dropped: the aspect ratio cannot be kept"})
		}
		s = next
	}
	s = i.postprocess.Apply(s, i.settings, action)
	if s.Initialized() {
		s = ReconcileState(s, i.settings)
	}
	i.state = s
	return s
}

func (i *Instance) report(diagnostics ...Diagnostic) {
	for _, d := range diagnostics {
		i.logger.Warn().Stringer("kind", d.Kind).Msg(d.Message)
	}
	i.diagnostics = append(i.diagnostics, diagnostics...)
}

func (i *Instance) toImagePoint(s State, p geometry.Point) geometry.Point {
	k := Coefficient(s)
	return geometry.Point{Left: s.VisibleArea.Left + p.Left*k, Top: s.VisibleArea.Top + p.Top*k}
}

func (i *Instance) toImageTransform(s State, t ImageTransform) ImageTransform {
	k := Coefficient(s)
	out := ImageTransform{
		Scale: Scale{Factor: t.Scale.Factor},
		Move:  geometry.MoveDirections{Left: -t.Move.Left * k, Top: -t.Move.Top * k},
	}
	if t.Scale.Center != nil {
		// The visible area has already moved when the zoom is applied.
		p := i.toImagePoint(s, *t.Scale.Center)
		p.Left += out.Move.Left
		p.Top += out.Move.Top
		out.Scale.Center = &p
	}
	return out
}
