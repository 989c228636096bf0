package main

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"cropkit/cropper"
	"cropkit/geometry"
)

var ErrUnknownAction = errors.New("unknown action")

type Operations = []Operation

// Operation is one cropper action of a script. On the wire it is an object
// with a "type" field and the action's parameters next to it. Display-space
// actions (moves, resizes, image transforms) take boundary pixels.
type Operation struct {
	MoveCoordinates   *MoveOperation
	ResizeCoordinates *ResizeOperation
	ResizeFromAnchor  *AnchorOperation
	MoveImage         *MoveOperation
	ZoomImage         *ZoomOperation
	TransformImage    *cropper.ImageTransform
	RotateImage       *cropper.Rotation
	FlipImage         *FlipOperation
	SetCoordinates    *geometry.Coordinates
	SetVisibleArea    *geometry.Coordinates
	SetBoundary       *geometry.Size
	// End finishes a gesture: "move", "resize" or "transform".
	End       string
	Reconcile bool
}

type MoveOperation struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

type ResizeOperation struct {
	Directions geometry.Directions `json:"directions"`
	// Edges lists the edges allowed to move; empty means all.
	Edges            []string `json:"edges,omitempty"`
	PreserveRatio    bool     `json:"preserve_ratio,omitempty"`
	RespectDirection string   `json:"respect,omitempty"`
	Compensate       bool     `json:"compensate,omitempty"`
}

type AnchorOperation struct {
	Anchor        geometry.Anchor         `json:"anchor"`
	Delta         geometry.MoveDirections `json:"delta"`
	Symmetric     bool                    `json:"symmetric,omitempty"`
	PreserveRatio bool                    `json:"preserve_ratio,omitempty"`
	Compensate    bool                    `json:"compensate,omitempty"`
}

type ZoomOperation struct {
	Factor float64         `json:"factor"`
	Center *geometry.Point `json:"center,omitempty"`
}

type FlipOperation struct {
	Horizontal bool `json:"horizontal"`
	Vertical   bool `json:"vertical"`
}

func (o *Operation) UnmarshalJSON(data []byte) error {
	var op struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &op); err != nil {
		return fmt.Errorf("failed to unmarshal operation: %w", err)
	}

	var target any
	switch op.Type {
	case "move_coordinates":
		o.MoveCoordinates = &MoveOperation{}
		target = o.MoveCoordinates
	case "resize_coordinates":
		o.ResizeCoordinates = &ResizeOperation{}
		target = o.ResizeCoordinates
	case "resize_from_anchor":
		o.ResizeFromAnchor = &AnchorOperation{}
		target = o.ResizeFromAnchor
	case "move_image":
		o.MoveImage = &MoveOperation{}
		target = o.MoveImage
	case "zoom_image":
		o.ZoomImage = &ZoomOperation{}
		target = o.ZoomImage
	case "transform_image":
		o.TransformImage = &cropper.ImageTransform{}
		target = o.TransformImage
	case "rotate_image":
		o.RotateImage = &cropper.Rotation{}
		target = o.RotateImage
	case "flip_image":
		o.FlipImage = &FlipOperation{}
		target = o.FlipImage
	case "set_coordinates":
		var wrapper struct {
			Coordinates geometry.Coordinates `json:"coordinates"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return fmt.Errorf("failed to unmarshal %s operation: %w", op.Type, err)
		}
		o.SetCoordinates = &wrapper.Coordinates
		return nil
	case "set_visible_area":
		var wrapper struct {
			VisibleArea geometry.Coordinates `json:"visible_area"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return fmt.Errorf("failed to unmarshal %s operation: %w", op.Type, err)
		}
		o.SetVisibleArea = &wrapper.VisibleArea
		return nil
	case "set_boundary":
		var wrapper struct {
			Boundary geometry.Size `json:"boundary"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return fmt.Errorf("failed to unmarshal %s operation: %w", op.Type, err)
		}
		o.SetBoundary = &wrapper.Boundary
		return nil
	case "end":
		var wrapper struct {
			Gesture string `json:"gesture"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return fmt.Errorf("failed to unmarshal %s operation: %w", op.Type, err)
		}
		switch wrapper.Gesture {
		case "move", "resize", "transform":
		default:
			return fmt.Errorf("%w: cannot end gesture %q", ErrUnknownAction, wrapper.Gesture)
		}
		o.End = wrapper.Gesture
		return nil
	case "reconcile":
		o.Reconcile = true
		return nil
	default:
		return fmt.Errorf("%w %q", ErrUnknownAction, op.Type)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal %s operation: %w", op.Type, err)
	}
	return nil
}

// Apply runs the operation on i.
func (o Operation) Apply(i *cropper.Instance) (cropper.State, error) {
	switch {
	case o.MoveCoordinates != nil:
		return i.MoveCoordinates(geometry.MoveDirections{Left: o.MoveCoordinates.Left, Top: o.MoveCoordinates.Top}), nil
	case o.ResizeCoordinates != nil:
		opts, err := o.ResizeCoordinates.options()
		if err != nil {
			return i.State(), err
		}
		return i.ResizeCoordinates(o.ResizeCoordinates.Directions, opts), nil
	case o.ResizeFromAnchor != nil:
		a := o.ResizeFromAnchor
		return i.ResizeFromAnchor(a.Anchor, a.Delta, geometry.AnchorResizeOptions{
			ResizeOptions: geometry.ResizeOptions{PreserveRatio: a.PreserveRatio, Compensate: a.Compensate},
			Symmetric:     a.Symmetric,
		}), nil
	case o.MoveImage != nil:
		return i.MoveImage(o.MoveImage.Left, o.MoveImage.Top), nil
	case o.ZoomImage != nil:
		return i.ZoomImage(o.ZoomImage.Factor, o.ZoomImage.Center), nil
	case o.TransformImage != nil:
		return i.TransformImage(*o.TransformImage), nil
	case o.RotateImage != nil:
		return i.RotateImage(*o.RotateImage), nil
	case o.FlipImage != nil:
		return i.FlipImage(o.FlipImage.Horizontal, o.FlipImage.Vertical), nil
	case o.SetCoordinates != nil:
		return i.SetCoordinates(*o.SetCoordinates), nil
	case o.SetVisibleArea != nil:
		return i.SetVisibleArea(*o.SetVisibleArea), nil
	case o.SetBoundary != nil:
		return i.SetBoundary(*o.SetBoundary), nil
	case o.End == "move":
		return i.MoveCoordinatesEnd(), nil
	case o.End == "resize":
		return i.ResizeCoordinatesEnd(), nil
	case o.End == "transform":
		return i.TransformImageEnd(), nil
	case o.Reconcile:
		return i.Reconcile(), nil
	}
	return i.State(), ErrUnknownAction
}

func (r ResizeOperation) options() (geometry.ResizeOptions, error) {
	opts := geometry.ResizeOptions{PreserveRatio: r.PreserveRatio, Compensate: r.Compensate}
	for _, name := range r.Edges {
		switch strings.ToLower(name) {
		case "left":
			opts.AllowedDirections |= geometry.EdgeLeft
		case "top":
			opts.AllowedDirections |= geometry.EdgeTop
		case "right":
			opts.AllowedDirections |= geometry.EdgeRight
		case "bottom":
			opts.AllowedDirections |= geometry.EdgeBottom
		default:
			return opts, fmt.Errorf("unknown edge %q", name)
		}
	}
	switch r.RespectDirection {
	case "", "auto":
	case "width":
		opts.RespectDirection = geometry.RespectWidth
	case "height":
		opts.RespectDirection = geometry.RespectHeight
	default:
		return opts, fmt.Errorf("unknown respect direction %q", r.RespectDirection)
	}
	return opts, nil
}

// Job replays a script of operations on one image.
type Job struct {
	Filename   string              `json:"filename"`
	Boundary   geometry.Size       `json:"boundary"`
	Transforms geometry.Transforms `json:"transforms"`
	Actions    Operations          `json:"actions"`
	// Width resizes the exported crop.
	Width int `json:"width,omitempty"`
}

type JobResult struct {
	Index       int                  `json:"-"`
	Filename    string               `json:"filename"`
	State       cropper.State        `json:"state"`
	Crop        cropper.Crop         `json:"crop"`
	Diagnostics []cropper.Diagnostic `json:"diagnostics,omitempty"`
	Output      string               `json:"output,omitempty"`
}

type Exporter interface {
	Export(ctx context.Context, r io.Reader, w io.Writer, crop cropper.Crop, opts ExportOptions) error
}

type JobExecutor struct {
	BaseDir   string
	OutputDir string
	Exporter  Exporter
	// NewInstance builds the cropper a job runs on.
	NewInstance func() *cropper.Instance
	// DryRun computes the states without writing crops.
	DryRun bool
}

// Exec runs the jobs concurrently and returns their results in job order.
func (r JobExecutor) Exec(ctx context.Context, jobs []Job) ([]JobResult, error) {
	if len(jobs) == 0 {
		log.Ctx(ctx).Warn().Msg("no jobs to execute")
		return nil, nil
	}

	if !r.DryRun {
		if err := os.MkdirAll(r.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", r.OutputDir, err)
		}
	}

	pooler := pool.NewWithResults[JobResult]().WithContext(ctx).WithMaxGoroutines(runtime.NumCPU())
	for index, job := range jobs {
		pooler.Go(func(ctx context.Context) (JobResult, error) {
			result, err := r.executeJob(ctx, job)
			if err != nil {
				log.Ctx(ctx).Error().Err(err).
					Str("filename", job.Filename).
					Msg("failed to execute job")
				return result, err
			}
			result.Index = index
			return result, nil
		})
	}

	results, err := pooler.Wait()
	slices.SortFunc(results, func(a, b JobResult) int { return a.Index - b.Index })
	if err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Msg("finished with errors")
		return results, err
	}
	return results, nil
}

func (r JobExecutor) executeJob(ctx context.Context, job Job) (JobResult, error) {
	logger := log.Ctx(ctx).With().Str("filename", job.Filename).Logger()
	logger.Info().Int("actions", len(job.Actions)).Msg("replaying")

	sourcePath, err := resolvePath(r.BaseDir, job.Filename)
	if err != nil {
		return JobResult{}, err
	}
	info, err := readImageInfo(sourcePath)
	if err != nil {
		return JobResult{}, err
	}

	instance := r.NewInstance()
	instance.Reset(job.Boundary, info.Size(), job.Transforms)
	diagnostics := slices.Clone(instance.Diagnostics())
	for n, action := range job.Actions {
		if _, err := action.Apply(instance); err != nil {
			return JobResult{}, fmt.Errorf("action %d: %w", n, err)
		}
		diagnostics = append(diagnostics, instance.Diagnostics()...)
	}

	state := instance.State()
	crop, ok := cropper.Result(state)
	if !ok {
		return JobResult{}, fmt.Errorf("%s: cropper did not initialize for boundary %vx%v", job.Filename, job.Boundary.Width, job.Boundary.Height)
	}
	result := JobResult{
		Filename:    job.Filename,
		State:       state,
		Crop:        crop,
		Diagnostics: diagnostics,
	}
	if r.DryRun {
		return result, nil
	}

	result.Output, err = r.exportCrop(ctx, sourcePath, crop, job.Width)
	if err != nil {
		return result, err
	}
	return result, nil
}

// exportCrop writes the crop of the image at sourcePath to the output
// directory and returns the written path.
func (r JobExecutor) exportCrop(ctx context.Context, sourcePath string, crop cropper.Crop, width int) (string, error) {
	f, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", sourcePath, err)
	}
	defer f.Close()

	format, err := imaging.FormatFromFilename(sourcePath)
	if err != nil {
		format = imaging.JPEG
	}
	var b bytes.Buffer
	if err := r.Exporter.Export(ctx, f, &b, crop, ExportOptions{Width: width, Format: format}); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(sourcePath))
	if format == imaging.JPEG {
		ext = ".jpg"
	}
	newName := fmt.Sprintf("%s-%s%s", strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath)), cropID(crop), ext)
	croppedPath := filepath.Join(r.OutputDir, newName)
	if err := os.MkdirAll(r.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", r.OutputDir, err)
	}
	wf, err := os.Create(croppedPath)
	if err != nil {
		return "", fmt.Errorf("failed to create cropped file %s: %w", newName, err)
	}
	defer wf.Close()
	if _, err := b.WriteTo(wf); err != nil {
		return "", fmt.Errorf("failed to write cropped data to file %s: %w", newName, err)
	}
	log.Ctx(ctx).Info().Str("output", croppedPath).Msg("crop written")
	return croppedPath, nil
}

// cropID names a crop after its geometry so repeated exports of the same
// crop overwrite each other.
func cropID(crop cropper.Crop) string {
	c := crop.Coordinates
	key := fmt.Sprintf("crop(x=%.2f,y=%.2f,w=%.2f,h=%.2f,r=%.2f,fh=%t,fv=%t)",
		c.Left, c.Top, c.Width, c.Height,
		crop.Transforms.Rotate, crop.Transforms.Flip.Horizontal, crop.Transforms.Flip.Vertical)
	return fmt.Sprintf("%x", md5.Sum([]byte(key)))[:12]
}
