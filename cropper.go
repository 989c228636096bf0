package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"

	"cropkit/cropper"
)

type ExportOptions struct {
	// Width resizes the crop to this many pixels wide, keeping its ratio.
	// Zero keeps the natural size.
	Width  int
	Format imaging.Format
}

// ImagingExporter cuts crops out of images with the disintegration/imaging
// library.
type ImagingExporter struct {
	Quality int
}

func NewImagingExporter() *ImagingExporter {
	return &ImagingExporter{Quality: 90}
}

// Export decodes the image from r, applies the crop's flip and rotation,
// cuts the crop rectangle and encodes the result to w.
//
// The image is decoded without EXIF auto-orientation: the cropper works in
// the stored orientation, the one the header probe reports.
func (e *ImagingExporter) Export(ctx context.Context, r io.Reader, w io.Writer, crop cropper.Crop, opts ExportOptions) error {
	src, err := imaging.Decode(r)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	img := image.Image(src)
	if crop.Transforms.Flip.Horizontal {
		img = imaging.FlipH(img)
	}
	if crop.Transforms.Flip.Vertical {
		img = imaging.FlipV(img)
	}
	img = rotate(img, crop.Transforms.Rotate)

	bounds := img.Bounds()
	c := crop.Coordinates
	// The state may have been computed for a differently sized copy of the
	// image.
	if crop.ImageSize.Width > 0 && float64(src.Bounds().Dx()) != crop.ImageSize.Width {
		k := float64(src.Bounds().Dx()) / crop.ImageSize.Width
		c.Left, c.Top, c.Width, c.Height = c.Left*k, c.Top*k, c.Width*k, c.Height*k
	}
	rect := image.Rect(
		bounds.Min.X+int(math.Round(c.Left)),
		bounds.Min.Y+int(math.Round(c.Top)),
		bounds.Min.X+int(math.Round(c.Left+c.Width)),
		bounds.Min.Y+int(math.Round(c.Top+c.Height)),
	).Intersect(bounds)
	if rect.Empty() {
		return fmt.Errorf("crop rectangle %v is outside image bounds %v", rect, bounds)
	}
	log.Ctx(ctx).Debug().
		Stringer("rect", rect).
		Float64("rotate", crop.Transforms.Rotate).
		Msg("cutting crop")

	out := imaging.Crop(img, rect)
	if opts.Width > 0 && opts.Width != out.Bounds().Dx() {
		out = imaging.Resize(out, opts.Width, 0, imaging.Lanczos)
	}
	return imaging.Encode(w, out, opts.Format, imaging.JPEGQuality(e.Quality))
}

// rotate turns img clockwise by angle degrees. Quarter turns are exact.
func rotate(img image.Image, angle float64) image.Image {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	switch angle {
	case 0:
		return img
	case 90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	}
	// imaging rotates counter-clockwise.
	return imaging.Rotate(img, -angle, color.Transparent)
}
