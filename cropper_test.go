package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropkit/cropper"
	"cropkit/geometry"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

// twoTone is 200x100, red on the left half and blue on the right.
func twoTone() *image.NRGBA {
	img := imaging.New(200, 100, red)
	return imaging.Paste(img, imaging.New(100, 100, blue), image.Pt(100, 0))
}

func writeTestImage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, imaging.Save(twoTone(), path))
	return path
}

func exportTwoTone(t *testing.T, crop cropper.Crop, opts ExportOptions) image.Image {
	t.Helper()
	var src, dst bytes.Buffer
	require.NoError(t, imaging.Encode(&src, twoTone(), imaging.PNG))

	opts.Format = imaging.PNG
	require.NoError(t, NewImagingExporter().Export(context.Background(), &src, &dst, crop, opts))
	out, err := imaging.Decode(&dst)
	require.NoError(t, err)
	return out
}

func assertColor(t *testing.T, want color.NRGBA, img image.Image, x, y int) {
	t.Helper()
	got := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	assert.Equal(t, want, got, "pixel at %d,%d", x, y)
}

func TestExportCrop(t *testing.T) {
	out := exportTwoTone(t, cropper.Crop{
		ImageSize:   geometry.Size{Width: 200, Height: 100},
		Coordinates: geometry.Coordinates{Left: 100, Top: 0, Width: 100, Height: 100},
	}, ExportOptions{})

	assert.Equal(t, image.Pt(100, 100), out.Bounds().Size())
	assertColor(t, blue, out, 0, 0)
	assertColor(t, blue, out, 99, 99)
}

func TestExportFlip(t *testing.T) {
	out := exportTwoTone(t, cropper.Crop{
		ImageSize:   geometry.Size{Width: 200, Height: 100},
		Transforms:  geometry.Transforms{Flip: geometry.Flip{Horizontal: true}},
		Coordinates: geometry.Coordinates{Width: 100, Height: 100},
	}, ExportOptions{})

	assertColor(t, blue, out, 50, 50)
}

func TestExportRotate(t *testing.T) {
	// Turned clockwise the left half ends up on top.
	crop := cropper.Crop{
		ImageSize:   geometry.Size{Width: 200, Height: 100},
		Transforms:  geometry.Transforms{Rotate: 90},
		Coordinates: geometry.Coordinates{Left: 0, Top: 0, Width: 100, Height: 200},
	}
	out := exportTwoTone(t, crop, ExportOptions{})
	assert.Equal(t, image.Pt(100, 200), out.Bounds().Size())
	assertColor(t, red, out, 50, 20)
	assertColor(t, blue, out, 50, 180)

	crop.Transforms.Rotate = -90
	out = exportTwoTone(t, crop, ExportOptions{})
	assertColor(t, blue, out, 50, 20)
	assertColor(t, red, out, 50, 180)
}

func TestExportResizeAndRescale(t *testing.T) {
	// The state was computed for a half-size copy of the image.
	out := exportTwoTone(t, cropper.Crop{
		ImageSize:   geometry.Size{Width: 100, Height: 50},
		Coordinates: geometry.Coordinates{Left: 50, Top: 0, Width: 50, Height: 50},
	}, ExportOptions{})
	assert.Equal(t, image.Pt(100, 100), out.Bounds().Size())
	assertColor(t, blue, out, 10, 10)

	out = exportTwoTone(t, cropper.Crop{
		ImageSize:   geometry.Size{Width: 200, Height: 100},
		Coordinates: geometry.Coordinates{Left: 20, Top: 10, Width: 160, Height: 80},
	}, ExportOptions{Width: 80})
	assert.Equal(t, image.Pt(80, 40), out.Bounds().Size())
}

func TestExportOutsideImage(t *testing.T) {
	var src, dst bytes.Buffer
	require.NoError(t, imaging.Encode(&src, twoTone(), imaging.PNG))

	err := NewImagingExporter().Export(context.Background(), &src, &dst, cropper.Crop{
		ImageSize:   geometry.Size{Width: 200, Height: 100},
		Coordinates: geometry.Coordinates{Left: 300, Top: 0, Width: 50, Height: 50},
	}, ExportOptions{Format: imaging.PNG})
	assert.Error(t, err)
	assert.Zero(t, dst.Len())
}

func TestReadImageInfo(t *testing.T) {
	dir := t.TempDir()
	for name, format := range map[string]string{"a.png": "png", "b.jpg": "jpg", "c.gif": "gif"} {
		info, err := readImageInfo(writeTestImage(t, dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, ImageInfo{Width: 200, Height: 100, Format: format}, info, name)
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not an image"), 0o644))
	_, err := readImageInfo(filepath.Join(dir, "broken.png"))
	assert.ErrorContains(t, err, "not an image")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.png"), nil, 0o644))
	_, err = readImageInfo(filepath.Join(dir, "empty.png"))
	assert.Error(t, err)
}

func TestWalkImages(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, dir, "a.png")
	writeTestImage(t, dir, filepath.Join("nested", "b.JPG"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	got, err := walkImages(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, got.Files, 2)
	assert.Equal(t, "a.png", got.Files[0].Name)
	assert.Equal(t, "nested/b.JPG", got.Files[1].Name)
	assert.Equal(t, 200, got.Files[1].Image.Width)
}

func TestResolvePath(t *testing.T) {
	got, err := resolvePath("/srv/images", "a/b.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/images", "a", "b.png"), got)

	for _, name := range []string{"../etc/passwd", "a/../../b.png", "/etc/passwd"} {
		_, err := resolvePath("/srv/images", name)
		assert.Error(t, err, name)
	}
}
