package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"

	"cropkit/geometry"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

type ImageInfo struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

// Size is the natural size the cropper works in.
func (i ImageInfo) Size() geometry.Size {
	return geometry.Size{Width: float64(i.Width), Height: float64(i.Height)}
}

type FileInfo struct {
	Name       string    `json:"name"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
	URL        string    `json:"url"`
	Image      ImageInfo `json:"image"`
}

type Directory struct {
	Name  string     `json:"name"`
	Files []FileInfo `json:"files"`
}

func isImage(path string) bool {
	return slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(path)))
}

func walkImages(ctx context.Context, rootPath string) (Directory, error) {
	var files []FileInfo

	if err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isImage(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to get file info: %w", err)
		}
		relPath, err := filepath.Rel(rootPath, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}
		files = append(files, FileInfo{
			Name:       filepath.ToSlash(relPath),
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime(),
		})
		return nil
	}); err != nil {
		return Directory{}, err
	}

	for i := range files {
		img, err := readImageInfo(filepath.Join(rootPath, filepath.FromSlash(files[i].Name)))
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("filename", files[i].Name).Msg("cannot read image dimensions")
			continue
		}
		files[i].Image = img
	}

	return Directory{
		Name:  filepath.Base(rootPath),
		Files: files,
	}, nil
}

// readImageInfo sniffs the file type from its magic bytes and reads the
// natural size from the image header without decoding the pixels.
func readImageInfo(filePath string) (ImageInfo, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	head := make([]byte, 261)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return ImageInfo{}, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	kind, _ := filetype.Match(head[:n])
	if !filetype.IsImage(head[:n]) {
		return ImageInfo{}, fmt.Errorf("%s is not an image (detected %q)", filePath, kind.MIME.Value)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return ImageInfo{}, fmt.Errorf("failed to rewind %s: %w", filePath, err)
	}

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("failed to read image header of %s: %w", filePath, err)
	}
	return ImageInfo{Width: cfg.Width, Height: cfg.Height, Format: kind.Extension}, nil
}

// resolvePath joins name to root and rejects paths that leave it.
func resolvePath(root, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside of the root directory", name)
	}
	return filepath.Join(root, cleaned), nil
}
