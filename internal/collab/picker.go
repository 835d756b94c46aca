// Package collab defines the media pickers the album draws its images
// and songs from.
package collab

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Asset is a picked media file.
type Asset struct {
	URI         string `json:"uri"`
	DisplayName string `json:"name"`
}

// Picker selects media. A cancelled pick returns an empty result and a
// nil error.
type Picker interface {
	PickImages(ctx context.Context) ([]Asset, error)
	PickAudioFile(ctx context.Context) (*Asset, error)
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".heic": true, ".webp": true,
}

var audioExts = map[string]bool{
	".mp3": true, ".m4a": true, ".aac": true, ".wav": true,
	".ogg": true, ".flac": true,
}

// FilePicker picks from paths given up front, e.g. on the command line.
// Empty inputs behave like a cancelled pick.
type FilePicker struct {
	Images []string
	Audio  string
}

// PickImages resolves every image path to an absolute file.
func (p FilePicker) PickImages(ctx context.Context) ([]Asset, error) {
	var out []Asset
	for _, path := range p.Images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		a, err := resolve(path, imageExts)
		if err != nil {
			return nil, fmt.Errorf("pick image: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}

// PickAudioFile resolves the audio path. It returns nil when none was given.
func (p FilePicker) PickAudioFile(ctx context.Context) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := strings.TrimSpace(p.Audio)
	if path == "" {
		return nil, nil
	}
	a, err := resolve(path, audioExts)
	if err != nil {
		return nil, fmt.Errorf("pick audio: %w", err)
	}
	return &a, nil
}

func resolve(path string, exts map[string]bool) (Asset, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Asset{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Asset{}, err
	}
	if info.IsDir() {
		return Asset{}, fmt.Errorf("%s is a directory", abs)
	}
	ext := strings.ToLower(filepath.Ext(abs))
	if !exts[ext] {
		return Asset{}, fmt.Errorf("%s: unsupported file type %q", abs, ext)
	}
	return Asset{URI: abs, DisplayName: filepath.Base(abs)}, nil
}
