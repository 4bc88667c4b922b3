package fingerprint

import (
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"docfactory/internal/services"
)

// RenderFunc produces the first-page image of a non-image document (PDF).
type RenderFunc func(path string) (image.Image, error)

// Engine computes perceptual fingerprints for documents on disk. Image files
// are decoded directly; anything else is rendered through the injected
// RenderFunc.
type Engine struct {
	render RenderFunc
}

// NewEngine constructs an Engine. render may be nil when only image inputs
// are expected.
func NewEngine(render RenderFunc) *Engine {
	return &Engine{render: render}
}

// Compute derives the fingerprint for the document at path. Fingerprints are
// computed from rendered visual content, never from raw file bytes.
func (e *Engine) Compute(path string) (Fingerprint, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff":
		img, err := imaging.Open(path)
		if err != nil {
			return 0, services.Wrap(services.ErrFile, "fingerprint", "decode image", path, err)
		}
		return FromImage(img), nil
	default:
		if e == nil || e.render == nil {
			return 0, services.Wrap(services.ErrProcessing, "fingerprint", "render", "no renderer configured for "+ext, nil)
		}
		img, err := e.render(path)
		if err != nil {
			return 0, services.Wrap(services.ErrProcessing, "fingerprint", "render first page", path, err)
		}
		return FromImage(img), nil
	}
}
