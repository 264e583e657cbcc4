package preview

import (
	"bytes"
	"fmt"
	"image/png"
	"os"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// Renderer rasterizes the first page of a PDF for the template debug view.
type Renderer struct {
	logger *zap.Logger
}

// NewRenderer creates a preview renderer.
func NewRenderer(logger *zap.Logger) *Renderer {
	return &Renderer{logger: logger}
}

// FirstPagePNG renders page 1 of the document as PNG bytes.
func (r *Renderer) FirstPagePNG(path string) ([]byte, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("document not found: %s", path)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("document has no pages")
	}

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	r.logger.Debug("Rendered template preview",
		zap.String("path", path),
		zap.Int("bytes", buf.Len()))

	return buf.Bytes(), nil
}
