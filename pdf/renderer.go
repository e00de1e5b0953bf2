package pdf

import (
	"fmt"
	"log/slog"

	"go-pan-validator/images"

	"github.com/gen2brain/go-fitz"
)

// Renderer implements the page-source collaborator on top of MuPDF
// (go-fitz): page counting, embedded text extraction, and rasterization of
// page ranges to JPEG.
type Renderer struct {
	jpegQuality int
}

func NewRenderer(jpegQuality int) *Renderer {
	return &Renderer{jpegQuality: jpegQuality}
}

func (r *Renderer) PageCount(pdf []byte) (int, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	return doc.NumPage(), nil
}

// PageText returns the embedded text of a zero-based page.
func (r *Renderer) PageText(pdf []byte, page int) (string, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if page < 0 || page >= doc.NumPage() {
		return "", fmt.Errorf("page %d out of range, document has %d pages", page, doc.NumPage())
	}

	text, err := doc.Text(page)
	if err != nil {
		return "", fmt.Errorf("failed to extract text of page %d: %w", page, err)
	}
	return text, nil
}

// RenderJPEG rasterizes the zero-based page range [first, last] at the given
// DPI. Pages beyond the end of the document are skipped, so callers may get
// fewer images than the range suggests.
func (r *Renderer) RenderJPEG(pdf []byte, first, last, dpi int) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var rendered [][]byte
	for page := first; page <= last && page < doc.NumPage(); page++ {
		img, err := doc.ImageDPI(page, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("failed to rasterize page %d: %w", page, err)
		}

		data, err := images.EncodeJPEG(img, r.jpegQuality)
		if err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", page, err)
		}
		rendered = append(rendered, data)
	}

	slog.Debug("Rasterized page range", "first", first, "last", last, "dpi", dpi, "images", len(rendered))
	return rendered, nil
}
