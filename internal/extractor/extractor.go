package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv/v2"
)

// Common errors
var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyDocument   = errors.New("document produced no text")
)

// supportedExtensions is the indexable file type allow-list
var supportedExtensions = []string{
	".pdf", ".docx", ".doc", ".xlsx", ".xls", ".pptx", ".ppt",
	".txt", ".csv", ".jpg", ".jpeg", ".png", ".tif", ".tiff",
}

// SupportedExtensions returns the indexable file extensions
func SupportedExtensions() []string {
	out := make([]string, len(supportedExtensions))
	copy(out, supportedExtensions)
	return out
}

// IsSupported reports whether filename has an indexable extension
func IsSupported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range supportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Extractor converts downloaded file content to plain text
type Extractor interface {
	Extract(ctx context.Context, filename string, content []byte) (string, error)
}

// DocconvExtractor extracts text via docconv, with a direct path for
// plain text formats
type DocconvExtractor struct{}

// New creates a document extractor
func New() *DocconvExtractor {
	return &DocconvExtractor{}
}

func (e *DocconvExtractor) Extract(ctx context.Context, filename string, content []byte) (string, error) {
	if !IsSupported(filename) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, filename)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt", ".csv":
		text := string(content)
		if strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("%w: %s", ErrEmptyDocument, filename)
		}
		return text, nil
	}

	res, err := docconv.Convert(bytes.NewReader(content), docconv.MimeTypeByExtension(filename), true)
	if err != nil {
		return "", fmt.Errorf("failed to convert %s: %w", filename, err)
	}
	if strings.TrimSpace(res.Body) == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyDocument, filename)
	}
	return res.Body, nil
}
