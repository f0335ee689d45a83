package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"lexguard-go/internal/model"
)

// TextExtractor is the extraction backend for binary formats, satisfied by
// the Tika client.
type TextExtractor interface {
	ExtractText(fileReader io.Reader, fileName string) (string, error)
}

// Extractor converts a raw document blob into plain text, dispatching on
// the file extension.
type Extractor struct {
	tika TextExtractor
}

// NewExtractor creates an Extractor.
func NewExtractor(tika TextExtractor) *Extractor {
	return &Extractor{tika: tika}
}

// Extract returns the plain text of a document. Plain-text formats are
// decoded directly; binary formats go through Tika. An unknown extension
// returns model.ErrUnsupportedFormat, which the pipeline treats as a skip.
func (e *Extractor) Extract(content []byte, fileName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".txt", ".md":
		return string(content), nil
	case ".pdf", ".doc", ".docx":
		text, err := e.tika.ExtractText(bytes.NewReader(content), fileName)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from '%s': %w", fileName, err)
		}
		return text, nil
	default:
		return "", fmt.Errorf("extension '%s': %w", ext, model.ErrUnsupportedFormat)
	}
}
