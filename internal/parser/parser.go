// Package parser extracts plain text from uploaded source files. Each format
// flattens to a title plus paragraph-separated text; structure-aware chunking
// happens downstream, so parsers only need to preserve paragraph boundaries.
package parser

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// Result holds the text extracted from one source file.
type Result struct {
	// Title is taken from the document itself when the format carries one
	// (HTML <title>, first Markdown heading), otherwise the filename stem.
	Title string
	// Text is the full extracted content, paragraphs separated by blank
	// lines.
	Text string
}

// Parser converts raw file bytes into a Result.
type Parser interface {
	Parse(r io.Reader, filename string) (*Result, error)
}

// ErrUnsupported is returned for file types no parser handles.
var ErrUnsupported = errors.New("unsupported file type")

// SupportedExtensions lists file extensions this service can ingest.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".text":     true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the parser responsible for a filename.
func ForFile(filename string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".text":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, ErrUnsupported
	}
}

// Parse extracts text from r using the parser matching filename.
func Parse(r io.Reader, filename string) (*Result, error) {
	p, err := ForFile(filename)
	if err != nil {
		return nil, err
	}
	return p.Parse(r, filename)
}

// ImageExtensions lists image formats the service stores without parsing;
// a vision model later derives their text description.
var ImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// IsSupportedExtension checks whether a filename can be ingested.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// IsImageExtension checks whether a filename is a stored-only image.
func IsImageExtension(filename string) bool {
	return ImageExtensions[strings.ToLower(filepath.Ext(filename))]
}

// titleFromFilename derives a fallback title from the filename stem.
func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
