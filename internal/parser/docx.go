package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXParser extracts plain text from Word .docx files. The first
// Heading 1 paragraph becomes the title; every other paragraph lands in
// the body.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*Result, error) {
	// go-docx reads the zip container through a ReaderAt plus size.
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading docx: %w", err)
	}

	doc, err := docx.Parse(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	result := &Result{Title: titleFromFilename(filename)}
	titleFromHeading := false

	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		if docxHeadingLevel(para) == 1 && !titleFromHeading {
			result.Title = text
			titleFromHeading = true
			continue
		}
		paragraphs = append(paragraphs, text)
	}

	result.Text = strings.Join(paragraphs, "\n\n")
	return result, nil
}

// docxHeadingLevel maps paragraph styles like "Heading1" or "heading 2"
// to their outline level, or 0 for body text.
func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	n := strings.TrimPrefix(style, "heading")
	if n == style || len(n) != 1 || n[0] < '1' || n[0] > '9' {
		return 0
	}
	return int(n[0] - '0')
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
