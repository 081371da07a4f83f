// Package extract converts uploaded PDF and DOCX files into plain text.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"baliance.com/gooxml/document"
	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
)

// ErrUnsupported is returned for file types other than .pdf and .docx.
var ErrUnsupported = errors.New("unsupported file type")

// Timeout bounds a single PDF parse.
const Timeout = 30 * time.Second

// Supported reports whether filename has an extension Extractor handles.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".docx":
		return true
	}
	return false
}

// Extractor dispatches on the file extension.
type Extractor struct {
	pdf *pdf.PDFParser
}

// New builds an Extractor. The PDF parser yields the whole document as one
// text block rather than one per page.
func New(ctx context.Context) (*Extractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("create pdf parser: %w", err)
	}
	return &Extractor{pdf: p}, nil
}

// File extracts the text of the file at path.
func (e *Extractor) File(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return e.Bytes(ctx, filepath.Base(path), data)
}

// Bytes extracts the text of data; name is used for the extension only.
func (e *Extractor) Bytes(ctx context.Context, name string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return e.fromPDF(ctx, name, bytes.NewReader(data))
	case ".docx":
		return fromDOCX(bytes.NewReader(data), int64(len(data)))
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(name))
}

func (e *Extractor) fromPDF(ctx context.Context, uri string, r io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	docs, err := e.pdf.Parse(ctx, r, einoParser.WithURI(uri))
	if err != nil {
		return "", fmt.Errorf("parse pdf %s: %w", uri, err)
	}
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.Content)
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}

func fromDOCX(r io.ReaderAt, size int64) (string, error) {
	doc, err := document.Read(r, size)
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	var sb strings.Builder
	for _, p := range doc.Paragraphs() {
		for _, run := range p.Runs() {
			sb.WriteString(run.Text())
		}
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String()), nil
}

// Keywords returns the members of keywords (already lower-case) found in text,
// in the order given.
func Keywords(text string, keywords []string) []string {
	lower := strings.ToLower(text)
	found := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	return found
}
