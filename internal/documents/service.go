// Package documents handles uploads: store the file, record the Document and
// report what the text extractor found in it.
package documents

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"jobmate/brain-service/internal/extract"
	"jobmate/brain-service/internal/filestore"
	"jobmate/brain-service/internal/logger"
	"jobmate/brain-service/internal/records"
)

// TextExtractor is satisfied by *extract.Extractor.
type TextExtractor interface {
	Bytes(ctx context.Context, name string, data []byte) (string, error)
}

// UploadResult describes a stored upload. ExtractError is set instead of
// TextChars and Keywords when the text could not be read; the Document is
// recorded either way.
type UploadResult struct {
	Document     records.Document `json:"document"`
	TextChars    int              `json:"textChars"`
	Keywords     []string         `json:"keywords"`
	ExtractError string           `json:"extractError,omitempty"`
}

// Service owns the upload flow.
type Service struct {
	records  records.Store
	files    filestore.Store
	text     TextExtractor
	keywords []string
}

// NewService builds the upload service. keywords are matched
// case-insensitively against extracted text.
func NewService(rs records.Store, fs filestore.Store, te TextExtractor, keywords []string) *Service {
	kws := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			kws = append(kws, kw)
		}
	}
	return &Service{records: rs, files: fs, text: te, keywords: kws}
}

// Upload stores content under filename and records it with docType.
func (s *Service) Upload(ctx context.Context, docType, filename string, content []byte) (*UploadResult, error) {
	dt, err := records.ParseDocType(docType)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, &records.ValidationError{Msg: "filename is required"}
	}
	if !extract.Supported(name) {
		return nil, &records.ValidationError{Msg: fmt.Sprintf("unsupported file type %q: upload a .pdf or .docx", filepath.Ext(name))}
	}

	path, err := s.files.Save(ctx, name, content)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	id, err := s.records.AddDocument(ctx, dt, name, path)
	if err != nil {
		return nil, err
	}
	doc, err := s.records.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	res := &UploadResult{Document: *doc, Keywords: []string{}}
	text, err := s.text.Bytes(ctx, name, content)
	if err != nil {
		logger.Warn().Err(err).Str("component", "documents").Int64("document_id", id).Msg("text extraction failed")
		res.ExtractError = err.Error()
		return res, nil
	}
	res.TextChars = utf8.RuneCountInString(text)
	res.Keywords = extract.Keywords(text, s.keywords)

	logger.Info().Str("component", "documents").Int64("document_id", id).
		Str("doc_type", string(dt)).Int("chars", res.TextChars).Msg("document uploaded")
	return res, nil
}

// Open returns the stored document and a reader over its bytes.
func (s *Service) Open(ctx context.Context, id int64) (*records.Document, io.ReadCloser, error) {
	doc, err := s.records.GetDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.files.Open(ctx, doc.FilePath)
	if err != nil {
		return nil, nil, err
	}
	return doc, rc, nil
}

// OpenPath returns a reader over a stored file, e.g. the last résumé found in
// a chat session.
func (s *Service) OpenPath(ctx context.Context, path string) (io.ReadCloser, error) {
	return s.files.Open(ctx, path)
}
