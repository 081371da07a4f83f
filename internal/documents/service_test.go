package documents_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/brain-service/internal/documents"
	"jobmate/brain-service/internal/filestore"
	"jobmate/brain-service/internal/records"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) Bytes(context.Context, string, []byte) (string, error) {
	return f.text, f.err
}

func newService(t *testing.T, te documents.TextExtractor) (*documents.Service, *records.MemoryStore) {
	t.Helper()
	fs, err := filestore.NewLocal(t.TempDir())
	require.NoError(t, err)
	rs := records.NewMemoryStore()
	return documents.NewService(rs, fs, te, []string{"Experience", "education", "skills"}), rs
}

func TestUpload_ReportsKeywords(t *testing.T) {
	svc, rs := newService(t, fakeExtractor{text: "Work EXPERIENCE\nSkills: Go"})
	ctx := context.Background()

	res, err := svc.Upload(ctx, "Resume", "cv.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, records.DocResume, res.Document.DocType)
	assert.Equal(t, "cv.pdf", res.Document.Filename)
	assert.Equal(t, 26, res.TextChars)
	assert.Equal(t, []string{"experience", "skills"}, res.Keywords)
	assert.Empty(t, res.ExtractError)

	resumes, err := rs.ListResumes(ctx)
	require.NoError(t, err)
	require.Len(t, resumes, 1)
}

func TestUpload_ExtractionFailureKeepsDocument(t *testing.T) {
	svc, rs := newService(t, fakeExtractor{err: errors.New("corrupt xref table")})
	ctx := context.Background()

	res, err := svc.Upload(ctx, "jd", "posting.docx", []byte("junk"))
	require.NoError(t, err)
	assert.Equal(t, "corrupt xref table", res.ExtractError)
	assert.Zero(t, res.TextChars)

	doc, err := rs.GetDocument(ctx, res.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, records.DocJD, doc.DocType)
}

func TestUpload_Rejects(t *testing.T) {
	svc, _ := newService(t, fakeExtractor{})
	ctx := context.Background()

	tests := []struct {
		name     string
		docType  string
		filename string
	}{
		{"bad doc type", "photo", "cv.pdf"},
		{"bad extension", "resume", "cv.txt"},
		{"empty filename", "resume", "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, tt.docType, tt.filename, []byte("x"))
			var ve *records.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestUpload_SanitisesFilename(t *testing.T) {
	svc, _ := newService(t, fakeExtractor{text: "x"})
	res, err := svc.Upload(context.Background(), "notes", "../../secret/notes.pdf", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "notes.pdf", res.Document.Filename)
}

func TestOpen(t *testing.T) {
	svc, _ := newService(t, fakeExtractor{text: "x"})
	ctx := context.Background()
	res, err := svc.Upload(ctx, "cover letter", "letter.docx", []byte("hello"))
	require.NoError(t, err)

	doc, rc, err := svc.Open(ctx, res.Document.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, records.DocCoverLetter, doc.DocType)

	_, _, err = svc.Open(ctx, 9999)
	assert.ErrorIs(t, err, records.ErrNotFound)
}
