package records_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/brain-service/internal/db"
	"jobmate/brain-service/internal/records"
)

// ─── Store backends ──────────────────────────────────────────────────────────

type backend struct {
	name string
	open func(t *testing.T) records.Store
}

// backends lists every Store implementation. PostgreSQL joins only when
// BRAIN_TEST_DATABASE_URL points at a disposable database; its tables are
// emptied before each test.
func backends() []backend {
	return []backend{
		{name: "memory", open: func(*testing.T) records.Store { return records.NewMemoryStore() }},
		{name: "postgres", open: func(t *testing.T) records.Store { return records.NewPostgresStore(testPool(t)) }},
	}
}

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("BRAIN_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("BRAIN_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.NewPostgresPool(ctx, url, db.PoolOptions{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	// Running the DDL twice checks it is idempotent.
	require.NoError(t, db.EnsureSchema(ctx, pool))
	require.NoError(t, db.EnsureSchema(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE applications, jobs, documents RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return pool
}

// eachStore runs fn once per backend as a subtest.
func eachStore(t *testing.T, fn func(t *testing.T, s records.Store)) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			fn(t, b.open(t))
		})
	}
}

func addResume(t *testing.T, s records.Store, name string) int64 {
	t.Helper()
	id, err := s.AddDocument(context.Background(), records.DocResume, name, "data/uploads/"+name)
	require.NoError(t, err)
	return id
}

func logApp(t *testing.T, s records.Store, company, role string, resumeID int64) int64 {
	t.Helper()
	jobID, _, err := records.LogApplication(context.Background(), s, records.JobInput{
		Company:     company,
		Role:        role,
		DateApplied: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:      "applied",
	}, resumeID)
	require.NoError(t, err)
	return jobID
}

// ─── Documents ───────────────────────────────────────────────────────────────

func TestAddDocument_StoresCanonicalType(t *testing.T) {
	eachStore(t, func(t *testing.T, s records.Store) {
		ctx := context.Background()

		id, err := s.AddDocument(ctx, records.DocType("Resume"), "cv.pdf", "data/uploads/cv.pdf")
		require.NoError(t, err)
		letterID, err := s.AddDocument(ctx, records.DocType("Cover Letter"), "letter.docx", "data/uploads/letter.docx")
		require.NoError(t, err)

		doc, err := s.GetDocument(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, records.DocResume, doc.DocType)
		letter, err := s.GetDocument(ctx, letterID)
		require.NoError(t, err)
		assert.Equal(t, records.DocCoverLetter, letter.DocType)

		resumes, err := s.ListResumes(ctx)
		require.NoError(t, err)
		require.Len(t, resumes, 1)
		assert.Equal(t, id, resumes[0].ID)

		jobID, err := s.AddJob(ctx, records.JobInput{Company: "Acme", Role: "SRE"})
		require.NoError(t, err)
		_, err = s.AddApplication(ctx, jobID, id)
		assert.NoError(t, err, "a document uploaded as \"Resume\" is a résumé")
	})
}

func TestAddDocument_UnknownType(t *testing.T) {
	eachStore(t, func(t *testing.T, s records.Store) {
		_, err := s.AddDocument(context.Background(), records.DocType("photo"), "me.png", "data/uploads/me.png")
		var ve *records.ValidationError
		assert.ErrorAs(t, err, &ve)

		_, err = s.GetDocument(context.Background(), 9999)
		assert.ErrorIs(t, err, records.ErrNotFound)
	})
}

// ─── Lookup ──────────────────────────────────────────────────────────────────

func TestGetResumeForJob_NoApplication(t *testing.T) {
	eachStore(t, func(t *testing.T, s records.Store) {
		ctx := context.Background()

		_, err := s.GetResumeForJob(ctx, "Acme", "Staff Engineer")
		assert.ErrorIs(t, err, records.ErrNoMatch)

		// A job without an application is not a match either.
		_, err = s.AddJob(ctx, records.JobInput{Company: "Acme", Role: "Staff Engineer"})
		require.NoError(t, err)
		_, err = s.GetResumeForJob(ctx, "Acme", "Staff Engineer")
		assert.ErrorIs(t, err, records.ErrNoMatch)
	})
}

func TestGetResumeForJob_AnyLetterCase(t *testing.T) {
	eachStore(t, func(t *testing.T, s records.Store) {
		ctx := context.Background()
		resumeID := addResume(t, s, "cv_backend.pdf")
		logApp(t, s, "Acme", "Staff Engineer", resumeID)

		for _, q := range [][2]string{
			{"Acme", "Staff Engineer"},
			{"ACME", "staff engineer"},
			{"  acme ", " Staff ENGINEER  "},
		} {
			ref, err := s.GetResumeForJob(ctx, q[0], q[1])
			require.NoError(t, err, "lookup %q/%q", q[0], q[1])
			assert.Equal(t, resumeID, ref.DocumentID)
			assert.Equal(t, "cv_backend.pdf", ref.Filename)
			assert.Equal(t, "data/uploads/cv_backend.pdf", ref.FilePath)
		}

		_, err := s.GetResumeForJob(ctx, "Acme", "Staff")
		assert.ErrorIs(t, err, records.ErrNoMatch, "exact match only")
	})
}

func TestGetResumeForJob_NoUnicodeFolding(t *testing.T) {
	eachStore(t, func(t *testing.T, s records.Store) {
		resumeID := addResume(t, s, "cv.pdf")
		logApp(t, s, "Straße AG", "SRE", resumeID)

		_, err := s.GetResumeForJob(context.Background(), "STRASSE AG", "SRE")
		assert.ErrorIs(t, err, records.ErrNoMatch)
	})
}

func TestGetResumeForJob_MostRecentJobWins(t *testing.T) {
	eachStore(t, func(t *testing.T, s records.Store) {
		older := addResume(t, s, "cv_v1.pdf")
		newer := addResume(t, s, "cv_v2.pdf")

		logApp(t, s, "Acme", "Staff Engineer", older)
		logApp(t, s, "acme", "staff engineer", newer)

		ref, err := s.GetResumeForJob(context.Background(), "Acme", "Staff Engineer")
		require.NoError(t, err)
		assert.Equal(t, "cv_v2.pdf", ref.Filename)
	})
}

// Equal created_at falls back to the highest job id.
func TestPostgresStore_CreatedAtTieBreak(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)
	s := records.NewPostgresStore(pool)

	first := addResume(t, s, "cv_first.pdf")
	second := addResume(t, s, "cv_second.pdf")
	logApp(t, s, "Acme", "SRE", second)
	logApp(t, s, "Acme", "SRE", first)

	_, err := pool.Exec(ctx, `UPDATE jobs SET created_at = $1`, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	ref, err := s.GetResumeForJob(ctx, "acme", "sre")
	require.NoError(t, err)
	assert.Equal(t, "cv_first.pdf", ref.Filename)
}

// ─── Jobs & applications ─────────────────────────────────────────────────────

func TestAddJob_TrimsAndValidates(t *testing.T) {
	eachStore(t, func(t *testing.T, s records.Store) {
		ctx := context.Background()

		id, err := s.AddJob(ctx, records.JobInput{Company: "  Acme ", Role: " SRE ", Status: "interview"})
		require.NoError(t, err)

		jobs, err := s.ListJobs(ctx)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, id, jobs[0].ID)
		assert.Equal(t, "Acme", jobs[0].Company)
		assert.Equal(t, "SRE", jobs[0].Role)
		assert.Equal(t, records.StatusInterview, jobs[0].Status)

		var ve *records.ValidationError
		_, err = s.AddJob(ctx, records.JobInput{Company: " ", Role: "SRE"})
		assert.True(t, errors.As(err, &ve), "empty company should be a validation error")
		_, err = s.AddJob(ctx, records.JobInput{Company: "Acme", Role: "SRE", Status: "hired"})
		assert.True(t, errors.As(err, &ve), "unknown status should be a validation error")
	})
}

func TestAddApplication_Invariants(t *testing.T) {
	eachStore(t, func(t *testing.T, s records.Store) {
		ctx := context.Background()
		resumeID := addResume(t, s, "cv.pdf")
		jdID, err := s.AddDocument(ctx, records.DocJD, "acme_jd.pdf", "data/uploads/acme_jd.pdf")
		require.NoError(t, err)
		jobID, err := s.AddJob(ctx, records.JobInput{Company: "Acme", Role: "SRE"})
		require.NoError(t, err)

		t.Run("unknown job", func(t *testing.T) {
			_, err := s.AddApplication(ctx, 9999, resumeID)
			assert.ErrorIs(t, err, records.ErrNotFound)
		})
		t.Run("unknown document", func(t *testing.T) {
			_, err := s.AddApplication(ctx, jobID, 9999)
			assert.ErrorIs(t, err, records.ErrNotFound)
		})
		t.Run("document is not a resume", func(t *testing.T) {
			_, err := s.AddApplication(ctx, jobID, jdID)
			var ve *records.ValidationError
			assert.True(t, errors.As(err, &ve))
		})
		t.Run("second application for the same job", func(t *testing.T) {
			_, err := s.AddApplication(ctx, jobID, resumeID)
			require.NoError(t, err)
			_, err = s.AddApplication(ctx, jobID, resumeID)
			assert.ErrorIs(t, err, records.ErrDuplicateApplication)
		})
	})
}

func TestLogApplication_RejectedApplicationKeepsNoJob(t *testing.T) {
	eachStore(t, func(t *testing.T, s records.Store) {
		ctx := context.Background()
		notesID, err := s.AddDocument(ctx, records.DocNotes, "notes.docx", "data/uploads/notes.docx")
		require.NoError(t, err)

		_, _, err = records.LogApplication(ctx, s, records.JobInput{Company: "Acme", Role: "SRE"}, 42)
		assert.ErrorIs(t, err, records.ErrNotFound)

		_, _, err = records.LogApplication(ctx, s, records.JobInput{Company: "Acme", Role: "SRE"}, notesID)
		var ve *records.ValidationError
		assert.ErrorAs(t, err, &ve)

		jobs, err := s.ListJobs(ctx)
		require.NoError(t, err)
		assert.Empty(t, jobs)
	})
}

func TestListQueries(t *testing.T) {
	eachStore(t, func(t *testing.T, s records.Store) {
		ctx := context.Background()
		cvA := addResume(t, s, "cv_a.pdf")
		cvB := addResume(t, s, "cv_b.pdf")
		_, err := s.AddDocument(ctx, records.DocNotes, "notes.docx", "data/uploads/notes.docx")
		require.NoError(t, err)

		j1 := logApp(t, s, "Acme", "SRE", cvA)
		j2 := logApp(t, s, "Globex", "Backend Engineer", cvA)
		j3 := logApp(t, s, "ACME", "Platform Engineer", cvB)

		resumes, err := s.ListResumes(ctx)
		require.NoError(t, err)
		require.Len(t, resumes, 2)
		assert.Equal(t, cvB, resumes[0].ID, "newest resume first")

		atAcme, err := s.ListJobsByCompany(ctx, " acme")
		require.NoError(t, err)
		require.Len(t, atAcme, 2)
		assert.Equal(t, []int64{j3, j1}, []int64{atAcme[0].ID, atAcme[1].ID})

		forA, err := s.ListJobsForResume(ctx, cvA)
		require.NoError(t, err)
		require.Len(t, forA, 2)
		assert.Equal(t, []int64{j2, j1}, []int64{forA[0].ID, forA[1].ID})
		assert.True(t, forA[0].DateApplied.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))

		none, err := s.ListJobsForResume(ctx, 9999)
		require.NoError(t, err)
		assert.Empty(t, none)

		history, err := s.ListApplications(ctx)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, j3, history[0].ID)
		assert.Equal(t, cvB, history[0].ResumeID)
		assert.Equal(t, "cv_b.pdf", history[0].ResumeFilename)
	})
}
