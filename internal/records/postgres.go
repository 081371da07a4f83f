package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by pool. The schema must already
// exist (see db.EnsureSchema).
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// ─── Documents ───────────────────────────────────────────────────────────────

// AddDocument inserts a document row and returns its id.
func (s *PostgresStore) AddDocument(ctx context.Context, docType DocType, filename, filePath string) (int64, error) {
	dt, err := ParseDocType(string(docType))
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO documents (doc_type, filename, file_path, uploaded_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		string(dt), filename, filePath, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("addDocument: %w", err)
	}
	return id, nil
}

// GetDocument returns a single document by id.
func (s *PostgresStore) GetDocument(ctx context.Context, id int64) (*Document, error) {
	var d Document
	err := s.pool.QueryRow(ctx,
		`SELECT id, doc_type, filename, file_path, uploaded_at
		 FROM documents
		 WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.DocType, &d.Filename, &d.FilePath, &d.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getDocument: %w", err)
	}
	return &d, nil
}

// ListResumes returns every résumé, newest first.
func (s *PostgresStore) ListResumes(ctx context.Context) ([]Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, doc_type, filename, file_path, uploaded_at
		 FROM documents
		 WHERE doc_type = 'resume'
		 ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listResumes query: %w", err)
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.DocType, &d.Filename, &d.FilePath, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("listResumes scan: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// ─── Jobs & applications ─────────────────────────────────────────────────────

// AddJob inserts a job row and returns its id. Company and role are stored trimmed.
func (s *PostgresStore) AddJob(ctx context.Context, in JobInput) (int64, error) {
	return addJob(ctx, s.pool, in)
}

// AddApplication links jobID to resumeID. The document must be a résumé and
// the job must not already have an application.
func (s *PostgresStore) AddApplication(ctx context.Context, jobID, resumeID int64) (int64, error) {
	return addApplication(ctx, s.pool, jobID, resumeID)
}

// LogApplication inserts the job and its application in one transaction.
func (s *PostgresStore) LogApplication(ctx context.Context, in JobInput, resumeID int64) (jobID, appID int64, err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("logApplication begin: %w", err)
	}
	defer tx.Rollback(ctx)

	jobID, err = addJob(ctx, tx, in)
	if err != nil {
		return 0, 0, err
	}
	appID, err = addApplication(ctx, tx, jobID, resumeID)
	if err != nil {
		return 0, 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("logApplication commit: %w", err)
	}
	return jobID, appID, nil
}

func addJob(ctx context.Context, q querier, in JobInput) (int64, error) {
	company, role, status, err := in.normalize()
	if err != nil {
		return 0, err
	}
	dateApplied := in.DateApplied
	if dateApplied.IsZero() {
		dateApplied = time.Now().UTC()
	}

	var id int64
	err = q.QueryRow(ctx,
		`INSERT INTO jobs (company, role, date_applied, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		company, role, dateApplied, string(status), time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("addJob: %w", err)
	}
	return id, nil
}

func addApplication(ctx context.Context, q querier, jobID, resumeID int64) (int64, error) {
	var docType DocType
	err := q.QueryRow(ctx, `SELECT doc_type FROM documents WHERE id = $1`, resumeID).Scan(&docType)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("resume %d: %w", resumeID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("addApplication lookup: %w", err)
	}
	if docType != DocResume {
		return 0, notAResume(resumeID, docType)
	}

	var id int64
	err = q.QueryRow(ctx,
		`INSERT INTO applications (job_id, resume_document_id)
		 VALUES ($1, $2)
		 RETURNING id`,
		jobID, resumeID,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // unique_violation on applications.job_id
				return 0, fmt.Errorf("job %d: %w", jobID, ErrDuplicateApplication)
			case "23503": // foreign_key_violation on applications.job_id
				return 0, fmt.Errorf("job %d: %w", jobID, ErrNotFound)
			}
		}
		return 0, fmt.Errorf("addApplication: %w", err)
	}
	return id, nil
}

const jobColumns = `j.id, j.company, j.role, j.date_applied, j.status, j.created_at`

// ListJobs returns every job, newest first.
func (s *PostgresStore) ListJobs(ctx context.Context) ([]Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+`
		 FROM jobs j
		 ORDER BY j.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listJobs query: %w", err)
	}
	return collectJobs(rows, "listJobs")
}

// ListJobsByCompany returns the jobs whose company matches case-insensitively.
func (s *PostgresStore) ListJobsByCompany(ctx context.Context, company string) ([]Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+`
		 FROM jobs j
		 WHERE LOWER(TRIM(j.company)) = LOWER($1)
		 ORDER BY j.id DESC`,
		strings.TrimSpace(company),
	)
	if err != nil {
		return nil, fmt.Errorf("listJobsByCompany query: %w", err)
	}
	return collectJobs(rows, "listJobsByCompany")
}

// ListJobsForResume returns the jobs a résumé was sent to.
func (s *PostgresStore) ListJobsForResume(ctx context.Context, resumeID int64) ([]Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+`
		 FROM jobs j
		 JOIN applications a ON a.job_id = j.id
		 WHERE a.resume_document_id = $1
		 ORDER BY j.id DESC`,
		resumeID,
	)
	if err != nil {
		return nil, fmt.Errorf("listJobsForResume query: %w", err)
	}
	return collectJobs(rows, "listJobsForResume")
}

// ListApplications returns the History view, newest job first.
func (s *PostgresStore) ListApplications(ctx context.Context) ([]ApplicationView, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+`, a.id, d.id, d.filename
		 FROM jobs j
		 JOIN applications a ON a.job_id = j.id
		 JOIN documents d ON d.id = a.resume_document_id
		 ORDER BY j.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listApplications query: %w", err)
	}
	defer rows.Close()

	views := make([]ApplicationView, 0)
	for rows.Next() {
		var v ApplicationView
		if err := rows.Scan(
			&v.ID, &v.Company, &v.Role, &v.DateApplied, &v.Status, &v.CreatedAt,
			&v.ApplicationID, &v.ResumeID, &v.ResumeFilename,
		); err != nil {
			return nil, fmt.Errorf("listApplications scan: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// GetResumeForJob returns the résumé used for the most recent job matching
// company and role (case-insensitive, trimmed).
func (s *PostgresStore) GetResumeForJob(ctx context.Context, company, role string) (*ResumeRef, error) {
	var ref ResumeRef
	err := s.pool.QueryRow(ctx,
		`SELECT d.id, d.filename, d.file_path
		 FROM jobs j
		 JOIN applications a ON a.job_id = j.id
		 JOIN documents d ON d.id = a.resume_document_id
		 WHERE LOWER(TRIM(j.company)) = LOWER($1)
		   AND LOWER(TRIM(j.role))    = LOWER($2)
		 ORDER BY j.created_at DESC, j.id DESC
		 LIMIT 1`,
		strings.TrimSpace(company), strings.TrimSpace(role),
	).Scan(&ref.DocumentID, &ref.Filename, &ref.FilePath)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoMatch
	}
	if err != nil {
		return nil, fmt.Errorf("getResumeForJob: %w", err)
	}
	return &ref, nil
}

func collectJobs(rows pgx.Rows, op string) ([]Job, error) {
	defer rows.Close()

	jobs := make([]Job, 0)
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.Company, &j.Role, &j.DateApplied, &j.Status, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", op, err)
	}
	return jobs, nil
}
