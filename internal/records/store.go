package records

import (
	"context"
	"errors"
	"fmt"
)

// Store is the Record Store. Every method is a single structured query or
// insert; none of them retries.
type Store interface {
	AddDocument(ctx context.Context, docType DocType, filename, filePath string) (int64, error)
	GetDocument(ctx context.Context, id int64) (*Document, error)
	ListResumes(ctx context.Context) ([]Document, error)

	AddJob(ctx context.Context, in JobInput) (int64, error)
	AddApplication(ctx context.Context, jobID, resumeID int64) (int64, error)

	ListJobs(ctx context.Context) ([]Job, error)
	ListJobsByCompany(ctx context.Context, company string) ([]Job, error)
	ListJobsForResume(ctx context.Context, resumeID int64) ([]Job, error)
	ListApplications(ctx context.Context) ([]ApplicationView, error)

	// GetResumeForJob returns ErrNoMatch when no Job→Application→Document
	// chain matches company and role.
	GetResumeForJob(ctx context.Context, company, role string) (*ResumeRef, error)
}

// ApplicationLogger is implemented by stores that can insert a job and its
// application atomically.
type ApplicationLogger interface {
	LogApplication(ctx context.Context, in JobInput, resumeID int64) (jobID, appID int64, err error)
}

// LogApplication records a job and the résumé used for it. Stores that
// implement ApplicationLogger do both inserts in one transaction; otherwise the
// job is inserted first and the application second.
func LogApplication(ctx context.Context, s Store, in JobInput, resumeID int64) (jobID, appID int64, err error) {
	if l, ok := s.(ApplicationLogger); ok {
		return l.LogApplication(ctx, in, resumeID)
	}
	jobID, err = s.AddJob(ctx, in)
	if err != nil {
		return 0, 0, err
	}
	appID, err = s.AddApplication(ctx, jobID, resumeID)
	if err != nil {
		return jobID, 0, err
	}
	return jobID, appID, nil
}

// ─── Sentinel errors ─────────────────────────────────────────────────────────

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrNoMatch is returned by GetResumeForJob when nothing matches. It is an
// empty result, not a failure.
var ErrNoMatch = errors.New("no match found")

// ErrDuplicateApplication is returned when a job already has an application.
var ErrDuplicateApplication = errors.New("job already has an application")

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func notAResume(id int64, dt DocType) error {
	return &ValidationError{Msg: fmt.Sprintf("document %d is a %s, not a resume", id, dt)}
}
