// Package records defines the tracker's three append-only entities and the
// store that persists them.
//
// Relationships:
//
//	documents ◄── applications.resume_document_id   (doc_type must be resume)
//	jobs      ◄── applications.job_id               (at most one per job)
//
// Nothing is ever updated or deleted once written.
package records

import (
	"fmt"
	"strings"
	"time"
)

// ─── Job status ──────────────────────────────────────────────────────────────

// Status values mirror the CHECK constraint on jobs.status.
type Status string

const (
	StatusApplied   Status = "applied"
	StatusInterview Status = "interview"
	StatusRejected  Status = "rejected"
	StatusOffer     Status = "offer"
)

// ParseStatus converts a raw string to a Status. An empty string defaults to
// StatusApplied, which is what the Add Application form preselects.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return StatusApplied, nil
	}
	st := Status(s)
	switch st {
	case StatusApplied, StatusInterview, StatusRejected, StatusOffer:
		return st, nil
	}
	return "", &ValidationError{Msg: fmt.Sprintf("unknown job status %q", s)}
}

// ─── Document type ───────────────────────────────────────────────────────────

// DocType values mirror the CHECK constraint on documents.doc_type.
type DocType string

const (
	DocResume      DocType = "resume"
	DocJD          DocType = "jd"
	DocCoverLetter DocType = "cover_letter"
	DocNotes       DocType = "notes"
)

// docTypeLabels maps the labels shown on the upload form to canonical values.
var docTypeLabels = map[string]DocType{
	"resume":          DocResume,
	"job description": DocJD,
	"cover letter":    DocCoverLetter,
	"notes":           DocNotes,
}

// ParseDocType accepts either a canonical value ("cover_letter") or an upload
// form label ("Cover Letter").
func ParseDocType(s string) (DocType, error) {
	dt := DocType(s)
	switch dt {
	case DocResume, DocJD, DocCoverLetter, DocNotes:
		return dt, nil
	}
	if dt, ok := docTypeLabels[strings.ToLower(strings.TrimSpace(s))]; ok {
		return dt, nil
	}
	return "", &ValidationError{Msg: fmt.Sprintf("unknown document type %q", s)}
}

// ─── Entities ────────────────────────────────────────────────────────────────

// Document is an uploaded file record.
type Document struct {
	ID         int64     `json:"id"`
	DocType    DocType   `json:"docType"`
	Filename   string    `json:"filename"`
	FilePath   string    `json:"filePath"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Job is one logged job application (company, role, date, status).
type Job struct {
	ID          int64     `json:"id"`
	Company     string    `json:"company"`
	Role        string    `json:"role"`
	DateApplied time.Time `json:"dateApplied"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Application links a Job to the résumé Document used for it.
type Application struct {
	ID               int64 `json:"id"`
	JobID            int64 `json:"jobId"`
	ResumeDocumentID int64 `json:"resumeDocumentId"`
}

// ApplicationView is a History row: the job plus the résumé sent with it.
type ApplicationView struct {
	Job
	ApplicationID  int64  `json:"applicationId"`
	ResumeID       int64  `json:"resumeId"`
	ResumeFilename string `json:"resumeFilename"`
}

// ResumeRef is what a company/role lookup yields: enough to offer a download.
type ResumeRef struct {
	DocumentID int64  `json:"documentId"`
	Filename   string `json:"filename"`
	FilePath   string `json:"filePath"`
}

// JobInput carries the Add Application form fields.
type JobInput struct {
	Company     string
	Role        string
	DateApplied time.Time
	Status      string
}

// normalize trims company and role and validates what the store cannot.
func (in JobInput) normalize() (company, role string, status Status, err error) {
	company = strings.TrimSpace(in.Company)
	role = strings.TrimSpace(in.Role)
	if company == "" {
		return "", "", "", &ValidationError{Msg: "company is required"}
	}
	if role == "" {
		return "", "", "", &ValidationError{Msg: "role is required"}
	}
	status, err = ParseStatus(in.Status)
	if err != nil {
		return "", "", "", err
	}
	return company, role, status, nil
}
