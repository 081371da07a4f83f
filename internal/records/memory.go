package records

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MemoryStore implements Store in process memory. It follows the same
// matching and ordering rules as PostgresStore and backs the "memory" store
// backend and the tests.
type MemoryStore struct {
	mu     sync.Mutex
	now    func() time.Time
	nextID int64

	documents    map[int64]Document
	jobs         map[int64]Job
	applications map[int64]Application
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:          func() time.Time { return time.Now().UTC() },
		documents:    make(map[int64]Document),
		jobs:         make(map[int64]Job),
		applications: make(map[int64]Application),
	}
}

// id hands out one sequence shared by all tables; callers hold mu.
func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

// fold mirrors LOWER(TRIM(x)) in PostgresStore: simple lower-casing, no
// full Unicode case folding ("Straße" does not match "STRASSE").
func fold(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// ─── Documents ───────────────────────────────────────────────────────────────

func (m *MemoryStore) AddDocument(_ context.Context, docType DocType, filename, filePath string) (int64, error) {
	dt, err := ParseDocType(string(docType))
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	d := Document{ID: m.id(), DocType: dt, Filename: filename, FilePath: filePath, UploadedAt: m.now()}
	m.documents[d.ID] = d
	return d.ID, nil
}

func (m *MemoryStore) GetDocument(_ context.Context, id int64) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	return &d, nil
}

func (m *MemoryStore) ListResumes(_ context.Context) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := make([]Document, 0)
	for _, d := range m.documents {
		if d.DocType == DocResume {
			docs = append(docs, d)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID > docs[j].ID })
	return docs, nil
}

// ─── Jobs & applications ─────────────────────────────────────────────────────

func (m *MemoryStore) AddJob(_ context.Context, in JobInput) (int64, error) {
	company, role, status, err := in.normalize()
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	dateApplied := in.DateApplied
	if dateApplied.IsZero() {
		dateApplied = now
	}
	j := Job{ID: m.id(), Company: company, Role: role, DateApplied: dateApplied, Status: status, CreatedAt: now}
	m.jobs[j.ID] = j
	return j.ID, nil
}

func (m *MemoryStore) AddApplication(_ context.Context, jobID, resumeID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addApplicationLocked(jobID, resumeID)
}

func (m *MemoryStore) addApplicationLocked(jobID, resumeID int64) (int64, error) {
	d, ok := m.documents[resumeID]
	if !ok {
		return 0, fmt.Errorf("resume %d: %w", resumeID, ErrNotFound)
	}
	if d.DocType != DocResume {
		return 0, notAResume(resumeID, d.DocType)
	}
	if _, ok := m.jobs[jobID]; !ok {
		return 0, fmt.Errorf("job %d: %w", jobID, ErrNotFound)
	}
	for _, a := range m.applications {
		if a.JobID == jobID {
			return 0, fmt.Errorf("job %d: %w", jobID, ErrDuplicateApplication)
		}
	}

	a := Application{ID: m.id(), JobID: jobID, ResumeDocumentID: resumeID}
	m.applications[a.ID] = a
	return a.ID, nil
}

// LogApplication inserts the job and its application atomically: if the
// application is rejected the job is not kept.
func (m *MemoryStore) LogApplication(_ context.Context, in JobInput, resumeID int64) (jobID, appID int64, err error) {
	company, role, status, err := in.normalize()
	if err != nil {
		return 0, 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	dateApplied := in.DateApplied
	if dateApplied.IsZero() {
		dateApplied = now
	}
	j := Job{ID: m.id(), Company: company, Role: role, DateApplied: dateApplied, Status: status, CreatedAt: now}
	m.jobs[j.ID] = j

	appID, err = m.addApplicationLocked(j.ID, resumeID)
	if err != nil {
		delete(m.jobs, j.ID)
		return 0, 0, err
	}
	return j.ID, appID, nil
}

func (m *MemoryStore) ListJobs(_ context.Context) ([]Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterJobs(func(Job) bool { return true }), nil
}

func (m *MemoryStore) ListJobsByCompany(_ context.Context, company string) ([]Job, error) {
	want := fold(company)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterJobs(func(j Job) bool { return fold(j.Company) == want }), nil
}

func (m *MemoryStore) ListJobsForResume(_ context.Context, resumeID int64) ([]Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	linked := make(map[int64]bool)
	for _, a := range m.applications {
		if a.ResumeDocumentID == resumeID {
			linked[a.JobID] = true
		}
	}
	return m.filterJobs(func(j Job) bool { return linked[j.ID] }), nil
}

func (m *MemoryStore) ListApplications(_ context.Context) ([]ApplicationView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	views := make([]ApplicationView, 0, len(m.applications))
	for _, a := range m.applications {
		views = append(views, ApplicationView{
			Job:            m.jobs[a.JobID],
			ApplicationID:  a.ID,
			ResumeID:       a.ResumeDocumentID,
			ResumeFilename: m.documents[a.ResumeDocumentID].Filename,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID > views[j].ID })
	return views, nil
}

func (m *MemoryStore) GetResumeForJob(_ context.Context, company, role string) (*ResumeRef, error) {
	wantCompany, wantRole := fold(company), fold(role)
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		best  *Job
		bestA Application
	)
	for _, a := range m.applications {
		j := m.jobs[a.JobID]
		if fold(j.Company) != wantCompany || fold(j.Role) != wantRole {
			continue
		}
		if best == nil || newer(j, *best) {
			jj := j
			best, bestA = &jj, a
		}
	}
	if best == nil {
		return nil, ErrNoMatch
	}
	d := m.documents[bestA.ResumeDocumentID]
	return &ResumeRef{DocumentID: d.ID, Filename: d.Filename, FilePath: d.FilePath}, nil
}

// newer orders jobs by created_at, then id.
func newer(a, b Job) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// filterJobs returns matching jobs, newest id first; callers hold mu.
func (m *MemoryStore) filterJobs(keep func(Job) bool) []Job {
	jobs := make([]Job, 0)
	for _, j := range m.jobs {
		if keep(j) {
			jobs = append(jobs, j)
		}
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].ID > jobs[k].ID })
	return jobs
}
