// Package intent turns a free-text chat message into a structured query.
//
// Classification is a fixed, ordered list of rules; the first rule whose
// predicate matches decides the Kind, and its extractor fills the slots.
// Predicates are case-insensitive substring tests.
package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind tags an Intent.
type Kind int

const (
	KindUnknown Kind = iota
	KindListResumes
	KindListJobsByCompany
	KindResumeForJob
	KindJobsForResume
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindListResumes:       "list_resumes",
	KindListJobsByCompany: "list_jobs_by_company",
	KindResumeForJob:      "resume_for_job",
	KindJobsForResume:     "jobs_for_resume",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText encodes a Kind by name in JSON replies.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Intent is the classified message. Only the slots of its Kind are set:
// Company for ListJobsByCompany, Company and Role for ResumeForJob, ResumeID
// for JobsForResume.
type Intent struct {
	Kind     Kind   `json:"kind"`
	Company  string `json:"company,omitempty"`
	Role     string `json:"role,omitempty"`
	ResumeID int64  `json:"resumeId,omitempty"`
}

// UsageError is returned when a message matches a phrasing but its slots
// cannot be extracted. Hint shows the expected phrasing.
type UsageError struct {
	Kind Kind
	Hint string
}

func (e *UsageError) Error() string { return e.Hint }

// Example phrasings, one per supported Kind.
const (
	PhraseListResumes       = "list resumes"
	PhraseListJobsByCompany = "list jobs at <company>"
	PhraseResumeForJob      = "what resume did i use for <company> - <role>"
	PhraseJobsForResume     = "what jobs did i use resume <id> for"
)

// HelpText is the reply for messages that match no phrasing.
const HelpText = "I can answer these:\n" +
	"- " + PhraseListResumes + "\n" +
	"- " + PhraseListJobsByCompany + "\n" +
	"- " + PhraseResumeForJob + "\n" +
	"- " + PhraseJobsForResume

// ─── Rules ───────────────────────────────────────────────────────────────────

type rule struct {
	kind    Kind
	match   func(lower string) bool
	extract func(msg, lower string) (Intent, error)
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{
		kind:  KindListResumes,
		match: containsAny("list resumes", "show resumes", "my resumes"),
		extract: func(_, _ string) (Intent, error) {
			return Intent{Kind: KindListResumes}, nil
		},
	},
	{
		kind:    KindListJobsByCompany,
		match:   containsAll("list jobs", " at "),
		extract: extractCompany,
	},
	{
		kind:    KindResumeForJob,
		match:   containsAny("what resume did i use", "which resume did i use"),
		extract: extractJobSlots,
	},
	{
		kind:    KindJobsForResume,
		match:   containsAll("jobs did i use", "resume"),
		extract: extractResumeID,
	},
}

// Resolve classifies message. For a recognised phrasing with missing slots it
// returns the Kind together with a *UsageError.
func Resolve(message string) (Intent, error) {
	lower := strings.ToLower(message)
	for _, r := range rules {
		if r.match(lower) {
			return r.extract(message, lower)
		}
	}
	return Intent{Kind: KindUnknown}, nil
}

func containsAny(subs ...string) func(string) bool {
	return func(lower string) bool {
		for _, s := range subs {
			if strings.Contains(lower, s) {
				return true
			}
		}
		return false
	}
}

func containsAll(subs ...string) func(string) bool {
	return func(lower string) bool {
		for _, s := range subs {
			if !strings.Contains(lower, s) {
				return false
			}
		}
		return true
	}
}

// ─── Extractors ──────────────────────────────────────────────────────────────

// extractCompany takes everything after the first " at ", lowercased.
func extractCompany(_, lower string) (Intent, error) {
	i := strings.Index(lower, " at ")
	company := strings.TrimSpace(lower[i+len(" at "):])
	if company == "" {
		return Intent{Kind: KindListJobsByCompany}, usage(KindListJobsByCompany)
	}
	return Intent{Kind: KindListJobsByCompany, Company: company}, nil
}

func extractJobSlots(msg, _ string) (Intent, error) {
	company, role, ok := ExtractCompanyRole(msg)
	if !ok {
		return Intent{Kind: KindResumeForJob}, usage(KindResumeForJob)
	}
	return Intent{Kind: KindResumeForJob, Company: company, Role: role}, nil
}

var resumeIDRe = regexp.MustCompile(`(?i)\bresume\s*#?\s*(\d+)`)

func extractResumeID(msg, _ string) (Intent, error) {
	m := resumeIDRe.FindStringSubmatch(msg)
	if m == nil {
		return Intent{Kind: KindJobsForResume}, usage(KindJobsForResume)
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Intent{Kind: KindJobsForResume}, usage(KindJobsForResume)
	}
	return Intent{Kind: KindJobsForResume, ResumeID: id}, nil
}

func usage(k Kind) *UsageError {
	var phrase string
	switch k {
	case KindListJobsByCompany:
		phrase = PhraseListJobsByCompany
	case KindResumeForJob:
		phrase = PhraseResumeForJob
	case KindJobsForResume:
		phrase = PhraseJobsForResume
	default:
		phrase = PhraseListResumes
	}
	return &UsageError{Kind: k, Hint: fmt.Sprintf("Try: %q", phrase)}
}
