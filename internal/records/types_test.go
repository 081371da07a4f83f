package records_test

import (
	"errors"
	"testing"

	"jobmate/brain-service/internal/records"
)

// ── ParseStatus ────────────────────────────────────────────────────────────

func TestParseStatus_ValidValues(t *testing.T) {
	valid := []string{"applied", "interview", "rejected", "offer"}
	for _, s := range valid {
		got, err := records.ParseStatus(s)
		if err != nil {
			t.Errorf("ParseStatus(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseStatus_EmptyDefaultsToApplied(t *testing.T) {
	got, err := records.ParseStatus("")
	if err != nil {
		t.Fatalf("ParseStatus(\"\") unexpected error: %v", err)
	}
	if got != records.StatusApplied {
		t.Errorf("ParseStatus(\"\") = %q, want %q", got, records.StatusApplied)
	}
}

// Stored values are lowercase; uppercase spellings are not accepted.
func TestParseStatus_CaseSensitive(t *testing.T) {
	for _, s := range []string{"APPLIED", "Interview", "OFFER", "hired", "to_apply"} {
		_, err := records.ParseStatus(s)
		var ve *records.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("ParseStatus(%q) error = %v, want *ValidationError", s, err)
		}
	}
}

// ── ParseDocType ───────────────────────────────────────────────────────────

func TestParseDocType_CanonicalAndLabels(t *testing.T) {
	cases := []struct {
		in   string
		want records.DocType
	}{
		{"resume", records.DocResume},
		{"jd", records.DocJD},
		{"cover_letter", records.DocCoverLetter},
		{"notes", records.DocNotes},
		{"Resume", records.DocResume},
		{"Job Description", records.DocJD},
		{"Cover Letter", records.DocCoverLetter},
		{" Notes ", records.DocNotes},
	}
	for _, c := range cases {
		got, err := records.ParseDocType(c.in)
		if err != nil {
			t.Errorf("ParseDocType(%q) unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseDocType(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseDocType_Unknown(t *testing.T) {
	for _, s := range []string{"", "cv", "portfolio"} {
		if _, err := records.ParseDocType(s); err == nil {
			t.Errorf("ParseDocType(%q) expected error, got nil", s)
		}
	}
}
