package intent

import (
	"regexp"
	"strings"
)

var forWordRe = regexp.MustCompile(`(?i)\bfor\b`)

// ExtractCompanyRole pulls (company, role) out of text following the last
// standalone "for". The tail is split on the first " - ", else the first
// " | ", else on whitespace with the first token as company. No case
// normalization is applied; matching against storage is case-insensitive.
//
// Without a separator a multi-word company is split wrongly:
// "for General Motors Software Engineer" gives company "General".
func ExtractCompanyRole(message string) (company, role string, ok bool) {
	locs := forWordRe.FindAllStringIndex(message, -1)
	if len(locs) == 0 {
		return "", "", false
	}
	tail := strings.TrimSpace(message[locs[len(locs)-1][1]:])

	for _, sep := range []string{" - ", " | "} {
		if before, after, found := strings.Cut(tail, sep); found {
			return strings.TrimSpace(before), strings.TrimSpace(after), true
		}
	}

	tokens := strings.Fields(tail)
	if len(tokens) < 2 {
		return "", "", false
	}
	return tokens[0], strings.Join(tokens[1:], " "), true
}
