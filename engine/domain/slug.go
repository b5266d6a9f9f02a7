package domain

import (
	"regexp"
	"strings"
)

// Characters stripped from slugs before hyphenation.
var slugStrip = regexp.MustCompile(`[\/\\?%*:|"<>.,;'\[\]()&]`)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slug joins the given parts with spaces and sanitizes the result into a
// URL/filename-safe identifier: special characters stripped, "+" becomes
// "-plus", whitespace runs collapse to single hyphens, lowercased. It is a
// pure function of its inputs; rerunning on unchanged fields reproduces the
// same slug.
func Slug(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	s := strings.Join(kept, " ")
	s = slugStrip.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "+", "-plus")
	s = whitespaceRun.ReplaceAllString(strings.TrimSpace(s), "-")
	return strings.ToLower(s)
}

// slugFields is the classification tuple a friendly URL derives from.
var slugFields = []string{
	FieldMark, FieldFolder, FieldModification,
	FieldComplectation, FieldColor, FieldYear,
}

// FriendlyURL derives the record's slug from its classification fields.
// An empty result means extraction failed; callers must not treat it as a
// valid identifier.
func FriendlyURL(r *Record) string {
	vals := make([]string, len(slugFields))
	for i, f := range slugFields {
		vals[i] = r.Field(f)
	}
	return Slug(vals...)
}
