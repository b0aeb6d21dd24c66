package shared

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ═══════════════════════════════════════════════════════════════════════════
// Name Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// ClassName identifies a class (rombel), e.g. "VII A".
type ClassName string

// String returns the trimmed class name.
func (c ClassName) String() string {
	return strings.TrimSpace(string(c))
}

// IsValid checks that the class name is not blank.
func (c ClassName) IsValid() bool {
	return c.String() != ""
}

// Slug returns a file-name friendly form: diacritics dropped, whitespace and
// slashes become "-".
func (c ClassName) Slug() string {
	var b strings.Builder
	for _, r := range norm.NFD.String(c.String()) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	fields := strings.FieldsFunc(b.String(), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '/' || r == '\\'
	})
	return strings.Join(fields, "-")
}

// SubjectKey is the normalized lookup key of a subject name.
// Two subject names refer to the same subject iff their keys are equal.
type SubjectKey string

// NewSubjectKey normalizes a display name: NFC, trimmed, inner whitespace
// collapsed, lower-cased.
func NewSubjectKey(name string) SubjectKey {
	return SubjectKey(strings.ToLower(strings.Join(strings.Fields(norm.NFC.String(name)), " ")))
}

// String returns the key value.
func (k SubjectKey) String() string {
	return string(k)
}

// IsEmpty reports whether the key has no content.
func (k SubjectKey) IsEmpty() bool {
	return k == ""
}
