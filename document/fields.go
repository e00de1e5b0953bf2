package document

import (
	"regexp"
	"strings"
)

// Fields maps a canonical field name to its extracted value. A missing key
// means the label was not found on the page; extraction failure is always
// representable as absence, never as an error.
type Fields map[string]string

const (
	FieldName        = "name"
	FieldFatherName  = "father_name"
	FieldDateOfBirth = "dob"
	FieldPan         = "pan"
)

// RequiredFields is the canonical iteration order used for field comparisons
// and the error list, so responses are deterministic across requests.
var RequiredFields = []string{FieldName, FieldFatherName, FieldDateOfBirth, FieldPan}

func (f Fields) Lookup(name string) (string, bool) {
	value, ok := f[name]
	return value, ok
}

// extractAfterLabel returns the trimmed first capture group of pattern in
// text, or false when the label (or a well-formed value after it) is absent.
func extractAfterLabel(pattern *regexp.Regexp, text string) (string, bool) {
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	return strings.TrimSpace(match[1]), true
}

// normalizeLines joins the text with unix line endings so the grammars see
// the same shape regardless of how the OCR provider terminates lines.
func normalizeLines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
