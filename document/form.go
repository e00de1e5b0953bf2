package document

import "regexp"

// Grammar for the self-declared form on page 1. Labels are matched
// case-insensitively; values follow the label on the same or the next line.
var (
	multiSpace = regexp.MustCompile(` {2,}`)

	formPanPattern  = regexp.MustCompile(`(?i)PAN NUMBER\s*([A-Z]{5}[0-9]{4}[A-Z])`)
	formNamePattern = regexp.MustCompile(`(?i)FULL NAME\s*([A-Z ]+)`)
	formDobPattern  = regexp.MustCompile(`(?i)DATE OF BIRTH.*?\s*(\d{2}[-/]\d{2}[-/]\d{4})`)

	// Father's name often appears as two bare uppercase tokens with no
	// delimiter after the label. That shape is tried first; the generic
	// label match is the fallback.
	formFatherTokensPattern = regexp.MustCompile(`FATHER\s+NAME[\s\n]*([A-Z]+)[\s\n]*([A-Z]+)`)
	formFatherLabelPattern  = regexp.MustCompile(`(?i)FATHER\s+NAME([A-Z\s]+)`)
)

// ParseFormPage extracts the identity fields from the page-1 form text.
// Runs of two or more spaces are collapsed first to normalize OCR and PDF
// text-extraction spacing noise. A label that cannot be found simply leaves
// its field absent.
func ParseFormPage(text string) Fields {
	text = multiSpace.ReplaceAllString(normalizeLines(text), " ")

	fields := Fields{}
	if value, ok := extractAfterLabel(formPanPattern, text); ok {
		fields[FieldPan] = value
	}
	if value, ok := extractAfterLabel(formNamePattern, text); ok {
		fields[FieldName] = value
	}
	if value, ok := extractAfterLabel(formDobPattern, text); ok {
		fields[FieldDateOfBirth] = value
	}
	if match := formFatherTokensPattern.FindStringSubmatch(text); match != nil {
		fields[FieldFatherName] = match[1] + " " + match[2]
	} else if value, ok := extractAfterLabel(formFatherLabelPattern, text); ok {
		fields[FieldFatherName] = value
	}
	return fields
}
