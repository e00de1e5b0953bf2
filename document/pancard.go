package document

import "regexp"

// Grammar for the OCR'd PAN card on page 2. The card uses different label
// wording than the form; each label may be followed by ':' or '-'.
var (
	cardPanPattern    = regexp.MustCompile(`(?i)Permanent Account Number Card\s*([A-Z]{5}[0-9]{4}[A-Z])`)
	cardNamePattern   = regexp.MustCompile(`(?i)Name\s*[:\-]?\s*([A-Z ]+)`)
	cardFatherPattern = regexp.MustCompile(`(?i)Father'?s Name\s*[:\-]?\s*([A-Z ]+)`)
	cardDobPattern    = regexp.MustCompile(`(?i)Date of Birth\s*[:\-]?\s*(\d{2}[-/]\d{2}[-/]\d{4})`)
)

// ParsePanCard extracts the identity fields from line-joined PAN card OCR
// text. Missing labels leave the field absent, never an error.
func ParsePanCard(text string) Fields {
	text = normalizeLines(text)

	fields := Fields{}
	if value, ok := extractAfterLabel(cardPanPattern, text); ok {
		fields[FieldPan] = value
	}
	if value, ok := extractAfterLabel(cardNamePattern, text); ok {
		fields[FieldName] = value
	}
	if value, ok := extractAfterLabel(cardFatherPattern, text); ok {
		fields[FieldFatherName] = value
	}
	if value, ok := extractAfterLabel(cardDobPattern, text); ok {
		fields[FieldDateOfBirth] = value
	}
	return fields
}
