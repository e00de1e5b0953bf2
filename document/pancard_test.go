package document_test

import (
	"testing"

	"go-pan-validator/document"

	"github.com/stretchr/testify/require"
)

// Shaped like Textract-style line-joined output for a PAN card.
const panCardText = `INCOME TAX DEPARTMENT
GOVT. OF INDIA
Permanent Account Number Card
ABCDE1234F
Name
JOHN DOE
Father's Name
MICHAEL DOE
Date of Birth
12/03/1990
`

func TestParsePanCard(t *testing.T) {
	fields := document.ParsePanCard(panCardText)

	require.Equal(t, "JOHN DOE", fields[document.FieldName])
	require.Equal(t, "MICHAEL DOE", fields[document.FieldFatherName])
	require.Equal(t, "12/03/1990", fields[document.FieldDateOfBirth])
	require.Equal(t, "ABCDE1234F", fields[document.FieldPan])
}

func TestParsePanCard_DelimitedLabels(t *testing.T) {
	text := "Name: JOHN DOE\nFather's Name - MICHAEL DOE\nDate of Birth: 12-03-1990\n"
	fields := document.ParsePanCard(text)

	require.Equal(t, "JOHN DOE", fields[document.FieldName])
	require.Equal(t, "MICHAEL DOE", fields[document.FieldFatherName])
	require.Equal(t, "12-03-1990", fields[document.FieldDateOfBirth])
}

func TestParsePanCard_FathersNameWithoutApostrophe(t *testing.T) {
	fields := document.ParsePanCard("Fathers Name MICHAEL DOE\n")
	require.Equal(t, "MICHAEL DOE", fields[document.FieldFatherName])
}

func TestParsePanCard_MissingLabelsLeaveFieldsAbsent(t *testing.T) {
	fields := document.ParsePanCard("no card content detected")

	for _, name := range document.RequiredFields {
		_, ok := fields.Lookup(name)
		require.False(t, ok, "expected %q to be absent", name)
	}
}
