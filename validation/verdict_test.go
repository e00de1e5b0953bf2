package validation

import (
	"testing"

	"go-pan-validator/document"

	"github.com/stretchr/testify/require"
)

var testPolicy = Policy{FieldMatchThreshold: 80, FaceMatchThreshold: 0.7}

func sampleFields() document.Fields {
	return document.Fields{
		document.FieldName:        "JOHN DOE",
		document.FieldFatherName:  "MICHAEL DOE",
		document.FieldDateOfBirth: "12/03/1990",
		document.FieldPan:         "ABCDE1234F",
	}
}

func TestCompareFields_IdenticalFieldsAllPass(t *testing.T) {
	comparisons, pass, errs := testPolicy.CompareFields(sampleFields(), sampleFields())

	require.True(t, pass)
	require.Empty(t, errs)
	require.Len(t, comparisons, len(document.RequiredFields))
	for field, comparison := range comparisons {
		require.Equal(t, 100, comparison.Score, "field %q", field)
		require.True(t, comparison.Pass, "field %q", field)
	}
}

func TestCompareFields_CloseNameStillPasses(t *testing.T) {
	card := sampleFields()
	card[document.FieldName] = "JON DOE"

	comparisons, pass, errs := testPolicy.CompareFields(sampleFields(), card)

	require.True(t, comparisons[document.FieldName].Pass)
	require.GreaterOrEqual(t, comparisons[document.FieldName].Score, 80)
	require.True(t, pass)
	require.Empty(t, errs)
}

func TestCompareFields_AbsentFieldScoresZeroAndFails(t *testing.T) {
	card := sampleFields()
	delete(card, document.FieldDateOfBirth)

	comparisons, pass, errs := testPolicy.CompareFields(sampleFields(), card)

	dob := comparisons[document.FieldDateOfBirth]
	require.Equal(t, 0, dob.Score)
	require.False(t, dob.Pass)
	require.NotNil(t, dob.Page1Value)
	require.Nil(t, dob.Page2Value)

	require.False(t, pass)
	require.Len(t, errs, 1)
	require.Equal(t, "DOB_MISMATCH", errs[0].Code)
	require.Equal(t, "Dob differs between Page 1 and PAN card", errs[0].Message)
}

func TestCompareFields_AbsentOnBothSidesFails(t *testing.T) {
	comparisons, pass, errs := testPolicy.CompareFields(document.Fields{}, document.Fields{})

	require.False(t, pass)
	require.Len(t, errs, len(document.RequiredFields))
	for _, comparison := range comparisons {
		require.Equal(t, 0, comparison.Score)
		require.False(t, comparison.Pass)
		require.Nil(t, comparison.Page1Value)
		require.Nil(t, comparison.Page2Value)
	}
}

func TestCompareFields_ErrorOrderFollowsFieldOrder(t *testing.T) {
	_, _, errs := testPolicy.CompareFields(document.Fields{}, document.Fields{})

	require.Equal(t, []string{
		"NAME_MISMATCH",
		"FATHER_NAME_MISMATCH",
		"DOB_MISMATCH",
		"PAN_MISMATCH",
	}, []string{errs[0].Code, errs[1].Code, errs[2].Code, errs[3].Code})
	require.Equal(t, "Father Name differs between Page 1 and PAN card", errs[1].Message)
}

func TestAssessFaceMatch_AboveThresholdPasses(t *testing.T) {
	similarity := 0.95
	result, verr := testPolicy.AssessFaceMatch(&similarity)

	require.Nil(t, verr)
	require.True(t, result.Pass)
	require.NotNil(t, result.Similarity)
	require.InDelta(t, 0.95, *result.Similarity, 1e-9)
}

func TestAssessFaceMatch_BelowThresholdFailsWithoutError(t *testing.T) {
	similarity := 0.42
	result, verr := testPolicy.AssessFaceMatch(&similarity)

	require.Nil(t, verr)
	require.False(t, result.Pass)
	require.NotNil(t, result.Similarity)
}

func TestAssessFaceMatch_SimilarityRoundedToTwoDecimals(t *testing.T) {
	similarity := 0.876543
	result, _ := testPolicy.AssessFaceMatch(&similarity)
	require.Equal(t, 0.88, *result.Similarity)
}

func TestAssessFaceMatch_UndeterminedFailsWithError(t *testing.T) {
	result, verr := testPolicy.AssessFaceMatch(nil)

	require.False(t, result.Pass)
	require.Nil(t, result.Similarity)
	require.NotNil(t, verr)
	require.Equal(t, FaceMatchErrorCode, verr.Code)
}
