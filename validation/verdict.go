package validation

import (
	"fmt"
	"math"
	"strings"

	"go-pan-validator/document"
	"go-pan-validator/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	FaceMatchErrorCode    = "FACE_MATCH_ERROR"
	faceMatchErrorMessage = "Could not process face comparison"
)

var fieldTitle = cases.Title(language.English)

// Policy holds the pass thresholds applied by the verdict builder.
type Policy struct {
	FieldMatchThreshold int     // minimum 0-100 field score
	FaceMatchThreshold  float64 // minimum 0-1 face similarity
}

// CompareFields builds exactly one FieldComparison per required field, in
// canonical field order. A field absent on either side scores 0 and fails;
// every failing field appends a {FIELD}_MISMATCH error.
func (p Policy) CompareFields(form, card document.Fields) (map[string]models.FieldComparison, bool, []models.ValidationError) {
	comparisons := make(map[string]models.FieldComparison, len(document.RequiredFields))
	errors := []models.ValidationError{}
	allPass := true

	for _, field := range document.RequiredFields {
		formValue, formPresent := form.Lookup(field)
		cardValue, cardPresent := card.Lookup(field)

		score := Score(formValue, cardValue)
		passed := score >= p.FieldMatchThreshold
		comparisons[field] = models.FieldComparison{
			Score:      score,
			Pass:       passed,
			Page1Value: optional(formValue, formPresent),
			Page2Value: optional(cardValue, cardPresent),
		}
		if !passed {
			allPass = false
			errors = append(errors, models.ValidationError{
				Code:    strings.ToUpper(field) + "_MISMATCH",
				Message: fmt.Sprintf("%s differs between Page 1 and PAN card", humanFieldName(field)),
			})
		}
	}

	return comparisons, allPass, errors
}

// AssessFaceMatch applies the face threshold. A nil similarity means the
// comparison could not be computed; that is a terminal outcome which fails
// the face check and yields the dedicated FACE_MATCH_ERROR entry.
func (p Policy) AssessFaceMatch(similarity *float64) (models.FaceMatchResult, *models.ValidationError) {
	if similarity == nil {
		return models.FaceMatchResult{Pass: false},
			&models.ValidationError{Code: FaceMatchErrorCode, Message: faceMatchErrorMessage}
	}

	rounded := math.Round(*similarity*100) / 100
	return models.FaceMatchResult{
		Similarity: &rounded,
		Pass:       *similarity >= p.FaceMatchThreshold,
	}, nil
}

func humanFieldName(field string) string {
	return fieldTitle.String(strings.ReplaceAll(field, "_", " "))
}

func optional(value string, present bool) *string {
	if !present {
		return nil
	}
	return &value
}
