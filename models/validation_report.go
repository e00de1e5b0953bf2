package models

// FieldComparison holds the cross-check outcome for a single identity field.
type FieldComparison struct {
	Score      int     `json:"score"` // 0-100 similarity between both pages
	Pass       bool    `json:"pass"`
	Page1Value *string `json:"page1_value"` // nil when the field was not found on the form page
	Page2Value *string `json:"page2_value"` // nil when the field was not found on the PAN card
}

// FaceMatchResult holds the face comparison outcome. A nil Similarity means
// no similarity could be computed, which always fails validation.
type FaceMatchResult struct {
	Similarity *float64 `json:"similarity"` // 0-1 similarity score
	Pass       bool     `json:"pass"`
}

type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Metrics maps a timing label to elapsed milliseconds. Each stage writes its
// key exactly once per request.
type Metrics map[string]int64

// ValidationReport is the full response for one document validation request.
// It is assembled once by the orchestrator and never mutated or persisted.
type ValidationReport struct {
	ApplicationId string                     `json:"application_id"`
	FieldMatches  map[string]FieldComparison `json:"field_matches"`
	FieldPass     bool                       `json:"field_pass"`
	FaceMatch     FaceMatchResult            `json:"face_match"`
	OverallPass   bool                       `json:"overall_pass"`
	Errors        []ValidationError          `json:"errors"`
	ProcessedAt   string                     `json:"processed_at"`
	Metrics       Metrics                    `json:"metrics"`
}
