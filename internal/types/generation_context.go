package types

import "time"

// Category names one of the four fingerprinted input categories.
type Category string

const (
	CategoryCompanyProfile Category = "company_profile"
	CategoryRequirements   Category = "requirements"
	CategoryReferenceDocs  Category = "reference_docs"
	CategoryQuestion       Category = "question"
)

// SourceCounts is diagnostic only; it never participates in staleness
// comparison.
type SourceCounts struct {
	RequirementCount  int `json:"requirement_count"`
	ReferenceDocCount int `json:"reference_doc_count"`
}

// GenerationContext is the immutable fingerprint snapshot recorded on an
// answer at generation time. An empty hash string means the category was
// absent when the answer was generated. Regeneration writes a whole new
// snapshot; an existing one is never edited.
type GenerationContext struct {
	CompanyProfileHash string       `json:"company_profile_hash"`
	RequirementsHash   string       `json:"requirements_hash"`
	ReferenceDocsHash  string       `json:"reference_docs_hash"`
	QuestionHash       string       `json:"question_hash"`
	GeneratedAt        time.Time    `json:"generated_at"`
	SourceCounts       SourceCounts `json:"source_counts"`
}

// Hash returns the stored digest for a category, empty string for unknown
// categories.
func (gc GenerationContext) Hash(cat Category) string {
	switch cat {
	case CategoryCompanyProfile:
		return gc.CompanyProfileHash
	case CategoryRequirements:
		return gc.RequirementsHash
	case CategoryReferenceDocs:
		return gc.ReferenceDocsHash
	case CategoryQuestion:
		return gc.QuestionHash
	}
	return ""
}
