package entity

// Complexity classifies how hard a query is to resolve unambiguously.
type Complexity string

const (
	ComplexitySimple    Complexity = "simple"
	ComplexityModerate  Complexity = "moderate"
	ComplexityComplex   Complexity = "complex"
	ComplexityAmbiguous Complexity = "ambiguous"
)

// Intent classifies what the caller is trying to accomplish.
type Intent string

const (
	IntentLookup           Intent = "lookup"
	IntentExploration       Intent = "exploration"
	IntentComparison        Intent = "comparison"
	IntentSystematic        Intent = "systematic"
	IntentCitationTracking  Intent = "citation_tracking"
	IntentAuthorSearch      Intent = "author_search"
)

// ClinicalCategory classifies the clinical question type, or None.
type ClinicalCategory string

const (
	ClinicalTherapy   ClinicalCategory = "therapy"
	ClinicalDiagnosis ClinicalCategory = "diagnosis"
	ClinicalPrognosis ClinicalCategory = "prognosis"
	ClinicalEtiology  ClinicalCategory = "etiology"
	ClinicalNone      ClinicalCategory = "none"
)

// IdentifierType names the kind of identifier extracted from a raw query.
type IdentifierType string

const (
	IdentifierPMID  IdentifierType = "pmid"
	IdentifierDOI   IdentifierType = "doi"
	IdentifierPMC   IdentifierType = "pmc"
	IdentifierArxiv IdentifierType = "arxiv"
)

// ExtractedIdentifier is one identifier found in the raw query string.
type ExtractedIdentifier struct {
	Type       IdentifierType
	Value      string
	Confidence float64
}

// PICO captures the Population / Intervention / Comparison / Outcome
// structure for clinical questions, when detected or supplied explicitly.
type PICO struct {
	Population   string
	Intervention string
	Comparison   string
	Outcome      string
}

// HasComparisonOrOutcome reports whether the PICO structure has enough
// shape (Intervention plus Comparison or Outcome) to be treated as complex.
func (p *PICO) HasComparisonOrOutcome() bool {
	if p == nil {
		return false
	}
	return p.Intervention != "" && (p.Comparison != "" || p.Outcome != "")
}

// AnalyzedQuery is the output of the Query Analyzer: a pure, local
// classification of an input string, consumed by the Executor and the
// Strategy Generator.
type AnalyzedQuery struct {
	Original   string
	Normalized string

	Complexity Complexity
	Intent     Intent

	Identifiers []ExtractedIdentifier
	Keywords    []string

	ClinicalCategory ClinicalCategory

	YearFrom *int
	YearTo   *int

	PICO *PICO

	RecommendedSources    []string
	RecommendedStrategies []string

	Confidence float64
}
