// Package queryanalyzer implements the Query Analyzer (§4.4): pure, local
// classification of an input query string. It performs no I/O.
package queryanalyzer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/Tangerg/biosearch/internal/entity"
	"github.com/Tangerg/biosearch/pkg/ptr"
)

var (
	pmidRegex  = regexp.MustCompile(`(?i)(?:PMID:\s*)?\b\d{7,8}\b`)
	doiRegex   = regexp.MustCompile(`(?i)\b10\.\d{4,9}/[^\s"']+`)
	pmcRegex   = regexp.MustCompile(`(?i)\bPMC\s?\d{6,8}\b`)
	arxivRegex = regexp.MustCompile(`\b\d{4}\.\d{4,5}\b`)

	explicitYearRange = regexp.MustCompile(`\b(19|20)\d{2}\s*-\s*(19|20)\d{2}\b`)
	recentPhrase      = regexp.MustCompile(`(?i)\b(recent|last\s+(\d+)\s+years?|past\s+(\d+)\s+years?)\b`)
	bareYear          = regexp.MustCompile(`\b(19|20)\d{2}\b`)

	comparisonMarkers = []string{"vs", "vs.", "versus", "compared", "better", "worse", "superior"}
	citationMarkers   = []string{"citing", "cited by", "related to"}
	authorMarkers     = []string{"author", "publications by", "papers by"}
	systematicMarkers = []string{"systematic", "meta-analysis", "meta analysis", "pico"}

	ambiguityTerms = map[string]struct{}{
		"cancer": {}, "diabetes": {}, "heart": {}, "brain": {},
		"treatment": {}, "infection": {}, "disease": {}, "pain": {},
	}

	stopwords = map[string]struct{}{
		"the": {}, "a": {}, "an": {}, "of": {}, "in": {}, "on": {}, "for": {},
		"and": {}, "or": {}, "to": {}, "with": {}, "is": {}, "are": {}, "vs": {},
		"versus": {}, "by": {},
	}

	therapyKeywords   = []string{"treatment", "therapy", "drug", "intervention", "efficacy", "randomized", "sedation"}
	diagnosisKeywords = []string{"diagnosis", "diagnostic", "screening", "sensitivity", "specificity", "test accuracy"}
	prognosisKeywords = []string{"prognosis", "outcome", "survival", "mortality", "recurrence"}
	etiologyKeywords  = []string{"cause", "etiology", "aetiology", "risk factor", "pathogenesis"}
)

// Analyze classifies an input query string, purely, with no I/O.
func Analyze(query string) *entity.AnalyzedQuery {
	normalized := strings.TrimSpace(query)
	lower := strings.ToLower(normalized)

	identifiers := extractIdentifiers(normalized)
	keywords := extractKeywords(lower)
	pico := detectPICO(lower)
	clinical := detectClinicalCategory(lower)
	yearFrom, yearTo := extractYearRange(lower)

	intent := detectIntent(lower, identifiers)
	complexity := determineComplexity(lower, identifiers, keywords, pico)

	aq := &entity.AnalyzedQuery{
		Original:         query,
		Normalized:       normalized,
		Complexity:       complexity,
		Intent:           intent,
		Identifiers:      identifiers,
		Keywords:         keywords,
		ClinicalCategory: clinical,
		YearFrom:         yearFrom,
		YearTo:           yearTo,
		PICO:             pico,
	}
	aq.RecommendedSources, aq.RecommendedStrategies = recommend(complexity, intent)
	aq.Confidence = confidence(identifiers, pico, clinical, keywords)
	return aq
}

func extractIdentifiers(q string) []entity.ExtractedIdentifier {
	var out []entity.ExtractedIdentifier
	if m := doiRegex.FindString(q); m != "" {
		out = append(out, entity.ExtractedIdentifier{Type: entity.IdentifierDOI, Value: strings.ToLower(m), Confidence: 0.95})
	}
	if m := pmcRegex.FindString(q); m != "" {
		out = append(out, entity.ExtractedIdentifier{Type: entity.IdentifierPMC, Value: strings.ToUpper(strings.ReplaceAll(m, " ", "")), Confidence: 0.9})
	}
	if m := pmidRegex.FindString(q); m != "" {
		digits := regexp.MustCompile(`\d{7,8}`).FindString(m)
		out = append(out, entity.ExtractedIdentifier{Type: entity.IdentifierPMID, Value: digits, Confidence: 0.85})
	}
	if m := arxivRegex.FindString(q); m != "" {
		out = append(out, entity.ExtractedIdentifier{Type: entity.IdentifierArxiv, Value: m, Confidence: 0.8})
	}
	return out
}

func extractKeywords(lower string) []string {
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return lo.Filter(fields, func(w string, _ int) bool {
		if len(w) < 3 {
			return false
		}
		_, stop := stopwords[w]
		return !stop
	})
}

func detectIntent(lower string, identifiers []entity.ExtractedIdentifier) entity.Intent {
	if len(identifiers) > 0 {
		return entity.IntentLookup
	}
	if containsAny(lower, citationMarkers) {
		return entity.IntentCitationTracking
	}
	if containsAny(lower, authorMarkers) {
		return entity.IntentAuthorSearch
	}
	if containsAny(lower, comparisonMarkers) {
		return entity.IntentComparison
	}
	if containsAny(lower, systematicMarkers) {
		return entity.IntentSystematic
	}
	return entity.IntentExploration
}

func determineComplexity(lower string, identifiers []entity.ExtractedIdentifier, keywords []string, pico *entity.PICO) entity.Complexity {
	if len(identifiers) > 0 && len(keywords) <= 2 {
		return entity.ComplexitySimple
	}
	if pico.HasComparisonOrOutcome() || containsAny(lower, comparisonMarkers) {
		return entity.ComplexityComplex
	}
	if len(keywords) == 1 {
		if _, ambiguous := ambiguityTerms[keywords[0]]; ambiguous {
			return entity.ComplexityAmbiguous
		}
	}
	if len(keywords) >= 3 {
		return entity.ComplexityModerate
	}
	return entity.ComplexitySimple
}

func detectClinicalCategory(lower string) entity.ClinicalCategory {
	switch {
	case containsAny(lower, therapyKeywords):
		return entity.ClinicalTherapy
	case containsAny(lower, diagnosisKeywords):
		return entity.ClinicalDiagnosis
	case containsAny(lower, prognosisKeywords):
		return entity.ClinicalPrognosis
	case containsAny(lower, etiologyKeywords):
		return entity.ClinicalEtiology
	default:
		return entity.ClinicalNone
	}
}

func detectPICO(lower string) *entity.PICO {
	sep := ""
	switch {
	case strings.Contains(lower, " vs "):
		sep = " vs "
	case strings.Contains(lower, " versus "):
		sep = " versus "
	default:
		return nil
	}
	parts := strings.SplitN(lower, sep, 2)
	if len(parts) != 2 {
		return nil
	}
	return &entity.PICO{
		Intervention: strings.TrimSpace(parts[0]),
		Comparison:   strings.TrimSpace(parts[1]),
	}
}

func extractYearRange(lower string) (*int, *int) {
	if m := explicitYearRange.FindString(lower); m != "" {
		parts := strings.Split(m, "-")
		if len(parts) == 2 {
			from, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
			to, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err1 == nil && err2 == nil {
				return ptr.Pointer(from), ptr.Pointer(to)
			}
		}
	}
	if recentPhrase.MatchString(lower) {
		now := time.Now().Year()
		return ptr.Pointer(now - 5), ptr.Pointer(now)
	}
	if m := bareYear.FindString(lower); m != "" {
		y, err := strconv.Atoi(m)
		if err == nil {
			return ptr.Pointer(y), nil
		}
	}
	return nil, nil
}

func recommend(complexity entity.Complexity, intent entity.Intent) ([]string, []string) {
	const (
		biomedical     = "biomedical"
		doiRegistry    = "doi_registry"
		openScholarly1 = "openalex"
		openScholarly2 = "semantic_scholar"
		fullText       = "fulltext_aggregator"
	)
	all := []string{biomedical, doiRegistry, openScholarly1, openScholarly2, fullText}

	switch {
	case intent == entity.IntentLookup:
		return []string{biomedical, doiRegistry}, []string{"direct_lookup"}
	case intent == entity.IntentComparison:
		return all, []string{"pico_search", "comparison_filter"}
	case intent == entity.IntentSystematic:
		return all, []string{"mesh_expansion", "title_abstract", "clinical_queries"}
	case complexity == entity.ComplexityComplex || complexity == entity.ComplexityAmbiguous:
		return all, []string{"mesh_expansion", "title_abstract", "clinical_queries"}
	case complexity == entity.ComplexityModerate:
		return []string{biomedical, doiRegistry}, []string{"relevance_search"}
	default:
		return []string{biomedical}, []string{"direct_lookup"}
	}
}

func confidence(identifiers []entity.ExtractedIdentifier, pico *entity.PICO, clinical entity.ClinicalCategory, keywords []string) float64 {
	score := 0.5
	if len(identifiers) > 0 {
		score += 0.3
	}
	if pico != nil {
		if pico.Population != "" && pico.Intervention != "" && pico.Comparison != "" && pico.Outcome != "" {
			score += 0.2
		} else if pico.Intervention != "" || pico.Comparison != "" {
			score += 0.1
		}
	}
	if clinical != entity.ClinicalNone {
		score += 0.1
	}
	if len(keywords) >= 3 {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}
	return score
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
