package aggregator

import (
	"github.com/Tangerg/biosearch/internal/entity"
)

// TrustPriors maps a source id to its configured trust prior (§4.3).
// Seeded from the spec's defaults; overridable via configuration.
var TrustPriors = map[string]float64{
	"biomedical":          1.0,
	"doi_registry":        0.9,
	"openalex":            0.85,
	"semantic_scholar":    0.85,
	"fulltext_aggregator": 0.7,
}

func trustOf(source string) float64 {
	if t, ok := TrustPriors[source]; ok {
		return t
	}
	return 0.5
}

// mergeGroup picks the primary article from a dedup group by the §4.3
// lexicographic ordering, then folds every other member into it via
// MergeFrom, and returns the single resulting article.
func mergeGroup(group []*entity.Article) *entity.Article {
	if len(group) == 1 {
		return group[0]
	}
	primaryIdx := 0
	for i := 1; i < len(group); i++ {
		if comparePrimary(group[i], group[primaryIdx]) {
			primaryIdx = i
		}
	}
	primary := group[primaryIdx]
	for i, a := range group {
		if i == primaryIdx {
			continue
		}
		primary.MergeFrom(a)
	}
	return primary
}

// comparePrimary reports whether candidate should be preferred over
// current as the group's primary article, per §4.3's three-level
// lexicographic ordering: identifier count, populated-biblio-field
// count, source trust.
func comparePrimary(candidate, current *entity.Article) bool {
	cID, curID := identifierCount(candidate), identifierCount(current)
	if cID != curID {
		return cID > curID
	}
	cBib, curBib := populatedBiblioCount(candidate), populatedBiblioCount(current)
	if cBib != curBib {
		return cBib > curBib
	}
	return trustOf(candidate.PrimarySource) > trustOf(current.PrimarySource)
}

func identifierCount(a *entity.Article) int {
	n := 0
	for _, id := range []string{a.PMID, a.DOI, a.PMC, a.OpenAlexID, a.SemanticScholarID, a.ArxivID} {
		if id != "" {
			n++
		}
	}
	return n
}

// populatedBiblioCount counts the populated fields among the seven
// bibliographic fields named in §4.3: abstract, journal, volume, issue,
// pages, and year (plus publisher, to round out the "bibliographic
// fields" the merge step fills).
func populatedBiblioCount(a *entity.Article) int {
	n := 0
	if a.Abstract != "" {
		n++
	}
	if a.Journal != "" {
		n++
	}
	if a.Volume != "" {
		n++
	}
	if a.Issue != "" {
		n++
	}
	if a.Pages != "" {
		n++
	}
	if a.Year != nil {
		n++
	}
	if a.Publisher != "" {
		n++
	}
	return n
}
