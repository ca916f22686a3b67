package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tangerg/biosearch/internal/entity"
)

func TestAggregate_DedupByDOI(t *testing.T) {
	a := &entity.Article{DOI: "10.1000/Example", Title: "Example Paper", PrimarySource: "biomedical"}
	b := &entity.Article{DOI: " 10.1000/EXAMPLE ", Title: "Example Paper", PrimarySource: "openalex"}
	a.Sources = []entity.SourceMetadata{{Source: "biomedical"}}
	b.Sources = []entity.SourceMetadata{{Source: "openalex"}}
	a.DOI = entity.NormalizeDOI(a.DOI)
	b.DOI = entity.NormalizeDOI(b.DOI)

	out := Aggregate([][]*entity.Article{{a}, {b}}, "", entity.RankingBalanced)
	require.Len(t, out, 1)
	assert.Len(t, out[0].Sources, 2)
}

func TestAggregate_PrimarySelection_PrefersMoreIdentifiers(t *testing.T) {
	rich := &entity.Article{DOI: "10.1/x", PMID: "111", Title: "Shared Title", PrimarySource: "biomedical"}
	sparse := &entity.Article{DOI: "10.1/x", Title: "Shared Title", PrimarySource: "openalex"}

	group := []*entity.Article{sparse, rich}
	merged := mergeGroup(group)
	assert.Equal(t, "111", merged.PMID)
}

func TestScore_NoQuery_DefaultsRelevanceToHalf(t *testing.T) {
	a := &entity.Article{Title: "Anything", PrimarySource: "biomedical"}
	Score(a, "", entity.RankingBalanced, 1)
	assert.Equal(t, 0.5, a.RelevanceScore)
}

func TestImpactScore_PrefersPercentileOverCount(t *testing.T) {
	pct := 95.0
	count := 1
	m := &entity.CitationMetrics{NIHPercentile: &pct, CitationCount: &count}
	a := &entity.Article{Title: "x", CitationMetrics: m}
	assert.InDelta(t, 0.95, impactScore(a), 0.0001)
}

func TestRecencyScore_UnknownYear(t *testing.T) {
	a := &entity.Article{Title: "x"}
	assert.Equal(t, 0.3, recencyScore(a, 5))
}

func TestAggregate_SortsDescendingByScore(t *testing.T) {
	low := &entity.Article{Title: "Low", PrimarySource: "fulltext_aggregator"}
	high := &entity.Article{Title: "High", PrimarySource: "biomedical"}
	pct := 99.0
	high.CitationMetrics = &entity.CitationMetrics{NIHPercentile: &pct}

	out := Aggregate([][]*entity.Article{{low, high}}, "", entity.RankingImpact)
	require.Len(t, out, 2)
	assert.Equal(t, "High", out[0].Title)
}
