package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDOI_Idempotent(t *testing.T) {
	cases := []string{
		"https://doi.org/10.1000/Example",
		"DOI:10.1000/Example",
		"  10.1000/EXAMPLE  ",
	}
	for _, c := range cases {
		once := NormalizeDOI(c)
		twice := NormalizeDOI(once)
		assert.Equal(t, once, twice, "normalization must be idempotent for %q", c)
	}
	assert.Equal(t, "10.1000/example", NormalizeDOI("https://doi.org/10.1000/Example"))
}

func TestNormalizePMID(t *testing.T) {
	got, err := NormalizePMID("PMID:12345678")
	require.NoError(t, err)
	assert.Equal(t, "12345678", got)

	_, err = NormalizePMID("not-a-pmid")
	assert.Error(t, err)
}

func TestNormalizePMC(t *testing.T) {
	assert.Equal(t, "PMC7096777", NormalizePMC("pmc7096777"))
	assert.Equal(t, "PMC7096777", NormalizePMC("7096777"))
}

func TestArticle_Valid(t *testing.T) {
	assert.True(t, (&Article{Title: "Something"}).Valid())
	assert.True(t, (&Article{PMID: "123"}).Valid())
	assert.False(t, (&Article{}).Valid())
}

func TestArticle_MergeFrom_LeftBiasedAdditive(t *testing.T) {
	primary := &Article{
		Title:    "Primary Title",
		PMID:     "111",
		Keywords: []string{"sepsis"},
		Sources:  []SourceMetadata{{Source: "pubmed"}},
	}
	other := &Article{
		Title:    "Other Title",
		DOI:      "10.1/other",
		Abstract: "an abstract",
		Keywords: []string{"sepsis", "icu"},
		Sources:  []SourceMetadata{{Source: "crossref"}},
	}

	primary.MergeFrom(other)

	// scalars: primary's non-empty values win
	assert.Equal(t, "Primary Title", primary.Title)
	assert.Equal(t, "111", primary.PMID)
	// scalar filled in from other when primary's was empty
	assert.Equal(t, "10.1/other", primary.DOI)
	assert.Equal(t, "an abstract", primary.Abstract)
	// collections are the superset of both inputs
	assert.ElementsMatch(t, []string{"sepsis", "icu"}, primary.Keywords)
	assert.Len(t, primary.Sources, 2)
}

func TestTitlePrefixKey(t *testing.T) {
	a := TitlePrefixKey("Propofol Sedation in the ICU!!")
	b := TitlePrefixKey("propofol sedation in the icu")
	assert.Equal(t, a, b)
}

func TestCitationMetrics_ImpactLevel(t *testing.T) {
	high := 95.0
	m := &CitationMetrics{NIHPercentile: &high}
	assert.Equal(t, "high", m.ImpactLevel())
	assert.Equal(t, "unknown", (*CitationMetrics)(nil).ImpactLevel())
}
