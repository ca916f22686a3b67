package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tangerg/biosearch/internal/entity"
)

func TestParsePubMedRecord_NormalizesIdentifiers(t *testing.T) {
	rec := pubMedSummaryRecord{
		UID:             "12345678",
		Title:           "A Trial of Remimazolam",
		FullJournalName: "Anesthesiology",
		PubDate:         "2021 Jun 14",
		PubType:         []string{"Randomized Controlled Trial"},
		ArticleIds: []struct {
			IDType string `json:"idtype"`
			Value  string `json:"value"`
		}{
			{IDType: "doi", Value: "10.1000/EXAMPLE"},
			{IDType: "pmc", Value: "1234567"},
		},
	}

	a := parsePubMedRecord(rec)
	require.True(t, a.Valid())
	assert.Equal(t, "12345678", a.PMID)
	assert.Equal(t, "10.1000/example", a.DOI)
	assert.Equal(t, "PMC1234567", a.PMC)
	assert.Equal(t, BiomedicalID, a.PrimarySource)
	require.NotNil(t, a.Year)
	assert.Equal(t, 2021, *a.Year)
}

func TestParseCrossrefItem_BuildsBibliographicFields(t *testing.T) {
	it := crossrefItem{
		DOI:            "10.1000/Example",
		Title:          []string{"Propofol Versus Remimazolam"},
		Type:           "journal-article",
		ContainerTitle: []string{"Critical Care Medicine"},
		Author: []struct {
			Given  string `json:"given"`
			Family string `json:"family"`
			ORCID  string `json:"ORCID"`
		}{{Given: "Jane", Family: "Smith"}},
		IsReferencedByCount: 42,
	}
	it.Published.DateParts = [][]int{{2020, 3}}

	a := parseCrossrefItem(it)
	require.True(t, a.Valid())
	assert.Equal(t, "10.1000/example", a.DOI)
	assert.Equal(t, "Critical Care Medicine", a.Journal)
	require.Len(t, a.Authors, 1)
	assert.Equal(t, "Smith", a.Authors[0].FamilyName)
	require.NotNil(t, a.CitationMetrics)
	require.NotNil(t, a.CitationMetrics.CitationCount)
	assert.Equal(t, 42, *a.CitationMetrics.CitationCount)
}

func TestParseOpenAlexWork_ExtractsOpenAccessLink(t *testing.T) {
	w := openAlexWork{
		ID:              "https://openalex.org/W123",
		DOI:             "10.1000/example",
		Title:           "Some Title",
		PublicationYear: 2019,
		Type:            "article",
	}
	w.OpenAccess.IsOA = true
	w.OpenAccess.OAStatus = "gold"
	w.OpenAccess.OAURL = "https://example.org/paper.pdf"

	a := parseOpenAlexWork(w)
	require.True(t, a.Valid())
	assert.Equal(t, "W123", a.OpenAlexID)
	assert.True(t, a.HasOpenAccess())
	require.Len(t, a.OALinks, 1)
	assert.True(t, a.OALinks[0].IsPDF())
}

func TestParseSemanticScholarPaper_MapsExternalIDs(t *testing.T) {
	p := semanticScholarPaper{
		PaperID: "abc123",
		Title:   "A Paper",
		Year:    2022,
		ExternalIDs: map[string]string{
			"DOI":    "10.1000/example",
			"PubMed": "12345678",
		},
		CitationCount: 10,
	}

	a := parseSemanticScholarPaper(p)
	require.True(t, a.Valid())
	assert.Equal(t, "10.1000/example", a.DOI)
	assert.Equal(t, "12345678", a.PMID)
	require.NotNil(t, a.CitationMetrics.CitationCount)
	assert.Equal(t, 10, *a.CitationMetrics.CitationCount)
}

func TestParseUnpaywallRecord_PrefersBestLocation(t *testing.T) {
	rec := unpaywallRecord{
		DOI:      "10.1000/example",
		Title:    "Some Title",
		IsOA:     true,
		OAStatus: "green",
	}
	rec.BestOALocation = &unpaywallLocation{URL: "https://repo.example.org/paper", HostType: "repository"}
	rec.OALocations = []unpaywallLocation{*rec.BestOALocation}

	a := parseUnpaywallRecord(rec)
	require.True(t, a.Valid())
	assert.True(t, a.HasOpenAccess())
	require.NotNil(t, a.BestOALink())
	assert.True(t, a.BestOALink().IsBest)
}

func TestApplyFiltersClientSide_FiltersByYear(t *testing.T) {
	old := parseCrossrefItem(crossrefItem{DOI: "10.1/old", Title: []string{"Old"}})
	oldYear := 2010
	old.Year = &oldYear

	recent := parseCrossrefItem(crossrefItem{DOI: "10.1/new", Title: []string{"New"}})
	recentYear := 2022
	recent.Year = &recentYear

	from := 2018
	out := applyFiltersClientSide([]*entity.Article{old, recent}, Filters{MinYear: &from})
	require.Len(t, out, 1)
	assert.Equal(t, "10.1/new", out[0].DOI)
}
