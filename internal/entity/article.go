// Package entity defines the immutable records shared by every component
// of the search gateway: Article and its constituents, the pipeline step
// types, and the AnalyzedQuery produced by the Query Analyzer.
package entity

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/Tangerg/biosearch/pkg/sets"
)

// Article represents one scholarly work across identifiers. It is a value
// object: once emitted by the aggregator it is immutable to callers.
type Article struct {
	// Identifiers. At least one of these, or a non-empty Title, must be
	// present — adapters discard any record that satisfies neither.
	PMID              string
	DOI               string
	PMC               string
	OpenAlexID        string
	SemanticScholarID string
	ArxivID           string

	Title    string
	Abstract string
	Language string

	Authors        []Author
	Journal        string
	JournalAbbrev  string
	Volume         string
	Issue          string
	Pages          string
	Publisher      string
	PublicationDate *time.Time
	Year            *int
	ArticleType     ArticleType

	Keywords  []string
	MeshTerms []string

	OAStatus       OpenAccessStatus
	OALinks        []OpenAccessLink
	IsOpenAccess   *bool
	CitationMetrics *CitationMetrics

	Sources       []SourceMetadata
	PrimarySource string

	// Transient scoring fields. Populated by the aggregator, never
	// persisted and never compared for equality/dedup purposes.
	RankingScore   float64
	RelevanceScore float64
	QualityScore   float64
}

// Valid reports whether the article satisfies the entity-model invariant
// (P1): at least one identifier, or a non-empty title.
func (a *Article) Valid() bool {
	if strings.TrimSpace(a.Title) != "" {
		return true
	}
	return a.PMID != "" || a.DOI != "" || a.PMC != "" ||
		a.OpenAlexID != "" || a.SemanticScholarID != "" || a.ArxivID != ""
}

// BestIdentifier returns the best available identifier for display/log
// lines. It is never used as a dedup key — §4.3 specifies the canonical
// key separately.
func (a *Article) BestIdentifier() string {
	switch {
	case a.PMID != "":
		return "PMID:" + a.PMID
	case a.DOI != "":
		return "DOI:" + a.DOI
	case a.PMC != "":
		return "PMC:" + a.PMC
	case a.OpenAlexID != "":
		return "OpenAlex:" + a.OpenAlexID
	case a.SemanticScholarID != "":
		id := a.SemanticScholarID
		if len(id) > 8 {
			id = id[:8]
		}
		return "SemanticScholar:" + id + "..."
	default:
		t := a.Title
		if len(t) > 30 {
			t = t[:30]
		}
		return "Title:" + t + "..."
	}
}

// HasOpenAccess reports whether the article has any open-access option.
func (a *Article) HasOpenAccess() bool {
	if a.IsOpenAccess != nil && *a.IsOpenAccess {
		return true
	}
	if a.OAStatus.isOpen() {
		return true
	}
	return len(a.OALinks) > 0
}

// BestOALink returns the open-access link marked IsBest, or the first
// available link, or nil.
func (a *Article) BestOALink() *OpenAccessLink {
	if len(a.OALinks) == 0 {
		return nil
	}
	for i := range a.OALinks {
		if a.OALinks[i].IsBest {
			return &a.OALinks[i]
		}
	}
	return &a.OALinks[0]
}

// MergeFrom merges another article's data into a, per §3.1/§4.3 and
// testable property P4: left-biased on scalars (a's non-empty scalars
// win), additive on collections (union of both inputs').
func (a *Article) MergeFrom(other *Article) {
	if other == nil {
		return
	}
	if a.PMID == "" {
		a.PMID = other.PMID
	}
	if a.DOI == "" {
		a.DOI = other.DOI
	}
	if a.PMC == "" {
		a.PMC = other.PMC
	}
	if a.OpenAlexID == "" {
		a.OpenAlexID = other.OpenAlexID
	}
	if a.SemanticScholarID == "" {
		a.SemanticScholarID = other.SemanticScholarID
	}
	if a.ArxivID == "" {
		a.ArxivID = other.ArxivID
	}
	if a.Abstract == "" {
		a.Abstract = other.Abstract
	}
	if a.Journal == "" {
		a.Journal = other.Journal
	}
	if a.JournalAbbrev == "" {
		a.JournalAbbrev = other.JournalAbbrev
	}
	if a.Volume == "" {
		a.Volume = other.Volume
	}
	if a.Issue == "" {
		a.Issue = other.Issue
	}
	if a.Pages == "" {
		a.Pages = other.Pages
	}
	if a.Year == nil {
		a.Year = other.Year
	}
	if a.PublicationDate == nil {
		a.PublicationDate = other.PublicationDate
	}
	if a.Publisher == "" {
		a.Publisher = other.Publisher
	}
	if a.ArticleType == "" || a.ArticleType == ArticleTypeUnknown {
		if other.ArticleType != "" && other.ArticleType != ArticleTypeUnknown {
			a.ArticleType = other.ArticleType
		}
	}
	if len(a.Authors) == 0 {
		a.Authors = append([]Author(nil), other.Authors...)
	}

	a.Keywords = unionStrings(a.Keywords, other.Keywords)
	a.MeshTerms = unionStrings(a.MeshTerms, other.MeshTerms)

	if a.OAStatus == "" || a.OAStatus == OAUnknown {
		a.OAStatus = other.OAStatus
	}
	if a.IsOpenAccess == nil {
		a.IsOpenAccess = other.IsOpenAccess
	}
	a.OALinks = unionOALinks(a.OALinks, other.OALinks)
	a.CitationMetrics = mergeCitationMetrics(a.CitationMetrics, other.CitationMetrics)
	a.Sources = append(a.Sources, other.Sources...)
}

// unionStrings merges extra into base preserving base's order and
// appending only values base does not already contain, via the
// insertion-ordered LinkedSet.
func unionStrings(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	s := sets.NewLinkedSet[string](len(base) + len(extra))
	s.AddAll(base...)
	s.AddAll(extra...)
	return s.ToSlice()
}

// unionOALinks merges extra into base, deduping on URL while keeping the
// first-seen link for any duplicate.
func unionOALinks(base, extra []OpenAccessLink) []OpenAccessLink {
	if len(extra) == 0 {
		return base
	}
	seenURLs := sets.NewHashSet[string](len(base) + len(extra))
	out := make([]OpenAccessLink, 0, len(base)+len(extra))
	for _, l := range base {
		if seenURLs.Add(l.URL) {
			out = append(out, l)
		}
	}
	for _, l := range extra {
		if seenURLs.Add(l.URL) {
			out = append(out, l)
		}
	}
	return out
}

// --- Identifier normalization (§3.1 / §4.2, properties P2 / L1) ---

var pmidDigitsOnly = regexp.MustCompile(`^[0-9]+$`)

var doiResolverPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"doi.org/",
	"doi:",
}

// NormalizeDOI lowercases and strips known resolver prefixes. Idempotent
// (L1): applying it twice yields the same result as applying it once.
func NormalizeDOI(doi string) string {
	d := strings.TrimSpace(doi)
	d = strings.ToLower(d)
	for _, prefix := range doiResolverPrefixes {
		if strings.HasPrefix(d, prefix) {
			d = d[len(prefix):]
			break
		}
	}
	return strings.TrimSpace(d)
}

// NormalizePMID validates that a PMID is an ASCII digit string, returning
// an error otherwise (§4.2 parsing contract).
func NormalizePMID(pmid string) (string, error) {
	p := strings.TrimSpace(pmid)
	p = strings.TrimPrefix(p, "PMID:")
	p = strings.TrimSpace(p)
	if p == "" || !pmidDigitsOnly.MatchString(p) {
		return "", errors.New("pmid must be an ASCII digit string")
	}
	return p, nil
}

// NormalizePMC uppercases and ensures the "PMC" prefix is present.
func NormalizePMC(pmc string) string {
	p := strings.ToUpper(strings.TrimSpace(pmc))
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "PMC") {
		p = "PMC" + p
	}
	return p
}

// TitlePrefixKey returns the normalized-title-prefix key used by the
// aggregator's dedup union-find: lowercased, alphanumerics only, first 80
// characters.
func TitlePrefixKey(title string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
		if sb.Len() >= 80 {
			break
		}
	}
	return sb.String()
}
