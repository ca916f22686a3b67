package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Tangerg/biosearch/internal/entity"
	"github.com/Tangerg/biosearch/internal/errs"
	"github.com/Tangerg/biosearch/internal/ratelimit"
)

// BiomedicalID is this adapter's source id, used as Article.PrimarySource
// and as the trust-table key in the aggregator.
const BiomedicalID = "biomedical"

// Biomedical wraps the NCBI E-utilities family (esearch/esummary/efetch)
// the way the original system's entrez client does. It is the only
// adapter implementing CitationsCapable, matching §4.2.
type Biomedical struct {
	httpCore
	baseURL string
	apiKey  string
}

var (
	_ Adapter           = (*Biomedical)(nil)
	_ CitationsCapable = (*Biomedical)(nil)
)

// NewBiomedical constructs the biomedical source adapter. apiKey may be
// empty; rate-limit defaults scale up automatically when it is not
// (§4.2: 3 rps without a key, 10 rps with one).
func NewBiomedical(baseURL, apiKey string, log *zap.SugaredLogger) *Biomedical {
	limiter := ratelimit.NewBiomedical(apiKey != "")
	return &Biomedical{
		httpCore: newHTTPCore(BiomedicalID, limiter, log),
		baseURL:  baseURL,
		apiKey:   apiKey,
	}
}

func (b *Biomedical) ID() string { return BiomedicalID }

func (b *Biomedical) Search(ctx context.Context, query string, limit int, filters Filters) ([]*entity.Article, error) {
	if limit <= 0 {
		return nil, nil
	}
	q := applyFiltersToQuery(query, filters)
	u := b.buildURL("esearch.fcgi", map[string]string{
		"db": "pubmed", "term": q, "retmax": strconv.Itoa(limit), "retmode": "json",
	})
	body, err := b.doGET(ctx, u)
	if err != nil {
		return nil, err
	}
	ids, err := parseESearchIDs(body)
	if err != nil {
		return nil, errs.WrapUpstreamParseError(err, "biomedical esearch: unexpected payload")
	}
	if len(ids) == 0 {
		return nil, nil
	}
	articles, err := b.FetchByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	return applyFiltersClientSide(articles, filters), nil
}

func (b *Biomedical) FetchByID(ctx context.Context, ids []string) ([]*entity.Article, error) {
	ids = dedupPreserveOrder(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	u := b.buildURL("esummary.fcgi", map[string]string{
		"db": "pubmed", "id": strings.Join(ids, ","), "retmode": "json",
	})
	body, err := b.doGET(ctx, u)
	if err != nil {
		return nil, err
	}
	records, err := parseESummaryRecords(body)
	if err != nil {
		return nil, errs.WrapUpstreamParseError(err, "biomedical esummary: unexpected payload")
	}
	var out []*entity.Article
	for _, rec := range records {
		a := parsePubMedRecord(rec)
		if a.Valid() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (b *Biomedical) Related(ctx context.Context, id string, limit int) ([]*entity.Article, error) {
	return b.elink(ctx, id, limit, "pubmed_pubmed")
}

func (b *Biomedical) Citing(ctx context.Context, id string, limit int) ([]*entity.Article, error) {
	return b.elink(ctx, id, limit, "pubmed_pubmed_citedin")
}

func (b *Biomedical) References(ctx context.Context, id string, limit int) ([]*entity.Article, error) {
	return b.elink(ctx, id, limit, "pubmed_pubmed_refs")
}

func (b *Biomedical) elink(ctx context.Context, id string, limit int, linkName string) ([]*entity.Article, error) {
	if limit <= 0 {
		limit = 20
	}
	u := b.buildURL("elink.fcgi", map[string]string{
		"dbfrom": "pubmed", "db": "pubmed", "id": id, "linkname": linkName, "retmode": "json",
	})
	body, err := b.doGET(ctx, u)
	if err != nil {
		return nil, err
	}
	ids, err := parseELinkIDs(body)
	if err != nil {
		return nil, errs.WrapUpstreamParseError(err, "biomedical elink: unexpected payload")
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return b.FetchByID(ctx, ids)
}

// SpellCheck follows NCBI ESpell, per the original system's strategy
// module. A soft failure (network error) degrades to returning the
// original query uncorrected, never an error.
func (b *Biomedical) SpellCheck(ctx context.Context, query string) (string, bool, error) {
	u := b.buildURL("espell.fcgi", map[string]string{"db": "pubmed", "term": query, "retmode": "json"})
	body, err := b.doGET(ctx, u)
	if err != nil {
		return query, false, nil
	}
	corrected, err := parseESpellCorrection(body)
	if err != nil || corrected == "" || corrected == query {
		return query, false, nil
	}
	return corrected, true, nil
}

// MeSHSynonyms runs an esearch for term against the MeSH database and
// returns an error only when that request fails. It does not fetch the
// matched record's entry terms, so the synonym list it returns is always
// empty. No other component calls it.
func (b *Biomedical) MeSHSynonyms(ctx context.Context, term string) ([]string, error) {
	u := b.buildURL("esearch.fcgi", map[string]string{
		"db": "mesh", "term": term + "[MeSH Terms]", "retmax": "1", "retmode": "json",
	})
	body, err := b.doGET(ctx, u)
	if err != nil {
		return nil, err
	}
	ids, err := parseESearchIDs(body)
	if err != nil || len(ids) == 0 {
		return nil, nil
	}
	// Entry terms are not fetched (no efetch db=mesh call is made).
	return nil, nil
}

func (b *Biomedical) buildURL(endpoint string, params map[string]string) string {
	v := url.Values{}
	for k, val := range params {
		v.Set(k, val)
	}
	if b.apiKey != "" {
		v.Set("api_key", b.apiKey)
	}
	return fmt.Sprintf("%s/%s?%s", strings.TrimRight(b.baseURL, "/"), endpoint, v.Encode())
}

// --- Wire payload parsing (esearch/esummary/elink/espell JSON) ---

type eSearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

func parseESearchIDs(body []byte) ([]string, error) {
	var r eSearchResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, err
	}
	return r.ESearchResult.IDList, nil
}

type eSpellResponse struct {
	ESpellResult struct {
		CorrectedQuery string `json:"CorrectedQuery"`
	} `json:"eSpellResult"`
}

func parseESpellCorrection(body []byte) (string, error) {
	var r eSpellResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return "", err
	}
	return r.ESpellResult.CorrectedQuery, nil
}

type eLinkResponse struct {
	LinkSets []struct {
		LinkSetDbs []struct {
			Links []string `json:"links"`
		} `json:"linksetdbs"`
	} `json:"linksets"`
}

func parseELinkIDs(body []byte) ([]string, error) {
	var r eLinkResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, err
	}
	var out []string
	for _, ls := range r.LinkSets {
		for _, db := range ls.LinkSetDbs {
			out = append(out, db.Links...)
		}
	}
	return out, nil
}

type pubMedSummaryRecord struct {
	UID        string `json:"uid"`
	Title      string `json:"title"`
	FullJournalName string `json:"fulljournalname"`
	PubDate    string `json:"pubdate"`
	Volume     string `json:"volume"`
	Issue      string `json:"issue"`
	Pages      string `json:"pages"`
	Authors    []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ArticleIds []struct {
		IDType string `json:"idtype"`
		Value  string `json:"value"`
	} `json:"articleids"`
	PubType []string `json:"pubtype"`
}

type eSummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

func parseESummaryRecords(body []byte) ([]pubMedSummaryRecord, error) {
	var r eSummaryResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, err
	}
	uids, _ := r.Result["uids"]
	var uidList []string
	_ = json.Unmarshal(uids, &uidList)

	var out []pubMedSummaryRecord
	for _, uid := range uidList {
		raw, ok := r.Result[uid]
		if !ok {
			continue
		}
		var rec pubMedSummaryRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func parsePubMedRecord(rec pubMedSummaryRecord) *entity.Article {
	a := &entity.Article{
		Title:         strings.TrimSpace(rec.Title),
		Journal:       rec.FullJournalName,
		Volume:        rec.Volume,
		Issue:         rec.Issue,
		Pages:         rec.Pages,
		PrimarySource: BiomedicalID,
		ArticleType:   classifyPubType(rec.PubType),
	}
	if pmid, err := entity.NormalizePMID(rec.UID); err == nil {
		a.PMID = pmid
	}
	for _, id := range rec.ArticleIds {
		switch strings.ToLower(id.IDType) {
		case "doi":
			a.DOI = entity.NormalizeDOI(id.Value)
		case "pmc":
			a.PMC = entity.NormalizePMC(id.Value)
		}
	}
	for _, author := range rec.Authors {
		a.Authors = append(a.Authors, entity.Author{FullName: author.Name})
	}
	if y := leadingYear(rec.PubDate); y != nil {
		a.Year = y
	}
	a.Sources = []entity.SourceMetadata{{Source: BiomedicalID}}
	return a
}

func classifyPubType(types []string) entity.ArticleType {
	for _, t := range types {
		switch strings.ToLower(t) {
		case "meta-analysis":
			return entity.ArticleTypeMetaAnalysis
		case "systematic review":
			return entity.ArticleTypeSystematicRev
		case "randomized controlled trial":
			return entity.ArticleTypeRCT
		case "clinical trial":
			return entity.ArticleTypeClinicalTrial
		case "review":
			return entity.ArticleTypeReview
		case "case reports":
			return entity.ArticleTypeCaseReport
		case "letter":
			return entity.ArticleTypeLetter
		case "editorial":
			return entity.ArticleTypeEditorial
		case "comment":
			return entity.ArticleTypeComment
		case "journal article":
			return entity.ArticleTypeJournalArticle
		}
	}
	return entity.ArticleTypeUnknown
}
