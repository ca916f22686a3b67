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
	"github.com/Tangerg/biosearch/pkg/ptr"
)

// OpenAlexID is this adapter's source id.
const OpenAlexID = "openalex"

// OpenAlex wraps the OpenAlex works API: one of the two open-scholarly
// graph sources contributing citation counts and open-access links.
type OpenAlex struct {
	httpCore
	baseURL string
	mailto  string
}

var _ Adapter = (*OpenAlex)(nil)

func NewOpenAlex(baseURL, mailto string, log *zap.SugaredLogger) *OpenAlex {
	return &OpenAlex{
		httpCore: newHTTPCore(OpenAlexID, ratelimit.NewOpenScholarly(), log),
		baseURL:  baseURL,
		mailto:   mailto,
	}
}

func (o *OpenAlex) ID() string { return OpenAlexID }

func (o *OpenAlex) Search(ctx context.Context, query string, limit int, filters Filters) ([]*entity.Article, error) {
	if limit <= 0 {
		return nil, nil
	}
	v := url.Values{}
	v.Set("search", query)
	v.Set("per-page", strconv.Itoa(limit))
	if o.mailto != "" {
		v.Set("mailto", o.mailto)
	}
	filterParts := []string{}
	if filters.MinYear != nil {
		filterParts = append(filterParts, fmt.Sprintf("from_publication_date:%d-01-01", *filters.MinYear))
	}
	if filters.OpenAccessOnly {
		filterParts = append(filterParts, "is_oa:true")
	}
	if len(filterParts) > 0 {
		v.Set("filter", strings.Join(filterParts, ","))
	}

	body, err := o.doGET(ctx, fmt.Sprintf("%s/works?%s", strings.TrimRight(o.baseURL, "/"), v.Encode()))
	if err != nil {
		return nil, err
	}
	works, err := parseOpenAlexWorks(body)
	if err != nil {
		return nil, errs.WrapUpstreamParseError(err, "openalex works search: unexpected payload")
	}
	var out []*entity.Article
	for _, w := range works {
		a := parseOpenAlexWork(w)
		if a.Valid() {
			out = append(out, a)
		}
	}
	return applyFiltersClientSide(out, filters), nil
}

func (o *OpenAlex) FetchByID(ctx context.Context, ids []string) ([]*entity.Article, error) {
	ids = dedupPreserveOrder(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	filter := "openalex:" + strings.Join(ids, "|")
	v := url.Values{}
	v.Set("filter", filter)
	v.Set("per-page", strconv.Itoa(len(ids)))
	if o.mailto != "" {
		v.Set("mailto", o.mailto)
	}
	body, err := o.doGET(ctx, fmt.Sprintf("%s/works?%s", strings.TrimRight(o.baseURL, "/"), v.Encode()))
	if err != nil {
		return nil, err
	}
	works, err := parseOpenAlexWorks(body)
	if err != nil {
		return nil, errs.WrapUpstreamParseError(err, "openalex works fetch: unexpected payload")
	}
	var out []*entity.Article
	for _, w := range works {
		a := parseOpenAlexWork(w)
		if a.Valid() {
			out = append(out, a)
		}
	}
	return out, nil
}

type openAlexWork struct {
	ID               string `json:"id"`
	DOI              string `json:"doi"`
	Title            string `json:"title"`
	PublicationYear  int    `json:"publication_year"`
	Type             string `json:"type"`
	CitedByCount     int    `json:"cited_by_count"`
	PrimaryLocation  struct {
		Source struct {
			DisplayName string `json:"display_name"`
		} `json:"source"`
		PdfURL  string `json:"pdf_url"`
		License string `json:"license"`
		IsOA    bool   `json:"is_oa"`
	} `json:"primary_location"`
	OpenAccess struct {
		IsOA   bool   `json:"is_oa"`
		OAStatus string `json:"oa_status"`
		OAURL  string `json:"oa_url"`
	} `json:"open_access"`
	Authorships []struct {
		Author struct {
			DisplayName string `json:"display_name"`
			ORCID       string `json:"orcid"`
		} `json:"author"`
	} `json:"authorships"`
}

type openAlexSearchResponse struct {
	Results []openAlexWork `json:"results"`
}

func parseOpenAlexWorks(body []byte) ([]openAlexWork, error) {
	var single openAlexWork
	if err := json.Unmarshal(body, &single); err == nil && single.ID != "" {
		return []openAlexWork{single}, nil
	}
	var r openAlexSearchResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, err
	}
	return r.Results, nil
}

func parseOpenAlexWork(w openAlexWork) *entity.Article {
	a := &entity.Article{
		OpenAlexID:    strings.TrimPrefix(w.ID, "https://openalex.org/"),
		DOI:           entity.NormalizeDOI(w.DOI),
		Title:         strings.TrimSpace(w.Title),
		Journal:       w.PrimaryLocation.Source.DisplayName,
		ArticleType:   classifyOpenAlexType(w.Type),
		PrimarySource: OpenAlexID,
	}
	if w.PublicationYear > 0 {
		a.Year = ptr.Pointer(w.PublicationYear)
	}
	if w.CitedByCount > 0 {
		a.CitationMetrics = &entity.CitationMetrics{CitationCount: ptr.Pointer(w.CitedByCount)}
	}
	for _, auth := range w.Authorships {
		a.Authors = append(a.Authors, entity.Author{
			FullName: auth.Author.DisplayName,
			ORCID:    strings.TrimPrefix(auth.Author.ORCID, "https://orcid.org/"),
		})
	}
	if w.OpenAccess.IsOA {
		a.IsOpenAccess = ptr.Pointer(true)
		a.OAStatus = classifyOAStatus(w.OpenAccess.OAStatus)
		if w.OpenAccess.OAURL != "" {
			a.OALinks = append(a.OALinks, entity.OpenAccessLink{
				URL:      w.OpenAccess.OAURL,
				HostType: "publisher",
				License:  w.PrimaryLocation.License,
				IsBest:   true,
			})
		}
	}
	a.Sources = []entity.SourceMetadata{{Source: OpenAlexID}}
	return a
}

func classifyOpenAlexType(t string) entity.ArticleType {
	switch strings.ToLower(t) {
	case "article":
		return entity.ArticleTypeJournalArticle
	case "review":
		return entity.ArticleTypeReview
	case "preprint":
		return entity.ArticleTypePreprint
	case "book-chapter":
		return entity.ArticleTypeBookChapter
	case "dataset":
		return entity.ArticleTypeDataset
	case "dissertation":
		return entity.ArticleTypeThesis
	default:
		return entity.ArticleTypeOther
	}
}

func classifyOAStatus(s string) entity.OpenAccessStatus {
	switch strings.ToLower(s) {
	case "gold":
		return entity.OAGold
	case "green":
		return entity.OAGreen
	case "hybrid":
		return entity.OAHybrid
	case "bronze":
		return entity.OABronze
	case "closed":
		return entity.OAClosed
	default:
		return entity.OAUnknown
	}
}
