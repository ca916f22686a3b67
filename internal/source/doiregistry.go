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

// DOIRegistryID is this adapter's source id.
const DOIRegistryID = "doi_registry"

// DOIRegistry wraps the Crossref works API: the system of record for DOI
// metadata, bibliographic fields, and publisher-reported reference counts.
type DOIRegistry struct {
	httpCore
	baseURL string
	mailto  string
}

var _ Adapter = (*DOIRegistry)(nil)

// NewDOIRegistry constructs the DOI registry adapter. mailto, if set, is
// appended to every request per Crossref's polite-pool convention and
// costs nothing extra against the rate budget.
func NewDOIRegistry(baseURL, mailto string, log *zap.SugaredLogger) *DOIRegistry {
	return &DOIRegistry{
		httpCore: newHTTPCore(DOIRegistryID, ratelimit.NewDOIRegistry(), log),
		baseURL:  baseURL,
		mailto:   mailto,
	}
}

func (d *DOIRegistry) ID() string { return DOIRegistryID }

func (d *DOIRegistry) Search(ctx context.Context, query string, limit int, filters Filters) ([]*entity.Article, error) {
	if limit <= 0 {
		return nil, nil
	}
	v := url.Values{}
	v.Set("query.bibliographic", query)
	v.Set("rows", strconv.Itoa(limit))
	if filters.MinYear != nil {
		v.Set("filter", fmt.Sprintf("from-pub-date:%d-01-01", *filters.MinYear))
	}
	d.addMailto(v)

	body, err := d.doGET(ctx, fmt.Sprintf("%s/works?%s", strings.TrimRight(d.baseURL, "/"), v.Encode()))
	if err != nil {
		return nil, err
	}
	items, err := parseCrossrefItems(body)
	if err != nil {
		return nil, errs.WrapUpstreamParseError(err, "doi_registry works search: unexpected payload")
	}
	var out []*entity.Article
	for _, it := range items {
		a := parseCrossrefItem(it)
		if a.Valid() {
			out = append(out, a)
		}
	}
	return applyFiltersClientSide(out, filters), nil
}

func (d *DOIRegistry) FetchByID(ctx context.Context, ids []string) ([]*entity.Article, error) {
	ids = dedupPreserveOrder(ids)
	var out []*entity.Article
	for _, id := range ids {
		v := url.Values{}
		d.addMailto(v)
		u := fmt.Sprintf("%s/works/%s?%s", strings.TrimRight(d.baseURL, "/"), url.PathEscape(entity.NormalizeDOI(id)), v.Encode())
		body, err := d.doGET(ctx, u)
		if err != nil {
			if kind, ok := errs.KindOf(err); ok && kind == errs.UpstreamUnavailable {
				continue // one missing DOI shouldn't fail the whole batch
			}
			return nil, err
		}
		var envelope struct {
			Message crossrefItem `json:"message"`
		}
		if jsonErr := json.Unmarshal(body, &envelope); jsonErr != nil {
			continue
		}
		a := parseCrossrefItem(envelope.Message)
		if a.Valid() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (d *DOIRegistry) addMailto(v url.Values) {
	if d.mailto != "" {
		v.Set("mailto", d.mailto)
	}
}

type crossrefItem struct {
	DOI       string `json:"DOI"`
	Title     []string `json:"title"`
	Abstract  string   `json:"abstract"`
	Publisher string   `json:"publisher"`
	Type      string   `json:"type"`
	Volume    string   `json:"volume"`
	Issue     string   `json:"issue"`
	Page      string   `json:"page"`
	ISSN      []string `json:"ISSN"`
	ContainerTitle []string `json:"container-title"`
	Author    []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
		ORCID  string `json:"ORCID"`
	} `json:"author"`
	Published struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"published"`
	IsReferencedByCount int `json:"is-referenced-by-count"`
}

type crossrefSearchResponse struct {
	Message struct {
		Items []crossrefItem `json:"items"`
	} `json:"message"`
}

func parseCrossrefItems(body []byte) ([]crossrefItem, error) {
	var r crossrefSearchResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, err
	}
	return r.Message.Items, nil
}

func parseCrossrefItem(it crossrefItem) *entity.Article {
	a := &entity.Article{
		DOI:           entity.NormalizeDOI(it.DOI),
		Abstract:      it.Abstract,
		Publisher:     it.Publisher,
		Volume:        it.Volume,
		Issue:         it.Issue,
		Pages:         it.Page,
		ArticleType:   classifyCrossrefType(it.Type),
		PrimarySource: DOIRegistryID,
	}
	if len(it.Title) > 0 {
		a.Title = strings.TrimSpace(it.Title[0])
	}
	if len(it.ContainerTitle) > 0 {
		a.Journal = it.ContainerTitle[0]
	}
	for _, au := range it.Author {
		a.Authors = append(a.Authors, entity.Author{
			GivenName:  au.Given,
			FamilyName: au.Family,
			ORCID:      au.ORCID,
		})
	}
	if len(it.Published.DateParts) > 0 && len(it.Published.DateParts[0]) > 0 {
		a.Year = ptr.Pointer(it.Published.DateParts[0][0])
	}
	if it.IsReferencedByCount > 0 {
		a.CitationMetrics = &entity.CitationMetrics{CitationCount: ptr.Pointer(it.IsReferencedByCount)}
	}
	a.Sources = []entity.SourceMetadata{{Source: DOIRegistryID}}
	return a
}

func classifyCrossrefType(t string) entity.ArticleType {
	switch strings.ToLower(t) {
	case "journal-article":
		return entity.ArticleTypeJournalArticle
	case "book-chapter":
		return entity.ArticleTypeBookChapter
	case "proceedings-article":
		return entity.ArticleTypeConference
	case "posted-content":
		return entity.ArticleTypePreprint
	case "dataset":
		return entity.ArticleTypeDataset
	default:
		return entity.ArticleTypeOther
	}
}
