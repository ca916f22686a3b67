package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/Tangerg/biosearch/internal/entity"
	"github.com/Tangerg/biosearch/internal/errs"
	"github.com/Tangerg/biosearch/internal/ratelimit"
	"github.com/Tangerg/biosearch/pkg/ptr"
)

// FullTextID is this adapter's source id.
const FullTextID = "fulltext_aggregator"

// FullText wraps an Unpaywall-style open-access resolver. It has no native
// search endpoint — DetailsCapable only — and exists to enrich articles
// already found elsewhere with full-text links, matching the "details-only
// enrichment source" shape called out in §9.
type FullText struct {
	httpCore
	baseURL string
	email   string
}

var _ Adapter = (*FullText)(nil)

func NewFullText(baseURL, email string, hasAPIKey bool, log *zap.SugaredLogger) *FullText {
	return &FullText{
		httpCore: newHTTPCore(FullTextID, ratelimit.NewFullText(hasAPIKey), log),
		baseURL:  baseURL,
		email:    email,
	}
}

func (f *FullText) ID() string { return FullTextID }

// Search always returns an empty result: this source has no search
// endpoint. The executor's dispatch table treats this the same as an
// unimplemented capability — an empty StepResult, not an error (§9).
func (f *FullText) Search(ctx context.Context, query string, limit int, filters Filters) ([]*entity.Article, error) {
	return nil, nil
}

// FetchByID resolves DOIs against the full-text resolver. Non-DOI
// identifiers are skipped: this source is DOI-keyed only.
func (f *FullText) FetchByID(ctx context.Context, ids []string) ([]*entity.Article, error) {
	ids = dedupPreserveOrder(ids)
	var out []*entity.Article
	for _, id := range ids {
		doi := entity.NormalizeDOI(id)
		if doi == "" {
			continue
		}
		v := url.Values{}
		if f.email != "" {
			v.Set("email", f.email)
		}
		u := fmt.Sprintf("%s/%s?%s", strings.TrimRight(f.baseURL, "/"), url.PathEscape(doi), v.Encode())
		body, err := f.doGET(ctx, u)
		if err != nil {
			if kind, ok := errs.KindOf(err); ok && kind == errs.UpstreamUnavailable {
				continue
			}
			return nil, err
		}
		var rec unpaywallRecord
		if jsonErr := json.Unmarshal(body, &rec); jsonErr != nil {
			continue
		}
		a := parseUnpaywallRecord(rec)
		if a.Valid() {
			out = append(out, a)
		}
	}
	return out, nil
}

type unpaywallRecord struct {
	DOI      string `json:"doi"`
	Title    string `json:"title"`
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	BestOALocation *unpaywallLocation `json:"best_oa_location"`
	OALocations    []unpaywallLocation `json:"oa_locations"`
}

type unpaywallLocation struct {
	URLForPDF string `json:"url_for_pdf"`
	URL       string `json:"url"`
	HostType  string `json:"host_type"`
	License   string `json:"license"`
	Version   string `json:"version"`
}

func parseUnpaywallRecord(rec unpaywallRecord) *entity.Article {
	a := &entity.Article{
		DOI:           entity.NormalizeDOI(rec.DOI),
		Title:         strings.TrimSpace(rec.Title),
		PrimarySource: FullTextID,
	}
	a.OAStatus = classifyOAStatus(rec.OAStatus)
	if rec.IsOA {
		a.IsOpenAccess = ptr.Pointer(true)
	}
	for i, loc := range rec.OALocations {
		link := entity.OpenAccessLink{
			URL:      locationURL(loc),
			HostType: loc.HostType,
			License:  loc.License,
			Version:  loc.Version,
		}
		if rec.BestOALocation != nil && loc.URL == rec.BestOALocation.URL {
			link.IsBest = true
		}
		_ = i
		a.OALinks = append(a.OALinks, link)
	}
	if len(a.OALinks) == 0 && rec.BestOALocation != nil {
		a.OALinks = append(a.OALinks, entity.OpenAccessLink{
			URL:      locationURL(*rec.BestOALocation),
			HostType: rec.BestOALocation.HostType,
			License:  rec.BestOALocation.License,
			Version:  rec.BestOALocation.Version,
			IsBest:   true,
		})
	}
	a.Sources = []entity.SourceMetadata{{Source: FullTextID}}
	return a
}

func locationURL(loc unpaywallLocation) string {
	if loc.URLForPDF != "" {
		return loc.URLForPDF
	}
	return loc.URL
}
