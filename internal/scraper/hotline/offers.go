package hotline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"ProductParser/internal/fetch"
	"ProductParser/internal/models"
	"ProductParser/internal/scraper"
	"ProductParser/utils"
)

// Domain routes hotline product URLs to this source.
const Domain = "hotline.ua"

const (
	baseURL    = "https://hotline.ua"
	graphqlURL = "https://hotline.ua/svc/frontend-api/graphql"
)

// Queries against the hotline frontend GraphQL API. The token returned by
// urlTypeDefiner authorizes the getOffers call for the same product path.
const tokenQuery = `
query urlTypeDefiner($path: String!) {
    urlTypeDefiner(path: $path) {
        token
    }
}`

const offersQuery = `
query getOffers($path: String!, $first: Int!, $cityId: Int!) {
    byPathQueryProduct(path: $path, cityId: $cityId) {
        offers(first: $first) {
            edges {
                node {
                    _id
                    conversionUrl
                    condition
                    conditionId
                    descriptionFull
                    firmTitle
                    price
                }
            }
        }
    }
}`

// Source collects marketplace offers for hotline.ua product pages.
type Source struct {
	client *fetch.Client
	store  scraper.RecordStore
	cityID int

	api     string
	now     func() time.Time
	resolve func(ctx context.Context, rawURL string, headers map[string]string) string
}

func New(client *fetch.Client, store scraper.RecordStore, cityID int) *Source {
	return &Source{
		client:  client,
		store:   store,
		cityID:  cityID,
		api:     graphqlURL,
		now:     time.Now,
		resolve: client.ResolveRedirect,
	}
}

func (s *Source) Name() string { return Domain }

// Parse normalizes rawURL, collects offers within the requested bounds and
// merges them into the store when it is reachable. A URL that does not
// normalize yields an empty result, not an error.
func (s *Source) Parse(ctx context.Context, rawURL string, opts scraper.Options) (*models.ProductData, error) {
	slog.Info("parsing offers", "source", Domain, "url", rawURL)

	cleanURL, cleanPath, slug, ok := utils.NormalizeURL(rawURL, Domain)
	if !ok || slug == "" {
		slog.Error("url failed validation", "source", Domain, "url", rawURL)
		return &models.ProductData{URL: cleanURL, Offers: []models.Offer{}}, nil
	}

	storeOK := s.store.Available(ctx)
	limits := opts.Bounds()

	offers := s.collectOffers(ctx, cleanURL, cleanPath, slug, limits)
	slog.Info("parsed offers", "source", Domain, "url", cleanURL, "count", len(offers))

	if storeOK {
		if err := s.store.MergeOffers(ctx, cleanURL, offers); err != nil {
			return nil, fmt.Errorf("merging offers for %s: %w", cleanURL, err)
		}
	} else {
		slog.Warn("store unavailable, skipping merge", "source", Domain, "url", cleanURL)
	}

	return &models.ProductData{URL: cleanURL, Offers: offers}, nil
}

// collectOffers walks the offer edges until the count limit is reached or
// the time budget runs out. The budget is advisory: the offer being parsed
// when it expires is finished, not abandoned.
func (s *Source) collectOffers(ctx context.Context, canonicalURL, canonicalPath, slug string, limits scraper.Limits) []models.Offer {
	start := s.now()

	token := s.productToken(ctx, canonicalPath)
	if token == "" {
		slog.Warn("no product token, cannot fetch offers", "source", Domain, "path", canonicalPath)
		return []models.Offer{}
	}

	payload := map[string]any{
		"operationName": "getOffers",
		"variables": map[string]any{
			"path":   slug,
			"first":  limits.Count,
			"cityId": s.cityID,
		},
		"query": offersQuery,
	}
	headers := utils.RandomHeaders(map[string]string{
		"Referer":   baseURL + "/",
		"x-token":   token,
		"x-referer": canonicalURL,
	})

	body := s.client.PostJSON(ctx, s.api, payload, headers)
	if body == nil {
		slog.Warn("no offers payload", "source", Domain, "url", canonicalURL)
		return []models.Offer{}
	}

	edges := gjson.GetBytes(body, "data.byPathQueryProduct.offers.edges").Array()

	offers := make([]models.Offer, 0, len(edges))
	index := make(map[string]int, len(edges))
	for _, edge := range edges {
		if elapsed := s.now().Sub(start); elapsed >= limits.Timeout {
			slog.Warn("time budget spent, returning partial results",
				"source", Domain, "elapsed", elapsed, "collected", len(offers))
			break
		}

		offer := s.parseOffer(ctx, edge.Get("node"))
		if pos, seen := index[offer.ID]; seen {
			offers[pos] = offer
		} else {
			index[offer.ID] = len(offers)
			offers = append(offers, offer)
		}

		if limits.Sort == "" && len(offers) >= limits.Count {
			break
		}
	}

	if limits.Sort != "" {
		asc := limits.Sort == scraper.SortAsc
		sort.SliceStable(offers, func(i, j int) bool {
			if asc {
				return offers[i].Price < offers[j].Price
			}
			return offers[i].Price > offers[j].Price
		})
		slog.Info("sorted offers by price", "source", Domain, "order", limits.Sort)
	}
	if len(offers) > limits.Count {
		offers = offers[:limits.Count]
	}

	return offers
}

func (s *Source) productToken(ctx context.Context, canonicalPath string) string {
	payload := map[string]any{
		"operationName": "urlTypeDefiner",
		"variables":     map[string]any{"path": canonicalPath},
		"query":         tokenQuery,
	}
	headers := utils.RandomHeaders(map[string]string{"Referer": baseURL + "/"})

	body := s.client.PostJSON(ctx, s.api, payload, headers)
	return gjson.GetBytes(body, "data.urlTypeDefiner.token").String()
}

func (s *Source) parseOffer(ctx context.Context, node gjson.Result) models.Offer {
	id := node.Get("_id").String()
	if id == "" {
		id = "unknown"
	}

	offerURL := strings.TrimRight(joinURL(baseURL, node.Get("conversionUrl").String()), "/")
	headers := utils.RandomHeaders(map[string]string{"Referer": baseURL + "/"})

	return models.Offer{
		ID:          id,
		URL:         offerURL,
		OriginalURL: s.resolve(ctx, offerURL, headers),
		Title:       node.Get("descriptionFull").String(),
		Shop:        node.Get("firmTitle").String(),
		Price:       node.Get("price").Float(),
		IsUsed:      node.Get("conditionId").Int() == 1,
		ParsedAt:    s.now().Unix(),
	}
}

func joinURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
