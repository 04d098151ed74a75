package comfy

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"ProductParser/internal/fetch"
	"ProductParser/internal/models"
	"ProductParser/internal/scraper"
	"ProductParser/utils"
)

// Domain routes comfy product URLs to this source.
const Domain = "comfy.ua"

const (
	baseURL    = "https://comfy.ua"
	reviewsURL = "https://im.comfy.ua/api/reviews/paged"

	// Text the anti-bot interstitial serves instead of the product page.
	challengeMarker = "Pardon Our Interruption"

	reviewTimeLayout = "2006-01-02 15:04:05"
)

// The reviews endpoint takes numeric ids that are only present in the state
// blob embedded in the product page markup.
var (
	productIDRe    = regexp.MustCompile(`"product":\s*{\s*"id":\s*(\d+)`)
	storeIDRe      = regexp.MustCompile(`"storeId":\s*"(\d+)"`)
	reviewsTotalRe = regexp.MustCompile(`"reviewsTotal":\s*(\d+)`)
)

// Source collects customer reviews for comfy.ua product pages. Discovery
// needs a real browser because the page is served behind an anti-bot check,
// the reviews themselves come from a plain JSON endpoint.
type Source struct {
	client *fetch.Client
	store  scraper.RecordStore

	api       string
	fetchPage func(ctx context.Context, url, marker string) string
	now       func() time.Time
}

func New(client *fetch.Client, browser *fetch.Browser, store scraper.RecordStore) *Source {
	return &Source{
		client:    client,
		store:     store,
		api:       reviewsURL,
		fetchPage: browser.FetchPage,
		now:       time.Now,
	}
}

func (s *Source) Name() string { return Domain }

// Parse normalizes rawURL, discovers the review endpoint inputs from the
// product page and collects every review page up to the date cutoff.
func (s *Source) Parse(ctx context.Context, rawURL string, opts scraper.Options) (*models.ProductData, error) {
	slog.Info("parsing reviews", "source", Domain, "url", rawURL)

	cleanURL, _, slug, ok := utils.NormalizeURL(rawURL, Domain)
	if !ok || slug == "" {
		slog.Error("url failed validation", "source", Domain, "url", rawURL)
		return &models.ProductData{URL: cleanURL, Comments: []models.Comment{}}, nil
	}

	cutoff := utils.ParseDateTo(opts.DateTo)

	storeID, productID, reviewsTotal := s.productInfo(ctx, cleanURL)
	if storeID == "" || productID == "" || reviewsTotal == 0 {
		slog.Error("missing review endpoint inputs", "source", Domain, "url", cleanURL)
		return &models.ProductData{URL: cleanURL, Comments: []models.Comment{}}, nil
	}

	comments := s.collectReviews(ctx, storeID, productID, reviewsTotal, cutoff)
	slog.Info("parsed reviews", "source", Domain, "url", cleanURL, "count", len(comments))

	if s.store.Available(ctx) {
		if err := s.store.MergeComments(ctx, cleanURL, comments); err != nil {
			return nil, fmt.Errorf("merging comments for %s: %w", cleanURL, err)
		}
	} else {
		slog.Warn("store unavailable, skipping merge", "source", Domain, "url", cleanURL)
	}

	return &models.ProductData{URL: cleanURL, Comments: comments}, nil
}

func (s *Source) productInfo(ctx context.Context, pageURL string) (storeID, productID string, reviewsTotal int) {
	html := s.fetchPage(ctx, pageURL, challengeMarker)
	if html == "" {
		return "", "", 0
	}

	if m := productIDRe.FindStringSubmatch(html); m != nil {
		productID = m[1]
	} else {
		slog.Warn("product id not found in page", "source", Domain, "url", pageURL)
	}

	if m := storeIDRe.FindStringSubmatch(html); m != nil {
		storeID = m[1]
	} else {
		slog.Warn("store id not found in page", "source", Domain, "url", pageURL)
	}

	if m := reviewsTotalRe.FindStringSubmatch(html); m != nil {
		reviewsTotal, _ = strconv.Atoi(m[1])
	} else {
		slog.Warn("reviews total not found in page", "source", Domain, "url", pageURL)
	}

	return storeID, productID, reviewsTotal
}

// collectReviews walks the paged endpoint. A page that yields nothing is
// logged and skipped, the remaining pages are still fetched.
func (s *Source) collectReviews(ctx context.Context, storeID, productID string, reviewsTotal int, cutoff int64) []models.Comment {
	pageCount := reviewsTotal / 10
	if pageCount == 0 {
		pageCount = 1
	}
	slog.Info("fetching review pages", "source", Domain, "total", reviewsTotal, "pages", pageCount)

	headers := utils.RandomHeaders(map[string]string{
		"Referer": baseURL + "/",
		"Cookie":  "g_state={}",
	})

	comments := make([]models.Comment, 0, reviewsTotal)
	index := make(map[string]int, reviewsTotal)
	for page := 1; page <= pageCount; page++ {
		params := map[string]string{
			"productId":  productID,
			"storeId":    storeID,
			"page":       strconv.Itoa(page),
			"pageSize":   strconv.Itoa(pageCount),
			"type":       "1",
			"order":      "date",
			"parseCodes": "1",
		}

		body := s.client.GetJSON(ctx, s.api, params, headers)
		reviews := jsoniter.Get(body, "reviews")
		if reviews.Size() == 0 {
			slog.Warn("no reviews on page", "source", Domain, "page", page)
			continue
		}

		for i := 0; i < reviews.Size(); i++ {
			comment, ok := s.parseReview(reviews.Get(i), cutoff)
			if !ok {
				continue
			}
			if pos, seen := index[comment.ID]; seen {
				comments[pos] = comment
			} else {
				index[comment.ID] = len(comments)
				comments = append(comments, comment)
			}
		}
	}

	return comments
}

// parseReview maps one raw review. Records without a parseable creation
// date or past the cutoff are dropped, the cutoff day itself is included.
func (s *Source) parseReview(review jsoniter.Any, cutoff int64) (models.Comment, bool) {
	createdAtRaw := review.Get("createdAt").ToString()
	if createdAtRaw == "" {
		return models.Comment{}, false
	}
	createdAt, err := time.ParseInLocation(reviewTimeLayout, createdAtRaw, time.Local)
	if err != nil {
		slog.Warn("unparseable review date", "source", Domain, "value", createdAtRaw)
		return models.Comment{}, false
	}
	createdTS := createdAt.Unix()
	if cutoff > 0 && createdTS > cutoff {
		return models.Comment{}, false
	}

	id := review.Get("reviewId").ToString()
	if id == "" {
		return models.Comment{}, false
	}

	var rating float64
	if raw := review.Get("productRating").ToFloat64(); raw != 0 {
		rating = raw / 20 // 100 -> 5.0
	}

	return models.Comment{
		ID:           id,
		Rating:       rating,
		Advantages:   utils.CleanText(review.Get("advantages").ToString()),
		Shortcomings: utils.CleanText(review.Get("disadvantages").ToString()),
		Comment:      utils.CleanText(review.Get("detail").ToString()),
		CreatedAt:    createdTS,
		ParsedAt:     s.now().Unix(),
	}, true
}
