package brain

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"

	"ProductParser/internal/fetch"
	"ProductParser/internal/models"
	"ProductParser/internal/scraper"
	"ProductParser/utils"
)

// Domain routes brain product URLs to this source.
const Domain = "brain.com.ua"

const (
	commentsURL     = "https://brain.com.ua/api/v1/product_comments/"
	commentSelector = "div.br-pt-bc-item.br-ct-bc-item-out.br-pt-bc-item-in.deep-1"
)

// Product ids are numeric and sit right before the .html suffix.
var productIDRe = regexp.MustCompile(`-p(\d+)\.html`)

var defaultHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Referer":    "https://brain.com.ua/",
}

// Review dates are rendered with genitive Ukrainian month names.
var months = map[string]time.Month{
	"січня":     time.January,
	"лютого":    time.February,
	"березня":   time.March,
	"квітня":    time.April,
	"травня":    time.May,
	"червня":    time.June,
	"липня":     time.July,
	"серпня":    time.August,
	"вересня":   time.September,
	"жовтня":    time.October,
	"листопада": time.November,
	"грудня":    time.December,
}

// Source collects customer reviews for brain.com.ua product pages. The
// comments endpoint returns JSON wrapping a server-rendered HTML fragment.
type Source struct {
	client *fetch.Client
	store  scraper.RecordStore

	api string
	now func() time.Time
}

func New(client *fetch.Client, store scraper.RecordStore) *Source {
	return &Source{
		client: client,
		store:  store,
		api:    commentsURL,
		now:    time.Now,
	}
}

func (s *Source) Name() string { return Domain }

// Parse normalizes rawURL, pulls the rendered comments fragment for the
// product id embedded in it and extracts every review up to the date cutoff.
func (s *Source) Parse(ctx context.Context, rawURL string, opts scraper.Options) (*models.ProductData, error) {
	slog.Info("parsing reviews", "source", Domain, "url", rawURL)

	cleanURL, _, slug, ok := utils.NormalizeURL(rawURL, Domain)
	if !ok || slug == "" {
		slog.Error("url failed validation", "source", Domain, "url", rawURL)
		return &models.ProductData{URL: cleanURL, Comments: []models.Comment{}}, nil
	}

	cutoff := utils.ParseDateTo(opts.DateTo)

	productID := extractProductID(cleanURL)
	if productID == "" {
		slog.Error("no product id in url", "source", Domain, "url", cleanURL)
		return &models.ProductData{URL: cleanURL, Comments: []models.Comment{}}, nil
	}

	markup := s.reviewsMarkup(ctx, productID)
	if markup == "" {
		slog.Warn("no reviews markup received", "source", Domain, "product_id", productID)
		return &models.ProductData{URL: cleanURL, Comments: []models.Comment{}}, nil
	}

	comments := s.collectComments(markup, cutoff)
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

func extractProductID(pageURL string) string {
	if m := productIDRe.FindStringSubmatch(pageURL); m != nil {
		return m[1]
	}
	return ""
}

func (s *Source) reviewsMarkup(ctx context.Context, productID string) string {
	body := s.client.GetJSON(ctx, s.api+productID, nil, defaultHeaders)
	return jsoniter.Get(body, "commentsTpl").ToString()
}

func (s *Source) collectComments(markup string, cutoff int64) []models.Comment {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		slog.Error("unparseable reviews markup", "source", Domain, "error", err)
		return []models.Comment{}
	}

	items := doc.Find(commentSelector)
	slog.Info("found review blocks", "source", Domain, "count", items.Length())

	comments := make([]models.Comment, 0, items.Length())
	index := make(map[string]int, items.Length())
	items.Each(func(_ int, item *goquery.Selection) {
		comment, ok := s.parseComment(item, cutoff)
		if !ok {
			return
		}
		if pos, seen := index[comment.ID]; seen {
			comments[pos] = comment
		} else {
			index[comment.ID] = len(comments)
			comments = append(comments, comment)
		}
	})

	return comments
}

// parseComment maps one review block. Blocks without an id or a parseable
// date are dropped, as are reviews past the cutoff. The mark attribute is
// already on the five point scale. Brain reviews carry no pro and contra
// sections, only the free text.
func (s *Source) parseComment(item *goquery.Selection, cutoff int64) (models.Comment, bool) {
	id, ok := item.Attr("data-cid")
	if !ok || id == "" {
		return models.Comment{}, false
	}

	createdTS, ok := parseDate(item.Find("div.br-pt-bc-date").First().Text())
	if !ok {
		return models.Comment{}, false
	}
	if cutoff > 0 && createdTS > cutoff {
		return models.Comment{}, false
	}

	var rating float64
	if mark, ok := item.Find("div.br-pt-bc-rating").First().Attr("data-comment-mark"); ok {
		rating, _ = strconv.ParseFloat(mark, 64)
	}

	return models.Comment{
		ID:        id,
		Rating:    rating,
		Comment:   utils.CleanText(strings.TrimSpace(item.Find("div.br-comment-text").First().Text())),
		CreatedAt: createdTS,
		ParsedAt:  s.now().Unix(),
	}, true
}

func parseDate(raw string) (int64, bool) {
	parts := strings.Fields(strings.TrimSpace(raw))
	if len(parts) != 3 {
		return 0, false
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	month, ok := months[strings.ToLower(parts[1])]
	if !ok {
		slog.Warn("unknown month in review date", "source", Domain, "month", parts[1])
		return 0, false
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, false
	}

	// time.Date would normalize "32 січня" into February.
	date := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
	if date.Day() != day || date.Month() != month || date.Year() != year {
		slog.Warn("impossible review date", "source", Domain, "value", raw)
		return 0, false
	}
	return date.Unix(), true
}
