package comfy

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ProductParser/internal/fetch"
	"ProductParser/internal/models"
	"ProductParser/internal/scraper"
)

type stubStore struct {
	available bool
	pings     int
	mergedURL string
	merged    [][]models.Comment
}

func (s *stubStore) Available(context.Context) bool {
	s.pings++
	return s.available
}

func (s *stubStore) MergeOffers(context.Context, string, []models.Offer) error {
	return nil
}

func (s *stubStore) MergeComments(_ context.Context, url string, comments []models.Comment) error {
	s.mergedURL = url
	s.merged = append(s.merged, comments)
	return nil
}

func productPage(reviewsTotal int) string {
	return fmt.Sprintf(`<!doctype html><html><head><script>
window.__STATE__={"product": {"id": 505055, "name": "Smartfon Apple iPhone 15"},"store":{"storeId": "5"},"reviews":{"reviewsTotal": %d}};
</script></head><body>iPhone 15</body></html>`, reviewsTotal)
}

// reviewsServer serves canned review pages keyed by the page query param and
// records every query it answers.
func reviewsServer(pages map[string]string) (*httptest.Server, *[]url.Values) {
	var queries []url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		queries = append(queries, q)
		body, ok := pages[q.Get("page")]
		if !ok {
			body = `{"reviews":[]}`
		}
		fmt.Fprint(w, body)
	}))
	return srv, &queries
}

func newTestSource(api string, store *stubStore, page string) *Source {
	client := fetch.NewClient(fetch.Options{Timeout: 2 * time.Second, Attempts: 1, BaseDelay: time.Millisecond})
	browser := fetch.NewBrowser(fetch.BrowserOptions{})
	src := New(client, browser, store)
	src.api = api
	src.fetchPage = func(context.Context, string, string) string { return page }
	return src
}

func localUnix(t *testing.T, value string) int64 {
	t.Helper()
	parsed, err := time.ParseInLocation(reviewTimeLayout, value, time.Local)
	require.NoError(t, err)
	return parsed.Unix()
}

func TestParseMapsReviewsAcrossPages(t *testing.T) {
	srv, queries := reviewsServer(map[string]string{
		"1": `{"reviews":[
			{"reviewId":"9001","productRating":80,"advantages":"<p>Гарний екран</p>","disadvantages":"Ціна","detail":"Дуже задоволений &quot;покупкою&quot;","createdAt":"2024-05-01 10:30:00"},
			{"reviewId":"9002","productRating":100,"advantages":"","disadvantages":"","detail":"Топ","createdAt":"2024-05-02 11:00:00"}
		]}`,
		"2": `{"reviews":[
			{"reviewId":"9003","detail":"Нормально","createdAt":"2024-04-20 09:00:00"}
		]}`,
	})
	defer srv.Close()

	store := &stubStore{available: true}
	src := newTestSource(srv.URL, store, productPage(25))

	data, err := src.Parse(context.Background(),
		"https://comfy.ua/ua/smartfon-apple-iphone-15-128gb-black.html",
		scraper.Options{})
	require.NoError(t, err)

	wantURL := "https://comfy.ua/smartfon-apple-iphone-15-128gb-black.html"
	require.Equal(t, wantURL, data.URL)
	require.Len(t, data.Comments, 3)

	first := data.Comments[0]
	require.Equal(t, "9001", first.ID)
	require.Equal(t, 4.0, first.Rating)
	require.Equal(t, "Гарний екран", first.Advantages)
	require.Equal(t, "Ціна", first.Shortcomings)
	require.Equal(t, `Дуже задоволений "покупкою"`, first.Comment)
	require.Equal(t, localUnix(t, "2024-05-01 10:30:00"), first.CreatedAt)
	require.NotZero(t, first.ParsedAt)

	require.Equal(t, 5.0, data.Comments[1].Rating)
	require.Zero(t, data.Comments[2].Rating)

	require.Equal(t, wantURL, store.mergedURL)
	require.Len(t, store.merged, 1)
	require.Len(t, store.merged[0], 3)

	// 25 reviews means two pages, both requested with the same inputs.
	require.Len(t, *queries, 2)
	q := (*queries)[0]
	require.Equal(t, "505055", q.Get("productId"))
	require.Equal(t, "5", q.Get("storeId"))
	require.Equal(t, "1", q.Get("page"))
	require.Equal(t, "2", q.Get("pageSize"))
	require.Equal(t, "1", q.Get("type"))
	require.Equal(t, "date", q.Get("order"))
	require.Equal(t, "1", q.Get("parseCodes"))
}

func TestParseAppliesDateCutoff(t *testing.T) {
	srv, _ := reviewsServer(map[string]string{
		"1": `{"reviews":[
			{"reviewId":"on-cutoff","createdAt":"2024-05-10 00:00:00"},
			{"reviewId":"past-cutoff","createdAt":"2024-05-10 00:00:01"},
			{"reviewId":"before-cutoff","createdAt":"2024-05-09 23:59:59"},
			{"reviewId":"no-date"},
			{"reviewId":"bad-date","createdAt":"10-05-2024"}
		]}`,
	})
	defer srv.Close()

	store := &stubStore{available: true}
	src := newTestSource(srv.URL, store, productPage(5))

	data, err := src.Parse(context.Background(),
		"https://comfy.ua/ua/smartfon-apple-iphone-15-128gb-black.html",
		scraper.Options{DateTo: "2024-05-10"})
	require.NoError(t, err)

	require.Len(t, data.Comments, 2)
	require.Equal(t, "on-cutoff", data.Comments[0].ID)
	require.Equal(t, "before-cutoff", data.Comments[1].ID)
}

func TestParseUsesSinglePageForSmallTotals(t *testing.T) {
	srv, queries := reviewsServer(map[string]string{
		"1": `{"reviews":[{"reviewId":"1","createdAt":"2024-05-01 10:00:00"}]}`,
	})
	defer srv.Close()

	store := &stubStore{available: true}
	src := newTestSource(srv.URL, store, productPage(9))

	data, err := src.Parse(context.Background(),
		"https://comfy.ua/ua/smartfon-apple-iphone-15-128gb-black.html",
		scraper.Options{})
	require.NoError(t, err)

	require.Len(t, data.Comments, 1)
	require.Len(t, *queries, 1)
	require.Equal(t, "1", (*queries)[0].Get("pageSize"))
}

func TestParseContinuesAfterEmptyPage(t *testing.T) {
	srv, queries := reviewsServer(map[string]string{
		"1": `{"reviews":[]}`,
		"2": `{"reviews":[{"reviewId":"21","createdAt":"2024-05-01 10:00:00"}]}`,
		"3": `{"reviews":[{"reviewId":"31","createdAt":"2024-05-01 11:00:00"}]}`,
	})
	defer srv.Close()

	store := &stubStore{available: true}
	src := newTestSource(srv.URL, store, productPage(30))

	data, err := src.Parse(context.Background(),
		"https://comfy.ua/ua/smartfon-apple-iphone-15-128gb-black.html",
		scraper.Options{})
	require.NoError(t, err)

	require.Len(t, *queries, 3)
	require.Len(t, data.Comments, 2)
}

func TestParseFailsSoftWhenDiscoveryComesUpEmpty(t *testing.T) {
	store := &stubStore{available: true}
	src := newTestSource("http://127.0.0.1:0", store, "<html><body>unrelated markup</body></html>")

	data, err := src.Parse(context.Background(),
		"https://comfy.ua/ua/smartfon-apple-iphone-15-128gb-black.html",
		scraper.Options{})
	require.NoError(t, err)

	require.Empty(t, data.Comments)
	require.Zero(t, store.pings)
	require.Empty(t, store.merged)
}

func TestParseSkipsMergeWhenStoreUnavailable(t *testing.T) {
	srv, _ := reviewsServer(map[string]string{
		"1": `{"reviews":[{"reviewId":"1","createdAt":"2024-05-01 10:00:00"}]}`,
	})
	defer srv.Close()

	store := &stubStore{available: false}
	src := newTestSource(srv.URL, store, productPage(3))

	data, err := src.Parse(context.Background(),
		"https://comfy.ua/ua/smartfon-apple-iphone-15-128gb-black.html",
		scraper.Options{})
	require.NoError(t, err)

	require.Len(t, data.Comments, 1)
	require.Equal(t, 1, store.pings)
	require.Empty(t, store.merged)
}
