package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"ProductParser/internal/models"
	"ProductParser/internal/scraper"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSource struct {
	domain  string
	data    *models.ProductData
	err     error
	gotURL  string
	gotOpts scraper.Options
}

func (s *stubSource) Name() string { return s.domain }

func (s *stubSource) Parse(_ context.Context, rawURL string, opts scraper.Options) (*models.ProductData, error) {
	s.gotURL = rawURL
	s.gotOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

type stubStore struct {
	available bool
}

func (s *stubStore) Available(context.Context) bool { return s.available }

func (s *stubStore) MergeOffers(context.Context, string, []models.Offer) error { return nil }

func (s *stubStore) MergeComments(context.Context, string, []models.Comment) error { return nil }

func serve(h *Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	h.Router().ServeHTTP(w, req)
	return w
}

func TestProductOffersPassesOptionsThrough(t *testing.T) {
	src := &stubSource{
		domain: "hotline.ua",
		data: &models.ProductData{
			URL: "https://hotline.ua/mobile/apple-iphone-15",
			Offers: []models.Offer{{
				ID:          "111",
				URL:         "https://hotline.ua/go/price/111",
				OriginalURL: "https://seller.example/iphone-15",
				Title:       "Apple iPhone 15 128GB",
				Shop:        "TechShop",
				Price:       28999,
				IsUsed:      false,
				ParsedAt:    1714550000,
			}},
		},
	}
	h := NewHandler(scraper.NewRegistry(src), &stubStore{available: true})

	w := serve(h, "/product/offers?url=https://hotline.ua/ua/mobile/apple-iphone-15/&timeout_limit=30&count_limit=50&sort=asc")

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "https://hotline.ua/ua/mobile/apple-iphone-15/", src.gotURL)
	require.NotNil(t, src.gotOpts.TimeoutLimit)
	require.Equal(t, 30, *src.gotOpts.TimeoutLimit)
	require.NotNil(t, src.gotOpts.CountLimit)
	require.Equal(t, 50, *src.gotOpts.CountLimit)
	require.Equal(t, "asc", src.gotOpts.PriceSort)

	require.JSONEq(t, `{
		"url": "https://hotline.ua/mobile/apple-iphone-15",
		"offers": [{
			"url": "https://hotline.ua/go/price/111",
			"original_url": "https://seller.example/iphone-15",
			"title": "Apple iPhone 15 128GB",
			"shop": "TechShop",
			"price": 28999,
			"is_used": false
		}]
	}`, w.Body.String())
}

func TestProductOffersTreatsBadNumbersAsAbsent(t *testing.T) {
	src := &stubSource{
		domain: "hotline.ua",
		data:   &models.ProductData{URL: "https://hotline.ua/x", Offers: []models.Offer{}},
	}
	h := NewHandler(scraper.NewRegistry(src), &stubStore{available: true})

	w := serve(h, "/product/offers?url=https://hotline.ua/ua/x/&timeout_limit=abc&count_limit=12.5")

	require.Equal(t, http.StatusOK, w.Code)
	require.Nil(t, src.gotOpts.TimeoutLimit)
	require.Nil(t, src.gotOpts.CountLimit)
	require.JSONEq(t, `{"url": "https://hotline.ua/x", "offers": []}`, w.Body.String())
}

func TestProductOffersRequiresURL(t *testing.T) {
	h := NewHandler(scraper.NewRegistry(), &stubStore{available: true})

	w := serve(h, "/product/offers")

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error": "url query parameter is required"}`, w.Body.String())
}

func TestProductOffersRejectsUnknownShop(t *testing.T) {
	h := NewHandler(scraper.NewRegistry(&stubSource{domain: "hotline.ua"}), &stubStore{available: true})

	w := serve(h, "/product/offers?url=https://rozetka.com.ua/ua/apple-iphone-15/p345678/")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "unsupported source URL")
}

func TestProductCommentsPassesDateTo(t *testing.T) {
	src := &stubSource{
		domain: "comfy.ua",
		data: &models.ProductData{
			URL: "https://comfy.ua/smartfon-apple-iphone-15.html",
			Comments: []models.Comment{{
				ID:           "9001",
				Rating:       4,
				Advantages:   "Гарний екран",
				Shortcomings: "Ціна",
				Comment:      "Задоволений",
				CreatedAt:    1714550000,
				ParsedAt:     1714560000,
			}},
		},
	}
	h := NewHandler(scraper.NewRegistry(src), &stubStore{available: true})

	w := serve(h, "/product/comments?url=https://comfy.ua/ua/smartfon-apple-iphone-15.html&date_to=2024-05-10")

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "2024-05-10", src.gotOpts.DateTo)

	require.JSONEq(t, `{
		"url": "https://comfy.ua/smartfon-apple-iphone-15.html",
		"comments": [{
			"rating": 4,
			"advantages": "Гарний екран",
			"shortcomings": "Ціна",
			"comment": "Задоволений"
		}]
	}`, w.Body.String())
}

func TestProductCommentsReportsSourceFailure(t *testing.T) {
	src := &stubSource{domain: "comfy.ua", err: errors.New("merging comments for x: write failed")}
	h := NewHandler(scraper.NewRegistry(src), &stubStore{available: true})

	w := serve(h, "/product/comments?url=https://comfy.ua/ua/smartfon.html")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error": "merging comments for x: write failed"}`, w.Body.String())
}

func TestHealthReflectsStoreState(t *testing.T) {
	h := NewHandler(scraper.NewRegistry(), &stubStore{available: true})
	w := serve(h, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	h = NewHandler(scraper.NewRegistry(), &stubStore{available: false})
	w = serve(h, "/health")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
