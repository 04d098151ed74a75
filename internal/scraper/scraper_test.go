package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ProductParser/internal/models"
)

type namedSource struct {
	domain string
}

func (s namedSource) Name() string { return s.domain }

func (s namedSource) Parse(context.Context, string, Options) (*models.ProductData, error) {
	return &models.ProductData{}, nil
}

func intPtr(v int) *int { return &v }

func TestBounds(t *testing.T) {
	tests := []struct {
		name        string
		opts        Options
		wantTimeout time.Duration
		wantCount   int
		wantSort    string
	}{
		{
			name:        "defaults when nothing is set",
			opts:        Options{},
			wantTimeout: 60 * time.Second,
			wantCount:   10,
		},
		{
			name:        "values inside range pass through",
			opts:        Options{TimeoutLimit: intPtr(30), CountLimit: intPtr(50), PriceSort: "asc"},
			wantTimeout: 30 * time.Second,
			wantCount:   50,
			wantSort:    "asc",
		},
		{
			name:        "values below range are raised",
			opts:        Options{TimeoutLimit: intPtr(3), CountLimit: intPtr(1)},
			wantTimeout: 10 * time.Second,
			wantCount:   10,
		},
		{
			name:        "values above range are capped",
			opts:        Options{TimeoutLimit: intPtr(300), CountLimit: intPtr(5000)},
			wantTimeout: 60 * time.Second,
			wantCount:   1000,
		},
		{
			name:        "unknown sort order is dropped",
			opts:        Options{PriceSort: "cheapest"},
			wantTimeout: 60 * time.Second,
			wantCount:   10,
		},
		{
			name:        "sort order match is exact",
			opts:        Options{PriceSort: "DESC"},
			wantTimeout: 60 * time.Second,
			wantCount:   10,
		},
		{
			name:        "descending sort passes through",
			opts:        Options{PriceSort: "desc"},
			wantTimeout: 60 * time.Second,
			wantCount:   10,
			wantSort:    "desc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limits := tt.opts.Bounds()
			require.Equal(t, tt.wantTimeout, limits.Timeout)
			require.Equal(t, tt.wantCount, limits.Count)
			require.Equal(t, tt.wantSort, limits.Sort)
		})
	}
}

func TestRegistryForURL(t *testing.T) {
	registry := NewRegistry(
		namedSource{domain: "hotline.ua"},
		namedSource{domain: "comfy.ua"},
		namedSource{domain: "brain.com.ua"},
	)

	src, err := registry.ForURL("https://hotline.ua/ua/mobile/apple-iphone-15/")
	require.NoError(t, err)
	require.Equal(t, "hotline.ua", src.Name())

	src, err = registry.ForURL("https://comfy.ua/ua/smartfon-apple-iphone-15.html")
	require.NoError(t, err)
	require.Equal(t, "comfy.ua", src.Name())

	_, err = registry.ForURL("https://rozetka.com.ua/ua/apple-iphone-15/p345678/")
	require.ErrorIs(t, err, ErrUnsupportedSource)
}
