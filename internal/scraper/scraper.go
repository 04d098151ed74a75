package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ProductParser/internal/models"
)

// Sort orders accepted by the offer collector.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Collector bounds. Values outside the allowed range are clamped to the
// nearest bound, missing values fall back to the defaults.
const (
	minTimeoutSec     = 10
	maxTimeoutSec     = 60
	defaultTimeoutSec = 60
	minCount          = 10
	maxCount          = 1000
	defaultCount      = 10
)

// ErrUnsupportedSource is returned when no registered source claims a URL.
var ErrUnsupportedSource = errors.New("unsupported source URL")

// Options carries the per-request knobs shared by every source. Pointer
// fields distinguish "absent" from an explicit zero.
type Options struct {
	TimeoutLimit *int
	CountLimit   *int
	PriceSort    string
	DateTo       string
}

// Limits is the validated form of Options used by the offer collector.
type Limits struct {
	Timeout time.Duration
	Count   int
	Sort    string
}

// Bounds validates the optional knobs and falls back to defaults for
// anything missing or out of range.
func (o Options) Bounds() Limits {
	timeout := defaultTimeoutSec
	if o.TimeoutLimit != nil {
		timeout = clamp("timeout_limit", *o.TimeoutLimit, minTimeoutSec, maxTimeoutSec)
	}

	count := defaultCount
	if o.CountLimit != nil {
		count = clamp("count_limit", *o.CountLimit, minCount, maxCount)
	}

	sort := o.PriceSort
	if sort != "" && sort != SortAsc && sort != SortDesc {
		slog.Warn("ignoring unknown sort order", "sort", sort)
		sort = ""
	}

	return Limits{
		Timeout: time.Duration(timeout) * time.Second,
		Count:   count,
		Sort:    sort,
	}
}

func clamp(name string, value, min, max int) int {
	switch {
	case value < min:
		slog.Warn("parameter below allowed range", "param", name, "value", value, "using", min)
		return min
	case value > max:
		slog.Warn("parameter above allowed range", "param", name, "value", value, "using", max)
		return max
	}
	return value
}

// Source parses product pages of one shop. Name is the shop domain and
// doubles as the routing key for incoming URLs.
type Source interface {
	Name() string
	Parse(ctx context.Context, rawURL string, opts Options) (*models.ProductData, error)
}

// RecordStore is the slice of the database the sources need: a reachability
// probe plus the merge operations.
type RecordStore interface {
	Available(ctx context.Context) bool
	MergeOffers(ctx context.Context, url string, offers []models.Offer) error
	MergeComments(ctx context.Context, url string, comments []models.Comment) error
}

// Registry routes product URLs to the source responsible for them.
type Registry struct {
	sources []Source
}

func NewRegistry(sources ...Source) *Registry {
	return &Registry{sources: sources}
}

// ForURL picks the source whose domain appears in rawURL.
func (r *Registry) ForURL(rawURL string) (Source, error) {
	for _, src := range r.sources {
		if strings.Contains(rawURL, src.Name()) {
			return src, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, rawURL)
}
