package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"

	"ProductParser/internal/database"
	"ProductParser/internal/fetch"
	"ProductParser/internal/scraper"
	"ProductParser/internal/scraper/brain"
	"ProductParser/internal/scraper/comfy"
	"ProductParser/internal/scraper/hotline"
	"ProductParser/pkg/config"
	"ProductParser/utils"
)

// Tasks the one-shot CLI can run.
const (
	TaskOffers   = "offers"
	TaskComments = "comments"
)

// App wires the configuration, the record store and the shop sources
// together for both the HTTP server and the one-shot CLI.
type App struct {
	Config   *config.Config
	Store    *database.Store
	Registry *scraper.Registry
}

// New loads the configuration and connects every dependency.
func New(configPath string) (*App, error) {
	cfg := config.LoadConfig(configPath)

	store, err := database.Connect(cfg.Mongo)
	if err != nil {
		return nil, err
	}

	client := fetch.NewClient(fetch.Options{
		Timeout:   time.Duration(cfg.Scraper.HTTPTimeoutSec) * time.Second,
		Attempts:  cfg.Scraper.Retries,
		BaseDelay: time.Duration(cfg.Scraper.RetryDelayMS) * time.Millisecond,
	})
	browser := fetch.NewBrowser(fetch.BrowserOptions{
		Headless:  cfg.Scraper.Headless,
		Timeout:   time.Duration(cfg.Scraper.BrowserTimeoutSec) * time.Second,
		Attempts:  cfg.Scraper.Retries,
		BaseDelay: time.Duration(cfg.Scraper.RetryDelayMS) * time.Millisecond,
	})

	registry := scraper.NewRegistry(
		hotline.New(client, store, cfg.Hotline.CityID),
		comfy.New(client, browser, store),
		brain.New(client, store),
	)

	return &App{Config: cfg, Store: store, Registry: registry}, nil
}

// Close releases the store connections.
func (a *App) Close(ctx context.Context) {
	if err := a.Store.Close(ctx); err != nil {
		slog.Error("closing store", "error", err)
	}
}

// ParseOne parses a single product URL and prints the API response shape
// as indented JSON.
func (a *App) ParseOne(ctx context.Context, rawURL, task string, opts scraper.Options) error {
	src, err := a.Registry.ForURL(rawURL)
	if err != nil {
		return err
	}

	data, err := src.Parse(ctx, rawURL, opts)
	if err != nil {
		return err
	}

	var payload any
	switch task {
	case TaskComments:
		payload = data.ToCommentsResponse()
	default:
		payload = data.ToOffersResponse()
	}

	out, err := jsoniter.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

type batchResult struct {
	url     string
	records int
	err     error
}

// ParseBatch runs the pipeline over many URLs with a bounded worker pool.
// Failures are logged per URL and do not stop the batch.
func (a *App) ParseBatch(ctx context.Context, urls []string, opts scraper.Options) {
	if len(urls) == 0 {
		slog.Info("nothing to parse")
		return
	}

	numWorkers := utils.GetOptimalWorkerCount(a.Config.Scraper.Workers)
	slog.Info("starting batch", "urls", len(urls), "workers", numWorkers)

	jobs := make(chan string, len(urls))
	results := make(chan batchResult, len(urls))

	for w := 1; w <= numWorkers; w++ {
		go func(workerID int) {
			for rawURL := range jobs {
				slog.Info("parsing", "worker", workerID, "url", rawURL)
				res := batchResult{url: rawURL}

				src, err := a.Registry.ForURL(rawURL)
				if err != nil {
					res.err = err
					results <- res
					continue
				}

				data, err := src.Parse(ctx, rawURL, opts)
				if err != nil {
					res.err = err
				} else {
					res.records = len(data.Offers) + len(data.Comments)
				}
				results <- res
			}
		}(w)
	}

	for _, u := range urls {
		jobs <- u
	}
	close(jobs)

	var parsed, failed int
	for i := 0; i < len(urls); i++ {
		res := <-results
		if res.err != nil {
			failed++
			slog.Error("batch item failed", "url", res.url, "error", res.err)
			continue
		}
		parsed++
		slog.Info("batch item done", "url", res.url, "records", res.records)
	}

	slog.Info("batch finished", "parsed", parsed, "failed", failed)
}
