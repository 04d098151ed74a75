package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"ProductParser/internal/app"
	"ProductParser/internal/scraper"
)

func main() {
	var (
		configPath = flag.String("config", "config.yml", "Path to the YAML configuration file")
		rawURL     = flag.String("url", "", "Product URL to parse")
		urlsFile   = flag.String("urls", "", "File with one product URL per line")
		task       = flag.String("task", app.TaskOffers, "Task to run: offers or comments")
		timeout    = flag.Int("timeout", 0, "Offer collection time budget in seconds (10-60)")
		count      = flag.Int("count", 0, "Offer count limit (10-1000)")
		sortOrder  = flag.String("sort", "", "Offer price order: asc or desc")
		dateTo     = flag.String("date-to", "", "Keep only reviews up to this date (YYYY-MM-DD)")
	)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	if *task != app.TaskOffers && *task != app.TaskComments {
		log.Fatalf("Unknown task: %s.", *task)
	}
	if *rawURL == "" && *urlsFile == "" {
		log.Fatalf("Either -url or -urls is required.")
	}

	application, err := app.New(*configPath)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		application.Close(ctx)
	}()

	opts := scraper.Options{
		PriceSort: *sortOrder,
		DateTo:    *dateTo,
	}
	if *timeout > 0 {
		opts.TimeoutLimit = timeout
	}
	if *count > 0 {
		opts.CountLimit = count
	}

	ctx := context.Background()

	if *urlsFile != "" {
		urls, err := readURLs(*urlsFile)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", *urlsFile, err)
		}
		application.ParseBatch(ctx, urls, opts)
		return
	}

	if err := application.ParseOne(ctx, *rawURL, *task, opts); err != nil {
		log.Fatalf("Parsing %s failed: %v", *rawURL, err)
	}
}

func readURLs(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}
