package utils

import (
	"log/slog"
	"strconv"

	"github.com/shirou/gopsutil/v3/cpu"
)

// GetOptimalWorkerCount resolves the batch worker pool size. A numeric config
// value is taken as-is; "auto" (or anything unparseable) derives the count
// from the logical core count. Parsing is I/O bound but one source launches a
// headless browser per run, so the pool stays conservative.
func GetOptimalWorkerCount(configValue string) int {
	if manual, err := strconv.Atoi(configValue); err == nil && manual > 0 {
		slog.Info("using configured worker count", "workers", manual)
		return manual
	}

	if configValue != "auto" {
		slog.Warn("invalid workers value, falling back to auto", "value", configValue)
	}

	cores, err := cpu.Counts(true)
	if err != nil {
		slog.Warn("could not detect CPU cores, using fallback worker count", "workers", 2)
		return 2
	}

	workers := cores / 2
	if workers < 1 {
		workers = 1
	}
	if workers > 8 {
		workers = 8
	}

	slog.Info("resolved worker count", "cores", cores, "workers", workers)
	return workers
}
