package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns a worker count scaled from the available CPUs. It respects
// container CPU limits via GOMAXPROCS (Go 1.19+).
//
// The multiplier adjusts for task characteristics (1.0 for CPU-bound work,
// higher for work that blocks on I/O). The limit parameter caps the result;
// use 0 for no limit.
//
// Can be overridden with the PREVIEW_WORKERS environment variable.
func Count(multiplier float64, limit int) int {
	// Check for manual override first
	if override := os.Getenv("PREVIEW_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	// GOMAXPROCS is automatically set to container CPU limit in Go 1.19+
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForConversion sizes a pool for batch preview conversion. Demosaic and
// JPEG encoding are CPU-bound, and each in-flight conversion pins a full
// sensor frame plus its RGBA intermediate, so running more workers than
// CPUs only raises peak memory without finishing the batch sooner. One
// worker per CPU, capped at the number of jobs.
func ForConversion(jobs int) int {
	return Count(1.0, jobs)
}
