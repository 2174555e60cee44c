/*
Package workers sizes the conversion worker pool for containerized
deployments.

While Go 1.19+ automatically sets GOMAXPROCS based on container CPU limits,
runtime.NumCPU() still returns the host machine's CPU count. Sizing a pool
from NumCPU on a limited container leads to context switching overhead and
CPU throttling, and for RAW conversion it also multiplies peak memory: every
in-flight job holds a full sensor frame and an RGBA intermediate. The
helpers here size pools from GOMAXPROCS instead.

Basic usage:

	import "raw-preview/internal/workers"

	// Batch conversion: 1 worker per CPU, never more than there are jobs
	numWorkers := workers.ForConversion(len(jobs))

For fine-grained control use Count directly:

	numWorkers := workers.Count(2.0, 16)

All functions respect the PREVIEW_WORKERS environment variable, allowing
operators to override the automatic calculation:

	env:
	- name: PREVIEW_WORKERS
	  value: "4"

All functions are safe for concurrent use.
*/
package workers
