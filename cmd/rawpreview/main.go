package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"raw-preview/internal/decode"
	"raw-preview/internal/preview"
	"raw-preview/internal/sniff"
	"raw-preview/internal/workers"
)

type job struct {
	inputPath  string
	outputPath string
}

type result struct {
	inputPath string
	duration  time.Duration
	err       error
}

func main() {
	inputDir := flag.String("input", ".", "directory to scan for image files")
	outputDir := flag.String("output", "./previews", "directory to write JPEG previews into")
	rawOnly := flag.Bool("raw-only", false, "convert only RAW files, skip standard images")
	recursive := flag.Bool("recursive", false, "descend into subdirectories")
	workerCount := flag.Int("workers", 0, "number of concurrent conversions (0 = one per CPU)")
	rawQuality := flag.Int("raw-quality", 0, "JPEG quality for RAW previews (0 = default)")
	imageQuality := flag.Int("image-quality", 0, "JPEG quality for standard-image previews (0 = default)")
	flag.Parse()

	fmt.Println("RAW to JPEG preview converter")
	fmt.Println("=============================")

	if err := decode.InitVips(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: RAW decode unavailable: %v\n", err)
	}
	defer decode.ShutdownVips()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	jobs, err := collectJobs(*inputDir, *outputDir, *rawOnly, *recursive)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to scan %s: %v\n", *inputDir, err)
		os.Exit(1)
	}
	if len(jobs) == 0 {
		fmt.Println("No convertible files found.")
		return
	}

	pipeline := preview.New()
	pipeline.RawQuality = *rawQuality
	pipeline.ImageQuality = *imageQuality

	n := *workerCount
	if n <= 0 {
		n = workers.ForConversion(len(jobs))
	}
	fmt.Printf("Converting %d file(s) with %d worker(s)\n\n", len(jobs), n)

	start := time.Now()
	converted, failed := run(pipeline, jobs, n)

	fmt.Printf("\nDone: %d converted, %d failed in %.2fs\n",
		converted, failed, time.Since(start).Seconds())
	if failed > 0 {
		os.Exit(1)
	}
}

// collectJobs walks the input directory and pairs each convertible file
// with its output path. The output tree mirrors the input tree.
func collectJobs(inputDir, outputDir string, rawOnly, recursive bool) ([]job, error) {
	var jobs []job

	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != inputDir {
				return filepath.SkipDir
			}
			return nil
		}

		kind := sniff.KindForPath(path)
		if kind == sniff.PathKindUnsupported {
			return nil
		}
		if rawOnly && kind != sniff.PathKindRaw {
			return nil
		}

		rel, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}
		jobs = append(jobs, job{
			inputPath:  path,
			outputPath: filepath.Join(outputDir, outputName(rel)),
		})
		return nil
	})
	return jobs, err
}

// outputName swaps the source extension for .jpg, keeping any
// subdirectory prefix.
func outputName(rel string) string {
	ext := filepath.Ext(rel)
	return strings.TrimSuffix(rel, ext) + ".jpg"
}

func run(pipeline *preview.Pipeline, jobs []job, workerCount int) (converted, failed int) {
	jobCh := make(chan job)
	resultCh := make(chan result)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				start := time.Now()
				err := convert(pipeline, j)
				resultCh <- result{inputPath: j.inputPath, duration: time.Since(start), err: err}
			}
		}()
	}

	go func() {
		for _, j := range jobs {
			jobCh <- j
		}
		close(jobCh)
		wg.Wait()
		close(resultCh)
	}()

	for r := range resultCh {
		name := filepath.Base(r.inputPath)
		if r.err != nil {
			fmt.Printf("  FAIL %s: %v (%.2fs)\n", name, r.err, r.duration.Seconds())
			failed++
			continue
		}
		fmt.Printf("  OK   %s (%.2fs)\n", name, r.duration.Seconds())
		converted++
	}
	return converted, failed
}

func convert(pipeline *preview.Pipeline, j job) error {
	if err := os.MkdirAll(filepath.Dir(j.outputPath), 0o755); err != nil {
		return err
	}
	_, err := pipeline.Process(j.inputPath, j.outputPath)
	return err
}
