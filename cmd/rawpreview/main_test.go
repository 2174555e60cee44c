package main

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"raw-preview/internal/preview"
)

func TestOutputName(t *testing.T) {
	tests := []struct {
		name string
		rel  string
		want string
	}{
		{"RAW extension", "shot.cr2", "shot.jpg"},
		{"Uppercase extension", "shot.NEF", "shot.jpg"},
		{"Already JPEG", "photo.jpeg", "photo.jpg"},
		{"Nested path", filepath.Join("trips", "2024", "shot.arw"), filepath.Join("trips", "2024", "shot.jpg")},
		{"No extension", "README", "README.jpg"},
		{"Dotted stem", "shot.v2.dng", "shot.v2.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputName(tt.rel); got != tt.want {
				t.Errorf("outputName(%q) = %q, want %q", tt.rel, got, tt.want)
			}
		})
	}
}

func TestCollectJobs(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	files := []string{
		"shot.cr2",
		"photo.jpg",
		"notes.txt",
		filepath.Join("sub", "deep.nef"),
		filepath.Join("sub", "scan.png"),
	}
	for _, name := range files {
		path := filepath.Join(inputDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
	}

	inputs := func(jobs []job) []string {
		var rels []string
		for _, j := range jobs {
			rel, err := filepath.Rel(inputDir, j.inputPath)
			if err != nil {
				t.Fatalf("Job input %q not under input dir: %v", j.inputPath, err)
			}
			rels = append(rels, rel)
		}
		sort.Strings(rels)
		return rels
	}

	t.Run("Top level only", func(t *testing.T) {
		jobs, err := collectJobs(inputDir, outputDir, false, false)
		if err != nil {
			t.Fatalf("collectJobs failed: %v", err)
		}
		got := inputs(jobs)
		want := []string{"photo.jpg", "shot.cr2"}
		if len(got) != len(want) {
			t.Fatalf("Expected jobs %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Expected jobs %v, got %v", want, got)
				break
			}
		}
	})

	t.Run("Recursive", func(t *testing.T) {
		jobs, err := collectJobs(inputDir, outputDir, false, true)
		if err != nil {
			t.Fatalf("collectJobs failed: %v", err)
		}
		if len(jobs) != 4 {
			t.Errorf("Expected 4 jobs, got %d: %v", len(jobs), inputs(jobs))
		}
	})

	t.Run("RAW only", func(t *testing.T) {
		jobs, err := collectJobs(inputDir, outputDir, true, true)
		if err != nil {
			t.Fatalf("collectJobs failed: %v", err)
		}
		got := inputs(jobs)
		want := []string{"shot.cr2", filepath.Join("sub", "deep.nef")}
		if len(got) != len(want) {
			t.Fatalf("Expected jobs %v, got %v", want, got)
		}
	})

	t.Run("Output mirrors input tree", func(t *testing.T) {
		jobs, err := collectJobs(inputDir, outputDir, true, true)
		if err != nil {
			t.Fatalf("collectJobs failed: %v", err)
		}
		for _, j := range jobs {
			rel, err := filepath.Rel(outputDir, j.outputPath)
			if err != nil || rel == ".." || filepath.IsAbs(rel) {
				t.Errorf("Output path %q not under output dir", j.outputPath)
			}
			if filepath.Ext(j.outputPath) != ".jpg" {
				t.Errorf("Output path %q does not end in .jpg", j.outputPath)
			}
		}
	})
}

func TestRunConvertsStandardImages(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 15), G: uint8(y * 20), B: 99, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("Failed to encode fixture: %v", err)
	}
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		if err := os.WriteFile(filepath.Join(inputDir, name), buf.Bytes(), 0o644); err != nil {
			t.Fatalf("Failed to write fixture: %v", err)
		}
	}

	jobs, err := collectJobs(inputDir, outputDir, false, false)
	if err != nil {
		t.Fatalf("collectJobs failed: %v", err)
	}

	converted, failed := run(preview.New(), jobs, 2)
	if converted != 3 || failed != 0 {
		t.Fatalf("Expected 3 converted / 0 failed, got %d / %d", converted, failed)
	}

	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
			t.Errorf("Expected output %s: %v", name, err)
		}
	}
}
