package workers

import (
	"os"
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	// Save and restore original environment
	originalEnv := os.Getenv("PREVIEW_WORKERS")
	defer func() {
		if originalEnv != "" {
			os.Setenv("PREVIEW_WORKERS", originalEnv)
		} else {
			os.Unsetenv("PREVIEW_WORKERS")
		}
	}()

	// Clear any existing override
	os.Unsetenv("PREVIEW_WORKERS")

	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		minExpect  int
		maxExpect  int
	}{
		{
			name:       "CPU-bound (1.0x multiplier)",
			multiplier: 1.0,
			limit:      0,
			minExpect:  1,
			maxExpect:  availableCPU,
		},
		{
			name:       "Blocking work (2.0x multiplier)",
			multiplier: 2.0,
			limit:      0,
			minExpect:  1,
			maxExpect:  availableCPU * 2,
		},
		{
			name:       "With limit lower than calculated",
			multiplier: 2.0,
			limit:      2,
			minExpect:  1,
			maxExpect:  2,
		},
		{
			name:       "Very low multiplier",
			multiplier: 0.1,
			limit:      0,
			minExpect:  1,
			maxExpect:  maxInt(1, int(float64(availableCPU)*0.1)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)

			if got < tt.minExpect {
				t.Errorf("Count(%v, %d) = %d, expected >= %d", tt.multiplier, tt.limit, got, tt.minExpect)
			}

			if got > tt.maxExpect {
				t.Errorf("Count(%v, %d) = %d, expected <= %d", tt.multiplier, tt.limit, got, tt.maxExpect)
			}

			// Should always return at least 1
			if got < 1 {
				t.Errorf("Count(%v, %d) = %d, should never return less than 1", tt.multiplier, tt.limit, got)
			}
		})
	}
}

func TestCountWithEnvOverride(t *testing.T) {
	tests := []struct {
		name      string
		envValue  string
		limit     int
		expected  int
		wantError bool
	}{
		{
			name:     "Valid override",
			envValue: "8",
			limit:    0,
			expected: 8,
		},
		{
			name:     "Override with limit",
			envValue: "20",
			limit:    10,
			expected: 10, // Should be capped by limit
		},
		{
			name:     "Override below limit",
			envValue: "5",
			limit:    10,
			expected: 5,
		},
		{
			name:      "Invalid override (non-numeric)",
			envValue:  "invalid",
			limit:     0,
			expected:  -1, // Will use default calculation
			wantError: true,
		},
		{
			name:      "Invalid override (zero)",
			envValue:  "0",
			limit:     0,
			expected:  -1, // Will use default calculation
			wantError: true,
		},
		{
			name:      "Invalid override (negative)",
			envValue:  "-5",
			limit:     0,
			expected:  -1, // Will use default calculation
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("PREVIEW_WORKERS", tt.envValue)
			defer os.Unsetenv("PREVIEW_WORKERS")

			got := Count(1.0, tt.limit)

			if tt.wantError {
				// Should fall back to default calculation
				if got < 1 {
					t.Errorf("Count with invalid override should return at least 1, got %d", got)
				}
			} else {
				if got != tt.expected {
					t.Errorf("Count(1.0, %d) with PREVIEW_WORKERS=%s = %d, want %d", tt.limit, tt.envValue, got, tt.expected)
				}
			}
		})
	}
}

func TestForConversion(t *testing.T) {
	os.Unsetenv("PREVIEW_WORKERS")
	defer os.Unsetenv("PREVIEW_WORKERS")

	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name string
		jobs int
		want func(got int) bool
	}{
		{
			name: "Large batch capped at CPU count",
			jobs: availableCPU * 10,
			want: func(got int) bool { return got >= 1 && got <= availableCPU },
		},
		{
			name: "Single job gets single worker",
			jobs: 1,
			want: func(got int) bool { return got == 1 },
		},
		{
			name: "Never more workers than jobs",
			jobs: 2,
			want: func(got int) bool { return got >= 1 && got <= 2 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ForConversion(tt.jobs)
			if !tt.want(got) {
				t.Errorf("ForConversion(%d) = %d with %d CPUs", tt.jobs, got, availableCPU)
			}
		})
	}
}

func TestCountBoundaries(t *testing.T) {
	os.Unsetenv("PREVIEW_WORKERS")
	defer os.Unsetenv("PREVIEW_WORKERS")

	tests := []struct {
		name       string
		multiplier float64
		limit      int
	}{
		{"Zero multiplier", 0.0, 0},
		{"Negative multiplier", -1.0, 0},
		{"Very high multiplier", 100.0, 0},
		{"Zero limit", 1.0, 0},
		{"Very high limit", 1.0, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)

			// Should never return less than 1
			if got < 1 {
				t.Errorf("Count(%v, %d) = %d, should never be less than 1", tt.multiplier, tt.limit, got)
			}

			// Should respect limit if set
			if tt.limit > 0 && got > tt.limit {
				t.Errorf("Count(%v, %d) = %d, should not exceed limit", tt.multiplier, tt.limit, got)
			}
		})
	}
}

func TestWorkerCountConsistency(t *testing.T) {
	os.Unsetenv("PREVIEW_WORKERS")
	defer os.Unsetenv("PREVIEW_WORKERS")

	// Multiple calls with same parameters should return same result
	multiplier := 1.5
	limit := 10

	first := Count(multiplier, limit)
	for i := 0; i < 5; i++ {
		got := Count(multiplier, limit)
		if got != first {
			t.Errorf("Count(%v, %d) returned different results: first=%d, iteration %d=%d", multiplier, limit, first, i, got)
		}
	}
}

func BenchmarkCount(b *testing.B) {
	os.Unsetenv("PREVIEW_WORKERS")

	b.Run("No override", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = Count(1.5, 10)
		}
	})

	b.Run("With override", func(b *testing.B) {
		os.Setenv("PREVIEW_WORKERS", "8")
		defer os.Unsetenv("PREVIEW_WORKERS")

		for i := 0; i < b.N; i++ {
			_ = Count(1.5, 10)
		}
	})
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
