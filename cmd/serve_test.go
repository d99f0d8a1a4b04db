package cmd

import (
	"testing"
	"time"
)

func TestParseWeekStart(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  time.Weekday
		expectErr bool
	}{
		{
			name:     "sunday",
			input:    "sunday",
			expected: time.Sunday,
		},
		{
			name:     "monday",
			input:    "monday",
			expected: time.Monday,
		},
		{
			name:     "mixed case",
			input:    "Monday",
			expected: time.Monday,
		},
		{
			name:     "surrounding whitespace",
			input:    "  sunday  ",
			expected: time.Sunday,
		},
		{
			name:     "empty defaults to sunday",
			input:    "",
			expected: time.Sunday,
		},
		{
			name:      "unsupported day",
			input:     "wednesday",
			expectErr: true,
		},
		{
			name:      "garbage",
			input:     "not-a-day",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseWeekStart(tt.input)
			if tt.expectErr {
				if err == nil {
					t.Errorf("parseWeekStart(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseWeekStart(%q): %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("parseWeekStart(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("WEEK_START", "monday")
	t.Setenv("SESSION_TIMEOUT", "30m")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("METRICS_ADDR", ":9191")

	cfg := ServeConfig{
		HTTPAddr:       ":8080",
		SignInURL:      "/auth/signin",
		WeekStart:      "sunday",
		SessionTimeout: 24 * time.Hour,
		Metrics:        MetricsConfig{Enabled: true, Addr: ":9090"},
	}
	applyEnvOverrides(&cfg)

	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q, want :9999", cfg.HTTPAddr)
	}
	if cfg.WeekStart != "monday" {
		t.Errorf("WeekStart = %q, want monday", cfg.WeekStart)
	}
	if cfg.SessionTimeout != 30*time.Minute {
		t.Errorf("SessionTimeout = %v, want 30m", cfg.SessionTimeout)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
	if cfg.Metrics.Addr != ":9191" {
		t.Errorf("Metrics.Addr = %q, want :9191", cfg.Metrics.Addr)
	}
}

func TestApplyEnvOverridesFlagWins(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")

	// A non-default flag value is left alone.
	cfg := ServeConfig{HTTPAddr: ":8081", WeekStart: "sunday", Metrics: MetricsConfig{Addr: ":9090"}}
	applyEnvOverrides(&cfg)

	if cfg.HTTPAddr != ":8081" {
		t.Errorf("HTTPAddr = %q, want the flag value :8081", cfg.HTTPAddr)
	}
}
