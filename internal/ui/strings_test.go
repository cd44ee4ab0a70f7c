package ui

import (
	"testing"
	"time"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer string here", 10, "a longe..."},
		{"abc", 2, "ab"},
		{"  padded  ", 10, "padded"},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestTruncateMiddle_KeepsExtension(t *testing.T) {
	got := truncateMiddle("very_long_model_name_for_a_benchy.goo", 20)
	if len([]rune(got)) > 20 {
		t.Fatalf("truncateMiddle produced %d runes, want <= 20", len([]rune(got)))
	}
	if got[len(got)-4:] != ".goo" {
		t.Fatalf("truncateMiddle = %q, want .goo suffix", got)
	}
}

func TestTitleCase(t *testing.T) {
	if got := titleCase("file_checking"); got != "File Checking" {
		t.Fatalf("titleCase = %q, want %q", got, "File Checking")
	}
	if got := titleCase("idle"); got != "Idle" {
		t.Fatalf("titleCase = %q, want %q", got, "Idle")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatTicks(t *testing.T) {
	if got := formatTicks(0); got != "0:00:00" {
		t.Fatalf("formatTicks(0) = %q, want 0:00:00", got)
	}
	// 1h 2m 3s
	if got := formatTicks(3723000); got != "1:02:03" {
		t.Fatalf("formatTicks = %q, want 1:02:03", got)
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Now()
	if got := formatAge(time.Time{}, now); got != "never" {
		t.Fatalf("formatAge(zero) = %q, want never", got)
	}
	if got := formatAge(now.Add(-time.Second), now); got != "now" {
		t.Fatalf("formatAge(1s) = %q, want now", got)
	}
	if got := formatAge(now.Add(-30*time.Second), now); got != "30s ago" {
		t.Fatalf("formatAge(30s) = %q, want 30s ago", got)
	}
	if got := formatAge(now.Add(-5*time.Minute), now); got != "5m ago" {
		t.Fatalf("formatAge(5m) = %q, want 5m ago", got)
	}
	if got := formatAge(now.Add(-3*time.Hour), now); got != "3h ago" {
		t.Fatalf("formatAge(3h) = %q, want 3h ago", got)
	}
}
