package ui

import "testing"

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	want := []string{"Nightfox", "Kanagawa", "Slate"}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("ThemeNames() = %v, want %v", names, want)
		}
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("Nightfox"); got != "Kanagawa" {
		t.Fatalf("NextTheme(Nightfox) = %q, want Kanagawa", got)
	}
	if got := NextTheme("Slate"); got != "Nightfox" {
		t.Fatalf("NextTheme(Slate) = %q, want Nightfox", got)
	}
	if got := NextTheme("Unknown"); got != "Nightfox" {
		t.Fatalf("NextTheme(Unknown) = %q, want Nightfox", got)
	}
}

func TestGetTheme_FallsBackToNightfox(t *testing.T) {
	for _, name := range ThemeNames() {
		if got := GetTheme(name).Name; got != name {
			t.Fatalf("GetTheme(%s).Name = %q, want %q", name, got, name)
		}
	}
	if got := GetTheme("Unknown").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Unknown).Name = %q, want Nightfox", got)
	}
}

func TestThemesCoverPrintStatuses(t *testing.T) {
	statuses := []string{
		"idle", "homing", "dropping", "exposuring", "lifting",
		"pausing", "paused", "stopping", "stopped", "complete",
		"checking", "printing", "online", "offline",
	}
	for _, name := range ThemeNames() {
		theme := GetTheme(name)
		for _, status := range statuses {
			if theme.StatusColors[status] == "" {
				t.Errorf("theme %s has no color for status %q", name, status)
			}
		}
	}
}

func TestStatusStyle_UnknownUsesMuted(t *testing.T) {
	styles := GetTheme("Nightfox").Styles()
	known := styles.StatusStyle("printing")
	unknown := styles.StatusStyle("nonsense")
	if known.GetBackground() == unknown.GetBackground() {
		t.Fatalf("unknown status should fall back to the muted color")
	}
}
