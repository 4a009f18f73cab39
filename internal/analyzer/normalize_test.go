package analyzer

import "testing"

func TestNormalize_CollapsesWhitespace(t *testing.T) {
	got := Normalize("Hello    world\t\tfoo")
	if got != "Hello world foo" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestNormalize_CapsBlankLines(t *testing.T) {
	got := Normalize("para one\n\n\n\n\npara two")
	if got != "para one\n\npara two" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestNormalize_StripsPageMarkers(t *testing.T) {
	raw := "Experience\nPage 2 of 3\nEducation\f--- Page Break ---\nSkills"
	got := Normalize(raw)
	want := "Experience\n\nEducation\n\nSkills"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	if got := Normalize(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if got := Normalize("   \n\n  "); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
