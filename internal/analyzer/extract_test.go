package analyzer

import (
	"slices"
	"testing"
)

func TestExtract_SkillsAndLevel(t *testing.T) {
	ext := Extract("I have strong React and Node.js skills, Senior Engineer")

	if !slices.Contains(ext.Skills, "react") {
		t.Errorf("expected react in %v", ext.Skills)
	}
	if !slices.Contains(ext.Skills, "node.js") {
		t.Errorf("expected node.js in %v", ext.Skills)
	}
	if ext.ExperienceLevel != LevelSenior {
		t.Errorf("expected Senior, got %s", ext.ExperienceLevel)
	}
}

func TestExtract_ReferenceOrderNotTextOrder(t *testing.T) {
	// Text mentions react before html; output must follow the reference list.
	ext := Extract("Worked with React, then learned HTML and CSS")
	want := []string{"html", "css", "react"}
	if !slices.Equal(ext.Skills, want) {
		t.Fatalf("got %v want %v", ext.Skills, want)
	}
}

func TestExtract_WholeWordOnly(t *testing.T) {
	ext := Extract("I enjoy going places and reacting to things")
	if slices.Contains(ext.Skills, "go") {
		t.Errorf("go matched inside 'going': %v", ext.Skills)
	}
	if slices.Contains(ext.Skills, "react") {
		t.Errorf("react matched inside 'reacting': %v", ext.Skills)
	}
}

func TestExtract_PunctuatedTokens(t *testing.T) {
	ext := Extract("Shipped services in C++ and C#, pipelines with CI/CD")
	for _, want := range []string{"c++", "c#", "ci/cd"} {
		if !slices.Contains(ext.Skills, want) {
			t.Errorf("expected %s in %v", want, ext.Skills)
		}
	}
	if slices.Contains(ext.Skills, "c") {
		t.Errorf("bare c should not match inside c++/c#: %v", ext.Skills)
	}
}

func TestExtract_SeniorWinsOverIntern(t *testing.T) {
	// Priority order decides, not text order.
	ext := Extract("intern turned senior engineer")
	if ext.ExperienceLevel != LevelSenior {
		t.Fatalf("expected Senior, got %s", ext.ExperienceLevel)
	}
}

func TestExtract_LevelLadder(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"mid-level developer with React", LevelMid},
		{"summer internship at a startup", LevelInternship},
		{"recent graduate looking for a first role", LevelEntry},
	}
	for _, tc := range cases {
		if got := Extract(tc.text).ExperienceLevel; got != tc.want {
			t.Errorf("%q: got %s want %s", tc.text, got, tc.want)
		}
	}
}

func TestExtract_EmptyInput(t *testing.T) {
	ext := Extract("   ")
	if len(ext.Skills) != 0 || len(ext.Education) != 0 {
		t.Fatalf("expected empty lists, got %v / %v", ext.Skills, ext.Education)
	}
	if ext.ExperienceLevel != LevelUnknown {
		t.Fatalf("expected Unknown, got %s", ext.ExperienceLevel)
	}
}

func TestExtract_Education(t *testing.T) {
	ext := Extract("Bachelor of Science, State University")
	if !slices.Contains(ext.Education, "bachelor") {
		t.Errorf("expected bachelor in %v", ext.Education)
	}
	if !slices.Contains(ext.Education, "university") {
		t.Errorf("expected university in %v", ext.Education)
	}
}
