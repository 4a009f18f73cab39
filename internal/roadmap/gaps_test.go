package roadmap

import "testing"

func TestBaseGaps_FrontendTemplate(t *testing.T) {
	gaps := BaseGaps([]string{"html", "css"}, "Frontend Developer")

	want := []struct {
		skill string
		order int
	}{
		{"javascript", 1},
		{"react", 2},
		{"typescript", 3},
		{"next.js", 4},
	}
	if len(gaps) != len(want) {
		t.Fatalf("got %d gaps, want %d: %+v", len(gaps), len(want), gaps)
	}
	for i, w := range want {
		if gaps[i].Skill != w.skill {
			t.Errorf("gap[%d].Skill: got %s want %s", i, gaps[i].Skill, w.skill)
		}
		if gaps[i].Order != w.order {
			t.Errorf("gap[%d].Order: got %d want %d", i, gaps[i].Order, w.order)
		}
		if gaps[i].Status != StatusNotStarted {
			t.Errorf("gap[%d].Status: got %s", i, gaps[i].Status)
		}
	}
}

func TestBaseGaps_CaseInsensitive(t *testing.T) {
	gaps := BaseGaps([]string{"HTML", "Css", "JavaScript"}, "frontend developer")
	if len(gaps) != 3 {
		t.Fatalf("got %d gaps: %+v", len(gaps), gaps)
	}
	if gaps[0].Skill != "react" || gaps[0].Order != 1 {
		t.Fatalf("first gap: %+v", gaps[0])
	}
}

func TestBaseGaps_UnknownRole(t *testing.T) {
	gaps := BaseGaps([]string{"html"}, "Underwater Basket Weaver")
	if len(gaps) != 0 {
		t.Fatalf("expected empty list, got %+v", gaps)
	}
}

func TestBaseGaps_NoSkills(t *testing.T) {
	gaps := BaseGaps(nil, "Frontend Developer")
	if len(gaps) != 6 {
		t.Fatalf("expected full template, got %d", len(gaps))
	}
	for i, g := range gaps {
		if g.Order != i+1 {
			t.Errorf("gap[%d].Order: got %d want %d", i, g.Order, i+1)
		}
	}
}

func TestCompletionScore(t *testing.T) {
	if got := CompletionScore(nil); got != 0 {
		t.Errorf("empty path: got %d want 0", got)
	}

	steps := []Step{
		{Skill: "a", Status: StatusCompleted},
		{Skill: "b", Status: StatusCompleted},
		{Skill: "c", Status: StatusInProgress},
	}
	// round(100 * 2/3) = 67
	if got := CompletionScore(steps); got != 67 {
		t.Errorf("got %d want 67", got)
	}
}
