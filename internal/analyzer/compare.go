package analyzer

import (
	"fmt"
	"strings"
)

// Snapshot is the slice of a stored resume the comparator needs.
type Snapshot struct {
	Skills          []string
	Education       []string
	ExperienceLevel string
}

// Comparison describes the differences between two resume versions.
type Comparison struct {
	NewSkills     []string `json:"new_skills"`
	RemovedSkills []string `json:"removed_skills"`
	ImprovedAreas []string `json:"improved_areas"`
	GrowthScore   int      `json:"growth_score"`
}

// Compare diffs two resume snapshots. Skills are compared lowercase on both sides,
// the same normalization the extractor and gap generator use. Either side missing
// yields an all-empty result.
func Compare(before, after *Snapshot) Comparison {
	result := Comparison{
		NewSkills:     []string{},
		RemovedSkills: []string{},
		ImprovedAreas: []string{},
	}
	if before == nil || after == nil {
		return result
	}

	oldSet := lowerSet(before.Skills)
	newSet := lowerSet(after.Skills)

	for _, s := range after.Skills {
		if _, ok := oldSet[strings.ToLower(s)]; !ok {
			result.NewSkills = append(result.NewSkills, s)
		}
	}
	for _, s := range before.Skills {
		if _, ok := newSet[strings.ToLower(s)]; !ok {
			result.RemovedSkills = append(result.RemovedSkills, s)
		}
	}

	levelChanged := before.ExperienceLevel != after.ExperienceLevel
	educationGrew := len(after.Education) > len(before.Education)

	// Fixed reporting order: level change, skill additions, education expansion.
	if levelChanged {
		result.ImprovedAreas = append(result.ImprovedAreas,
			fmt.Sprintf("Experience level changed from %s to %s.", before.ExperienceLevel, after.ExperienceLevel))
	}
	if len(result.NewSkills) > 0 {
		result.ImprovedAreas = append(result.ImprovedAreas,
			fmt.Sprintf("Added %d new skill(s): %s.", len(result.NewSkills), strings.Join(result.NewSkills, ", ")))
	}
	if educationGrew {
		result.ImprovedAreas = append(result.ImprovedAreas,
			"Education section expanded with new entries.")
	}

	score := 10 * len(result.NewSkills)
	if levelChanged {
		score += 25
	}
	if educationGrew {
		score += 15
	}
	if score > 100 {
		score = 100
	}
	result.GrowthScore = score

	return result
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}
