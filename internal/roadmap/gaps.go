package roadmap

import "strings"

// BaseGaps computes the rule-based skill gap between a role template and the
// user's extracted skills. Skills are compared lowercase; output keeps the
// template's foundational-to-advanced order with Order renumbered 1..N over the
// filtered list. An unknown role yields an empty list.
func BaseGaps(userSkills []string, targetRole string) []Step {
	template := roleTemplate(targetRole)
	if len(template) == 0 {
		return []Step{}
	}

	have := make(map[string]struct{}, len(userSkills))
	for _, s := range userSkills {
		have[strings.ToLower(s)] = struct{}{}
	}

	gaps := make([]Step, 0, len(template))
	for _, req := range template {
		if _, ok := have[strings.ToLower(req.Skill)]; ok {
			continue
		}
		gaps = append(gaps, Step{
			Skill:  req.Skill,
			Level:  req.Level,
			Order:  len(gaps) + 1,
			Status: StatusNotStarted,
		})
	}
	return gaps
}
