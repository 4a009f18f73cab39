package roadmap

import "strings"

// templateStep is a required skill inside a role template.
type templateStep struct {
	Skill string
	Level string
}

// roleTemplates maps a target role to its ordered required skills, foundational
// first. Lookup is case-insensitive on the role name.
var roleTemplates = map[string][]templateStep{
	"frontend developer": {
		{"html", LevelBeginner},
		{"css", LevelBeginner},
		{"javascript", LevelBeginner},
		{"react", LevelIntermediate},
		{"typescript", LevelIntermediate},
		{"next.js", LevelAdvanced},
	},
	"backend developer": {
		{"linux", LevelBeginner},
		{"sql", LevelBeginner},
		{"go", LevelIntermediate},
		{"postgresql", LevelIntermediate},
		{"redis", LevelIntermediate},
		{"docker", LevelIntermediate},
		{"kubernetes", LevelAdvanced},
	},
	"full stack developer": {
		{"html", LevelBeginner},
		{"css", LevelBeginner},
		{"javascript", LevelBeginner},
		{"react", LevelIntermediate},
		{"node.js", LevelIntermediate},
		{"sql", LevelIntermediate},
		{"docker", LevelAdvanced},
	},
	"data scientist": {
		{"python", LevelBeginner},
		{"sql", LevelBeginner},
		{"pandas", LevelIntermediate},
		{"numpy", LevelIntermediate},
		{"machine learning", LevelIntermediate},
		{"deep learning", LevelAdvanced},
	},
	"devops engineer": {
		{"linux", LevelBeginner},
		{"bash", LevelBeginner},
		{"git", LevelBeginner},
		{"docker", LevelIntermediate},
		{"ci/cd", LevelIntermediate},
		{"terraform", LevelAdvanced},
		{"kubernetes", LevelAdvanced},
	},
	"mobile developer": {
		{"java", LevelBeginner},
		{"kotlin", LevelIntermediate},
		{"swift", LevelIntermediate},
		{"rest", LevelIntermediate},
		{"ci/cd", LevelAdvanced},
	},
}

func roleTemplate(targetRole string) []templateStep {
	return roleTemplates[strings.ToLower(strings.TrimSpace(targetRole))]
}

// KnownRoles lists the role names that have a template, for API discovery.
func KnownRoles() []string {
	roles := make([]string, 0, len(roleTemplates))
	for role := range roleTemplates {
		roles = append(roles, role)
	}
	return roles
}
