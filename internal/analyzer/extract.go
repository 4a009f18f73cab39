package analyzer

import (
	"regexp"
	"strings"
	"sync"
)

// Extraction is the rule-based read of a normalized resume text.
type Extraction struct {
	Skills          []string
	Education       []string
	ExperienceLevel string
}

// Experience levels produced by the priority ladder.
const (
	LevelSenior     = "Senior"
	LevelMid        = "Mid-level"
	LevelInternship = "Internship"
	LevelEntry      = "Entry-level"
	LevelUnknown    = "Unknown"
)

// knownSkills is the fixed reference vocabulary. Output order follows this list,
// not the order tokens appear in the text.
var knownSkills = []string{
	"html", "css", "javascript", "typescript", "react", "next.js", "vue", "angular",
	"svelte", "tailwind", "sass", "redux", "webpack", "vite",
	"node.js", "express", "nest.js", "python", "django", "flask", "fastapi",
	"java", "spring", "kotlin", "swift", "go", "rust", "c", "c++", "c#", ".net",
	"php", "laravel", "ruby", "rails",
	"sql", "mysql", "postgresql", "sqlite", "mongodb", "redis", "elasticsearch",
	"graphql", "rest", "grpc", "websocket",
	"docker", "kubernetes", "terraform", "ansible", "jenkins", "ci/cd",
	"aws", "azure", "gcp", "firebase", "heroku", "vercel",
	"linux", "bash", "git", "github", "gitlab",
	"machine learning", "deep learning", "nlp", "tensorflow", "pytorch",
	"scikit-learn", "pandas", "numpy", "data analysis", "data visualization",
	"jest", "cypress", "selenium", "junit", "pytest",
	"figma", "agile", "scrum", "jira",
}

// knownEducation markers, matched the same way as skills.
var knownEducation = []string{
	"phd", "doctorate", "master", "m.sc", "m.tech", "mba", "mca",
	"bachelor", "b.sc", "b.tech", "b.e", "bca", "bba",
	"diploma", "associate degree", "bootcamp", "certification",
	"university", "college",
}

// Experience ladder, checked in priority order: the first matching rule wins,
// so a text mentioning both "senior" and "intern" resolves to Senior.
var experienceLadder = []struct {
	level   string
	pattern *regexp.Regexp
}{
	{LevelSenior, regexp.MustCompile(`(?i)\b(senior|sr\.?|lead|architect|principal|staff)\b`)},
	{LevelMid, regexp.MustCompile(`(?i)\b(mid[- ]?level|intermediate)\b`)},
	{LevelInternship, regexp.MustCompile(`(?i)\b(intern|internship|freshman)\b`)},
}

var (
	tokenReOnce sync.Once
	tokenRes    map[string]*regexp.Regexp
)

// tokenRegexp compiles (once, for all tokens) a case-insensitive whole-word matcher
// that tolerates punctuation inside tokens like "node.js", "c++" and "ci/cd".
func tokenRegexp(token string) *regexp.Regexp {
	tokenReOnce.Do(func() {
		tokenRes = make(map[string]*regexp.Regexp, len(knownSkills)+len(knownEducation))
		for _, t := range append(append([]string{}, knownSkills...), knownEducation...) {
			pattern := `(?i)(?:^|[^a-zA-Z0-9])` + regexp.QuoteMeta(t) + `(?:$|[^a-zA-Z0-9+#])`
			tokenRes[t] = regexp.MustCompile(pattern)
		}
	})
	return tokenRes[token]
}

// Extract scans normalized text for known skill and education tokens and infers the
// experience level. Presence anywhere in the text counts; there is no frequency or
// position weighting.
func Extract(text string) Extraction {
	if strings.TrimSpace(text) == "" {
		return Extraction{
			Skills:          []string{},
			Education:       []string{},
			ExperienceLevel: LevelUnknown,
		}
	}

	skills := make([]string, 0, 16)
	for _, token := range knownSkills {
		if tokenRegexp(token).MatchString(text) {
			skills = append(skills, token)
		}
	}

	education := make([]string, 0, 4)
	for _, token := range knownEducation {
		if tokenRegexp(token).MatchString(text) {
			education = append(education, token)
		}
	}

	return Extraction{
		Skills:          skills,
		Education:       education,
		ExperienceLevel: inferExperienceLevel(text),
	}
}

func inferExperienceLevel(text string) string {
	for _, rule := range experienceLadder {
		if rule.pattern.MatchString(text) {
			return rule.level
		}
	}
	return LevelEntry
}
