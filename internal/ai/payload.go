package ai

import "strings"

// ExtractJSON pulls a JSON object out of a completion that may be wrapped in
// markdown code fences or surrounding prose: fence markers are stripped, then
// the substring from the first '{' to the last '}' is returned. The second
// return value is false when no object-shaped substring exists.
func ExtractJSON(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}
