package ai

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractAnswer returns the answer text from a model reply. Replies shaped as
// a JSON object with a "result" or "answer" string yield that field; anything
// else is taken as plain text.
func ExtractAnswer(raw string) string {
	trimmed := strings.TrimSpace(raw)
	body := trimmed
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(strings.TrimSpace(body), "```")
		body = strings.TrimSpace(body)
	}
	if strings.HasPrefix(body, "{") && gjson.Valid(body) {
		for _, key := range []string{"result", "answer"} {
			if v := gjson.Get(body, key); v.Exists() && v.Type == gjson.String {
				return strings.TrimSpace(v.String())
			}
		}
	}
	return trimmed
}
