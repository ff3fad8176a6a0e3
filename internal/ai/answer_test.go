package ai

import "testing"

func TestExtractAnswer(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "  Consider a data engineering role.  ", "Consider a data engineering role."},
		{"result field", `{"result": "Apply to backend roles."}`, "Apply to backend roles."},
		{"answer field", `{"answer": " Learn Kubernetes. ", "sources": []}`, "Learn Kubernetes."},
		{"fenced json", "```json\n{\"result\": \"Update your LinkedIn.\"}\n```", "Update your LinkedIn."},
		{"non-string result", `{"result": 42}`, `{"result": 42}`},
		{"braces in prose", "{not json} but text", "{not json} but text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractAnswer(tt.raw); got != tt.want {
				t.Fatalf("ExtractAnswer(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
