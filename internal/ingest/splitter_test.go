package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitterShortTextSingleChunk(t *testing.T) {
	s := NewRecursiveSplitter()
	got := s.Split("  Senior Go engineer with 8 years of experience.  ")
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0] != "Senior Go engineer with 8 years of experience." {
		t.Fatalf("unexpected chunk %q", got[0])
	}
}

func TestSplitterUnbrokenTextOverlap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 1200; i++ {
		sb.WriteByte(byte('a' + i%26))
	}
	text := sb.String()

	got := NewRecursiveSplitter().Split(text)
	want := []string{text[0:500], text[400:900], text[800:1200]}
	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chunk %d mismatch: got %q", i, got[i])
		}
	}
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if prev[len(prev)-ChunkOverlap:] != cur[:ChunkOverlap] {
			t.Fatalf("chunks %d and %d do not share %d runes", i-1, i, ChunkOverlap)
		}
	}
}

func TestSplitterPrefersParagraphs(t *testing.T) {
	para1 := strings.Repeat("word ", 60) // 300 runes
	para2 := strings.Repeat("next ", 60)
	text := strings.TrimSpace(para1) + "\n\n" + strings.TrimSpace(para2)

	got := NewRecursiveSplitter().Split(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(got), got)
	}
	if !strings.HasPrefix(got[0], "word") || strings.Contains(got[0], "next") {
		t.Fatalf("first chunk crosses the paragraph break: %q", got[0])
	}
	if !strings.HasPrefix(got[1], "next") {
		t.Fatalf("second chunk should start the second paragraph: %q", got[1])
	}
}

func TestSplitterBoundsEveryChunk(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 80; i++ {
		sb.WriteString("Led a team of engineers délivering résumé tooling. ")
		if i%7 == 0 {
			sb.WriteString("\n")
		}
		if i%19 == 0 {
			sb.WriteString("\n\n")
		}
	}
	got := NewRecursiveSplitter().Split(sb.String())
	if len(got) < 2 {
		t.Fatalf("expected several chunks, got %d", len(got))
	}
	for i, c := range got {
		if n := utf8.RuneCountInString(c); n > ChunkSize {
			t.Fatalf("chunk %d has %d runes, limit %d", i, n, ChunkSize)
		}
		if c != strings.TrimSpace(c) || c == "" {
			t.Fatalf("chunk %d is not trimmed: %q", i, c)
		}
	}
}

func TestSplitKeepingSeparator(t *testing.T) {
	tests := []struct {
		text string
		sep  string
		want []string
	}{
		{"a. b. c", ". ", []string{"a", ". b", ". c"}},
		{"\n\nabc", "\n\n", []string{"\n\nabc"}},
		{"a\n\n\n\nb", "\n\n", []string{"a", "\n\n", "\n\nb"}},
		{"héllo", "", []string{"h", "é", "l", "l", "o"}},
	}
	for _, tt := range tests {
		got := splitKeepingSeparator(tt.text, tt.sep)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Fatalf("split(%q, %q) = %q, want %q", tt.text, tt.sep, got, tt.want)
		}
	}
}

func TestSplitterBlankInput(t *testing.T) {
	if got := NewRecursiveSplitter().Split("   \n\n  "); len(got) != 0 {
		t.Fatalf("expected no chunks, got %q", got)
	}
}
