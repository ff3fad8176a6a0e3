package ingest

import (
	"strings"
	"unicode/utf8"
)

const (
	ChunkSize    = 500
	ChunkOverlap = 100
)

// DefaultSeparators are tried in order: paragraph, line, sentence, word, character.
var DefaultSeparators = []string{"\n\n", "\n", ". ", "? ", "! ", " ", ""}

// RecursiveSplitter cuts text into pieces of at most Size runes that overlap
// their predecessor by up to Overlap runes. It splits on the coarsest separator
// present in the text and only recurses into pieces that are still too long.
// Separators are kept at the start of the piece that follows them.
type RecursiveSplitter struct {
	Size       int
	Overlap    int
	Separators []string
}

func NewRecursiveSplitter() *RecursiveSplitter {
	return &RecursiveSplitter{
		Size:       ChunkSize,
		Overlap:    ChunkOverlap,
		Separators: DefaultSeparators,
	}
}

func (s *RecursiveSplitter) Split(text string) []string {
	return s.split(text, s.Separators)
}

func (s *RecursiveSplitter) split(text string, separators []string) []string {
	separator := ""
	var rest []string
	if len(separators) > 0 {
		separator = separators[len(separators)-1]
	}
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var (
		out  []string
		good []string
	)
	for _, piece := range splitKeepingSeparator(text, separator) {
		if runeLen(piece) < s.Size {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			out = append(out, s.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			out = append(out, piece)
		} else {
			out = append(out, s.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		out = append(out, s.merge(good)...)
	}
	return out
}

// merge greedily packs small pieces into chunks and carries a tail of at most
// Overlap runes into the next chunk.
func (s *RecursiveSplitter) merge(pieces []string) []string {
	var (
		docs    []string
		current []string
		total   int
	)
	for _, piece := range pieces {
		n := runeLen(piece)
		if total+n > s.Size && len(current) > 0 {
			if doc := joinPieces(current); doc != "" {
				docs = append(docs, doc)
			}
			for total > s.Overlap || (total+n > s.Size && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}
	if doc := joinPieces(current); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

func splitKeepingSeparator(text, separator string) []string {
	if separator == "" {
		out := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}

	var out []string
	start, offset := 0, 0
	for {
		i := strings.Index(text[offset:], separator)
		if i < 0 {
			break
		}
		cut := offset + i
		if cut > start {
			out = append(out, text[start:cut])
		}
		start = cut
		offset = cut + len(separator)
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

func joinPieces(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, ""))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
