package clips

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"clive/internal/transcript"
)

// span records where one token landed in the folded flat text.
type span struct {
	start int
	end   int
	token int
}

// flatDoc is the folded transcript text with a byte-offset map back to the
// originating tokens. Matching happens on the flat text so multi-word
// phrases spanning token boundaries still hit.
type flatDoc struct {
	text  string
	spans []span
}

func flatten(tokens []transcript.Token) flatDoc {
	var b strings.Builder
	spans := make([]span, 0, len(tokens))
	for i, tok := range tokens {
		if i > 0 {
			b.WriteByte(' ')
		}
		folded := fold(strings.Trim(tok.Text, punctCutset))
		start := b.Len()
		b.WriteString(folded)
		spans = append(spans, span{start: start, end: b.Len(), token: i})
	}
	return flatDoc{text: b.String(), spans: spans}
}

// punctCutset strips the ASCII punctuation whisper commonly attaches to
// word tokens so "magic," still matches the keyword "magic".
const punctCutset = ".,!?;:\"'()[]"

// occurrences returns the token index ranges [first, last] covering each
// whole-word occurrence of keyword in the document.
func (d flatDoc) occurrences(keyword string) [][2]int {
	if keyword == "" || d.text == "" {
		return nil
	}
	var hits [][2]int
	offset := 0
	for {
		rel := strings.Index(d.text[offset:], keyword)
		if rel < 0 {
			return hits
		}
		start := offset + rel
		end := start + len(keyword)
		if d.wordBoundary(start, end) {
			first, last, ok := d.tokenRange(start, end)
			if ok {
				hits = append(hits, [2]int{first, last})
			}
		}
		offset = start + 1
	}
}

// wordBoundary reports whether the byte range [start, end) is delimited by
// non-word runes on both sides.
func (d flatDoc) wordBoundary(start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(d.text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(d.text) {
		r, _ := utf8.DecodeRuneInString(d.text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}

// tokenRange maps a byte range in the flat text to the first and last token
// indexes it overlaps.
func (d flatDoc) tokenRange(start, end int) (int, int, bool) {
	first, last := -1, -1
	for _, s := range d.spans {
		if s.end <= start || s.start >= end {
			continue
		}
		if first < 0 {
			first = s.token
		}
		last = s.token
	}
	if first < 0 {
		return 0, 0, false
	}
	return first, last, true
}
