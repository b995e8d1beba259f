package transcript

import (
	"sort"
	"strings"
)

// Token is a single recognized word with its timing in seconds from the
// start of the source media. Start and End are inclusive of the audible
// word; End is never less than Start.
type Token struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float32 `json:"confidence,omitempty"`
	Track      int     `json:"track,omitempty"`
}

// Sort orders tokens by start time, breaking ties by end time. The sort is
// stable so tokens from earlier tracks keep their relative order.
func Sort(tokens []Token) {
	sort.SliceStable(tokens, func(i, j int) bool {
		if tokens[i].Start != tokens[j].Start {
			return tokens[i].Start < tokens[j].Start
		}
		return tokens[i].End < tokens[j].End
	})
}

// Combine merges per-track token streams into a single timeline ordered by
// start time. Track assignments on the input tokens are preserved.
func Combine(tracks ...[]Token) []Token {
	total := 0
	for _, t := range tracks {
		total += len(t)
	}
	combined := make([]Token, 0, total)
	for _, t := range tracks {
		combined = append(combined, t...)
	}
	Sort(combined)
	return combined
}

// Clean trims surrounding whitespace from token text and drops tokens that
// are empty after trimming or carry invalid timing.
func Clean(tokens []Token) []Token {
	cleaned := make([]Token, 0, len(tokens))
	for _, tok := range tokens {
		tok.Text = strings.TrimSpace(tok.Text)
		if tok.Text == "" {
			continue
		}
		if tok.Start < 0 || tok.End < tok.Start {
			continue
		}
		cleaned = append(cleaned, tok)
	}
	return cleaned
}

// Duration returns the end time of the latest token, or 0 for an empty
// transcript.
func Duration(tokens []Token) float64 {
	var max float64
	for _, tok := range tokens {
		if tok.End > max {
			max = tok.End
		}
	}
	return max
}

// Text reconstructs the plain transcript text with single spaces between
// tokens.
func Text(tokens []Token) string {
	var b strings.Builder
	for i, tok := range tokens {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tok.Text)
	}
	return b.String()
}
