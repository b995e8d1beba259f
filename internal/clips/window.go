package clips

import (
	"clive/internal/transcript"
)

// Window is one candidate extraction interval anchored on a keyword match.
type Window struct {
	Keyword string
	Start   float64
	End     float64
}

// Derive scans the transcript with every rule and returns the candidate
// windows in match order. Windows are clamped to [0, duration]; pass a
// duration of 0 when the media length is unknown and no upper clamp is
// wanted. Rules whose keyword never occurs simply contribute no windows.
func Derive(tokens []transcript.Token, rules []Rule, duration float64) []Window {
	doc := flatten(tokens)
	var windows []Window
	for _, rule := range rules {
		for _, hit := range doc.occurrences(rule.Keyword) {
			start := tokens[hit[0]].Start - rule.Lead
			end := tokens[hit[1]].End + rule.Trail
			if start < 0 {
				start = 0
			}
			if duration > 0 && end > duration {
				end = duration
			}
			if end <= start {
				continue
			}
			windows = append(windows, Window{Keyword: rule.Keyword, Start: start, End: end})
		}
	}
	return windows
}
