package clips

import "sort"

// Clip is a disjoint extraction interval produced by merging overlapping
// windows. Keywords lists the distinct triggers that contributed, in first
// contribution order.
type Clip struct {
	Start    float64  `json:"start"`
	End      float64  `json:"end"`
	Keywords []string `json:"keywords"`
}

// Duration returns the clip length in seconds.
func (c Clip) Duration() float64 {
	return c.End - c.Start
}

// Merge collapses candidate windows into disjoint clips ordered by start
// time. Two windows merge when they overlap or touch, or when the gap
// between them is at most mergeGap seconds. The result is independent of
// the input window order.
func Merge(windows []Window, mergeGap float64) []Clip {
	if len(windows) == 0 {
		return nil
	}
	if mergeGap < 0 {
		mergeGap = 0
	}

	sorted := make([]Window, len(windows))
	copy(sorted, windows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		if sorted[i].End != sorted[j].End {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Keyword < sorted[j].Keyword
	})

	clips := make([]Clip, 0, len(sorted))
	current := Clip{Start: sorted[0].Start, End: sorted[0].End}
	keywords := map[string]struct{}{}
	addKeyword := func(clip *Clip, keyword string) {
		if _, ok := keywords[keyword]; ok {
			return
		}
		keywords[keyword] = struct{}{}
		clip.Keywords = append(clip.Keywords, keyword)
	}
	addKeyword(&current, sorted[0].Keyword)

	for _, w := range sorted[1:] {
		if w.Start <= current.End+mergeGap {
			if w.End > current.End {
				current.End = w.End
			}
			addKeyword(&current, w.Keyword)
			continue
		}
		clips = append(clips, current)
		current = Clip{Start: w.Start, End: w.End}
		keywords = map[string]struct{}{}
		addKeyword(&current, w.Keyword)
	}
	return append(clips, current)
}
