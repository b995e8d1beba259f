// Package clips derives cut lists from timestamped transcripts. Keyword
// rules produce candidate windows around each match, and overlapping
// windows collapse into a minimal set of disjoint clips.
package clips
