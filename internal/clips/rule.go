package clips

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Rule describes one keyword trigger: whenever the keyword occurs in the
// transcript, a window opens Lead seconds before the match and closes Trail
// seconds after it.
type Rule struct {
	Keyword string
	Lead    float64
	Trail   float64
}

var foldCaser = cases.Fold()

// fold normalizes text for matching. Case folding rather than simple
// lowercasing so comparisons hold for non-ASCII keywords too.
func fold(s string) string {
	return foldCaser.String(s)
}

// Normalize trims and case-folds the rule keyword and validates timings.
func (r Rule) Normalize() (Rule, error) {
	r.Keyword = fold(strings.Join(strings.Fields(r.Keyword), " "))
	if r.Keyword == "" {
		return Rule{}, errors.New("keyword must not be empty")
	}
	if r.Lead < 0 {
		return Rule{}, fmt.Errorf("keyword %q: lead seconds must not be negative", r.Keyword)
	}
	if r.Trail < 0 {
		return Rule{}, fmt.Errorf("keyword %q: trail seconds must not be negative", r.Keyword)
	}
	return r, nil
}

// NormalizeRules normalizes every rule and rejects duplicate keywords.
func NormalizeRules(rules []Rule) ([]Rule, error) {
	seen := make(map[string]struct{}, len(rules))
	normalized := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		norm, err := rule.Normalize()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[norm.Keyword]; dup {
			return nil, fmt.Errorf("keyword %q configured more than once", norm.Keyword)
		}
		seen[norm.Keyword] = struct{}{}
		normalized = append(normalized, norm)
	}
	return normalized, nil
}
