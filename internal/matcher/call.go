package matcher

import (
	"regexp"
	"strings"
)

// DefaultSizeLimit is the root-word length at or below which MatchCall
// only accepts a word at the end of the text.
const DefaultSizeLimit = 3

var signaturePattern = regexp.MustCompile(`<(.*): [\w|\d|\$|\.|\[\]]* (.*)\(`)

// MatchCall is a plain keyword scan over a call name. Blacklists and
// children are ignored; root words of sizeLimit characters or fewer only
// match as a suffix, which keeps "car" from matching inside "scarce".
func (m *Matcher) MatchCall(text string, sizeLimit int) Result {
	text = lower(text)
	var res Result
	terms := m.db.Terms()
	for i := range terms {
		t := &terms[i]
		if (len(t.Root) > sizeLimit && strings.Contains(text, t.Root)) || strings.HasSuffix(text, t.Root) {
			res.Hits = append(res.Hits, Hit{Category: t.Category, Subcategory: t.Subcategory, Word: t.Root})
		}
	}
	return res
}

// MatchSignature matches the class and method name of a method signature
// such as "<com.example.Battery: int getLevel(java.lang.String)>". It
// reports false when sig does not have that shape.
func (m *Matcher) MatchSignature(sig string) (Result, bool) {
	groups := signaturePattern.FindStringSubmatch(sig)
	if groups == nil {
		return Result{}, false
	}
	text := lower(groups[1] + " " + groups[2])
	var res Result
	terms := m.db.Terms()
	for i := range terms {
		t := &terms[i]
		if strings.Contains(text, t.Root) {
			res.Hits = append(res.Hits, Hit{Category: t.Category, Subcategory: t.Subcategory, Word: t.Root})
		}
	}
	return res, true
}
