package matcher

import (
	"sort"
	"strings"
	"unicode"
)

type token struct {
	word  string
	start int
}

type tokens []token

// tokenize splits text on whitespace, '_' and '.', keeping byte offsets.
func tokenize(text string) tokens {
	var out tokens
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) || r == '_' || r == '.' {
			if start >= 0 {
				out = append(out, token{word: text[start:i], start: start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, token{word: text[start:], start: start})
	}
	return out
}

// indexAt returns the index of the token containing byte offset at, or the
// last token starting before it.
func (t tokens) indexAt(at int) int {
	i := sort.Search(len(t), func(i int) bool { return t[i].start > at })
	return i - 1
}

func (t tokens) words(lo, hi int) []string {
	out := make([]string, 0, hi-lo)
	for _, tok := range t[lo:hi] {
		out = append(out, tok.word)
	}
	return out
}

// compact joins the whitespace-separated words of text with single spaces,
// dropping stopwords, so "get the battery" becomes "get battery".
func compact(text string, stop map[string]bool) string {
	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if !stop[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}
