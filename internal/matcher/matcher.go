// Package matcher matches free text and identifier-style names against the
// category database.
//
// Matching is substring based. Root words with children only match through
// the phrases composed from them; childless root words match on their own
// unless a blacklist term is found near the occurrence.
package matcher

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"blemap/internal/config"
	"blemap/internal/taxonomy"
)

// Mode selects how text is interpreted.
type Mode int

const (
	// Text is free text such as string literals: tokenised, blacklist terms
	// are checked in a window around each occurrence, and phrases may be
	// space-joined.
	Text Mode = iota
	// Identifier is a single identifier-like name (API member, field). A
	// blacklist term anywhere in the name suppresses the root word.
	Identifier
)

func (m Mode) String() string {
	if m == Identifier {
		return "identifier"
	}
	return "text"
}

// Hit is one matched root word or phrase.
type Hit struct {
	Category    string
	Subcategory string
	// Word is the surface form that matched: the root word or a joined phrase.
	Word string
}

// Pair returns the "category:subcategory" label of the hit.
func (h Hit) Pair() string {
	return h.Category + ":" + h.Subcategory
}

// Result is an ordered multi-set of hits. The same pair appears once per
// matching root word or phrase form.
type Result struct {
	Hits []Hit
}

// Empty reports whether nothing matched.
func (r Result) Empty() bool {
	return len(r.Hits) == 0
}

// Categories lists the category of every hit.
func (r Result) Categories() []string {
	return r.collect(func(h Hit) string { return h.Category })
}

// Subcategories lists the subcategory of every hit.
func (r Result) Subcategories() []string {
	return r.collect(func(h Hit) string { return h.Subcategory })
}

// Pairs lists the "category:subcategory" label of every hit.
func (r Result) Pairs() []string {
	return r.collect(Hit.Pair)
}

// Words lists the matched surface form of every hit.
func (r Result) Words() []string {
	return r.collect(func(h Hit) string { return h.Word })
}

func (r Result) collect(fn func(Hit) string) []string {
	out := make([]string, 0, len(r.Hits))
	for _, h := range r.Hits {
		out = append(out, fn(h))
	}
	return out
}

// Summary is the serialised form of a Result.
type Summary struct {
	Category            []string `json:"category"`
	SubCategory         []string `json:"sub-category"`
	CategorySubcategory []string `json:"category_subcategory"`
	Words               []string `json:"words"`
}

// Summary flattens the hits into parallel lists.
func (r Result) Summary() Summary {
	return Summary{
		Category:            r.Categories(),
		SubCategory:         r.Subcategories(),
		CategorySubcategory: r.Pairs(),
		Words:               r.Words(),
	}
}

// Matcher matches text against a category database. It is safe for
// concurrent use.
type Matcher struct {
	db        *taxonomy.Database
	cfg       config.MatcherConfig
	senses    SenseResolver
	stopwords map[string]bool
}

// New creates a matcher. senses may be nil, which disables sense refinement.
func New(db *taxonomy.Database, cfg config.MatcherConfig, senses SenseResolver) *Matcher {
	stop := make(map[string]bool, len(cfg.Stopwords))
	for _, w := range cfg.Stopwords {
		stop[strings.ToLower(w)] = true
	}
	return &Matcher{db: db, cfg: cfg, senses: senses, stopwords: stop}
}

// Database returns the category database the matcher reads.
func (m *Matcher) Database() *taxonomy.Database {
	return m.db
}

// lower returns a fresh caser; cases.Caser is not safe for concurrent use.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Match returns every category hit for text.
func (m *Matcher) Match(text string, mode Mode) Result {
	text = lower(text)

	var toks tokens
	var joined string
	disambiguate := false
	if mode == Text {
		toks = tokenize(text)
		joined = compact(text, m.stopwords)
		disambiguate = m.cfg.Disambiguate && m.senses != nil && len(toks) >= m.cfg.ShortTextThreshold
	}

	var res Result
	terms := m.db.Terms()
	for i := range terms {
		term := &terms[i]
		if !strings.Contains(text, term.Root) {
			continue
		}

		if term.HasChildren() {
			for _, form := range phraseForms(term.Phrases(), mode) {
				if strings.Contains(text, form) || (mode == Text && strings.Contains(form, " ") && strings.Contains(joined, form)) {
					res.Hits = append(res.Hits, Hit{Category: term.Category, Subcategory: term.Subcategory, Word: form})
				}
			}
			continue
		}

		if mode == Identifier {
			if containsAny(text, term.Blacklist) {
				continue
			}
			res.Hits = append(res.Hits, Hit{Category: term.Category, Subcategory: term.Subcategory, Word: term.Root})
			continue
		}

		occurrences := m.surviving(text, term)
		if len(occurrences) == 0 {
			continue
		}
		if disambiguate && len(term.Meanings) > 0 && !m.senseAccepted(toks, occurrences, term) {
			continue
		}
		res.Hits = append(res.Hits, Hit{Category: term.Category, Subcategory: term.Subcategory, Word: term.Root})
	}
	return res
}

// phraseForms joins every phrase directly, with hyphens and with
// underscores; text mode also tries the space-joined form.
func phraseForms(phrases [][]string, mode Mode) []string {
	var forms []string
	for _, p := range phrases {
		forms = append(forms, strings.Join(p, ""))
		if mode == Text {
			forms = append(forms, strings.Join(p, " "))
		}
		forms = append(forms, strings.Join(p, "-"), strings.Join(p, "_"))
	}
	return forms
}

// surviving returns the byte offsets of every occurrence of the root word
// that is not inside the window of one of its blacklist terms. The window
// extends the blacklist term's length (plus the configured extra) on both
// sides of the occurrence, clamped to the text.
func (m *Matcher) surviving(text string, term *taxonomy.Term) []int {
	spans := findAll(text, term.Root)
	if len(term.Blacklist) == 0 {
		return spans
	}

	suppressed := make([]bool, len(spans))
	for _, b := range term.Blacklist {
		if b == "" || !strings.Contains(text, b) {
			continue
		}
		pad := len(b) + m.cfg.BlacklistWindowExtra
		for i, at := range spans {
			lo := max(0, at-pad)
			hi := min(len(text), at+len(term.Root)+pad)
			if strings.Contains(text[lo:hi], b) {
				suppressed[i] = true
			}
		}
	}

	var out []int
	for i, at := range spans {
		if !suppressed[i] {
			out = append(out, at)
		}
	}
	return out
}

func (m *Matcher) senseAccepted(toks tokens, occurrences []int, term *taxonomy.Term) bool {
	for _, at := range occurrences {
		ti := toks.indexAt(at)
		if ti < 0 {
			continue
		}
		lo := max(0, ti-m.cfg.MeaningWindow)
		hi := min(len(toks), ti+m.cfg.MeaningWindow+1)
		sense, ok := m.senses.Resolve(toks.words(lo, hi), term.Root)
		if !ok {
			continue
		}
		for _, accepted := range term.Meanings {
			if sense == accepted {
				return true
			}
		}
	}
	return false
}

// findAll returns the start offset of every, possibly overlapping,
// occurrence of sub in s.
func findAll(s, sub string) []int {
	var out []int
	if sub == "" {
		return out
	}
	for from := 0; from <= len(s)-len(sub); {
		i := strings.Index(s[from:], sub)
		if i < 0 {
			break
		}
		out = append(out, from+i)
		from += i + 1
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
