// Package corpus builds the per-application and per-identifier views of
// the extraction input.
package corpus

import (
	"sort"
	"strings"

	"blemap/internal/identifier"
)

// RawApp is one application record as written by the extractor.
type RawApp struct {
	Package     string                   `json:"pkg"`
	Identifiers map[string]RawIdentifier `json:"uuids"`
}

// RawIdentifier lists the symbols observed for one identifier.
type RawIdentifier struct {
	Methods []string `json:"methods"`
}

// Raw is a whole extractor output file keyed by application identity.
type Raw map[string]RawApp

// App is the per-application record: package name plus the unique symbols
// seen for each identifier.
type App struct {
	Key     string
	Package string

	ids     []identifier.Identifier
	symbols map[identifier.Identifier][]string
	seen    map[identifier.Identifier]map[string]bool
}

func newApp(key, pkg string) *App {
	return &App{
		Key:     key,
		Package: pkg,
		symbols: map[identifier.Identifier][]string{},
		seen:    map[identifier.Identifier]map[string]bool{},
	}
}

// Identifiers returns the identifiers of the app in first-seen order.
func (a *App) Identifiers() []identifier.Identifier {
	return append([]identifier.Identifier(nil), a.ids...)
}

// Symbols returns the unique symbols of id in first-seen order.
func (a *App) Symbols(id identifier.Identifier) []string {
	return append([]string(nil), a.symbols[id]...)
}

// Has reports whether the app uses id.
func (a *App) Has(id identifier.Identifier) bool {
	_, ok := a.symbols[id]
	return ok
}

// Empty reports whether the app has no identifiers.
func (a *App) Empty() bool {
	return len(a.ids) == 0
}

// Label is the "package KEY" form used in per-identifier symbol listings.
func (a *App) Label() string {
	return a.Package + " " + a.Key
}

// add records symbols for id and returns those that were new. Symbols are
// compared case-insensitively; the first spelling wins.
func (a *App) add(id identifier.Identifier, symbols []string) []string {
	if _, ok := a.symbols[id]; !ok {
		a.ids = append(a.ids, id)
		a.symbols[id] = []string{}
		a.seen[id] = map[string]bool{}
	}
	var added []string
	for _, s := range symbols {
		k := strings.ToLower(s)
		if a.seen[id][k] {
			continue
		}
		a.seen[id][k] = true
		a.symbols[id] = append(a.symbols[id], s)
		added = append(added, s)
	}
	return added
}

// Clone returns a deep copy. Later changes to the corpus never reach a
// clone.
func (a *App) Clone() *App {
	c := newApp(a.Key, a.Package)
	for _, id := range a.ids {
		c.add(id, a.symbols[id])
	}
	return c
}

// Usage is the per-identifier inverse index.
type Usage struct {
	ID identifier.Identifier

	apps    []string
	hasApp  map[string]bool
	symbols map[string][]string
}

func newUsage(id identifier.Identifier) *Usage {
	return &Usage{ID: id, hasApp: map[string]bool{}, symbols: map[string][]string{}}
}

// Apps returns the keys of the applications using the identifier.
func (u *Usage) Apps() []string {
	return append([]string(nil), u.apps...)
}

// AppCount is the number of applications using the identifier.
func (u *Usage) AppCount() int {
	return len(u.apps)
}

// SymbolApps returns the "package KEY" labels of every application that
// observed symbol with this identifier.
func (u *Usage) SymbolApps(symbol string) []string {
	return append([]string(nil), u.symbols[symbol]...)
}

// Symbols returns every symbol observed with the identifier, sorted.
func (u *Usage) Symbols() []string {
	out := make([]string, 0, len(u.symbols))
	for s := range u.symbols {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Corpus holds every application and the inverse identifier index.
type Corpus struct {
	apps     map[string]*App
	appOrder []string
	usage    map[identifier.Identifier]*Usage
	idOrder  []identifier.Identifier

	skipped int
	digest  string
}

// New returns an empty corpus.
func New() *Corpus {
	return &Corpus{
		apps:  map[string]*App{},
		usage: map[identifier.Identifier]*Usage{},
	}
}

// Add merges one raw application record. Keys are upper-cased so records
// differing only by case merge; the first non-empty package name is kept.
// The "no characteristic" sentinel and unparseable identifiers are dropped.
func (c *Corpus) Add(key string, raw RawApp) {
	key = strings.ToUpper(strings.TrimSpace(key))
	app, ok := c.apps[key]
	if !ok {
		app = newApp(key, raw.Package)
		c.apps[key] = app
		c.appOrder = append(c.appOrder, key)
	} else if app.Package == "" {
		app.Package = raw.Package
	}

	rawIDs := make([]string, 0, len(raw.Identifiers))
	for s := range raw.Identifiers {
		rawIDs = append(rawIDs, s)
	}
	sort.Strings(rawIDs)

	for _, s := range rawIDs {
		id, err := identifier.Parse(s)
		if err != nil {
			c.skipped++
			continue
		}
		if id.IsNone() {
			continue
		}
		symbols := raw.Identifiers[s].Methods
		app.add(id, symbols)

		u, ok := c.usage[id]
		if !ok {
			u = newUsage(id)
			c.usage[id] = u
			c.idOrder = append(c.idOrder, id)
		}
		if !u.hasApp[key] {
			u.hasApp[key] = true
			u.apps = append(u.apps, key)
		}
		for _, sym := range symbols {
			if !contains(u.symbols[sym], app.Label()) {
				u.symbols[sym] = append(u.symbols[sym], app.Label())
			}
		}
	}
}

// AddRaw merges a whole extractor file, visiting apps in sorted key order.
func (c *Corpus) AddRaw(raw Raw) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.Add(k, raw[k])
	}
}

// Apps returns every application in insertion order.
func (c *Corpus) Apps() []*App {
	out := make([]*App, 0, len(c.appOrder))
	for _, k := range c.appOrder {
		out = append(out, c.apps[k])
	}
	return out
}

// App looks up an application by key (case-insensitive).
func (c *Corpus) App(key string) (*App, bool) {
	a, ok := c.apps[strings.ToUpper(strings.TrimSpace(key))]
	return a, ok
}

// Identifiers returns every distinct identifier in first-seen order.
func (c *Corpus) Identifiers() []identifier.Identifier {
	return append([]identifier.Identifier(nil), c.idOrder...)
}

// Usage returns the inverse index entry of id.
func (c *Corpus) Usage(id identifier.Identifier) (*Usage, bool) {
	u, ok := c.usage[id]
	return u, ok
}

// Len is the number of applications.
func (c *Corpus) Len() int {
	return len(c.appOrder)
}

// Skipped is the number of identifier strings that could not be parsed.
func (c *Corpus) Skipped() int {
	return c.skipped
}

// Digest is the hex BLAKE2b-256 of the loaded input files, or empty when
// the corpus was built in memory.
func (c *Corpus) Digest() string {
	return c.digest
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
