package mapping

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"blemap/internal/config"
	"blemap/internal/corpus"
	"blemap/internal/identifier"
	"blemap/internal/matcher"
)

// TextMatcher matches one text fragment.
type TextMatcher interface {
	Match(text string, mode matcher.Mode) matcher.Result
}

// KnownSet tells known-functionality identifiers apart.
type KnownSet interface {
	IsKnown(id identifier.Identifier) bool
}

// Stats are the counters of an Assigner.
type Stats struct {
	MatcherCalls int64
	MemoHits     int64
	MemoMisses   int64
	Assigned     int64
	Resolved     int64
}

// Assigner drives the matcher over the symbols of every eligible identifier.
// Results are memoised per (identifier, sorted symbol list) for the lifetime
// of the Assigner. A memo entry is always computed by the first application
// in corpus order that needs it, whatever the number of workers.
type Assigner struct {
	matcher    TextMatcher
	known      KnownSet
	symbols    corpus.SymbolSource
	validation bool
	stringMode matcher.Mode
	workers    int
	logger     *slog.Logger

	mu   sync.RWMutex
	memo map[string]Categories

	matcherCalls atomic.Int64
	memoHits     atomic.Int64
	memoMisses   atomic.Int64
	assigned     atomic.Int64
	resolved     atomic.Int64
}

// NewAssigner creates an assigner.
func NewAssigner(m TextMatcher, known KnownSet, symbols corpus.SymbolSource, cfg config.MappingConfig, logger *slog.Logger) *Assigner {
	mode := matcher.Text
	if cfg.StringMode == "identifier" {
		mode = matcher.Identifier
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Assigner{
		matcher:    m,
		known:      known,
		symbols:    symbols,
		validation: cfg.ValidationMode,
		stringMode: mode,
		workers:    workers,
		logger:     logger,
		memo:       map[string]Categories{},
	}
}

// Eligible reports whether id is analysed: descriptors never are; in
// normal mode only unknown-functionality identifiers are, in validation
// mode only known ones.
func (a *Assigner) Eligible(id identifier.Identifier) bool {
	if identifier.IsDescriptor(id) {
		return false
	}
	return a.known.IsKnown(id) == a.validation
}

// Assign maps every application of c, sharing the memo across apps.
// Applications without eligible identifiers are left out of the output.
func (a *Assigner) Assign(ctx context.Context, c *corpus.Corpus) (Output, error) {
	out := Output{}
	var mu sync.Mutex
	claims := a.claimKeys(c)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for _, app := range c.Apps() {
		app := app
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := a.assignApp(ctx, app, claims)
			if err != nil {
				return err
			}
			if len(res) == 0 {
				return nil
			}
			mu.Lock()
			out[app.Key] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	apps, ids, resolved := out.Counts()
	a.logger.Info("Functionality mapping complete",
		"apps", apps,
		"identifiers", ids,
		"resolved", resolved,
		"memoHits", a.memoHits.Load(),
		"memoMisses", a.memoMisses.Load(),
	)
	return out, nil
}

// AssignApp maps a single application without consulting or filling the
// memo.
func (a *Assigner) AssignApp(app *corpus.App) AppOutput {
	res, _ := a.assignApp(context.Background(), app, nil)
	return res
}

// claim records which application computes a memo key. done is closed once
// the entry is stored.
type claim struct {
	owner string
	done  chan struct{}
}

// claimKeys assigns every memo key not yet cached to the first application in
// corpus order that uses it.
func (a *Assigner) claimKeys(c *corpus.Corpus) map[string]*claim {
	claims := map[string]*claim{}
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, app := range c.Apps() {
		for _, id := range app.Identifiers() {
			if !a.Eligible(id) {
				continue
			}
			key := MemoKey(id, sortedSymbols(app, id))
			if _, ok := a.memo[key]; ok {
				continue
			}
			if _, ok := claims[key]; !ok {
				claims[key] = &claim{owner: app.Key, done: make(chan struct{})}
			}
		}
	}
	return claims
}

// assignApp maps one application. A nil claims map bypasses the memo.
func (a *Assigner) assignApp(ctx context.Context, app *corpus.App, claims map[string]*claim) (AppOutput, error) {
	res := AppOutput{}
	for _, id := range app.Identifiers() {
		if !a.Eligible(id) {
			continue
		}
		symbols := sortedSymbols(app, id)

		var cats Categories
		if claims != nil {
			var err error
			if cats, err = a.memoised(ctx, id, app.Key, symbols, claims); err != nil {
				return nil, err
			}
		} else {
			cats = a.analyse(app.Key, symbols)
		}

		as := &Assignment{Components: cats.clone(), Final: cats.Final()}
		a.assigned.Add(1)
		if as.Resolved() {
			a.resolved.Add(1)
		}
		res[id] = as
	}
	if len(res) > 0 {
		a.logger.Debug("Mapped app", "app", app.Key, "identifiers", len(res))
	}
	return res, nil
}

func sortedSymbols(app *corpus.App, id identifier.Identifier) []string {
	symbols := app.Symbols(id)
	sort.Strings(symbols)
	return symbols
}

// MemoKey is the cache key of an identifier and its sorted symbols.
func MemoKey(id identifier.Identifier, sorted []string) string {
	return fmt.Sprintf("%s %q", id, sorted)
}

func (a *Assigner) memoised(ctx context.Context, id identifier.Identifier, appKey string, sorted []string, claims map[string]*claim) (Categories, error) {
	key := MemoKey(id, sorted)

	a.mu.RLock()
	cats, ok := a.memo[key]
	a.mu.RUnlock()
	if ok {
		a.memoHits.Add(1)
		return cats, nil
	}

	c := claims[key]
	if c == nil || c.owner == appKey {
		cats = a.analyse(appKey, sorted)
		a.memoMisses.Add(1)
		a.mu.Lock()
		if prior, ok := a.memo[key]; ok {
			cats = prior
		} else {
			a.memo[key] = cats
		}
		a.mu.Unlock()
		if c != nil {
			close(c.done)
		}
		return cats, nil
	}

	// Owners always precede their waiters in corpus order, so the owner
	// has already been scheduled.
	select {
	case <-c.done:
	case <-ctx.Done():
		return Categories{}, ctx.Err()
	}
	a.mu.RLock()
	cats = a.memo[key]
	a.mu.RUnlock()
	a.memoHits.Add(1)
	return cats, nil
}

// analyse matches every symbol of one identifier: the API name in
// identifier mode, strings in the configured string mode, and fields in
// identifier mode. Each symbol contributes its distinct pairs once.
func (a *Assigner) analyse(appKey string, symbols []string) Categories {
	strs := a.symbols.Strings(appKey)
	fields := a.symbols.Fields(appKey)

	cats := newCategories()
	for _, sym := range symbols {
		cats.API = append(cats.API, a.distinctPairs(APIText(sym), matcher.Identifier)...)
		for _, s := range strs[sym] {
			cats.Strings = append(cats.Strings, a.distinctPairs(s, a.stringMode)...)
		}
		for _, f := range fields[sym] {
			cats.Fields = append(cats.Fields, a.distinctPairs(f, matcher.Identifier)...)
		}
	}

	cats.Combined = make([]string, 0, len(cats.API)+len(cats.Strings)+len(cats.Fields))
	cats.Combined = append(cats.Combined, cats.API...)
	cats.Combined = append(cats.Combined, cats.Strings...)
	cats.Combined = append(cats.Combined, cats.Fields...)
	return cats
}

func (a *Assigner) distinctPairs(text string, mode matcher.Mode) []string {
	a.matcherCalls.Add(1)
	res := a.matcher.Match(text, mode)

	var out []string
	seen := map[string]bool{}
	for _, p := range res.Pairs() {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// APIText reduces a symbol signature such as
// "Lcom/example/Battery;->getLevel()I" to the last class segment followed
// by the method name, "Battery;getLevel". The ';' stays so root words do
// not match across the class and method boundary.
func APIText(symbol string) string {
	class, method, ok := strings.Cut(symbol, "->")
	if !ok {
		name, _, _ := strings.Cut(symbol, "(")
		return name
	}
	method, _, _ = strings.Cut(method, "(")
	if i := strings.LastIndex(class, "/"); i >= 0 {
		class = class[i+1:]
	}
	return class + method
}

// Stats returns a snapshot of the counters.
func (a *Assigner) Stats() Stats {
	return Stats{
		MatcherCalls: a.matcherCalls.Load(),
		MemoHits:     a.memoHits.Load(),
		MemoMisses:   a.memoMisses.Load(),
		Assigned:     a.assigned.Load(),
		Resolved:     a.resolved.Load(),
	}
}

// MemoSize is the number of cached (identifier, symbols) results.
func (a *Assigner) MemoSize() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.memo)
}
