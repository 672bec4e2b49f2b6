// Package stats computes population statistics over a corpus by driving the
// classifier over every identifier and application.
package stats

import (
	"sort"

	"blemap/internal/classify"
	"blemap/internal/corpus"
	"blemap/internal/identifier"
)

// Mix describes how an application's identifiers split between known and
// unknown functionality.
type Mix string

const (
	MixEmpty  Mix = "empty"
	MixAllKFU Mix = "all-kfu"
	MixAllUFU Mix = "all-ufu"
	MixMixed  Mix = "mixed"
)

// Group is a named set of applications.
type Group struct {
	Name string
	Apps []string
}

// Report is the outcome of one aggregation. Snapshots are deep copies taken
// when an application qualified; later corpus changes do not reach them.
type Report struct {
	Apps                int
	AppsWithIdentifiers int

	Identifiers int
	KFU         []identifier.Identifier
	UFU         []identifier.Identifier

	AppMix map[string]Mix

	AppsWithStandard   []*corpus.App
	AppsWithMeaningful []*corpus.App
	OnlyStandard       []*corpus.App
	OnlyCore           []string
	IncludesMeaningful []string

	Services []Group

	MisusedIdentifiers []identifier.Identifier
	MisusingApps       []string

	DFUChipsets []Group
	DFUApps     []string
}

// MixCount is the number of applications with mix m.
func (r *Report) MixCount(m Mix) int {
	n := 0
	for _, v := range r.AppMix {
		if v == m {
			n++
		}
	}
	return n
}

// Aggregator computes a Report.
type Aggregator struct {
	cls         *classify.Classifier
	dfuCategory string
}

// NewAggregator creates an aggregator. dfuCategory names the category of the
// known-functionality table whose children are chipset vendors.
func NewAggregator(cls *classify.Classifier, dfuCategory string) *Aggregator {
	return &Aggregator{cls: cls, dfuCategory: dfuCategory}
}

// Aggregate runs every statistic over c.
func (a *Aggregator) Aggregate(c *corpus.Corpus) *Report {
	r := &Report{
		Apps:   c.Len(),
		AppMix: map[string]Mix{},
	}

	ids := c.Identifiers()
	r.Identifiers = len(ids)
	for _, id := range ids {
		if a.cls.IsKnown(id) {
			r.KFU = append(r.KFU, id)
		} else {
			r.UFU = append(r.UFU, id)
		}
		if a.cls.IsReservedRangeMisused(id) {
			r.MisusedIdentifiers = append(r.MisusedIdentifiers, id)
		}
	}

	for _, app := range c.Apps() {
		a.app(r, app)
	}

	r.Services = a.services(c)
	r.DFUChipsets, r.DFUApps = a.dfu(c)
	return r
}

func (a *Aggregator) app(r *Report, app *corpus.App) {
	if app.Empty() {
		r.AppMix[app.Key] = MixEmpty
		return
	}
	r.AppsWithIdentifiers++

	var kfu, ufu, standard, meaningful, misused int
	ids := app.Identifiers()
	for _, id := range ids {
		if a.cls.IsKnown(id) {
			kfu++
		} else {
			ufu++
		}
		if a.cls.IsStandardized(id) {
			standard++
			if a.cls.IsStandardizedExcludingCoreServices(id) {
				meaningful++
			}
		}
		if a.cls.IsReservedRangeMisused(id) {
			misused++
		}
	}

	switch {
	case kfu > 0 && ufu > 0:
		r.AppMix[app.Key] = MixMixed
	case kfu > 0:
		r.AppMix[app.Key] = MixAllKFU
	default:
		r.AppMix[app.Key] = MixAllUFU
	}

	if standard > 0 {
		r.AppsWithStandard = append(r.AppsWithStandard, app.Clone())
	}
	if meaningful > 0 {
		r.AppsWithMeaningful = append(r.AppsWithMeaningful, app.Clone())
	}
	if standard == len(ids) {
		r.OnlyStandard = append(r.OnlyStandard, app.Clone())
		if meaningful == 0 {
			r.OnlyCore = append(r.OnlyCore, app.Key)
		} else {
			r.IncludesMeaningful = append(r.IncludesMeaningful, app.Key)
		}
	}
	if misused > 0 {
		r.MisusingApps = append(r.MisusingApps, app.Key)
	}
}

// services lists, for every adopted service, the applications using at
// least one of its identifiers. Services nobody uses are included.
func (a *Aggregator) services(c *corpus.Corpus) []Group {
	reg := a.cls.Registry()
	byService := map[string]map[string]bool{}
	for _, id := range c.Identifiers() {
		service, ok := a.cls.Service(id)
		if !ok {
			continue
		}
		u, _ := c.Usage(id)
		if byService[service] == nil {
			byService[service] = map[string]bool{}
		}
		for _, app := range u.Apps() {
			byService[service][app] = true
		}
	}

	groups := make([]Group, 0, len(reg.Services()))
	for _, service := range reg.Services() {
		groups = append(groups, Group{Name: service, Apps: sortedKeys(byService[service])})
	}
	return groups
}

// dfu groups applications by chipset vendor. Identifiers listed in the table
// but absent from the corpus are skipped.
func (a *Aggregator) dfu(c *corpus.Corpus) ([]Group, []string) {
	node, ok := a.cls.Registry().Known().Category(a.dfuCategory)
	if !ok {
		return nil, nil
	}

	chipsets := map[string][]identifier.Identifier{}
	var names []string
	if node.IsLeaf() {
		names = []string{a.dfuCategory}
		chipsets[a.dfuCategory] = node.Identifiers
	} else {
		names = node.Names()
		for _, name := range names {
			chipsets[name] = node.Children[name].All()
		}
	}

	union := map[string]bool{}
	groups := make([]Group, 0, len(names))
	for _, name := range names {
		apps := map[string]bool{}
		for _, id := range chipsets[name] {
			u, ok := c.Usage(id)
			if !ok {
				continue
			}
			for _, app := range u.Apps() {
				apps[app] = true
				union[app] = true
			}
		}
		groups = append(groups, Group{Name: name, Apps: sortedKeys(apps)})
	}
	return groups, sortedKeys(union)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
