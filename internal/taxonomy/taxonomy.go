// Package taxonomy holds the keyword category database: category →
// subcategory → root word → {blacklist, meaning, children}.
//
// The database is loaded once and never mutated. Iteration order is the
// order of the source document (JSON/YAML) or sorted key order (TOML).
package taxonomy

// Term is one root word of the database together with its context.
type Term struct {
	Category    string
	Subcategory string
	Root        string

	// Blacklist terms whose nearby presence invalidates a root occurrence.
	Blacklist []string
	// Meanings is the set of accepted senses; empty accepts any sense.
	Meanings []string
	// Children are compound-phrase extensions of Root, in document order.
	Children []Child
}

// Child is a compound-phrase word below a root (or below another child).
type Child struct {
	Word     string
	Children []Child
}

// Pair returns the "category:subcategory" label of the term.
func (t *Term) Pair() string {
	return t.Category + ":" + t.Subcategory
}

// HasChildren reports whether the term composes phrases.
func (t *Term) HasChildren() bool {
	return len(t.Children) > 0
}

// Phrases returns the word sequences composed from the root and its
// children. A child with its own children yields one three-word phrase per
// grandchild and no two-word phrase; a childless child yields a two-word
// phrase. Deeper levels are ignored.
func (t *Term) Phrases() [][]string {
	var out [][]string
	for _, c := range t.Children {
		if len(c.Children) == 0 {
			out = append(out, []string{t.Root, c.Word})
			continue
		}
		for _, g := range c.Children {
			out = append(out, []string{t.Root, c.Word, g.Word})
		}
	}
	return out
}

// Database is the immutable, ordered category database.
type Database struct {
	terms []Term
}

// New builds a database from terms in iteration order.
func New(terms []Term) *Database {
	return &Database{terms: terms}
}

// Terms returns every term in iteration order. Callers must not modify the
// returned slice.
func (d *Database) Terms() []Term {
	return d.terms
}

// Len is the number of root words.
func (d *Database) Len() int {
	return len(d.terms)
}

// Categories returns distinct category names in iteration order.
func (d *Database) Categories() []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range d.terms {
		if !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	return out
}

// Pairs returns distinct "category:subcategory" labels in iteration order.
func (d *Database) Pairs() []string {
	var out []string
	seen := map[string]bool{}
	for i := range d.terms {
		p := d.terms[i].Pair()
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
