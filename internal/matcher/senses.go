package matcher

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"blemap/internal/errors"
)

// SenseResolver picks the sense of word given the surrounding tokens.
// Implementations must be safe for concurrent use.
type SenseResolver interface {
	Resolve(context []string, word string) (sense string, ok bool)
}

// Sense is one dictionary sense of a word.
type Sense struct {
	Name  string `yaml:"sense"`
	Gloss string `yaml:"gloss"`
}

// GlossResolver is a simplified Lesk: the sense whose gloss shares the most
// distinct words with the context wins; ties go to the earlier sense.
type GlossResolver struct {
	senses map[string][]Sense
	glossW map[string][]map[string]bool
}

// NewGlossResolver builds a resolver from per-word sense lists.
func NewGlossResolver(senses map[string][]Sense) *GlossResolver {
	g := &GlossResolver{
		senses: make(map[string][]Sense, len(senses)),
		glossW: make(map[string][]map[string]bool, len(senses)),
	}
	for word, list := range senses {
		word = strings.ToLower(word)
		g.senses[word] = list
		sets := make([]map[string]bool, len(list))
		for i, s := range list {
			sets[i] = map[string]bool{}
			for _, tok := range tokenize(lower(s.Gloss)) {
				sets[i][strings.Trim(tok.word, ",;:()\"'")] = true
			}
		}
		g.glossW[word] = sets
	}
	return g
}

// LoadGlosses reads a YAML gloss file of the form
//
//	battery:
//	  - sense: battery.n.02
//	    gloss: a device that produces electricity
func LoadGlosses(path string) (*GlossResolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.ReferenceMissing, "cannot open sense glosses "+path, err)
	}
	var doc map[string][]Sense
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.New(errors.ReferenceInvalid, "cannot decode sense glosses "+path, err)
	}
	for word, list := range doc {
		for i, s := range list {
			if s.Name == "" {
				return nil, errors.New(errors.ReferenceInvalid,
					fmt.Sprintf("sense %d of %q has no name", i, word), nil)
			}
		}
	}
	return NewGlossResolver(doc), nil
}

// Resolve implements SenseResolver.
func (g *GlossResolver) Resolve(context []string, word string) (string, bool) {
	list := g.senses[word]
	if len(list) == 0 {
		return "", false
	}
	sets := g.glossW[word]

	best, bestScore := 0, -1
	for i := range list {
		score := 0
		seen := map[string]bool{}
		for _, c := range context {
			if c == word || seen[c] {
				continue
			}
			seen[c] = true
			if sets[i][c] {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return list[best].Name, true
}

// Words is the number of words with at least one sense.
func (g *GlossResolver) Words() int {
	return len(g.senses)
}
