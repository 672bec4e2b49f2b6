package taxonomy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"blemap/internal/errors"
)

// Format is the encoding of a category database file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from the file extension. Unknown
// extensions are read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads and validates the category database at path.
func Load(path string, logger *slog.Logger) (*Database, error) {
	logger.Info("Initialising category database", "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.ReferenceMissing, "cannot open category database "+path, err)
	}
	db, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, err
	}
	logger.Debug("Category database loaded",
		"categories", len(db.Categories()),
		"pairs", len(db.Pairs()),
		"roots", db.Len(),
	)
	return db, nil
}

// Parse decodes a category database. JSON and YAML keep document order;
// TOML tables are visited in sorted key order.
func Parse(data []byte, format Format) (*Database, error) {
	root, err := decodeNode(data, format)
	if err != nil {
		return nil, errors.New(errors.TaxonomyInvalid, "cannot decode category database", err)
	}
	if problems, err := validate(root); err != nil {
		return nil, errors.New(errors.TaxonomyInvalid, "cannot validate category database", err)
	} else if len(problems) > 0 {
		return nil, errors.New(errors.TaxonomyInvalid,
			"category database has inconsistent nesting: "+problems[0], nil).WithDetails(problems)
	}

	b := builder{lower: cases.Lower(language.Und)}
	return New(b.terms(root)), nil
}

func decodeNode(data []byte, format Format) (*yaml.Node, error) {
	var node yaml.Node
	switch format {
	case FormatJSON:
		return decodeJSONNode(data)
	case FormatTOML:
		var doc map[string]interface{}
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		if err := node.Encode(doc); err != nil {
			return nil, err
		}
		return &node, nil
	}

	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, fmt.Errorf("empty document")
		}
		return node.Content[0], nil
	}
	if node.Kind == 0 {
		return nil, fmt.Errorf("empty document")
	}
	return &node, nil
}

// decodeJSONNode builds a node tree from the JSON token stream so that
// object key order survives and every JSON escape is honoured.
func decodeJSONNode(data []byte) (*yaml.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	node, err := jsonValue(dec)
	if err == io.EOF {
		return nil, fmt.Errorf("empty document")
	}
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return node, nil
}

func jsonValue(dec *json.Decoder) (*yaml.Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case json.Delim:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		if v == '{' {
			n = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		}
		for dec.More() {
			if n.Kind == yaml.MappingNode {
				key, err := dec.Token()
				if err != nil {
					return nil, truncated(err)
				}
				n.Content = append(n.Content, scalarNode("!!str", key.(string)))
			}
			child, err := jsonValue(dec)
			if err != nil {
				return nil, truncated(err)
			}
			n.Content = append(n.Content, child)
		}
		if _, err := dec.Token(); err != nil {
			return nil, truncated(err)
		}
		return n, nil
	case string:
		return scalarNode("!!str", v), nil
	case json.Number:
		if strings.ContainsAny(string(v), ".eE") {
			return scalarNode("!!float", string(v)), nil
		}
		return scalarNode("!!int", string(v)), nil
	case bool:
		return scalarNode("!!bool", strconv.FormatBool(v)), nil
	default:
		return scalarNode("!!null", "null"), nil
	}
}

func truncated(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func validate(root *yaml.Node) ([]string, error) {
	var generic interface{}
	if err := root.Decode(&generic); err != nil {
		return nil, err
	}
	doc, err := json.Marshal(generic)
	if err != nil {
		return nil, err
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(Schema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return nil, err
	}
	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return problems, nil
}

type builder struct {
	lower cases.Caser
}

func (b builder) terms(root *yaml.Node) []Term {
	var out []Term
	eachPair(root, func(category string, catNode *yaml.Node) {
		eachPair(catNode, func(sub string, subNode *yaml.Node) {
			eachPair(subNode, func(word string, wordNode *yaml.Node) {
				t := Term{Category: category, Subcategory: sub, Root: b.lower.String(word)}
				eachPair(wordNode, func(key string, v *yaml.Node) {
					switch key {
					case "blacklist":
						t.Blacklist = b.words(v)
					case "meaning":
						t.Meanings = scalars(v)
					case "children":
						t.Children = b.children(v)
					}
				})
				out = append(out, t)
			})
		})
	})
	return out
}

func (b builder) children(n *yaml.Node) []Child {
	var out []Child
	eachPair(n, func(word string, v *yaml.Node) {
		c := Child{Word: b.lower.String(word)}
		eachPair(v, func(key string, gv *yaml.Node) {
			if key == "children" {
				c.Children = b.children(gv)
			}
		})
		out = append(out, c)
	})
	return out
}

func (b builder) words(n *yaml.Node) []string {
	vals := scalars(n)
	for i, v := range vals {
		vals[i] = b.lower.String(v)
	}
	return vals
}

// eachPair visits the key/value pairs of a mapping node in order. Other
// node kinds are ignored.
func eachPair(n *yaml.Node, fn func(key string, value *yaml.Node)) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		fn(n.Content[i].Value, resolve(n.Content[i+1]))
	}
}

func scalars(n *yaml.Node) []string {
	n = resolve(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]string, 0, len(n.Content))
	for _, c := range n.Content {
		if c = resolve(c); c.Kind == yaml.ScalarNode {
			out = append(out, c.Value)
		}
	}
	return out
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}
