package weights

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// SectionKey is the top-level config key holding the weight mapping.
const SectionKey = "topic_weights"

// Entry is one raw (pattern, value) pair in declared order, before validation.
type Entry struct {
	Pattern string
	Value   any
}

// Load reads a weight config file and normalises it.
// Files ending in .cue are parsed as CUE; everything else as YAML.
//
// A missing or unparsable file is an error. Invalid entries are not:
// they are dropped and logged (see Normalize).
func Load(path string, logger *slog.Logger) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read weights config: %w", err)
	}

	var entries []Entry
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		entries, err = ParseCUE(data, path)
	} else {
		entries, err = ParseYAML(data)
	}
	if err != nil {
		return Rules{}, fmt.Errorf("failed to parse weights config %s: %w", path, err)
	}

	rules := Normalize(entries, logger)
	logger = orDefault(logger)
	logger.Info("weights loaded", "path", path, "rules", rules.Len(), "default", rules.Default())
	return rules, nil
}

// ParseYAML extracts the topic_weights mapping from a YAML document,
// preserving declared order. A document without the section yields no entries.
func ParseYAML(data []byte) ([]Entry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping at top level, got %s", kindName(root.Kind))
	}

	section := lookupYAML(root, SectionKey)
	if section == nil || section.Tag == "!!null" {
		return nil, nil
	}
	if section.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s must be a mapping, got %s", SectionKey, kindName(section.Kind))
	}

	entries := make([]Entry, 0, len(section.Content)/2)
	for i := 0; i+1 < len(section.Content); i += 2 {
		key, val := section.Content[i], section.Content[i+1]
		entries = append(entries, Entry{Pattern: key.Value, Value: yamlScalar(val)})
	}
	return entries, nil
}

func lookupYAML(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// yamlScalar converts a node to a Go value for Normalize.
// Non-scalar nodes are returned as the node itself and later rejected.
func yamlScalar(n *yaml.Node) any {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.ScalarNode {
		return n
	}
	switch n.Tag {
	case "!!null":
		return nil
	case "!!bool":
		b, _ := strconv.ParseBool(n.Value)
		return b
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return n.Value
		}
		return f
	default:
		return n.Value
	}
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}

// ParseCUE extracts the topic_weights struct from a CUE document,
// preserving field order.
func ParseCUE(data []byte, filename string) ([]Entry, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, err
	}

	section := value.LookupPath(cue.ParsePath(SectionKey))
	if !section.Exists() {
		return nil, nil
	}

	iter, err := section.Fields()
	if err != nil {
		return nil, fmt.Errorf("%s must be a struct: %w", SectionKey, err)
	}

	var entries []Entry
	for iter.Next() {
		entries = append(entries, Entry{
			Pattern: iter.Selector().Unquoted(),
			Value:   cueScalar(iter.Value()),
		})
	}
	return entries, nil
}

func cueScalar(v cue.Value) any {
	switch v.Kind() {
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return v
		}
		return f
	case cue.StringKind:
		s, _ := v.String()
		return s
	case cue.BoolKind:
		b, _ := v.Bool()
		return b
	case cue.NullKind:
		return nil
	}
	return v
}

// Normalize validates raw entries into a rule set.
//
// Numbers and numeric strings are accepted as weights. Anything else
// (booleans, null, text, nested values), non-finite or negative numbers,
// and patterns that do not compile are dropped with a warning. The
// "default" key sets the fallback weight instead of adding a rule; when
// absent or invalid the fallback is DefaultWeight.
func Normalize(entries []Entry, logger *slog.Logger) Rules {
	logger = orDefault(logger)

	def := DefaultWeight
	var rules []Rule
	for _, e := range entries {
		w, ok := toWeight(e.Value)
		if !ok {
			logger.Warn("skipping invalid weight", "pattern", e.Pattern, "value", fmt.Sprintf("%v", e.Value))
			continue
		}

		if e.Pattern == DefaultKey {
			r, err := NewRule(".*", w)
			if err != nil {
				logger.Warn("skipping invalid default weight", "value", w, "error", err)
				continue
			}
			def = r.Weight
			continue
		}

		r, err := NewRule(e.Pattern, w)
		if err != nil {
			logger.Warn("skipping invalid weight rule", "pattern", e.Pattern, "error", err)
			continue
		}
		rules = append(rules, r)
	}

	return New(def, rules...)
}

func toWeight(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
