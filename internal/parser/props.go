package parser

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sorenblk/quarry/internal/models"
)

// reservedKeys are note identity fields; they are indexed like any other
// property but excluded from generic property listings.
var reservedKeys = map[string]struct{}{
	"id": {}, "title": {}, "created": {}, "updated": {}, "tags": {},
}

// ReservedPropertyKey reports whether key is a note identity field.
func ReservedPropertyKey(key string) bool {
	_, ok := reservedKeys[strings.ToLower(key)]
	return ok
}

// ExtractProperties flattens header fields into typed property rows.
// Ordinal preserves document order so rendering back keeps the header
// stable. The mapping is total over the Value variants: every field gets
// exactly one row.
func ExtractProperties(noteID string, fields []Field) []models.Property {
	props := make([]models.Property, 0, len(fields))
	for i, f := range fields {
		p := propertyFromValue(f.Key, f.Value)
		p.NoteID = noteID
		p.Ordinal = i
		props = append(props, p)
	}
	return props
}

func propertyFromValue(key string, v Value) models.Property {
	switch v.Kind {
	case KindBool:
		return prop(key, models.PropCheckbox, strconv.FormatBool(v.Bool), jsonText(v.Bool))
	case KindNumber:
		if v.Num.IsInt {
			return prop(key, models.PropNumber, strconv.FormatInt(v.Num.Int, 10), jsonText(v.Num.Int))
		}
		return prop(key, models.PropNumber, v.ScalarString(), floatText(v.Num.Float))
	case KindSequence:
		if scalarSequence(v.Seq) {
			return scalarListProperty(key, v.Seq)
		}
		return yamlProperty(key, v)
	case KindMapping:
		return yamlProperty(key, v)
	case KindNull:
		return prop(key, models.PropText, "", "null")
	default:
		return sniffStringProperty(key, v.Str)
	}
}

func scalarSequence(seq []Value) bool {
	for _, item := range seq {
		if !item.IsScalar() {
			return false
		}
	}
	return true
}

func scalarListProperty(key string, seq []Value) models.Property {
	kind := models.PropList
	if strings.EqualFold(key, "tags") {
		kind = models.PropTags
	}
	texts := make([]string, 0, len(seq))
	raw := make([]any, 0, len(seq))
	for _, item := range seq {
		texts = append(texts, item.ScalarString())
		raw = append(raw, scalarAny(item))
	}
	return prop(key, kind, strings.Join(texts, ", "), jsonText(raw))
}

func scalarAny(v Value) any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindNumber:
		if v.Num.IsInt {
			return v.Num.Int
		}
		return json.Number(floatText(v.Num.Float))
	default:
		return v.Str
	}
}

// yamlProperty re-serializes a nested value verbatim instead of
// decomposing it, so it round-trips through the index untouched.
func yamlProperty(key string, v Value) models.Property {
	text, err := yaml.Marshal(yamlNode(v))
	if err != nil {
		return prop(key, models.PropYAML, "", jsonText(""))
	}
	s := strings.TrimRight(string(text), "\n")
	return prop(key, models.PropYAML, s, jsonText(s))
}

// sniffStringProperty types a free-form string by shape: URLs, exact
// calendar dates, strict ISO-8601 timestamps, else plain text.
func sniffStringProperty(key, s string) models.Property {
	switch {
	case strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://"):
		return prop(key, models.PropURL, s, jsonText(s))
	case ValidDate(s):
		return prop(key, models.PropDate, s, jsonText(s))
	case ValidDatetime(s):
		return prop(key, models.PropDatetime, s, jsonText(s))
	default:
		return prop(key, models.PropText, s, jsonText(s))
	}
}

func prop(key, valueType, text, raw string) models.Property {
	return models.Property{Key: key, ValueType: valueType, ValueText: text, ValueJSON: raw}
}

// floatText renders a float with an explicit fraction or exponent, so an
// integral float like 2.0 stays distinguishable from the int 2 after a
// round trip through the index.
func floatText(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func jsonText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `""`
	}
	return string(b)
}

// RenderProperties reverses ExtractProperties: each typed row becomes a
// header field again, in ordinal order, serialized as a YAML block without
// the fences. A header rendered this way re-parses to the same typed
// values.
func RenderProperties(props []models.Property) (string, error) {
	sorted := append([]models.Property(nil), props...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Ordinal < sorted[j].Ordinal })

	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range sorted {
		valNode, err := nodeFromProperty(p)
		if err != nil {
			return "", fmt.Errorf("parser: render property %q: %w", p.Key, err)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: p.Key},
			valNode,
		)
	}
	out, err := yaml.Marshal(root)
	if err != nil {
		return "", fmt.Errorf("parser: render properties: %w", err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}

func nodeFromProperty(p models.Property) (*yaml.Node, error) {
	switch p.ValueType {
	case models.PropCheckbox:
		var b bool
		if err := json.Unmarshal([]byte(p.ValueJSON), &b); err != nil {
			return nil, err
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}, nil
	case models.PropNumber:
		return numberNode(p.ValueJSON)
	case models.PropList, models.PropTags:
		var items []any
		dec := json.NewDecoder(strings.NewReader(p.ValueJSON))
		dec.UseNumber()
		if err := dec.Decode(&items); err != nil {
			return nil, err
		}
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range items {
			n, err := scalarNode(item)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil
	case models.PropYAML:
		// Stored text re-parses to the original nested structure.
		var doc yaml.Node
		if err := yaml.Unmarshal([]byte(p.ValueText), &doc); err != nil {
			return nil, err
		}
		if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
			return doc.Content[0], nil
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: ""}, nil
	default:
		var s string
		if err := json.Unmarshal([]byte(p.ValueJSON), &s); err != nil {
			// Null-valued text properties store "null".
			if p.ValueJSON == "null" {
				return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: ""}, nil
			}
			return nil, err
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}, nil
	}
}

func numberNode(raw string) (*yaml.Node, error) {
	if !strings.ContainsAny(raw, ".eE") {
		if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: raw}, nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: floatText(f)}, nil
}

func scalarNode(item any) (*yaml.Node, error) {
	switch v := item.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: ""}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}, nil
	case json.Number:
		return numberNode(v.String())
	case float64:
		if v == float64(int64(v)) {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(int64(v), 10)}, nil
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(v, 'g', -1, 64)}, nil
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}, nil
	default:
		return nil, fmt.Errorf("unsupported list item %T", item)
	}
}

// yamlNode converts a Value back into a yaml.Node tree.
func yamlNode(v Value) *yaml.Node {
	switch v.Kind {
	case KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: ""}
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.Bool)}
	case KindNumber:
		if v.Num.IsInt {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v.Num.Int, 10)}
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: floatText(v.Num.Float)}
	case KindSequence:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range v.Seq {
			n.Content = append(n.Content, yamlNode(item))
		}
		return n
	case KindMapping:
		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, f := range v.Map {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: f.Key},
				yamlNode(f.Value),
			)
		}
		return n
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Str}
	}
}
