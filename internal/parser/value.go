package parser

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind enumerates the closed set of shapes a front-matter value can take.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

// Number keeps the int/float distinction so values re-serialize the way
// they were written.
type Number struct {
	Int   int64
	Float float64
	IsInt bool
}

// Value is a tagged variant covering every front-matter shape. Header
// blocks have no fixed schema, so all downstream code works in terms of
// this type rather than assuming concrete Go types.
type Value struct {
	Kind Kind
	Bool bool
	Num  Number
	Str  string
	Seq  []Value
	Map  []Field
}

// Field is one key/value pair of a mapping, in document order.
type Field struct {
	Key   string
	Value Value
}

// IsScalar reports whether the value is a leaf (not a sequence or mapping).
func (v Value) IsScalar() bool {
	return v.Kind != KindSequence && v.Kind != KindMapping
}

// ScalarString renders a scalar value as display text.
func (v Value) ScalarString() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindNumber:
		if v.Num.IsInt {
			return strconv.FormatInt(v.Num.Int, 10)
		}
		return strconv.FormatFloat(v.Num.Float, 'g', -1, 64)
	default:
		return v.Str
	}
}

// ParseHeader decodes a front-matter block into ordered fields. Go maps do
// not preserve key order, so the block is walked as a yaml.Node tree.
// Malformed YAML or a non-mapping document degrades to no fields.
func ParseHeader(header string) []Field {
	if strings.TrimSpace(header) == "" {
		return nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(header), &doc); err != nil {
		return nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil
	}
	return mappingFields(root)
}

func mappingFields(n *yaml.Node) []Field {
	fields := make([]Field, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		fields = append(fields, Field{
			Key:   n.Content[i].Value,
			Value: valueFromNode(n.Content[i+1]),
		})
	}
	return fields
}

func valueFromNode(n *yaml.Node) Value {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		return valueFromNode(n.Alias)
	}
	switch n.Kind {
	case yaml.SequenceNode:
		seq := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			seq = append(seq, valueFromNode(c))
		}
		return Value{Kind: KindSequence, Seq: seq}
	case yaml.MappingNode:
		return Value{Kind: KindMapping, Map: mappingFields(n)}
	case yaml.ScalarNode:
		return scalarFromNode(n)
	default:
		return Value{Kind: KindNull}
	}
}

func scalarFromNode(n *yaml.Node) Value {
	switch n.Tag {
	case "!!null":
		return Value{Kind: KindNull}
	case "!!bool":
		b, err := strconv.ParseBool(strings.ToLower(n.Value))
		if err != nil {
			return Value{Kind: KindString, Str: n.Value}
		}
		return Value{Kind: KindBool, Bool: b}
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return Value{Kind: KindString, Str: n.Value}
		}
		return Value{Kind: KindNumber, Num: Number{Int: i, IsInt: true}}
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return Value{Kind: KindString, Str: n.Value}
		}
		return Value{Kind: KindNumber, Num: Number{Float: f}}
	default:
		// Timestamps and everything else stay as written; property
		// sniffing decides what they mean.
		return Value{Kind: KindString, Str: n.Value}
	}
}

// FieldByKey returns the first field whose key matches case-insensitively.
func FieldByKey(fields []Field, key string) (Value, bool) {
	for _, f := range fields {
		if strings.EqualFold(f.Key, key) {
			return f.Value, true
		}
	}
	return Value{}, false
}
