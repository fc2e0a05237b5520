package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// From converts plain Go values into a Value. Maps are converted with
// their keys sorted since Go maps carry no order; unsupported types are
// rendered with fmt.
func From(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case *Dictionary:
		return Dict(x)
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case float32:
		return Double(float64(x))
	case float64:
		return Double(x)
	case string:
		return String(x)
	case []Value:
		return Array(x...)
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = From(item)
		}
		return Array(items...)
	case []string:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = String(item)
		}
		return Array(items...)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := NewDictionary()
		for _, k := range keys {
			d.Set(k, From(x[k]))
		}
		return Dict(d)
	case map[string]string:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := NewDictionary()
		for _, k := range keys {
			d.Set(k, String(x[k]))
		}
		return Dict(d)
	default:
		return String(fmt.Sprintf("%v", v))
	}
}

// FromJSON parses a JSON document. Object keys keep their order and
// numbers without a fraction or exponent become ints.
func FromJSON(data []byte) (Value, error) {
	if !gjson.ValidBytes(data) {
		return Null(), fmt.Errorf("invalid JSON")
	}
	return fromGJSON(gjson.ParseBytes(data)), nil
}

func fromGJSON(r gjson.Result) Value {
	switch r.Type {
	case gjson.False:
		return Bool(false)
	case gjson.True:
		return Bool(true)
	case gjson.Number:
		raw := strings.TrimSpace(r.Raw)
		if !strings.ContainsAny(raw, ".eE") {
			if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
				return Int(i)
			}
		}
		return Double(r.Float())
	case gjson.String:
		return String(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			items := []Value{}
			r.ForEach(func(_, item gjson.Result) bool {
				items = append(items, fromGJSON(item))
				return true
			})
			return Array(items...)
		}
		d := NewDictionary()
		r.ForEach(func(key, item gjson.Result) bool {
			d.Set(key.Str, fromGJSON(item))
			return true
		})
		return Dict(d)
	default:
		return Null()
	}
}

// MarshalJSON encodes the value as JSON, keeping dictionary order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindDouble:
		b, err := json.Marshal(v.d)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindString:
		b, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindDictionary:
		buf.WriteByte('{')
		var err error
		first := true
		v.dict.Each(func(key string, item Value) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			k, _ := json.Marshal(key)
			buf.Write(k)
			buf.WriteByte(':')
			err = item.writeJSON(buf)
			return err == nil
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
	}
	return nil
}

// ParseYAML parses a YAML (or JSON) snippet into a Value. An empty
// document is null.
func ParseYAML(text string) (Value, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(text), &node); err != nil {
		return Null(), err
	}
	if node.Kind == 0 {
		return Null(), nil
	}
	return FromYAML(&node)
}

// FromYAML converts a decoded YAML node, keeping mapping order.
func FromYAML(node *yaml.Node) (Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Null(), nil
		}
		return FromYAML(node.Content[0])
	case yaml.AliasNode:
		return FromYAML(node.Alias)
	case yaml.ScalarNode:
		return scalarFromYAML(node)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(node.Content))
		for _, child := range node.Content {
			item, err := FromYAML(child)
			if err != nil {
				return Null(), err
			}
			items = append(items, item)
		}
		return Array(items...), nil
	case yaml.MappingNode:
		d := NewDictionary()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			if key.Kind != yaml.ScalarNode {
				return Null(), fmt.Errorf("line %d: mapping keys must be scalars", key.Line)
			}
			if d.Has(key.Value) {
				return Null(), fmt.Errorf("line %d: duplicate key %q", key.Line, key.Value)
			}
			item, err := FromYAML(val)
			if err != nil {
				return Null(), err
			}
			d.Set(key.Value, item)
		}
		return Dict(d), nil
	default:
		return Null(), fmt.Errorf("line %d: unsupported YAML node", node.Line)
	}
}

func scalarFromYAML(node *yaml.Node) (Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return Null(), fmt.Errorf("line %d: %w", node.Line, err)
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := node.Decode(&i); err == nil {
			return Int(i), nil
		}
		var f float64
		if err := node.Decode(&f); err != nil {
			return Null(), fmt.Errorf("line %d: %w", node.Line, err)
		}
		return Double(f), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return Null(), fmt.Errorf("line %d: %w", node.Line, err)
		}
		return Double(f), nil
	default:
		return String(node.Value), nil
	}
}
