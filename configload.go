package mext

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// SupportedConfigExtensions lists the file extensions LoadConfigFile
// recognizes as structured data (spec.md §4.7, §6's configuration loader
// contract). mextcfg re-exports this for the external collaborator
// surface; @import uses it directly to classify a path.
func SupportedConfigExtensions() []string {
	return []string{".yaml", ".yml", ".json"}
}

// LoadConfigFile reads the file at path and converts it into a *Value,
// chosen by its extension: ".yaml"/".yml" via gopkg.in/yaml.v3 (walking the
// raw yaml.Node tree to keep mapping order), ".json" via
// github.com/tidwall/gjson (whose Result.ForEach walks object members in
// source order; encoding/json's default map decode does not preserve
// order, which is why it is not used here). Lives in package mext rather
// than mextcfg so @import can share its yaml/json decoders (applied to text
// read through the template loader) without mextcfg's reverse import of
// mext creating a cycle; mextcfg.Load is a thin wrapper around this.
func LoadConfigFile(path string) (*Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAMLConfig(data)
	case ".json":
		return loadJSONConfig(data)
	default:
		return nil, fmt.Errorf("mext: unsupported config extension %q (supported: %v)", filepath.Ext(path), SupportedConfigExtensions())
	}
}

func loadYAMLConfig(data []byte) (*Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("mext: parsing yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return Null(), nil
	}
	return yamlNodeToValue(doc.Content[0])
}

func yamlNodeToValue(n *yaml.Node) (*Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return yamlNodeToValue(n.Content[0])
	case yaml.MappingNode:
		om := NewOrderedMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			val, err := yamlNodeToValue(valNode)
			if err != nil {
				return nil, err
			}
			om.Set(keyNode.Value, val)
		}
		return Map(om), nil
	case yaml.SequenceNode:
		items := make([]*Value, len(n.Content))
		for i, c := range n.Content {
			v, err := yamlNodeToValue(c)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return List(items...), nil
	case yaml.ScalarNode:
		return yamlScalarToValue(n)
	case yaml.AliasNode:
		return yamlNodeToValue(n.Alias)
	default:
		return Null(), nil
	}
}

func yamlScalarToValue(n *yaml.Node) (*Value, error) {
	var decoded any
	if err := n.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("mext: decoding scalar %q: %w", n.Value, err)
	}
	return FromAny(decoded), nil
}

func loadJSONConfig(data []byte) (*Value, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("mext: invalid json")
	}
	result := gjson.ParseBytes(data)
	return jsonResultToValue(result), nil
}

func jsonResultToValue(r gjson.Result) *Value {
	switch r.Type {
	case gjson.Null:
		return Null()
	case gjson.False:
		return Bool(false)
	case gjson.True:
		return Bool(true)
	case gjson.Number:
		if r.Num == float64(int64(r.Num)) && !strings.ContainsAny(r.Raw, ".eE") {
			return Int(int64(r.Num))
		}
		return Float(r.Num)
	case gjson.String:
		return String(r.Str)
	default:
		if r.IsArray() {
			var items []*Value
			r.ForEach(func(_, val gjson.Result) bool {
				items = append(items, jsonResultToValue(val))
				return true
			})
			return List(items...)
		}
		if r.IsObject() {
			om := NewOrderedMap()
			r.ForEach(func(key, val gjson.Result) bool {
				om.Set(key.String(), jsonResultToValue(val))
				return true
			})
			return Map(om)
		}
		return Null()
	}
}
