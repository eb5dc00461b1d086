package mext

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// FormatterFunc is the signature every registered formatter must satisfy:
// it receives the resolved value and the (possibly empty) keyword
// parameters parsed from a `@format NAME VAR [K=V,...]` directive, and
// returns the text to emit.
type FormatterFunc func(value *Value, params map[string]*Value) (string, error)

// FormatterRegistry is a name → FormatterFunc map, mirroring pongo2's
// package-level filters map (filters.go) but kept as an instance field on
// Parser rather than a package global: spec.md's register_formatter /
// remove_formatter are documented as per-parser-instance operations
// (spec.md §3 lists `formatters` as a ParserState field), not process-wide
// like pongo2's filter registry.
type FormatterRegistry struct {
	formatters map[string]FormatterFunc
}

// newFormatterRegistry returns a registry pre-loaded with the default
// formatter set from spec.md §2/§4.8: json, repr, escape, fenced_block,
// lower, upper, capitalize.
func newFormatterRegistry() *FormatterRegistry {
	r := &FormatterRegistry{formatters: make(map[string]FormatterFunc)}
	r.Register("json", formatJSON)
	r.Register("repr", formatRepr)
	r.Register("escape", formatEscape)
	r.Register("fenced_block", formatFencedBlock)
	r.Register("lower", formatLower)
	r.Register("upper", formatUpper)
	r.Register("capitalize", formatCapitalize)
	return r
}

// Register adds or replaces a formatter under name.
func (r *FormatterRegistry) Register(name string, fn FormatterFunc) {
	r.formatters[name] = fn
}

// Remove deletes a formatter by name, if present.
func (r *FormatterRegistry) Remove(name string) {
	delete(r.formatters, name)
}

// Lookup returns the formatter registered under name, if any.
func (r *FormatterRegistry) Lookup(name string) (FormatterFunc, bool) {
	fn, ok := r.formatters[name]
	return fn, ok
}

// formatJSON serializes value as indented JSON. Scalars go through
// encoding/json directly; lists and maps are walked by hand, maps in
// OrderedMap's own key order, since encoding/json only knows how to marshal
// Go maps (which re-sort keys alphabetically) and spec.md's scenario 6
// requires @format json to preserve a map's insertion order.
func formatJSON(value *Value, _ map[string]*Value) (string, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, value, ""); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeJSON(buf *bytes.Buffer, value *Value, indent string) error {
	if value == nil || value.Kind() == KindNull {
		buf.WriteString("null")
		return nil
	}
	switch value.Kind() {
	case KindMap:
		om := value.Map()
		keys := om.Keys()
		if len(keys) == 0 {
			buf.WriteString("{}")
			return nil
		}
		childIndent := indent + "  "
		buf.WriteString("{\n")
		for i, k := range keys {
			buf.WriteString(childIndent)
			encodedKey, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(encodedKey)
			buf.WriteString(": ")
			val, _ := om.Get(k)
			if err := writeJSON(buf, val, childIndent); err != nil {
				return err
			}
			if i < len(keys)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(indent)
		buf.WriteByte('}')
		return nil
	case KindList:
		items := value.List()
		if len(items) == 0 {
			buf.WriteString("[]")
			return nil
		}
		childIndent := indent + "  "
		buf.WriteString("[\n")
		for i, item := range items {
			buf.WriteString(childIndent)
			if err := writeJSON(buf, item, childIndent); err != nil {
				return err
			}
			if i < len(items)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(indent)
		buf.WriteByte(']')
		return nil
	default:
		encoded, err := json.Marshal(value.Interface())
		if err != nil {
			return err
		}
		buf.Write(encoded)
		return nil
	}
}

func formatRepr(value *Value, _ map[string]*Value) (string, error) {
	return value.Repr(), nil
}

// formatEscape quotes a string value as a Go string literal. spec.md names
// `escape` as a default formatter without pinning the exact escaping
// target; this repo resolves that open question toward "safe to re-embed
// as a quoted literal", the natural reading for a text-composition engine.
// See DESIGN.md.
func formatEscape(value *Value, _ map[string]*Value) (string, error) {
	return strconv.Quote(value.String()), nil
}

// formatFencedBlock wraps content in a markdown code fence long enough to
// never collide with any backtick run already present in the content. This
// is a direct, adapted port of fence_content from
// original_source/mext/libs/utils.py: it finds the longest existing run of
// backticks and fences with one more than that (minimum 3).
func formatFencedBlock(value *Value, params map[string]*Value) (string, error) {
	content := value.String()
	spec := ""
	if s, ok := params["spec"]; ok {
		spec = s.String()
	}
	minFence := 3
	if m, ok := params["min_fence_num"]; ok {
		if n, ok := m.AsInt(); ok {
			minFence = int(n)
		}
	}
	marker := byte('`')
	if m, ok := params["marker"]; ok && len(m.String()) > 0 {
		marker = m.String()[0]
	}

	longest := minFence - 1
	run := 0
	for i := 0; i < len(content); i++ {
		if content[i] == marker {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	fence := strings.Repeat(string(marker), longest+1)
	return fmt.Sprintf("%s%s\n%s\n%s", fence, spec, content, fence), nil
}

func formatLower(value *Value, _ map[string]*Value) (string, error) {
	return strings.ToLower(value.String()), nil
}

func formatUpper(value *Value, _ map[string]*Value) (string, error) {
	return strings.ToUpper(value.String()), nil
}

// formatCapitalize mirrors Python's str.capitalize(): the first rune
// upper-cased, the rest lower-cased.
func formatCapitalize(value *Value, _ map[string]*Value) (string, error) {
	s := value.String()
	if s == "" {
		return "", nil
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes), nil
}
