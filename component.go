package mext

import (
	"errors"
	"strings"
)

// Component is one token in the parsed template stream: the literal text
// immediately preceding a placeholder, plus that placeholder's parsed
// parts. A nil FieldName means "trailing literal only" (spec.md §3, §4.1).
type Component struct {
	LiteralText string
	FieldName   *string
	FormatSpec  string
	Conversion  *string
}

// Split tokenizes a template string into an ordered sequence of Components,
// reproducing the classic "brace field" split: literal runs are delimited
// by {...} placeholders, {{ and }} escape to literal { and }, and a
// placeholder is `{` FIELD [`!` CONVERSION] [`:` FORMAT_SPEC] `}` where
// FIELD is raw text up to the first `!`, `:`, or closing `}`. FORMAT_SPEC
// may itself contain one nested level of {...} (to support e.g.
// `{x:{width}}`); that nested text is kept verbatim inside FormatSpec, not
// evaluated by the lexer (spec.md §4.1).
func Split(template string) ([]Component, error) {
	var components []Component
	var literal strings.Builder

	i := 0
	n := len(template)
	for i < n {
		c := template[i]
		switch c {
		case '{':
			if i+1 < n && template[i+1] == '{' {
				literal.WriteByte('{')
				i += 2
				continue
			}
			// Start of a placeholder.
			comp := Component{LiteralText: literal.String()}
			literal.Reset()
			i++ // consume '{'

			fieldStart := i
			for i < n && template[i] != '!' && template[i] != ':' && template[i] != '}' {
				i++
			}
			if i >= n {
				return nil, errors.New("mext: unterminated placeholder, expected '}'")
			}
			field := template[fieldStart:i]
			comp.FieldName = &field

			if i < n && template[i] == '!' {
				i++
				if i >= n {
					return nil, errors.New("mext: unterminated conversion after '!'")
				}
				conv := string(template[i])
				comp.Conversion = &conv
				i++
			}

			if i < n && template[i] == ':' {
				i++
				specStart := i
				depth := 0
				for i < n {
					switch template[i] {
					case '{':
						if depth >= 1 {
							return nil, errors.New("mext: format spec nesting deeper than one level is not supported")
						}
						depth++
					case '}':
						if depth > 0 {
							depth--
						} else {
							goto specDone
						}
					}
					i++
				}
				return nil, errors.New("mext: unterminated format spec, expected '}'")
			specDone:
				comp.FormatSpec = template[specStart:i]
			}

			if i >= n || template[i] != '}' {
				return nil, errors.New("mext: unterminated placeholder, expected '}'")
			}
			i++ // consume closing '}'

			components = append(components, comp)
		case '}':
			if i+1 < n && template[i+1] == '}' {
				literal.WriteByte('}')
				i += 2
				continue
			}
			return nil, errors.New("mext: single '}' encountered in template")
		default:
			literal.WriteByte(c)
			i++
		}
	}

	components = append(components, Component{LiteralText: literal.String(), FieldName: nil})
	return components, nil
}
