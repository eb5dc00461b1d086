package mext

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// convertValue implements a field reference's `!conversion` (spec.md §4.4
// row 103: "r/s/a — repr/str/ascii"), mirroring Python's
// string.Formatter.convert_field.
func convertValue(v *Value, conv byte) (*Value, error) {
	switch conv {
	case 'r':
		return String(v.Repr()), nil
	case 's':
		return String(v.String()), nil
	case 'a':
		if v.Kind() == KindString {
			return String(quoteASCII(v.String())), nil
		}
		return String(v.Repr()), nil
	default:
		return nil, fmt.Errorf("unknown conversion %q", string(conv))
	}
}

// quoteASCII renders s the way Python's ascii() builtin would for a plain
// string: non-ASCII runes escaped, without the surrounding quote
// characters strconv.QuoteToASCII would add (the conversion only replaces
// the string's content, not its outer representation).
func quoteASCII(s string) string {
	q := strconv.QuoteToASCII(s)
	return q[1 : len(q)-1]
}

// formatSpecParts is a parsed Python-style format spec:
// [[fill]align][sign][#][0][width][,][.precision][type]
type formatSpecParts struct {
	fill         rune
	align        byte // 0 if unset; one of '<','>','^','='
	sign         byte // 0 if unset; one of '+','-',' '
	alt          bool
	zeroPad      bool
	width        int
	hasWidth     bool
	comma        bool
	precision    int
	hasPrecision bool
	verb         byte // 0 if unset
}

var formatSpecRe = regexp.MustCompile(`^(?:(.)?([<>=^]))?([+\- ])?(#)?(0)?(\d+)?(,)?(?:\.(\d+))?([bcdeEfFgGnosxX%])?$`)

// parseFormatSpecMini parses spec against Python's Format Specification
// Mini-Language, which spec.md §4.4 row 103 names as the mechanism a field
// reference's format_spec is applied through (as opposed to @format's
// named-formatter-registry lookup).
func parseFormatSpecMini(spec string) (formatSpecParts, error) {
	var parts formatSpecParts
	if spec == "" {
		return parts, nil
	}
	m := formatSpecRe.FindStringSubmatch(spec)
	if m == nil {
		return parts, fmt.Errorf("malformed format spec %q", spec)
	}
	if m[2] != "" {
		if m[1] != "" {
			parts.fill = []rune(m[1])[0]
		} else {
			parts.fill = ' '
		}
		parts.align = m[2][0]
	}
	if m[3] != "" {
		parts.sign = m[3][0]
	}
	parts.alt = m[4] == "#"
	if m[5] == "0" {
		parts.zeroPad = true
		if parts.align == 0 {
			parts.align = '='
		}
		if parts.fill == 0 {
			parts.fill = '0'
		}
	}
	if m[6] != "" {
		w, err := strconv.Atoi(m[6])
		if err != nil {
			return parts, fmt.Errorf("malformed width in format spec %q", spec)
		}
		parts.width = w
		parts.hasWidth = true
	}
	parts.comma = m[7] == ","
	if m[8] != "" {
		p, err := strconv.Atoi(m[8])
		if err != nil {
			return parts, fmt.Errorf("malformed precision in format spec %q", spec)
		}
		parts.precision = p
		parts.hasPrecision = true
	}
	if m[9] != "" {
		parts.verb = m[9][0]
	}
	if parts.fill == 0 {
		parts.fill = ' '
	}
	return parts, nil
}

// applyFormatSpec renders val through parts, the way Python's
// format(val, spec) / "{:spec}".format(val) would for the built-in
// numeric and string types that Value's Kind set maps onto.
func applyFormatSpec(val *Value, parts formatSpecParts) (string, error) {
	var body string
	negative := false
	isNumeric := false

	effectiveVerb := parts.verb
	if effectiveVerb == 0 {
		// No explicit type: Python defaults an int/float to its own
		// numeric rendering (right-aligned) and anything else to 's'
		// (left-aligned) — the default alignment depends on the value's
		// kind, not just the spec text.
		switch val.Kind() {
		case KindInt:
			effectiveVerb = 'd'
		case KindFloat:
			effectiveVerb = 'g'
		default:
			effectiveVerb = 's'
		}
	}

	switch effectiveVerb {
	case 'd':
		n, ok := val.AsInt()
		if !ok {
			return "", fmt.Errorf("format spec type 'd' requires an integer value, got %s", val.Kind())
		}
		isNumeric = true
		if n < 0 {
			negative = true
			n = -n
		}
		body = strconv.FormatInt(n, 10)
		if parts.comma {
			body = groupThousands(body)
		}
	case 'x', 'X', 'o', 'b':
		n, ok := val.AsInt()
		if !ok {
			return "", fmt.Errorf("format spec type %q requires an integer value, got %s", string(parts.verb), val.Kind())
		}
		isNumeric = true
		if n < 0 {
			negative = true
			n = -n
		}
		base := map[byte]int{'x': 16, 'X': 16, 'o': 8, 'b': 2}[parts.verb]
		body = strconv.FormatInt(n, base)
		if parts.verb == 'X' {
			body = strings.ToUpper(body)
		}
		if parts.alt {
			prefix := map[byte]string{'x': "0x", 'X': "0X", 'o': "0o", 'b': "0b"}[parts.verb]
			body = prefix + body
		}
	case 'f', 'F', 'e', 'E', 'g', 'G':
		f, ok := val.AsFloat()
		if !ok {
			return "", fmt.Errorf("format spec type %q requires a numeric value, got %s", string(parts.verb), val.Kind())
		}
		isNumeric = true
		if f < 0 {
			negative = true
			f = -f
		}
		prec := 6
		if parts.hasPrecision {
			prec = parts.precision
		}
		verb := effectiveVerb
		if verb == 'F' {
			verb = 'f'
		}
		body = strconv.FormatFloat(f, verb, prec, 64)
		if effectiveVerb == 'E' || effectiveVerb == 'G' {
			body = strings.ToUpper(body)
		}
		if parts.comma {
			body = groupThousandsFloat(body)
		}
	case '%':
		f, ok := val.AsFloat()
		if !ok {
			return "", fmt.Errorf("format spec type '%%' requires a numeric value, got %s", val.Kind())
		}
		isNumeric = true
		if f < 0 {
			negative = true
			f = -f
		}
		prec := 6
		if parts.hasPrecision {
			prec = parts.precision
		}
		body = strconv.FormatFloat(f*100, 'f', prec, 64) + "%"
	case 'c':
		n, ok := val.AsInt()
		if !ok {
			return "", fmt.Errorf("format spec type 'c' requires an integer value, got %s", val.Kind())
		}
		body = string(rune(n))
	case 's', 0:
		body = val.String()
		if parts.hasPrecision && len(body) > parts.precision {
			body = body[:parts.precision]
		}
	default:
		return "", fmt.Errorf("unsupported format spec type %q", string(parts.verb))
	}

	if isNumeric {
		sign := ""
		switch {
		case negative:
			sign = "-"
		case parts.sign == '+':
			sign = "+"
		case parts.sign == ' ':
			sign = " "
		}
		align := parts.align
		if align == 0 {
			align = '>'
		}
		return padNumeric(sign, body, parts, align), nil
	}

	align := parts.align
	if align == 0 {
		align = '<'
	}
	return pad(body, parts.fill, align, parts.width, parts.hasWidth), nil
}

// padNumeric applies width/fill padding, honoring '=' alignment (pad
// between the sign and the digits — what Python uses for zero-padded
// numbers, e.g. "-007").
func padNumeric(sign, body string, parts formatSpecParts, align byte) string {
	full := sign + body
	if !parts.hasWidth || len(full) >= parts.width {
		return full
	}
	padLen := parts.width - len(full)
	padding := strings.Repeat(string(parts.fill), padLen)
	switch align {
	case '=':
		return sign + padding + body
	case '<':
		return full + padding
	case '^':
		left := padLen / 2
		right := padLen - left
		return strings.Repeat(string(parts.fill), left) + full + strings.Repeat(string(parts.fill), right)
	default: // '>'
		return padding + full
	}
}

func pad(body string, fill rune, align byte, width int, hasWidth bool) string {
	if !hasWidth || len([]rune(body)) >= width {
		return body
	}
	padLen := width - len([]rune(body))
	padding := strings.Repeat(string(fill), padLen)
	switch align {
	case '>':
		return padding + body
	case '^':
		left := padLen / 2
		right := padLen - left
		return strings.Repeat(string(fill), left) + body + strings.Repeat(string(fill), right)
	default: // '<' or '='
		return body + padding
	}
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func groupThousandsFloat(s string) string {
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	grouped := groupThousands(intPart)
	if hasFrac {
		return grouped + "." + fracPart
	}
	return grouped
}
