package mext

import (
	"fmt"
	"strings"
)

// splitNameList splits a comma-separated list of bare identifiers, as used
// by @for's binding names ("k,v").
func splitNameList(s string) []string {
	parts := strings.Split(s, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}

// splitTwoTokens splits a statement into its first whitespace-delimited
// token and the remainder, trimmed. Used by the directives spec.md §4.4
// describes as "two tokens" (`@option`, `@set`, `@default`): the first
// token is always a bare name, so splitting on the first run of
// whitespace is safe even when the remainder is itself a quoted string
// literal containing embedded spaces.
func splitTwoTokens(stmt string) (first, rest string, ok bool) {
	stmt = strings.TrimSpace(stmt)
	idx := strings.IndexAny(stmt, " \t")
	if idx < 0 {
		return stmt, "", false
	}
	first = stmt[:idx]
	rest = strings.TrimSpace(stmt[idx+1:])
	return first, rest, rest != ""
}

// splitExprAndParams separates a leading expression (a double-quoted
// string literal, which may itself contain commas and spaces, or a bare
// variable/number token with neither) from an optional trailing
// comma-separated "K=V, K2=V2" parameter list, as used by `@include` and
// `@format` (spec.md §4.4, §4.7).
func splitExprAndParams(stmt string) (expr, kvList string) {
	stmt = strings.TrimSpace(stmt)
	if strings.HasPrefix(stmt, "\"") {
		i := 1
		for i < len(stmt) {
			if stmt[i] == '\\' {
				i += 2
				continue
			}
			if stmt[i] == '"' {
				i++
				break
			}
			i++
		}
		expr = stmt[:i]
		rest := strings.TrimSpace(stmt[i:])
		rest = strings.TrimPrefix(rest, ",")
		return expr, strings.TrimSpace(rest)
	}
	idx := strings.IndexByte(stmt, ',')
	if idx < 0 {
		return stmt, ""
	}
	return strings.TrimSpace(stmt[:idx]), strings.TrimSpace(stmt[idx+1:])
}

// parseKVParams parses a comma-separated "k=v,k2=v2" parameter list, where
// each v is itself a field expression resolved through the current scope
// (so callers can pass through locals, quoted strings, or numeric
// literals).
func (p *Parser) parseKVParams(s string) (map[string]*Value, error) {
	out := map[string]*Value{}
	s = strings.TrimSpace(s)
	if s == "" {
		return out, nil
	}
	for _, pair := range strings.Split(s, ",") {
		name, expr, ok := splitAssignEquals(pair)
		if !ok {
			return nil, p.syntaxError(fmt.Sprintf("expected NAME=VALUE in parameter list, got %q", pair))
		}
		val, err := p.resolveField(expr)
		if err != nil {
			return nil, err
		}
		out[name] = val
	}
	return out, nil
}

// splitAssignEquals splits "NAME=EXPR" into its two halves at the first
// '=', used only for K=V parameter-list entries (spec.md §4.4, §4.7) —
// never for the top-level two-token directive grammars, which are
// space-separated (see splitTwoTokens).
func splitAssignEquals(stmt string) (name, expr string, ok bool) {
	i := strings.IndexByte(stmt, '=')
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(stmt[:i]), strings.TrimSpace(stmt[i+1:]), true
}

// parseOption handles `@option NAME (on|off)`, toggling a boolean parser
// option such as final_strip (spec.md §3/§4.4).
func (p *Parser) parseOption() error {
	if err := p.assertMissingStatement(); err != nil {
		return err
	}
	name, state, ok := splitTwoTokens(*p.curStatement)
	if !ok {
		return p.syntaxError(fmt.Sprintf("expected \"NAME (on|off)\" after @option, got %q", *p.curStatement))
	}
	switch state {
	case "on":
		p.options[name] = true
	case "off":
		p.options[name] = false
	default:
		return p.syntaxError(fmt.Sprintf("expected \"on\" or \"off\" after @option %s, got %q", name, state))
	}
	return nil
}

// parseSet handles `@set V1 V2`, unconditionally overwriting the local.
func (p *Parser) parseSet() error {
	if err := p.assertMissingStatement(); err != nil {
		return err
	}
	name, expr, ok := splitTwoTokens(*p.curStatement)
	if !ok {
		return p.syntaxError(fmt.Sprintf("expected \"V1 V2\" after @set, got %q", *p.curStatement))
	}
	val, err := p.resolveField(expr)
	if err != nil {
		return err
	}
	p.scope.Locals[name] = val
	return nil
}

// parseDefault handles `@default V1 V2`, only binding V1 if it is not
// already visible anywhere in the scope.
func (p *Parser) parseDefault() error {
	if err := p.assertMissingStatement(); err != nil {
		return err
	}
	name, expr, ok := splitTwoTokens(*p.curStatement)
	if !ok {
		return p.syntaxError(fmt.Sprintf("expected \"V1 V2\" after @default, got %q", *p.curStatement))
	}
	if p.scope.Visible(name) {
		return nil
	}
	val, err := p.resolveField(expr)
	if err != nil {
		return err
	}
	p.scope.Locals[name] = val
	return nil
}

// parseCount handles `@count VAR`: if resolving VAR succeeds and the
// result supports +1, locals[VAR] = value+1; otherwise locals[VAR] = 0.
// There is no custom step and this never raises (spec.md §3, §4.4).
func (p *Parser) parseCount() error {
	if err := p.assertMissingStatement(); err != nil {
		return err
	}
	name := strings.TrimSpace(*p.curStatement)
	if v, err := p.resolveField(name); err == nil {
		if _, ok := v.AsInt(); ok {
			p.scope.Locals[name] = v.IntPlusOne()
			return nil
		}
	}
	p.scope.Locals[name] = Int(0)
	return nil
}

// testStatement evaluates an @if/@elif condition against the exact
// grammar in spec.md §4.6: `[not] [empty|undefined|novalue] NAME`.
//   - no operator: standard truthiness of resolve(NAME).
//   - empty: true if the resolved value is null, or has a length and
//     that length is zero; a resolution failure here is a genuine
//     RuntimeError (empty does not catch undefined names).
//   - undefined: true iff resolving NAME fails; the failure does not
//     propagate.
//   - novalue: undefined OR empty on the resolved value.
//   - a leading "not" negates the final result.
func (p *Parser) testStatement(stmt string) (bool, error) {
	tokens := strings.Fields(stmt)
	if len(tokens) == 0 {
		return false, p.syntaxError("empty @if/@elif condition")
	}

	idx := 0
	negate := false
	if tokens[idx] == "not" {
		negate = true
		idx++
	}

	mode := ""
	if idx < len(tokens) {
		switch tokens[idx] {
		case "empty", "undefined", "novalue":
			mode = tokens[idx]
			idx++
		}
	}

	if idx >= len(tokens) {
		return false, p.syntaxError(fmt.Sprintf("missing NAME in condition %q", stmt))
	}
	name := strings.Join(tokens[idx:], " ")

	var result bool
	switch mode {
	case "undefined":
		_, err := p.resolveField(name)
		result = err != nil
	case "novalue":
		val, err := p.resolveField(name)
		if err != nil {
			result = true
		} else {
			result = isEmptyValue(val)
		}
	case "empty":
		val, err := p.resolveField(name)
		if err != nil {
			return false, err
		}
		result = isEmptyValue(val)
	default:
		val, err := p.resolveField(name)
		if err != nil {
			return false, err
		}
		result = val.IsTrue()
	}
	return result != negate, nil
}

func isEmptyValue(v *Value) bool {
	return v.IsNull() || (v.HasLen() && v.Len() == 0)
}

var ifRelatedKeywords = []string{"elif", "else", "endif"}
var ifIncLevel = []string{"if"}
var ifDescLevel = []string{"endif"}

// parseIf handles `@if EXPR`. If the condition is false, the cursor skips
// forward to the matching @elif/@else/@endif at this level.
func (p *Parser) parseIf() error {
	if err := p.assertMissingStatement(); err != nil {
		return err
	}
	ok, err := p.testStatement(*p.curStatement)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	p.skipUntil(ifRelatedKeywords, ifIncLevel, ifDescLevel)
	return p.reconsiderBranch()
}

// parseElif is only ever reached by falling through a taken branch (never
// by skipUntil landing on it, since a taken branch always runs to its
// matching endif); it means a previous branch already ran, so skip the
// rest of the if-chain.
func (p *Parser) parseElif() error {
	p.skipUntilEndif()
	return nil
}

// parseElse is only reached by the main loop falling through a taken
// if/elif branch's body (reconsiderBranch handles the "else is the taken
// branch" case inline, without going through dispatch). Reaching it here
// always means a previous branch already ran, so skip to @endif.
func (p *Parser) parseElse() error {
	if err := p.assertUnexpectedStatement(); err != nil {
		return err
	}
	p.skipUntilEndif()
	return nil
}

func (p *Parser) parseEndif() error {
	return p.assertUnexpectedStatement()
}

func (p *Parser) skipUntilEndif() {
	p.skipUntil([]string{"endif"}, ifIncLevel, ifDescLevel)
}

// reconsiderBranch is called right after skipUntil lands the cursor on an
// @elif, @else or @endif component. The landed-on component's own literal
// text belongs to the branch that was just skipped, not the one about to
// be taken, so it must not be emitted here — the main loop's own next()/
// processLiteral() call, once this returns, handles whatever literal
// follows the branch reconsiderBranch actually settles on. This only
// tests the @elif condition, unconditionally takes @else, or does nothing
// for @endif.
func (p *Parser) reconsiderBranch() error {
	switch p.curKeyword {
	case "elif":
		if err := p.assertMissingStatement(); err != nil {
			return err
		}
		ok, err := p.testStatement(*p.curStatement)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		p.skipUntil(ifRelatedKeywords, ifIncLevel, ifDescLevel)
		return p.reconsiderBranch()
	case "else":
		return p.assertUnexpectedStatement()
	case "endif":
		return p.assertUnexpectedStatement()
	default:
		return p.syntaxError(fmt.Sprintf("expected @elif, @else or @endif, found %q", p.curKeyword))
	}
}

// parseFor handles `@for NAME[,NAME2,...] in EXPR`. An empty source skips
// straight past the matching @endfor; otherwise the first item is bound
// and a forContext is pushed so @endfor can drive the remaining
// iterations.
func (p *Parser) parseFor() error {
	if err := p.assertMissingStatement(); err != nil {
		return err
	}
	names, expr, ok := splitForStatement(*p.curStatement)
	if !ok {
		return p.syntaxError(fmt.Sprintf("expected \"NAME[,NAME...] in EXPR\" after @for, got %q", *p.curStatement))
	}
	source, err := p.resolveField(expr)
	if err != nil {
		return err
	}
	iter, err := newValueIterator(source)
	if err != nil {
		return p.runtimeError(err.Error())
	}
	if !iter.hasNext() {
		// No iterations at all: skip straight to the matching @endfor
		// (skipUntil's own bookkeeping brings level back down to where it
		// was before @for's increment). The landed @endfor's own literal
		// belongs to the loop body that never ran, so it must not be
		// emitted here — the main loop's next() moves past this @endfor
		// without reprocessing it, exactly as it does for @if's landed
		// @else/@elif/@endif.
		p.skipUntil([]string{"endfor"}, []string{"for"}, []string{"endfor"})
		return nil
	}
	entryMark := p.posIndex
	if err := bindLoopVars(names, iter.next(), p.scope.Locals); err != nil {
		return p.runtimeError(err.Error())
	}
	p.forStack = append(p.forStack, &forContext{names: names, iter: *iter, entryMark: entryMark})
	return nil
}

func splitForStatement(stmt string) (names []string, expr string, ok bool) {
	idx := strings.Index(stmt, " in ")
	if idx < 0 {
		return nil, "", false
	}
	names = splitNameList(stmt[:idx])
	expr = strings.TrimSpace(stmt[idx+len(" in "):])
	if len(names) == 0 || expr == "" {
		return nil, "", false
	}
	return names, expr, true
}

// parseEndfor drives the next iteration (rewinding via seek) or, once the
// iterator is exhausted, falls through to the component after @endfor.
func (p *Parser) parseEndfor() error {
	if err := p.assertUnexpectedStatement(); err != nil {
		return err
	}
	if len(p.forStack) == 0 {
		return p.syntaxError("@endfor without a matching @for")
	}
	ctx := p.forStack[len(p.forStack)-1]
	if !ctx.iter.hasNext() {
		// Final iteration: pop and drop the level @for raised, same as
		// @endif would for a naturally-reached @endif.
		p.forStack = p.forStack[:len(p.forStack)-1]
		p.level--
		return nil
	}
	if err := bindLoopVars(ctx.names, ctx.iter.next(), p.scope.Locals); err != nil {
		return p.runtimeError(err.Error())
	}
	p.seek(ctx.entryMark)
	return nil
}

// parseTrimNewline handles `@trim_newline`: any whitespace pending from the
// immediately preceding literal is flushed as plain output (so a blank
// line before the directive is preserved), and a trim state is pushed that
// will eat the leading newlines of the *next* literal emitted at this
// level once that literal's position matches where results currently end.
func (p *Parser) parseTrimNewline() error {
	if err := p.assertUnexpectedStatement(); err != nil {
		return err
	}
	if p.pendingWhitespace != nil {
		p.appendText(*p.pendingWhitespace, false)
	}
	empty := ""
	p.pendingWhitespace = &empty
	p.trimStack = append(p.trimStack, &trimNewlineState{level: p.level, posMark: len(p.results)})
	return nil
}

// parseFormat handles `@format NAME VAR [K=V, …]`: resolve VAR, look up
// NAME in the formatter registry, invoke it with the parsed K=V params,
// and append the result (spec.md §4.4).
func (p *Parser) parseFormat() error {
	if err := p.assertMissingStatement(); err != nil {
		return err
	}
	name, rest, ok := splitTwoTokens(*p.curStatement)
	if !ok {
		return p.syntaxError(fmt.Sprintf("expected \"NAME VAR\" after @format, got %q", *p.curStatement))
	}
	varExpr, kvList := splitExprAndParams(rest)
	val, err := p.resolveField(varExpr)
	if err != nil {
		return err
	}
	params, err := p.parseKVParams(kvList)
	if err != nil {
		return err
	}
	fn, ok := p.formatters.Lookup(name)
	if !ok {
		return p.runtimeError(fmt.Sprintf("formatter %q is not registered", name))
	}
	out, err := fn(val, params)
	if err != nil {
		return p.runtimeError(err.Error())
	}
	p.appendText(out, true)
	return nil
}

func (p *Parser) parseComment() error {
	if err := p.assertUnexpectedStatement(); err != nil {
		return err
	}
	p.skipUntil([]string{"endcomment"}, nil, nil)
	return nil
}

func (p *Parser) parseEndcomment() error {
	return p.assertUnexpectedStatement()
}

// parseFieldReference handles a plain `{expr}`, `{expr!conv}`,
// `{expr:spec}` component: resolve, apply the r/s/a conversion, then apply
// format_spec through the standard string-formatting mini-language
// (spec.md §4.4 row 103 — distinct from @format's named-formatter-registry
// lookup), then emit.
func (p *Parser) parseFieldReference() error {
	field := *p.curFieldName
	val, err := p.resolveField(field)
	if err != nil {
		return err
	}

	if p.curConversion != nil {
		converted, err := convertValue(val, (*p.curConversion)[0])
		if err != nil {
			return p.syntaxError(err.Error())
		}
		val = converted
	}

	out := val.String()
	if p.curFormatSpec != "" {
		spec, err := p.resolveNestedFormatSpec(p.curFormatSpec)
		if err != nil {
			return err
		}
		parts, err := parseFormatSpecMini(spec)
		if err != nil {
			return p.syntaxError(err.Error())
		}
		out, err = applyFormatSpec(val, parts)
		if err != nil {
			return p.runtimeError(err.Error())
		}
	}
	p.appendText(out, true)
	return nil
}

// resolveNestedFormatSpec substitutes any one-level-deep nested `{name}`
// reference inside a format_spec with its resolved value (spec.md §4.1's
// `{x:{width}}` example) before the mini-language parser sees it.
func (p *Parser) resolveNestedFormatSpec(spec string) (string, error) {
	if !strings.Contains(spec, "{") {
		return spec, nil
	}
	var b strings.Builder
	i := 0
	for i < len(spec) {
		if spec[i] == '{' {
			end := strings.IndexByte(spec[i:], '}')
			if end < 0 {
				return "", p.syntaxError(fmt.Sprintf("unterminated nested field in format spec %q", spec))
			}
			name := spec[i+1 : i+end]
			val, err := p.resolveField(name)
			if err != nil {
				return "", err
			}
			b.WriteString(val.String())
			i += end + 1
			continue
		}
		b.WriteByte(spec[i])
		i++
	}
	return b.String(), nil
}
