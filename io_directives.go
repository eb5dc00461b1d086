package mext

import (
	"fmt"
	"path/filepath"
	"strings"
)

// parseInclude handles `@include (FN_STR|FN_VAR) [K=V, …]`: resolves the
// path expression (a quoted string literal or a variable holding one) via
// spec.md §4.7's fallback chain, renders it with a fresh nested Parser
// whose params are the caller's current bindings merged with the optional
// trailing K=V list, and splices the result into this parser's output.
func (p *Parser) parseInclude() error {
	if err := p.assertMissingStatement(); err != nil {
		return err
	}
	pathExpr, kvList := splitExprAndParams(*p.curStatement)
	extra, err := p.parseKVParams(kvList)
	if err != nil {
		return err
	}
	out, err := p.renderIncluded(pathExpr, extra, true)
	if err != nil {
		return err
	}
	p.appendText(out, true)
	return nil
}

func (p *Parser) renderIncluded(pathExpr string, extraParams map[string]*Value, allowMextSuffix bool) (string, error) {
	pathVal, err := p.resolveField(pathExpr)
	if err != nil {
		return "", err
	}
	if pathVal.Kind() != KindString {
		return "", p.runtimeError(fmt.Sprintf("%q did not resolve to a string path", pathExpr))
	}
	resolved, err := p.resolveIncludePath(pathVal.String(), allowMextSuffix)
	if err != nil {
		return "", p.fileNotFoundError(err.Error())
	}
	abs, err := p.checkIncludeCycle(resolved)
	if err != nil {
		return "", p.runtimeError(err.Error())
	}
	content, err := p.loadTemplate(resolved)
	if err != nil {
		return "", p.fileNotFoundError(err.Error())
	}

	child := New()
	child.formatters = p.formatters
	child.templateLoader = p.templateLoader
	child.includeChain = append(append([]string{}, p.includeChain...), abs)

	params := p.snapshotScope()
	for k, v := range extraParams {
		params[k] = v
	}

	out, _, err := child.Parse(content, resolved, params, nil, p.templateLoader)
	if err != nil {
		return "", err
	}
	return out, nil
}

// parseImport handles `@import (FN_STR|FN_VAR) [as NS]` (spec.md §4.4,
// §4.7): loads a config file (.yaml/.yml/.json) as structured data, or —
// for any other extension, which requires the "as NS" clause — as raw
// text. With "as NS", the result nests under locals[NS]; without it (only
// valid for structured data), the loaded mapping's top-level keys are
// flattened directly into locals.
func (p *Parser) parseImport() error {
	if err := p.assertMissingStatement(); err != nil {
		return err
	}
	pathExpr, ns, hasNS, err := splitImportStatement(*p.curStatement)
	if err != nil {
		return p.syntaxError(err.Error())
	}

	pathVal, err := p.resolveField(pathExpr)
	if err != nil {
		return err
	}
	if pathVal.Kind() != KindString {
		return p.runtimeError(fmt.Sprintf("%q did not resolve to a string path", pathExpr))
	}
	resolved, err := p.resolveIncludePath(pathVal.String(), false)
	if err != nil {
		return p.fileNotFoundError(err.Error())
	}

	if isConfigPath(resolved) {
		content, err := p.loadTemplate(resolved)
		if err != nil {
			return p.fileNotFoundError(err.Error())
		}
		var loaded *Value
		if strings.ToLower(filepath.Ext(resolved)) == ".json" {
			loaded, err = loadJSONConfig([]byte(content))
		} else {
			loaded, err = loadYAMLConfig([]byte(content))
		}
		if err != nil {
			return p.runtimeError(err.Error())
		}
		if hasNS {
			p.scope.Locals[ns] = loaded
			return nil
		}
		if loaded.Kind() != KindMap {
			return p.runtimeError(fmt.Sprintf("%q must contain a mapping to import without \"as NS\"", resolved))
		}
		for _, k := range loaded.Map().Keys() {
			v, _ := loaded.Map().Get(k)
			p.scope.Locals[k] = v
		}
		return nil
	}

	if !hasNS {
		return p.syntaxError(fmt.Sprintf("@import of non-config file %q requires \"as NS\"", resolved))
	}
	content, err := p.loadTemplate(resolved)
	if err != nil {
		return p.fileNotFoundError(err.Error())
	}
	p.scope.Locals[ns] = String(content)
	return nil
}

// splitImportStatement splits `(FN_STR|FN_VAR) [as NS]`: a leading
// double-quoted string literal or a bare variable token, followed by an
// optional literal "as NS" clause.
func splitImportStatement(stmt string) (pathExpr, ns string, hasNS bool, err error) {
	stmt = strings.TrimSpace(stmt)
	var rest string
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
		pathExpr = stmt[:i]
		rest = strings.TrimSpace(stmt[i:])
	} else {
		idx := strings.IndexAny(stmt, " \t")
		if idx < 0 {
			return stmt, "", false, nil
		}
		pathExpr = stmt[:idx]
		rest = strings.TrimSpace(stmt[idx+1:])
	}
	if rest == "" {
		return pathExpr, "", false, nil
	}
	if !strings.HasPrefix(rest, "as ") && rest != "as" {
		return "", "", false, fmt.Errorf("expected \"as NS\" after import path, got %q", rest)
	}
	ns = strings.TrimSpace(strings.TrimPrefix(rest, "as"))
	if ns == "" {
		return "", "", false, fmt.Errorf("missing namespace after \"as\" in @import")
	}
	return pathExpr, ns, true, nil
}

// isConfigPath reports whether path's extension is one LoadConfigFile
// understands (spec.md §4.7: "@import classifies by extension").
func isConfigPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedConfigExtensions() {
		if e == ext {
			return true
		}
	}
	return false
}

// parseInput handles `@input NAME`: invokes the caller-supplied callback
// registered under NAME with the output produced so far, binds its return
// value to a local of the same name, records it in the render's
// input_results map, and splices it into the output.
func (p *Parser) parseInput() error {
	if err := p.assertMissingStatement(); err != nil {
		return err
	}
	name := strings.TrimSpace(*p.curStatement)
	cb, ok := p.callbacks[name]
	if !ok {
		return p.runtimeError(fmt.Sprintf("no @input callback registered for %q", name))
	}
	text, err := cb(p.parsedResultSoFar())
	if err != nil {
		return p.runtimeError(err.Error())
	}
	v := String(text)
	p.inputResults[name] = v
	p.scope.Locals[name] = v
	p.appendText(text, true)
	return nil
}
