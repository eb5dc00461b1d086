package mext

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var (
	cacheMu    sync.Mutex
	fileCache  *lru.Cache[string, string]
)

// EnableFileCache turns on a process-wide bounded LRU cache of loaded
// template bodies, so repeated @include/@import of the same file skip the
// filesystem (spec.md §5, §9: the cache is an opt-in convenience, not a
// correctness requirement — a Parser with no cache enabled just reads the
// file fresh every time).
func EnableFileCache(capacity int) error {
	c, err := lru.New[string, string](capacity)
	if err != nil {
		return err
	}
	cacheMu.Lock()
	fileCache = c
	cacheMu.Unlock()
	return nil
}

// DisableFileCache drops the process-wide template cache, if any.
func DisableFileCache() {
	cacheMu.Lock()
	fileCache = nil
	cacheMu.Unlock()
}

func (p *Parser) loadTemplate(path string) (string, error) {
	cacheMu.Lock()
	c := fileCache
	cacheMu.Unlock()
	if c != nil {
		if content, ok := c.Get(path); ok {
			return content, nil
		}
	}
	content, err := p.templateLoader(path)
	if err != nil {
		return "", err
	}
	if c != nil {
		c.Add(path, content)
	}
	return content, nil
}

// resolveIncludePath implements spec.md §4.7's fallback chain for
// @include/@import path resolution: the literal path, then (for @include
// only — allowMextSuffix gates this) the literal path with a ".mext"
// suffix, then both of those again resolved relative to the including
// file's own directory. A candidate exists when the parser's template
// loader (through the file cache, if enabled) can load it.
func (p *Parser) resolveIncludePath(path string, allowMextSuffix bool) (string, error) {
	candidates := []string{path}
	if allowMextSuffix && !strings.HasSuffix(path, ".mext") {
		candidates = append(candidates, path+".mext")
	}
	if p.templateFn != "" {
		dir := filepath.Dir(p.templateFn)
		for _, c := range append([]string{}, candidates...) {
			candidates = append(candidates, filepath.Join(dir, c))
		}
	}
	for _, c := range candidates {
		if _, err := p.loadTemplate(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("could not resolve %q (tried %v)", path, candidates)
}

// checkIncludeCycle reports an error if resolved already appears in this
// render's chain of enclosing @include/@import files (spec.md §9's design
// note on cyclic includes — not in the original Python implementation,
// which has no such guard, but called for explicitly as a design addition).
// p.includeChain is built exclusively from the abs paths this function
// returns, so the comparison below only ever compares abs-to-abs.
func (p *Parser) checkIncludeCycle(resolved string) (string, error) {
	abs, err := filepath.Abs(resolved)
	if err != nil {
		abs = resolved
	}
	for _, f := range p.includeChain {
		if f == abs {
			return "", fmt.Errorf("cyclic include of %q", resolved)
		}
	}
	return abs, nil
}

// snapshotScope flattens this parser's current params+locals into a single
// map, read-only from a nested parser's point of view. @include/@import
// hand this to the child Parser as its params, so the included template
// sees every name the caller currently has bound (spec.md §9).
func (p *Parser) snapshotScope() map[string]*Value {
	out := make(map[string]*Value, len(p.scope.Params)+len(p.scope.Locals))
	for k, v := range p.scope.Params {
		out[k] = v
	}
	for k, v := range p.scope.Locals {
		out[k] = v
	}
	return out
}

func (p *Parser) parsedResultSoFar() string {
	out := ""
	for _, s := range p.results {
		out += s
	}
	return out
}
