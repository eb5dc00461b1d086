package mext

import (
	"fmt"
	"strings"
	"testing"
)

// memLoader serves template bodies from an in-memory map, so include/import
// tests don't need real files on disk (spec.md §9's TemplateLoader seam).
func memLoader(files map[string]string) TemplateLoader {
	return func(name string) (string, error) {
		content, ok := files[name]
		if !ok {
			return "", fmt.Errorf("no such template %q", name)
		}
		return content, nil
	}
}

func TestIncludeSplicesChildOutputAndSharesScope(t *testing.T) {
	files := map[string]string{
		"partial.mext": "Hello, {name}!",
	}
	p := New()
	out, _, err := p.Parse(`{@include "partial.mext"}`, "main.mext", map[string]*Value{"name": String("Ada")}, nil, memLoader(files))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if out != "Hello, Ada!" {
		t.Errorf("got %q, want %q", out, "Hello, Ada!")
	}
}

func TestIncludeExtraParamsOverrideParentScope(t *testing.T) {
	files := map[string]string{
		"partial.mext": "{name}",
	}
	p := New()
	out, _, err := p.Parse(`{@include "partial.mext" name="Override"}`, "main.mext", map[string]*Value{"name": String("Original")}, nil, memLoader(files))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if out != "Override" {
		t.Errorf("got %q, want %q", out, "Override")
	}
}

func TestIncludeDetectsCycle(t *testing.T) {
	files := map[string]string{
		"a.mext": `{@include "b.mext"}`,
		"b.mext": `{@include "a.mext"}`,
	}
	p := New()
	_, _, err := p.Parse("", "a.mext", nil, nil, memLoader(files))
	if err == nil {
		t.Fatal("expected a cyclic-include error, got nil")
	}
}

func TestImportConfigFlattensTopLevelKeys(t *testing.T) {
	files := map[string]string{
		"config.json": `{"title": "Report", "count": 3}`,
	}
	p := New()
	out, _, err := p.Parse(`{@import "config.json"}{title}: {count}`, "main.mext", nil, nil, memLoader(files))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if out != "Report: 3" {
		t.Errorf("got %q, want %q", out, "Report: 3")
	}
}

func TestImportConfigAsNamespaceNests(t *testing.T) {
	files := map[string]string{
		"config.json": `{"title": "Report"}`,
	}
	p := New()
	out, _, err := p.Parse(`{@import "config.json" as cfg}{cfg.title}`, "main.mext", nil, nil, memLoader(files))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if out != "Report" {
		t.Errorf("got %q, want %q", out, "Report")
	}
}

func TestImportRawTextRequiresNamespace(t *testing.T) {
	files := map[string]string{
		"notes.txt": "raw contents",
	}
	p := New()
	if _, _, err := p.Parse(`{@import "notes.txt"}`, "main.mext", nil, nil, memLoader(files)); err == nil {
		t.Fatal("expected a syntax error for a non-config @import without \"as NS\"")
	}

	p2 := New()
	out, _, err := p2.Parse(`{@import "notes.txt" as raw}{raw}`, "main.mext", nil, nil, memLoader(files))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if out != "raw contents" {
		t.Errorf("got %q, want %q", out, "raw contents")
	}
}

func TestInputCallbackRoundTrip(t *testing.T) {
	p := New()
	callbacks := map[string]InputCallback{
		"approve": func(soFar string) (string, error) {
			return strings.ToUpper(soFar), nil
		},
	}
	out, results, err := p.Parse(`draft{@input approve}`, "", nil, callbacks, nil)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if out != "draftDRAFT" {
		t.Errorf("got %q, want %q", out, "draftDRAFT")
	}
	if results["approve"] == nil || results["approve"].String() != "DRAFT" {
		t.Errorf("input_results[approve] = %v, want %q", results["approve"], "DRAFT")
	}
}

func TestInputCallbackMissingIsRuntimeError(t *testing.T) {
	p := New()
	if _, _, err := p.Parse(`{@input unregistered}`, "", nil, nil, nil); err == nil {
		t.Fatal("expected a runtime error for an unregistered @input callback")
	}
}

func TestEngineUseTemplateRestoresPrevious(t *testing.T) {
	e := NewEngine()
	e.SetTemplate("default")
	e.UseTemplate("temporary", func() {
		out, _, err := e.Compose()
		if err != nil {
			t.Fatalf("Compose error: %v", err)
		}
		if out != "temporary" {
			t.Errorf("inside UseTemplate: got %q, want %q", out, "temporary")
		}
	})
	out, _, err := e.Compose()
	if err != nil {
		t.Fatalf("Compose error: %v", err)
	}
	if out != "default" {
		t.Errorf("after UseTemplate: got %q, want %q", out, "default")
	}
}

func TestEngineUseParamsScoped(t *testing.T) {
	e := NewEngine()
	e.SetTemplate("{name}")
	e.SetParams(map[string]*Value{"name": String("outer")})
	e.UseParams(map[string]*Value{"name": String("inner")}, func() {
		out, _, err := e.Compose()
		if err != nil {
			t.Fatalf("Compose error: %v", err)
		}
		if out != "inner" {
			t.Errorf("inside UseParams: got %q, want %q", out, "inner")
		}
	})
	out, _, err := e.Compose()
	if err != nil {
		t.Fatalf("Compose error: %v", err)
	}
	if out != "outer" {
		t.Errorf("after UseParams: got %q, want %q", out, "outer")
	}
}

func TestFileCacheServesRepeatedLoads(t *testing.T) {
	if err := EnableFileCache(8); err != nil {
		t.Fatalf("EnableFileCache error: %v", err)
	}
	defer DisableFileCache()

	calls := 0
	files := map[string]string{"partial.mext": "cached"}
	loader := func(name string) (string, error) {
		calls++
		content, ok := files[name]
		if !ok {
			return "", fmt.Errorf("no such template %q", name)
		}
		return content, nil
	}

	template := `{@include "partial.mext"}{@include "partial.mext"}`
	p := New()
	out, _, err := p.Parse(template, "main.mext", nil, nil, loader)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if out != "cachedcached" {
		t.Errorf("got %q, want %q", out, "cachedcached")
	}
	if calls != 1 {
		t.Errorf("loader called %d times, want 1 (second @include should hit the cache)", calls)
	}
}
