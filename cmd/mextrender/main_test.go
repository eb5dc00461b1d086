package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mextlang/mext"
)

func TestRenderToOutputFile(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "greeting.mext")
	if err := os.WriteFile(tmpl, []byte("Hello, {name}!"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	params := filepath.Join(dir, "params.json")
	if err := os.WriteFile(params, []byte(`{"name": "Ada"}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	out := filepath.Join(dir, "out.txt")
	if err := render(tmpl, out, []string{params}); err != nil {
		t.Fatalf("render error: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "Hello, Ada!\n" {
		t.Errorf("got %q, want %q", got, "Hello, Ada!\n")
	}
}

func TestRenderMergesParamFilesLeftToRight(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "greeting.mext")
	if err := os.WriteFile(tmpl, []byte("{a}{b}"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	p1 := filepath.Join(dir, "p1.json")
	os.WriteFile(p1, []byte(`{"a": "1", "b": "x"}`), 0o644)
	p2 := filepath.Join(dir, "p2.json")
	os.WriteFile(p2, []byte(`{"b": "2"}`), 0o644)

	out := filepath.Join(dir, "out.txt")
	if err := render(tmpl, out, []string{p1, p2}); err != nil {
		t.Fatalf("render error: %v", err)
	}
	got, _ := os.ReadFile(out)
	if string(got) != "12\n" {
		t.Errorf("got %q, want %q", got, "12\n")
	}
}

func TestRenderMissingTemplateIsFileNotFoundError(t *testing.T) {
	dir := t.TempDir()
	err := render(filepath.Join(dir, "missing.mext"), "", nil)
	if err == nil {
		t.Fatal("expected an error for a missing template file")
	}
	var notFound *mext.FileNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("got %T, want *mext.FileNotFoundError", err)
	}
}
