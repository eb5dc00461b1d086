package mextcfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mextlang/mext"
)

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.json")
	if err := os.WriteFile(path, []byte(`{"a": 1}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	v, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if v.Kind() != mext.KindMap {
		t.Fatalf("got kind %s, want map", v.Kind())
	}
	a, _ := v.Map().Get("a")
	if a.Kind() != mext.KindInt {
		t.Errorf("a kind = %s, want int", a.Kind())
	}
}

func TestSupportedExtensions(t *testing.T) {
	exts := SupportedExtensions()
	if len(exts) == 0 {
		t.Fatal("expected at least one supported extension")
	}
}
