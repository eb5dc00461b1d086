// Package mextcfg loads external parameter files (YAML or JSON) into a
// mext.Value tree, preserving the file's own key order the way a
// directive like @format json or a @for over a loaded map is expected to
// see it (spec.md §6's configuration loader contract). The actual
// yaml.Node/gjson conversion lives in package mext itself (so @import can
// call it without this package's reverse import creating a cycle); this
// package is a thin re-export for the standalone CLI/config-loader use
// case spec.md §1 calls out as an external collaborator.
package mextcfg

import "github.com/mextlang/mext"

// SupportedExtensions lists the file extensions Load recognizes.
func SupportedExtensions() []string {
	return mext.SupportedConfigExtensions()
}

// Load reads the file at path and converts it into a *mext.Value, chosen
// by its extension.
func Load(path string) (*mext.Value, error) {
	return mext.LoadConfigFile(path)
}
