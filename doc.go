// Package mext implements the Mext text template engine: it expands an
// input template string into a final text string by mixing literal text,
// brace-delimited field substitutions ({name}), and brace-delimited
// directives ({@keyword statement}) that implement variable binding,
// conditionals, loops, file inclusion, data import, formatting, commenting,
// and whitespace control.
//
// The core has no dependency on any particular downstream use: it does not
// know about LLMs or command-line tooling. It does hold the YAML/JSON
// decoding that @import needs (LoadConfigFile); the mextcfg package
// re-exports that loader and the cmd/mextrender binary provides the CLI,
// both of which depend on this package rather than the reverse.
//
// A render is driven by a Parser, built with New; each call to Parse resets
// the per-render state, so one Parser can render many templates in turn.
// Rendering walks a flat, rewindable stream of
// Components (produced by Split) with a single cursor: directives can skip
// forward past a matching block closer (for @if/@elif/@else branching and
// @comment bodies) or seek backward to a remembered position (for @for
// iteration). This is deliberately not a tree of nodes the way most
// template engines compile templates — the @for rewind depends on random
// access between a loop's entry mark and the current position, which a
// recursive tree-walking interpreter cannot express without reintroducing
// the cursor anyway.
package mext
