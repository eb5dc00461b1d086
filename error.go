package mext

import "fmt"

// baseError carries the file/line/token context every Mext error must
// surface (spec.md §7: `In file "F", line L, around "TOKEN"`). It mirrors
// pongo2's single Error struct (error.go), split into three named types so
// callers can tell the error kinds apart with a type switch instead of
// string-matching ErrorMsg the way pongo2's Sender field is commonly used.
type baseError struct {
	Filename string
	Line     int
	Token    string
	Msg      string
}

func (e *baseError) Error() string {
	var loc string
	if e.Filename != "" {
		loc = fmt.Sprintf("In file %q, line %d, around %q.", e.Filename, e.Line, e.Token)
	} else {
		loc = fmt.Sprintf("Line %d, around %q.", e.Line, e.Token)
	}
	return loc + "\n  " + e.Msg
}

// SyntaxError reports a malformed directive statement, unknown keyword,
// redundant closer, or a statement present/absent where the grammar
// disallows/requires one.
type SyntaxError struct{ baseError }

// RuntimeError reports a resolution failure, a non-iterable used in @for,
// a missing @input callback, an unregistered formatter name, or an
// include/import load failure.
type RuntimeError struct{ baseError }

// FileNotFoundError reports an include/import path that could not be
// resolved after all fallbacks in spec.md §4.7 were exhausted.
type FileNotFoundError struct{ baseError }

func newSyntaxError(filename string, line int, token, msg string) *SyntaxError {
	return &SyntaxError{baseError{filename, line, token, msg}}
}

func newRuntimeError(filename string, line int, token, msg string) *RuntimeError {
	return &RuntimeError{baseError{filename, line, token, msg}}
}

func newFileNotFoundError(filename string, line int, token, msg string) *FileNotFoundError {
	return &FileNotFoundError{baseError{filename, line, token, msg}}
}
