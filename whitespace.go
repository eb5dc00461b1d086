package mext

import (
	"regexp"
	"strings"
)

var (
	leadingWSNewlineRe = regexp.MustCompile(`^[ \t]*\n`)
	trailingNLWSRe     = regexp.MustCompile(`\n[ \t]*$`)
	allWSRe            = regexp.MustCompile(`^[ \t]*$`)
	leadingNewlinesRe  = regexp.MustCompile(`^\n*`)
)

// processLiteral is the whitespace controller (spec.md §4.5), ported
// directly from original_source/mext/mext_parser.py's process_literal. It
// runs once per component, before the component's own keyword/field is
// dispatched, against curLiteral (the literal text immediately preceding
// that component's placeholder).
//
// Three things happen, in order:
//  1. If a whitespace chunk is pending from the previous component and this
//     component's literal starts with (optional [ \t] then) a newline, the
//     two runs are merged: the newline "wins" over trailing pending
//     spaces/tabs, collapsing what would otherwise be a blank line.
//  2. Any trim_newline states registered at or above the current level
//     consume leading newlines from the (possibly just-merged) text,
//     popping once they've either matched or been superseded by a
//     lower-level state.
//  3. Whatever whitespace remains trailing in the text (or, at the very
//     start of the template, the entire text if it is pure whitespace) is
//     captured as the new pending chunk rather than emitted immediately,
//     so a subsequent directive-only line can still trim it away.
func (p *Parser) processLiteral() {
	text := p.curLiteral

	if p.pendingWhitespace != nil {
		if m := leadingWSNewlineRe.FindString(text); m != "" {
			text = text[len(m):]
			trimmed := strings.TrimRight(*p.pendingWhitespace, " \t")
			if strings.HasSuffix(trimmed, "\n") {
				text = "\n" + text
				trimmed = trimmed[:len(trimmed)-1]
			}
			p.pendingWhitespace = &trimmed
		}
	}

	if len(p.trimStack) > 0 && len(text) > 0 {
		for len(p.trimStack) > 0 {
			last := p.trimStack[len(p.trimStack)-1]
			if last.level < p.level {
				break
			}
			brokeWithoutPop := false
			if last.level == p.level {
				if last.posMark == len(p.results) {
					text = leadingNewlinesRe.ReplaceAllString(text, "")
					if len(text) == 0 {
						brokeWithoutPop = true
					}
				}
			}
			if brokeWithoutPop {
				break
			}
			p.trimStack = p.trimStack[:len(p.trimStack)-1]
		}
	}

	var newPending *string
	if p.posIndex != 0 && len(text) == 0 {
		newPending = p.pendingWhitespace
		p.pendingWhitespace = nil
	} else if p.curFieldName != nil {
		if m := trailingNLWSRe.FindString(text); m != "" {
			text = text[:len(text)-len(m)]
			tail := m
			newPending = &tail
		} else if p.posIndex == 0 && allWSRe.MatchString(text) {
			tail := text
			text = ""
			newPending = &tail
		}
	}

	p.appendText(text, true)
	p.pendingWhitespace = newPending
}
