package mext

import (
	"fmt"
	"strings"
)

// TemplateLoader reads the raw contents of a template by name. New
// nested parsers created for @include inherit the caller's loader.
type TemplateLoader func(name string) (string, error)

// InputCallback backs @input: it is invoked with the output produced so
// far and returns the text to splice in (and to bind to the named local).
type InputCallback func(parsedSoFar string) (string, error)

var keywords = map[string]bool{
	"option": true, "set": true, "default": true, "count": true,
	"include": true, "input": true, "import": true,
	"if": true, "else": true, "elif": true, "endif": true,
	"for": true, "endfor": true, "trim_newline": true,
	"format": true, "comment": true, "endcomment": true,
}

var incLevelKeywords = map[string]bool{"if": true, "for": true}

// descLevelKeywords intentionally omits "endfor": unlike @endif, @endfor is
// dispatched once per iteration (the main loop reaches it again on every
// replay after @for's backward seek), so a blanket pre-dispatch decrement
// here would under-count the level on every iteration but the last.
// parseEndfor decrements explicitly, only on the iteration that actually
// exits the loop.
var descLevelKeywords = map[string]bool{"endif": true}

type forContext struct {
	names     []string
	iter      valueIterator
	entryMark int
}

type trimNewlineState struct {
	level   int
	posMark int
}

type traceEntry struct {
	posIndex int
	keyword  string
	field    string
}

// Parser is one render's mutable state (spec.md §3 ParserState). Build one
// with New, drive a render with Parse, and reuse the instance across
// renders (Parse resets the per-render state itself). A Parser is not safe for
// concurrent renders (spec.md §5).
type Parser struct {
	templateFn string
	components []Component
	posIndex   int

	level             int
	pendingWhitespace *string
	results           []string

	options map[string]bool

	forStack  []*forContext
	trimStack []*trimNewlineState

	scope     *Scope
	callbacks map[string]InputCallback

	formatters     *FormatterRegistry
	templateLoader TemplateLoader

	linenumbers []int

	inputResults map[string]*Value

	debugTrace bool
	trace      []traceEntry

	includeChain []string // canonicalized paths of the include chain, for cycle detection

	// current component, refreshed by next()
	curLiteral    string
	curFieldName  *string
	curFormatSpec string
	curConversion *string
	curKeyword    string
	curStatement  *string
}

// New returns a ready-to-use Parser with the default formatter set
// registered and final_strip on, matching spec.md §3's ParserState
// defaults.
func New() *Parser {
	p := &Parser{}
	p.formatters = newFormatterRegistry()
	p.templateLoader = defaultTemplateLoader
	p.reset()
	return p
}

func (p *Parser) reset() {
	p.components = nil
	p.posIndex = -1
	p.level = 0
	p.pendingWhitespace = nil
	p.results = nil
	p.options = map[string]bool{"final_strip": true}
	p.forStack = nil
	p.trimStack = nil
	p.scope = newScope()
	p.callbacks = map[string]InputCallback{}
	p.linenumbers = []int{1}
	p.inputResults = map[string]*Value{}
	p.curLiteral, p.curFieldName, p.curFormatSpec, p.curConversion = "", nil, "", nil
	p.curKeyword, p.curStatement = "", nil
}

// RegisterFormatter adds or replaces a named formatter.
func (p *Parser) RegisterFormatter(name string, fn FormatterFunc) { p.formatters.Register(name, fn) }

// RemoveFormatter deletes a named formatter.
func (p *Parser) RemoveFormatter(name string) { p.formatters.Remove(name) }

// EnableTrace turns on (or off) per-chunk trace recording (spec.md §6).
func (p *Parser) EnableTrace(enable bool) {
	p.debugTrace = enable
	p.trace = nil
}

// Trace returns the recorded (posIndex, keyword, field) trace entries, if
// tracing was enabled before the last render.
func (p *Parser) Trace() []traceEntry { return p.trace }

// setTemplate tokenizes template and prepares a fresh render. templateFn,
// if non-empty, is the path used for error messages and relative include
// resolution.
func (p *Parser) setTemplate(template, templateFn string) error {
	p.reset()
	p.templateFn = templateFn
	comps, err := Split(template)
	if err != nil {
		return newSyntaxError(templateFn, 0, "", err.Error())
	}
	p.components = comps
	return nil
}

// Parse renders template (or the file at templateFn, when template is
// empty) against params, with callbacks available to @input directives.
// If templateLoader is non-nil it overrides the parser's default loader
// for this render (and any nested @include). The second return value is
// the @input round-trip map; it is non-nil only when callbacks is
// non-empty, matching spec.md §6.
func (p *Parser) Parse(template, templateFn string, params map[string]*Value, callbacks map[string]InputCallback, templateLoader TemplateLoader) (string, map[string]*Value, error) {
	if templateLoader != nil {
		p.templateLoader = templateLoader
	}
	if template == "" && templateFn != "" {
		loaded, err := p.templateLoader(templateFn)
		if err != nil {
			return "", nil, newFileNotFoundError(templateFn, 0, templateFn, err.Error())
		}
		template = loaded
	}
	if err := p.setTemplate(template, templateFn); err != nil {
		return "", nil, err
	}
	if params == nil {
		params = map[string]*Value{}
	}
	p.scope.Params = params
	if callbacks == nil {
		callbacks = map[string]InputCallback{}
	}
	p.callbacks = callbacks

	for {
		ok := p.next()
		if !ok {
			break
		}
		p.processLiteral()

		if p.curKeyword != "" {
			if !keywords[p.curKeyword] {
				return "", nil, p.syntaxError(fmt.Sprintf("%q is not a valid keyword.", p.curKeyword))
			}
			if incLevelKeywords[p.curKeyword] {
				p.level++
			} else if descLevelKeywords[p.curKeyword] {
				p.level--
			}
			if err := p.dispatch(); err != nil {
				return "", nil, err
			}
		} else if p.curFieldName != nil {
			if err := p.parseFieldReference(); err != nil {
				return "", nil, err
			}
		}
	}

	result := p.parsedResult()
	if len(callbacks) == 0 {
		return result, nil, nil
	}
	return result, p.inputResults, nil
}

func (p *Parser) parsedResult() string {
	joined := strings.Join(p.results, "")
	if p.options["final_strip"] {
		joined = strings.TrimSpace(joined)
	}
	return joined
}

// next advances the cursor to the next component, updating curLiteral,
// curFieldName, curFormatSpec, curConversion, curKeyword and curStatement.
// It reports false once the stream is exhausted.
func (p *Parser) next() bool {
	if p.posIndex+1 >= len(p.components) {
		return false
	}
	p.posIndex++
	c := p.components[p.posIndex]

	p.linenumbers = append(p.linenumbers, p.linenumbers[len(p.linenumbers)-1]+strings.Count(c.LiteralText, "\n"))

	p.curLiteral = c.LiteralText
	p.curFieldName = c.FieldName
	p.curFormatSpec = c.FormatSpec
	p.curConversion = c.Conversion
	p.curKeyword = ""
	p.curStatement = nil

	if c.FieldName != nil && strings.HasPrefix(*c.FieldName, "@") {
		rest := (*c.FieldName)[1:]
		parts := strings.SplitN(rest, " ", 2)
		p.curKeyword = parts[0]
		if len(parts) > 1 {
			stmt := strings.TrimSpace(parts[1])
			p.curStatement = &stmt
		}
	}
	return true
}

// seek rewinds the cursor to toPos (which must be <= posIndex), truncating
// the linenumbers history accordingly. Used only by @endfor.
func (p *Parser) seek(toPos int) {
	delta := toPos - p.posIndex
	if delta > 0 {
		panic("mext: cannot seek forward")
	}
	p.posIndex = toPos
	p.linenumbers = p.linenumbers[:len(p.linenumbers)+delta]
}

// skipUntil walks forward (via next) until a component whose keyword is in
// target is found at the current level, decrementing for each keyword in
// descLevel and incrementing for each in incLevel, exactly mirroring
// spec.md §4.4's skip_until. On return the cursor sits on the matching
// component.
func (p *Parser) skipUntil(target, incLevel, descLevel []string) {
	targetLevel := p.level
	inSet := func(set []string, kw string) bool {
		for _, k := range set {
			if k == kw {
				return true
			}
		}
		return false
	}
	for p.next() {
		kw := p.curKeyword
		switch {
		case inSet(incLevel, kw):
			p.level++
		case inSet(descLevel, kw):
			p.level--
			if p.level == targetLevel-1 && inSet(target, kw) {
				return
			}
		case p.level == targetLevel && inSet(target, kw):
			return
		}
	}
}

// appendText appends text to the output. When flushPending is true (the
// default for all callers except @trim_newline's own handler) and a
// pendingWhitespace chunk is queued, it is flushed first.
func (p *Parser) appendText(text string, flushPending bool) {
	if len(text) == 0 {
		return
	}
	if flushPending && p.pendingWhitespace != nil {
		if len(*p.pendingWhitespace) != 0 {
			p.results = append(p.results, *p.pendingWhitespace)
		}
		p.pendingWhitespace = nil
	}
	p.results = append(p.results, text)
	if p.debugTrace {
		p.trace = append(p.trace, traceEntry{p.posIndex, p.curKeyword, fieldNameOrEmpty(p.curFieldName)})
	}
}

func fieldNameOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (p *Parser) currentLine() int { return p.linenumbers[len(p.linenumbers)-1] }

func (p *Parser) currentToken() string { return fieldNameOrEmpty(p.curFieldName) }

func (p *Parser) syntaxError(msg string) *SyntaxError {
	return newSyntaxError(p.templateFn, p.currentLine(), p.currentToken(), msg)
}

func (p *Parser) runtimeError(msg string) *RuntimeError {
	return newRuntimeError(p.templateFn, p.currentLine(), p.currentToken(), msg)
}

func (p *Parser) fileNotFoundError(msg string) *FileNotFoundError {
	return newFileNotFoundError(p.templateFn, p.currentLine(), p.currentToken(), msg)
}

func (p *Parser) assertMissingStatement() error {
	if p.curStatement == nil {
		return p.syntaxError(fmt.Sprintf("Missing statement after %q.", p.curKeyword))
	}
	return nil
}

func (p *Parser) assertUnexpectedStatement() error {
	if p.curStatement != nil {
		return p.syntaxError(fmt.Sprintf("Unexpected statement after %q.", p.curKeyword))
	}
	return nil
}

// resolveField resolves a field expression through the current scope,
// wrapping any failure as a RuntimeError annotated with file/line context
// (spec.md §4.3).
func (p *Parser) resolveField(field string) (*Value, error) {
	v, err := resolveFieldValue(p.scope, field)
	if err != nil {
		return nil, p.runtimeError(err.Error())
	}
	return v, nil
}

func (p *Parser) dispatch() error {
	switch p.curKeyword {
	case "option":
		return p.parseOption()
	case "set":
		return p.parseSet()
	case "default":
		return p.parseDefault()
	case "count":
		return p.parseCount()
	case "include":
		return p.parseInclude()
	case "input":
		return p.parseInput()
	case "import":
		return p.parseImport()
	case "if":
		return p.parseIf()
	case "elif":
		return p.parseElif()
	case "else":
		return p.parseElse()
	case "endif":
		return p.parseEndif()
	case "for":
		return p.parseFor()
	case "endfor":
		return p.parseEndfor()
	case "trim_newline":
		return p.parseTrimNewline()
	case "format":
		return p.parseFormat()
	case "comment":
		return p.parseComment()
	case "endcomment":
		return p.parseEndcomment()
	default:
		return p.syntaxError(fmt.Sprintf("%q is not a valid keyword.", p.curKeyword))
	}
}

func defaultTemplateLoader(path string) (string, error) {
	return readFile(path)
}
