package mext

// Engine is the convenience entry point sitting on top of Parser: it holds
// a default template, default params and default callbacks across calls
// (mirroring original_source/mext/mext.py's Mext class), and scopes
// temporary overrides of any of the three with UseTemplate/UseParams/
// UseCallbacks — the Go analogue of that class's use_template/use_params
// @contextmanager helpers, expressed with defer instead (spec.md §9).
type Engine struct {
	template       string
	templateFn     string
	params         map[string]*Value
	callbacks      map[string]InputCallback
	templateLoader TemplateLoader
}

// NewEngine returns an Engine with no default template, empty params, and
// the default filesystem template loader.
func NewEngine() *Engine {
	return &Engine{
		params:         map[string]*Value{},
		callbacks:      map[string]InputCallback{},
		templateLoader: defaultTemplateLoader,
	}
}

// SetTemplate sets the default inline template text.
func (e *Engine) SetTemplate(template string) { e.template = template; e.templateFn = "" }

// SetTemplateFile sets the default template to load from a file.
func (e *Engine) SetTemplateFile(path string) { e.template = ""; e.templateFn = path }

// SetParams replaces the default params map.
func (e *Engine) SetParams(params map[string]*Value) { e.params = params }

// SetTemplateLoader overrides the loader used for the default template and
// any @include/@import it triggers.
func (e *Engine) SetTemplateLoader(loader TemplateLoader) { e.templateLoader = loader }

// UseTemplate runs fn with the engine's template temporarily replaced,
// restoring the previous one when fn returns (by defer, whether or not fn
// panics) — the Go equivalent of mext.py's `with mext.use_template(...)`.
func (e *Engine) UseTemplate(template string, fn func()) {
	prevTemplate, prevFn := e.template, e.templateFn
	e.template, e.templateFn = template, ""
	defer func() { e.template, e.templateFn = prevTemplate, prevFn }()
	fn()
}

// UseTemplateFile is UseTemplate's file-backed counterpart.
func (e *Engine) UseTemplateFile(path string, fn func()) {
	prevTemplate, prevFn := e.template, e.templateFn
	e.template, e.templateFn = "", path
	defer func() { e.template, e.templateFn = prevTemplate, prevFn }()
	fn()
}

// UseParams runs fn with the engine's default params temporarily replaced.
func (e *Engine) UseParams(params map[string]*Value, fn func()) {
	prev := e.params
	e.params = params
	defer func() { e.params = prev }()
	fn()
}

// UseCallbacks runs fn with the engine's default @input callbacks
// temporarily replaced.
func (e *Engine) UseCallbacks(callbacks map[string]InputCallback, fn func()) {
	prev := e.callbacks
	e.callbacks = callbacks
	defer func() { e.callbacks = prev }()
	fn()
}

// Compose renders the engine's current template against its current
// params and callbacks, returning the rendered text and (only when
// callbacks are registered) the @input round-trip map, on a fresh Parser.
func (e *Engine) Compose() (string, map[string]*Value, error) {
	p := New()
	return p.Parse(e.template, e.templateFn, e.params, e.callbacks, e.templateLoader)
}

// Render is a one-shot convenience wrapper: render template against params
// with a fresh Parser and the default filesystem loader, discarding any
// @input round-trip (there are no callbacks to produce one).
func Render(template string, params map[string]*Value) (string, error) {
	p := New()
	out, _, err := p.Parse(template, "", params, nil, nil)
	return out, err
}

// RenderFile is Render's file-backed counterpart.
func RenderFile(path string, params map[string]*Value) (string, error) {
	p := New()
	out, _, err := p.Parse("", path, params, nil, nil)
	return out, err
}
