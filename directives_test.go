package mext

import "testing"

func TestOptionTwoTokenGrammar(t *testing.T) {
	got, err := Render(`{@option final_strip off} padded `, nil)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got != " padded " {
		t.Errorf("got %q, want %q", got, " padded ")
	}

	if _, err := Render(`{@option final_strip maybe}x`, nil); err == nil {
		t.Error("expected a syntax error for a non on/off @option value")
	}
}

func TestSetWithQuotedStringValue(t *testing.T) {
	got, err := Render(`{@set greeting "hello world"}{greeting}`, nil)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got != "hello world" {
		t.Errorf("got %q, want %q", got, "hello world")
	}
}

func TestDefaultOnlyBindsWhenNotVisible(t *testing.T) {
	got, err := Render(`{@default name "fallback"}{name}`, map[string]*Value{"name": String("given")})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got != "given" {
		t.Errorf("got %q, want %q", got, "given")
	}

	got, err = Render(`{@default name "fallback"}{name}`, nil)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got != "fallback" {
		t.Errorf("got %q, want %q", got, "fallback")
	}
}

func TestCountResetsToZeroOnFailure(t *testing.T) {
	got, err := Render(`{@count missing}{missing}`, nil)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got != "0" {
		t.Errorf("got %q, want %q", got, "0")
	}

	got, err = Render(`{@count n}{n}{@count n}{n}`, map[string]*Value{"n": Int(5)})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got != "67" {
		t.Errorf("got %q, want %q", got, "67")
	}
}

func TestFormatNameThenVarOrder(t *testing.T) {
	got, err := Render(`{@format upper name}`, map[string]*Value{"name": String("ada")})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got != "ADA" {
		t.Errorf("got %q, want %q", got, "ADA")
	}
}

func TestFieldReferenceAsciiConversion(t *testing.T) {
	got, err := Render(`{name!a}`, map[string]*Value{"name": String("café")})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got != "caf\\u00e9" {
		t.Errorf("got %q, want %q", got, "caf\\u00e9")
	}
}

func TestFieldReferenceReprAndStrConversions(t *testing.T) {
	got, err := Render(`{name!r}`, map[string]*Value{"name": String("ada")})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got != `"ada"` {
		t.Errorf("got %q, want %q", got, `"ada"`)
	}

	got, err = Render(`{n!s}`, map[string]*Value{"n": Int(7)})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got != "7" {
		t.Errorf("got %q, want %q", got, "7")
	}
}

func TestIfConditionalGrammar(t *testing.T) {
	cases := []struct {
		name     string
		template string
		params   map[string]*Value
		want     string
	}{
		{"undefined true", `{@if undefined missing}y{@else}n{@endif}`, nil, "y"},
		{"undefined false", `{@if undefined v}y{@else}n{@endif}`, map[string]*Value{"v": Int(1)}, "n"},
		{"novalue on empty", `{@if novalue v}y{@else}n{@endif}`, map[string]*Value{"v": List()}, "y"},
		{"novalue on missing", `{@if novalue missing}y{@else}n{@endif}`, nil, "y"},
		{"not empty", `{@if not empty v}y{@else}n{@endif}`, map[string]*Value{"v": List(Int(1))}, "y"},
		{"plain truthiness", `{@if v}y{@else}n{@endif}`, map[string]*Value{"v": Int(0)}, "n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Render(c.template, c.params)
			if err != nil {
				t.Fatalf("Render error: %v", err)
			}
			if got != c.want {
				t.Errorf("got %q, want %q", got, c.want)
			}
		})
	}
}
