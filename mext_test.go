package mext

import (
	"strings"
	"testing"
)

// The scenario table mirrors spec.md §8's "Concrete scenarios" table, one
// case per row; rows 5 and 6 have their own tests below.
func TestConcreteScenarios(t *testing.T) {
	cases := []struct {
		name     string
		template string
		params   map[string]*Value
		want     string
	}{
		{
			name:     "scenario 1: plain field substitution",
			template: "{var}",
			params:   map[string]*Value{"var": String("Pass")},
			want:     "Pass",
		},
		{
			name:     "scenario 2: final_strip off preserves trailing blank line",
			template: "{@option final_strip off}\nEmpty line at the end.\n",
			params:   nil,
			want:     "Empty line at the end.\n",
		},
		{
			name:     "scenario 3: @set overwrites a local",
			template: "{var1}\n{@set var1 var2}\n{var1}",
			params:   map[string]*Value{"var1": String("V1"), "var2": String("V2")},
			want:     "V1\nV2",
		},
		{
			name:     "scenario 4: @for over a list",
			template: "{@for item in arr}\n- {item}\n{@endfor}",
			params:   map[string]*Value{"arr": List(String("A"), String("B"), String("C"))},
			want:     "- A\n- B\n- C",
		},
		{
			name:     "scenario 7: @trim_newline around an empty block",
			template: "Start.\n\n{@trim_newline}{@if true}{@endif}\n\nEnd.",
			params:   nil,
			want:     "Start.\n\nEnd.",
		},
		{
			name:     "scenario 8: @for over a map preserves insertion order",
			template: "{@for k,v in d}{k}:{v}\n{@endfor}",
			params: map[string]*Value{"d": func() *Value {
				om := NewOrderedMap()
				om.Set("a", Int(1))
				om.Set("b", Int(2))
				return Map(om)
			}()},
			want: "a:1\nb:2",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Render(c.template, c.params)
			if err != nil {
				t.Fatalf("Render error: %v", err)
			}
			if got != c.want {
				t.Errorf("Render(%q) = %q, want %q", c.template, got, c.want)
			}
		})
	}
}

// Scenario 5: `{@if empty v}e{@else}n{@endif}` across seven values of v.
func TestScenario5EmptyAcrossKinds(t *testing.T) {
	template := "{@if empty v}e{@else}n{@endif}"
	cases := []struct {
		name string
		v    *Value
		want string
	}{
		{"empty list", List(), "e"},
		{"empty map", Map(NewOrderedMap()), "e"},
		{"null", Null(), "e"},
		{"non-empty list", List(Int(1)), "n"},
		{"non-empty map", func() *Value {
			om := NewOrderedMap()
			om.Set("a", Int(1))
			return Map(om)
		}(), "n"},
		{"zero int", Int(0), "n"},
		{"non-empty string", String("a"), "n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Render(template, map[string]*Value{"v": c.v})
			if err != nil {
				t.Fatalf("Render error: %v", err)
			}
			if got != c.want {
				t.Errorf("for %s: got %q, want %q", c.name, got, c.want)
			}
		})
	}
}

// Scenario 6: @format json on an ordered list of maps preserves field order
// and indents two spaces.
func TestScenario6FormatJSONPreservesOrder(t *testing.T) {
	a := NewOrderedMap()
	a.Set("n", String("A"))
	b := NewOrderedMap()
	b.Set("n", String("B"))
	params := map[string]*Value{"arr": List(Map(a), Map(b))}

	got, err := Render("{@format json arr}", params)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	want := "[\n  {\n    \"n\": \"A\"\n  },\n  {\n    \"n\": \"B\"\n  }\n]"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// Universal invariant: a template with no directives round-trips through
// strip (final_strip on by default) or verbatim (final_strip off).
func TestUniversalInvariantNoDirectives(t *testing.T) {
	template := "  hello world  \n"

	got, err := Render(template, map[string]*Value{})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got != strings.TrimSpace(template) {
		t.Errorf("final_strip on: got %q, want %q", got, strings.TrimSpace(template))
	}

	got, err = Render("{@option final_strip off}"+template, map[string]*Value{})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got != template {
		t.Errorf("final_strip off: got %q, want %q", got, template)
	}
}

// Universal invariant: `@if true` and `@if not false` wrapping a block give
// identical output to the block bare.
func TestUniversalInvariantIfIdentity(t *testing.T) {
	body := "inner text"
	bare, err := Render(body, nil)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	for _, cond := range []string{"true", "not false"} {
		wrapped, err := Render("{@if "+cond+"}"+body+"{@endif}", nil)
		if err != nil {
			t.Fatalf("Render error for %q: %v", cond, err)
		}
		if wrapped != bare {
			t.Errorf("@if %s: got %q, want %q", cond, wrapped, bare)
		}
	}
}

// Idempotence of @comment: balanced comment blocks yield no output
// regardless of body.
func TestCommentYieldsNoOutput(t *testing.T) {
	cases := []string{
		"{@comment}ignored{@endcomment}",
		"{@comment}{@if nosuch}{@endif}{@endcomment}",
		"before{@comment}middle{@endcomment}after",
	}
	want := []string{"", "", "beforeafter"}
	for i, template := range cases {
		got, err := Render(template, nil)
		if err != nil {
			t.Fatalf("Render error: %v", err)
		}
		if got != want[i] {
			t.Errorf("Render(%q) = %q, want %q", template, got, want[i])
		}
	}
}

// @for over an empty iterable emits nothing and does not perturb
// unrelated locals.
func TestForOverEmptyIterable(t *testing.T) {
	template := "{@set before yes}{@for item in arr}-{item}-{@endfor}{before}"
	got, err := Render(template, map[string]*Value{"arr": List(), "yes": String("ok")})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got != "ok" {
		t.Errorf("got %q, want %q", got, "ok")
	}
}

func TestFieldSubstitutionIsLiteral(t *testing.T) {
	params := map[string]*Value{
		"name": String("Ada"),
		"age":  Int(37),
	}
	got, err := Render("{name} is {age}", params)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got != "Ada is 37" {
		t.Errorf("got %q", got)
	}
}
