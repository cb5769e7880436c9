package binding_parser_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"bindmeta-go/packages/compiler/src/binding_parser"
	"bindmeta-go/packages/compiler/src/util"
)

func parse(text string) []binding_parser.BindingPart {
	return binding_parser.ParseBindings(text, nil).Parts
}

func lit(text string) *binding_parser.LiteralPart {
	return &binding_parser.LiteralPart{Text: text}
}

func TestParseBindings_Literals(t *testing.T) {
	for _, text := range []string{"plain text", "a { b ] c", "x[y{z", "single } closer", "ünïcødé"} {
		t.Run(text, func(t *testing.T) {
			result := binding_parser.ParseBindings(text, nil)
			want := []binding_parser.BindingPart{lit(text)}
			if diff := cmp.Diff(want, result.Parts); diff != "" {
				t.Errorf("ParseBindings() mismatch (-want +got):\n%s", diff)
			}
			if len(result.Errors) != 0 {
				t.Errorf("expected no diagnostics, got %v", result.Errors)
			}
		})
	}

	t.Run("should emit nothing for empty input", func(t *testing.T) {
		if parts := parse(""); len(parts) != 0 {
			t.Errorf("expected no parts, got %v", parts)
		}
	})
}

func TestParseBindings_Paths(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []binding_parser.BindingPart
	}{
		{
			name: "should split literal text around a two-way binding",
			text: "Hello {{name}}!",
			want: []binding_parser.BindingPart{
				lit("Hello "),
				&binding_parser.Binding{Mode: binding_parser.BindingModeTwoWay, TargetPath: "name", Dependencies: []string{"name"}},
				lit("!"),
			},
		},
		{
			name: "should parse a custom event",
			text: "{{value::input-changed}}",
			want: []binding_parser.BindingPart{
				&binding_parser.Binding{
					Mode:         binding_parser.BindingModeTwoWay,
					TargetPath:   "value",
					CustomEvent:  "input-changed",
					Dependencies: []string{"value"},
				},
			},
		},
		{
			name: "should parse negation",
			text: "[[!active]]",
			want: []binding_parser.BindingPart{
				&binding_parser.Binding{Mode: binding_parser.BindingModeOneWay, Negate: true, TargetPath: "active", Dependencies: []string{"active"}},
			},
		},
		{
			name: "should trim whitespace around the path",
			text: "[[  ! user.name  ]]",
			want: []binding_parser.BindingPart{
				&binding_parser.Binding{Negate: true, TargetPath: "user.name", Dependencies: []string{"user.name"}},
			},
		},
		{
			name: "should treat colons as path text in one-way bindings",
			text: "[[a::b]]",
			want: []binding_parser.BindingPart{
				&binding_parser.Binding{TargetPath: "a::b", Dependencies: []string{"a::b"}},
			},
		},
		{
			name: "should parse adjacent bindings",
			text: "[[a]][[b]]",
			want: []binding_parser.BindingPart{
				&binding_parser.Binding{TargetPath: "a", Dependencies: []string{"a"}},
				&binding_parser.Binding{TargetPath: "b", Dependencies: []string{"b"}},
			},
		},
		{
			name: "should re-dispatch a failed opener",
			text: "[{{a}}",
			want: []binding_parser.BindingPart{
				lit("["),
				&binding_parser.Binding{Mode: binding_parser.BindingModeTwoWay, TargetPath: "a", Dependencies: []string{"a"}},
			},
		},
		{
			name: "should skip closers inside quoted text",
			text: "[[a']]'b]]",
			want: []binding_parser.BindingPart{
				&binding_parser.Binding{TargetPath: "a']]'b", Dependencies: []string{"a']]'b"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := binding_parser.ParseBindings(tt.text, nil)
			if diff := cmp.Diff(tt.want, result.Parts); diff != "" {
				t.Errorf("ParseBindings(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
			if len(result.Errors) != 0 {
				t.Errorf("expected no diagnostics, got %v", result.Errors)
			}
		})
	}
}

func TestParseBindings_Methods(t *testing.T) {
	t.Run("should parse literal and property arguments", func(t *testing.T) {
		want := []binding_parser.BindingPart{
			&binding_parser.Binding{
				Mode: binding_parser.BindingModeOneWay,
				Signature: &binding_parser.MethodSignature{
					MethodName: "compute",
					Args: []binding_parser.Arg{
						&binding_parser.PropertyRefArg{Name: "a"},
						&binding_parser.LiteralArg{RawText: "'x'", Value: "x"},
						&binding_parser.LiteralArg{RawText: "3", Value: float64(3)},
					},
					IsStatic: false,
				},
				Dependencies: []string{"a"},
			},
		}
		if diff := cmp.Diff(want, parse("[[compute(a, 'x', 3)]]")); diff != "" {
			t.Errorf("ParseBindings() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should classify paths, wildcards, booleans and negative numbers", func(t *testing.T) {
		parts := parse("{{fn(user.name, items.*, true, false, -1.5, -x)}}")
		b := parts[0].(*binding_parser.Binding)
		wantArgs := []binding_parser.Arg{
			&binding_parser.PropertyRefArg{Name: "user.name", Structured: true},
			&binding_parser.PropertyRefArg{Name: "items", Structured: true, Wildcard: true},
			&binding_parser.LiteralArg{RawText: "true", Value: true},
			&binding_parser.LiteralArg{RawText: "false", Value: false},
			&binding_parser.LiteralArg{RawText: "-1.5", Value: -1.5},
			&binding_parser.PropertyRefArg{Name: "-x"},
		}
		if diff := cmp.Diff(wantArgs, b.Signature.Args); diff != "" {
			t.Errorf("args mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"user.name", "items", "-x"}, b.Dependencies); diff != "" {
			t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
		}
		if b.Signature.IsStatic {
			t.Errorf("expected a non-static signature")
		}
	})

	t.Run("should unescape string arguments", func(t *testing.T) {
		parts := parse(`[[fmt('a&comma; b', "it\'s", 'x)]]y')]]`)
		args := parts[0].(*binding_parser.Binding).Signature.Args
		want := []interface{}{"a, b", "it's", "x)]]y"}
		var got []interface{}
		for _, arg := range args {
			got = append(got, arg.(*binding_parser.LiteralArg).Value)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("values mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should depend on the method name when all arguments are literal", func(t *testing.T) {
		b := parse("[[label('x')]]")[0].(*binding_parser.Binding)
		if b.Signature.IsStatic {
			t.Errorf("expected the method dependency to clear IsStatic")
		}
		if diff := cmp.Diff([]string{"label"}, b.Dependencies); diff != "" {
			t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should depend on dynamic functions", func(t *testing.T) {
		result := binding_parser.ParseBindings("[[format(value, value)]]", binding_parser.DynamicFns{"format": true})
		b := result.Parts[0].(*binding_parser.Binding)
		if diff := cmp.Diff([]string{"value", "format"}, b.Dependencies); diff != "" {
			t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
		}
		if b.Signature.IsStatic {
			t.Errorf("expected a dynamic function to be non-static")
		}
	})

	t.Run("should accept an empty argument list and spaces before the closer", func(t *testing.T) {
		b := parse("[[now() ]]")[0].(*binding_parser.Binding)
		if b.Signature.MethodName != "now" || len(b.Signature.Args) != 0 {
			t.Errorf("unexpected signature %+v", b.Signature)
		}
	})

	t.Run("should parse negated method calls", func(t *testing.T) {
		b := parse("[[!isEmpty(list)]]")[0].(*binding_parser.Binding)
		if !b.Negate || b.Signature.MethodName != "isEmpty" {
			t.Errorf("unexpected binding %+v", b)
		}
	})
}

func TestParseBindings_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     []binding_parser.BindingPart
		warnings int
	}{
		{
			name:     "should fall back to text for an unterminated opener",
			text:     "{{foo",
			want:     []binding_parser.BindingPart{lit("{{foo")},
			warnings: 1,
		},
		{
			name:     "should keep text after an unterminated opener literal",
			text:     "{{a [[b]]",
			want:     []binding_parser.BindingPart{lit("{{a [[b]]")},
			warnings: 1,
		},
		{
			name: "should resume scanning at the failing character",
			text: "x[[f(a)][[b]]",
			want: []binding_parser.BindingPart{
				lit("x[[f(a)]"),
				&binding_parser.Binding{TargetPath: "b", Dependencies: []string{"b"}},
			},
			warnings: 1,
		},
		{
			name: "should warn on a single closer after a method call",
			text: "[[f(a)] x",
			want: []binding_parser.BindingPart{
				lit("[[f(a)] x"),
			},
			warnings: 1,
		},
		{
			name:     "should warn on an empty binding",
			text:     "a{{}}b",
			want:     []binding_parser.BindingPart{lit("a{{}}b")},
			warnings: 1,
		},
		{
			name:     "should warn on a missing method name",
			text:     "[[(a)]]",
			want:     []binding_parser.BindingPart{lit("[[(a)]]")},
			warnings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := binding_parser.ParseBindings(tt.text, nil)
			if diff := cmp.Diff(tt.want, result.Parts); diff != "" {
				t.Errorf("ParseBindings(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
			if len(result.Errors) != tt.warnings {
				t.Fatalf("expected %d diagnostics, got %v", tt.warnings, result.Errors)
			}
			for _, e := range result.Errors {
				if e.Level != util.ParseErrorLevelWarning {
					t.Errorf("expected warning level, got %v", e.Level)
				}
			}
		})
	}

	t.Run("should name the offending fragment", func(t *testing.T) {
		result := binding_parser.ParseBindings("{{foo", nil)
		if len(result.Errors) != 1 || !strings.Contains(result.Errors[0].Msg, `"{{foo"`) {
			t.Errorf("unexpected diagnostics %v", result.Errors)
		}
	})

	t.Run("should terminate on pathological input", func(t *testing.T) {
		text := strings.Repeat("{{[[(", 200)
		result := binding_parser.ParseBindings(text, nil)
		if got := binding_parser.ToText(result.Parts); got != text {
			t.Errorf("expected text to be preserved")
		}
	})

	t.Run("should scan a long run of openers once", func(t *testing.T) {
		text := strings.Repeat("{{", 100000)
		result := binding_parser.ParseBindings(text, nil)
		if diff := cmp.Diff([]binding_parser.BindingPart{lit(text)}, result.Parts); diff != "" {
			t.Errorf("ParseBindings() mismatch (-want +got):\n%s", diff)
		}
		if len(result.Errors) != 1 {
			t.Fatalf("expected 1 diagnostic, got %d", len(result.Errors))
		}
		if msg := result.Errors[0].Msg; len(msg) > 200 {
			t.Errorf("diagnostic quotes %d bytes of input", len(msg))
		}
	})

	t.Run("should report each empty binding without splitting the text", func(t *testing.T) {
		text := strings.Repeat("a{{}}", 20000)
		result := binding_parser.ParseBindings(text, nil)
		if diff := cmp.Diff([]binding_parser.BindingPart{lit(text)}, result.Parts); diff != "" {
			t.Errorf("ParseBindings() mismatch (-want +got):\n%s", diff)
		}
		if len(result.Errors) != 20000 {
			t.Fatalf("expected 20000 diagnostics, got %d", len(result.Errors))
		}
		last := result.Errors[len(result.Errors)-1].Span
		if got, want := last.Start.Offset, len(text)-4; got != want {
			t.Errorf("last span starts at %d, want %d", got, want)
		}
		if got := last.String(); got != "{{}}" {
			t.Errorf("last span covers %q, want %q", got, "{{}}")
		}
	})
}

func TestToText(t *testing.T) {
	for _, text := range []string{
		"Hello {{name}}!",
		"[[!active]]",
		"{{value::input-changed}}",
		"[[compute(a, 'x', 3, items.*)]]",
	} {
		t.Run(text, func(t *testing.T) {
			if got := binding_parser.ToText(parse(text)); got != text {
				t.Errorf("ToText() = %q, want %q", got, text)
			}
		})
	}
}
