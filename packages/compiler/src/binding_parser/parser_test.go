package binding_parser_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"bindmeta-go/packages/compiler/src/binding_parser"
)

func TestParser(t *testing.T) {
	p, err := binding_parser.NewParser(8)
	if err != nil {
		t.Fatalf("NewParser() error = %v", err)
	}

	t.Run("should match the uncached scanner", func(t *testing.T) {
		for _, text := range []string{"Hello {{name}}!", "[[compute(a, 'x', 3)]]", "{{foo", "no bindings"} {
			want := binding_parser.ParseBindings(text, nil)
			got := p.Parse(text, nil)
			if diff := cmp.Diff(want.Parts, got.Parts); diff != "" {
				t.Errorf("Parse(%q) parts mismatch (-want +got):\n%s", text, diff)
			}
			if len(want.Errors) != len(got.Errors) {
				t.Errorf("Parse(%q) got %d diagnostics, want %d", text, len(got.Errors), len(want.Errors))
			}
		}
	})

	t.Run("should not share results between callers", func(t *testing.T) {
		first := p.Parse("[[a]]", nil)
		first.Parts[0].(*binding_parser.Binding).TargetPath = "mutated"
		second := p.Parse("[[a]]", nil)
		if got := second.Parts[0].(*binding_parser.Binding).TargetPath; got != "a" {
			t.Errorf("cached result was mutated: %q", got)
		}
	})

	t.Run("should key results by dynamic functions", func(t *testing.T) {
		plain := p.Parse("[[f(x)]]", nil).Parts[0].(*binding_parser.Binding)
		dynamic := p.Parse("[[f(x)]]", binding_parser.DynamicFns{"f": true}).Parts[0].(*binding_parser.Binding)
		if diff := cmp.Diff([]string{"x"}, plain.Dependencies); diff != "" {
			t.Errorf("plain dependencies mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"x", "f"}, dynamic.Dependencies); diff != "" {
			t.Errorf("dynamic dependencies mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should not cache text without delimiters", func(t *testing.T) {
		before := p.Len()
		p.Parse("just text", nil)
		if p.Len() != before {
			t.Errorf("expected cache size %d, got %d", before, p.Len())
		}
	})
}
