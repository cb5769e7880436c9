package compiler_test

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	compiler "bindmeta-go/packages/compiler/src"
	"bindmeta-go/packages/compiler/src/config"
	"bindmeta-go/packages/compiler/src/effects"
	"bindmeta-go/packages/compiler/src/output"
)

const dump = `[
  {
    "is": "x-card",
    "propertyEffects": {
      "compute": {
        "label": [{
          "trigger": {"name": "title"},
          "fn": "runComputedEffect",
          "info": {"methodName": "_label", "args": [{"name": "title"}], "methodInfo": "label", "cacheName": "_label(title)"}
        }]
      }
    },
    "templateInfo": {
      "nodeInfoList": [{"bindings": [{"kind": "text", "text": "[[label]] [[format(count)]]"}]}]
    },
    "observerArgCache": {"_label(title)": [{"name": "title"}]}
  },
  {
    "is": "x-badge",
    "propertyEffects": {
      "observe": {"count": [{"trigger": {"name": "count"}, "fn": "runLegacyEffect"}]}
    }
  }
]`

func mustCompiler(t *testing.T, cfg *config.CompilerConfig, opts ...compiler.Option) *compiler.Compiler {
	t.Helper()
	c, err := compiler.NewCompiler(cfg, opts...)
	if err != nil {
		t.Fatalf("NewCompiler() error = %v", err)
	}
	return c
}

func mustDump(t *testing.T) []*effects.Element {
	t.Helper()
	elements, err := compiler.ReadDump(strings.NewReader(dump))
	if err != nil {
		t.Fatalf("ReadDump() error = %v", err)
	}
	return elements
}

func TestEmbedStatement(t *testing.T) {
	got := compiler.EmbedStatement("Polymer.PrecompiledEffects", "x-card", "{}")
	want := "Polymer.PrecompiledEffects['x-card']={};"
	if got != want {
		t.Errorf("EmbedStatement() = %q, want %q", got, want)
	}
}

func TestCompile(t *testing.T) {
	t.Run("should emit a readable blob under the tag key", func(t *testing.T) {
		cfg := config.NewCompilerConfig(config.WithFunctionNamespace("Fx"), config.WithDataNamespace("Meta"))
		c := mustCompiler(t, cfg)
		out := c.Compile(mustDump(t)[0])

		if !strings.HasPrefix(out.Statement, "Meta['x-card']=") || !strings.HasSuffix(out.Statement, ";") {
			t.Errorf("Statement = %q", out.Statement)
		}
		if !strings.Contains(out.Blob, "fn:Fx.compute") {
			t.Errorf("Blob does not reference the function namespace: %s", out.Blob)
		}
		if _, err := output.Read(out.Blob, cfg.FragmentConstructor); err != nil {
			t.Errorf("Read() error = %v", err)
		}
		want := []effects.Alias{{Key: "_label(title)", Token: "0"}}
		if diff := cmp.Diff(want, out.Aliases); diff != "" {
			t.Errorf("Aliases mismatch (-want +got):\n%s", diff)
		}
		if len(out.Warnings) != 0 {
			t.Errorf("unexpected warnings: %v", out.Warnings)
		}
	})

	t.Run("should apply configured dynamic functions", func(t *testing.T) {
		c := mustCompiler(t, config.NewCompilerConfig(config.WithDynamicFns("format")))
		el := mustDump(t)[0]
		out := c.Compile(el)
		if !strings.Contains(out.Blob, "dependencies:['count','format']") {
			t.Errorf("format was not treated as dynamic: %s", out.Blob)
		}
		if len(el.DynamicFns) != 0 {
			t.Errorf("Compile() changed the element's dynamic functions: %v", el.DynamicFns)
		}

		again := c.Compile(el)
		if again.Blob != out.Blob {
			t.Errorf("recompiling changed the blob:\n%s\n%s", out.Blob, again.Blob)
		}
		if len(el.DynamicFns) != 0 {
			t.Errorf("recompiling grew the element's dynamic functions: %v", el.DynamicFns)
		}
	})

	t.Run("should log warnings", func(t *testing.T) {
		var buf bytes.Buffer
		c := mustCompiler(t, nil, compiler.WithLogger(log.New(&buf, "", 0)))
		out := c.Compile(mustDump(t)[1])
		if len(out.Warnings) != 1 {
			t.Fatalf("expected 1 warning, got %v", out.Warnings)
		}
		if !strings.Contains(buf.String(), "x-badge") || !strings.Contains(buf.String(), "runLegacyEffect") {
			t.Errorf("log output = %q", buf.String())
		}
		if !strings.Contains(out.Blob, "fn:'runLegacyEffect'") {
			t.Errorf("unknown function was not kept: %s", out.Blob)
		}
	})

	t.Run("should reject an invalid config", func(t *testing.T) {
		_, err := compiler.NewCompiler(config.NewCompilerConfig(config.WithParserCacheSize(0)))
		if err == nil {
			t.Errorf("NewCompiler() accepted a zero cache size")
		}
	})
}

func TestCompileAll(t *testing.T) {
	t.Run("should keep input order", func(t *testing.T) {
		var elements []*effects.Element
		for i := 0; i < 20; i++ {
			el := mustDump(t)[i%2]
			el.Tag = fmt.Sprintf("x-el-%d", i)
			elements = append(elements, el)
		}
		c := mustCompiler(t, nil, compiler.WithWorkers(4))
		outputs, err := c.CompileAll(context.Background(), elements)
		if err != nil {
			t.Fatalf("CompileAll() error = %v", err)
		}
		for i, out := range outputs {
			if want := fmt.Sprintf("x-el-%d", i); out.Tag != want {
				t.Errorf("outputs[%d].Tag = %q, want %q", i, out.Tag, want)
			}
		}
		if outputs[0].Blob != outputs[2].Blob {
			t.Errorf("identical elements compiled differently:\n%s\n%s", outputs[0].Blob, outputs[2].Blob)
		}
	})

	t.Run("should stop on a cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c := mustCompiler(t, nil)
		if _, err := c.CompileAll(ctx, mustDump(t)); err == nil {
			t.Errorf("CompileAll() ignored the cancelled context")
		}
	})
}

func TestReadDump(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"should reject malformed JSON", `[{"is": "x-a"`},
		{"should reject a missing tag", `[{"propertyEffects": {}}]`},
		{"should reject an unknown category", `[{"is": "x-a", "propertyEffects": {"bogus": {}}}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := compiler.ReadDump(strings.NewReader(tt.input)); err == nil {
				t.Errorf("ReadDump() accepted %s", tt.input)
			}
		})
	}
}
