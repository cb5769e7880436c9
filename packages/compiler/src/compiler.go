package compiler

import (
	"context"
	"fmt"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"

	"bindmeta-go/packages/compiler/src/binding_parser"
	"bindmeta-go/packages/compiler/src/config"
	"bindmeta-go/packages/compiler/src/effects"
	"bindmeta-go/packages/compiler/src/output"
	"bindmeta-go/packages/compiler/src/util"
)

// Compiler turns element prototype dumps into embeddable metadata blobs
type Compiler struct {
	config    *config.CompilerConfig
	parser    *binding_parser.Parser
	compactor *effects.Compactor
	logger    *log.Logger
	workers   int
}

// Option configures a Compiler
type Option func(*Compiler)

// WithLogger reports warnings through logger as they are produced
func WithLogger(logger *log.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// WithWorkers bounds the number of elements CompileAll processes at once
func WithWorkers(n int) Option {
	return func(c *Compiler) {
		c.workers = n
	}
}

// NewCompiler creates a new compiler instance
func NewCompiler(cfg *config.CompilerConfig, opts ...Option) (*Compiler, error) {
	if cfg == nil {
		cfg = config.NewCompilerConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	parser, err := binding_parser.NewParser(cfg.ParserCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create binding parser: %w", err)
	}

	c := &Compiler{
		config:  cfg,
		parser:  parser,
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.compactor = effects.NewCompactor(
		effects.DefaultRegistry(cfg.FunctionNamespace),
		effects.WithParser(parser),
		effects.WithNormalizeFragments(cfg.NormalizeFragments),
		effects.WithFragmentConstructor(cfg.FragmentConstructor),
		effects.WithDynamicFns(cfg.DynamicFns...),
	)
	return c, nil
}

// Config returns the configuration the compiler was built with
func (c *Compiler) Config() *config.CompilerConfig {
	return c.config
}

// Compactor returns the compactor used for every element
func (c *Compiler) Compactor() *effects.Compactor {
	return c.compactor
}

// Output is the compiled form of one element
type Output struct {
	Tag       string
	Blob      string
	Statement string
	Aliases   []effects.Alias
	Warnings  []*util.ParseError
}

// Compile compacts el in place and serializes it. Each call uses a fresh
// cache context, so outputs of different elements never share tokens.
// Configured dynamic functions apply in addition to el.DynamicFns, which is
// left untouched.
func (c *Compiler) Compile(el *effects.Element) *Output {
	result := c.compactor.CompactElement(nil, el)
	blob := output.Emit(c.compactor.ElementValue(el))

	out := &Output{
		Tag:       el.Tag,
		Blob:      blob,
		Statement: EmbedStatement(c.config.DataNamespace, el.Tag, blob),
		Aliases:   result.Context.Aliases(),
		Warnings:  result.Warnings,
	}
	if c.logger != nil {
		for _, w := range out.Warnings {
			c.logger.Printf("%s: %s", el.Tag, w)
		}
	}
	return out
}

// CompileAll compiles elements in parallel. Outputs keep the input order.
func (c *Compiler) CompileAll(ctx context.Context, elements []*effects.Element) ([]*Output, error) {
	outputs := make([]*Output, len(elements))
	g, ctx := errgroup.WithContext(ctx)
	if c.workers > 0 {
		g.SetLimit(c.workers)
	}
	for i, el := range elements {
		i, el := i, el
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outputs[i] = c.Compile(el)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// EmbedStatement renders the assignment that stores blob for tag
func EmbedStatement(namespace, tag, blob string) string {
	return fmt.Sprintf("%s[%s]=%s;", namespace, output.Emit(output.String(tag)), blob)
}
