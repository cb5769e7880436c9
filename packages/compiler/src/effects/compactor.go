package effects

import (
	"fmt"

	"bindmeta-go/packages/compiler/src/binding_parser"
	"bindmeta-go/packages/compiler/src/util"
)

// DefaultFragmentConstructor is the call that rebuilds nested template markup
const DefaultFragmentConstructor = "fragment"

// Compactor canonicalizes the effect metadata of element prototypes.
// A Compactor holds no per-element state and may be shared between
// goroutines; each element gets its own CacheContext.
type Compactor struct {
	registry           *Registry
	parser             *binding_parser.Parser
	normalizeFragments bool
	fragmentCtor       string
	dynamicFns         binding_parser.DynamicFns
}

// CompactorOption configures a Compactor
type CompactorOption func(*Compactor)

// WithParser scans binding text through p instead of a private parser
func WithParser(p *binding_parser.Parser) CompactorOption {
	return func(c *Compactor) {
		c.parser = p
	}
}

// WithNormalizeFragments toggles re-rendering of nested template markup
func WithNormalizeFragments(normalize bool) CompactorOption {
	return func(c *Compactor) {
		c.normalizeFragments = normalize
	}
}

// WithFragmentConstructor sets the call emitted for nested template markup
func WithFragmentConstructor(name string) CompactorOption {
	return func(c *Compactor) {
		c.fragmentCtor = name
	}
}

// WithDynamicFns treats names as dynamic functions in every element, in
// addition to the element's own
func WithDynamicFns(names ...string) CompactorOption {
	return func(c *Compactor) {
		if c.dynamicFns == nil {
			c.dynamicFns = binding_parser.DynamicFns{}
		}
		for _, name := range names {
			c.dynamicFns[name] = true
		}
	}
}

// NewCompactor creates a Compactor resolving effect functions through registry
func NewCompactor(registry *Registry, opts ...CompactorOption) *Compactor {
	c := &Compactor{
		registry:           registry,
		normalizeFragments: true,
		fragmentCtor:       DefaultFragmentConstructor,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.parser == nil {
		p, err := binding_parser.NewParser(binding_parser.DefaultCacheSize)
		util.Assert(err == nil, "creating binding parser: %v", err)
		c.parser = p
	}
	return c
}

// Registry returns the function registry
func (c *Compactor) Registry() *Registry {
	return c.registry
}

// FragmentConstructor returns the call emitted for nested template markup
func (c *Compactor) FragmentConstructor() string {
	return c.fragmentCtor
}

// Result is the outcome of compacting one element
type Result struct {
	Element  *Element
	Context  *CacheContext
	Warnings []*util.ParseError
}

// compaction is the state of one element's pass
type compaction struct {
	*Compactor
	ctx        *CacheContext
	dynamicFns binding_parser.DynamicFns
	warnings   []*util.ParseError
}

// CompactElement compacts el in place. A nil ctx starts a fresh context.
// Effects are processed before the observer argument cache so that every
// cache name an effect references already has a token when the cache is
// rekeyed. Compacting an element a second time leaves it unchanged.
func (c *Compactor) CompactElement(ctx *CacheContext, el *Element) *Result {
	if ctx == nil {
		ctx = NewCacheContext()
	}
	run := &compaction{Compactor: c, ctx: ctx, dynamicFns: c.mergeDynamicFns(el.DynamicFnSet())}

	tables := []EffectTable{el.PropertyEffects}
	if el.TemplateInfo != nil {
		tables = append(tables, run.flatten(el.TemplateInfo)...)
	}
	for _, table := range tables {
		run.compactTable(table)
	}
	if !el.Compacted {
		el.ObserverArgCache = run.rekeyArgCache(el.ObserverArgCache)
		el.Compacted = true
	}

	return &Result{Element: el, Context: ctx, Warnings: run.warnings}
}

// CompactTable compacts a single effect table in place. A nil ctx starts a
// fresh context.
func (c *Compactor) CompactTable(ctx *CacheContext, table EffectTable) []*util.ParseError {
	if ctx == nil {
		ctx = NewCacheContext()
	}
	run := &compaction{Compactor: c, ctx: ctx}
	run.compactTable(table)
	return run.warnings
}

// CompactArgCache rekeys a raw cache through ctx, dropping names no effect
// compacted with ctx uses. A nil ctx knows no names.
func (c *Compactor) CompactArgCache(ctx *CacheContext, cache ArgCache) ArgCache {
	if ctx == nil {
		ctx = NewCacheContext()
	}
	run := &compaction{Compactor: c, ctx: ctx}
	return run.rekeyArgCache(cache)
}

func (c *Compactor) mergeDynamicFns(own binding_parser.DynamicFns) binding_parser.DynamicFns {
	if len(c.dynamicFns) == 0 {
		return own
	}
	merged := make(binding_parser.DynamicFns, len(c.dynamicFns)+len(own))
	for name, on := range c.dynamicFns {
		merged[name] = on
	}
	for name, on := range own {
		merged[name] = merged[name] || on
	}
	return merged
}

func (r *compaction) warn(format string, args ...interface{}) {
	r.warnings = append(r.warnings, util.NewParseWarning(nil, fmt.Sprintf(format, args...)))
}

// flatten walks the template tree breadth first with an explicit worklist,
// so every nesting level is visited once, and returns the effect tables of
// every template it reaches.
func (r *compaction) flatten(root *TemplateInfo) []EffectTable {
	tables := []EffectTable{root.PropertyEffects}
	r.rewriteContent(root)
	root.NodeInfoList = dropNil(root.NodeInfoList)

	worklist := [][]*NodeInfo{root.NodeInfoList}
	for len(worklist) > 0 {
		nodes := worklist[0]
		worklist = worklist[1:]
		for _, node := range nodes {
			node.Bindings = dropNil(node.Bindings)
			for _, b := range node.Bindings {
				r.scanBinding(b)
			}
			nested := node.TemplateInfo
			if nested == nil {
				continue
			}
			tables = append(tables, nested.PropertyEffects)
			r.rewriteContent(nested)
			nested.NodeInfoList = dropNil(nested.NodeInfoList)
			worklist = append(worklist, nested.NodeInfoList)
		}
	}
	return tables
}

func (r *compaction) rewriteContent(info *TemplateInfo) {
	if !r.normalizeFragments || info.Content == "" {
		return
	}
	normalized, err := NormalizeFragment(info.Content)
	if err != nil {
		r.warn("Could not normalize template content: %v", err)
		return
	}
	info.Content = normalized
}

func (r *compaction) scanBinding(b *NodeBinding) {
	if len(b.Parts) == 0 && b.Text != "" {
		result := r.parser.Parse(b.Text, r.dynamicFns)
		b.Parts = result.Parts
		r.warnings = append(r.warnings, result.Errors...)
	}
	for _, part := range b.Parts {
		if binding, ok := part.(*binding_parser.Binding); ok {
			binding.Validate()
		}
	}
}

func (r *compaction) compactTable(table EffectTable) {
	for _, cat := range Categories {
		effects := table[cat]
		for _, prop := range effects.Properties() {
			records := dropNil(effects[prop])
			compacted := make([]*EffectRecord, len(records))
			for i, rec := range records {
				compacted[i] = r.compactRecord(cat, prop, rec)
			}
			effects[prop] = compacted
		}
	}
}

// compactRecord returns a canonical copy of rec. Trigger and info are copied
// before stripping because the runtime shares them between records.
func (r *compaction) compactRecord(cat Category, prop string, rec *EffectRecord) *EffectRecord {
	if rec.Compacted {
		return rec
	}
	out := &EffectRecord{Fn: rec.Fn, Compacted: true}

	if rec.Trigger != nil {
		trigger := *rec.Trigger
		if !trigger.Structured {
			trigger.Wildcard = false
		}
		out.Trigger = &trigger
	}

	if out.Fn.Resolved() {
		out.Fn.Raw = ""
	} else if kind, ok := r.registry.Resolve(out.Fn.Raw); ok {
		out.Fn = FnRef{Kind: kind}
	} else {
		r.warn("Unknown effect function %q in %s effects of %q; emitting it unresolved", out.Fn.Raw, cat, prop)
	}

	if rec.Info != nil {
		out.Info = r.compactInfo(rec.Info)
	}
	return out
}

func (r *compaction) compactInfo(info *EffectInfo) *EffectInfo {
	out := *info
	out.Args = stripArgs(info.Args)
	out.Index = cloneIntPtr(info.Index)
	out.Binding = cloneIntPtr(info.Binding)
	out.Part = cloneIntPtr(info.Part)
	if out.CacheName != "" {
		out.CacheName = r.ctx.Resolve(out.CacheName)
	}
	return &out
}

func (r *compaction) rekeyArgCache(cache ArgCache) ArgCache {
	if cache == nil {
		return nil
	}
	out := make(ArgCache, len(cache))
	for _, key := range cache.Keys() {
		token, ok := r.ctx.Lookup(key)
		if !ok {
			continue
		}
		out[token] = stripArgs(cache[key])
	}
	return out
}

func stripArgs(args []*EffectArg) []*EffectArg {
	if args == nil {
		return nil
	}
	out := make([]*EffectArg, 0, len(args))
	for _, arg := range args {
		if arg != nil {
			out = append(out, stripArg(arg))
		}
	}
	return out
}

// dropNil removes the null entries a runtime dump may contain
func dropNil[T any](items []*T) []*T {
	out := items[:0]
	for _, item := range items {
		if item != nil {
			out = append(out, item)
		}
	}
	return out
}

func stripArg(arg *EffectArg) *EffectArg {
	out := *arg
	if out.Literal {
		out.Structured = false
		out.Wildcard = false
		out.RootProperty = ""
		return &out
	}
	out.Value = nil
	if !out.Structured {
		out.Wildcard = false
	}
	if out.RootProperty == out.Name {
		out.RootProperty = ""
	}
	return &out
}
