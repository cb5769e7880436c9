// Package compiler provides the build-time precompiler for element effect
// metadata: it parses the binding DSL of templates, canonicalizes the effect
// tables a runtime would otherwise derive at load time, and serializes them
// into a blob that can be embedded in shipped assets.
//
// Main sub-packages:
//
//   - src: Compiler facade (compact, serialize and embed one element; CompileAll)
//   - src/binding_parser: delimiter scanner for `[[...]]` / `{{...}}` bindings and its LRU memo
//   - src/effects: effect model, function registry, cache-name remapping and the compactor
//   - src/output: canonical value model, emitter and reader
//   - src/config: CompilerConfig options and environment loading
//   - src/core: character classification used by the scanner
//   - src/util: parse spans, diagnostics and assertions
//
// Binding syntax:
//
//	[[path]]               one-way binding
//	{{path}}               two-way binding
//	{{path::event}}        two-way binding notified by a custom event
//	[[!path]]              negated binding
//	[[method(a, 'x', 1)]]  computed binding; literals are strings, numbers, true and false
//
// The `bindmeta` command in cmd/bindmeta runs the compiler over a JSON dump
// of element prototypes and prints one embed statement per element.
package compiler
