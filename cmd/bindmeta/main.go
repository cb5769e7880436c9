package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	compiler "bindmeta-go/packages/compiler/src"
	"bindmeta-go/packages/compiler/src/binding_parser"
	"bindmeta-go/packages/compiler/src/config"
	"bindmeta-go/packages/compiler/src/effects"
	"bindmeta-go/packages/compiler/src/output"
)

func usage() {
	fmt.Println(`bindmeta - precompile element effect metadata
Usage: bindmeta <command> [flags] [args]

Commands:
  compile [flags] <dump.json>   Compact every element in a dump and print embed statements
  scan [flags] <text>           Scan binding text and print its parts
  help                          Show help

Environment:
  BINDMETA_FUNCTION_NAMESPACE, BINDMETA_DATA_NAMESPACE,
  BINDMETA_FRAGMENT_CONSTRUCTOR, BINDMETA_DYNAMIC_FNS,
  BINDMETA_NORMALIZE_FRAGMENTS, BINDMETA_PARSER_CACHE_SIZE
  (also read from a .env file in the working directory)`)
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("bindmeta: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	var err error
	switch cmd {
	case "help":
		usage()
	case "compile":
		err = runCompile(os.Args[2:])
	case "scan":
		err = runScan(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Printf("%s error: %v", cmd, err)
		os.Exit(1)
	}
}

// configFlags registers the flags shared by every command. Only flags set on
// the command line are turned into options, so unset flags keep env values.
func configFlags(fs *flag.FlagSet) func() []config.CompilerConfigOption {
	fnNamespace := fs.String("fn-namespace", "", "namespace effect functions are referenced under")
	dataNamespace := fs.String("data-namespace", "", "object the compacted metadata is assigned into")
	fragmentCtor := fs.String("fragment", "", "constructor call emitted for template markup")
	dynamicFns := fs.String("dynamic-fns", "", "comma separated method names treated as dynamic functions")
	normalize := fs.Bool("normalize", true, "re-render template markup without comments")
	cacheSize := fs.Int("cache-size", config.DefaultParserCacheSize, "number of memoized binding parses")

	return func() []config.CompilerConfigOption {
		var opts []config.CompilerConfigOption
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "fn-namespace":
				opts = append(opts, config.WithFunctionNamespace(*fnNamespace))
			case "data-namespace":
				opts = append(opts, config.WithDataNamespace(*dataNamespace))
			case "fragment":
				opts = append(opts, config.WithFragmentConstructor(*fragmentCtor))
			case "dynamic-fns":
				opts = append(opts, config.WithDynamicFns(config.SplitList(*dynamicFns)...))
			case "normalize":
				opts = append(opts, config.WithNormalizeFragments(*normalize))
			case "cache-size":
				opts = append(opts, config.WithParserCacheSize(*cacheSize))
			}
		})
		return opts
	}
}

func runCompile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	options := configFlags(fs)
	out := fs.String("o", "", "write statements to this file instead of stdout")
	strict := fs.Bool("strict", false, "fail when any element produced warnings")
	verbose := fs.Bool("v", false, "print cache aliases for every element")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("compile expects exactly one dump file, got %d", fs.NArg())
	}

	cfg, err := config.LoadFromEnv(options()...)
	if err != nil {
		return err
	}
	elements, err := compiler.ParseDump(fs.Arg(0))
	if err != nil {
		return err
	}
	c, err := compiler.NewCompiler(cfg, compiler.WithLogger(log.Default()))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	outputs, err := c.CompileAll(ctx, elements)
	if err != nil {
		return err
	}

	var sb strings.Builder
	warnings := 0
	for _, o := range outputs {
		sb.WriteString(o.Statement)
		sb.WriteString("\n")
		warnings += len(o.Warnings)
		if *verbose {
			for _, a := range o.Aliases {
				log.Printf("%s: %s -> %s", o.Tag, a.Key, a.Token)
			}
		}
	}
	log.Printf("compiled %d element(s), %d warning(s)", len(outputs), warnings)
	if *strict && warnings > 0 {
		return fmt.Errorf("%d warning(s) in strict mode", warnings)
	}

	if *out == "" {
		_, err = fmt.Print(sb.String())
		return err
	}
	if err := os.WriteFile(*out, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	options := configFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("scan expects exactly one text argument, got %d", fs.NArg())
	}
	cfg, err := config.LoadFromEnv(options()...)
	if err != nil {
		return err
	}

	dynamicFns := binding_parser.DynamicFns{}
	for _, name := range cfg.DynamicFns {
		dynamicFns[name] = true
	}
	result := binding_parser.ParseBindings(fs.Arg(0), dynamicFns)
	for _, w := range result.Errors {
		log.Printf("%s", w)
	}
	for i, part := range result.Parts {
		fmt.Printf("%d: %s\n", i, output.Emit(effects.PartValue(part)))
	}
	return nil
}
