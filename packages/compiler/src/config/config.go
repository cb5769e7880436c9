package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"bindmeta-go/packages/compiler/src/util"
)

const (
	// DefaultFunctionNamespace is the runtime object holding effect functions
	DefaultFunctionNamespace = "Polymer.Effects"
	// DefaultDataNamespace is the object compacted metadata is stored under
	DefaultDataNamespace = "Polymer.PrecompiledEffects"
	// DefaultFragmentConstructor is the call that rebuilds template markup
	DefaultFragmentConstructor = "fragment"
	// DefaultParserCacheSize bounds the binding parse memo
	DefaultParserCacheSize = 1024
)

// Environment variables read by LoadFromEnv
const (
	EnvFunctionNamespace   = "BINDMETA_FUNCTION_NAMESPACE"
	EnvDataNamespace       = "BINDMETA_DATA_NAMESPACE"
	EnvFragmentConstructor = "BINDMETA_FRAGMENT_CONSTRUCTOR"
	EnvDynamicFns          = "BINDMETA_DYNAMIC_FNS"
	EnvNormalizeFragments  = "BINDMETA_NORMALIZE_FRAGMENTS"
	EnvParserCacheSize     = "BINDMETA_PARSER_CACHE_SIZE"
)

// CompilerConfig represents the compiler configuration
type CompilerConfig struct {
	FunctionNamespace   string
	DataNamespace       string
	FragmentConstructor string
	DynamicFns          []string
	NormalizeFragments  bool
	ParserCacheSize     int
}

// NewCompilerConfig creates a new CompilerConfig with optional parameters
func NewCompilerConfig(opts ...CompilerConfigOption) *CompilerConfig {
	config := &CompilerConfig{
		FunctionNamespace:   DefaultFunctionNamespace,
		DataNamespace:       DefaultDataNamespace,
		FragmentConstructor: DefaultFragmentConstructor,
		NormalizeFragments:  true,
		ParserCacheSize:     DefaultParserCacheSize,
	}

	for _, opt := range opts {
		opt(config)
	}

	return config
}

// CompilerConfigOption is a function that modifies CompilerConfig
type CompilerConfigOption func(*CompilerConfig)

// WithFunctionNamespace sets the namespace function references are emitted under
func WithFunctionNamespace(ns string) CompilerConfigOption {
	return func(c *CompilerConfig) {
		c.FunctionNamespace = ns
	}
}

// WithDataNamespace sets the object the embed statement assigns into
func WithDataNamespace(ns string) CompilerConfigOption {
	return func(c *CompilerConfig) {
		c.DataNamespace = ns
	}
}

// WithFragmentConstructor sets the call emitted for template markup
func WithFragmentConstructor(name string) CompilerConfigOption {
	return func(c *CompilerConfig) {
		c.FragmentConstructor = name
	}
}

// WithDynamicFns adds method names treated as dynamic functions for every element
func WithDynamicFns(names ...string) CompilerConfigOption {
	return func(c *CompilerConfig) {
		c.DynamicFns = mergeNames(c.DynamicFns, names)
	}
}

// WithNormalizeFragments sets whether template markup is re-rendered
func WithNormalizeFragments(normalize bool) CompilerConfigOption {
	return func(c *CompilerConfig) {
		c.NormalizeFragments = normalize
	}
}

// WithParserCacheSize sets the number of memoized binding parses
func WithParserCacheSize(size int) CompilerConfigOption {
	return func(c *CompilerConfig) {
		c.ParserCacheSize = size
	}
}

// Validate reports the first setting the compiler cannot run with.
// Namespaces and the fragment constructor are emitted as bare member
// accesses, so each dotted segment must be a legal identifier.
func (c *CompilerConfig) Validate() error {
	if err := validatePath("function namespace", c.FunctionNamespace); err != nil {
		return err
	}
	if err := validatePath("data namespace", c.DataNamespace); err != nil {
		return err
	}
	if err := validatePath("fragment constructor", c.FragmentConstructor); err != nil {
		return err
	}
	if c.ParserCacheSize <= 0 {
		return fmt.Errorf("parser cache size must be positive, got %d", c.ParserCacheSize)
	}
	return nil
}

// LoadFromEnv builds a config from a .env file and BINDMETA_* variables.
// Variables already set in the process win over the .env file, and opts
// are applied last so command flags override both.
func LoadFromEnv(opts ...CompilerConfigOption) (*CompilerConfig, error) {
	_ = godotenv.Load()

	var envOpts []CompilerConfigOption
	if v := strings.TrimSpace(os.Getenv(EnvFunctionNamespace)); v != "" {
		envOpts = append(envOpts, WithFunctionNamespace(v))
	}
	if v := strings.TrimSpace(os.Getenv(EnvDataNamespace)); v != "" {
		envOpts = append(envOpts, WithDataNamespace(v))
	}
	if v := strings.TrimSpace(os.Getenv(EnvFragmentConstructor)); v != "" {
		envOpts = append(envOpts, WithFragmentConstructor(v))
	}
	if v := strings.TrimSpace(os.Getenv(EnvDynamicFns)); v != "" {
		envOpts = append(envOpts, WithDynamicFns(SplitList(v)...))
	}
	if v := strings.TrimSpace(os.Getenv(EnvNormalizeFragments)); v != "" {
		normalize, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvNormalizeFragments, err)
		}
		envOpts = append(envOpts, WithNormalizeFragments(normalize))
	}
	if v := strings.TrimSpace(os.Getenv(EnvParserCacheSize)); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvParserCacheSize, err)
		}
		envOpts = append(envOpts, WithParserCacheSize(size))
	}

	config := NewCompilerConfig(append(envOpts, opts...)...)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func validatePath(setting, path string) error {
	if path == "" {
		return fmt.Errorf("%s must not be empty", setting)
	}
	for _, segment := range strings.Split(path, ".") {
		if !util.IsLegalIdentifier(segment) {
			return fmt.Errorf("%s %q: %q is not an identifier", setting, path, segment)
		}
	}
	return nil
}

// SplitList splits a comma separated list, dropping blank entries
func SplitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func mergeNames(existing, names []string) []string {
	seen := make(map[string]bool, len(existing)+len(names))
	out := make([]string, 0, len(existing)+len(names))
	for _, n := range append(append([]string{}, existing...), names...) {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
