package binding_parser

import (
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"bindmeta-go/packages/compiler/src/util"
)

// DefaultCacheSize is the number of scanned fragments a Parser remembers
const DefaultCacheSize = 1024

// Parser memoizes ParseBindings. Templates repeat the same attribute values
// and text nodes many times, so results are cached by text and dynamic
// function set. It is safe for concurrent use.
type Parser struct {
	cache *lru.Cache[string, *ParseResult]
}

// NewParser creates a Parser remembering up to size fragments
func NewParser(size int) (*Parser, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *ParseResult](size)
	if err != nil {
		return nil, err
	}
	return &Parser{cache: cache}, nil
}

// Parse scans text, returning a private copy of the cached result
func (p *Parser) Parse(text string, dynamicFns DynamicFns) *ParseResult {
	if !HasBindings(text) {
		if text == "" {
			return &ParseResult{}
		}
		return &ParseResult{Parts: []BindingPart{&LiteralPart{Text: text}}}
	}
	key := cacheKey(text, dynamicFns)
	if cached, ok := p.cache.Get(key); ok {
		return cached.clone()
	}
	result := ParseBindings(text, dynamicFns)
	p.cache.Add(key, result)
	return result.clone()
}

// Len returns the number of cached fragments
func (p *Parser) Len() int {
	return p.cache.Len()
}

func (r *ParseResult) clone() *ParseResult {
	return &ParseResult{
		Parts:  CloneParts(r.Parts),
		Errors: append([]*util.ParseError(nil), r.Errors...),
	}
}

// cacheKey joins the text with the sorted dynamic names that affect the result
func cacheKey(text string, dynamicFns DynamicFns) string {
	if len(dynamicFns) == 0 {
		return text
	}
	names := make([]string, 0, len(dynamicFns))
	for name, on := range dynamicFns {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return text + "\x00" + strings.Join(names, "\x00")
}
