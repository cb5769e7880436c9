package effects

import "strconv"

// CacheContext assigns short tokens to long cache names for one element.
// Tokens are dense decimal integers in order of first use, and distinct
// keys always get distinct tokens. A context must not be shared between
// elements.
type CacheContext struct {
	aliases map[string]string
	order   []string
	next    int
}

// Alias is one cache name and the token assigned to it
type Alias struct {
	Key   string
	Token string
}

// NewCacheContext creates an empty context
func NewCacheContext() *CacheContext {
	return &CacheContext{aliases: map[string]string{}}
}

// Resolve returns the token for key, assigning the next one on first use
func (c *CacheContext) Resolve(key string) string {
	if token, ok := c.aliases[key]; ok {
		return token
	}
	token := strconv.Itoa(c.next)
	c.next++
	c.aliases[key] = token
	c.order = append(c.order, key)
	return token
}

// Lookup returns the token for key without assigning one
func (c *CacheContext) Lookup(key string) (string, bool) {
	token, ok := c.aliases[key]
	return token, ok
}

// Len returns the number of assigned tokens
func (c *CacheContext) Len() int {
	return len(c.order)
}

// Aliases returns the assignments in order of first use
func (c *CacheContext) Aliases() []Alias {
	out := make([]Alias, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, Alias{Key: key, Token: c.aliases[key]})
	}
	return out
}
