package effects

import (
	"encoding/json"
	"fmt"
	"sort"

	"bindmeta-go/packages/compiler/src/binding_parser"
)

// Category groups the effects a property change triggers
type Category int

const (
	CategoryCompute Category = iota
	CategoryObserve
	CategoryNotify
	CategoryReflect
	CategoryPropagate
	CategoryReadOnly
)

// Categories lists every category in emission order
var Categories = []Category{
	CategoryCompute,
	CategoryObserve,
	CategoryNotify,
	CategoryReflect,
	CategoryPropagate,
	CategoryReadOnly,
}

var categoryKeys = map[Category]string{
	CategoryCompute:   "compute",
	CategoryObserve:   "observe",
	CategoryNotify:    "notify",
	CategoryReflect:   "reflect",
	CategoryPropagate: "propagate",
	CategoryReadOnly:  "readOnly",
}

// String returns the key the category is stored under
func (c Category) String() string {
	return categoryKeys[c]
}

// MarshalText implements encoding.TextMarshaler
func (c Category) MarshalText() ([]byte, error) {
	key, ok := categoryKeys[c]
	if !ok {
		return nil, fmt.Errorf("unknown effect category %d", int(c))
	}
	return []byte(key), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Category) UnmarshalText(text []byte) error {
	cat, ok := ParseCategory(string(text))
	if !ok {
		return fmt.Errorf("unknown effect category %q", text)
	}
	*c = cat
	return nil
}

// ParseCategory returns the category stored under key
func ParseCategory(key string) (Category, bool) {
	for cat, k := range categoryKeys {
		if k == key {
			return cat, true
		}
	}
	return 0, false
}

// EffectTable maps each category to the effects keyed by triggering property
type EffectTable map[Category]PropertyEffects

// PropertyEffects maps a triggering property to its ordered effects
type PropertyEffects map[string][]*EffectRecord

// UnmarshalJSON decodes category keys such as "compute" or "readOnly"
func (t *EffectTable) UnmarshalJSON(data []byte) error {
	var raw map[string]PropertyEffects
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	table := make(EffectTable, len(raw))
	for key, effects := range raw {
		var cat Category
		if err := cat.UnmarshalText([]byte(key)); err != nil {
			return err
		}
		table[cat] = effects
	}
	*t = table
	return nil
}

// Add appends an effect for property under category
func (t EffectTable) Add(cat Category, property string, record *EffectRecord) {
	effects, ok := t[cat]
	if !ok {
		effects = PropertyEffects{}
		t[cat] = effects
	}
	effects[property] = append(effects[property], record)
}

// Properties returns the triggering properties of effects in sorted order
func (p PropertyEffects) Properties() []string {
	props := make([]string, 0, len(p))
	for prop := range p {
		props = append(props, prop)
	}
	sort.Strings(props)
	return props
}

// Trigger identifies the property change that runs an effect
type Trigger struct {
	Name       string `json:"name"`
	Structured bool   `json:"structured,omitempty"`
	Wildcard   bool   `json:"wildcard,omitempty"`
}

// EffectRecord is one effect run when its trigger changes.
// Compacted marks records produced by a Compactor; they are left as is when
// compacted again.
type EffectRecord struct {
	Trigger   *Trigger    `json:"trigger"`
	Fn        FnRef       `json:"fn"`
	Info      *EffectInfo `json:"info,omitempty"`
	Compacted bool        `json:"-"`
}

// EffectInfo is the effect-specific payload.
// Method effects use MethodName/Args; computed effects also set MethodInfo
// to the computed property. Binding effects address the template by index.
type EffectInfo struct {
	MethodName string       `json:"methodName,omitempty"`
	Args       []*EffectArg `json:"args,omitempty"`
	MethodInfo string       `json:"methodInfo,omitempty"`
	DynamicFn  bool         `json:"dynamicFn,omitempty"`
	CacheName  string       `json:"cacheName,omitempty"`
	Property   string       `json:"property,omitempty"`
	Index      *int         `json:"index,omitempty"`
	Binding    *int         `json:"binding,omitempty"`
	Part       *int         `json:"part,omitempty"`
}

// EffectArg is a method argument as recorded by the runtime
type EffectArg struct {
	Name         string      `json:"name"`
	Value        interface{} `json:"value,omitempty"`
	Literal      bool        `json:"literal,omitempty"`
	Structured   bool        `json:"structured,omitempty"`
	Wildcard     bool        `json:"wildcard,omitempty"`
	RootProperty string      `json:"rootProperty,omitempty"`
}

// ArgFromBinding converts a scanned method argument to its effect form
func ArgFromBinding(arg binding_parser.Arg) *EffectArg {
	switch a := arg.(type) {
	case *binding_parser.LiteralArg:
		return &EffectArg{Name: a.RawText, Value: a.Value, Literal: true}
	case *binding_parser.PropertyRefArg:
		return &EffectArg{
			Name:         a.Name,
			Structured:   a.Structured,
			Wildcard:     a.Wildcard,
			RootProperty: a.RootProperty(),
		}
	}
	return nil
}

// ArgCache maps a cache name to the argument list cached for it
type ArgCache map[string][]*EffectArg

// Keys returns the cache names in sorted order
func (c ArgCache) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TemplateInfo is the binding metadata of one template and its nested templates
type TemplateInfo struct {
	PropertyEffects EffectTable `json:"propertyEffects,omitempty"`
	NodeInfoList    []*NodeInfo `json:"nodeInfoList,omitempty"`
	// Content is the markup of a nested template
	Content string `json:"content,omitempty"`
}

// NodeInfo describes one bound node of a template
type NodeInfo struct {
	Bindings     []*NodeBinding `json:"bindings,omitempty"`
	TemplateInfo *TemplateInfo  `json:"templateInfo,omitempty"`
}

// NodeBinding is a bound attribute, property or text node.
// Parts are scanned from Text when the runtime did not provide them.
type NodeBinding struct {
	Kind   string                       `json:"kind"`
	Target string                       `json:"target,omitempty"`
	Text   string                       `json:"text,omitempty"`
	Parts  []binding_parser.BindingPart `json:"-"`
}

// Element is everything recorded for one element prototype
type Element struct {
	Tag              string        `json:"is"`
	PropertyEffects  EffectTable   `json:"propertyEffects,omitempty"`
	TemplateInfo     *TemplateInfo `json:"templateInfo,omitempty"`
	ObserverArgCache ArgCache      `json:"observerArgCache,omitempty"`
	DynamicFns       []string      `json:"dynamicFns,omitempty"`
	// Compacted is set once the element has been through CompactElement;
	// its arg cache is then keyed by tokens.
	Compacted        bool          `json:"-"`
}

// DynamicFnSet returns the element's dynamic functions as a lookup set
func (e *Element) DynamicFnSet() binding_parser.DynamicFns {
	if len(e.DynamicFns) == 0 {
		return nil
	}
	set := make(binding_parser.DynamicFns, len(e.DynamicFns))
	for _, name := range e.DynamicFns {
		set[name] = true
	}
	return set
}

func intPtr(i int) *int {
	return &i
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	return intPtr(*p)
}
