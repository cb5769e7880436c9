package output

// Value is a node of the canonical value model rendered by Emit.
// Implementations: Null, Bool, Number, String, *Array, *Object, Ref, Fragment, Code.
type Value interface {
	isValue()
}

// Null is the null literal
type Null struct{}

// Bool is a boolean literal
type Bool bool

// Number is a numeric literal
type Number float64

// String is a quoted string literal
type String string

// Array is an ordered list of values
type Array struct {
	Items []Value
}

// Object is a map literal whose entries keep insertion order
type Object struct {
	Entries []*Entry
}

// Entry is one key/value pair of an Object
type Entry struct {
	Key   string
	Value Value
}

// Ref is a bare member access such as `Effects.compute`, emitted unquoted
type Ref struct {
	Namespace string
	Name      string
}

// Fragment is a structural markup fragment emitted as a constructor call,
// e.g. `fragment('<div></div>')`
type Fragment struct {
	Constructor string
	Markup      string
}

// Code is verbatim code text emitted without quoting
type Code string

func (Null) isValue()     {}
func (Bool) isValue()     {}
func (Number) isValue()   {}
func (String) isValue()   {}
func (*Array) isValue()   {}
func (*Object) isValue()  {}
func (Ref) isValue()      {}
func (Fragment) isValue() {}
func (Code) isValue()     {}

// NewObject creates an empty Object
func NewObject() *Object {
	return &Object{}
}

// NewArray creates an Array holding items
func NewArray(items ...Value) *Array {
	return &Array{Items: items}
}

// Set stores value under key, replacing an existing entry in place
func (o *Object) Set(key string, value Value) *Object {
	for _, e := range o.Entries {
		if e.Key == key {
			e.Value = value
			return o
		}
	}
	o.Entries = append(o.Entries, &Entry{Key: key, Value: value})
	return o
}

// Get returns the value stored under key
func (o *Object) Get(key string) (Value, bool) {
	for _, e := range o.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Len returns the number of entries
func (o *Object) Len() int {
	return len(o.Entries)
}

// Append adds an item to the array
func (a *Array) Append(v Value) *Array {
	a.Items = append(a.Items, v)
	return a
}
