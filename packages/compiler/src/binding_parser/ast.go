package binding_parser

import (
	"strconv"
	"strings"

	"bindmeta-go/packages/compiler/src/util"
)

// BindingMode distinguishes one-way `[[...]]` from two-way `{{...}}` bindings
type BindingMode int

const (
	BindingModeOneWay BindingMode = iota
	BindingModeTwoWay
)

// Delimiter returns the opening character the runtime stores for the mode
func (m BindingMode) Delimiter() string {
	if m == BindingModeTwoWay {
		return "{"
	}
	return "["
}

// String returns the string representation of the mode
func (m BindingMode) String() string {
	if m == BindingModeTwoWay {
		return "TwoWay"
	}
	return "OneWay"
}

// BindingPart is one segment of a scanned text fragment: *LiteralPart or *Binding
type BindingPart interface {
	isBindingPart()
}

// LiteralPart is verbatim text between bindings
type LiteralPart struct {
	Text string
}

func (*LiteralPart) isBindingPart() {}

// Binding is a single `[[...]]` or `{{...}}` expression.
// Exactly one of TargetPath and Signature is set.
type Binding struct {
	Mode       BindingMode
	Negate     bool
	TargetPath string
	// CustomEvent is the event named with `{{path::event}}`, empty when absent
	CustomEvent  string
	Signature    *MethodSignature
	Dependencies []string
}

func (*Binding) isBindingPart() {}

// IsMethod reports whether the binding is a method call
func (b *Binding) IsMethod() bool {
	return b.Signature != nil
}

// Validate asserts the path-or-signature invariant
func (b *Binding) Validate() {
	util.Assert(b.TargetPath != "" || b.Signature != nil, "binding has neither a target path nor a signature")
	util.Assert(b.TargetPath == "" || b.Signature == nil, "binding %q has both a target path and a signature", b.TargetPath)
	if b.Signature != nil {
		util.Assert(b.Signature.MethodName != "", "method signature without a method name")
	}
}

// addDependency appends name unless it is already present
func (b *Binding) addDependency(name string) {
	for _, d := range b.Dependencies {
		if d == name {
			return
		}
	}
	b.Dependencies = append(b.Dependencies, name)
}

// MethodSignature describes a method-call binding such as `compute(a, 'x', 3)`.
// IsStatic holds while every argument is a literal; the scanner clears it
// once the method name itself becomes a dependency.
type MethodSignature struct {
	MethodName string
	Args       []Arg
	IsStatic   bool
}

// Arg is a method argument: *LiteralArg or *PropertyRefArg
type Arg interface {
	isArg()
	// Raw returns the argument as written in the template
	Raw() string
}

// LiteralArg is a string, number or boolean argument.
// Value holds a string, float64 or bool.
type LiteralArg struct {
	RawText string
	Value   interface{}
}

func (*LiteralArg) isArg() {}

// Raw returns the argument as written in the template
func (a *LiteralArg) Raw() string { return a.RawText }

// PropertyRefArg is a property or path argument
type PropertyRefArg struct {
	Name       string
	Structured bool
	Wildcard   bool
}

func (*PropertyRefArg) isArg() {}

// Raw returns the argument as written in the template
func (a *PropertyRefArg) Raw() string {
	if a.Wildcard {
		return a.Name + WildcardSuffix
	}
	return a.Name
}

// RootProperty returns the first segment of the path
func (a *PropertyRefArg) RootProperty() string {
	return RootProperty(a.Name)
}

// WildcardSuffix marks a path argument that observes all sub-paths
const WildcardSuffix = ".*"

// RootProperty returns the segment of path before the first separator
func RootProperty(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}

// IsPath reports whether name contains a path separator
func IsPath(name string) bool {
	return strings.IndexByte(name, '.') >= 0
}

// NewPropertyRefArg classifies a property argument name
func NewPropertyRefArg(name string) *PropertyRefArg {
	arg := &PropertyRefArg{Name: name, Structured: IsPath(name)}
	if arg.Structured && strings.HasSuffix(name, WildcardSuffix) {
		arg.Wildcard = true
		arg.Name = strings.TrimSuffix(name, WildcardSuffix)
	}
	return arg
}

// ToText renders parts back to template text
func ToText(parts []BindingPart) string {
	var sb strings.Builder
	for _, part := range parts {
		switch p := part.(type) {
		case *LiteralPart:
			sb.WriteString(p.Text)
		case *Binding:
			opener, closer := "[[", "]]"
			if p.Mode == BindingModeTwoWay {
				opener, closer = "{{", "}}"
			}
			sb.WriteString(opener)
			if p.Negate {
				sb.WriteByte('!')
			}
			if p.Signature != nil {
				sb.WriteString(p.Signature.MethodName)
				sb.WriteByte('(')
				for i, arg := range p.Signature.Args {
					if i > 0 {
						sb.WriteString(", ")
					}
					sb.WriteString(arg.Raw())
				}
				sb.WriteByte(')')
			} else {
				sb.WriteString(p.TargetPath)
			}
			if p.CustomEvent != "" {
				sb.WriteString("::")
				sb.WriteString(p.CustomEvent)
			}
			sb.WriteString(closer)
		}
	}
	return sb.String()
}

// CloneParts deep-copies a part list
func CloneParts(parts []BindingPart) []BindingPart {
	if parts == nil {
		return nil
	}
	out := make([]BindingPart, len(parts))
	for i, part := range parts {
		switch p := part.(type) {
		case *LiteralPart:
			out[i] = &LiteralPart{Text: p.Text}
		case *Binding:
			out[i] = p.Clone()
		}
	}
	return out
}

// Clone deep-copies the binding
func (b *Binding) Clone() *Binding {
	c := *b
	c.Dependencies = append([]string(nil), b.Dependencies...)
	if b.Signature != nil {
		c.Signature = b.Signature.Clone()
	}
	return &c
}

// Clone deep-copies the signature
func (s *MethodSignature) Clone() *MethodSignature {
	c := *s
	c.Args = CloneArgs(s.Args)
	return &c
}

// CloneArgs deep-copies an argument list
func CloneArgs(args []Arg) []Arg {
	if args == nil {
		return nil
	}
	out := make([]Arg, len(args))
	for i, arg := range args {
		switch a := arg.(type) {
		case *LiteralArg:
			c := *a
			out[i] = &c
		case *PropertyRefArg:
			c := *a
			out[i] = &c
		}
	}
	return out
}

// parseNumber converts a numeric argument, reporting false when raw is not a number
func parseNumber(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
