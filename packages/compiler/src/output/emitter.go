package output

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"bindmeta-go/packages/compiler/src/util"
)

var (
	singleQuoteEscapeStringRe = regexp.MustCompile(`'|\\|\n|\r|\x{2028}|\x{2029}`)
	fragmentEscapeRe          = regexp.MustCompile(`'|\\|\x60|\n|\r|\x{2028}|\x{2029}`)
)

// EmitterContext accumulates emitted text
type EmitterContext struct {
	sb strings.Builder
}

// Print appends part to the output
func (ctx *EmitterContext) Print(part string) {
	ctx.sb.WriteString(part)
}

// ToSource returns the emitted text
func (ctx *EmitterContext) ToSource() string {
	return ctx.sb.String()
}

// Emit renders v in its minimal loadable form. Object keys that are legal
// identifiers are unquoted, references and fragments are written as code.
func Emit(v Value) string {
	ctx := &EmitterContext{}
	EmitTo(ctx, v)
	return ctx.ToSource()
}

// EmitTo renders v into ctx
func EmitTo(ctx *EmitterContext, v Value) {
	switch val := v.(type) {
	case nil, Null:
		ctx.Print("null")
	case Bool:
		ctx.Print(strconv.FormatBool(bool(val)))
	case Number:
		ctx.Print(formatNumber(float64(val)))
	case String:
		ctx.Print(EscapeString(string(val)))
	case *Array:
		ctx.Print("[")
		for i, item := range val.Items {
			if i > 0 {
				ctx.Print(",")
			}
			EmitTo(ctx, item)
		}
		ctx.Print("]")
	case *Object:
		ctx.Print("{")
		for i, entry := range val.Entries {
			if i > 0 {
				ctx.Print(",")
			}
			ctx.Print(EscapeIdentifier(entry.Key) + ":")
			EmitTo(ctx, entry.Value)
		}
		ctx.Print("}")
	case Ref:
		if val.Namespace != "" {
			ctx.Print(val.Namespace + ".")
		}
		ctx.Print(val.Name)
	case Fragment:
		ctx.Print(val.Constructor + "(" + EscapeFragment(val.Markup) + ")")
	case Code:
		ctx.Print(string(val))
	default:
		panic(util.Error("unknown output value"))
	}
}

// EscapeIdentifier returns key unquoted when it is a legal identifier,
// otherwise as a single-quoted string
func EscapeIdentifier(key string) string {
	if util.IsLegalIdentifier(key) {
		return key
	}
	return EscapeString(key)
}

// EscapeString single-quotes s
func EscapeString(s string) string {
	return "'" + singleQuoteEscapeStringRe.ReplaceAllStringFunc(s, escapeMatch) + "'"
}

// EscapeFragment single-quotes markup, additionally escaping backticks
func EscapeFragment(markup string) string {
	return "'" + fragmentEscapeRe.ReplaceAllStringFunc(markup, escapeMatch) + "'"
}

func escapeMatch(match string) string {
	switch match {
	case "\n":
		return `\n`
	case "\r":
		return `\r`
	case "\u2028":
		return `\u2028`
	case "\u2029":
		return `\u2029`
	default:
		return `\` + match
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
