package output

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"bindmeta-go/packages/compiler/src/core"
	"bindmeta-go/packages/compiler/src/util"
)

// Read parses text produced by Emit back into the value model.
// fragmentConstructor names the call that denotes a Fragment; other dotted
// identifiers become Refs and bare identifiers become Code.
func Read(text string, fragmentConstructor string) (Value, error) {
	r := &reader{
		file:     util.NewParseSourceFile(text, "<emitted>"),
		input:    text,
		fragment: fragmentConstructor,
	}
	v, err := r.readValue()
	if err != nil {
		return nil, err
	}
	r.skipWhitespace()
	if r.index < len(r.input) {
		return nil, r.error("Unexpected trailing text")
	}
	return v, nil
}

type reader struct {
	file     *util.ParseSourceFile
	input    string
	index    int
	fragment string
}

func (r *reader) error(msg string) error {
	end := min(r.index+1, len(r.input))
	return util.NewParseError(r.file.SpanOf(r.index, end), msg)
}

func (r *reader) peek() int {
	if r.index >= len(r.input) {
		return core.CharEOF
	}
	return int(r.input[r.index])
}

func (r *reader) skipWhitespace() {
	for r.index < len(r.input) && core.IsWhitespace(r.peek()) {
		r.index++
	}
}

func (r *reader) expect(ch int) error {
	r.skipWhitespace()
	if r.peek() != ch {
		return r.error(fmt.Sprintf("Expected %q", rune(ch)))
	}
	r.index++
	return nil
}

func (r *reader) readValue() (Value, error) {
	r.skipWhitespace()
	ch := r.peek()
	switch {
	case ch == core.CharEOF:
		return nil, r.error("Unexpected end of input")
	case ch == core.CharLBRACE:
		return r.readObject()
	case ch == core.CharLBRACKET:
		return r.readArray()
	case core.IsQuote(ch):
		s, err := r.readString()
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case core.IsDigit(ch) || ch == core.CharMINUS:
		return r.readNumber()
	case core.IsIdentifierStart(ch):
		return r.readIdentifier()
	}
	return nil, r.error(fmt.Sprintf("Unexpected character %q", rune(ch)))
}

func (r *reader) readObject() (Value, error) {
	r.index++
	obj := NewObject()
	r.skipWhitespace()
	if r.peek() == core.CharRBRACE {
		r.index++
		return obj, nil
	}
	for {
		r.skipWhitespace()
		var key string
		switch ch := r.peek(); {
		case core.IsQuote(ch):
			s, err := r.readString()
			if err != nil {
				return nil, err
			}
			key = s
		case core.IsIdentifierStart(ch):
			key = r.readName()
		default:
			return nil, r.error("Expected object key")
		}
		if err := r.expect(core.CharCOLON); err != nil {
			return nil, err
		}
		v, err := r.readValue()
		if err != nil {
			return nil, err
		}
		obj.Set(key, v)
		r.skipWhitespace()
		switch r.peek() {
		case core.CharCOMMA:
			r.index++
		case core.CharRBRACE:
			r.index++
			return obj, nil
		default:
			return nil, r.error("Expected ',' or '}'")
		}
	}
}

func (r *reader) readArray() (Value, error) {
	r.index++
	arr := NewArray()
	r.skipWhitespace()
	if r.peek() == core.CharRBRACKET {
		r.index++
		return arr, nil
	}
	for {
		v, err := r.readValue()
		if err != nil {
			return nil, err
		}
		arr.Append(v)
		r.skipWhitespace()
		switch r.peek() {
		case core.CharCOMMA:
			r.index++
		case core.CharRBRACKET:
			r.index++
			return arr, nil
		default:
			return nil, r.error("Expected ',' or ']'")
		}
	}
}

func (r *reader) readString() (string, error) {
	quote := r.peek()
	r.index++
	var sb strings.Builder
	for {
		if r.index >= len(r.input) {
			return "", r.error("Unterminated string")
		}
		ch := r.input[r.index]
		switch {
		case int(ch) == quote:
			r.index++
			return sb.String(), nil
		case ch == '\\':
			r.index++
			if r.index >= len(r.input) {
				return "", r.error("Unterminated string")
			}
			esc := r.input[r.index]
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'u':
				if r.index+4 >= len(r.input) {
					return "", r.error("Invalid unicode escape")
				}
				code, err := strconv.ParseUint(r.input[r.index+1:r.index+5], 16, 32)
				if err != nil {
					return "", r.error("Invalid unicode escape")
				}
				sb.WriteRune(rune(code))
				r.index += 4
			default:
				sb.WriteByte(esc)
			}
			r.index++
		default:
			sb.WriteByte(ch)
			r.index++
		}
	}
}

func (r *reader) readNumber() (Value, error) {
	start := r.index
	if r.peek() == core.CharMINUS {
		r.index++
		if strings.HasPrefix(r.input[r.index:], "Infinity") {
			r.index += len("Infinity")
			return Number(math.Inf(-1)), nil
		}
	}
	for r.index < len(r.input) {
		ch := r.peek()
		if !core.IsDigit(ch) && ch != core.CharPERIOD && ch != 'e' && ch != 'E' && ch != '+' && ch != core.CharMINUS {
			break
		}
		r.index++
	}
	f, err := strconv.ParseFloat(r.input[start:r.index], 64)
	if err != nil {
		r.index = start
		return nil, r.error("Invalid number")
	}
	return Number(f), nil
}

func (r *reader) readName() string {
	start := r.index
	for r.index < len(r.input) && core.IsIdentifierPart(r.peek()) {
		r.index++
	}
	return r.input[start:r.index]
}

func (r *reader) readIdentifier() (Value, error) {
	segments := []string{r.readName()}
	for r.peek() == core.CharPERIOD {
		r.index++
		if !core.IsIdentifierStart(r.peek()) {
			return nil, r.error("Expected identifier after '.'")
		}
		segments = append(segments, r.readName())
	}

	if len(segments) == 1 {
		switch segments[0] {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		case "null":
			return Null{}, nil
		case "NaN":
			return Number(math.NaN()), nil
		case "Infinity":
			return Number(math.Inf(1)), nil
		}
		if segments[0] == r.fragment && r.peek() == core.CharLPAREN {
			return r.readFragment(segments[0])
		}
		return Code(segments[0]), nil
	}

	last := len(segments) - 1
	return Ref{Namespace: strings.Join(segments[:last], "."), Name: segments[last]}, nil
}

func (r *reader) readFragment(ctor string) (Value, error) {
	r.index++
	r.skipWhitespace()
	if !core.IsQuote(r.peek()) {
		return nil, r.error("Expected fragment markup string")
	}
	markup, err := r.readString()
	if err != nil {
		return nil, err
	}
	if err := r.expect(core.CharRPAREN); err != nil {
		return nil, err
	}
	return Fragment{Constructor: ctor, Markup: markup}, nil
}
