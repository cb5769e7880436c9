package binding_parser

import (
	"fmt"
	"strings"

	"bindmeta-go/packages/compiler/src/core"
	"bindmeta-go/packages/compiler/src/util"
)

// DynamicFns is the set of method names that must re-run on every change.
// A nil set is empty.
type DynamicFns map[string]bool

// Has reports whether name is a dynamic function
func (d DynamicFns) Has(name string) bool {
	return d != nil && d[name]
}

// ParseResult holds the scanned parts of one text fragment and any diagnostics
type ParseResult struct {
	Parts  []BindingPart
	Errors []*util.ParseError
}

// Bindings returns only the binding parts
func (r *ParseResult) Bindings() []*Binding {
	var out []*Binding
	for _, part := range r.Parts {
		if b, ok := part.(*Binding); ok {
			out = append(out, b)
		}
	}
	return out
}

// HasBindings reports whether text contains an opening delimiter
func HasBindings(text string) bool {
	return strings.Contains(text, "[[") || strings.Contains(text, "{{")
}

// ParseBindings scans an attribute value or text node into binding parts
func ParseBindings(text string, dynamicFns DynamicFns) *ParseResult {
	return ParseSourceBindings(util.NewParseSourceFile(text, ""), dynamicFns)
}

// ParseSourceBindings scans file.Content; diagnostics carry spans into file
func ParseSourceBindings(file *util.ParseSourceFile, dynamicFns DynamicFns) *ParseResult {
	s := newScanner(file, dynamicFns)
	s.scan()
	return &ParseResult{Parts: s.parts, Errors: s.errors}
}

type scanState int

const (
	stateInitial scanState = iota
	stateConfirmOpen
	stateSkipLeadingWS
	stateBody
	stateConfirmClose
	stateString
	stateConfirmColon
	stateEventBody
	stateConfirmEventClose
	stateMethodArgs
	stateStringArg
	stateNumberArg
	stateVariableArg
	stateAwaitClose1
	stateAwaitClose2
)

var stateNames = [...]string{
	stateInitial:           "INITIAL",
	stateConfirmOpen:       "CONFIRM_OPEN",
	stateSkipLeadingWS:     "SKIP_LEADING_WS",
	stateBody:              "BODY",
	stateConfirmClose:      "CONFIRM_CLOSE",
	stateString:            "STRING",
	stateConfirmColon:      "CONFIRM_COLON",
	stateEventBody:         "EVENT_BODY",
	stateConfirmEventClose: "CONFIRM_EVENT_CLOSE",
	stateMethodArgs:        "METHOD_ARGS",
	stateStringArg:         "STRING_ARG",
	stateNumberArg:         "NUMBER_ARG",
	stateVariableArg:       "VARIABLE_ARG",
	stateAwaitClose1:       "AWAIT_CLOSE_1",
	stateAwaitClose2:       "AWAIT_CLOSE_2",
}

func (s scanState) String() string {
	return stateNames[s]
}

// pendingBinding is the binding-in-progress between its opener and closer
type pendingBinding struct {
	open       int
	closeChar  int
	negate     bool
	bodyStart  int
	bodyEnd    int
	eventStart int
	eventEnd   int
	argStart   int
	quote      int
	escaped    bool
	signature  *MethodSignature
}

type scanner struct {
	file       *util.ParseSourceFile
	input      string
	dynamicFns DynamicFns

	state        scanState
	index        int
	literalStart int
	cur          *pendingBinding

	parts  []BindingPart
	errors []*util.ParseError
	mark   *util.ParseLocation
}

// maxQuotedFragment bounds the binding text quoted in a warning
const maxQuotedFragment = 64

func newScanner(file *util.ParseSourceFile, dynamicFns DynamicFns) *scanner {
	return &scanner{
		file:       file,
		input:      file.Content,
		dynamicFns: dynamicFns,
		state:      stateInitial,
	}
}

func (s *scanner) scan() {
	for {
		if s.index >= len(s.input) {
			if s.state == stateInitial || s.state == stateConfirmOpen {
				break
			}
			s.abort("Unterminated binding in %q")
			continue
		}
		if s.step(int(s.input[s.index])) {
			s.index++
		}
	}
	s.flushLiteral(len(s.input))
}

// step handles one character in the current state and reports whether the
// cursor should advance. Returning false re-dispatches the same character.
func (s *scanner) step(ch int) bool {
	cur := s.cur
	switch s.state {
	case stateInitial:
		if closer := core.ClosingDelimiter(ch); closer != core.CharEOF {
			s.cur = &pendingBinding{open: s.index, closeChar: closer}
			s.state = stateConfirmOpen
		}

	case stateConfirmOpen:
		if ch != int(s.input[cur.open]) {
			s.cur = nil
			s.state = stateInitial
			return false
		}
		s.state = stateSkipLeadingWS

	case stateSkipLeadingWS:
		if core.IsWhitespace(ch) {
			break
		}
		if ch == core.CharBANG && !cur.negate {
			cur.negate = true
			break
		}
		cur.bodyStart = s.index
		s.state = stateBody
		return false

	case stateBody:
		switch {
		case ch == cur.closeChar:
			cur.bodyEnd = s.index
			s.state = stateConfirmClose
		case core.IsQuote(ch):
			cur.quote = ch
			cur.escaped = false
			s.state = stateString
		case ch == core.CharLPAREN:
			name := strings.TrimSpace(s.input[cur.bodyStart:s.index])
			if name == "" {
				s.abort("Missing method name in %q")
				return false
			}
			cur.signature = &MethodSignature{MethodName: name, IsStatic: true}
			s.state = stateMethodArgs
		case ch == core.CharCOLON && cur.closeChar == core.CharRBRACE:
			cur.bodyEnd = s.index
			s.state = stateConfirmColon
		}

	case stateConfirmClose:
		if ch != cur.closeChar {
			s.state = stateBody
			return false
		}
		return s.emitPath(strings.TrimSpace(s.input[cur.bodyStart:cur.bodyEnd]), "")

	case stateString:
		switch {
		case cur.escaped:
			cur.escaped = false
		case ch == core.CharBACKSLASH:
			cur.escaped = true
		case ch == cur.quote:
			s.state = stateBody
		}

	case stateConfirmColon:
		if ch != core.CharCOLON {
			s.state = stateBody
			return false
		}
		cur.eventStart = s.index + 1
		s.state = stateEventBody

	case stateEventBody:
		if ch == cur.closeChar {
			cur.eventEnd = s.index
			s.state = stateConfirmEventClose
		}

	case stateConfirmEventClose:
		if ch != cur.closeChar {
			s.state = stateEventBody
			return false
		}
		event := strings.TrimSpace(s.input[cur.eventStart:cur.eventEnd])
		return s.emitPath(strings.TrimSpace(s.input[cur.bodyStart:cur.bodyEnd]), event)

	case stateMethodArgs:
		switch {
		case core.IsWhitespace(ch), ch == core.CharCOMMA:
		case ch == core.CharRPAREN:
			s.state = stateAwaitClose1
		case core.IsQuote(ch):
			cur.argStart = s.index
			cur.quote = ch
			cur.escaped = false
			s.state = stateStringArg
		case core.IsDigit(ch) || ch == core.CharMINUS:
			cur.argStart = s.index
			s.state = stateNumberArg
		default:
			cur.argStart = s.index
			s.state = stateVariableArg
		}

	case stateStringArg:
		switch {
		case cur.escaped:
			cur.escaped = false
		case ch == core.CharBACKSLASH:
			cur.escaped = true
		case ch == cur.quote:
			raw := s.input[cur.argStart : s.index+1]
			s.pushArg(&LiteralArg{RawText: raw, Value: unescapeStringArg(raw[1 : len(raw)-1])})
			s.state = stateMethodArgs
		}

	case stateNumberArg:
		switch {
		case ch == core.CharCOMMA || ch == core.CharRPAREN:
			raw := strings.TrimSpace(s.input[cur.argStart:s.index])
			if v, ok := parseNumber(raw); ok {
				s.pushArg(&LiteralArg{RawText: raw, Value: v})
			} else {
				s.pushVariable(raw)
			}
			s.state = stateMethodArgs
			return false
		case core.IsDigit(ch) || ch == core.CharPERIOD || core.IsWhitespace(ch):
		default:
			s.state = stateVariableArg
		}

	case stateVariableArg:
		if ch == core.CharCOMMA || ch == core.CharRPAREN {
			s.pushVariable(strings.TrimSpace(s.input[cur.argStart:s.index]))
			s.state = stateMethodArgs
			return false
		}

	case stateAwaitClose1:
		switch {
		case ch == cur.closeChar:
			s.state = stateAwaitClose2
		case core.IsWhitespace(ch):
		default:
			s.abort("Expected two closing delimiters after method call in %q")
			return false
		}

	case stateAwaitClose2:
		if ch != cur.closeChar {
			s.abort("Expected two closing delimiters after method call in %q")
			return false
		}
		s.emitSignature()
	}
	return true
}

// flushLiteral emits the pending literal text up to end, if any
func (s *scanner) flushLiteral(end int) {
	if end > s.literalStart {
		s.parts = append(s.parts, &LiteralPart{Text: s.input[s.literalStart:end]})
	}
	s.literalStart = end
}

func (s *scanner) newBinding() *Binding {
	mode := BindingModeOneWay
	if s.cur.closeChar == core.CharRBRACE {
		mode = BindingModeTwoWay
	}
	return &Binding{Mode: mode, Negate: s.cur.negate}
}

// emitPath finishes a path binding; it reports false when the binding was
// rejected and the cursor rewound.
func (s *scanner) emitPath(path, event string) bool {
	if path == "" {
		s.abort("Empty binding in %q")
		return false
	}
	b := s.newBinding()
	b.TargetPath = path
	b.CustomEvent = event
	b.addDependency(path)
	s.emit(b)
	return true
}

func (s *scanner) emitSignature() {
	sig := s.cur.signature
	b := s.newBinding()
	b.Signature = sig
	for _, arg := range sig.Args {
		if ref, ok := arg.(*PropertyRefArg); ok {
			b.addDependency(ref.Name)
		}
	}
	// An all-literal or dynamic call re-runs whenever the method itself changes.
	if sig.IsStatic || s.dynamicFns.Has(sig.MethodName) {
		b.addDependency(sig.MethodName)
		sig.IsStatic = false
	}
	s.emit(b)
}

func (s *scanner) emit(b *Binding) {
	b.Validate()
	s.flushLiteral(s.cur.open)
	s.parts = append(s.parts, b)
	s.cur = nil
	s.state = stateInitial
	s.literalStart = s.index + 1
}

func (s *scanner) pushArg(arg Arg) {
	s.cur.signature.Args = append(s.cur.signature.Args, arg)
}

func (s *scanner) pushVariable(name string) {
	if name == "" {
		return
	}
	switch name {
	case "true":
		s.pushArg(&LiteralArg{RawText: name, Value: true})
	case "false":
		s.pushArg(&LiteralArg{RawText: name, Value: false})
	default:
		s.pushArg(NewPropertyRefArg(name))
		s.cur.signature.IsStatic = false
	}
}

// abort drops the binding-in-progress and records a warning quoting it.
// Scanning resumes in the initial state at the failing character, so the
// opener and everything up to that point stay in the pending literal and
// the cursor never moves backwards.
func (s *scanner) abort(format string) {
	cur := s.cur
	end := min(s.index+1, len(s.input))
	fragment := s.input[cur.open:end]
	if len(fragment) > maxQuotedFragment {
		fragment = fragment[:maxQuotedFragment] + "..."
	}
	start := s.location(cur.open)
	span := util.NewParseSourceSpan(start, start.MoveBy(end-cur.open))
	s.errors = append(s.errors, util.NewParseWarning(span, fmt.Sprintf(format, fragment)))
	s.cur = nil
	s.state = stateInitial
}

// location returns the location of offset, moving forward from the last
// one computed. Aborts happen at increasing offsets.
func (s *scanner) location(offset int) *util.ParseLocation {
	if s.mark == nil || offset < s.mark.Offset {
		s.mark = util.NewParseLocation(s.file, 0, 0, 0)
	}
	s.mark = s.mark.MoveBy(offset - s.mark.Offset)
	return s.mark
}

// unescapeStringArg decodes `&comma;` entities and backslash escapes
func unescapeStringArg(body string) string {
	body = strings.ReplaceAll(body, "&comma;", ",")
	if strings.IndexByte(body, '\\') < 0 {
		return body
	}
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
		}
		sb.WriteByte(body[i])
	}
	return sb.String()
}
