package util

import (
	"fmt"
	"strings"
)

// ParseLocation represents a location in a scanned fragment
type ParseLocation struct {
	File   *ParseSourceFile
	Offset int
	Line   int
	Col    int
}

// NewParseLocation creates a new ParseLocation
func NewParseLocation(file *ParseSourceFile, offset, line, col int) *ParseLocation {
	return &ParseLocation{
		File:   file,
		Offset: offset,
		Line:   line,
		Col:    col,
	}
}

// String returns a string representation of the location
func (p *ParseLocation) String() string {
	if p.Offset >= 0 {
		return fmt.Sprintf("%s@%d:%d", p.File.URL, p.Line, p.Col)
	}
	return p.File.URL
}

// MoveBy moves the location forward by delta bytes, tracking lines
func (p *ParseLocation) MoveBy(delta int) *ParseLocation {
	source := p.File.Content
	offset := p.Offset
	line := p.Line
	col := p.Col

	for offset < len(source) && delta > 0 {
		ch := source[offset]
		offset++
		delta--
		if ch == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}

	return NewParseLocation(p.File, offset, line, col)
}

// GetContext returns the source context around the location
func (p *ParseLocation) GetContext(maxChars, maxLines int) *Context {
	content := p.File.Content
	if p.Offset < 0 || len(content) == 0 {
		return nil
	}

	startOffset := p.Offset
	if startOffset > len(content)-1 {
		startOffset = len(content) - 1
	}
	endOffset := startOffset

	ctxChars, ctxLines := 0, 0
	for ctxChars < maxChars && startOffset > 0 {
		startOffset--
		ctxChars++
		if content[startOffset] == '\n' {
			ctxLines++
			if ctxLines == maxLines {
				break
			}
		}
	}

	ctxChars, ctxLines = 0, 0
	for ctxChars < maxChars && endOffset < len(content)-1 {
		endOffset++
		ctxChars++
		if content[endOffset] == '\n' {
			ctxLines++
			if ctxLines == maxLines {
				break
			}
		}
	}

	at := p.Offset
	if at > len(content) {
		at = len(content)
	}
	return &Context{
		Before: content[startOffset:at],
		After:  content[at:min(endOffset+1, len(content))],
	}
}

// Context represents source context around a location
type Context struct {
	Before string
	After  string
}

// ParseSourceFile is the text being scanned, e.g. one attribute value
type ParseSourceFile struct {
	Content string
	URL     string
}

// NewParseSourceFile creates a new ParseSourceFile
func NewParseSourceFile(content, url string) *ParseSourceFile {
	return &ParseSourceFile{
		Content: content,
		URL:     url,
	}
}

// SpanOf returns the span covering [start, end) of the file content
func (f *ParseSourceFile) SpanOf(start, end int) *ParseSourceSpan {
	origin := NewParseLocation(f, 0, 0, 0)
	from := origin.MoveBy(start)
	return NewParseSourceSpan(from, from.MoveBy(end-start))
}

// ParseSourceSpan represents a span of source text
type ParseSourceSpan struct {
	Start *ParseLocation
	End   *ParseLocation
}

// NewParseSourceSpan creates a new ParseSourceSpan
func NewParseSourceSpan(start, end *ParseLocation) *ParseSourceSpan {
	return &ParseSourceSpan{Start: start, End: end}
}

// String returns the source text in this span
func (p *ParseSourceSpan) String() string {
	return p.Start.File.Content[p.Start.Offset:p.End.Offset]
}

// ParseErrorLevel represents the level of a parse error
type ParseErrorLevel int

const (
	ParseErrorLevelWarning ParseErrorLevel = iota
	ParseErrorLevelError
)

// ParseError is a diagnostic attached to a span of source text
type ParseError struct {
	Span  *ParseSourceSpan
	Msg   string
	Level ParseErrorLevel
}

// NewParseError creates a new error-level ParseError
func NewParseError(span *ParseSourceSpan, msg string) *ParseError {
	return &ParseError{
		Span:  span,
		Msg:   msg,
		Level: ParseErrorLevelError,
	}
}

// NewParseWarning creates a new warning-level ParseError
func NewParseWarning(span *ParseSourceSpan, msg string) *ParseError {
	return &ParseError{
		Span:  span,
		Msg:   msg,
		Level: ParseErrorLevelWarning,
	}
}

// Error implements the error interface
func (p *ParseError) Error() string {
	return p.String()
}

// ContextualMessage returns the message with surrounding source text
func (p *ParseError) ContextualMessage() string {
	if p.Span == nil || p.Span.Start == nil {
		return p.Msg
	}
	ctx := p.Span.Start.GetContext(100, 3)
	if ctx != nil {
		levelStr := "ERROR"
		if p.Level == ParseErrorLevelWarning {
			levelStr = "WARNING"
		}
		return fmt.Sprintf(`%s ("%s[%s ->]%s")`, p.Msg, ctx.Before, levelStr, ctx.After)
	}
	return p.Msg
}

// String returns a string representation of the error
func (p *ParseError) String() string {
	if p.Span == nil || p.Span.Start == nil {
		return p.Msg
	}
	return fmt.Sprintf("%s: %s", p.ContextualMessage(), p.Span.Start)
}

// HasErrors reports whether any diagnostic is error-level
func HasErrors(errs []*ParseError) bool {
	for _, e := range errs {
		if e.Level == ParseErrorLevelError {
			return true
		}
	}
	return false
}

// JoinMessages renders diagnostics one per line
func JoinMessages(errs []*ParseError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.String())
	}
	return strings.Join(msgs, "\n")
}
