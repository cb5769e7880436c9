package core

// Character code constants used by the binding scanner and the literal reader
const (
	CharEOF       = 0
	CharTAB       = 9
	CharLF        = 10
	CharCR        = 13
	CharSPACE     = 32
	CharBANG      = 33
	CharDQ        = 34
	CharDollar    = 36
	CharAMPERSAND = 38
	CharSQ        = 39
	CharLPAREN    = 40
	CharRPAREN    = 41
	CharSTAR      = 42
	CharCOMMA     = 44
	CharMINUS     = 45
	CharPERIOD    = 46
	CharCOLON     = 58
	CharSEMICOLON = 59

	Char0 = 48
	Char9 = 57

	CharA = 65
	CharZ = 90

	CharLBRACKET   = 91
	CharBACKSLASH  = 92
	CharRBRACKET   = 93
	CharUnderscore = 95

	CharLowerA = 97
	CharLowerZ = 122

	CharLBRACE = 123
	CharRBRACE = 125
	CharNBSP   = 160
	CharBT     = 96
)

// IsWhitespace checks if a character code represents whitespace
func IsWhitespace(code int) bool {
	return (code >= CharTAB && code <= CharSPACE) || code == CharNBSP
}

// IsDigit checks if a character code represents a digit
func IsDigit(code int) bool {
	return Char0 <= code && code <= Char9
}

// IsAsciiLetter checks if a character code represents an ASCII letter
func IsAsciiLetter(code int) bool {
	return (code >= CharLowerA && code <= CharLowerZ) || (code >= CharA && code <= CharZ)
}

// IsQuote checks if a character code opens a quoted literal inside a binding
func IsQuote(code int) bool {
	return code == CharSQ || code == CharDQ
}

// IsIdentifierStart reports whether code may begin a bare identifier
func IsIdentifierStart(code int) bool {
	return IsAsciiLetter(code) || code == CharUnderscore || code == CharDollar
}

// IsIdentifierPart reports whether code may continue a bare identifier
func IsIdentifierPart(code int) bool {
	return IsIdentifierStart(code) || IsDigit(code)
}

// ClosingDelimiter returns the closing character paired with an opening
// binding delimiter, or CharEOF when code does not open a binding.
func ClosingDelimiter(code int) int {
	switch code {
	case CharLBRACKET:
		return CharRBRACKET
	case CharLBRACE:
		return CharRBRACE
	}
	return CharEOF
}
