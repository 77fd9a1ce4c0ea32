package parser

import (
	"strings"

	"github.com/lmburns/wutag/internal/query/ast"
)

// tokenKind enumerates the lexical categories the lexer recognizes.
type tokenKind int

const (
	tEOF tokenKind = iota
	tLParen
	tRParen
	tLBracket
	tRBracket
	tOrOr
	tAndAnd
	tOrWord
	tAndWord
	tNotWord
	tEqWord
	tNeWord
	tBang
	tEqEq
	tNe
	tLe
	tGe
	tLt
	tGt
	tComma
	tPatternRegex
	tPatternGlob
	tArrayAt
	tArrayDollar
	tName
	tString
	tNumber
	tInvalid
)

type token struct {
	kind  tokenKind
	text  string
	start int
	end   int
	// for pattern tokens
	body   string
	flags  string
	open   rune
	closer rune
}

// pairedDelims maps an opening paired-delimiter to its closer, per the
// delimited-pattern rule: < >, ( ), [ ], { } pair opener to closer; every
// other non-alphanumeric rune delimits itself.
var pairedDelims = map[rune]rune{
	'<': '>',
	'(': ')',
	'[': ']',
	'{': '}',
}

type lexer struct {
	src  string
	pos  int
	errs *ErrorList
}

func newLexer(src string, errs *ErrorList) *lexer {
	return &lexer{src: src, errs: errs}
}

func (l *lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isNameStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isNameByte(b byte) bool {
	return isNameStart(b) || (b >= '0' && b <= '9') || b == '-' || b == '.'
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// next returns the next token in the input.
func (l *lexer) next() token {
	l.skipSpace()
	start := l.pos
	if l.pos >= len(l.src) {
		return token{kind: tEOF, start: start, end: start}
	}

	c := l.src[l.pos]

	switch {
	case c == '(':
		l.pos++
		return token{kind: tLParen, text: "(", start: start, end: l.pos}
	case c == ')':
		l.pos++
		return token{kind: tRParen, text: ")", start: start, end: l.pos}
	case c == '[':
		l.pos++
		return token{kind: tLBracket, text: "[", start: start, end: l.pos}
	case c == ']':
		l.pos++
		return token{kind: tRBracket, text: "]", start: start, end: l.pos}
	case c == ',':
		l.pos++
		return token{kind: tComma, text: ",", start: start, end: l.pos}
	case c == '|':
		if l.peekAt(1) == '|' {
			l.pos += 2
			return token{kind: tOrOr, text: "||", start: start, end: l.pos}
		}
		l.pos++
		return token{kind: tOrOr, text: "|", start: start, end: l.pos}
	case c == '&':
		if l.peekAt(1) == '&' {
			l.pos += 2
			return token{kind: tAndAnd, text: "&&", start: start, end: l.pos}
		}
		l.pos++
		return token{kind: tAndAnd, text: "&", start: start, end: l.pos}
	case c == '!':
		if l.peekAt(1) == '=' {
			l.pos += 2
			return token{kind: tNe, text: "!=", start: start, end: l.pos}
		}
		l.pos++
		return token{kind: tBang, text: "!", start: start, end: l.pos}
	case c == '=':
		if l.peekAt(1) == '=' {
			l.pos += 2
			return token{kind: tEqEq, text: "==", start: start, end: l.pos}
		}
		l.pos++
		return token{kind: tEqEq, text: "=", start: start, end: l.pos}
	case c == '<':
		if l.peekAt(1) == '=' {
			l.pos += 2
			return token{kind: tLe, text: "<=", start: start, end: l.pos}
		}
		l.pos++
		return token{kind: tLt, text: "<", start: start, end: l.pos}
	case c == '>':
		if l.peekAt(1) == '=' {
			l.pos += 2
			return token{kind: tGe, text: ">=", start: start, end: l.pos}
		}
		l.pos++
		return token{kind: tGt, text: ">", start: start, end: l.pos}
	case c == '@':
		l.pos++
		return token{kind: tArrayAt, text: "@", start: start, end: l.pos}
	case c == '$':
		l.pos++
		return token{kind: tArrayDollar, text: "$", start: start, end: l.pos}
	case c == '"' || c == '\'':
		return l.lexString(c)
	case c == '%' && (l.peekAt(1) == 'r' || l.peekAt(1) == 'g'):
		return l.lexPattern()
	case isDigit(c):
		return l.lexNumber()
	case isNameStart(c):
		return l.lexName()
	default:
		l.pos++
		return token{kind: tInvalid, text: string(c), start: start, end: l.pos}
	}
}

func (l *lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *lexer) lexString(quote byte) token {
	start := l.pos
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.src) && l.src[l.pos] != quote {
		if l.src[l.pos] == '\\' && l.pos+1 < len(l.src) {
			b.WriteByte(l.src[l.pos+1])
			l.pos += 2
			continue
		}
		b.WriteByte(l.src[l.pos])
		l.pos++
	}
	if l.pos < len(l.src) {
		l.pos++ // closing quote
	}
	return token{kind: tString, text: b.String(), start: start, end: l.pos}
}

func (l *lexer) lexNumber() token {
	start := l.pos
	for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '.') {
		l.pos++
	}
	return token{kind: tNumber, text: l.src[start:l.pos], start: start, end: l.pos}
}

func (l *lexer) lexName() token {
	start := l.pos
	for l.pos < len(l.src) && isNameByte(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]
	switch text {
	case "or":
		return token{kind: tOrWord, text: text, start: start, end: l.pos}
	case "and":
		return token{kind: tAndWord, text: text, start: start, end: l.pos}
	case "not":
		return token{kind: tNotWord, text: text, start: start, end: l.pos}
	case "eq":
		return token{kind: tEqWord, text: text, start: start, end: l.pos}
	case "ne":
		return token{kind: tNeWord, text: text, start: start, end: l.pos}
	default:
		return token{kind: tName, text: text, start: start, end: l.pos}
	}
}

// lexPattern consumes a %r or %g delimited pattern body and trailing flags.
func (l *lexer) lexPattern() token {
	start := l.pos
	kind := tPatternRegex
	if l.src[l.pos+1] == 'g' {
		kind = tPatternGlob
	}
	l.pos += 2

	if l.pos >= len(l.src) {
		l.errs.add(Diagnostic{
			Kind: UnterminatedPattern, Message: "pattern missing delimiter",
			Span: ast.Span{Start: start, End: l.pos},
		})
		return token{kind: kind, start: start, end: l.pos}
	}

	open := rune(l.src[l.pos])
	closer := open
	if c, ok := pairedDelims[open]; ok {
		closer = c
	}
	l.pos++

	bodyStart := l.pos
	depth := 1
	for l.pos < len(l.src) {
		c := rune(l.src[l.pos])
		if c == '\\' && l.pos+1 < len(l.src) {
			l.pos += 2
			continue
		}
		if open != closer && c == open {
			depth++
		} else if c == closer {
			depth--
			if depth == 0 {
				break
			}
		}
		l.pos++
	}

	if l.pos >= len(l.src) {
		l.errs.add(Diagnostic{
			Kind:    UnterminatedPattern,
			Message: "unterminated pattern literal",
			Span:    ast.Span{Start: start, End: l.pos},
		})
		return token{kind: kind, body: l.src[bodyStart:l.pos], open: open, closer: closer, start: start, end: l.pos}
	}

	body := l.src[bodyStart:l.pos]
	l.pos++ // closing delimiter

	flagStart := l.pos
	for l.pos < len(l.src) && strings.ContainsRune("iuIlUmxrg-", rune(l.src[l.pos])) {
		l.pos++
	}
	flags := l.src[flagStart:l.pos]

	return token{kind: kind, body: body, flags: flags, open: open, closer: closer, start: start, end: l.pos}
}
