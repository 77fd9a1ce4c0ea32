// Package parser implements a recursive-descent parser for the query
// language: boolean combinators over tag/value predicates, delimited
// regex/glob patterns, comparisons, and function calls.
package parser

import (
	"fmt"
	"strings"

	"github.com/lmburns/wutag/internal/query/ast"
)

type parser struct {
	toks []token
	pos  int
	src  string
	errs *ErrorList
}

// Parse lexes and parses src, returning the root expression node. If any
// diagnostics were emitted, the returned error is non-nil (an *ErrorList)
// even when a partial tree was recovered.
func Parse(src string) (ast.Node, error) {
	errs := &ErrorList{}
	lx := newLexer(src, errs)

	var toks []token
	for {
		t := lx.next()
		toks = append(toks, t)
		if t.kind == tEOF {
			break
		}
	}

	p := &parser{toks: toks, src: src, errs: errs}
	node := p.parseOr()

	if p.cur().kind != tEOF {
		p.errorAt(UnexpectedToken, p.cur(), fmt.Sprintf("unexpected trailing input %q", p.cur().text))
	}

	if !errs.Empty() {
		return node, errs
	}
	return node, nil
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) errorAt(kind Kind, t token, msg string) {
	p.errs.add(Diagnostic{
		Kind:    kind,
		Message: msg,
		Span:    ast.Span{Start: t.start, End: t.end},
	})
}

// syncPoint reports whether a token kind is one of the recovery sync
// points: '|', ')', ']', '}'.
func isSyncPoint(t token) bool {
	switch t.kind {
	case tOrOr, tRParen, tRBracket:
		return true
	case tInvalid:
		// '}' has no token kind of its own; the lexer yields it as tInvalid.
		return t.text == "}"
	}
	return false
}

// recover consumes tokens up to (and including) the nearest sync point, or
// until EOF, so the parser can keep finding further errors in one pass.
func (p *parser) recover() {
	for p.cur().kind != tEOF && !isSyncPoint(p.cur()) {
		p.advance()
	}
	if p.cur().kind != tEOF {
		p.advance()
	}
}

func (p *parser) parseOr() ast.Node {
	left := p.parseAnd()
	for p.cur().kind == tOrOr || p.cur().kind == tOrWord {
		opTok := p.advance()
		right := p.parseAnd()
		left = &ast.Binary{
			Sp:    ast.Span{Start: left.Span().Start, End: right.Span().End},
			Op:    ast.OpOr,
			Left:  left,
			Right: right,
		}
		_ = opTok
	}
	return left
}

func (p *parser) parseAnd() ast.Node {
	left := p.parseNot()
	for p.cur().kind == tAndAnd || p.cur().kind == tAndWord {
		p.advance()
		right := p.parseNot()
		left = &ast.Binary{
			Sp:    ast.Span{Start: left.Span().Start, End: right.Span().End},
			Op:    ast.OpAnd,
			Left:  left,
			Right: right,
		}
	}
	return left
}

func (p *parser) parseNot() ast.Node {
	if p.cur().kind == tBang || p.cur().kind == tNotWord {
		start := p.advance()
		x := p.parseCmp()
		return &ast.Not{Sp: ast.Span{Start: start.start, End: x.Span().End}, X: x}
	}
	return p.parseCmp()
}

var cmpOps = map[tokenKind]ast.BinOp{
	tEqEq:   ast.OpEq,
	tNe:     ast.OpNe,
	tEqWord: ast.OpEq,
	tNeWord: ast.OpNe,
	tLt:     ast.OpLt,
	tGt:     ast.OpGt,
	tLe:     ast.OpLe,
	tGe:     ast.OpGe,
}

func (p *parser) parseCmp() ast.Node {
	left := p.parsePrimary()
	if op, ok := cmpOps[p.cur().kind]; ok {
		p.advance()
		right := p.parsePrimary()
		return &ast.Binary{
			Sp:    ast.Span{Start: left.Span().Start, End: right.Span().End},
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
	return left
}

func (p *parser) parsePrimary() ast.Node {
	t := p.cur()
	switch t.kind {
	case tLParen:
		p.advance()
		inner := p.parseOr()
		if p.cur().kind == tRParen {
			p.advance()
		} else {
			p.errorAt(UnexpectedToken, p.cur(), "expected ')'")
			p.recover()
		}
		return inner

	case tPatternRegex, tPatternGlob:
		p.advance()
		for _, d := range p.errs.Diags {
			if d.Kind == UnterminatedPattern && d.Span.Start == t.start {
				// The pattern ran to end of input, so the operand it stands
				// for is incomplete: report that at the point parsing stopped.
				p.errorAt(UnexpectedToken, p.cur(), "expected a complete pattern operand before end of input")
				break
			}
		}
		kind := ast.PatternRegex
		if t.kind == tPatternGlob {
			kind = ast.PatternGlob
		}
		return &ast.Pattern{
			Sp:     ast.Span{Start: t.start, End: t.end},
			Kind:   kind,
			Open:   t.open,
			Closer: t.closer,
			Body:   t.body,
			Flags:  t.flags,
		}

	case tArrayAt, tArrayDollar:
		p.advance()
		ref := &ast.ArrayRef{Sp: ast.Span{Start: t.start, End: t.end}, Sigil: t.text[0]}
		if p.cur().kind == tName && p.cur().text == "F" {
			nameTok := p.advance()
			ref.Sp.End = nameTok.end
		}
		if p.cur().kind == tLBracket {
			p.advance()
			idx := p.parseOr()
			ref.Index = idx
			if p.cur().kind == tRBracket {
				end := p.advance()
				ref.Sp.End = end.end
			} else {
				p.errorAt(UnexpectedToken, p.cur(), "expected ']'")
				p.recover()
			}
		}
		return ref

	case tName:
		name := p.advance()
		if p.cur().kind == tLParen {
			return p.parseCall(name)
		}
		if ast.ReservedFunctions[name.text] {
			p.errorAt(ReservedName, name, fmt.Sprintf("%q is a reserved function name", name.text))
		}
		return &ast.Literal{Sp: ast.Span{Start: name.start, End: name.end}, Value: name.text}

	case tString, tNumber:
		p.advance()
		return &ast.Literal{Sp: ast.Span{Start: t.start, End: t.end}, Value: t.text}

	default:
		p.errorAt(UnexpectedToken, t, fmt.Sprintf("unexpected token %q", t.text))
		p.recover()
		return &ast.Literal{Sp: ast.Span{Start: t.start, End: t.end}, Value: ""}
	}
}

func (p *parser) parseCall(name token) ast.Node {
	p.advance() // '('
	var args []ast.Node
	for p.cur().kind != tRParen && p.cur().kind != tEOF {
		args = append(args, p.parseOr())
		if p.cur().kind == tComma {
			p.advance()
			continue
		}
		break
	}
	end := name.end
	if p.cur().kind == tRParen {
		end = p.advance().end
	} else {
		p.errorAt(UnexpectedToken, p.cur(), "expected ')' to close call to "+name.text)
		p.recover()
	}
	if !ast.ReservedFunctions[name.text] {
		p.errorAt(UnknownFunction, name, fmt.Sprintf("unknown function %q", name.text))
	}
	return &ast.Call{Sp: ast.Span{Start: name.start, End: end}, Name: name.text, Args: args}
}

// Render re-serializes an AST node back to query source text, used to
// validate the parse/render round-trip property.
func Render(n ast.Node) string {
	var b strings.Builder
	render(&b, n)
	return b.String()
}

func render(b *strings.Builder, n ast.Node) {
	switch v := n.(type) {
	case *ast.Binary:
		b.WriteString("(")
		render(b, v.Left)
		fmt.Fprintf(b, " %s ", v.Op)
		render(b, v.Right)
		b.WriteString(")")
	case *ast.Not:
		b.WriteString("!")
		render(b, v.X)
	case *ast.Pattern:
		if v.Kind == ast.PatternGlob {
			b.WriteString("%g")
		} else {
			b.WriteString("%r")
		}
		b.WriteRune(v.Open)
		b.WriteString(v.Body)
		b.WriteRune(v.Closer)
		b.WriteString(v.Flags)
	case *ast.Literal:
		b.WriteString(v.Value)
	case *ast.ArrayRef:
		b.WriteByte(v.Sigil)
		b.WriteString("F")
		if v.Index != nil {
			b.WriteString("[")
			render(b, v.Index)
			b.WriteString("]")
		}
	case *ast.Call:
		b.WriteString(v.Name)
		b.WriteString("(")
		for i, a := range v.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			render(b, a)
		}
		b.WriteString(")")
	}
}
