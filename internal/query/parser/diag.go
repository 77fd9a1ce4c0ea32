package parser

import (
	"fmt"
	"strings"

	"github.com/lmburns/wutag/internal/query/ast"
)

// Kind identifies the class of a diagnostic, mirroring the parse-error
// taxonomy.
type Kind int

const (
	UnexpectedToken Kind = iota
	UnterminatedPattern
	UnknownFunction
	ReservedName
)

func (k Kind) String() string {
	switch k {
	case UnexpectedToken:
		return "UnexpectedToken"
	case UnterminatedPattern:
		return "UnterminatedPattern"
	case UnknownFunction:
		return "UnknownFunction"
	case ReservedName:
		return "ReservedName"
	default:
		return "Unknown"
	}
}

// Diagnostic is a single parse error, carrying enough of the source span to
// render a carat-underline snippet.
type Diagnostic struct {
	Kind    Kind
	Message string
	Span    ast.Span
	Note    string // optional suggestion footer
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// Snippet renders src on one line and a carat underline of d.Span on the
// next, followed by a third line holding d.Note when it is set.
func (d Diagnostic) Snippet(src string) string {
	start, end := d.Span.Start, d.Span.End
	if start < 0 {
		start = 0
	}
	if end > len(src) {
		end = len(src)
	}
	if end < start {
		end = start
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", src)
	b.WriteString(strings.Repeat(" ", start))
	width := end - start
	if width < 1 {
		width = 1
	}
	b.WriteString(strings.Repeat("^", width))
	if d.Note != "" {
		fmt.Fprintf(&b, "\n%s", d.Note)
	}
	return b.String()
}

// ErrorList collects every diagnostic emitted during a parse, so that a
// single pass can report more than one error.
type ErrorList struct {
	Diags []Diagnostic
}

func (e *ErrorList) add(d Diagnostic) {
	e.Diags = append(e.Diags, d)
}

func (e *ErrorList) Error() string {
	parts := make([]string, len(e.Diags))
	for i, d := range e.Diags {
		parts[i] = d.Error()
	}
	return strings.Join(parts, "; ")
}

func (e *ErrorList) Empty() bool { return len(e.Diags) == 0 }
