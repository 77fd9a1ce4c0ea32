// Package eval translates a parsed query AST into a predicate over the
// registry's files, applying the implication closure and the registry's
// pattern-matching functions as it goes.
package eval

import (
	"fmt"
	"time"

	"github.com/lmburns/wutag/internal/query/ast"
	"github.com/lmburns/wutag/internal/registry"
	"github.com/lmburns/wutag/internal/wlog"
)

// Evaluator holds the registry handle and time reference a query is
// evaluated against.
type Evaluator struct {
	Reg *registry.Registry
	Now time.Time

	// IgnoreCase is the default case sensitivity bare patterns and
	// tag()/value() pattern arguments inherit when neither "i" nor "-i"
	// appears explicitly on the pattern literal.
	IgnoreCase bool
}

// New returns an Evaluator anchored to the current wall-clock time, with
// patterns case-insensitive by default unless they carry an explicit flag.
func New(reg *registry.Registry) *Evaluator {
	return &Evaluator{Reg: reg, Now: time.Now(), IgnoreCase: true}
}

// candidate bundles a file with its file-tags, so predicate evaluation
// never issues a query per AST node.
type candidate struct {
	file registry.File
	tags []registry.FileTag
}

// Search evaluates node against every file in the registry and returns
// those for which it is true. Matching walks the candidate file stream
// exactly once; each file's tag set (including implicit tags materialized
// at tagging time) is fetched up front.
func (e *Evaluator) Search(node ast.Node) ([]registry.File, error) {
	files, err := e.Reg.AllFiles()
	if err != nil {
		return nil, err
	}

	var out []registry.File
	for _, f := range files {
		fts, err := e.Reg.FileTagsByFile(f.ID)
		if err != nil {
			return nil, err
		}
		ok, err := e.evalBool(node, candidate{file: f, tags: fts})
		if err != nil {
			wlog.Get(wlog.CategoryQuery).Debugw("eval error, excluding candidate", "file", f.Path(), "err", err)
			continue
		}
		if ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// evalBool evaluates n in a boolean context.
func (e *Evaluator) evalBool(n ast.Node, c candidate) (bool, error) {
	v, err := e.eval(n, c)
	if err != nil {
		return false, err
	}
	return toBool(v), nil
}

// eval evaluates n and returns a dynamically-typed result: bool, string,
// or time.Time, depending on the node.
func (e *Evaluator) eval(n ast.Node, c candidate) (any, error) {
	switch v := n.(type) {
	case *ast.Binary:
		return e.evalBinary(v, c)
	case *ast.Not:
		x, err := e.evalBool(v.X, c)
		if err != nil {
			return nil, err
		}
		return !x, nil
	case *ast.Literal:
		return v.Value, nil
	case *ast.Pattern:
		return e.evalBarePattern(v, c)
	case *ast.Call:
		return e.evalCall(v, c)
	case *ast.ArrayRef:
		return nil, fmt.Errorf("file-set references (@F/$F) are only valid in batch-query context, not per-file evaluation")
	default:
		return nil, fmt.Errorf("eval: unhandled node type %T", n)
	}
}

func (e *Evaluator) evalBinary(b *ast.Binary, c candidate) (any, error) {
	switch b.Op {
	case ast.OpAnd:
		l, err := e.evalBool(b.Left, c)
		if err != nil {
			return nil, err
		}
		if !l {
			return false, nil
		}
		return e.evalBool(b.Right, c)
	case ast.OpOr:
		l, err := e.evalBool(b.Left, c)
		if err != nil {
			return nil, err
		}
		if l {
			return true, nil
		}
		return e.evalBool(b.Right, c)
	default:
		lv, err := e.eval(b.Left, c)
		if err != nil {
			return nil, err
		}
		rv, err := e.eval(b.Right, c)
		if err != nil {
			return nil, err
		}
		return compare(b.Op, lv, rv)
	}
}

// evalBarePattern matches a standalone %r/%g pattern (not wrapped in
// tag()/value()) against the file's full path.
func (e *Evaluator) evalBarePattern(p *ast.Pattern, c candidate) (any, error) {
	return e.matchesPattern(p, c.file.Path())
}

// matchesPattern is a thin wrapper applying the evaluator's default case
// sensitivity to matchesPattern.
func (e *Evaluator) matchesPattern(p *ast.Pattern, s string) (bool, error) {
	return matchesPattern(p, s, e.IgnoreCase)
}

func toBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x != ""
	default:
		return v != nil
	}
}
