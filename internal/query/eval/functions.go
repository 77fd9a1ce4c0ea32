package eval

import (
	"fmt"

	"github.com/lmburns/wutag/internal/query/ast"
	"github.com/lmburns/wutag/internal/query/parser"
	"github.com/lmburns/wutag/internal/registry"
)

// evalCall dispatches one of the reserved function names against the
// current candidate.
func (e *Evaluator) evalCall(call *ast.Call, c candidate) (any, error) {
	switch call.Name {
	case "tag":
		return e.evalTag(call, c)
	case "value":
		return e.evalValue(call, c)
	case "implied":
		return e.evalImplied(call, c)
	case "implies":
		return e.evalImplies(call, c)
	case "hash":
		arg, err := e.argString(call, 0, c)
		if err != nil {
			return nil, err
		}
		return c.file.Hash == arg, nil
	case "atime", "ctime", "mtime":
		// The data model tracks a single modification timestamp; atime and
		// ctime alias to it rather than being tracked separately.
		return c.file.Mtime, nil
	case "before", "after":
		return e.evalTimeFilter(call, c)
	case "print", "exec":
		// These name output/execution actions applied to query results, not
		// per-file predicates; they are no-ops at match time.
		return true, nil
	default:
		return nil, fmt.Errorf("unknown function %q", call.Name)
	}
}

func (e *Evaluator) arg(call *ast.Call, i int) (ast.Node, error) {
	if i >= len(call.Args) {
		return nil, fmt.Errorf("%s: expected at least %d argument(s)", call.Name, i+1)
	}
	return call.Args[i], nil
}

func (e *Evaluator) argString(call *ast.Call, i int, c candidate) (string, error) {
	a, err := e.arg(call, i)
	if err != nil {
		return "", err
	}
	lit, ok := a.(*ast.Literal)
	if !ok {
		return "", fmt.Errorf("%s: argument %d must be a literal", call.Name, i)
	}
	return lit.Value, nil
}

// argMatchesTagOrValueName reports whether a tag or value named name
// matches a literal or pattern argument node.
func (e *Evaluator) argMatchesTagOrValueName(arg ast.Node, name string) (bool, error) {
	switch v := arg.(type) {
	case *ast.Literal:
		return v.Value == name, nil
	case *ast.Pattern:
		return e.matchesPattern(v, name)
	default:
		return false, fmt.Errorf("expected a tag/value name or pattern, got %T", arg)
	}
}

func (e *Evaluator) evalTag(call *ast.Call, c candidate) (any, error) {
	arg, err := e.arg(call, 0)
	if err != nil {
		return nil, err
	}
	for _, ft := range c.tags {
		tag, err := e.Reg.TagByID(ft.TagID)
		if err != nil {
			return nil, err
		}
		ok, err := e.argMatchesTagOrValueName(arg, tag.Name)
		if err != nil {
			return nil, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (e *Evaluator) evalValue(call *ast.Call, c candidate) (any, error) {
	arg, err := e.arg(call, 0)
	if err != nil {
		return nil, err
	}
	for _, ft := range c.tags {
		if ft.ValueID.IsNull() {
			continue
		}
		val, err := e.Reg.ValueByID(ft.ValueID)
		if err != nil {
			return nil, err
		}
		ok, err := e.argMatchesTagOrValueName(arg, val.Name)
		if err != nil {
			return nil, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// evalImplied reports whether the named tag is present on the file only
// through implication (no explicit file-tag carries it).
func (e *Evaluator) evalImplied(call *ast.Call, c candidate) (any, error) {
	name, err := e.argString(call, 0, c)
	if err != nil {
		return nil, err
	}
	tag, err := e.Reg.TagByName(name)
	if err == registry.ErrTagNotFound {
		return false, nil
	}
	if err != nil {
		return nil, err
	}
	sawImplicit := false
	for _, ft := range c.tags {
		if ft.TagID != tag.ID {
			continue
		}
		if ft.Explicit {
			return false, nil
		}
		if ft.Implicit {
			sawImplicit = true
		}
	}
	return sawImplicit, nil
}

// evalImplies reports whether the file carries the named tag explicitly and
// that tag's closure reaches at least one other (tag, value) pair.
func (e *Evaluator) evalImplies(call *ast.Call, c candidate) (any, error) {
	name, err := e.argString(call, 0, c)
	if err != nil {
		return nil, err
	}
	tag, err := e.Reg.TagByName(name)
	if err == registry.ErrTagNotFound {
		return false, nil
	}
	if err != nil {
		return nil, err
	}
	hasExplicit := false
	for _, ft := range c.tags {
		if ft.TagID == tag.ID && ft.Explicit {
			hasExplicit = true
			break
		}
	}
	if !hasExplicit {
		return false, nil
	}
	reachable, err := e.Reg.ImplicationsFor([]registry.TagValue{{Tag: tag.ID}})
	if err != nil {
		return nil, err
	}
	return len(reachable) > 0, nil
}

func (e *Evaluator) evalTimeFilter(call *ast.Call, c candidate) (any, error) {
	spec, err := e.argString(call, 0, c)
	if err != nil {
		return nil, err
	}
	t, err := parser.ParseTimeSpec(spec, e.Now)
	if err != nil {
		return nil, err
	}
	if call.Name == "before" {
		return c.file.Mtime.Before(t), nil
	}
	return c.file.Mtime.After(t), nil
}
