package eval

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/lmburns/wutag/internal/query/ast"
	"github.com/lmburns/wutag/internal/registry"
)

// matchesPattern matches s against a parsed %r/%g pattern node, using the
// same glob-to-regex translation and PCRE engine the registry's custom SQL
// functions use, so query-time and SQL-time matching agree. defaultIgnoreCase
// applies when the pattern carries no explicit i/-i flag.
func matchesPattern(p *ast.Pattern, s string, defaultIgnoreCase bool) (bool, error) {
	ignoreCase := p.IgnoreCaseWithDefault(defaultIgnoreCase)
	pcre := false
	for _, r := range p.Flags {
		if r == 'r' {
			pcre = true
		}
	}

	pattern := p.Body
	if p.Kind == ast.PatternGlob {
		pattern = registry.GlobToRegex(pattern)
	}

	if pcre {
		opts := regexp2.None
		if ignoreCase {
			opts = regexp2.IgnoreCase
		}
		re, err := regexp2.Compile(pattern, opts)
		if err != nil {
			return false, err
		}
		return re.MatchString(s)
	}

	return registry.MatchRegexString(pattern, s, ignoreCase)
}

// compare evaluates a comparison operator over two dynamically-typed
// operands, supporting the comparisons the grammar allows between times,
// strings, and numbers.
func compare(op ast.BinOp, l, r any) (any, error) {
	if lt, ok := l.(time.Time); ok {
		rt, ok := r.(time.Time)
		if !ok {
			return nil, fmt.Errorf("cannot compare time to %T", r)
		}
		return compareOrdered(op, lt.Compare(rt)), nil
	}

	ls, lok := l.(string)
	rs, rok := r.(string)
	if lok && rok {
		if lf, err1 := strconv.ParseFloat(ls, 64); err1 == nil {
			if rf, err2 := strconv.ParseFloat(rs, 64); err2 == nil {
				return compareOrdered(op, cmpFloat(lf, rf)), nil
			}
		}
		switch op {
		case ast.OpEq:
			return ls == rs, nil
		case ast.OpNe:
			return ls != rs, nil
		default:
			if ls < rs {
				return compareOrdered(op, -1), nil
			} else if ls > rs {
				return compareOrdered(op, 1), nil
			}
			return compareOrdered(op, 0), nil
		}
	}

	return nil, fmt.Errorf("cannot compare %T to %T", l, r)
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareOrdered(op ast.BinOp, cmp int) bool {
	switch op {
	case ast.OpEq:
		return cmp == 0
	case ast.OpNe:
		return cmp != 0
	case ast.OpLt:
		return cmp < 0
	case ast.OpGt:
		return cmp > 0
	case ast.OpLe:
		return cmp <= 0
	case ast.OpGe:
		return cmp >= 0
	default:
		return false
	}
}
