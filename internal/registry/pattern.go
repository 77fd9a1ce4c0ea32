package registry

import (
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"
)

// GlobToRegex translates a wutag glob pattern into an equivalent RE2
// (or regexp2) pattern, per the registry's documented translation rules:
//
//	*        -> [^/]*
//	**       -> .*
//	?        -> [^/]
//	[...]    -> passed through unchanged
//	{a,b}    -> (a|b)
//	\x       -> escapes the next character literally
func GlobToRegex(glob string) string {
	var b strings.Builder
	runes := []rune(glob)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '\\':
			if i+1 < len(runes) {
				b.WriteString(regexp.QuoteMeta(string(runes[i+1])))
				i++
			} else {
				b.WriteString(`\\`)
			}
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				b.WriteString(".*")
				i++
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		case '[':
			j := i
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			if j < len(runes) {
				b.WriteString(string(runes[i : j+1]))
				i = j
			} else {
				b.WriteString(regexp.QuoteMeta(string(c)))
			}
		case '{':
			j := i
			depth := 1
			for j+1 < len(runes) && depth > 0 {
				j++
				if runes[j] == '{' {
					depth++
				} else if runes[j] == '}' {
					depth--
				}
			}
			if depth == 0 {
				alts := strings.Split(string(runes[i+1:j]), ",")
				for k, a := range alts {
					alts[k] = regexp.QuoteMeta(a)
				}
				b.WriteString("(" + strings.Join(alts, "|") + ")")
				i = j
			} else {
				b.WriteString(regexp.QuoteMeta(string(c)))
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return b.String()
}

// matchRegex compiles and matches pattern against s using the stdlib RE2
// engine, used by the regex/iregex pattern functions.
func matchRegex(pattern, s string, ignoreCase bool) (bool, error) {
	return MatchRegexString(pattern, s, ignoreCase)
}

// MatchRegexString compiles and matches pattern against s using the stdlib
// RE2 engine. Exported so the query evaluator can reuse the exact matching
// semantics the registry's SQL pattern functions use.
func MatchRegexString(pattern, s string, ignoreCase bool) (bool, error) {
	if ignoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(s), nil
}

// matchGlob translates pattern to regex per GlobToRegex and matches it
// against s, used by the glob/iglob pattern functions.
func matchGlob(pattern, s string, ignoreCase bool) (bool, error) {
	return matchRegex(GlobToRegex(pattern), s, ignoreCase)
}

// matchPCRE matches pattern against s using regexp2, which supports PCRE
// features (backreferences, lookaround) that RE2 cannot express. Used by
// the pcre/ipcre pattern functions.
func matchPCRE(pattern, s string, ignoreCase bool) (bool, error) {
	opts := regexp2.None
	if ignoreCase {
		opts |= regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return false, err
	}
	return re.MatchString(s)
}
