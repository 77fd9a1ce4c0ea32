// Package template implements command-template placeholder expansion: the
// `{}`, `{/}`, `{//}`, `{.}`, `{/.}` tokens applied to a file path, batch vs
// per-file argv construction, and literal-brace escaping.
package template

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Mode selects how a Template is expanded against a set of paths.
type Mode int

const (
	// PerFile expands and executes the template once per input path.
	PerFile Mode = iota
	// Batch expands a single `{}` position once, with every path
	// substituted in at that one position.
	Batch
)

// token is either literal text or one of the placeholder kinds.
type token struct {
	literal string
	place   placeholder
}

type placeholder int

const (
	placeNone placeholder = iota
	placeFull
	placeBase
	placeDir
	placeNoExt
	placeBaseNoExt
)

// Template is a parsed, ordered sequence of literal and placeholder tokens,
// ready to be expanded against one or more paths.
type Template struct {
	argTokens [][]token
	mode      Mode
}

// Parse splits argv (the words of a command line, already split on
// whitespace by the caller) into a Template, recognizing placeholders
// within each word and unescaping literal `{{`/`}}`.
func Parse(argv []string, mode Mode) (*Template, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command template")
	}
	t := &Template{mode: mode}
	for _, word := range argv {
		toks, err := tokenizeWord(word)
		if err != nil {
			return nil, err
		}
		t.argTokens = append(t.argTokens, toks)
	}
	return t, nil
}

func tokenizeWord(word string) ([]token, error) {
	var toks []token
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			toks = append(toks, token{literal: lit.String()})
			lit.Reset()
		}
	}

	i := 0
	for i < len(word) {
		switch {
		case strings.HasPrefix(word[i:], "{{"):
			lit.WriteByte('{')
			i += 2
		case strings.HasPrefix(word[i:], "}}"):
			lit.WriteByte('}')
			i += 2
		case strings.HasPrefix(word[i:], "{/.}"):
			flush()
			toks = append(toks, token{place: placeBaseNoExt})
			i += 4
		case strings.HasPrefix(word[i:], "{//}"):
			flush()
			toks = append(toks, token{place: placeDir})
			i += 4
		case strings.HasPrefix(word[i:], "{/}"):
			flush()
			toks = append(toks, token{place: placeBase})
			i += 3
		case strings.HasPrefix(word[i:], "{.}"):
			flush()
			toks = append(toks, token{place: placeNoExt})
			i += 3
		case strings.HasPrefix(word[i:], "{}"):
			flush()
			toks = append(toks, token{place: placeFull})
			i += 2
		case word[i] == '{' || word[i] == '}':
			return nil, fmt.Errorf("unescaped brace in template word %q (use {{ or }})", word)
		default:
			lit.WriteByte(word[i])
			i++
		}
	}
	flush()
	return toks, nil
}

func expandToken(tok token, path string) string {
	switch tok.place {
	case placeFull:
		return path
	case placeBase:
		return filepath.Base(path)
	case placeDir:
		return filepath.Dir(path)
	case placeNoExt:
		return strings.TrimSuffix(path, filepath.Ext(path))
	case placeBaseNoExt:
		b := filepath.Base(path)
		return strings.TrimSuffix(b, filepath.Ext(b))
	default:
		return tok.literal
	}
}

func expandWord(toks []token, path string) string {
	var b strings.Builder
	for _, tok := range toks {
		b.WriteString(expandToken(tok, path))
	}
	return b.String()
}

func hasPlaceholder(toks []token) bool {
	for _, tok := range toks {
		if tok.place != placeNone {
			return true
		}
	}
	return false
}

// ExpandPerFile expands the template against a single path, producing one
// argv vector.
func (t *Template) ExpandPerFile(path string) ([]string, error) {
	argv := make([]string, len(t.argTokens))
	for i, toks := range t.argTokens {
		argv[i] = expandWord(toks, path)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("template expansion produced empty argv")
	}
	return argv, nil
}

// ExpandBatch expands the template once, substituting the full path list
// into the single `{}` position. It is an error for a batch template to
// carry more than one placeholder word, or none at all.
func (t *Template) ExpandBatch(paths []string) ([]string, error) {
	var argv []string
	expanded := false
	for _, toks := range t.argTokens {
		if !hasPlaceholder(toks) {
			argv = append(argv, expandWord(toks, ""))
			continue
		}
		if expanded {
			return nil, fmt.Errorf("batch mode supports exactly one placeholder position")
		}
		for _, p := range paths {
			argv = append(argv, expandWord(toks, p))
		}
		expanded = true
	}
	if !expanded {
		return nil, fmt.Errorf("batch template has no placeholder to substitute the path list into")
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("template expansion produced empty argv")
	}
	return argv, nil
}

// Mode reports the template's configured expansion mode.
func (t *Template) Mode() Mode { return t.mode }
