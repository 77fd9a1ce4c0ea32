package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseSimpleTagCall(t *testing.T) {
	n, err := Parse(`tag(red)`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := Render(n), `tag(red)`; got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestParseAndOr(t *testing.T) {
	n, err := Parse(`tag(red) && tag(warm) || tag(cool)`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// Round trip: re-parsing the rendered form should reproduce the same
	// rendering (structural round-trip, not necessarily byte-identical
	// source).
	rendered := Render(n)
	n2, err := Parse(rendered)
	if err != nil {
		t.Fatalf("re-parse of rendered form failed: %v", err)
	}
	if got := Render(n2); got != rendered {
		t.Errorf("round-trip mismatch: %q != %q", got, rendered)
	}
}

func TestParseDelimitedPattern(t *testing.T) {
	n, err := Parse(`%r/^foo.*bar$/i`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := Render(n), `%r/^foo.*bar$/i`; got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestParsePairedDelimiterPattern(t *testing.T) {
	n, err := Parse(`%g(*.txt)`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := Render(n), `%g(*.txt)`; got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

// TestParseErrorRecoveryTwoDiagnostics is end-to-end scenario 5: parsing
// "tag(red) && %r/unterminated" must emit two diagnostics and return an
// error.
func TestParseErrorRecoveryTwoDiagnostics(t *testing.T) {
	_, err := Parse(`tag(red) && %r/unterminated`)
	if err == nil {
		t.Fatal("expected parse error")
	}
	el, ok := err.(*ErrorList)
	if !ok {
		t.Fatalf("expected *ErrorList, got %T", err)
	}
	if len(el.Diags) < 2 {
		t.Fatalf("expected at least 2 diagnostics, got %d: %v", len(el.Diags), el.Diags)
	}
}

// TestParseDeterministic verifies parsing the same source twice produces a
// structurally identical AST, including span positions.
func TestParseDeterministic(t *testing.T) {
	const src = `tag(red) && (value(warm) || %g(*.txt))`
	n1, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	n2, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(n1, n2); diff != "" {
		t.Errorf("parse of identical source diverged (-first +second):\n%s", diff)
	}
}

// TestUnrecognizedCharacterDiagnostic verifies a genuinely unrecognized byte
// is reported as an UnexpectedToken diagnostic rather than silently treated
// as end-of-input and truncating the rest of the query.
func TestUnrecognizedCharacterDiagnostic(t *testing.T) {
	_, err := Parse(`tag(red) ~ tag(blue)`)
	if err == nil {
		t.Fatal("expected error for unrecognized character")
	}
	el, ok := err.(*ErrorList)
	if !ok {
		t.Fatalf("expected *ErrorList, got %T", err)
	}
	found := false
	for _, d := range el.Diags {
		if d.Kind == UnexpectedToken {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an UnexpectedToken diagnostic, got %v", el.Diags)
	}
}

// TestParseWordFormComparisons verifies "eq"/"ne" parse as comparisons
// equivalent to "=="/"!=".
func TestParseWordFormComparisons(t *testing.T) {
	n, err := Parse(`foo eq bar`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := Render(n), `(foo == bar)`; got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}

	n, err = Parse(`foo ne bar`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := Render(n), `(foo != bar)`; got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestUnknownFunctionDiagnostic(t *testing.T) {
	_, err := Parse(`bogus(x)`)
	if err == nil {
		t.Fatal("expected error for unknown function")
	}
	el := err.(*ErrorList)
	found := false
	for _, d := range el.Diags {
		if d.Kind == UnknownFunction {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an UnknownFunction diagnostic, got %v", el.Diags)
	}
}
