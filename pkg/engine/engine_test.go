package engine

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEvaluateEmptyString(t *testing.T) {
	eng := NewEngine()

	for _, src := range []string{"", "   \n\t  \n  "} {
		g, evalErrs, err := eng.Evaluate(src)
		if err != nil {
			t.Fatalf("unexpected fatal error: %v", err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("unexpected eval errors: %v", evalErrs)
		}
		if g == nil {
			t.Fatal("expected non-nil graph")
		}
		if g.NodeCount() != 0 {
			t.Errorf("expected empty graph, got %d nodes", g.NodeCount())
		}
	}
}

func TestEvaluatePlainExpressions(t *testing.T) {
	eng := NewEngine()

	source := `
(def x 10)
(def y 20)
(+ x y)
`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if g == nil || g.NodeCount() != 0 {
		t.Fatal("expected an empty, non-nil graph for a script without shapes")
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := NewEngine()

	// Unmatched paren is a parse error.
	g, evalErrs, err := eng.Evaluate("(+ 1 2")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if g != nil {
		t.Fatal("expected nil graph on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for syntax error")
	}
	if evalErrs[0].Message == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	eng := NewEngine()

	g, evalErrs, err := eng.Evaluate("(+ 1 undefined-symbol)")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if g != nil {
		t.Fatal("expected nil graph on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for undefined symbol")
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	e2 := EvalError{Message: "no location"}
	if strings.Contains(e2.Error(), "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", e2.Error())
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine()
	source := `(defpart "plate" (box 10 10 2))`

	g1, _, err := eng.Evaluate(source)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		g2, evalErrs, err := eng.Evaluate(source)
		if err != nil || len(evalErrs) > 0 {
			t.Fatalf("iteration %d: %v %v", i, err, evalErrs)
		}
		if len(g2.Order) != len(g1.Order) {
			t.Fatalf("iteration %d: node count changed", i)
		}
		for j := range g1.Order {
			if g1.Order[j] != g2.Order[j] {
				t.Errorf("iteration %d: node %d ID differs", i, j)
			}
		}
	}
}

func TestEvaluateTimeout(t *testing.T) {
	// A channel that never sends stands in for a script that never ends;
	// a real endless loop would tie up a sandbox.
	eng := &Engine{generation: 1, timeout: 20 * time.Millisecond}
	ch := make(chan evalResult)

	done := make(chan struct{})
	var resultErr error
	go func() {
		defer close(done)
		_, _, resultErr = eng.wait(ch, 1)
	}()

	select {
	case <-done:
		if !errors.Is(resultErr, ErrTimeout) {
			t.Fatalf("expected ErrTimeout, got %v", resultErr)
		}
		if !strings.Contains(resultErr.Error(), "20ms") {
			t.Errorf("expected the limit in the message, got: %v", resultErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("test itself timed out waiting for evaluation timeout")
	}
}

func TestNewEngineUsesEvalTimeout(t *testing.T) {
	if eng := NewEngine(); eng.timeout != EvalTimeout {
		t.Errorf("expected timeout %s, got %s", EvalTimeout, eng.timeout)
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	eng := &Engine{generation: 3, timeout: EvalTimeout}

	ch := make(chan evalResult, 1)
	ch <- evalResult{}

	_, _, err := eng.wait(ch, 1)
	var se *SupersededError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SupersededError, got %v", err)
	}
	if se.Generation != 1 || se.Current != 3 {
		t.Errorf("expected generation 1 superseded by 3, got %d by %d", se.Generation, se.Current)
	}
	if !strings.Contains(err.Error(), "evaluation 1 superseded by evaluation 3") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestEvaluateCurrentGenerationPassesResult(t *testing.T) {
	eng := &Engine{generation: 2, timeout: EvalTimeout}

	ch := make(chan evalResult, 1)
	ch <- evalResult{evalErrs: []EvalError{{Line: 4, Message: "bad"}}}

	g, evalErrs, err := eng.wait(ch, 2)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if g != nil || len(evalErrs) != 1 || evalErrs[0].Line != 4 {
		t.Errorf("expected the eval error to pass through, got %v %v", g, evalErrs)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"error on line format", "Error on line 5: unexpected token\n", 5, "unexpected token"},
		{"no line info", "some generic error", 0, "some generic error"},
		{"line format lowercase", "error on line 12: missing paren", 12, "missing paren"},
		{"short line format", "line 3: box: missing z dimension", 3, "missing z dimension"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

// errString is a simple error type for testing.
type errString string

func (e errString) Error() string { return string(e) }
