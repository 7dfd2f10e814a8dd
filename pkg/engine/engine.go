// Package engine evaluates shape scripts. It wraps zygomys in a sandboxed
// environment and produces a ShapeGraph from user source code.
package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/brepweld/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error, a runtime error in user code, or an invalid graph.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning is an advisory finding about an otherwise valid graph.
type EvalWarning struct {
	Message string
	NodeID  graph.NodeID
}

// EvalTimeout is the hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// ErrTimeout is returned when an evaluation runs past its time limit.
var ErrTimeout = errors.New("engine: evaluation timed out")

// SupersededError is returned for an evaluation whose result arrived after
// a newer Evaluate call had started.
type SupersededError struct {
	Generation uint64 // the discarded evaluation
	Current    uint64 // the newest evaluation when the result arrived
}

func (e *SupersededError) Error() string {
	return fmt.Sprintf("engine: evaluation %d superseded by evaluation %d", e.Generation, e.Current)
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use;
// each call to Evaluate creates a fresh sandboxed environment.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{timeout: EvalTimeout}
}

// evalResult carries one evaluation's outcome through a channel.
type evalResult struct {
	graph    *graph.ShapeGraph
	evalErrs []EvalError
	err      error
}

// Evaluate takes script source and produces a new, validated ShapeGraph
// with its roots computed.
//
// Return semantics:
//   - On success: returns graph + nil errors + nil error
//   - On parse/eval/validation failure: returns nil graph + eval errors + nil error
//   - On fatal failure: returns nil + nil + error, where error is
//     ErrTimeout, a *SupersededError, or a recovered panic
func (e *Engine) Evaluate(source string) (*graph.ShapeGraph, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		g, evalErrs, err := e.evaluate(source)
		ch <- evalResult{graph: g, evalErrs: evalErrs, err: err}
	}()

	return e.wait(ch, gen)
}

// wait blocks for the result of evaluation gen. A result is discarded when
// a newer evaluation started in the meantime. On timeout the evaluating
// goroutine keeps running; its result lands in the buffered channel and is
// never read.
func (e *Engine) wait(ch <-chan evalResult, gen uint64) (*graph.ShapeGraph, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		e.mu.Lock()
		current := e.generation
		e.mu.Unlock()
		if gen != current {
			return nil, nil, &SupersededError{Generation: gen, Current: current}
		}
		return res.graph, res.evalErrs, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*graph.ShapeGraph, []EvalError, error) {
	if strings.TrimSpace(source) == "" {
		return graph.New(), nil, nil
	}

	// Sandbox mode keeps user code away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	g := graph.New()
	registerBuiltins(env, g)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	g.ComputeRoots()
	if evalErrs := validationErrors(graph.Validate(g)); len(evalErrs) > 0 {
		return nil, evalErrs, nil
	}
	return g, nil, nil
}

// validationErrors keeps the error-severity findings.
func validationErrors(findings []graph.ValidationError) []EvalError {
	var errs []EvalError
	for _, f := range findings {
		if f.Severity == graph.SeverityError {
			errs = append(errs, EvalError{Message: f.Error()})
		}
	}
	return errs
}

// Warnings returns the advisory findings for a graph returned by Evaluate.
func Warnings(g *graph.ShapeGraph) []EvalWarning {
	if g == nil {
		return nil
	}
	var ws []EvalWarning
	for _, f := range graph.Validate(g) {
		if f.Severity == graph.SeverityWarning {
			ws = append(ws, EvalWarning{Message: f.Message, NodeID: f.NodeID})
		}
	}
	return ws
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError
// values, extracting the line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
