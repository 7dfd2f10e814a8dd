package engine

import (
	"strings"
	"testing"

	"github.com/chazu/brepweld/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessSource(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"simple keyword", `(sphere :radius 5)`, `(sphere "__kw_radius" 5)`},
		{"multiple keywords", `(cylinder :height 4 :radius 1)`, `(cylinder "__kw_height" 4 "__kw_radius" 1)`},
		{"keyword in string preserved", `"thing with :keyword inside"`, `"thing with :keyword inside"`},
		{"escaped quote in string", `"a \" :b"`, `"a \" :b"`},
		{"backtick string preserved", "`raw :kw`", "`raw :kw`"},
		{"assignment operator preserved", `(def x := 10)`, `(def x := 10)`},
		{"kebab-case identifier", `(my-part :at v)`, `(my_part "__kw_at" v)`},
		{"minus operator preserved", `(- 10 5)`, `(- 10 5)`},
		{"negative number preserved", `(vec3 -1 0 -2)`, `(vec3 -1 0 -2)`},
		{"comment converted to // style", `;; comment with :keyword`, `// comment with :keyword`},
		{"single semicolon comment", `; simple comment`, `// simple comment`},
		{"hyphen in keyword preserved", `:head-dia`, `"__kw_head-dia"`},
		{"mirror axis keyword", `(place p :mirror :x)`, `(place p "__kw_mirror" "__kw_x")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestParseArgs(t *testing.T) {
	args := []zygo.Sexp{
		&zygo.SexpInt{Val: 1},
		&zygo.SexpStr{S: kwPrefix + "radius"},
		&zygo.SexpFloat{Val: 2.5},
		&zygo.SexpInt{Val: 3},
		&zygo.SexpStr{S: kwPrefix + "flag"},
	}
	pa := parseArgs(args)
	if len(pa.positional) != 2 {
		t.Fatalf("expected 2 positional args, got %d", len(pa.positional))
	}
	r, ok, err := pa.number("radius", 5)
	if err != nil || !ok || r != 2.5 {
		t.Errorf("radius = %v %v %v, want 2.5", r, ok, err)
	}
	first, ok, _ := pa.number("missing", 0)
	if !ok || first != 1 {
		t.Errorf("positional fallback = %v %v, want 1", first, ok)
	}
	if _, ok, _ := pa.number("missing", 7); ok {
		t.Error("expected no value for an absent keyword and position")
	}
	if pa.kw["flag"] != zygo.SexpNull {
		t.Error("trailing keyword should map to null")
	}
}

// ---------------------------------------------------------------------------
// Evaluation helpers
// ---------------------------------------------------------------------------

func mustEval(t *testing.T, source string) *graph.ShapeGraph {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if g == nil {
		t.Fatal("expected non-nil graph")
	}
	return g
}

func countKind(g *graph.ShapeGraph, kind graph.NodeKind) int {
	n := 0
	for _, node := range g.Nodes {
		if node.Kind == kind {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Primitive tests
// ---------------------------------------------------------------------------

func TestPrimitiveForms(t *testing.T) {
	tests := []struct {
		name   string
		source string
		check  func(t *testing.T, d graph.NodeData)
	}{
		{
			name:   "positional box",
			source: `(defpart "p" (box 10 20 5))`,
			check: func(t *testing.T, d graph.NodeData) {
				bd := d.(graph.BoxData)
				if bd.Size.X != 10 || bd.Size.Y != 20 || bd.Size.Z != 5 {
					t.Errorf("box size = %v, want 10x20x5", bd.Size)
				}
			},
		},
		{
			name:   "vec3 box",
			source: `(defpart "p" (box (vec3 1 2 3)))`,
			check: func(t *testing.T, d graph.NodeData) {
				if bd := d.(graph.BoxData); bd.Size.Z != 3 {
					t.Errorf("box size = %v, want 1x2x3", bd.Size)
				}
			},
		},
		{
			name:   "keyword box",
			source: `(defpart "p" (box :x 4 :y 5 :z 6.5))`,
			check: func(t *testing.T, d graph.NodeData) {
				if bd := d.(graph.BoxData); bd.Size.Z != 6.5 {
					t.Errorf("box size = %v, want 4x5x6.5", bd.Size)
				}
			},
		},
		{
			name:   "cylinder",
			source: `(defpart "p" (cylinder :height 8 :radius 2))`,
			check: func(t *testing.T, d graph.NodeData) {
				cd := d.(graph.CylinderData)
				if cd.Height != 8 || cd.Radius != 2 {
					t.Errorf("cylinder = %+v, want h=8 r=2", cd)
				}
			},
		},
		{
			name:   "sphere with variable",
			source: "(def r 7)\n(defpart \"p\" (sphere r))",
			check: func(t *testing.T, d graph.NodeData) {
				if sd := d.(graph.SphereData); sd.Radius != 7 {
					t.Errorf("sphere radius = %g, want 7", sd.Radius)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustEval(t, tt.source)
			p := g.Lookup("p")
			if p == nil || p.Kind != graph.NodePart {
				t.Fatal("expected part node 'p'")
			}
			body := g.Children(p)
			if len(body) != 1 || body[0].Kind != graph.NodePrimitive {
				t.Fatalf("expected a primitive body, got %v", body)
			}
			tt.check(t, body[0].Data)
		})
	}
}

func TestBooleanAndTransform(t *testing.T) {
	source := `
(defpart "bracket"
  (difference
    (box 20 10 4)
    (translate (cylinder 10 2) (vec3 5 5 0))
    (rotate (translate (cylinder 10 2) (vec3 15 5 0)) (vec3 0 0 0))))
`
	g := mustEval(t, source)
	if countKind(g, graph.NodeBoolean) != 1 {
		t.Fatalf("expected 1 boolean node, got %d", countKind(g, graph.NodeBoolean))
	}
	if countKind(g, graph.NodeTransform) != 3 {
		t.Errorf("expected 3 transform nodes, got %d", countKind(g, graph.NodeTransform))
	}

	bracket := g.Lookup("bracket")
	diff := g.Children(bracket)[0]
	bd, ok := diff.Data.(graph.BooleanData)
	if !ok || bd.Op != graph.OpDifference {
		t.Fatalf("expected difference, got %v", diff.Data)
	}
	if len(diff.Children) != 3 {
		t.Fatalf("expected 3 operands, got %d", len(diff.Children))
	}
	moved := g.Get(diff.Children[1])
	td := moved.Data.(graph.TransformData)
	if td.Translation == nil || td.Translation.X != 5 || td.Rotation != nil {
		t.Errorf("unexpected transform data %+v", td)
	}
	if len(g.Roots) != 1 || g.Roots[0] != bracket.ID {
		t.Errorf("expected bracket as the only root, got %v", g.Roots)
	}
}

// ---------------------------------------------------------------------------
// Assembly and placement tests
// ---------------------------------------------------------------------------

func TestAssemblyWithPlacement(t *testing.T) {
	source := `
(defpart "leg" (box 5 5 40))
(defpart "top" (box 60 30 3))

(assembly "table"
  (place (part "top") :at (vec3 0 0 40))
  (place (part "leg") :at (vec3 0 0 0))
  (place (part "leg") :at (vec3 55 0 0) :rotate (vec3 0 0 90))
  (place (part "leg") :at (vec3 0 25 0) :mirror :y))
`
	g := mustEval(t, source)

	if countKind(g, graph.NodePart) != 2 {
		t.Errorf("expected 2 parts, got %d", countKind(g, graph.NodePart))
	}
	if countKind(g, graph.NodePlacement) != 4 {
		t.Errorf("expected 4 placements, got %d", countKind(g, graph.NodePlacement))
	}

	table := g.Lookup("table")
	if table == nil || table.Kind != graph.NodeGroup {
		t.Fatal("expected group node 'table'")
	}
	if len(table.Children) != 4 {
		t.Fatalf("table: expected 4 children, got %d", len(table.Children))
	}
	if len(g.Roots) != 1 || g.Roots[0] != table.ID {
		t.Errorf("expected table as the only root, got %d roots", len(g.Roots))
	}

	third := g.Get(table.Children[2]).Data.(graph.PlacementData)
	if third.Rotation == nil || third.Rotation.Z != 90 {
		t.Errorf("expected rotation 90 about Z, got %+v", third.Rotation)
	}
	fourth := g.Get(table.Children[3]).Data.(graph.PlacementData)
	if fourth.Mirror != graph.AxisY {
		t.Errorf("expected mirror y, got %s", fourth.Mirror)
	}

	// The leg part is shared by three placements.
	leg := g.Lookup("leg")
	for _, i := range []int{1, 2, 3} {
		if g.Get(table.Children[i]).Children[0] != leg.ID {
			t.Errorf("placement %d does not reference leg", i)
		}
	}
}

func TestNestedAssemblies(t *testing.T) {
	source := `
(defpart "peg" (cylinder 10 1))
(assembly "row" (place (part "peg") :at (vec3 0 0 0)) (place (part "peg") :at (vec3 5 0 0)))
(assembly "grid" (place (part "row")) (place (part "row") :at (vec3 0 5 0)))
`
	// (part "row") names an assembly, not a part.
	_, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected an error for (part) on an assembly name")
	}

	source = `
(defpart "peg" (cylinder 10 1))
(def row (assembly "row" (place (part "peg")) (place (part "peg") :at (vec3 5 0 0))))
(assembly "grid" (place row) (place row :at (vec3 0 5 0)))
`
	g := mustEval(t, source)
	grid := g.Lookup("grid")
	if len(g.Roots) != 1 || g.Roots[0] != grid.ID {
		t.Errorf("expected grid as the only root, got %v", g.Roots)
	}
}

func TestBareSolidIsRoot(t *testing.T) {
	g := mustEval(t, `(sphere 3)`)
	if len(g.Roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(g.Roots))
	}
	if g.Get(g.Roots[0]).Kind != graph.NodePrimitive {
		t.Errorf("expected the sphere as root")
	}
}

func TestWarnings(t *testing.T) {
	g := mustEval(t, `(assembly "nothing")`)
	ws := Warnings(g)
	if len(ws) != 1 || !strings.Contains(ws[0].Message, "empty") {
		t.Errorf("expected one empty-group warning, got %v", ws)
	}
	if Warnings(nil) != nil {
		t.Error("expected no warnings for a nil graph")
	}
}

// ---------------------------------------------------------------------------
// Error tests
// ---------------------------------------------------------------------------

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"missing part", `(part "nonexistent")`, "no part named"},
		{"duplicate part", "(defpart \"a\" (box 1 1 1))\n(defpart \"a\" (box 2 2 2))", "already defined"},
		{"zero box", `(box 0 1 1)`, "must be positive"},
		{"missing box dimension", `(box 1 1)`, "missing z dimension"},
		{"negative sphere", `(sphere -1)`, "must be positive"},
		{"cylinder without radius", `(cylinder :height 3)`, "missing radius"},
		{"union of one", `(union (box 1 1 1))`, "at least 2 solids"},
		{"union of part", "(defpart \"a\" (box 1 1 1))\n(union (box 1 1 1) (part \"a\"))", "expected solid"},
		{"defpart of part", "(defpart \"a\" (box 1 1 1))\n(defpart \"b\" (part \"a\"))", "expected solid"},
		{"place a solid", `(place (box 1 1 1))`, "cannot place"},
		{"bad mirror axis", "(defpart \"a\" (box 1 1 1))\n(place (part \"a\") :mirror :w)", "invalid axis"},
		{"unknown place keyword", "(defpart \"a\" (box 1 1 1))\n(place (part \"a\") :scale 2)", "unknown keyword"},
		{"assembly of solid", `(assembly "x" (box 1 1 1))`, "wrap it in defpart"},
		{"vec3 arity", `(vec3 1 2)`, "exactly 3"},
		{"translate without vector", `(translate (box 1 1 1) 5)`, "expected vec3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, evalErrs, err := NewEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
			}
			if g != nil {
				t.Fatal("expected nil graph on error")
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected at least one eval error")
			}
			found := false
			for _, e := range evalErrs {
				if strings.Contains(e.Message, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error containing %q, got %v", tt.want, evalErrs)
			}
		})
	}
}
