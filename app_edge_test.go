package main

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/brepweld/pkg/kernel/sdfx"
	"github.com/chazu/brepweld/pkg/session"
)

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

func TestLoadEmptySource(t *testing.T) {
	app := NewApp(sdfx.WithMeshCells(testCells))
	result := app.Load("")

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for empty source, got %d", len(result.Errors))
	}
	if result.Patches != 0 {
		t.Errorf("expected 0 patches, got %d", result.Patches)
	}
	// Slices stay non-nil so they serialize as [] rather than null.
	if result.Errors == nil || result.Warnings == nil {
		t.Error("expected non-nil error and warning slices")
	}

	// An empty shape is loaded, but it has no mesh.
	preview := app.Preview()
	if preview.Mesh != nil {
		t.Fatal("expected no preview mesh")
	}
	if !strings.Contains(preview.Message, "empty mesh") {
		t.Errorf("expected empty mesh message, got %q", preview.Message)
	}
	res := app.Export(filepath.Join(t.TempDir(), "empty.obj"), false)
	if res.OK || !strings.Contains(res.Message, "empty mesh") {
		t.Errorf("expected empty mesh failure, got %+v", res)
	}
}

func TestLoadSyntaxErrorWithLineInfo(t *testing.T) {
	app := NewApp(sdfx.WithMeshCells(testCells))

	result := app.Load("(+ 1 2)\n(defpart \"test\"")
	if len(result.Errors) == 0 {
		t.Fatal("expected at least one eval error for unmatched parens")
	}
	e := result.Errors[0]
	if e.Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
	t.Logf("syntax error: line=%d, col=%d, message=%q", e.Line, e.Col, e.Message)
}

func TestLoadWarningsForEmptyAssembly(t *testing.T) {
	app := NewApp(sdfx.WithMeshCells(testCells))
	result := app.Load(`(assembly "nothing")`)

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(result.Warnings))
	}
	if !strings.Contains(result.Warnings[0].Message, "nothing") {
		t.Errorf("expected warning naming the assembly, got %q", result.Warnings[0].Message)
	}
}

func TestFailedLoadUnloadsPreviousShape(t *testing.T) {
	app := NewApp(sdfx.WithMeshCells(testCells))
	if res := app.Load(`(defpart "cube" (box 10 10 10))`); len(res.Errors) > 0 {
		t.Fatalf("load errors: %v", res.Errors)
	}
	if app.Preview().Mesh == nil {
		t.Fatal("expected a mesh after a good load")
	}

	if res := app.Load(`(part "missing")`); len(res.Errors) == 0 {
		t.Fatal("expected errors")
	}
	if _, err := app.Stats(); !errors.Is(err, session.ErrNoShape) {
		t.Errorf("expected ErrNoShape after a failed load, got %v", err)
	}
}

func TestReloadReplacesMesh(t *testing.T) {
	app := NewApp(sdfx.WithMeshCells(testCells))
	app.Load(`(defpart "small" (box 1 1 1))`)
	first := app.Preview()

	app.Load(`(defpart "ball" (sphere 5))`)
	second := app.Preview()
	if first.Mesh == nil || second.Mesh == nil {
		t.Fatal("expected meshes for both loads")
	}
	if second.Mesh.Name != "ball" {
		t.Errorf("expected the reloaded shape, got %q", second.Mesh.Name)
	}
}

// ---------------------------------------------------------------------------
// Export failures
// ---------------------------------------------------------------------------

func TestExportWithoutShape(t *testing.T) {
	app := NewApp(sdfx.WithMeshCells(testCells))
	path := filepath.Join(t.TempDir(), "none.obj")

	for _, quads := range []bool{false, true} {
		res := app.Export(path, quads)
		if res.OK {
			t.Fatal("expected export without a shape to fail")
		}
		if res.Message != "no shape loaded" {
			t.Errorf("expected no shape message, got %q", res.Message)
		}
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected no file to be written")
	}
}

func TestExportMissingDirectory(t *testing.T) {
	app := NewApp(sdfx.WithMeshCells(testCells))
	app.Load(`(defpart "cube" (box 10 10 10))`)

	path := filepath.Join(t.TempDir(), "missing", "cube.obj")
	res := app.Export(path, false)
	if res.OK {
		t.Fatal("expected export to a missing directory to fail")
	}
	if !strings.Contains(res.Message, "cannot write") {
		t.Errorf("expected write failure message, got %q", res.Message)
	}
}

// ---------------------------------------------------------------------------
// Command line
// ---------------------------------------------------------------------------

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"script and output", []string{"-script", "a.lisp", "-o", "a.obj"}, ""},
		{"stats on files", []string{"-stats", "a.obj", "b.obj"}, ""},
		{"nothing to do", []string{}, "-script is required"},
		{"stats without input", []string{"-stats"}, "OBJ files"},
		{"bad weld scale", []string{"-script", "a.lisp", "-o", "a.obj", "-weld-scale", "0"}, "weld-scale"},
		{"negative radius", []string{"-script", "a.lisp", "-o", "a.obj", "-weld-radius", "-1"}, "weld-radius"},
		{"script with stats only", []string{"-script", "a.lisp", "-stats"}, ""},
		{"script without output or stats", []string{"-script", "a.lisp"}, "-o or -stats"},
		{"zero plane tolerance", []string{"-script", "a.lisp", "-o", "a.obj", "-plane-tol", "0"}, "plane-tol"},
		{"zero min cosine", []string{"-script", "a.lisp", "-o", "a.obj", "-min-cos", "0"}, "min-cos"},
		{"min cosine above one", []string{"-script", "a.lisp", "-o", "a.obj", "-min-cos", "1.5"}, "min-cos"},
		{"min cosine of one", []string{"-script", "a.lisp", "-o", "a.obj", "-min-cos", "1"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("brepweld", flag.ContinueOnError)
			fs.SetOutput(io.Discard)
			_, err := parseFlags(fs, tt.args)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRunScriptThenStatsFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "table.obj")

	fs := flag.NewFlagSet("brepweld", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{
		"-script", filepath.Join("examples", "table.lisp"),
		"-o", out, "-quads", "-stats", "-cells", "16",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var stdout bytes.Buffer
	if err := run(cfg, &stdout); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "patches:        5") {
		t.Errorf("expected pipeline stats, got:\n%s", stdout.String())
	}

	fs = flag.NewFlagSet("brepweld", flag.ContinueOnError)
	cfg, err = parseFlags(fs, []string{"-stats", out})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	stdout.Reset()
	if err := run(cfg, &stdout); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), out+": ") || !strings.Contains(stdout.String(), "quads") {
		t.Errorf("unexpected file stats %q", stdout.String())
	}
}

func TestRunReportsScriptErrors(t *testing.T) {
	script := filepath.Join(t.TempDir(), "bad.lisp")
	if err := os.WriteFile(script, []byte(`(box 0 1 1)`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := &config{script: script, weldScale: 1e6, cells: 16}
	err := run(cfg, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "1 errors") {
		t.Errorf("expected a script error count, got %v", err)
	}
}
