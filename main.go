// Command brepweld evaluates a shape script, welds the tessellated
// surface into a shared-vertex mesh and writes it as Wavefront OBJ.
//
// Usage:
//
//	brepweld -script part.lisp -o part.obj [-quads] [-stats]
//	brepweld -stats existing.obj ...
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/chazu/brepweld/pkg/kernel/sdfx"
	"github.com/chazu/brepweld/pkg/obj"
	"github.com/chazu/brepweld/pkg/quad"
	"github.com/chazu/brepweld/pkg/weld"
)

// config holds the parsed command line.
type config struct {
	script     string
	out        string
	quads      bool
	stats      bool
	weldScale  float64
	weldRadius float64
	cells      int
	planeTol   float64
	minCos     float64
	files      []string
}

func parseFlags(fs *flag.FlagSet, args []string) (*config, error) {
	cfg := &config{}
	fs.StringVar(&cfg.script, "script", "", "shape script to evaluate")
	fs.StringVar(&cfg.out, "o", "", "OBJ file to write")
	fs.BoolVar(&cfg.quads, "quads", false, "merge coplanar triangle pairs into quads")
	fs.BoolVar(&cfg.stats, "stats", false, "print mesh statistics; without -script, read the OBJ files given as arguments")
	fs.Float64Var(&cfg.weldScale, "weld-scale", weld.DefaultScale, "lattice scale for vertex welding")
	fs.Float64Var(&cfg.weldRadius, "weld-radius", 0, "weld vertices within this distance instead of on the lattice")
	fs.IntVar(&cfg.cells, "cells", sdfx.DefaultMeshCells, "marching cubes cells along the longest axis")
	fs.Float64Var(&cfg.planeTol, "plane-tol", quad.DefaultPlaneTolerance, "coplanarity tolerance for quad merging, > 0")
	fs.Float64Var(&cfg.minCos, "min-cos", quad.DefaultMinCosine, "minimum normal cosine for quad merging, in (0, 1]")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.files = fs.Args()

	switch {
	case cfg.script == "" && !cfg.stats:
		return nil, errors.New("-script is required")
	case cfg.script == "" && len(cfg.files) == 0:
		return nil, errors.New("-stats needs -script or OBJ files to read")
	case cfg.script != "" && cfg.out == "" && !cfg.stats:
		return nil, errors.New("-script needs -o or -stats")
	case cfg.weldScale <= 0:
		return nil, fmt.Errorf("-weld-scale must be positive, got %g", cfg.weldScale)
	case cfg.weldRadius < 0:
		return nil, fmt.Errorf("-weld-radius must not be negative, got %g", cfg.weldRadius)
	case cfg.planeTol <= 0:
		return nil, fmt.Errorf("-plane-tol must be positive, got %g", cfg.planeTol)
	case cfg.minCos <= 0 || cfg.minCos > 1:
		return nil, fmt.Errorf("-min-cos must be in (0, 1], got %g", cfg.minCos)
	}
	return cfg, nil
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("brepweld: ")

	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Print(err)
		flag.Usage()
		os.Exit(2)
	}
	if err := run(cfg, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config, stdout io.Writer) error {
	if cfg.script == "" {
		for _, path := range cfg.files {
			if err := printFileStats(stdout, path); err != nil {
				return err
			}
		}
		return nil
	}

	source, err := os.ReadFile(cfg.script)
	if err != nil {
		return err
	}

	app := NewApp(sdfx.WithMeshCells(cfg.cells))
	app.SetWeldOptions(weld.Options{Scale: cfg.weldScale, Radius: cfg.weldRadius})
	app.SetQuadOptions(quad.Options{PlaneTolerance: cfg.planeTol, MinCosine: cfg.minCos})

	res := app.Load(string(source))
	for _, w := range res.Warnings {
		log.Printf("%s: warning: %s", cfg.script, w.Message)
	}
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			if e.Line > 0 {
				log.Printf("%s:%d: %s", cfg.script, e.Line, e.Message)
			} else {
				log.Printf("%s: %s", cfg.script, e.Message)
			}
		}
		return fmt.Errorf("%s: %d errors", cfg.script, len(res.Errors))
	}

	if cfg.stats {
		st, err := app.Stats()
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "patches:        %d\n", st.Patches)
		fmt.Fprintf(stdout, "soup triangles: %d\n", st.SoupTriangles)
		fmt.Fprintf(stdout, "vertices:       %d\n", st.Vertices)
		fmt.Fprintf(stdout, "triangles:      %d\n", st.Triangles)
		fmt.Fprintf(stdout, "quads:          %d (+%d triangles)\n", st.Quads, st.RemainingTris)
	}

	if cfg.out != "" {
		if er := app.Export(cfg.out, cfg.quads); !er.OK {
			return errors.New(er.Message)
		}
	}
	return nil
}

func printFileStats(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	file, err := obj.Decode(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	tris, quads, other := file.CountFaces()
	fmt.Fprintf(w, "%s: %d vertices, %d triangles, %d quads, %d other faces\n",
		path, len(file.Vertices), tris, quads, other)
	return nil
}
