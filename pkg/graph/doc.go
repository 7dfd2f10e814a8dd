// Package graph defines the shape graph produced by script evaluation.
// The shape graph is an immutable DAG of primitive solids, boolean and
// rigid operations on solids, named parts, placements and groups. It is
// never mutated once evaluation has finished.
package graph
