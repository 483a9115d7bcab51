// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command processtree runs one C4 tree-processor operation (§4.4)
// against a tree file: monotonicity enforcement, debinarization,
// selection-driven flattening, base-to-leaves collapse, or grid
// coarsening.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/expr-lang/expr"

	"github.com/connectome-lab/hctree/internal/clicommon"
	"github.com/connectome-lab/hctree/pkg/log"
	"github.com/connectome-lab/hctree/pkg/tree"
	"github.com/connectome-lab/hctree/pkg/treeproc"
)

func main() {
	var common clicommon.Flags
	clicommon.Register(&common)

	var (
		inPath, outPath, op, selectExpr string
		keepBase                        bool
		errorMult                       float64
		coarsenFactor                   int
	)
	flag.StringVar(&inPath, "in", "", "Path to the input tree file")
	flag.StringVar(&outPath, "out", "", "Path to write the processed tree file")
	flag.StringVar(&op, "op", "", "Operation: monotonic-up|monotonic-down|monotonic-weighted|debinarize|flatten|basetoleaves|coarsen")
	flag.StringVar(&selectExpr, "select", "", "Boolean expression over node fields (size, level, hLevel) selecting flatten roots")
	flag.BoolVar(&keepBase, "keepbase", true, "Preserve base nodes (hLevel==1) during debinarize/flatten")
	flag.Float64Var(&errorMult, "errormult", 1.5, "Tolerance multiplier for monotonic-weighted")
	flag.IntVar(&coarsenFactor, "factor", 2, "Grid coarsening factor for op=coarsen")
	flag.Parse()

	runtime.GOMAXPROCS(common.Init())

	if inPath == "" || outPath == "" || op == "" {
		fmt.Fprintln(os.Stderr, "processtree: -in, -out and -op are required")
		os.Exit(1)
	}

	in, err := os.Open(inPath)
	if err != nil {
		log.Fatalf("processtree: open %s: %v", inPath, err)
	}
	tr, err := tree.Read(in)
	in.Close()
	if err != nil {
		log.Fatalf("processtree: read %s: %v", inPath, err)
	}

	switch op {
	case "monotonic-up":
		err = treeproc.ForceMonotonicityUp(tr)
	case "monotonic-down":
		err = treeproc.ForceMonotonicityDown(tr)
	case "monotonic-weighted":
		err = treeproc.ForceMonotonicityWeighted(tr, errorMult)
	case "debinarize":
		err = treeproc.Debinarize(tr, keepBase)
	case "flatten":
		roots, selErr := selectRoots(tr, selectExpr)
		if selErr != nil {
			log.Fatalf("processtree: -select: %v", selErr)
		}
		err = treeproc.FlattenSelection(tr, roots, keepBase)
	case "basetoleaves":
		err = treeproc.BaseToLeaves(tr)
	case "coarsen":
		_, err = treeproc.CoarsenTree(tr, coarsenFactor)
	default:
		log.Fatalf("processtree: unknown -op %q", op)
	}
	if err != nil {
		log.Fatalf("processtree: %s: %v", op, err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("processtree: create %s: %v", outPath, err)
	}
	defer out.Close()
	if err := tr.Write(out); err != nil {
		log.Fatalf("processtree: write %s: %v", outPath, err)
	}
	log.Infof("processtree: %s -> %s (%s)", inPath, outPath, op)
}

// selectRoots evaluates selectExpr against every non-leaf node's
// (size, level, hLevel) fields and returns the indices where it's true.
func selectRoots(tr *tree.Tree, selectExpr string) ([]int, error) {
	if selectExpr == "" {
		return nil, fmt.Errorf("flatten requires -select")
	}
	program, err := expr.Compile(selectExpr, expr.Env(nodeEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	var roots []int
	for i, n := range tr.Nodes {
		if n.Flag {
			continue
		}
		out, err := expr.Run(program, nodeEnv{Size: n.Size, Level: float64(n.Level), HLevel: n.HLevel})
		if err != nil {
			return nil, fmt.Errorf("eval node %d: %w", n.ID, err)
		}
		if out.(bool) {
			roots = append(roots, i)
		}
	}
	return roots, nil
}

type nodeEnv struct {
	Size   int     `expr:"size"`
	Level  float64 `expr:"level"`
	HLevel int     `expr:"hLevel"`
}
