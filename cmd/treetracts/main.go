// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command treetracts computes mean tractograms for tree nodes from the
// original leaf tracts and writes them to an output tract store: the
// selected nodes' subtrees are folded bottom-up with the same weighted
// centroid merge the builder uses (§4.1's tract.MergeInto), rather than
// trusting whatever node tracts the builder happened to leave behind.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/connectome-lab/hctree/internal/clicommon"
	"github.com/connectome-lab/hctree/internal/tractstore/fsstore"
	"github.com/connectome-lab/hctree/pkg/log"
	"github.com/connectome-lab/hctree/pkg/tract"
	"github.com/connectome-lab/hctree/pkg/tree"
)

func main() {
	var common clicommon.Flags
	clicommon.Register(&common)

	var (
		treePath, inputFolder, outputFolder, nodesList string
		bases, all                                      bool
		threshold                                        float64
		nstream                                          int
	)
	flag.StringVar(&treePath, "tree", "", "Path to the hierarchical tree file")
	flag.StringVar(&inputFolder, "inputf", "", "Input tract store root (leaf tracts)")
	flag.StringVar(&outputFolder, "outputf", "", "Output tract store root to write node tracts to")
	flag.StringVar(&nodesList, "nodes", "", "Comma-separated node ids to write")
	flag.BoolVar(&bases, "bases", false, "Write tracts for every base-node")
	flag.BoolVar(&all, "all", false, "Write tracts for every tree node")
	flag.Float64Var(&threshold, "threshold", 0, "Relative threshold given to the tract stores; leaf tracts are read unthresholded")
	flag.IntVar(&nstream, "nstream", 0, "Streamline count given to the tract stores; leaf tracts are read as stored, without a log transform")
	flag.Parse()

	runtime.GOMAXPROCS(common.Init())

	if treePath == "" || inputFolder == "" || outputFolder == "" {
		fmt.Fprintln(os.Stderr, "treetracts: -tree, -inputf and -outputf are required")
		os.Exit(1)
	}

	f, err := os.Open(treePath)
	if err != nil {
		log.Fatalf("treetracts: open %s: %v", treePath, err)
	}
	tr, err := tree.Read(f)
	f.Close()
	if err != nil {
		log.Fatalf("treetracts: read %s: %v", treePath, err)
	}

	in := fsstore.New(inputFolder, float32(threshold), nstream)
	out := fsstore.New(outputFolder, float32(threshold), nstream)

	targets, err := selectedNodes(tr, nodesList, bases, all)
	if err != nil {
		log.Fatalf("treetracts: %v", err)
	}

	ctx := context.Background()
	memo := make(map[int]*tract.Tract, len(tr.Nodes))
	for _, idx := range targets {
		t, err := nodeTract(ctx, tr, in, idx, memo)
		if err != nil {
			log.Fatalf("treetracts: compute tract for node %d: %v", tr.Nodes[idx].ID, err)
		}
		if err := out.WriteNodeTract(ctx, tr.Nodes[idx].ID, t); err != nil {
			log.Fatalf("treetracts: write node %d: %v", tr.Nodes[idx].ID, err)
		}
	}
	log.Infof("treetracts: wrote %d node tracts to %s", len(targets), outputFolder)
}

func selectedNodes(tr *tree.Tree, nodesList string, bases, all bool) ([]int, error) {
	if all {
		idxs := make([]int, 0, len(tr.Nodes))
		for i, n := range tr.Nodes {
			if !n.Flag {
				idxs = append(idxs, i)
			}
		}
		return idxs, nil
	}
	if bases {
		return tr.AllBaseNodes(), nil
	}
	if nodesList == "" {
		return nil, fmt.Errorf("one of -nodes, -bases or -all is required")
	}
	idByID := make(map[int]int, len(tr.Nodes))
	for i, n := range tr.Nodes {
		idByID[n.ID] = i
	}
	var idxs []int
	for _, tok := range strings.Split(nodesList, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		id, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("bad node id %q: %w", tok, err)
		}
		idx, ok := idByID[id]
		if !ok {
			return nil, fmt.Errorf("node id %d not found", id)
		}
		idxs = append(idxs, idx)
	}
	return idxs, nil
}

// nodeTract folds a node's subtree bottom-up with the builder's weighted
// centroid merge, memoizing already-computed node tracts so overlapping
// selections (e.g. -all) don't redo shared subtree work.
func nodeTract(ctx context.Context, tr *tree.Tree, store *fsstore.FsStore, nodeIdx int, memo map[int]*tract.Tract) (*tract.Tract, error) {
	if t, ok := memo[nodeIdx]; ok {
		return t, nil
	}
	n := tr.Nodes[nodeIdx]

	var acc *tract.Tract
	accSize := 0
	for _, c := range n.Children {
		var childTract *tract.Tract
		var childSize int
		var err error
		if c.IsLeaf {
			childTract, err = store.ReadLeafTract(ctx, tr.Leaves[c.Index].ID, false, false)
			childSize = 1
		} else {
			childTract, err = nodeTract(ctx, tr, store, c.Index, memo)
			childSize = tr.Nodes[c.Index].Size
		}
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = childTract.Clone()
			accSize = childSize
			continue
		}
		merged := tract.New(make([]float32, acc.Len()))
		if err := tract.MergeInto(merged, acc, childTract, accSize, childSize); err != nil {
			return nil, err
		}
		acc = merged
		accSize += childSize
	}
	tract.ComputeNorm(acc)
	memo[nodeIdx] = acc
	return acc, nil
}
