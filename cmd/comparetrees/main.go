// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command comparetrees matches two hierarchical trees' base-nodes (C7)
// and reports the cophenetic correlation and triplet agreement between
// them (C8): build the dissimilarity matrix, greedily match, optionally
// apply the matching-noise filter, then score.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/connectome-lab/hctree/internal/clicommon"
	"github.com/connectome-lab/hctree/internal/tractstore/fsstore"
	"github.com/connectome-lab/hctree/pkg/log"
	"github.com/connectome-lab/hctree/pkg/match"
	"github.com/connectome-lab/hctree/pkg/stats"
	"github.com/connectome-lab/hctree/pkg/tree"
)

func main() {
	var common clicommon.Flags
	clicommon.Register(&common)

	var (
		tree1, tree2, folder1, folder2, outputFolder string
		threshold                                     float64
		eucDist                                       float64
		tauMatch                                      float64
		noiseAlpha                                     float64
		noComp, noTriples                              bool
		nstream                                        int
	)
	flag.StringVar(&tree1, "t1", "", "File with the first tree")
	flag.StringVar(&tree2, "t2", "", "File with the second tree")
	flag.StringVar(&folder1, "f1", "", "Tract store root for the first tree")
	flag.StringVar(&folder2, "f2", "", "Tract store root for the second tree")
	flag.StringVar(&outputFolder, "outputf", "", "Output folder where the line-protocol report is written")
	flag.Float64Var(&threshold, "threshold", 0, "Noise threshold for the tractograms, relative to streamline count")
	flag.Float64Var(&eucDist, "eucdist", 20, "Maximum euclidean distance between cluster centers for a valid match")
	flag.Float64Var(&tauMatch, "taumatch", 0.9, "Greedy-match acceptance threshold")
	flag.Float64Var(&noiseAlpha, "noise", 0, "Matching-noise correction alpha (0 disables the filter)")
	flag.BoolVar(&noComp, "nocomp", false, "Only compute the correspondence, not tcpcc/triplets")
	flag.BoolVar(&noTriples, "notriples", false, "Skip the triplets computation (more time-consuming than tcpcc)")
	flag.IntVar(&nstream, "nstream", 0, "Streamline count used to read tracts in natural units (0 = already natural)")
	flag.Parse()

	runtime.GOMAXPROCS(common.Init())

	if tree1 == "" || tree2 == "" || folder1 == "" || folder2 == "" {
		fmt.Fprintln(os.Stderr, "comparetrees: -t1, -t2, -f1 and -f2 are required")
		os.Exit(1)
	}

	a, err := readTree(tree1)
	if err != nil {
		log.Fatalf("comparetrees: %v", err)
	}
	b, err := readTree(tree2)
	if err != nil {
		log.Fatalf("comparetrees: %v", err)
	}

	storeA := fsstore.New(folder1, float32(threshold), nstream)
	storeB := fsstore.New(folder2, float32(threshold), nstream)

	ctx := context.Background()
	cfg := match.Config{
		DEucMax:  float32(eucDist),
		TauMatch: float32(tauMatch),
		NStream:  nstream,
	}

	matrix, err := match.BuildMatrix(ctx, storeA, storeB, a, b, cfg)
	if err != nil {
		log.Fatalf("comparetrees: build dissimilarity matrix: %v", err)
	}
	matches := match.Greedy(matrix, cfg)
	quality := match.RateCorrespondence(a, b, matches)
	if err := match.PruneUnmatched(a, b, matches); err != nil {
		log.Fatalf("comparetrees: prune unmatched base-nodes: %v", err)
	}

	log.Infof("comparetrees: %s", quality.String())
	fmt.Println(match.ReportBaseNodes(a))
	fmt.Println(match.ReportBaseNodes(b))

	if noComp {
		return
	}

	noiseA := map[int]float32{}
	noiseB := map[int]float32{}
	if noiseAlpha > 0 {
		matchDistA := make(map[int]float32, len(matches))
		matchDistB := make(map[int]float32, len(matches))
		for _, m := range matches {
			matchDistA[m.RowNode] = m.TractDist
			matchDistB[m.ColNode] = m.TractDist
		}
		noiseA = stats.NoiseLevels(a, matchDistA, noiseAlpha)
		noiseB = stats.NoiseLevels(b, matchDistB, noiseAlpha)
		if err := stats.FilterNoise(a, matchDistA, noiseAlpha); err != nil {
			log.Fatalf("comparetrees: filter noise in tree 1: %v", err)
		}
		if err := stats.FilterNoise(b, matchDistB, noiseAlpha); err != nil {
			log.Fatalf("comparetrees: filter noise in tree 2: %v", err)
		}
	}

	cpcc, err := stats.TCPCC(a, b, matches, noiseA, noiseB)
	if err != nil {
		log.Fatalf("comparetrees: tcpcc: %v", err)
	}
	log.Infof("comparetrees: tcpcc unweighted=%.4f weighted=%.4f pairs=%d", cpcc.Unweighted, cpcc.Weighted, cpcc.Pairs)

	var triplets stats.TripletsResult
	if !noTriples {
		triplets, err = stats.Triplets(a, b, matches, 1)
		if err != nil {
			log.Fatalf("comparetrees: triplets: %v", err)
		}
		log.Infof("comparetrees: triplets unweighted=%.4f weighted=%.4f count=%d", triplets.Unweighted, triplets.Weighted, triplets.Triples)
	}

	if outputFolder != "" {
		if err := os.MkdirAll(outputFolder, 0o755); err != nil {
			log.Fatalf("comparetrees: create output folder: %v", err)
		}
		line, err := stats.ExportLineProtocol(tree1, tree2, cpcc, triplets, time.Unix(0, 0))
		if err != nil {
			log.Fatalf("comparetrees: export line protocol: %v", err)
		}
		if err := os.WriteFile(outputFolder+"/comparison.line", line, 0o644); err != nil {
			log.Fatalf("comparetrees: write report: %v", err)
		}
	}
}

func readTree(path string) (*tree.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	t, err := tree.Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}
