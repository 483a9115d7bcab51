// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command cpcc recognizes the flag surface of the cophenetic-vs-distance-
// matrix comparison tool (-tree, -inputf, -vista, -pthreads) but does not
// implement the comparison itself: correlating a tree's cophenetic
// distances against an on-disk precomputed pairwise distance matrix is a
// peripheral driver explicitly out of scope. Use comparetrees to compare
// two hierarchical trees directly; it runs entirely on the matcher and
// the in-scope tract store.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/connectome-lab/hctree/internal/clicommon"
	"github.com/connectome-lab/hctree/pkg/log"
)

func main() {
	var common clicommon.Flags
	clicommon.Register(&common)

	var treePath, distMatrixFolder string
	flag.StringVar(&treePath, "tree", "", "File with the hierarchical tree to compute the cpcc value from")
	flag.StringVar(&distMatrixFolder, "inputf", "", "Input data folder with the distance matrix files")
	flag.Parse()

	runtime.GOMAXPROCS(common.Init())

	if treePath == "" || distMatrixFolder == "" {
		fmt.Fprintln(os.Stderr, "cpcc: -tree and -inputf are required")
		os.Exit(1)
	}

	log.Infof("cpcc: correlating %q against the precomputed distance matrix in %q is out of scope for this build", treePath, distMatrixFolder)
	log.Infof("cpcc: use comparetrees to compare two hierarchical trees directly")
}
