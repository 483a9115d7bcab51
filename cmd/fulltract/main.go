// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command fulltract copies a single leaf or node tract from an input
// store to an output store. Expanding a compact tract back into a full
// 3D image against a white-matter mask is a tract-writing-utility
// concern spec.md marks out of scope; this tool only exercises the
// opaque store interface §6 defines, not a concrete 3D image format.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/connectome-lab/hctree/internal/clicommon"
	"github.com/connectome-lab/hctree/internal/tractstore/fsstore"
	"github.com/connectome-lab/hctree/pkg/log"
)

func main() {
	var common clicommon.Flags
	clicommon.Register(&common)

	var (
		inputFolder, outputFolder string
		leafID, nodeID            int
	)
	flag.StringVar(&inputFolder, "inputf", "", "Input tract store root")
	flag.StringVar(&outputFolder, "outputf", "", "Output tract store root")
	flag.IntVar(&leafID, "leaf", -1, "Leaf id to copy (mutually exclusive with -node)")
	flag.IntVar(&nodeID, "node", -1, "Node id to copy (mutually exclusive with -leaf)")
	flag.Parse()

	runtime.GOMAXPROCS(common.Init())

	if inputFolder == "" || outputFolder == "" || (leafID < 0) == (nodeID < 0) {
		fmt.Fprintln(os.Stderr, "fulltract: -inputf, -outputf and exactly one of -leaf/-node are required")
		os.Exit(1)
	}

	in := fsstore.New(inputFolder, 0, 0)
	out := fsstore.New(outputFolder, 0, 0)
	ctx := context.Background()

	var id int
	if leafID >= 0 {
		id = leafID
		tr, rerr := in.ReadLeafTract(ctx, id, false, false)
		if rerr != nil {
			log.Fatalf("fulltract: read leaf %d: %v", id, rerr)
		}
		if werr := out.WriteNodeTract(ctx, id, tr); werr != nil {
			log.Fatalf("fulltract: write leaf %d: %v", id, werr)
		}
	} else {
		id = nodeID
		tr, rerr := in.ReadNodeTract(ctx, id, false, false)
		if rerr != nil {
			log.Fatalf("fulltract: read node %d: %v", id, rerr)
		}
		if werr := out.WriteNodeTract(ctx, id, tr); werr != nil {
			log.Fatalf("fulltract: write node %d: %v", id, werr)
		}
	}

	log.Infof("fulltract: copied id %d from %s to %s (no 3D mask expansion)", id, inputFolder, outputFolder)
}
