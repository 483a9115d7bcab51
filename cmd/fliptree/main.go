// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command fliptree mirrors every leaf's X coordinate in a tree file, for
// comparing a parcellation against its contralateral hemisphere.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/connectome-lab/hctree/internal/clicommon"
	"github.com/connectome-lab/hctree/pkg/log"
	"github.com/connectome-lab/hctree/pkg/tree"
)

func main() {
	var common clicommon.Flags
	clicommon.Register(&common)

	var treePath, outputFolder string
	flag.StringVar(&treePath, "tree", "", "Path to the hierarchical tree file")
	flag.StringVar(&outputFolder, "outputf", "", "Output folder where the flipped tree is written")
	flag.Parse()

	runtime.GOMAXPROCS(common.Init())

	if treePath == "" || outputFolder == "" {
		fmt.Fprintln(os.Stderr, "fliptree: -tree and -outputf are required")
		os.Exit(1)
	}

	f, err := os.Open(treePath)
	if err != nil {
		log.Fatalf("fliptree: open %s: %v", treePath, err)
	}
	tr, err := tree.Read(f)
	f.Close()
	if err != nil {
		log.Fatalf("fliptree: read %s: %v", treePath, err)
	}

	tr.FlipX()

	if err := os.MkdirAll(outputFolder, 0o755); err != nil {
		log.Fatalf("fliptree: create %s: %v", outputFolder, err)
	}
	base := strings.TrimSuffix(filepath.Base(treePath), filepath.Ext(treePath))
	outPath := filepath.Join(outputFolder, base+"_flipX.txt")

	out, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("fliptree: create %s: %v", outPath, err)
	}
	defer out.Close()
	if err := tr.Write(out); err != nil {
		log.Fatalf("fliptree: write %s: %v", outPath, err)
	}

	log.Infof("fliptree: wrote %s", outPath)
}
