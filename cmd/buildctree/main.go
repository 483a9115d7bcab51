// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command buildctree runs the full C5/C6 pipeline: load the ROI and
// seed tracts from a tract store, initialize the spatial neighborhood
// (C5), run the agglomerative builder (C6), and write the resulting
// tree to disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/connectome-lab/hctree/internal/clicommon"
	hcconfig "github.com/connectome-lab/hctree/internal/config"
	"github.com/connectome-lab/hctree/internal/tractstore/fsstore"
	"github.com/connectome-lab/hctree/pkg/builder"
	"github.com/connectome-lab/hctree/pkg/log"
	"github.com/connectome-lab/hctree/pkg/neighbor"
	"github.com/connectome-lab/hctree/pkg/tractcache"
)

func growModeOf(name hcconfig.GrowModeName) builder.GrowMode {
	switch name {
	case hcconfig.GrowToSize:
		return builder.GrowToSize
	case hcconfig.GrowToCount:
		return builder.GrowToCount
	default:
		return builder.GrowOff
	}
}

func main() {
	var common clicommon.Flags
	clicommon.Register(&common)

	var storeRoot, configPath, outPath string
	flag.StringVar(&storeRoot, "store", "", "Path to the fsstore tract tree root")
	flag.StringVar(&configPath, "config", "./config.json", "Path to the engine configuration file")
	flag.StringVar(&outPath, "out", "tree.txt", "Path to write the resulting tree file")
	flag.Parse()

	runtime.GOMAXPROCS(common.Init())

	if storeRoot == "" {
		fmt.Fprintln(os.Stderr, "buildctree: -store is required")
		os.Exit(1)
	}

	if err := hcconfig.Load(configPath); err != nil {
		log.Fatalf("buildctree: load config: %v", err)
	}
	cfg := hcconfig.Keys

	store := fsstore.New(storeRoot, cfg.Threshold, cfg.NStream)
	cache := tractcache.New(cfg.CacheRatio)

	ctx := context.Background()
	roi, err := store.LoadROI(ctx)
	if err != nil {
		log.Fatalf("buildctree: load roi: %v", err)
	}

	result, err := neighbor.Initialize(ctx, store, cache, roi, neighbor.Config{
		Order:          cfg.NeighborOrder,
		DMax:           cfg.DMax,
		ReadsPerSecond: cfg.TractReadsPerSecond,
	})
	if err != nil {
		log.Fatalf("buildctree: initialize neighborhood: %v", err)
	}
	log.Infof("buildctree: %d seeds survived initialization", len(result.Seeds))

	tr, err := builder.Build(ctx, store, cache, result.Seeds, builder.Config{
		Grow: builder.GrowPolicy{
			Mode:  growModeOf(cfg.GrowMode),
			Size:  cfg.GrowSize,
			Count: cfg.GrowCount,
		},
		NStream:          cfg.NStream,
		Threshold:        cfg.Threshold,
		CacheBudgetBytes: int(cfg.CacheBudgetGB * 1e9),
		Ratio:            cfg.CacheRatio,
		ReadsPerSecond:   cfg.TractReadsPerSecond,
	})
	if err != nil {
		log.Fatalf("buildctree: build tree: %v", err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("buildctree: create %s: %v", outPath, err)
	}
	defer f.Close()
	if err := tr.Write(f); err != nil {
		log.Fatalf("buildctree: write tree: %v", err)
	}

	log.Infof("buildctree: wrote %s", outPath)
}
