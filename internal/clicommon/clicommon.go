// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package clicommon registers the flags every cmd/* tool shares, the
// way the teacher's cmd/cc-backend/cli.go splits flag registration out
// of main(). Each tool calls clicommon.Register once at the top of its
// own flag.BoolVar/flag.StringVar block, then flag.Parse() as usual.
package clicommon

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/google/gops/agent"

	"github.com/connectome-lab/hctree/pkg/log"
)

// Flags holds the values of every flag common to all seven CLI tools.
type Flags struct {
	Verbose  bool
	Vista    bool
	Pthreads int
	Gops     bool
	LogLevel string
	LogDate  bool
}

// Register binds the common flags into f, whose fields are populated
// once flag.Parse() runs.
func Register(f *Flags) {
	flag.BoolVar(&f.Verbose, "verbose", false, "Enable verbose (debug-level) logging")
	flag.BoolVar(&f.Vista, "vista", false, "Use VISTA container encoding instead of the default")
	flag.IntVar(&f.Pthreads, "pthreads", 0, "Number of worker goroutines to use (0 = GOMAXPROCS)")
	flag.BoolVar(&f.Gops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	flag.StringVar(&f.LogLevel, "loglevel", "warn", "Sets the logging level: [debug, info, warn, err, crit]")
	flag.BoolVar(&f.LogDate, "logdate", false, "Add date and time to log messages")
}

// Init applies the parsed flags: sets pkg/log's level and date-time
// mode, resolves --pthreads to a goroutine budget, and starts the gops
// debug agent if requested. Call after flag.Parse().
func (f *Flags) Init() int {
	if f.Verbose {
		log.SetLogLevel("debug")
	} else {
		log.SetLogLevel(f.LogLevel)
	}
	log.SetLogDateTime(f.LogDate)

	if f.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			fmt.Fprintf(os.Stderr, "gops/agent.Listen failed: %s\n", err)
			os.Exit(1)
		}
	}

	threads := f.Pthreads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	return threads
}
