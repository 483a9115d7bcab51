// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads a .env file's KEY=VALUE pairs into the process
// environment, the way the teacher's server seeds its own defaults
// before flag parsing. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}
