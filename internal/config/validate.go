// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"embed"
	"encoding/json"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*
var schemaFiles embed.FS

const schemaPath = "schemas/engine_config.schema.json"

var compiledSchema *jsonschema.Schema

func init() {
	f, err := schemaFiles.Open(schemaPath)
	if err != nil {
		panic("config: embedded schema missing: " + err.Error())
	}
	defer f.Close()

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaPath, f); err != nil {
		panic("config: invalid embedded schema: " + err.Error())
	}
	compiledSchema, err = c.Compile(schemaPath)
	if err != nil {
		panic("config: schema compile: " + err.Error())
	}
}

// ValidateJSONSchema checks raw JSON config against the embedded schema,
// the way the teacher's pkg/schema.Validate checks against its own
// embedded schema set.
func ValidateJSONSchema(r io.Reader) error {
	var v interface{}
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return err
	}
	return compiledSchema.Validate(v)
}
