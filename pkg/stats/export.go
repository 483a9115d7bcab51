// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"time"

	"github.com/influxdata/line-protocol/v2/lineprotocol"
)

// ExportLineProtocol encodes a comparison-statistics result as a single
// InfluxDB line-protocol point, for ingestion by a metrics pipeline.
// treeA/treeB are tag values identifying the compared trees.
func ExportLineProtocol(treeA, treeB string, cpcc CPCCResult, triplets TripletsResult, at time.Time) ([]byte, error) {
	var enc lineprotocol.Encoder
	enc.SetPrecision(lineprotocol.Nanosecond)

	enc.StartLine("tree_comparison")
	enc.AddTag("tree_a", treeA)
	enc.AddTag("tree_b", treeB)
	enc.AddField("cpcc_unweighted", lineprotocol.MustNewValue(cpcc.Unweighted))
	enc.AddField("cpcc_weighted", lineprotocol.MustNewValue(cpcc.Weighted))
	enc.AddField("cpcc_pairs", lineprotocol.MustNewValue(int64(cpcc.Pairs)))
	enc.AddField("triplets_unweighted", lineprotocol.MustNewValue(triplets.Unweighted))
	enc.AddField("triplets_weighted", lineprotocol.MustNewValue(triplets.Weighted))
	enc.AddField("triplets_count", lineprotocol.MustNewValue(int64(triplets.Triples)))
	enc.EndLine(at)

	if err := enc.Err(); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}
