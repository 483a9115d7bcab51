// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package builder

import "github.com/connectome-lab/hctree/pkg/tree"

type frontierLocation int

const (
	locNone frontierLocation = iota
	locPriority
	locCurrent
	locIsolated
)

// noNb marks a proto-node with no active neighbor: the priority-set key
// §4.6 calls NoNb.
const noNb = -1

// protoNode is one live merge candidate: a leaf or an already-merged
// internal node, its dissimilarity map to all still-live neighbors, and
// its currently-nearest active neighbor (B-1).
type protoNode struct {
	ref       tree.ChildRef
	isLeaf    bool
	active    bool
	size      int
	neighbors map[int]float32 // proto id -> dissimilarity
	nearNb    int             // proto id, or noNb
	nearDist  float32
	location  frontierLocation
}

// isolatedComponent records a merge result whose neighbor map came up
// empty: a candidate root-of-isolates, resolved once the whole build
// finishes.
type isolatedComponent struct {
	ref  tree.ChildRef
	size int
}
