// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tree

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/connectome-lab/hctree/internal/engerr"
)

// Write persists the tree as the text document described by the tree-file
// format: a header block, then #leaves/#nodes, #coordinates, #discarded.
func (t *Tree) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# tree: %s\n", t.Name)
	fmt.Fprintf(bw, "#header\n")
	fmt.Fprintf(bw, "grid %d %d %d\n", t.GridDims[0], t.GridDims[1], t.GridDims[2])
	fmt.Fprintf(bw, "logfactor %g\n", t.LogFactor)
	fmt.Fprintf(bw, "nstreams %d\n", t.NStreams)
	fmt.Fprintf(bw, "cpcc %g\n", t.CPCC)

	fmt.Fprintf(bw, "#leaves\n")
	for _, l := range t.Leaves {
		parent := "-"
		if l.Parent != -1 {
			parent = "N" + strconv.Itoa(t.Nodes[l.Parent].ID)
		}
		fmt.Fprintf(bw, "%d %s\n", l.ID, parent)
	}

	fmt.Fprintf(bw, "#nodes\n")
	for _, n := range t.Nodes {
		if n.Flag {
			continue
		}
		parent := "-"
		if n.Parent != -1 {
			parent = "N" + strconv.Itoa(t.Nodes[n.Parent].ID)
		}
		children := make([]string, len(n.Children))
		for i, c := range n.Children {
			if c.IsLeaf {
				children[i] = "L" + strconv.Itoa(t.Leaves[c.Index].ID)
			} else {
				children[i] = "N" + strconv.Itoa(t.Nodes[c.Index].ID)
			}
		}
		fmt.Fprintf(bw, "%d %s %s %d %g %d\n", n.ID, parent, strings.Join(children, ","), n.Size, n.Level, n.HLevel)
	}

	fmt.Fprintf(bw, "#coordinates\n")
	for _, l := range t.Leaves {
		fmt.Fprintf(bw, "%d %d %d\n", l.Coord[0], l.Coord[1], l.Coord[2])
	}

	fmt.Fprintf(bw, "#discarded\n")
	for _, c := range t.Discarded {
		fmt.Fprintf(bw, "%d %d %d\n", c[0], c[1], c[2])
	}

	return bw.Flush()
}

// Read parses the text document produced by Write back into a Tree.
// Comments (lines beginning with "#" that are not recognized block
// headers) are preserved only in the sense that they are skipped, per the
// format's "readers must tolerate but preserve comments" rule — a reader
// that round-trips through Write will not reproduce arbitrary comments,
// only the structural blocks.
func Read(r io.Reader) (*Tree, error) {
	sc := bufio.NewScanner(r)
	t := New("")

	var (
		section    string
		idToLeaf   = map[int]int{}
		idToNode   = map[int]int{}
		nodeLines  []string
		leafLines  []string
		coordLines []string
	)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			switch {
			case line == "#header" || line == "#leaves" || line == "#nodes" || line == "#coordinates" || line == "#discarded":
				section = line
			case strings.HasPrefix(line, "# tree:"):
				t.Name = strings.TrimSpace(strings.TrimPrefix(line, "# tree:"))
			default:
				// comment line inside a block; tolerated, skipped.
			}
			continue
		}
		switch section {
		case "#header":
			parseHeaderLine(t, line)
		case "#leaves":
			leafLines = append(leafLines, line)
		case "#nodes":
			nodeLines = append(nodeLines, line)
		case "#coordinates":
			coordLines = append(coordLines, line)
		case "#discarded":
			fields := strings.Fields(line)
			if len(fields) != 3 {
				return nil, engerr.New(engerr.IOError, "tree file: malformed #discarded line %q", line)
			}
			x, _ := strconv.Atoi(fields[0])
			y, _ := strconv.Atoi(fields[1])
			z, _ := strconv.Atoi(fields[2])
			t.Discarded = append(t.Discarded, [3]int{x, y, z})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, engerr.Wrap(engerr.IOError, err, "tree file: read failed")
	}

	for _, line := range leafLines {
		fields := strings.Fields(line)
		if len(fields) < 1 {
			continue
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, engerr.New(engerr.IOError, "tree file: malformed leaf id %q", fields[0])
		}
		idx := t.AddLeaf([3]int{})
		t.Leaves[idx].ID = id
		idToLeaf[id] = idx
	}

	for i, line := range coordLines {
		if i >= len(t.Leaves) {
			break
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, engerr.New(engerr.IOError, "tree file: malformed coordinate line %q", line)
		}
		x, _ := strconv.Atoi(fields[0])
		y, _ := strconv.Atoi(fields[1])
		z, _ := strconv.Atoi(fields[2])
		t.Leaves[i].Coord = [3]int{x, y, z}
	}

	// Nodes are appended in file order, which is a valid topological
	// order (children precede parents) because the builder/processor
	// always write a node after the children it was built from.
	type rawNode struct {
		id       int
		parentID string
		children []string
		size     int
		level    float32
		hLevel   int
	}
	raw := make([]rawNode, 0, len(nodeLines))
	for _, line := range nodeLines {
		fields := strings.SplitN(line, " ", 6)
		if len(fields) < 5 {
			return nil, engerr.New(engerr.IOError, "tree file: malformed node line %q", line)
		}
		id, _ := strconv.Atoi(fields[0])
		parentID := fields[1]
		var childTokens []string
		if fields[2] != "" {
			childTokens = strings.Split(fields[2], ",")
		}
		size, _ := strconv.Atoi(fields[3])
		level64, _ := strconv.ParseFloat(fields[4], 32)
		hLevel := 0
		if len(fields) >= 6 {
			hLevel, _ = strconv.Atoi(strings.TrimSpace(fields[5]))
		}
		raw = append(raw, rawNode{id: id, parentID: parentID, children: childTokens, size: size, level: float32(level64), hLevel: hLevel})
	}

	for _, rn := range raw {
		children := make([]ChildRef, 0, len(rn.children))
		for _, tok := range rn.children {
			if tok == "" {
				continue
			}
			kind, numStr := tok[0], tok[1:]
			num, err := strconv.Atoi(numStr)
			if err != nil {
				return nil, engerr.New(engerr.IOError, "tree file: malformed child ref %q", tok)
			}
			switch kind {
			case 'L':
				idx, ok := idToLeaf[num]
				if !ok {
					return nil, engerr.New(engerr.Corruption, "tree file: unknown leaf reference L%d", num)
				}
				children = append(children, ChildRef{IsLeaf: true, Index: idx})
			case 'N':
				idx, ok := idToNode[num]
				if !ok {
					return nil, engerr.New(engerr.Corruption, "tree file: unknown node reference N%d", num)
				}
				children = append(children, ChildRef{IsLeaf: false, Index: idx})
			default:
				return nil, engerr.New(engerr.IOError, "tree file: malformed child ref %q", tok)
			}
		}
		idx, err := t.AddNode(children, rn.level)
		if err != nil {
			return nil, err
		}
		t.Nodes[idx].ID = rn.id
		t.Nodes[idx].HLevel = rn.hLevel
		idToNode[rn.id] = idx
	}

	return t, nil
}

func parseHeaderLine(t *Tree, line string) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return
	}
	switch fields[0] {
	case "grid":
		if len(fields) >= 4 {
			x, _ := strconv.Atoi(fields[1])
			y, _ := strconv.Atoi(fields[2])
			z, _ := strconv.Atoi(fields[3])
			t.GridDims = [3]int{x, y, z}
		}
	case "logfactor":
		f, _ := strconv.ParseFloat(fields[1], 64)
		t.LogFactor = f
	case "nstreams":
		n, _ := strconv.Atoi(fields[1])
		t.NStreams = n
	case "cpcc":
		f, _ := strconv.ParseFloat(fields[1], 64)
		t.CPCC = f
	}
}
