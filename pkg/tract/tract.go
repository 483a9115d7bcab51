// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of hctree.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tract implements the compact tractogram representation and the
// distance/merge kernel every other component builds on: natural-unit
// averaging for centroid merges, a reversible log/threshold transform for
// storage and distance computation, and the cosine-style dissimilarity
// used throughout the tree builder and comparator.
package tract

import (
	"math"

	"github.com/connectome-lab/hctree/internal/engerr"
)

// Tract is a fixed-length nonnegative feature vector for one seed voxel or
// merged cluster, together with the bookkeeping needed to tell which
// transforms have already been applied.
type Tract struct {
	Values    []float32
	norm      float32
	normValid bool
	logged    bool
	thresholded bool
}

// New wraps values in natural units, unthresholded.
func New(values []float32) *Tract {
	return &Tract{Values: values}
}

// Len returns the tract's dimensionality.
func (t *Tract) Len() int { return len(t.Values) }

// InLogUnits reports whether do_log has been applied without an
// intervening un_log.
func (t *Tract) InLogUnits() bool { return t.logged }

// Thresholded reports whether threshold has zeroed entries below cutoff.
func (t *Tract) Thresholded() bool { return t.thresholded }

// Clone returns a deep copy sharing no backing array with t.
func (t *Tract) Clone() *Tract {
	values := make([]float32, len(t.Values))
	copy(values, t.Values)
	return &Tract{
		Values:      values,
		norm:        t.norm,
		normValid:   t.normValid,
		logged:      t.logged,
		thresholded: t.thresholded,
	}
}

// Threshold zeroes every entry whose value is below rel*max(t.Values) and
// invalidates the cached norm; rel must be in [0,1).
func Threshold(t *Tract, rel float32) error {
	if rel < 0 || rel >= 1 {
		return engerr.New(engerr.BadArgument, "threshold: relative cutoff %v out of [0,1)", rel)
	}
	if rel == 0 {
		t.thresholded = true
		return nil
	}
	var max float32
	for _, v := range t.Values {
		if v > max {
			max = v
		}
	}
	cutoff := rel * max
	for i, v := range t.Values {
		if v < cutoff {
			t.Values[i] = 0
		}
	}
	t.normValid = false
	t.thresholded = true
	return nil
}

// logFactor computes L = log10(nstream) as used by DoLog/UnLog.
func logFactor(nstream int) float64 {
	return math.Log10(float64(nstream))
}

// LogFactor exposes logFactor for callers assembling tree headers.
func LogFactor(nstream int) float64 { return logFactor(nstream) }

// DoLog converts t from natural units in [0,1] to log units, compressible
// to one byte per element. L is log10(streamline count); L<=0 is treated
// as "no compression", a pass-through copy flagged as logged.
func DoLog(t *Tract, nstream int) error {
	if t.logged {
		return engerr.New(engerr.PreconditionViolated, "do_log: tract already in log units")
	}
	L := logFactor(nstream)
	if L <= 0 {
		t.logged = true
		t.normValid = false
		return nil
	}
	scale := math.Pow(10, L) - 1
	for i, x := range t.Values {
		t.Values[i] = float32(math.Log10(1+float64(x)*scale) / L)
	}
	t.logged = true
	t.normValid = false
	return nil
}

// UnLog inverts DoLog, restoring natural units.
func UnLog(t *Tract, nstream int) error {
	if !t.logged {
		return engerr.New(engerr.PreconditionViolated, "un_log: tract not in log units")
	}
	L := logFactor(nstream)
	if L <= 0 {
		t.logged = false
		t.normValid = false
		return nil
	}
	scale := math.Pow(10, L) - 1
	for i, y := range t.Values {
		t.Values[i] = float32((math.Pow(10, float64(y)*L) - 1) / scale)
	}
	t.logged = false
	t.normValid = false
	return nil
}

// ComputeNorm recomputes and caches ||t|| = sqrt(sum t_i^2).
func ComputeNorm(t *Tract) {
	var sum float64
	for _, v := range t.Values {
		sum += float64(v) * float64(v)
	}
	t.norm = float32(math.Sqrt(sum))
	t.normValid = true
}

// Norm returns the cached norm; callers must call ComputeNorm after any
// mutation that invalidates it (DoLog, UnLog, Threshold, merge output).
func (t *Tract) Norm() float32 { return t.norm }

// NormValid reports whether Norm() reflects the current Values.
func (t *Tract) NormValid() bool { return t.normValid }

// Distance computes d(a,b) = 1 - (a.b)/(||a||*||b||), or 1 if either norm
// is non-positive. Fails with PreconditionViolated if either tract has
// zero length or an invalidated norm.
func Distance(a, b *Tract) (float32, error) {
	if a.Len() == 0 || b.Len() == 0 {
		return 0, engerr.New(engerr.PreconditionViolated, "distance: zero-length tract")
	}
	if !a.normValid || !b.normValid {
		return 0, engerr.New(engerr.PreconditionViolated, "distance: norm invalidated, recompute before comparing")
	}
	if a.norm <= 0 || b.norm <= 0 {
		return 1, nil
	}
	var dot float64
	n := len(a.Values)
	if len(b.Values) < n {
		n = len(b.Values)
	}
	for i := 0; i < n; i++ {
		dot += float64(a.Values[i]) * float64(b.Values[i])
	}
	cos := dot / (float64(a.norm) * float64(b.norm))
	d := float32(1 - cos)
	if d < 0 {
		d = 0
	}
	return d, nil
}

// MergeInto computes the weighted centroid merge(a,b;sa,sb) = (sa*a +
// sb*b)/(sa+sb) into out, component-wise, in natural units only. Both a
// and b must be natural, unthresholded; out's flags are cleared so the
// caller re-logs/thresholds as needed.
func MergeInto(out, a, b *Tract, sa, sb int) error {
	if a.logged || b.logged {
		return engerr.New(engerr.PreconditionViolated, "merge_into: inputs must be in natural units")
	}
	if a.thresholded || b.thresholded {
		return engerr.New(engerr.PreconditionViolated, "merge_into: inputs must be unthresholded")
	}
	if len(a.Values) != len(b.Values) {
		return engerr.New(engerr.PreconditionViolated, "merge_into: dimension mismatch %d != %d", len(a.Values), len(b.Values))
	}
	if cap(out.Values) < len(a.Values) {
		out.Values = make([]float32, len(a.Values))
	} else {
		out.Values = out.Values[:len(a.Values)]
	}
	total := float32(sa + sb)
	fa, fb := float32(sa)/total, float32(sb)/total
	for i := range a.Values {
		out.Values[i] = fa*a.Values[i] + fb*b.Values[i]
	}
	out.logged = false
	out.thresholded = false
	out.normValid = false
	return nil
}
