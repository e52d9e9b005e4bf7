package model

import "math"

const (
	// Below this L2 norm (and bias magnitude) the model is considered
	// never trained.
	degenerateEpsilon = 1e-6

	// Probabilities within this band around 0.5 indicate the model has
	// collapsed to a constant output.
	collapseBand = 0.02
)

// Usable reports whether a parameter snapshot belongs to a trained
// model. Nil or empty parameters are unusable, as is the degenerate
// all-zero state left by a model that never learned anything.
func Usable(p *Parameters) bool {
	if p == nil || len(p.Weights) == 0 {
		return false
	}

	var l2 float64
	for _, w := range p.Weights {
		l2 += w * w
	}
	l2 = math.Sqrt(l2)

	return !(l2 < degenerateEpsilon && math.Abs(p.Bias) < degenerateEpsilon)
}

// Discriminative reports whether a single predicted probability carries
// information: non-finite outputs and outputs inside the collapse band
// around 0.5 are rejected.
func Discriminative(p float64) bool {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return false
	}
	// the band is inclusive; the slack keeps 0.48 and 0.52 inside it
	// despite binary rounding
	return math.Abs(p-0.5) > collapseBand+1e-9
}
