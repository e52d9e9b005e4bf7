package risk

import "github.com/edurisk/edurisk/pkg/feature"

// Fallback scoring weights. Chosen, not fitted; they sum to 1.0.
const (
	heuristicCompletionWeight = 0.30
	heuristicSubmitWeight     = 0.25
	heuristicScoreWeight      = 0.25
	heuristicLoginWeight      = 0.10
	heuristicFocusWeight      = 0.10

	// 20 or more logins in the window counts as fully engaged.
	heuristicLoginMax = 20.0
)

// HeuristicProbability computes a deterministic risk probability
// directly from raw signals, independent of the classifier. It keeps
// the system operable while the model is untrained or degraded.
func HeuristicProbability(s *feature.Signals) float64 {
	if s == nil {
		return 0
	}

	completion := smart01(s.CompletionRate)
	submit := smart01(s.SubmitRate)
	score := clamp01(s.AvgScore / 100.0)
	login := clamp01(s.LoginCount / heuristicLoginMax)
	focus := smart01(s.Focus)

	goodness := heuristicCompletionWeight*completion +
		heuristicSubmitWeight*submit +
		heuristicScoreWeight*score +
		heuristicLoginWeight*login +
		heuristicFocusWeight*focus

	return clamp01(1.0 - goodness)
}

// smart01 applies the same fraction-or-percentage rule the codec uses.
func smart01(v float64) float64 {
	if v > 1.0 {
		return clamp01(v / 100.0)
	}
	return clamp01(v)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
