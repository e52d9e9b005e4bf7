package risk

import (
	"fmt"
	"strings"

	"github.com/edurisk/edurisk/pkg/feature"
	"github.com/edurisk/edurisk/pkg/model"
)

// Percent-scale cutoffs under which a signal becomes a reported factor.
const (
	factorCompletionCutoff = 50.0
	factorSubmitCutoff     = 60.0
	factorScoreCutoff      = 60.0
	factorLoginCutoff      = 5.0
	factorFocusCutoff      = 60.0
)

// riskFactors derives the human-readable factor list by comparing
// percentage-scale values against fixed cutoffs. Order is fixed:
// completion, submit, score, login, focus.
func riskFactors(s *feature.Signals) []string {
	factors := make([]string, 0, 5)

	completion := toPercent(s.CompletionRate)
	submit := toPercent(s.SubmitRate)
	focus := toPercent(s.Focus)

	if completion < factorCompletionCutoff {
		factors = append(factors, fmt.Sprintf("low video completion rate (%.1f%%)", completion))
	}
	if submit < factorSubmitCutoff {
		factors = append(factors, fmt.Sprintf("low homework submit rate (%.1f%%)", submit))
	}
	if s.AvgScore < factorScoreCutoff {
		factors = append(factors, fmt.Sprintf("poor homework scores (%.1f)", s.AvgScore))
	}
	if s.LoginCount < factorLoginCutoff {
		factors = append(factors, fmt.Sprintf("infrequent logins (%.0f)", s.LoginCount))
	}
	if focus < factorFocusCutoff {
		factors = append(factors, fmt.Sprintf("low focus score (%.1f%%)", focus))
	}

	return factors
}

// toPercent folds a fraction-or-percentage value onto the 0-100 scale.
func toPercent(v float64) float64 {
	if v <= 1.0 {
		return v * 100.0
	}
	return v
}

var levelActions = map[model.Level][]string{
	model.LevelHigh: {
		"schedule an immediate one-on-one conversation",
		"notify the course advisor",
		"set up an individual study plan",
		"follow up on progress weekly",
	},
	model.LevelMedium: {
		"reach out through course messaging",
		"share targeted study material",
		"enable study reminders",
		"check progress weekly",
	},
	model.LevelLow: {
		"send a study reminder",
		"watch for behavioral changes",
		"encourage the current study habits",
	},
}

// suggestion synthesizes tier-specific advice from a fixed template.
func suggestion(level model.Level, factors []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "risk level: %s\n", level)

	if len(factors) > 0 {
		b.WriteString("main concerns:\n")
		for _, f := range factors {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}

	actions, ok := levelActions[level]
	if !ok {
		return b.String()
	}
	b.WriteString("suggested actions:\n")
	for i, a := range actions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, a)
	}
	return b.String()
}

// groupSuggestion applies the tier-proportion rules to a whole course.
func groupSuggestion(highCount, mediumCount, total int) string {
	if total == 0 {
		return "no students to assess"
	}

	highRatio := float64(highCount) / float64(total) * 100
	mediumRatio := float64(mediumCount) / float64(total) * 100

	var b strings.Builder
	fmt.Fprintf(&b, "high risk: %d (%.1f%%), medium risk: %d (%.1f%%)\n",
		highCount, highRatio, mediumCount, mediumRatio)

	switch {
	case highRatio > 20:
		b.WriteString("hold a course-wide review, form study groups, and adjust pacing")
	case mediumRatio > 30:
		b.WriteString("increase reminders, share additional material, and check progress regularly")
	default:
		b.WriteString("keep the current course rhythm and watch individual outliers")
	}
	return b.String()
}
