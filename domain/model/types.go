package model

import (
	"math"

	"countglm/domain/core"
)

// InterceptTerm is the display name for the intercept row in
// coefficient listings.
const InterceptTerm = "(Intercept)"

// Coefficient is one estimated model term with its inference stats.
type Coefficient struct {
	Term     string  `json:"term"`     // category level, or InterceptTerm
	Estimate float64 `json:"estimate"` // log-rate (intercept) or log rate ratio vs reference
	StdErr   float64 `json:"std_err"`  // from inverse Fisher information at convergence
	Z        float64 `json:"z"`        // Estimate / StdErr
	PValue   float64 `json:"p_value"`  // two-sided, standard normal
}

// FittedModel is the immutable result of one Poisson regression fit.
// The reference level's own offset is fixed at 0 and not estimated.
type FittedModel struct {
	AnalysisID       core.AnalysisID `json:"analysis_id"`
	ReferenceLevel   string          `json:"reference_level"`
	Intercept        Coefficient     `json:"intercept"`
	Coefficients     []Coefficient   `json:"coefficients"` // non-reference levels, lexicographic
	NullDeviance     float64         `json:"null_deviance"`
	ResidualDeviance float64         `json:"residual_deviance"`
	LogLikelihood    float64         `json:"log_likelihood"`
	AIC              float64         `json:"aic"`
	Iterations       int             `json:"iterations"`
	Converged        bool            `json:"converged"`
}

// NumParams returns the number of estimated parameters (intercept plus
// one offset per non-reference level).
func (m *FittedModel) NumParams() int {
	return 1 + len(m.Coefficients)
}

// Rate returns the fitted expected count for a category level, or NaN
// if the level was not part of the fit.
func (m *FittedModel) Rate(level string) float64 {
	if level == m.ReferenceLevel {
		return math.Exp(m.Intercept.Estimate)
	}
	for _, c := range m.Coefficients {
		if c.Term == level {
			return math.Exp(m.Intercept.Estimate + c.Estimate)
		}
	}
	return math.NaN()
}

// Levels returns all category levels known to the model, reference first.
func (m *FittedModel) Levels() []string {
	levels := make([]string, 0, 1+len(m.Coefficients))
	levels = append(levels, m.ReferenceLevel)
	for _, c := range m.Coefficients {
		levels = append(levels, c.Term)
	}
	return levels
}
