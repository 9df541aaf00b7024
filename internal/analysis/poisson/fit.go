package poisson

import (
	"fmt"
	"math"

	"countglm/domain/core"
	"countglm/domain/model"
	"countglm/domain/sample"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// DefaultTolerance is the deviance-change convergence criterion.
	DefaultTolerance = 1e-8
	// DefaultMaxIterations caps the IRLS loop, after which the fit
	// fails with a convergence error.
	DefaultMaxIterations = 25
)

// Options controls the fit. The reference level and the convergence
// budget are explicit so results stay reproducible under override.
type Options struct {
	ReferenceLevel string  // "" means lexicographically first level
	Tolerance      float64 // <= 0 means DefaultTolerance
	MaxIterations  int     // <= 0 means DefaultMaxIterations
}

// Fit estimates a log-linear Poisson model E[count | category] =
// exp(b0 + b_c) over a count table by iteratively reweighted least
// squares, with dummy-coded category levels against a deterministic
// reference. Standard errors come from the inverse Fisher information
// at convergence; p-values are two-sided standard normal.
func Fit(table sample.CountTable, opts Options) (*model.FittedModel, error) {
	tol := opts.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	levels := table.Levels()
	if len(levels) < 2 {
		return nil, core.NewInsufficientDataError("model fit: category levels", len(levels), 2)
	}

	ref := opts.ReferenceLevel
	if ref == "" {
		ref = levels[0]
	} else if !containsLevel(levels, ref) {
		return nil, core.NewValidationError("reference level",
			fmt.Sprintf("level %q not present in count table", ref))
	}

	// A level observed only with zero total count makes its dummy
	// column separate perfectly; fail loudly instead of fitting.
	totals := table.LevelTotals()
	for _, lv := range levels {
		if totals[lv] == 0 {
			return nil, core.NewRankDeficiencyError(
				fmt.Sprintf("category level %q has zero total count", lv))
		}
	}

	nObs := len(table.Cells)
	nParams := len(levels) // intercept + one dummy per non-reference level
	if nObs < nParams {
		return nil, core.NewInsufficientDataError("model fit: observations", nObs, nParams)
	}

	// Dummy-coded design matrix: column 0 is the intercept, then one
	// column per non-reference level in lexicographic order.
	colOf := make(map[string]int, nParams-1)
	terms := make([]string, 0, nParams-1)
	for _, lv := range levels {
		if lv == ref {
			continue
		}
		colOf[lv] = 1 + len(terms)
		terms = append(terms, lv)
	}

	design := mat.NewDense(nObs, nParams, nil)
	y := make([]float64, nObs)
	for i, cell := range table.Cells {
		design.Set(i, 0, 1)
		if cell.Category != ref {
			design.Set(i, colOf[cell.Category], 1)
		}
		y[i] = float64(cell.Count)
	}

	// IRLS: start from mu = y + 0.5 so zero counts have a finite
	// working response on the log scale.
	mu := make([]float64, nObs)
	eta := make([]float64, nObs)
	for i := range y {
		mu[i] = y[i] + 0.5
		eta[i] = math.Log(mu[i])
	}

	beta := mat.NewVecDense(nParams, nil)
	info := mat.NewSymDense(nParams, nil)
	deviance := math.Inf(1)
	converged := false
	iterations := 0

	for iter := 0; iter < maxIter; iter++ {
		iterations = iter + 1

		// Weighted normal equations (X'WX) beta = X'Wz with W = mu
		// and working response z = eta + (y-mu)/mu.
		for a := 0; a < nParams; a++ {
			for b := a; b < nParams; b++ {
				info.SetSym(a, b, 0)
			}
		}
		rhs := mat.NewVecDense(nParams, nil)
		for i := 0; i < nObs; i++ {
			w := mu[i]
			z := eta[i] + (y[i]-mu[i])/mu[i]
			for a := 0; a < nParams; a++ {
				xa := design.At(i, a)
				if xa == 0 {
					continue
				}
				rhs.SetVec(a, rhs.AtVec(a)+w*xa*z)
				for b := a; b < nParams; b++ {
					xb := design.At(i, b)
					if xb == 0 {
						continue
					}
					info.SetSym(a, b, info.At(a, b)+w*xa*xb)
				}
			}
		}

		var chol mat.Cholesky
		if ok := chol.Factorize(info); !ok {
			return nil, core.NewRankDeficiencyError(
				fmt.Sprintf("weighted cross-product singular at iteration %d", iterations))
		}
		if err := chol.SolveVecTo(beta, rhs); err != nil {
			return nil, core.NewRankDeficiencyError(
				fmt.Sprintf("normal equations unsolvable at iteration %d: %v", iterations, err))
		}

		for i := 0; i < nObs; i++ {
			e := 0.0
			for a := 0; a < nParams; a++ {
				e += design.At(i, a) * beta.AtVec(a)
			}
			eta[i] = e
			mu[i] = math.Exp(e)
		}

		dev := devianceOf(y, mu)
		if math.Abs(deviance-dev) < tol {
			deviance = dev
			converged = true
			break
		}
		deviance = dev
	}

	if !converged {
		return nil, core.NewConvergenceError(iterations, deviance)
	}

	// Covariance of the estimates is the inverse Fisher information at
	// the converged weights, so rebuild X'WX with the final mu.
	for a := 0; a < nParams; a++ {
		for b := a; b < nParams; b++ {
			info.SetSym(a, b, 0)
		}
	}
	for i := 0; i < nObs; i++ {
		for a := 0; a < nParams; a++ {
			xa := design.At(i, a)
			if xa == 0 {
				continue
			}
			for b := a; b < nParams; b++ {
				xb := design.At(i, b)
				if xb == 0 {
					continue
				}
				info.SetSym(a, b, info.At(a, b)+mu[i]*xa*xb)
			}
		}
	}

	var cov mat.SymDense
	var chol mat.Cholesky
	if ok := chol.Factorize(info); !ok {
		return nil, core.NewRankDeficiencyError("Fisher information singular at convergence")
	}
	if err := chol.InverseTo(&cov); err != nil {
		return nil, core.NewRankDeficiencyError(
			fmt.Sprintf("Fisher information not invertible: %v", err))
	}

	coefficient := func(term string, col int) model.Coefficient {
		est := beta.AtVec(col)
		se := math.Sqrt(cov.At(col, col))
		z := est / se
		return model.Coefficient{
			Term:     term,
			Estimate: est,
			StdErr:   se,
			Z:        z,
			PValue:   2 * distuv.UnitNormal.Survival(math.Abs(z)),
		}
	}

	coefs := make([]model.Coefficient, 0, len(terms))
	for _, term := range terms {
		coefs = append(coefs, coefficient(term, colOf[term]))
	}

	logLik := logLikelihood(y, mu)
	grandMean := meanOf(y)
	nullMu := make([]float64, nObs)
	for i := range nullMu {
		nullMu[i] = grandMean
	}

	return &model.FittedModel{
		AnalysisID:       core.NewAnalysisID(),
		ReferenceLevel:   ref,
		Intercept:        coefficient(model.InterceptTerm, 0),
		Coefficients:     coefs,
		NullDeviance:     devianceOf(y, nullMu),
		ResidualDeviance: deviance,
		LogLikelihood:    logLik,
		AIC:              -2*logLik + 2*float64(nParams),
		Iterations:       iterations,
		Converged:        true,
	}, nil
}

// devianceOf is the Poisson deviance 2*sum(y*log(y/mu) - (y-mu)),
// with the y=0 term taken as its limit 0.
func devianceOf(y, mu []float64) float64 {
	dev := 0.0
	for i := range y {
		if y[i] > 0 {
			dev += y[i] * math.Log(y[i]/mu[i])
		}
		dev -= y[i] - mu[i]
	}
	return 2 * dev
}

func logLikelihood(y, mu []float64) float64 {
	ll := 0.0
	for i := range y {
		lg, _ := math.Lgamma(y[i] + 1)
		ll += y[i]*math.Log(mu[i]) - mu[i] - lg
	}
	return ll
}

func meanOf(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func containsLevel(levels []string, lv string) bool {
	for _, l := range levels {
		if l == lv {
			return true
		}
	}
	return false
}
