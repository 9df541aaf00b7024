package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"countglm/domain/model"
)

// Row is one line of the coefficient table.
type Row struct {
	Term     string  `json:"term"`
	Estimate float64 `json:"estimate"`
	StdErr   float64 `json:"std_err"`
	Z        float64 `json:"z"`
	PValue   float64 `json:"p_value"`
}

// Summary is the structured output contract handed to external
// reporting collaborators: the coefficient table plus fit diagnostics.
type Summary struct {
	AnalysisID       string  `json:"analysis_id"`
	ReferenceLevel   string  `json:"reference_level"`
	Rows             []Row   `json:"rows"` // intercept first, then levels
	NullDeviance     float64 `json:"null_deviance"`
	ResidualDeviance float64 `json:"residual_deviance"`
	AIC              float64 `json:"aic"`
	Iterations       int     `json:"iterations"`
}

// Summarize flattens a fitted model into the summary contract.
func Summarize(m *model.FittedModel) Summary {
	rows := make([]Row, 0, 1+len(m.Coefficients))
	rows = append(rows, rowOf(m.Intercept))
	for _, c := range m.Coefficients {
		rows = append(rows, rowOf(c))
	}
	return Summary{
		AnalysisID:       m.AnalysisID.String(),
		ReferenceLevel:   m.ReferenceLevel,
		Rows:             rows,
		NullDeviance:     m.NullDeviance,
		ResidualDeviance: m.ResidualDeviance,
		AIC:              m.AIC,
		Iterations:       m.Iterations,
	}
}

func rowOf(c model.Coefficient) Row {
	return Row{Term: c.Term, Estimate: c.Estimate, StdErr: c.StdErr, Z: c.Z, PValue: c.PValue}
}

// Render writes the summary as a plain aligned table. Anything richer
// than this is a presentation concern that belongs to the caller.
func Render(w io.Writer, s Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "term\testimate\tstd.err\tz\tp-value\n")
	for _, r := range s.Rows {
		fmt.Fprintf(tw, "%s\t%.6f\t%.6f\t%.4f\t%.4g\n", r.Term, r.Estimate, r.StdErr, r.Z, r.PValue)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nreference level: %s\nnull deviance: %.4f\nresidual deviance: %.4f\nAIC: %.4f\niterations: %d\n",
		s.ReferenceLevel, s.NullDeviance, s.ResidualDeviance, s.AIC, s.Iterations)
	return err
}
