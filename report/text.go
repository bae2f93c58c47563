// SPDX-License-Identifier: MIT

package report

import (
	"fmt"
	"io"

	"github.com/katalvlaran/powiter/poweriter"
)

const rule = "-----------------------------------------"

// Section titles of the text layout.
const (
	titleEigenvector = "eigenvector:"
	titleEigenvalues = "successive eigenvalue approximations:"
	titleConverged   = "iterations needed for convergence:"
	titleIterations  = "iterations performed:"
	titleResiduals   = "successive residuals:"

	divergenceNote = "convergence problem: successive iterates stopped pointing the same way"
)

// textWriter remembers the first write error so the layout code stays linear.
type textWriter struct {
	w   io.Writer
	err error
}

func (tw *textWriter) printf(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.w, format, args...)
}

func (tw *textWriter) section(title string, values []float64) {
	tw.printf("%s\n%s\n", rule, title)
	for _, v := range values {
		tw.printf("%f\n", v)
	}
	tw.printf("\n")
}

// WriteText writes the ruled console layout of r.
func WriteText(w io.Writer, r Report) error {
	tw := &textWriter{w: w}
	if r.Name != "" {
		tw.printf("problem: %s\n", r.Name)
	}
	if r.RunID != "" {
		tw.printf("run: %s\n", r.RunID)
	}
	if r.Name != "" || r.RunID != "" {
		tw.printf("\n")
	}

	tw.section(titleEigenvector, r.Eigenvector)
	tw.section(titleEigenvalues, r.Eigenvalues)

	title := titleIterations
	if r.Reason == poweriter.StateConverged {
		title = titleConverged
	}
	tw.printf("%s\n%s\n%d\n\n", rule, title, r.Iterations)

	tw.section(titleResiduals, r.Residuals)

	tw.printf("%s\nreason: %s\n", rule, r.Reason)
	if r.Eigenvalue != nil {
		tw.printf("eigenvalue: %f\n", *r.Eigenvalue)
	}
	if r.Residual != nil {
		tw.printf("residual: %g\n", *r.Residual)
	}
	if r.Reason == poweriter.StateDivergenceAborted {
		tw.printf("%s\n", divergenceNote)
	}
	if r.Error != "" {
		tw.printf("error: %s\n", r.Error)
	}
	if tw.err != nil {
		return fmt.Errorf("report: write text: %w", tw.err)
	}

	return nil
}
