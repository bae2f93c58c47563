// SPDX-License-Identifier: MIT

package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/katalvlaran/powiter/poweriter"
)

// ErrUnknownFormat is returned by ParseFormat for an unsupported name.
var ErrUnknownFormat = errors.New("report: unknown format")

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat maps "text" and "json" to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Report is the printable view of one run.
type Report struct {
	Name        string          `json:"name,omitempty"`
	RunID       string          `json:"run_id,omitempty"`
	Reason      poweriter.State `json:"reason"`
	Iterations  int             `json:"iterations"`
	Eigenvalue  *float64        `json:"eigenvalue,omitempty"`
	Residual    *float64        `json:"residual,omitempty"`
	Eigenvector []float64       `json:"eigenvector"`
	Eigenvalues []float64       `json:"eigenvalues"`
	Residuals   []float64       `json:"residuals"`
	Error       string          `json:"error,omitempty"`
}

// FromResult flattens res into a Report. Final eigenvalue and residual are
// set only when at least one iteration was accepted. A nil res yields an
// empty Report.
func FromResult(res *poweriter.Result) Report {
	if res == nil {
		return Report{Eigenvector: []float64{}, Eigenvalues: []float64{}, Residuals: []float64{}}
	}
	r := Report{
		Reason:      res.Reason,
		Iterations:  res.Iterations,
		Eigenvector: append([]float64(nil), res.Eigenvector...),
		Eigenvalues: res.Eigenvalues(),
		Residuals:   res.Residuals(),
	}
	if r.Eigenvector == nil {
		r.Eigenvector = []float64{}
	}
	if lam, ok := res.Eigenvalue(); ok {
		r.Eigenvalue = &lam
	}
	if rn, ok := res.Residual(); ok {
		r.Residual = &rn
	}

	return r
}

// Write renders r in format f.
func Write(w io.Writer, r Report, f Format) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatText:
		return WriteText(w, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// WriteJSON writes r as indented JSON followed by a newline.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}

	return nil
}
