// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseVector reads comma-separated numbers: "1, 1.5, -2".
func ParseVector(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty vector", ErrInvalidConfig)
	}
	fields := strings.Split(s, ",")
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: vector entry %d: %w", ErrInvalidConfig, i, err)
		}
		out[i] = v
	}

	return out, nil
}

// ParseMatrix reads rows separated by ';' with comma-separated entries:
// "2,0; 0,1". Ragged rows are left for Validate to report.
func ParseMatrix(s string) ([][]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty matrix", ErrInvalidConfig)
	}
	rows := strings.Split(s, ";")
	out := make([][]float64, len(rows))
	for i, r := range rows {
		row, err := ParseVector(r)
		if err != nil {
			return nil, fmt.Errorf("matrix row %d: %w", i, err)
		}
		out[i] = row
	}

	return out, nil
}
