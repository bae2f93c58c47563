// SPDX-License-Identifier: MIT

// Package report renders a poweriter.Result for people and for machines.
//
// The text layout follows the classic console printout of a power-method
// run: the eigenvector, the successive eigenvalue approximations, the number
// of iterations and the successive residuals, each under a ruled heading,
// followed by the termination reason. The JSON layout carries the same data
// with stable field names.
package report
