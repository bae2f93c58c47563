// SPDX-License-Identifier: MIT

// Package store records power-iteration runs in a SQLite database.
//
// Each run keeps its problem (matrix, initial vector, tolerance, budget,
// threshold), its outcome (reason, iterations, final eigenpair, error text)
// and the full trajectory, one row per accepted iteration.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000 ms
//   - foreign_keys=ON (steps cascade with their run)
//
// Run IDs are UUIDv7, so they sort by creation time.
package store
