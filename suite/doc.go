// Package suite generates labeled test queries from a repository layout and
// runs multi-configuration evaluations with per-category breakdowns.
package suite
