// Package eval computes standard information retrieval metrics over search
// results and orchestrates full evaluation and comparison runs, optionally
// inferring ground truth with an LLM judge.
package eval
