// Package judge scores retrieved documents for relevance using an LLM and
// derives binary ground-truth sets from those graded judgments.
package judge
