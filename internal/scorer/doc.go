// Package scorer implements the Scorer stage (spec.md §4.5): lead-lag
// cross-correlation between a situation's candidate cause and its effects,
// bounded-depth graph-proximity search over the embedder-supplied graph
// hints, and the composite causal-plausibility score used to rank and
// publish the situation set.
package scorer
