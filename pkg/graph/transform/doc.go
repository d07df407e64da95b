// Package transform rewrites execution graphs in place before layout.
//
// The only transformation today is [Simplify], which collapses redundant
// join nodes: joins that fan out to a single branch, dead-end joins, joins
// with a single parent, and chains of joins are all folded away so that the
// layout engine only sees sync points that actually merge parallel work.
package transform
