// Package graph implements the execution graph model used throughout
// stepgraph: named task nodes and synthetic join nodes connected by directed
// edges with symmetric parent/child adjacency.
//
// # Structure
//
// A [Graph] owns its nodes and stores adjacency as ordered ID lists on both
// sides, keeping the invariant that B is a child of A exactly when A is a
// parent of B. Edge mutation always updates both directions, and removing a
// node strips it from every neighbor. This arena style avoids shared mutable
// node pointers with back-references.
//
// # Join nodes
//
// Join nodes ([NodeKindJoin]) mark synchronization barriers where parallel
// branches must all complete before shared children start. They are created
// with [Graph.AddJoin], carry generated IDs, and present an empty display
// name. Whether a node is a join is an explicit kind tag, so a task named
// like a join ID is never mistaken for one.
//
// Graphs produced by callers usually contain redundant joins (chains of
// joins, joins with a single branch). Package graph/transform collapses
// those before layout.
package graph
