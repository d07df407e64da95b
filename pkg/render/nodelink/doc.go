// Package nodelink renders execution graphs as traditional node-link
// diagrams using Graphviz. Tasks appear as rounded boxes connected by
// arrows; synthetic join nodes appear as small filled points, keeping the
// diagram readable without inventing names for them.
package nodelink
