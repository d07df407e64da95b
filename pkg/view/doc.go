// Package view publishes computed layouts as immutable snapshots and owns
// every mutation entry point a viewer needs: recomputing the layout, dragging
// nodes, panning, zooming, and hit testing.
//
// The Engine publishes through an atomic pointer swap, so readers always see
// a complete snapshot and concurrent recomputations resolve last-writer-wins.
package view
