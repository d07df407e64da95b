// Package plot renders layout snapshots as SVG scatter plots: one colored
// dot per node, edges drawn in the source node's color, and labels placed
// next to the dots. Output respects the snapshot's zoom, origin, label, and
// highlight state, so a rendered plot matches what the interactive viewer
// shows.
package plot
