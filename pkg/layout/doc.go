// Package layout turns a simplified execution graph into pixel positions.
//
// The engine runs in three passes:
//
//  1. Region assignment ([AssignRegions]): a depth-first traversal gives
//     every reachable node an integer (x, y) region, where x is the length
//     of the longest path from the head and y is a dense top-to-bottom rank
//     within its column. Nodes reached again along a deeper path are shifted
//     right together with their subtree, so edges never run backward.
//  2. Coordinate generation ([Grid]): regions map onto a soft grid over the
//     canvas - slot centers with bounded seeded jitter, clamped away from
//     the edges. Same seed, same regions: identical pixels.
//  3. Clustering ([Cluster]): a single breadth-first relaxation nudges each
//     node toward the mean y of its positioned parents to cut visual
//     crossings, dividing the delta by a squeeze factor.
//
// [Compute] wires the passes together and returns one [Result]. Positions
// are two-state values ([Position]): unresolved until first derived, fixed
// afterwards; user repositioning fixes them permanently and they are never
// re-derived from regions.
package layout
