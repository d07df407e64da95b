// Package graphio defines the canonical serialization formats for execution
// graphs and computed layouts. The formats are JSON-first and human readable,
// designed for round-trip fidelity: import → simplify → layout → export →
// re-import produces identical structure. The same types carry bson tags so
// stored layouts need no parallel schema.
package graphio
