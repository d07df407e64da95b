package graphio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/stepgraph/stepgraph/pkg/graph"
)

// ReadJSON decodes a JSON graph from r into a live graph.
//
// The input must be a JSON object with "nodes" and "edges" arrays:
//
//	{
//	  "nodes": [{"id": "build"}, {"id": "join_1", "kind": "join"}],
//	  "edges": [{"from": "build", "to": "join_1"}]
//	}
//
// Each node must have an "id" field; "kind" is "join" for synthetic join
// nodes and omitted for tasks. Each edge must reference node IDs that appear
// in the nodes array.
//
// ReadJSON returns an error if the JSON is malformed, a node ID repeats, or
// an edge references an unknown node. The returned graph is independent of r
// and can be modified safely. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*graph.Graph, error) {
	var data Graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return ToGraph(data)
}

// WriteJSON encodes a graph as indented JSON and writes it to w.
// The output can be re-imported with [ReadJSON] for round-trip processing.
func WriteJSON(g *graph.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromGraph(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MarshalGraphJSON encodes a serialized graph as deterministic compact JSON.
// [FromGraph] sorts nodes and edges, so equal graphs marshal to equal bytes,
// which makes the output usable as a content-hash input.
func MarshalGraphJSON(g Graph) ([]byte, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

// ImportFile reads a JSON graph file at path. It returns the same validation
// errors as [ReadJSON], wrapped with the file path for context.
func ImportFile(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// ExportFile writes a graph to a JSON file at path.
func ExportFile(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(g, f)
}
