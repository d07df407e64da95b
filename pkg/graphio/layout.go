package graphio

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/stepgraph/stepgraph/pkg/layout"
)

// Layout is the serialization format for a computed layout: the canvas
// bounds, the graph structure the layout was computed against, and one
// positioned point per node. Stored layouts carry a generated ID.
type Layout struct {
	ID     string `json:"id,omitempty" bson:"_id,omitempty"`
	Width  int    `json:"width" bson:"width"`
	Height int    `json:"height" bson:"height"`
	Seed   uint64 `json:"seed,omitempty" bson:"seed,omitempty"`

	Nodes  []Node  `json:"nodes,omitempty" bson:"nodes,omitempty"`
	Edges  []Edge  `json:"edges,omitempty" bson:"edges,omitempty"`
	Points []Point `json:"points" bson:"points"`
}

// Point is one node's placement: pixel position, region assignment, and plot
// color as a #rrggbb string.
type Point struct {
	ID      string `json:"id" bson:"id"`
	X       int    `json:"x" bson:"x"`
	Y       int    `json:"y" bson:"y"`
	XRegion int    `json:"x_region" bson:"x_region"`
	YRegion int    `json:"y_region" bson:"y_region"`
	Color   string `json:"color,omitempty" bson:"color,omitempty"`
}

// FromResult converts a layout result to its serialization format. Points
// are sorted by node ID for deterministic output. Nodes whose position was
// never materialized are skipped.
func FromResult(res *layout.Result, g Graph, seed uint64) Layout {
	out := Layout{
		Width:  res.Width,
		Height: res.Height,
		Seed:   seed,
		Nodes:  g.Nodes,
		Edges:  g.Edges,
		Points: make([]Point, 0, len(res.Points)),
	}
	for id, pt := range res.Points {
		pos := pt.Pos()
		if !pos.Fixed() {
			continue
		}
		out.Points = append(out.Points, Point{
			ID:      id,
			X:       pos.X,
			Y:       pos.Y,
			XRegion: pt.Region.X,
			YRegion: pt.Region.Y,
			Color:   fmt.Sprintf("#%02x%02x%02x", pt.Color.R, pt.Color.G, pt.Color.B),
		})
	}
	slices.SortFunc(out.Points, func(a, b Point) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout and validates that
// it carries points.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if len(l.Points) == 0 {
		return Layout{}, fmt.Errorf("layout must contain points")
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
