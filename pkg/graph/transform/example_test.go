package transform_test

import (
	"fmt"
	"slices"

	"github.com/stepgraph/stepgraph/pkg/graph"
	"github.com/stepgraph/stepgraph/pkg/graph/transform"
)

func ExampleSimplify() {
	// Two parallel steps sync at a join before the final step.
	g := graph.New()
	for _, id := range []string{"start", "build", "test", "deploy"} {
		_ = g.AddTask(id)
	}
	join := g.AddJoin()
	_ = g.AddEdge("start", "build")
	_ = g.AddEdge("start", "test")
	_ = g.AddEdge("build", join)
	_ = g.AddEdge("test", join)
	_ = g.AddEdge(join, "deploy")

	_ = transform.Simplify(g, "start")

	// The join was redundant: deploy itself is the merge point now.
	parents := slices.Clone(g.Parents("deploy"))
	slices.Sort(parents)
	fmt.Println("nodes:", g.NodeCount())
	fmt.Println("parents of deploy:", parents)
	// Output:
	// nodes: 4
	// parents of deploy: [build test]
}
