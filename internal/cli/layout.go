package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stepgraph/stepgraph/pkg/graphio"
	"github.com/stepgraph/stepgraph/pkg/pipeline"
)

// layoutCommand creates the layout command for computing plot layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := c.pipelineOptions()

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute a plot layout from an execution graph",
		Long: `Compute a plot layout from an execution graph.

The layout command takes a graph.json file, simplifies redundant join nodes,
assigns every node a depth column and rank row, and materializes jittered
pixel positions. The output is a layout.json file that can be rendered with
the 'render' command or served with 'serve'.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when a cached layout exists")
	cmd.Flags().BoolVar(&opts.SkipSimplify, "skip-simplify", false, "keep redundant join nodes")

	c.addLayoutFlags(cmd, &opts)

	return cmd
}

// addLayoutFlags registers the flags shared by every command that computes a
// layout.
func (c *CLI) addLayoutFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().StringVar(&opts.Head, "head", opts.Head, "entry node the layout hangs from")
	cmd.Flags().IntVar(&opts.Width, "width", opts.Width, "canvas width in pixels")
	cmd.Flags().IntVar(&opts.Height, "height", opts.Height, "canvas height in pixels")
	cmd.Flags().IntVar(&opts.Margin, "margin", opts.Margin, "minimum distance from the canvas edge")
	cmd.Flags().IntVar(&opts.Softness, "softness", opts.Softness, "jitter radius around grid positions")
	cmd.Flags().IntVar(&opts.Squeeze, "squeeze", opts.Squeeze, "vertical compression factor for clustering")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", opts.Seed, "random seed for reproducible jitter and colors")
}

// runLayout loads the graph, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	if opts.Head == "" {
		return fmt.Errorf("head is required (pass --head or set it in the config file)")
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	g, err := runner.Load(ctx, withInput(opts, input))
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	if err := runner.Simplify(ctx, g, withInput(opts, input)); err != nil {
		return fmt.Errorf("simplify graph: %w", err)
	}

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	layout, err := runner.ComputeLayout(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}

	if err := graphio.WriteLayoutFile(layout, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(g.NodeCount(), len(g.Edges()), false)
	printNewline()
	printNextStep("Render", appName+" render "+input)

	return nil
}

// withInput returns a copy of opts with the input path set.
func withInput(opts pipeline.Options, input string) pipeline.Options {
	opts.Input = input
	return opts
}
