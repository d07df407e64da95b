package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stepgraph/stepgraph/internal/server"
	"github.com/stepgraph/stepgraph/pkg/cache"
	"github.com/stepgraph/stepgraph/pkg/pipeline"
	"github.com/stepgraph/stepgraph/pkg/store"
)

const defaultAddr = ":8080"

// serveCommand creates the serve command for running the HTTP server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		watch   bool
		noCache bool
	)
	opts := c.pipelineOptions()

	if c.Config.Server.Addr != "" {
		addr = c.Config.Server.Addr
	} else {
		addr = defaultAddr
	}

	cmd := &cobra.Command{
		Use:   "serve [graph.json]",
		Short: "Serve the layout engine over HTTP",
		Long: `Serve the layout engine over HTTP.

The server loads the graph file, publishes a layout, and exposes it under
/v1: the current snapshot, a rendered SVG plot, pan/zoom/drag mutations, and
layout persistence. Prometheus metrics are served on /metrics.

With --watch, the graph file is reloaded whenever it changes on disk.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args[0], opts, addr, watch, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", addr, "listen address")
	cmd.Flags().BoolVar(&watch, "watch", c.Config.Server.Watch, "reload the graph file on change")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	c.addLayoutFlags(cmd, &opts)

	return cmd
}

// runServe wires the cache, the store, and the server and blocks until the
// context is canceled.
func (c *CLI) runServe(ctx context.Context, input string, opts pipeline.Options, addr string, watch, noCache bool) error {
	if opts.Head == "" {
		return fmt.Errorf("head is required (pass --head or set it in the config file)")
	}

	cch, err := c.serverCache(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	runner := pipeline.NewRunner(cch, nil, c.Logger)
	defer runner.Close()

	st, err := c.serverStore(ctx)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer func() { _ = st.Close(context.Background()) }()

	srv, err := server.New(ctx, server.Config{
		Addr:     addr,
		Input:    input,
		Head:     opts.Head,
		Watch:    watch,
		Pipeline: opts,
	}, runner, st, c.Logger)
	if err != nil {
		return err
	}

	return srv.ListenAndServe(ctx)
}

// serverCache picks the cache backend: Redis when configured, local files
// otherwise.
func (c *CLI) serverCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if c.Config.Redis.Addr != "" {
		c.Logger.Info("using redis cache", "addr", c.Config.Redis.Addr)
		return cache.NewRedisCache(ctx, c.Config.Redis.Addr)
	}
	return newCache(false)
}

// serverStore picks the layout store: MongoDB when configured, in-memory
// otherwise.
func (c *CLI) serverStore(ctx context.Context) (store.Store, error) {
	if c.Config.Mongo.URI != "" {
		c.Logger.Info("using mongo store", "database", c.Config.Mongo.Database)
		return store.NewMongoStore(ctx, store.MongoConfig{
			URI:      c.Config.Mongo.URI,
			Database: c.Config.Mongo.Database,
		})
	}
	return store.NewMemoryStore(), nil
}
