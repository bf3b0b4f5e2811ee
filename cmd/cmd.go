// Package cmd provides CLI command implementations for reposteria.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/config"
	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/dbpedia"
	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/ingestion"
	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/metrics"
	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/search"
	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/server"
	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/storage"
	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Globals are the flags shared by every command.
type Globals struct {
	Config   string `short:"c" help:"Path to a YAML configuration file" type:"path"`
	Ontology string `short:"o" help:"Ontology document or directory (overrides config)"`
	Lang     string `short:"l" help:"Preferred language code, e.g. es or en"`
	Verbose  bool   `short:"v" help:"Enable verbose output"`
	Quiet    bool   `short:"q" help:"Suppress non-essential output"`
	JSON     bool   `help:"Print results as JSON"`

	// Stdout receives command output. Defaults to os.Stdout.
	Stdout io.Writer `kong:"-"`
}

func (g *Globals) out() io.Writer {
	if g.Stdout != nil {
		return g.Stdout
	}
	return os.Stdout
}

// app holds what a command needs once flags and config are resolved.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	loader  *ingestion.Loader
}

// newApp loads configuration, applies flag overrides and sets up logging.
func (g *Globals) newApp() (*app, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.Ontology != "" {
		cfg.Ontology.Path = g.Ontology
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.Log, g.Verbose, g.Quiet)
	slog.SetDefault(logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
		loader:  ingestion.NewLoader(ingestion.WithLogger(logger), ingestion.WithDebounce(cfg.Ontology.Debounce)),
	}, nil
}

func newLogger(cfg config.LogConfig, verbose, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}
	if quiet {
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// newEngine wraps idx in an engine configured from the search settings.
func (a *app) newEngine(snap *ingestion.Snapshot) (*search.Engine, error) {
	return search.NewEngine(snap.Index,
		search.WithLanguage(a.cfg.Ontology.DefaultLanguage),
		search.WithRequireAll(a.cfg.Search.RequireAllTerms),
		search.WithLimit(a.cfg.Search.Limit),
		search.WithLogger(a.logger),
		search.WithRecorder(a.metrics),
	)
}

// loadCatalog loads the configured ontology into a new catalog.
func (a *app) loadCatalog() (*search.Catalog, *ingestion.Snapshot, error) {
	snap, err := a.loader.LoadSnapshot(a.cfg.Ontology.Path)
	if err != nil {
		a.metrics.ObserveReload(false, 0)
		return nil, nil, err
	}
	engine, err := a.newEngine(snap)
	if err != nil {
		return nil, nil, err
	}
	a.metrics.ObserveReload(true, snap.Index.Stats()["triples"])
	a.logger.Debug("ontology loaded",
		"path", a.cfg.Ontology.Path,
		"files", len(snap.Files),
		"triples", snap.Index.Stats()["triples"],
		"elapsed", snap.Duration,
	)
	return search.NewCatalog(engine), snap, nil
}

// watch reloads the ontology into catalog whenever it changes. A failed
// reload leaves the previous engine serving.
func (a *app) watch(ctx context.Context, catalog *search.Catalog, snap *ingestion.Snapshot) {
	go func() {
		err := a.loader.Watch(ctx, a.cfg.Ontology.Path, snap.Fingerprint, func(next *ingestion.Snapshot, err error) {
			if err != nil {
				a.metrics.ObserveReload(false, 0)
				a.logger.Error("ontology reload failed, keeping previous index", "path", a.cfg.Ontology.Path, "err", err)
				return
			}
			engine, err := a.newEngine(next)
			if err != nil {
				a.metrics.ObserveReload(false, 0)
				a.logger.Error("building engine", "err", err)
				return
			}
			catalog.Swap(engine)
			triples := next.Index.Stats()["triples"]
			a.metrics.ObserveReload(true, triples)
			a.logger.Info("ontology reloaded", "path", a.cfg.Ontology.Path, "triples", triples)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("watch error", "err", err)
		}
	}()
}

// newDBpedia builds the DBpedia client and its response cache. The
// returned func closes the cache.
func (a *app) newDBpedia() (*dbpedia.Client, func(), error) {
	dc := a.cfg.DBpedia

	var cache storage.Cache
	if dc.CachePath != "" {
		cache = storage.NewBadgerCache()
	} else {
		cache = storage.NewMemoryCache()
	}
	if err := cache.Initialize(dc.CachePath, false); err != nil {
		return nil, nil, fmt.Errorf("initializing dbpedia cache: %w", err)
	}
	closeCache := func() { _ = cache.Close() }

	client, err := dbpedia.NewClient(
		dbpedia.WithEndpoint(dc.Endpoint),
		dbpedia.WithTimeout(dc.Timeout),
		dbpedia.WithLanguage(dc.Language),
		dbpedia.WithCache(cache, dc.CacheTTL),
		dbpedia.WithBreaker(dbpedia.BreakerSettings{
			MaxRequests:  dc.CircuitBreaker.MaxRequests,
			Interval:     dc.CircuitBreaker.Interval,
			Timeout:      dc.CircuitBreaker.Timeout,
			MinRequests:  dc.CircuitBreaker.MinRequests,
			FailureRatio: dc.CircuitBreaker.ReadyToTripRatio,
		}),
		dbpedia.WithLogger(a.logger),
		dbpedia.WithRecorder(a.metrics),
	)
	if err != nil {
		closeCache()
		return nil, nil, err
	}
	return client, closeCache, nil
}

// searchOptions merges command flags over the configured defaults.
func (a *app) searchOptions(all bool, limit int) search.Options {
	opts := search.Options{RequireAll: a.cfg.Search.RequireAllTerms, Limit: a.cfg.Search.Limit}
	if all {
		opts.RequireAll = true
	}
	if limit > 0 {
		opts.Limit = limit
	}
	return opts
}

// InstancesCmd searches recipes, ingredients, tools and techniques.
type InstancesCmd struct {
	Query string `arg:"" help:"Search text"`
	All   bool   `short:"a" help:"Only show hits matching every term"`
	Limit int    `short:"n" help:"Maximum results (0 uses the configured limit)"`
}

// Run executes the instances command.
func (c *InstancesCmd) Run(g *Globals) error {
	a, err := g.newApp()
	if err != nil {
		return err
	}
	catalog, _, err := a.loadCatalog()
	if err != nil {
		return err
	}

	results, err := catalog.SearchInstances(context.Background(), c.Query, g.Lang, a.searchOptions(c.All, c.Limit))
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}
	if g.JSON {
		return writeJSON(g.out(), results)
	}
	printResults(g.out(), results)
	return nil
}

// ClassesCmd searches ontology classes.
type ClassesCmd struct {
	Query string `arg:"" help:"Search text"`
	Limit int    `short:"n" help:"Maximum results (0 uses the configured limit)"`
}

// Run executes the classes command.
func (c *ClassesCmd) Run(g *Globals) error {
	a, err := g.newApp()
	if err != nil {
		return err
	}
	catalog, _, err := a.loadCatalog()
	if err != nil {
		return err
	}

	results, err := catalog.SearchClasses(context.Background(), c.Query, g.Lang, a.searchOptions(false, c.Limit))
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}
	if g.JSON {
		return writeJSON(g.out(), results)
	}
	printResults(g.out(), results)
	return nil
}

// SearchCmd searches instances and classes, and DBpedia on request.
type SearchCmd struct {
	Query   string `arg:"" help:"Search text"`
	All     bool   `short:"a" help:"Only show hits matching every term"`
	Limit   int    `short:"n" help:"Maximum results (0 uses the configured limit)"`
	DBpedia bool   `short:"d" name:"dbpedia" help:"Also search DBpedia"`
}

// Run executes the search command.
func (c *SearchCmd) Run(g *Globals) error {
	a, err := g.newApp()
	if err != nil {
		return err
	}
	catalog, _, err := a.loadCatalog()
	if err != nil {
		return err
	}
	ctx := context.Background()
	opts := a.searchOptions(c.All, c.Limit)

	local, err := catalog.SearchInstances(ctx, c.Query, g.Lang, opts)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}
	classes, err := catalog.SearchClasses(ctx, c.Query, g.Lang, opts)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	remote := []*search.Result{}
	var remoteErr error
	if c.DBpedia {
		client, closeCache, err := a.newDBpedia()
		if err != nil {
			return err
		}
		defer closeCache()
		remote, remoteErr = client.Search(ctx, c.Query, a.cfg.DBpedia.ResultLimit)
		if remoteErr != nil {
			a.logger.Warn("dbpedia search failed", "query", c.Query, "err", remoteErr)
			remote = []*search.Result{}
		}
	}

	if g.JSON {
		resp := map[string]any{
			"query":   c.Query,
			"local":   local,
			"classes": classes,
			"dbpedia": remote,
		}
		if remoteErr != nil {
			resp["dbpedia_error"] = remoteErr.Error()
		}
		return writeJSON(g.out(), resp)
	}

	w := g.out()
	printSection(w, "Instances")
	printResults(w, local)
	printSection(w, "Classes")
	printResults(w, classes)
	if c.DBpedia {
		printSection(w, "DBpedia")
		if remoteErr != nil {
			color.New(color.FgYellow).Fprintf(w, "DBpedia unavailable: %v\n", remoteErr)
		} else {
			printResults(w, remote)
		}
	}
	return nil
}

// StatsCmd shows the size of the loaded ontology.
type StatsCmd struct{}

// Run executes the stats command.
func (c *StatsCmd) Run(g *Globals) error {
	a, err := g.newApp()
	if err != nil {
		return err
	}
	catalog, snap, err := a.loadCatalog()
	if err != nil {
		return err
	}
	e, err := catalog.Engine()
	if err != nil {
		return err
	}

	stats := e.Index().Stats()
	products := 0
	for _, id := range e.Index().Instances() {
		if e.Resolver().IsProduct(e.Index().Types(id)) {
			products++
		}
	}
	stats["products"] = products

	if g.JSON {
		return writeJSON(g.out(), map[string]any{
			"path":             a.cfg.Ontology.Path,
			"files":            snap.Files,
			"fingerprint":      snap.Fingerprint,
			"graph":            stats,
			"default_language": e.Language(),
		})
	}

	w := g.out()
	color.New(color.FgGreen).Fprintf(w, "Ontology %s\n", a.cfg.Ontology.Path)
	fmt.Fprintf(w, "  Files:            %d\n", len(snap.Files))
	fmt.Fprintf(w, "  Triples:          %d\n", stats["triples"])
	fmt.Fprintf(w, "  Subjects:         %d\n", stats["subjects"])
	fmt.Fprintf(w, "  Classes:          %d\n", stats["classes"])
	fmt.Fprintf(w, "  Instances:        %d\n", stats["instances"])
	fmt.Fprintf(w, "  Products:         %d\n", stats["products"])
	fmt.Fprintf(w, "  Default language: %s\n", e.Language())
	fmt.Fprintf(w, "  Loaded in:        %s\n", snap.Duration)
	return nil
}

// DBpediaCmd searches DBpedia only.
type DBpediaCmd struct {
	Term  string `arg:"" help:"Dessert name or part of it"`
	Limit int    `short:"n" help:"Maximum results (0 uses the configured limit)"`
}

// Run executes the dbpedia command.
func (c *DBpediaCmd) Run(g *Globals) error {
	a, err := g.newApp()
	if err != nil {
		return err
	}
	client, closeCache, err := a.newDBpedia()
	if err != nil {
		return err
	}
	defer closeCache()

	limit := a.cfg.DBpedia.ResultLimit
	if c.Limit > 0 {
		limit = c.Limit
	}
	results, err := client.Search(context.Background(), c.Term, limit)
	if err != nil {
		return fmt.Errorf("searching dbpedia: %w", err)
	}
	if g.JSON {
		return writeJSON(g.out(), results)
	}
	printResults(g.out(), results)
	return nil
}

// ServeCmd starts the HTTP API.
type ServeCmd struct {
	Watch   bool   `short:"w" help:"Reload the ontology when it changes"`
	Host    string `help:"Listen host (overrides config)"`
	Port    int    `short:"p" help:"Listen port (overrides config)"`
	DBpedia bool   `short:"d" name:"dbpedia" help:"Enable DBpedia lookups (overrides config)"`
}

// Run executes the serve command.
func (c *ServeCmd) Run(g *Globals) error {
	a, err := g.newApp()
	if err != nil {
		return err
	}
	if c.Host != "" {
		a.cfg.Server.Host = c.Host
	}
	if c.Port > 0 {
		a.cfg.Server.Port = c.Port
	}

	catalog, snap, err := a.loadCatalog()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-osSignalChannel()
		cancel()
	}()

	opts := []server.Option{
		server.WithAddr(a.cfg.Server.Addr()),
		server.WithMode(a.cfg.Server.Mode),
		server.WithVersion(Version),
		server.WithMetrics(a.metrics.Handler()),
		server.WithLogger(a.logger),
	}
	if c.DBpedia || a.cfg.DBpedia.Enabled {
		client, closeCache, err := a.newDBpedia()
		if err != nil {
			return err
		}
		defer closeCache()
		enricher, err := dbpedia.NewEnricher(client,
			dbpedia.WithPoolSize(a.cfg.DBpedia.PoolSize),
			dbpedia.WithEnricherLogger(a.logger),
		)
		if err != nil {
			return err
		}
		defer enricher.Release()
		opts = append(opts, server.WithRemote(client, a.cfg.DBpedia.ResultLimit), server.WithEnricher(enricher))
	}

	if c.Watch || a.cfg.Ontology.Watch {
		a.watch(ctx, catalog, snap)
	}

	srv := server.New(catalog, opts...)
	color.New(color.FgGreen).Fprintf(os.Stderr, "Serving %s on http://%s\n", a.cfg.Ontology.Path, srv.Addr())
	return srv.Run(ctx)
}

// MCPCmd starts the MCP server.
type MCPCmd struct {
	Watch   bool `short:"w" help:"Reload the ontology when it changes"`
	SDK     bool `help:"Serve through the go-sdk stdio transport"`
	DBpedia bool `short:"d" name:"dbpedia" help:"Enable the DBpedia tool (overrides config)"`
}

// Run executes the mcp command.
func (c *MCPCmd) Run(g *Globals) error {
	// stdout carries JSON-RPC only, so keep the logger quiet.
	g.Quiet = g.Quiet || !g.Verbose
	a, err := g.newApp()
	if err != nil {
		return err
	}
	catalog, snap, err := a.loadCatalog()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-osSignalChannel()
		cancel()
	}()

	opts := []mcp.Option{mcp.WithVersion(Version), mcp.WithLogger(a.logger)}
	if c.DBpedia || a.cfg.DBpedia.Enabled {
		client, closeCache, err := a.newDBpedia()
		if err != nil {
			return err
		}
		defer closeCache()
		opts = append(opts, mcp.WithRemote(client))
	}

	if c.Watch || a.cfg.Ontology.Watch {
		a.watch(ctx, catalog, snap)
	}

	srv := mcp.NewServer(catalog, opts...)
	if c.SDK {
		err = srv.RunSDK(ctx, &mcpsdk.StdioTransport{})
	} else {
		err = srv.Run(ctx, os.Stdin, os.Stdout)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Helper functions

// osSignalChannel returns a channel that receives OS signals for graceful shutdown.
func osSignalChannel() <-chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	return sigChan
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func toJSON(v any) string {
	bytes, _ := json.Marshal(v)
	return string(bytes)
}

func printSection(w io.Writer, title string) {
	color.New(color.FgCyan, color.Bold).Fprintf(w, "\n== %s ==\n", title)
}

func printResults(w io.Writer, results []*search.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found")
		return
	}

	name := color.New(color.Bold)
	for i, r := range results {
		fmt.Fprintf(w, "\n%d. ", i+1)
		name.Fprint(w, r.Name)
		if len(r.Classes) > 0 {
			fmt.Fprintf(w, " (%s)", strings.Join(r.Classes, ", "))
		}
		if r.Source == search.SourceDBpedia {
			color.New(color.FgMagenta).Fprint(w, " [DBpedia]")
		} else {
			fmt.Fprintf(w, " relevance %d", r.Relevance)
		}
		fmt.Fprintln(w)

		printList(w, "Ingredients", r.Ingredients)
		printList(w, "Tools", r.Tools)
		printList(w, "Techniques", r.Techniques)
		printList(w, "Superclasses", r.Superclasses)
		printList(w, "Subclasses", r.Subclasses)
		printList(w, "Instances", r.Instances)
		printList(w, "Used by", r.UsedBy)
		printList(w, "Categories", r.Categories)
		for _, key := range r.AttributeKeys() {
			printList(w, key, r.Attributes[key])
		}
		if r.Description != "" {
			fmt.Fprintf(w, "   %s\n", r.Description)
		}
		if r.DBpediaURI != "" {
			fmt.Fprintf(w, "   DBpedia: %s\n", r.DBpediaURI)
		}
	}
}

func printList(w io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "   %s: %s\n", label, strings.Join(items, ", "))
}

// CLI is the root Kong command structure.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version information"`

	// Commands
	Instances InstancesCmd `cmd:"" help:"Search recipes, ingredients, tools and techniques"`
	Classes   ClassesCmd   `cmd:"" help:"Search ontology classes"`
	Search    SearchCmd    `cmd:"" help:"Search instances and classes, optionally DBpedia too"`
	Stats     StatsCmd     `cmd:"" help:"Show ontology statistics"`
	DBpedia   DBpediaCmd   `cmd:"" name:"dbpedia" help:"Search desserts on DBpedia"`
	Serve     ServeCmd     `cmd:"" help:"Start the HTTP API"`
	MCP       MCPCmd       `cmd:"" name:"mcp" help:"Start MCP server (stdio transport)"`
	Setup     SetupCmd     `cmd:"" help:"Configure MCP for Claude Code / Cursor"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	parser, err := kong.New(c,
		kong.Name("reposteria"),
		kong.Description("Semantic search over a pastry recipe ontology"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kongCtx.Run(&c.Globals)
}
