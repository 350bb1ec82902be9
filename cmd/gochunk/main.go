// Package main provides the gochunk binary: an MCP server and CLI that
// split source files into size-bounded, semantically meaningful chunks.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dshills/gochunk-mcp/internal/chunker"
	"github.com/dshills/gochunk-mcp/internal/config"
	"github.com/dshills/gochunk-mcp/internal/coordinator"
	"github.com/dshills/gochunk-mcp/internal/discovery"
	"github.com/dshills/gochunk-mcp/internal/events"
	"github.com/dshills/gochunk-mcp/internal/language"
	"github.com/dshills/gochunk-mcp/internal/mcp"
	"github.com/dshills/gochunk-mcp/internal/storage"
	"github.com/dshills/gochunk-mcp/pkg/types"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const appName = "gochunk"

// globalFlags are shared by every subcommand
type globalFlags struct {
	configPath string
	dbPath     string
	logLevel   string
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Semantic code chunking for retrieval pipelines",
		Long: `gochunk splits source files into size-bounded chunks for embedding.

Files with a tree-sitter grammar are chunked along syntax nodes ranked by
semantic importance. Other files fall back to language-family delimiters,
then to recursive text splitting. Chunks can be stored in SQLite and
searched with full-text queries, either from the CLI or over MCP.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&g.dbPath, "db", "", "Database path (overrides config and "+config.EnvDBPath+")")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		serveCmd(g),
		chunkCmd(g),
		familyCmd(g),
		delimitersCmd(g),
		classifyCmd(g),
		versionCmd(),
	)
	return cmd
}

func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	// stdout is reserved for MCP protocol and command output
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func (g *globalFlags) load(logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.Load(g.configPath, logger)
	if err != nil {
		return nil, err
	}
	if g.dbPath != "" {
		cfg.Storage.DBPath = g.dbPath
	}
	return cfg, nil
}

func serveCmd(g *globalFlags) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(g.logLevel)
			cfg, err := g.load(logger)
			if err != nil {
				return err
			}
			if metricsAddr != "" {
				cfg.MetricsAddr = metricsAddr
			}
			return serve(cfg, logger)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

func serve(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("gochunk MCP server starting",
		"version", version,
		"build_mode", storage.BuildMode,
		"driver", storage.DriverName)

	sink := events.Sink(events.NewLogSink(logger))
	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := events.NewMetricsSink(reg)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		sink = events.Multi(sink, metrics)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("metrics listening", "addr", cfg.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	server, err := mcp.NewServer(cfg, sink, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("MCP server ready, listening on stdio")
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("shutting down", "signal", sig.String())
		cancel()
	case err = <-errChan:
	}

	if metricsServer != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func chunkCmd(g *globalFlags) *cobra.Command {
	var (
		asJSON  bool
		persist bool
		force   bool
		lang    string
	)

	cmd := &cobra.Command{
		Use:   "chunk <path>",
		Short: "Chunk a file or directory and print the results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(g.logLevel)
			cfg, err := g.load(logger)
			if err != nil {
				return err
			}

			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			info, err := os.Stat(path)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := newChunker(cfg, logger)
			if err != nil {
				return err
			}

			if !info.IsDir() {
				file, err := discovery.Load(path)
				if err != nil {
					return err
				}
				if lang != "" {
					file.Language = language.Normalize(lang)
				}
				co := coordinator.New(c, coordinator.Config{Workers: 1, Logger: logger})
				res, err := co.ChunkFiles(ctx, []types.DiscoveredFile{file})
				if err != nil {
					return err
				}
				return printFileResults(cmd, res.Files, asJSON)
			}

			ccfg := coordinator.Config{Workers: cfg.Concurrency.MaxParallelFiles, Logger: logger}
			if persist {
				store, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()
				ccfg.Store = store
			}

			res, err := coordinator.New(c, ccfg).ChunkDirectory(ctx, path, cfg.DiscoveryOptions(), force)
			if err != nil {
				return err
			}
			if asJSON {
				return printFileResults(cmd, res.Files, true)
			}
			printStatistics(cmd, res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print chunks as JSON")
	cmd.Flags().BoolVar(&persist, "persist", false, "Store directory results in the database")
	cmd.Flags().BoolVar(&force, "force", false, "Re-chunk files whose stored hash is unchanged")
	cmd.Flags().StringVar(&lang, "language", "", "Override the language inferred from the extension")
	return cmd
}

func newChunker(cfg *config.Config, logger *slog.Logger) (*chunker.Chunker, error) {
	cc, err := cfg.ChunkerConfig(events.NewLogSink(logger), logger)
	if err != nil {
		return nil, err
	}
	return chunker.New(cc)
}

func openStore(cfg *config.Config) (storage.Storage, error) {
	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return storage.NewSQLiteStorage(dbPath)
}

// fileOutput is the JSON shape of one chunked file
type fileOutput struct {
	Path     string             `json:"path"`
	Language string             `json:"language"`
	Strategy string             `json:"strategy"`
	Visited  []string           `json:"visited"`
	Partial  bool               `json:"partial"`
	Degraded bool               `json:"degraded"`
	Error    string             `json:"error,omitempty"`
	Chunks   []*types.CodeChunk `json:"chunks"`
}

func printFileResults(cmd *cobra.Command, files map[string]*types.FileResult, asJSON bool) error {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := cmd.OutOrStdout()
	if asJSON {
		results := make([]fileOutput, 0, len(paths))
		for _, p := range paths {
			fr := files[p]
			fo := fileOutput{
				Path:     fr.Path,
				Language: fr.Language,
				Strategy: fr.Strategy,
				Visited:  fr.Visited,
				Partial:  fr.Partial,
				Degraded: fr.Degraded,
				Chunks:   fr.Chunks,
			}
			if fr.Err != nil {
				fo.Error = fr.Err.Error()
			}
			results = append(results, fo)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, p := range paths {
		fr := files[p]
		fmt.Fprintf(out, "%s (%s, %s, %d chunks)\n", fr.Path, orDash(fr.Language), fr.Strategy, len(fr.Chunks))
		if fr.Err != nil {
			fmt.Fprintf(out, "  error: %v\n", fr.Err)
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, c := range fr.Chunks {
			name := c.Metadata.Name
			category := ""
			if c.Metadata.Semantic != nil {
				category = c.Metadata.Semantic.Category
			}
			fmt.Fprintf(tw, "  %d-%d\t%s\t%s\t%s\t~%d tokens\n",
				c.Span.StartLine, c.Span.EndLine, c.Kind, orDash(category), orDash(name), c.EstimatedTokens())
		}
		_ = tw.Flush()
	}
	return nil
}

func printStatistics(cmd *cobra.Command, res *coordinator.DirectoryResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Chunked %s in %s\n", res.Root, res.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "  files chunked:   %d\n", res.FilesChunked)
	fmt.Fprintf(out, "  files unchanged: %d\n", res.FilesUnchanged)
	fmt.Fprintf(out, "  files degraded:  %d\n", res.FilesDegraded)
	fmt.Fprintf(out, "  files partial:   %d\n", res.FilesPartial)
	fmt.Fprintf(out, "  files failed:    %d\n", res.FilesFailed)
	fmt.Fprintf(out, "  files removed:   %d\n", res.FilesRemoved)
	fmt.Fprintf(out, "  files skipped:   %d\n", len(res.Skipped))
	fmt.Fprintf(out, "  chunks created:  %d\n", res.ChunksCreated)
	for _, msg := range res.ErrorMessages {
		fmt.Fprintf(out, "  error: %s\n", msg)
	}
}

func familyCmd(g *globalFlags) *cobra.Command {
	var minConfidence int

	cmd := &cobra.Command{
		Use:   "family <file>",
		Short: "Detect the syntax family of a file from its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(g.logLevel)
			cfg, err := g.load(logger)
			if err != nil {
				return err
			}
			c, err := newChunker(cfg, logger)
			if err != nil {
				return err
			}

			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			family, score := c.Detector().Detect(string(content), minConfidence)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "family:     %s\n", family)
			fmt.Fprintf(out, "candidate:  %s (%d/%d patterns, weighted %.3f)\n",
				score.Family, score.Matches, score.Patterns, score.Weighted)
			if lang := language.FromPath(args[0]); lang != "" {
				fmt.Fprintf(out, "catalog:    %s (%s)\n", c.Catalog().Family(lang), lang)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&minConfidence, "min-confidence", 3, "Minimum matching patterns before a family is reported")
	return cmd
}

func delimitersCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delimiters <language>",
		Short: "List the delimiters used for a language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(g.logLevel)
			cfg, err := g.load(logger)
			if err != nil {
				return err
			}
			catalog, err := cfg.Catalog()
			if err != nil {
				return err
			}

			lang := language.Normalize(args[0])
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", lang, catalog.Family(lang))

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SOURCE\tKIND\tPRIORITY\tSTART\tEND\tNESTABLE")
			for _, d := range catalog.UserDelimiters(lang) {
				fmt.Fprintf(tw, "user\t%s\t%d\t%q\t%q\t%v\n", d.Kind, d.Priority, d.Start, d.End, d.Nestable)
			}
			for _, d := range catalog.BuiltinDelimiters(lang) {
				fmt.Fprintf(tw, "builtin\t%s\t%d\t%q\t%q\t%v\n", d.Kind, d.Priority, d.Start, d.End, d.Nestable)
			}
			return tw.Flush()
		},
	}
}

func classifyCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <language> <node-kind>",
		Short: "Show the semantic category assigned to a syntax node kind",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(g.logLevel)
			cfg, err := g.load(logger)
			if err != nil {
				return err
			}
			cc, err := cfg.ChunkerConfig(events.Discard, logger)
			if err != nil {
				return err
			}

			cl := cc.Cache.Classify(args[1], language.Normalize(args[0]))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cl)
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s version %s (build: %s)\n", appName, version, buildTime)
			fmt.Fprintf(out, "Build Mode: %s\n", storage.BuildMode)
			fmt.Fprintf(out, "SQLite Driver: %s\n", storage.DriverName)
			fmt.Fprintf(out, "Schema Version: %s\n", storage.CurrentSchemaVersion)
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
