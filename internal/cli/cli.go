package cli

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"msgstudio/internal/config"
	"msgstudio/internal/export"
	"msgstudio/internal/filewalker"
	"msgstudio/internal/graph"
	"msgstudio/internal/lms"
	"msgstudio/internal/msbt"
	"msgstudio/internal/store"
	"msgstudio/internal/textutil"
	"msgstudio/internal/worker"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "msgstudio",
		Short: "Extract text from Nintendo Message Studio (MSBT) files",
		Long:  "Decodes MSBT message containers into label/text entries and exports them to files or databases.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(inspectCmd())
	rootCmd.AddCommand(findTagCmd())

	return rootCmd
}

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <file.msbt>",
		Short: "Decode one MSBT file and print its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			tags, _ := cmd.Flags().GetString("tags")
			output, _ := cmd.Flags().GetString("output")
			return runExtract(cmd.OutOrStdout(), args[0], export.Format(format), tags, output)
		},
	}

	cmd.Flags().String("format", "json", "Output format: json, tsv or markup")
	cmd.Flags().String("tags", "", "Tag preset: none or system (default from TAG_PRESET)")
	cmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")

	return cmd
}

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <directory>",
		Short: "Decode every MSBT file under a directory and write them to a sink",
		Long: `Walks the directory for .msbt files, decodes them in parallel and writes
each decoded file to the chosen sink. File sinks (json, tsv, markup) write
one combined export; database sinks (postgres, sqlite, neo4j) upsert per file.
Files that fail to decode are reported and the command exits non-zero.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sink, _ := cmd.Flags().GetString("sink")
			tags, _ := cmd.Flags().GetString("tags")
			output, _ := cmd.Flags().GetString("output")
			workers, _ := cmd.Flags().GetInt("workers")
			return runIngest(cmd.OutOrStdout(), args[0], sink, tags, output, workers)
		},
	}

	cmd.Flags().String("sink", "json", "Sink: json, tsv, markup, postgres, sqlite or neo4j")
	cmd.Flags().String("tags", "", "Tag preset: none or system (default from TAG_PRESET)")
	cmd.Flags().StringP("output", "o", "", "Output path for file sinks, SQLite database path for sqlite")
	cmd.Flags().Int("workers", 0, "Parallel decoders (default from WORKER_COUNT)")

	return cmd
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the LMS header and section table of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.OutOrStdout(), args[0])
		},
	}
}

func findTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find-tag [name]",
		Short: "List ingested entries that use a control tag, or tag usage counts without a name (Neo4j)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			tag := ""
			if len(args) == 1 {
				tag = args[0]
			}
			return runFindTag(cmd.OutOrStdout(), tag, limit)
		},
	}

	cmd.Flags().Int("limit", 50, "Maximum entries to list")

	return cmd
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// parseOptions maps a tag preset name to decoder options.
func parseOptions(preset string) ([]msbt.Option, error) {
	switch preset {
	case "", "none":
		return nil, nil
	case "system":
		return []msbt.Option{msbt.WithTagFormats(msbt.SystemTags())}, nil
	default:
		return nil, fmt.Errorf("unknown tag preset %q", preset)
	}
}

// decodeFile reads and decodes one file into a Document named by its walk-relative path.
func decodeFile(entry filewalker.FileEntry, opts []msbt.Option) (export.Document, error) {
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return export.Document{}, fmt.Errorf("read file: %w", err)
	}

	m, err := msbt.Parse(data, opts...)
	if err != nil {
		return export.Document{}, err
	}

	return export.NewDocument(entry.Rel, data, m), nil
}

// runExtract handles the `extract` command.
func runExtract(stdout io.Writer, path string, format export.Format, preset, output string) error {
	cfg := config.Load()
	if preset == "" {
		preset = cfg.TagPreset
	}

	opts, err := parseOptions(preset)
	if err != nil {
		return err
	}

	entries, err := filewalker.NewWalker().Walk(path)
	if err != nil {
		return err
	}

	var docs []export.Document
	for _, entry := range entries {
		doc, err := decodeFile(entry, opts)
		if err != nil {
			return fmt.Errorf("decode %s: %w", entry.Rel, err)
		}
		docs = append(docs, doc)
	}

	return writeExport(stdout, output, format, docs)
}

// runIngest handles the `ingest` command.
func runIngest(stdout io.Writer, inputDir, sinkName, preset, output string, workers int) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if preset == "" {
		preset = cfg.TagPreset
	}
	if workers <= 0 {
		workers = cfg.WorkerCount
	}

	opts, err := parseOptions(preset)
	if err != nil {
		return err
	}

	entries, err := filewalker.NewWalker().Walk(inputDir)
	if err != nil {
		return fmt.Errorf("walk input directory: %w", err)
	}

	log.Info().Int("files", len(entries)).Int("workers", workers).Msg("Starting ingestion")

	decodePool := worker.NewPool[filewalker.FileEntry, export.Document](workers,
		func(ctx context.Context, entry filewalker.FileEntry) (export.Document, error) {
			return decodeFile(entry, opts)
		},
	)
	results := decodePool.Execute(ctx, entries)

	var docs []export.Document
	var entryCount int
	for _, r := range results {
		if r.Err != nil {
			log.Error().Err(r.Err).Str("file", r.Input.Rel).Msg("Decode failed")
			continue
		}
		docs = append(docs, r.Result)
		entryCount += len(r.Result.Entries)
	}

	if err := writeSink(ctx, stdout, cfg, sinkName, output, docs); err != nil {
		return err
	}

	log.Info().
		Int("files", len(entries)).
		Int("decoded", len(docs)).
		Int("entries", entryCount).
		Str("sink", sinkName).
		Msg("Ingestion complete")

	return worker.Errors(results, func(e filewalker.FileEntry) string { return e.Rel })
}

func writeSink(ctx context.Context, stdout io.Writer, cfg *config.Config, sinkName, output string, docs []export.Document) error {
	switch sinkName {
	case "json", "tsv", "markup":
		return writeExport(stdout, output, export.Format(sinkName), docs)
	}

	sink, err := openSink(ctx, cfg, sinkName, output)
	if err != nil {
		return err
	}
	defer sink.Close(ctx)

	batches := worker.Batch(docs, cfg.BatchSize)
	for batchIdx, batch := range batches {
		for _, doc := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := sink.Write(ctx, doc); err != nil {
				return fmt.Errorf("write %s to %s: %w", doc.File, sinkName, err)
			}
		}
		log.Info().
			Int("batch", batchIdx+1).
			Int("total_batches", len(batches)).
			Int("size", len(batch)).
			Msg("Stored batch")
	}

	return nil
}

func openSink(ctx context.Context, cfg *config.Config, sinkName, output string) (store.Sink, error) {
	switch sinkName {
	case "postgres":
		s, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			s.Close(ctx)
			return nil, err
		}
		return s, nil

	case "sqlite":
		path := cfg.SQLitePath
		if output != "" {
			path = output
		}
		return store.NewSQLiteStore(ctx, path)

	case "neo4j":
		driver, err := graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			return nil, err
		}
		gb := graph.NewGraphBuilder(driver)
		if err := gb.EnsureSchema(ctx); err != nil {
			gb.Close(ctx)
			return nil, err
		}
		return gb, nil

	default:
		return nil, fmt.Errorf("unknown sink %q", sinkName)
	}
}

func writeExport(stdout io.Writer, output string, format export.Format, docs []export.Document) error {
	if output == "" {
		return export.Write(stdout, format, docs)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	if err := export.Write(f, format, docs); err != nil {
		return err
	}

	log.Info().Str("path", output).Int("files", len(docs)).Msg("Export written")
	return f.Close()
}

// runInspect handles the `inspect` command.
func runInspect(stdout io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if len(data) < 8 {
		return fmt.Errorf("%w: file is %d bytes", lms.ErrBadMagic, len(data))
	}

	// Accept any magic and version so every LMS kind can be inspected.
	f, err := lms.Parse(data, string(data[:8]), allVersions())
	if err != nil {
		return err
	}

	order := "little"
	if f.Order == binary.BigEndian {
		order = "big"
	}
	fmt.Fprintf(stdout, "magic\t%s\nendian\t%s\nencoding\t%s\nversion\t%d\nsections\t%d\nsize\t%d\n",
		f.Magic, order, f.Encoding, f.Version, f.SectionCount, f.FileSize)
	for _, s := range f.Sections {
		fmt.Fprintf(stdout, "%s\t%#x\t%d\n", s.Name, s.Offset, len(s.Data))
	}

	log.Debug().Str("file", path).Str("hash", textutil.Truncate(textutil.Hash(data), 12)).Msg("Inspected file")
	return nil
}

func allVersions() []uint8 {
	versions := make([]uint8, 256)
	for i := range versions {
		versions[i] = uint8(i)
	}
	return versions
}

// runFindTag handles the `find-tag` command.
func runFindTag(stdout io.Writer, tag string, limit int) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()

	driver, err := graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	querier := graph.NewGraphQuerier(driver)

	if tag == "" {
		usage, err := querier.TagUsage(ctx)
		if err != nil {
			return err
		}
		names := slices.Sorted(maps.Keys(usage))
		for _, name := range names {
			fmt.Fprintf(stdout, "%s\t%d\n", name, usage[name])
		}
		return nil
	}

	refs, err := querier.EntriesUsingTag(ctx, tag, limit)
	if err != nil {
		return err
	}

	for _, r := range refs {
		fmt.Fprintf(stdout, "%s\t%s\t%s\n", r.File, r.Label, textutil.Truncate(r.Text, 60))
	}

	log.Info().Str("tag", tag).Int("entries", len(refs)).Msg("Tag lookup complete")
	return nil
}
