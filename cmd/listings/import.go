package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-listings-must-flow/internal/chatlog"
	"github.com/Veraticus/the-listings-must-flow/internal/cli"
	"github.com/Veraticus/the-listings-must-flow/internal/common"
	"github.com/Veraticus/the-listings-must-flow/internal/engine"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file-or-dir>...",
		Short: "Import WhatsApp chat exports",
		Long: `Import one or more WhatsApp chat exports (.txt or .zip).

Directories are scanned one level deep. By default records previously
imported from the same export are replaced, so re-importing a newer export
of the same group does not duplicate listings.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().Bool("replace", true, "Replace records previously imported from the same source (default from import.replace)")
	cmd.Flags().Int("workers", 0, "Concurrent classification workers (default from import.workers)")
	cmd.Flags().Bool("no-enrich", false, "Skip LLM enrichment")
	cmd.Flags().String("source", "", "Source name to record instead of the file name (single export only)")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	if cmd.Flags().Changed("replace") {
		cfg.Import.Replace, _ = cmd.Flags().GetBool("replace")
	}
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		cfg.Import.Workers = workers
	}
	noEnrich, _ := cmd.Flags().GetBool("no-enrich")
	sourceName, _ := cmd.Flags().GetString("source")

	paths, err := chatlog.FindExports(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return common.NewUserError("no .txt or .zip exports found", common.ErrNoMessages)
	}
	if sourceName != "" && len(paths) != 1 {
		return common.NewUserError("--source needs exactly one export", common.ErrInvalidInput)
	}

	origin := make(map[string]string, len(paths))
	for _, p := range paths {
		name := chatlog.SourceName(p)
		if prev, ok := origin[name]; ok {
			return common.NewUserError(
				fmt.Sprintf("%s and %s share the source name %q; import them separately with --source", prev, p, name),
				common.ErrInvalidInput)
		}
		origin[name] = p
	}

	sources := make([]engine.Source, 0, len(paths))
	for _, p := range paths {
		text, err := chatlog.ReadExport(p)
		if err != nil {
			return err
		}
		name := chatlog.SourceName(p)
		if sourceName != "" {
			name = sourceName
		}
		sources = append(sources, engine.Source{Name: name, Text: text})
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx, cancel := handler.HandleInterrupts(cmd.Context(), "Records already saved are kept. Import again to replace them.")
	defer cancel()

	a, err := openApp(ctx, cfg, !noEnrich)
	if err != nil {
		return err
	}
	defer a.Close()

	loc, err := cfg.Import.Location()
	if err != nil {
		return err
	}
	importer := engine.NewImporter(a.store, a.store, a.enricher, engine.Config{
		Location:  loc,
		Workers:   cfg.Import.Workers,
		BatchSize: cfg.Import.BatchSize,
	}, a.metrics, slog.Default())
	importer.SetObserver(cli.NewProgress(cmd.ErrOrStderr()))

	slog.Info("Importing exports", "count", len(sources), "replace", cfg.Import.Replace)
	report, err := importer.ImportAll(ctx, sources, engine.Options{
		Replace:  cfg.Import.Replace,
		NoEnrich: noEnrich,
	})
	if len(sources) == 1 {
		report.SourceFile = sources[0].Name
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderImportReport(report))

	if err != nil {
		if handler.WasInterrupted() || ctx.Err() != nil {
			return common.NewUserError("import interrupted", err)
		}
		return fmt.Errorf("import finished with errors: %w", err)
	}
	return nil
}
