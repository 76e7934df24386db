package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-listings-must-flow/internal/chatlog"
	"github.com/Veraticus/the-listings-must-flow/internal/cli"
	"github.com/Veraticus/the-listings-must-flow/internal/common"
	"github.com/Veraticus/the-listings-must-flow/internal/config"
	"github.com/Veraticus/the-listings-must-flow/internal/engine"
	"github.com/Veraticus/the-listings-must-flow/internal/service"
	"github.com/Veraticus/the-listings-must-flow/internal/watch"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Import exports as they appear in a directory",
		Long: `Watch a directory for WhatsApp exports. New or changed exports are
imported, replacing their earlier records. Removing an export deletes the
records imported from it.`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().Bool("no-enrich", false, "Skip LLM enrichment")
	cmd.Flags().Bool("initial", true, "Import exports already in the directory before watching")
	cmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period before a changed export is imported")
	return cmd
}

// watchHandler imports and removes exports on behalf of the watcher.
type watchHandler struct {
	importer *engine.Importer
	sink     service.RecordSink
	opts     engine.Options
}

func (h *watchHandler) Import(ctx context.Context, path string) error {
	text, err := chatlog.ReadExport(path)
	if err != nil {
		return err
	}
	_, err = h.importer.Import(ctx, engine.Source{Name: chatlog.SourceName(path), Text: text}, h.opts)
	return err
}

func (h *watchHandler) Remove(ctx context.Context, source string) error {
	n, err := h.sink.DeleteBySourceFile(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to remove records of %s: %w", source, err)
	}
	slog.Info("Removed records of deleted export", "source_file", source, "records", n)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := config.ExpandPath(args[0])
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return common.NewUserError(fmt.Sprintf("%s is not a directory", dir), common.ErrInvalidInput)
	}
	noEnrich, _ := cmd.Flags().GetBool("no-enrich")
	initial, _ := cmd.Flags().GetBool("initial")
	debounce, _ := cmd.Flags().GetDuration("debounce")

	ctx, cancel := cli.NewInterruptHandler(cmd.ErrOrStderr()).HandleInterrupts(cmd.Context(), "Stopped watching.")
	defer cancel()

	a, err := openApp(ctx, appConfig, !noEnrich)
	if err != nil {
		return err
	}
	defer a.Close()

	loc, err := appConfig.Import.Location()
	if err != nil {
		return err
	}
	h := &watchHandler{
		importer: engine.NewImporter(a.store, a.store, a.enricher, engine.Config{
			Location:  loc,
			Workers:   appConfig.Import.Workers,
			BatchSize: appConfig.Import.BatchSize,
		}, a.metrics, slog.Default()),
		sink: a.store,
		opts: engine.Options{Replace: true, NoEnrich: noEnrich},
	}

	if initial {
		paths, err := chatlog.FindExports([]string{dir})
		if err != nil {
			return err
		}
		for _, p := range paths {
			if ctx.Err() != nil {
				return nil
			}
			if err := h.Import(ctx, p); err != nil {
				slog.Warn("Initial import failed", "path", p, "error", err)
			}
		}
	}

	fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatInfo(cli.WatchIcon+" Watching "+dir+" (Ctrl+C to stop)"))
	return watch.New(dir, h, debounce, slog.Default()).Run(ctx)
}
