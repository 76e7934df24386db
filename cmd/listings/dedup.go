package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-listings-must-flow/internal/cli"
	"github.com/Veraticus/the-listings-must-flow/internal/dedup"
)

func dedupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Remove duplicate records",
		Long: `Remove records whose sender name, sender mobile and message text
repeat an earlier record. The earliest record of each group is kept.`,
		Args: cobra.NoArgs,
		RunE: runDedup,
	}

	cmd.Flags().Bool("dry-run", false, "Report duplicates without deleting them")
	cmd.Flags().Bool("backup", true, "Snapshot the database before deleting")
	return cmd
}

func runDedup(cmd *cobra.Command, _ []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	backup, _ := cmd.Flags().GetBool("backup")

	ctx, cancel := cli.NewInterruptHandler(cmd.ErrOrStderr()).
		HandleInterrupts(cmd.Context(), "Run dedup again to finish removing duplicates.")
	defer cancel()

	a, err := openApp(ctx, appConfig, false)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := dedup.Options{
		PageSize:  appConfig.Dedup.PageSize,
		BatchSize: appConfig.Dedup.BatchSize,
		DryRun:    dryRun,
	}
	if backup && !dryRun {
		bm, err := a.backups()
		if err != nil {
			return fmt.Errorf("failed to prepare backups: %w", err)
		}
		opts.Backup = bm
	}

	d := dedup.New(a.store, opts, a.metrics, slog.Default())
	d.SetObserver(cli.NewProgress(cmd.ErrOrStderr()))

	report, err := d.Run(ctx)
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderDedupReport(report, dryRun))

	var batchErr *dedup.BatchError
	if errors.As(err, &batchErr) {
		return fmt.Errorf("removed %d duplicates before failing, run dedup again to continue: %w", batchErr.DeletedSoFar, err)
	}
	return err
}
